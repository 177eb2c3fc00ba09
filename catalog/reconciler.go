package catalog

import (
	"context"
	"sync"
	"time"
)

// Reconciler rebuilds the featured cache entry on a fixed interval, repairing
// an entry left stale by a failed post-mutation refresh.
type Reconciler struct {
	svc      *Service
	interval time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// StartReconciler starts the rebuild loop. It returns nil when interval is not
// positive; a nil Reconciler is safe to Close.
func StartReconciler(ctx context.Context, svc *Service, interval time.Duration) *Reconciler {
	if svc == nil || interval <= 0 {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	r := &Reconciler{svc: svc, interval: interval, cancel: cancel}

	r.wg.Add(1)
	go r.run(ctx)

	return r
}

func (r *Reconciler) run(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.reconcile(ctx)
		}
	}
}

func (r *Reconciler) reconcile(ctx context.Context) {
	if err := r.svc.RefreshFeatured(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		hook(r.svc.config.OnCacheRefreshFailure)
		r.svc.logger.WarnContext(ctx, "catalog: featured cache reconcile failed", "error", err)
		return
	}
	hook(r.svc.config.OnReconciled)
}

// Close stops the loop and waits for an in-flight rebuild.
func (r *Reconciler) Close() {
	if r == nil {
		return
	}
	r.once.Do(func() {
		r.cancel()
		r.wg.Wait()
	})
}
