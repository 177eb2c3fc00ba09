package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Config controls the dispatcher.
type Config struct {
	Enabled    bool
	BufferSize int

	// Now stamps events queued without a timestamp. Defaults to time.Now.
	Now func() time.Time
	// Logger reports sink panics. Defaults to a discard logger.
	Logger *slog.Logger
}

// Dispatcher relays events to a sink on its own goroutine. Emit never waits:
// when the buffer is full the event is dropped and counted, so a slow sink
// cannot add latency to signup, login or refresh. A nil *Dispatcher is valid
// and discards everything.
type Dispatcher struct {
	sink   Sink
	now    func() time.Time
	logger *slog.Logger

	ch      chan Event
	stop    chan struct{}
	relayed chan struct{}
	dropped atomic.Uint64
	closing atomic.Bool
	once    sync.Once
}

// NewDispatcher starts the relay. It returns nil when cfg is disabled.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		sink:    sink,
		now:     cfg.Now,
		logger:  cfg.Logger,
		ch:      make(chan Event, cfg.BufferSize),
		stop:    make(chan struct{}),
		relayed: make(chan struct{}),
	}
	go d.relay()
	return d
}

func (d *Dispatcher) relay() {
	defer close(d.relayed)
	for {
		select {
		case event := <-d.ch:
			d.deliver(event)
		case <-d.stop:
			for {
				select {
				case event := <-d.ch:
					d.deliver(event)
				default:
					return
				}
			}
		}
	}
}

// deliver hands one event to the sink. A panicking sink loses that event
// only; the relay keeps running.
func (d *Dispatcher) deliver(event Event) {
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("audit: sink panicked", "event", event.EventType, "panic", rec)
		}
	}()
	d.sink.Emit(context.Background(), event)
}

// Emit queues event, stamping it with the current UTC time when Timestamp is
// zero.
func (d *Dispatcher) Emit(event Event) {
	if d == nil || d.closing.Load() {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = d.now().UTC()
	}
	select {
	case d.ch <- event:
	default:
		d.dropped.Add(1)
	}
}

// Close stops accepting events, delivers what is already queued and waits for
// the relay to exit.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.once.Do(func() {
		d.closing.Store(true)
		close(d.stop)
		<-d.relayed
	})
}

// Dropped returns the number of events discarded because the buffer was full.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
