// Command goshop-loadtest measures refresh-registry and featured-cache latency
// against Redis (or an in-process miniredis when no address is given).
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goShop/catalog"
	"github.com/MrEthical07/goShop/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type userState struct {
	id          string
	generation  int
	fingerprint string
	mu          sync.Mutex
}

func main() {
	var (
		users       = flag.Int("users", 100000, "number of refresh registry entries to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "loadtest_refresh", "registry key prefix")
	)
	flag.Parse()

	if *users <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "users, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()
	client, cleanup, err := connect(*redisAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "redis: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	registry := session.NewRegistry(client, *prefix)
	ttl := 7 * 24 * time.Hour

	states := make([]userState, *users)
	fmt.Printf("seeding %d registry entries...\n", *users)
	startSeed := time.Now()
	for i := range states {
		states[i].id = "user-" + strconv.Itoa(i)
		states[i].fingerprint = fingerprintFor(i, 0)
		if err := registry.Put(ctx, states[i].id, states[i].fingerprint, ttl); err != nil {
			fmt.Fprintf(os.Stderr, "put failed: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	cache := catalog.NewRedisCache(client)
	featuredKey := *prefix + ":" + catalog.DefaultFeaturedKey
	if err := cache.Set(ctx, featuredKey, []byte(`[{"_id":"p1","name":"Jacket","isFeatured":true}]`), 0); err != nil {
		fmt.Fprintf(os.Stderr, "cache seed failed: %v\n", err)
		os.Exit(1)
	}

	lookup := runPhase(*ops, *concurrency, func(r *rand.Rand, _ int) error {
		_, err := registry.Get(ctx, states[r.Intn(len(states))].id)
		return err
	})

	rotate := runPhase(*ops, *concurrency, func(r *rand.Rand, _ int) error {
		state := &states[r.Intn(len(states))]
		state.mu.Lock()
		defer state.mu.Unlock()

		idx, _ := strconv.Atoi(state.id[len("user-"):])
		next := fingerprintFor(idx, state.generation+1)
		if err := registry.Rotate(ctx, state.id, state.fingerprint, next, ttl); err != nil {
			return err
		}
		state.generation++
		state.fingerprint = next
		return nil
	})

	featured := runPhase(*ops, *concurrency, func(*rand.Rand, int) error {
		_, ok, err := cache.Get(ctx, featuredKey)
		if err == nil && !ok {
			return fmt.Errorf("featured entry missing")
		}
		return err
	})

	fmt.Println("---- results ----")
	printStats("registry_get", lookup)
	printStats("registry_rotate", rotate)
	printStats("featured_get", featured)
}

func connect(addr string) (redis.UniversalClient, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		fmt.Printf("using redis at %s\n", addr)
		return client, func() { _ = client.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, err
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	fmt.Printf("using miniredis at %s\n", mr.Addr())
	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}

// runPhase spreads ops calls of fn over concurrency workers and records the
// latency of each call.
func runPhase(ops, concurrency int, fn func(r *rand.Rand, op int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := fn(r, i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

func fingerprintFor(user, generation int) string {
	return session.Fingerprint("loadtest-" + strconv.Itoa(user) + "-" + strconv.Itoa(generation))
}
