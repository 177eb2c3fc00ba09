package catalog

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type memStore struct {
	mu       sync.Mutex
	products map[string]Product
	finds    int
	findErr  error
}

func newMemStore(products ...Product) *memStore {
	s := &memStore{products: map[string]Product{}}
	for _, p := range products {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		s.products[p.ID] = p
	}
	return s
}

func (s *memStore) FindProducts(_ context.Context, f Filter) ([]Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finds++
	if s.findErr != nil {
		return nil, s.findErr
	}
	var out []Product
	for _, p := range s.products {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) FindProductByID(_ context.Context, id string) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (s *memStore) SaveProduct(_ context.Context, p Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; !ok {
		return ErrNotFound
	}
	s.products[p.ID] = p
	return nil
}

func (s *memStore) InsertProduct(_ context.Context, p Product) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = uuid.NewString()
	s.products[p.ID] = p
	return p, nil
}

func (s *memStore) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *memStore) SampleProducts(_ context.Context, n int) ([]Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Product, 0, n)
	for _, p := range s.products {
		if len(out) == n {
			break
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *memStore) findCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finds
}

type memCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	sets   int
	getErr error
	setErr error
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	b, ok := c.data[key]
	return b, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	c.data[key] = append([]byte(nil), value...)
	return nil
}

func (c *memCache) setCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sets
}

func fixture() (*memStore, *memCache, Product, Product) {
	featured := Product{ID: "p-featured", Name: "Alpha Jacket", Price: 120, Category: "jackets", IsFeatured: true}
	plain := Product{ID: "p-plain", Name: "Beta Shoes", Price: 80, Category: "shoes"}
	return newMemStore(featured, plain), newMemCache(), featured, plain
}

func TestListFeaturedCacheAsideIdempotent(t *testing.T) {
	store, cache, _, _ := fixture()
	var hits, misses int
	svc := NewService(store, cache, Config{
		OnCacheHit:  func() { hits++ },
		OnCacheMiss: func() { misses++ },
	})
	ctx := context.Background()

	first, err := svc.ListFeaturedJSON(ctx)
	if err != nil {
		t.Fatalf("first list: %v", err)
	}
	second, err := svc.ListFeaturedJSON(ctx)
	if err != nil {
		t.Fatalf("second list: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("expected byte-identical results:\n%s\n%s", first, second)
	}
	if n := store.findCount(); n != 1 {
		t.Fatalf("expected one store query, got %d", n)
	}
	if hits != 1 || misses != 1 {
		t.Fatalf("expected 1 hit / 1 miss, got %d / %d", hits, misses)
	}

	products, err := svc.ListFeatured(ctx)
	if err != nil {
		t.Fatalf("list decoded: %v", err)
	}
	if len(products) != 1 || products[0].ID != "p-featured" {
		t.Fatalf("unexpected featured set %+v", products)
	}
}

func TestListFeaturedEmptyIsNotFound(t *testing.T) {
	store := newMemStore(Product{Name: "Plain", Price: 1})
	cache := newMemCache()
	svc := NewService(store, cache, Config{})

	if _, err := svc.ListFeatured(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if cache.setCount() != 0 {
		t.Fatal("empty result must not be cached on the read path")
	}

	cache.data[DefaultFeaturedKey] = []byte("[]")
	if _, err := svc.ListFeatured(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected cached empty set to be ErrNotFound, got %v", err)
	}
}

func TestToggleFeaturedVisibleOnNextRead(t *testing.T) {
	store, cache, _, plain := fixture()
	svc := NewService(store, cache, Config{})
	ctx := context.Background()

	if _, err := svc.ListFeatured(ctx); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	updated, err := svc.ToggleFeatured(ctx, plain.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !updated.IsFeatured {
		t.Fatal("expected product to be featured")
	}

	findsBefore := store.findCount()
	products, err := svc.ListFeatured(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if store.findCount() != findsBefore {
		t.Fatal("read after toggle should be served from cache")
	}
	if len(products) != 2 {
		t.Fatalf("expected toggled product in featured set, got %+v", products)
	}
}

func TestToggleUnknownProductLeavesCacheUntouched(t *testing.T) {
	store, cache, _, _ := fixture()
	svc := NewService(store, cache, Config{})

	if _, err := svc.ToggleFeatured(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if cache.setCount() != 0 {
		t.Fatalf("expected no cache Set, got %d", cache.setCount())
	}
}

func TestToggleSucceedsWhenCacheRefreshFails(t *testing.T) {
	store, cache, featured, _ := fixture()
	cache.setErr = errors.New("cache offline")
	var failures int
	svc := NewService(store, cache, Config{OnCacheRefreshFailure: func() { failures++ }})

	updated, err := svc.ToggleFeatured(context.Background(), featured.ID)
	if err != nil {
		t.Fatalf("toggle must not fail on cache error: %v", err)
	}
	if updated.IsFeatured {
		t.Fatal("expected product to be unfeatured")
	}
	stored, _ := store.FindProductByID(context.Background(), featured.ID)
	if stored.IsFeatured {
		t.Fatal("store mutation should have committed")
	}
	if failures != 1 {
		t.Fatalf("expected one refresh failure, got %d", failures)
	}
}

func TestToggleLastFeaturedWritesEmptySet(t *testing.T) {
	store, cache, featured, _ := fixture()
	svc := NewService(store, cache, Config{})
	ctx := context.Background()

	if _, err := svc.ToggleFeatured(ctx, featured.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if got := string(cache.data[DefaultFeaturedKey]); got != "[]" {
		t.Fatalf("expected empty set cached, got %q", got)
	}
	if _, err := svc.ListFeatured(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCacheReadErrorFallsBackToStore(t *testing.T) {
	store, cache, _, _ := fixture()
	cache.getErr = errors.New("timeout")
	svc := NewService(store, cache, Config{})

	products, err := svc.ListFeatured(context.Background())
	if err != nil {
		t.Fatalf("expected store fallback, got %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("unexpected products %+v", products)
	}
}

func TestCorruptCacheEntryIsReplacedFromStore(t *testing.T) {
	for _, entry := range []string{"{not json", `{"_id":"p1"}`, ""} {
		t.Run(entry, func(t *testing.T) {
			store, cache, featured, _ := fixture()
			cache.data[DefaultFeaturedKey] = []byte(entry)
			var hits, misses int
			svc := NewService(store, cache, Config{
				OnCacheHit:  func() { hits++ },
				OnCacheMiss: func() { misses++ },
			})
			ctx := context.Background()

			products, err := svc.ListFeatured(ctx)
			if err != nil {
				t.Fatalf("expected store fallback, got %v", err)
			}
			if len(products) != 1 || products[0].ID != featured.ID {
				t.Fatalf("unexpected products %+v", products)
			}
			if store.findCount() != 1 || hits != 0 || misses != 1 {
				t.Fatalf("finds=%d hits=%d misses=%d", store.findCount(), hits, misses)
			}

			if _, err := svc.ListFeaturedJSON(ctx); err != nil {
				t.Fatalf("second read: %v", err)
			}
			if store.findCount() != 1 || hits != 1 {
				t.Fatalf("entry was not repaired: finds=%d hits=%d", store.findCount(), hits)
			}
		})
	}
}

func TestCorruptRedisEntryIsRepaired(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	if err := mr.Set(DefaultFeaturedKey, "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	store, _, _, _ := fixture()
	svc := NewService(store, NewRedisCache(rdb), Config{})

	data, err := svc.ListFeaturedJSON(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	stored, err := mr.Get(DefaultFeaturedKey)
	if err != nil {
		t.Fatalf("expected cache entry: %v", err)
	}
	if stored != string(data) || stored == "{not json" {
		t.Fatalf("entry not overwritten: %q", stored)
	}
}

func TestStoreFailureIsUpstream(t *testing.T) {
	store, cache, _, _ := fixture()
	store.findErr = errors.New("mongo down")
	svc := NewService(store, cache, Config{})

	if _, err := svc.ListFeatured(context.Background()); !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if _, err := svc.ListProducts(context.Background()); !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestCreateAndDeleteFeaturedRefreshCache(t *testing.T) {
	store, cache, featured, plain := fixture()
	fixed := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	svc := NewService(store, cache, Config{Now: func() time.Time { return fixed }})
	ctx := context.Background()

	if _, err := svc.CreateProduct(ctx, Product{Name: " "}); !errors.Is(err, ErrInvalidProduct) {
		t.Fatalf("expected ErrInvalidProduct, got %v", err)
	}

	created, err := svc.CreateProduct(ctx, Product{Name: "Gamma Hat", Price: 20, IsFeatured: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || !created.CreatedAt.Equal(fixed) {
		t.Fatalf("unexpected created product %+v", created)
	}
	products, err := svc.ListFeatured(ctx)
	if err != nil || len(products) != 2 {
		t.Fatalf("expected 2 featured after create, got %d err=%v", len(products), err)
	}

	setsBefore := cache.setCount()
	if err := svc.DeleteProduct(ctx, plain.ID); err != nil {
		t.Fatalf("delete plain: %v", err)
	}
	if cache.setCount() != setsBefore {
		t.Fatal("deleting a non-featured product should not rewrite the cache")
	}

	if err := svc.DeleteProduct(ctx, featured.ID); err != nil {
		t.Fatalf("delete featured: %v", err)
	}
	products, err = svc.ListFeatured(ctx)
	if err != nil || len(products) != 1 || products[0].ID != created.ID {
		t.Fatalf("unexpected featured set after delete: %+v err=%v", products, err)
	}

	if err := svc.DeleteProduct(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListByCategoryAndRecommendations(t *testing.T) {
	store, cache, _, _ := fixture()
	svc := NewService(store, cache, Config{Recommendations: 1})
	ctx := context.Background()

	shoes, err := svc.ListByCategory(ctx, "shoes")
	if err != nil || len(shoes) != 1 || shoes[0].Name != "Beta Shoes" {
		t.Fatalf("unexpected category result %+v err=%v", shoes, err)
	}
	none, err := svc.ListByCategory(ctx, "hats")
	if err != nil || none == nil || len(none) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v err=%v", none, err)
	}
	recs, err := svc.Recommendations(ctx)
	if err != nil || len(recs) != 1 {
		t.Fatalf("expected one recommendation, got %d err=%v", len(recs), err)
	}
}

func TestRedisCacheRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store, _, _, _ := fixture()
	svc := NewService(store, NewRedisCache(rdb), Config{})
	ctx := context.Background()

	first, err := svc.ListFeaturedJSON(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	stored, err := mr.Get(DefaultFeaturedKey)
	if err != nil {
		t.Fatalf("expected cache entry: %v", err)
	}
	if stored != string(first) {
		t.Fatal("cache entry differs from returned bytes")
	}
	if ttl := mr.TTL(DefaultFeaturedKey); ttl != 0 {
		t.Fatalf("expected no expiry, got %v", ttl)
	}

	mr.Close()
	if _, _, err := NewRedisCache(rdb).Get(ctx, DefaultFeaturedKey); !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream from closed redis, got %v", err)
	}
}

func TestReconcilerRepairsStaleEntry(t *testing.T) {
	store, cache, _, plain := fixture()
	var reconciled atomic.Int32
	svc := NewService(store, cache, Config{OnReconciled: func() { reconciled.Add(1) }})
	ctx := context.Background()

	if _, err := svc.ListFeatured(ctx); err != nil {
		t.Fatalf("warm: %v", err)
	}

	// the store changes behind the cache's back
	p, _ := store.FindProductByID(ctx, plain.ID)
	p.IsFeatured = true
	_ = store.SaveProduct(ctx, p)

	r := StartReconciler(ctx, svc, 10*time.Millisecond)
	defer r.Close()

	deadline := time.Now().Add(2 * time.Second)
	for reconciled.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if reconciled.Load() == 0 {
		t.Fatal("reconciler never ran")
	}
	products, err := svc.ListFeatured(ctx)
	if err != nil || len(products) != 2 {
		t.Fatalf("expected repaired featured set, got %d err=%v", len(products), err)
	}
}

func TestReconcilerDisabled(t *testing.T) {
	store, cache, _, _ := fixture()
	if r := StartReconciler(context.Background(), NewService(store, cache, Config{}), 0); r != nil {
		t.Fatal("expected nil reconciler at zero interval")
	}
	var r *Reconciler
	r.Close()
}
