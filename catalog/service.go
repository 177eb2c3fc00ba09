package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	// DefaultFeaturedKey is the cache key holding the featured set.
	DefaultFeaturedKey = "featured_products"
	// DefaultRecommendations is the sample size of Recommendations.
	DefaultRecommendations = 4
)

// Config configures a [Service]. Hooks are optional and must not block.
type Config struct {
	FeaturedKey     string
	Recommendations int
	Logger          *slog.Logger
	Now             func() time.Time

	OnCacheHit            func()
	OnCacheMiss           func()
	OnCacheRefreshFailure func()
	OnReconciled          func()
}

// Service serves the product catalog with a cache-aside featured set. The
// store is the source of truth; the cache entry is rewritten after every
// mutation that can change the featured set.
type Service struct {
	store  Store
	cache  Cache
	config Config
	logger *slog.Logger
}

// NewService returns a Service over store and cache.
func NewService(store Store, cache Cache, cfg Config) *Service {
	if cfg.FeaturedKey == "" {
		cfg.FeaturedKey = DefaultFeaturedKey
	}
	if cfg.Recommendations <= 0 {
		cfg.Recommendations = DefaultRecommendations
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{store: store, cache: cache, config: cfg, logger: logger}
}

/*
====================================
FEATURED (CACHE-ASIDE)
====================================
*/

// ListFeaturedJSON returns the serialized featured set. A cache hit that
// decodes as a product array is returned byte-for-byte without touching the
// store; an undecodable entry is treated as a miss and overwritten. An empty
// set is ErrNotFound.
func (s *Service) ListFeaturedJSON(ctx context.Context) ([]byte, error) {
	cached, hit, err := s.cache.Get(ctx, s.config.FeaturedKey)
	if err != nil {
		s.logger.WarnContext(ctx, "catalog: featured cache read failed", "key", s.config.FeaturedKey, "error", err)
		hit = false
	}
	if hit {
		var decoded []Product
		if err := json.Unmarshal(cached, &decoded); err != nil {
			s.logger.WarnContext(ctx, "catalog: featured cache entry corrupt", "key", s.config.FeaturedKey, "error", err)
		} else {
			hook(s.config.OnCacheHit)
			if len(decoded) == 0 {
				return nil, ErrNotFound
			}
			return cached, nil
		}
	}
	hook(s.config.OnCacheMiss)

	products, err := s.store.FindProducts(ctx, Filter{FeaturedOnly: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(products) == 0 {
		return nil, ErrNotFound
	}

	data, err := json.Marshal(products)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, s.config.FeaturedKey, data, 0); err != nil {
		s.logger.WarnContext(ctx, "catalog: featured cache populate failed", "key", s.config.FeaturedKey, "error", err)
	}
	return data, nil
}

// ListFeatured is ListFeaturedJSON decoded.
func (s *Service) ListFeatured(ctx context.Context) ([]Product, error) {
	data, err := s.ListFeaturedJSON(ctx)
	if err != nil {
		return nil, err
	}
	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("catalog: decode featured set: %w", err)
	}
	return products, nil
}

// ToggleFeatured flips the featured flag of product id and rewrites the
// featured cache entry. A failed cache rewrite is logged and reported through
// OnCacheRefreshFailure; the toggle itself still succeeds.
func (s *Service) ToggleFeatured(ctx context.Context, id string) (Product, error) {
	p, err := s.findByID(ctx, id)
	if err != nil {
		return Product{}, err
	}

	p.IsFeatured = !p.IsFeatured
	p.UpdatedAt = s.config.Now().UTC()
	if err := s.store.SaveProduct(ctx, p); err != nil {
		return Product{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	s.refreshAfterMutation(ctx, p.ID)
	return p, nil
}

// RefreshFeatured recomputes the featured set from the store and overwrites
// the cache entry, including with an empty set.
func (s *Service) RefreshFeatured(ctx context.Context) error {
	products, err := s.store.FindProducts(ctx, Filter{FeaturedOnly: true})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if products == nil {
		products = []Product{}
	}
	data, err := json.Marshal(products)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, s.config.FeaturedKey, data, 0)
}

func (s *Service) refreshAfterMutation(ctx context.Context, productID string) {
	if err := s.RefreshFeatured(ctx); err != nil {
		hook(s.config.OnCacheRefreshFailure)
		s.logger.ErrorContext(ctx, "catalog: featured cache refresh failed",
			"product_id", productID,
			"error", err,
		)
	}
}

/*
====================================
PRODUCTS
====================================
*/

// ListProducts returns every product.
func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	return s.find(ctx, Filter{})
}

// ListByCategory returns the products in category.
func (s *Service) ListByCategory(ctx context.Context, category string) ([]Product, error) {
	return s.find(ctx, Filter{Category: category})
}

// Recommendations returns a random sample of products.
func (s *Service) Recommendations(ctx context.Context) ([]Product, error) {
	products, err := s.store.SampleProducts(ctx, s.config.Recommendations)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if products == nil {
		products = []Product{}
	}
	return products, nil
}

// CreateProduct stores p. Creating a featured product rewrites the featured
// cache entry.
func (s *Service) CreateProduct(ctx context.Context, p Product) (Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" || p.Price < 0 {
		return Product{}, ErrInvalidProduct
	}
	now := s.config.Now().UTC()
	p.ID = ""
	p.CreatedAt = now
	p.UpdatedAt = now

	created, err := s.store.InsertProduct(ctx, p)
	if err != nil {
		return Product{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if created.IsFeatured {
		s.refreshAfterMutation(ctx, created.ID)
	}
	return created, nil
}

// DeleteProduct removes product id. Deleting a featured product rewrites the
// featured cache entry.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	p, err := s.findByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if p.IsFeatured {
		s.refreshAfterMutation(ctx, id)
	}
	return nil
}

func (s *Service) find(ctx context.Context, f Filter) ([]Product, error) {
	products, err := s.store.FindProducts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if products == nil {
		products = []Product{}
	}
	return products, nil
}

func (s *Service) findByID(ctx context.Context, id string) (Product, error) {
	if strings.TrimSpace(id) == "" {
		return Product{}, ErrNotFound
	}
	p, err := s.store.FindProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return p, nil
}

func hook(fn func()) {
	if fn != nil {
		fn()
	}
}
