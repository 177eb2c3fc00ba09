package catalog

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned for an unknown product id and for an empty
	// featured set.
	ErrNotFound = errors.New("product not found")
	// ErrInvalidProduct is returned by CreateProduct for a missing name or a
	// negative price.
	ErrInvalidProduct = errors.New("invalid product")
	// ErrUpstream wraps store and cache failures surfaced to callers.
	ErrUpstream = errors.New("catalog backend failure")
)

// Product is one catalog entry.
type Product struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Image       string    `json:"image"`
	Category    string    `json:"category"`
	IsFeatured  bool      `json:"isFeatured"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Filter selects products. The zero Filter matches everything.
type Filter struct {
	FeaturedOnly bool
	Category     string
}

// Matches reports whether p satisfies f.
func (f Filter) Matches(p Product) bool {
	if f.FeaturedOnly && !p.IsFeatured {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	return true
}

// Store is the product document store.
//
// FindProductByID and DeleteProduct return ErrNotFound when id matches
// nothing. InsertProduct returns the stored product with its assigned ID.
type Store interface {
	FindProducts(ctx context.Context, f Filter) ([]Product, error)
	FindProductByID(ctx context.Context, id string) (Product, error)
	SaveProduct(ctx context.Context, p Product) error
	InsertProduct(ctx context.Context, p Product) (Product, error)
	DeleteProduct(ctx context.Context, id string) error
	SampleProducts(ctx context.Context, n int) ([]Product, error)
}
