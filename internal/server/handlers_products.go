package server

import (
	"errors"
	"net/http"

	"github.com/MrEthical07/goShop/catalog"
)

const (
	msgNoFeatured      = "No featured products found"
	msgProductNotFound = "Product not found"
	msgProductDeleted  = "Product deleted successfully"
)

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.catalog.ListProducts(r.Context())
	if err != nil {
		s.serverError(w, r, "list products failed", err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// handleFeatured writes the cached JSON as-is.
func (s *Server) handleFeatured(w http.ResponseWriter, r *http.Request) {
	body, err := s.catalog.ListFeaturedJSON(r.Context())
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, msgNoFeatured)
			return
		}
		s.serverError(w, r, "list featured failed", err)
		return
	}
	writeRawJSON(w, http.StatusOK, body)
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	products, err := s.catalog.Recommendations(r.Context())
	if err != nil {
		s.serverError(w, r, "recommendations failed", err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	products, err := s.catalog.ListByCategory(r.Context(), r.PathValue("category"))
	if err != nil {
		s.serverError(w, r, "list category failed", err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := s.decodeJSON(w, r, &p); err != nil {
		writeMessage(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	created, err := s.catalog.CreateProduct(r.Context(), p)
	if err != nil {
		if errors.Is(err, catalog.ErrInvalidProduct) {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		s.serverError(w, r, "create product failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleToggleFeatured(w http.ResponseWriter, r *http.Request) {
	p, err := s.catalog.ToggleFeatured(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, msgProductNotFound)
			return
		}
		s.serverError(w, r, "toggle featured failed", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.DeleteProduct(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, msgProductNotFound)
			return
		}
		s.serverError(w, r, "delete product failed", err)
		return
	}
	writeMessage(w, http.StatusOK, msgProductDeleted)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	data, err := s.analytics.Summary(r.Context())
	if err != nil {
		s.serverError(w, r, "analytics failed", err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}
