// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"shopper/internal/models"
	"shopper/internal/service"
)

// ProductManager manages products.
type ProductManager interface {
	List(ctx context.Context) ([]models.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Create(ctx context.Context, in service.ProductInput) (*models.Product, error)
	Update(ctx context.Context, id uuid.UUID, patch service.ProductPatch) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Products groups the product handlers.
type Products struct {
	products ProductManager
}

// NewProducts creates a new Products handler group.
func NewProducts(products ProductManager) *Products {
	return &Products{products: products}
}

const productNotFound = "Product not found"

type createProductRequest struct {
	Name       string          `json:"name" validate:"required,max=255"`
	Price      *float64        `json:"price" validate:"required,gte=0"`
	CategoryID *uuid.UUID      `json:"category_id"`
	Metadata   models.Metadata `json:"metadata" validate:"scalars"`
}

type updateProductRequest struct {
	Name       *string         `json:"name" validate:"omitempty,min=1,max=255"`
	Price      *float64        `json:"price" validate:"omitempty,gte=0"`
	CategoryID *uuid.UUID      `json:"category_id"`
	Metadata   models.Metadata `json:"metadata" validate:"scalars"`
}

// List returns every product.
func (h *Products) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// Get returns one product.
func (h *Products) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, productNotFound)
	if !ok {
		return
	}
	p, err := h.products.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, productNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Create adds a product.
func (h *Products) Create(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.products.Create(r.Context(), service.ProductInput{
		Name:       req.Name,
		Price:      *req.Price,
		CategoryID: req.CategoryID,
		Metadata:   req.Metadata,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// Update patches a product.
func (h *Products) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, productNotFound)
	if !ok {
		return
	}
	var req updateProductRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.products.Update(r.Context(), id, service.ProductPatch{
		Name:       req.Name,
		Price:      req.Price,
		CategoryID: req.CategoryID,
		Metadata:   req.Metadata,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, p)
}

// Delete removes a product.
func (h *Products) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, productNotFound)
	if !ok {
		return
	}
	if err := h.products.Delete(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
