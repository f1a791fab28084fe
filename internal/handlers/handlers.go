// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the Shopper JSON API.
// Handlers are grouped by resource (auth, users, roles, categories,
// products) and receive their services through the handler struct.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"shopper/internal/service"
)

// maxBodyBytes caps the size of a JSON request body.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

// writeError writes a {"detail": msg} error body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

// decode reads a JSON body into dst and validates it. It writes the error
// response itself and returns false when the request is unusable.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		case errors.Is(err, io.EOF):
			writeError(w, http.StatusUnprocessableEntity, "Request body is required")
		default:
			writeError(w, http.StatusUnprocessableEntity, "Malformed JSON body")
		}
		return false
	}
	if errs := validate(dst); len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": errs})
		return false
	}
	return true
}

// pathID parses the {id} URL parameter. A malformed id cannot name an
// existing row, so it is reported as notFound.
func pathID(w http.ResponseWriter, r *http.Request, notFound string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, notFound)
		return uuid.Nil, false
	}
	return id, true
}

// serviceErrors maps service sentinels to their HTTP response.
var serviceErrors = []struct {
	err    error
	status int
	detail string
}{
	{service.ErrInvalidParent, http.StatusNotFound, "Invalid parent id"},
	{service.ErrInvalidCategory, http.StatusNotFound, "Invalid category id"},
	{service.ErrCategoryCycle, http.StatusConflict, "Category cannot be moved under itself or its sub-categories"},
	{service.ErrCategoryHasChildren, http.StatusConflict, "Category has sub-categories"},
	{service.ErrProductNotFound, http.StatusNotFound, "Product not found"},
	{service.ErrRoleNotFound, http.StatusNotFound, "Role not found"},
	{service.ErrRoleExists, http.StatusConflict, "Role with this name already exists"},
	{service.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{service.ErrInvalidCredentials, http.StatusNotFound, "Invalid username, email or password"},
	{service.ErrTooManyAttempts, http.StatusTooManyRequests, "Too many failed login attempts, try again later"},
	{service.ErrTOTPRequired, http.StatusUnauthorized, "Two-factor code required"},
	{service.ErrInvalidTOTP, http.StatusUnauthorized, "Invalid two-factor code"},
	{service.ErrTOTPNotSetup, http.StatusBadRequest, "Two-factor authentication is not set up"},
}

// fail writes the response for a service error. Unknown errors are
// logged and reported as 500.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	var conflict *service.ConflictError
	if errors.As(err, &conflict) {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"fields": conflict.Fields})
		return
	}
	if errors.Is(err, service.ErrInvalidPermissions) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	for _, e := range serviceErrors {
		if errors.Is(err, e.err) {
			writeError(w, e.status, e.detail)
			return
		}
	}

	slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "Internal Server Error")
}
