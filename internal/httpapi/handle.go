// Copyright (c) Tailwise (dev@tailwise.app)
// SPDX-License-Identifier: BUSL-1.1

// Package httpapi adapts request/response functions onto the HTTP mux as
// JSON endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Error is a failure with an explicit HTTP status. Handlers return it to
// control the response code; any other error maps to 500.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// NewError returns an Error with the given status and message.
func NewError(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// Handle registers fn as a POST JSON endpoint at pattern. The request body
// decodes into Req; the returned Resp encodes as the response body.
func Handle[Req any, Resp any](mux chi.Router, pattern string, fn func(ctx context.Context, req *Req) (*Resp, error)) {
	mux.Post(pattern, func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req Req
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(ctx, w, NewError(http.StatusBadRequest, "invalid request body"))
				return
			}
		}

		resp, err := fn(ctx, &req)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.ErrorContext(ctx, "httpapi: encoding response", "error", err, "path", pattern)
		}
	})
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	var herr *Error
	if errors.As(err, &herr) {
		status = herr.Status
		msg = herr.Message
	} else {
		slog.ErrorContext(ctx, "httpapi: handler failed", "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if eerr := json.NewEncoder(w).Encode(map[string]string{"error": msg}); eerr != nil {
		slog.ErrorContext(ctx, "httpapi: encoding error response", "error", eerr)
	}
}
