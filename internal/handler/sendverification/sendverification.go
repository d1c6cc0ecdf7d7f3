// Copyright (c) Tailwise (dev@tailwise.app)
// SPDX-License-Identifier: BUSL-1.1

package sendverification

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tailwise/tailwise/internal/auth"
	"github.com/tailwise/tailwise/internal/httpapi"
)

type Request struct{}

type Response struct {
	// AlreadyVerified is set when the user's email needs no verification;
	// Link is empty in that case.
	AlreadyVerified bool   `json:"already_verified"`
	Link            string `json:"link,omitempty"`
}

// LinkGenerator mints email verification links. Implemented by the Firebase
// auth client.
type LinkGenerator interface {
	EmailVerificationLink(ctx context.Context, email string) (string, error)
}

// Handler reissues the email verification link for the authenticated user.
type Handler struct {
	links LinkGenerator
}

func NewHandler(links LinkGenerator) *Handler {
	return &Handler{links: links}
}

// SendVerification returns a fresh verification link for an unverified user.
func (h *Handler) SendVerification(ctx context.Context, _ *Request) (*Response, error) {
	if auth.UserID(ctx) == "" {
		return nil, httpapi.NewError(http.StatusUnauthorized, "authentication required")
	}
	if auth.EmailVerified(ctx) {
		return &Response{AlreadyVerified: true}, nil
	}

	email := auth.Email(ctx)
	if email == "" {
		return nil, httpapi.NewError(http.StatusBadRequest, "account has no email address")
	}

	link, err := h.links.EmailVerificationLink(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("sendverification: generating verification link: %w", err)
	}
	return &Response{Link: link}, nil
}
