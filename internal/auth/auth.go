// Copyright (c) Tailwise (dev@tailwise.app)
// SPDX-License-Identifier: BUSL-1.1

package auth

import (
	"context"

	"github.com/curioswitch/go-usegcp/middleware/firebaseauth"
)

type userIDContextKey struct{}

// WithUserID returns a context reporting userID as the authenticated user,
// bypassing token verification. Only for tests.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey{}, userID)
}

// UserID returns the authenticated user's ID, or empty outside an
// authenticated request.
func UserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDContextKey{}).(string); ok {
		return id
	}
	tok := firebaseauth.TokenFromContext(ctx)
	if tok == nil {
		return ""
	}
	return tok.UID
}

// Email returns the authenticated user's email address if present on the
// token.
func Email(ctx context.Context) string {
	tok := firebaseauth.TokenFromContext(ctx)
	if tok == nil {
		return ""
	}
	if id, ok := tok.Firebase.Identities["email"]; ok {
		if idAny, ok := id.([]any); ok && len(idAny) > 0 {
			if email, ok := idAny[0].(string); ok {
				return email
			}
		}
	}
	return ""
}

// EmailVerified reports whether the authenticated user's email address has
// been verified.
func EmailVerified(ctx context.Context) bool {
	tok := firebaseauth.TokenFromContext(ctx)
	if tok == nil {
		return false
	}
	if verified, ok := tok.Claims["email_verified"].(bool); ok {
		return verified
	}
	return false
}
