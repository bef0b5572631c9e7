// SPDX-FileCopyrightText: Copyright 2026 Lattice Authors
// SPDX-License-Identifier: Apache-2.0

package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/latticectl/core/pkg/oauth"
)

type subjectContextKey struct{}

// WithSubject attaches subject (a "kind:name" string as acl.Check
// expects) to ctx, as BearerAuth does for every authenticated request.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectContextKey{}, subject)
}

// SubjectFromContext retrieves the subject BearerAuth attached, if any.
func SubjectFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(subjectContextKey{}).(string)
	return s, ok
}

// BearerAuth resolves the bearer token on every request into a
// "user:<id>" subject via the OAuth core's token store, and attaches
// it to the request context for requireGrant to consult. Requests
// with no or invalid bearer token proceed unauthenticated (subject
// absent), which requireGrant then denies without consulting the
// enforcer.
func BearerAuth(handler *oauth.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := bearerToken(r); token != "" {
				if session, err := handler.ResolveAccessToken(r.Context(), token); err == nil && session.UserID != "" {
					r = r.WithContext(WithSubject(r.Context(), "user:"+session.UserID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimPrefix(h, prefix)
}
