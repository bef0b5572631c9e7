// SPDX-FileCopyrightText: Copyright 2026 Lattice Authors
// SPDX-License-Identifier: Apache-2.0

// Package httpapi is the thin HTTP boundary in front of the core: a
// chi router mounting the resource REST surface and the four OAuth2
// endpoints, translating the core's typed errors into HTTP status
// codes. It is implemented here only deeply enough to exercise the
// core's contracts, not as a general-purpose REST framework.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	coreerrors "github.com/latticectl/core/pkg/errors"
	"github.com/latticectl/core/pkg/logger"
)

// ErrorEnvelope is the resource-API error body: {code, message,
// metadata?}, the wire format for non-OAuth errors.
type ErrorEnvelope struct {
	Code     string         `json:"code"`
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewRouter assembles the boundary router's shared middleware chain
// and the four fixed OAuth2 endpoints. Callers mount the resource REST
// surface for each kind they serve with ResourceRoutes, under
// "/apis/{group}/{version}/{kindPlural}" — this function doesn't know
// the set of kinds a given deployment carries.
func NewRouter(bearerAuth func(http.Handler) http.Handler, oauthHandler *OAuthEndpoints) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(bearerAuth)

	r.Get("/healthz", healthz)

	r.Route("/oauth", func(r chi.Router) {
		r.HandleFunc("/authorize", oauthHandler.Authorize)
		r.Post("/token", oauthHandler.Token)
		r.Post("/introspect", oauthHandler.Introspect)
		r.Post("/revoke", oauthHandler.Revoke)
	})

	return r
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debugw("http request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// writeJSON writes v as the JSON response body with status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorw("encoding response body", "error", err)
	}
}

// writeError maps err's taxonomy to a status code and writes the
// resource-API error envelope.
func writeError(w http.ResponseWriter, err error) {
	status, code := statusForError(err)
	writeJSON(w, status, ErrorEnvelope{Code: code, Message: err.Error()})
}

func statusForError(err error) (int, string) {
	t, ok := coreerrors.AsType(err)
	if !ok {
		return http.StatusInternalServerError, string(coreerrors.TypeServerError)
	}
	switch t {
	case coreerrors.TypeRevisionConflict:
		return http.StatusConflict, string(t)
	case coreerrors.TypeNotFound:
		return http.StatusNotFound, string(t)
	case coreerrors.TypeAccessDenied:
		return http.StatusForbidden, string(t)
	case coreerrors.TypeInvalidClient:
		return http.StatusUnauthorized, string(t)
	case coreerrors.TypeInvalidGrant, coreerrors.TypeInvalidScope, coreerrors.TypeInvalidRedirectURI,
		coreerrors.TypeInvalidRequest, coreerrors.TypeUnsupportedGrantType:
		return http.StatusBadRequest, string(t)
	case coreerrors.TypeTemporarilyUnavailable:
		return http.StatusServiceUnavailable, string(t)
	default:
		return http.StatusInternalServerError, string(coreerrors.TypeServerError)
	}
}
