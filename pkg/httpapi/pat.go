// SPDX-FileCopyrightText: Copyright 2026 Lattice Authors
// SPDX-License-Identifier: Apache-2.0

package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	coreerrors "github.com/latticectl/core/pkg/errors"
	"github.com/latticectl/core/pkg/oauth"
)

// patCreateRequest is the POST /personalaccesstokens body. An empty
// Name lets the PAT manager assign one.
type patCreateRequest struct {
	Name  string        `json:"name"`
	Scope oauth.Scope   `json:"scope"`
	TTL   time.Duration `json:"ttl"`
}

type patCreateResponse struct {
	Name  string `json:"name"`
	Token string `json:"token"`
}

// PersonalAccessTokenRoutes mounts the self-service PAT surface under
// a chi router: every operation is scoped to the caller's own subject,
// resolved from the bearer-auth middleware's context, not an enforcer
// grant — a user always manages their own PATs.
func PersonalAccessTokenRoutes(r chi.Router, manager *oauth.PATManager) {
	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		var req patCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, coreerrors.NewInvalidRequestError("malformed request body", err))
			return
		}
		name, token, err := manager.Create(r.Context(), req.Name, userID, req.Scope, req.TTL)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, patCreateResponse{Name: name, Token: token})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		page, err := manager.List(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newListEnvelope(page))
	})

	r.Delete("/{name}", func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		if err := manager.Revoke(r.Context(), chi.URLParam(r, "name"), userID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, nil)
	})
}

// requireUser resolves the caller's subject into a bare user id,
// writing an access-denied response and reporting false if no
// authenticated subject is attached to the request.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	subject, ok := SubjectFromContext(r.Context())
	if !ok {
		writeError(w, coreerrors.NewAccessDeniedError("authentication required", nil))
		return "", false
	}
	const prefix = "user:"
	if len(subject) <= len(prefix) || subject[:len(prefix)] != prefix {
		writeError(w, coreerrors.NewAccessDeniedError("authentication required", nil))
		return "", false
	}
	return subject[len(prefix):], true
}
