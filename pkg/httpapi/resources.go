// SPDX-FileCopyrightText: Copyright 2026 Lattice Authors
// SPDX-License-Identifier: Apache-2.0

package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/latticectl/core/pkg/acl"
	"github.com/latticectl/core/pkg/api"
	coreerrors "github.com/latticectl/core/pkg/errors"
	"github.com/latticectl/core/pkg/pagination"
	"github.com/latticectl/core/pkg/runtime"
)

const defaultListLimit = 50

// listEnvelope is the paginated list response body.
type listEnvelope[T any] struct {
	Items     []T    `json:"items"`
	NextToken string `json:"nextToken,omitempty"`
}

// newListEnvelope renders a pagination.Page as its wire form.
func newListEnvelope[T any](page pagination.Page[T]) listEnvelope[T] {
	return listEnvelope[T]{Items: page.Items(), NextToken: page.NextToken()}
}

// Normalize, when ResourceRoutes is given one, is applied to every
// POST/PUT/PATCH body before it reaches the resource manager: overwrite any client-supplied status with the
// stored status, preserve the stored metadata, and reset type_meta to
// the kind's canonical form. Implemented per kind because each kind's
// status (or absence of one) is part of its type.
type Normalize[T any] func(existing T, existed bool, incoming T) T

// ResourceRoutes mounts the REST surface for a single kind under a
// chi router: list, get, put (create), patch (update), and
// delete, each consulting the enforcer for (subject, gvk/name,
// action) before touching the resource manager. objectFor renders the
// GroupVersionKindName string Check expects for a given resource name.
func ResourceRoutes[T any](
	r chi.Router,
	manager *runtime.ResourceManager[T],
	enforcer *acl.Enforcer,
	gvk api.GroupVersionKind,
	normalize Normalize[T],
	hub *Hub[T],
) {
	objectFor := func(name string) string {
		return api.GroupVersionKindName{GVK: gvk, Name: name}.String()
	}

	r.Get("/", requireGrant(enforcer, func(r *http.Request) string { return objectFor("*") }, "list",
		func(w http.ResponseWriter, r *http.Request) {
			limit := defaultListLimit
			if v := r.URL.Query().Get("limit"); v != "" {
				if n, err := strconv.Atoi(v); err == nil && n > 0 {
					limit = n
				}
			}
			page, err := manager.List(r.Context(), r.URL.Query().Get("nextToken"), limit)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, newListEnvelope(page))
		}))

	r.Post("/", requireGrant(enforcer, func(r *http.Request) string { return objectFor("*") }, "create",
		func(w http.ResponseWriter, r *http.Request) {
			var incoming T
			if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
				writeError(w, coreerrors.NewInvalidRequestError("malformed request body", err))
				return
			}
			name := api.GenerateName()
			body := incoming
			if normalize != nil {
				body = normalize(incoming, false, incoming)
			}
			item, err := manager.Put(r.Context(), name, body)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, item)
		}))

	r.Get("/{name}", requireGrant(enforcer, func(r *http.Request) string { return objectFor(chi.URLParam(r, "name")) }, "get",
		func(w http.ResponseWriter, r *http.Request) {
			name := chi.URLParam(r, "name")
			item, err := manager.Get(r.Context(), name)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, item)
		}))

	put := requireGrant(enforcer, func(r *http.Request) string { return objectFor(chi.URLParam(r, "name")) }, "update",
		func(w http.ResponseWriter, r *http.Request) {
			name := chi.URLParam(r, "name")
			var incoming T
			if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
				writeError(w, coreerrors.NewInvalidRequestError("malformed request body", err))
				return
			}
			existing, existed, err := manager.Find(r.Context(), name)
			if err != nil {
				writeError(w, err)
				return
			}
			body := incoming
			if normalize != nil {
				body = normalize(existing, existed, incoming)
			}
			item, err := manager.Put(r.Context(), name, body)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, item)
		})
	r.Put("/{name}", put)
	r.Patch("/{name}", put)

	r.Delete("/{name}", requireGrant(enforcer, func(r *http.Request) string { return objectFor(chi.URLParam(r, "name")) }, "delete",
		func(w http.ResponseWriter, r *http.Request) {
			name := chi.URLParam(r, "name")
			if err := manager.Delete(r.Context(), name); err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, nil)
		}))

	if hub != nil {
		r.Get("/watch", requireGrant(enforcer, func(r *http.Request) string { return objectFor("*") }, "watch", WatchHandler(hub)))
	}
}

// requireGrant wraps handler with an enforcer.Check call: the subject
// is read from the request context (populated by bearer-token
// authentication upstream of the router), objectFor renders the
// object string for this request, and action is the fixed verb this
// route performs. A denial short-circuits before handler ever runs.
func requireGrant(enforcer *acl.Enforcer, objectFor func(*http.Request) string, action string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject, ok := SubjectFromContext(r.Context())
		if !ok || !enforcer.Check(subject, objectFor(r), action) {
			writeError(w, coreerrors.NewAccessDeniedError("access denied", nil))
			return
		}
		handler(w, r)
	}
}
