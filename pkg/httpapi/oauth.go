// SPDX-FileCopyrightText: Copyright 2026 Lattice Authors
// SPDX-License-Identifier: Apache-2.0

package httpapi

import (
	"net/http"
	"net/url"

	coreerrors "github.com/latticectl/core/pkg/errors"
	"github.com/latticectl/core/pkg/oauth"
)

// SessionAuthenticator resolves the end-user identity behind the
// boundary's cookie-based login session, which is orthogonal to
// OAuth tokens. The core only needs the resolved user id; how the
// cookie is validated is this external collaborator's concern.
type SessionAuthenticator interface {
	AuthenticatedUserID(r *http.Request) (string, error)
}

// OAuthEndpoints adapts pkg/oauth.Handler to the four RFC-shaped HTTP
// endpoints, parsing/forming the wire formats (Basic auth or
// form-body client credentials, form-encoded requests,
// redirect-with-query-errors on /authorize) around the core's
// validate-then-handle contract.
type OAuthEndpoints struct {
	handler *oauth.Handler
	session SessionAuthenticator
}

// NewOAuthEndpoints builds the HTTP adapter around handler, resolving
// the end-user login session through session.
func NewOAuthEndpoints(handler *oauth.Handler, session SessionAuthenticator) *OAuthEndpoints {
	return &OAuthEndpoints{handler: handler, session: session}
}

// Authorize implements GET/POST /oauth/authorize.
func (e *OAuthEndpoints) Authorize(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, coreerrors.NewInvalidRequestError("malformed request", err))
		return
	}
	q := r.Form
	state := q.Get("state")
	redirectURI := q.Get("redirect_uri")

	req := oauth.AuthorizationRequest{
		ClientID:    q.Get("client_id"),
		RedirectURI: redirectURI,
		Scope:       oauth.ParseScope(q.Get("scope")),
		State:       state,
	}
	if challenge := q.Get("code_challenge"); challenge != "" {
		method := oauth.ChallengeMethod(q.Get("code_challenge_method"))
		pkce := oauth.NewPKCERequest(challenge, method)
		req.PKCE = &pkce
	}

	if _, err := e.handler.ValidateAuthorization(r.Context(), req); err != nil {
		e.redirectError(w, r, redirectURI, state, err)
		return
	}

	userID, err := e.session.AuthenticatedUserID(r)
	if err != nil {
		e.redirectError(w, r, redirectURI, state, coreerrors.NewAccessDeniedError("authentication required", err))
		return
	}

	session := oauth.NewSession(req.ClientID, userID, req.Scope)
	code, err := e.handler.HandleAuthorization(r.Context(), req, session)
	if err != nil {
		e.redirectError(w, r, redirectURI, state, err)
		return
	}

	dest, err := url.Parse(redirectURI)
	if err != nil {
		writeError(w, coreerrors.NewInvalidRedirectURIError("invalid redirect_uri", err))
		return
	}
	query := dest.Query()
	query.Set("code", code)
	if state != "" {
		query.Set("state", state)
	}
	dest.RawQuery = query.Encode()
	http.Redirect(w, r, dest.String(), http.StatusFound)
}

// redirectError sends the caller back to redirect_uri with error and
// error_description query parameters and the original state, on any
// OAuth failure during /authorize. An invalid redirect_uri itself
// can't be redirected to, so that one case falls back to a JSON error.
func (e *OAuthEndpoints) redirectError(w http.ResponseWriter, r *http.Request, redirectURI, state string, err error) {
	t, _ := coreerrors.AsType(err)
	if t == coreerrors.TypeInvalidRedirectURI || redirectURI == "" {
		writeError(w, err)
		return
	}
	dest, parseErr := url.Parse(redirectURI)
	if parseErr != nil {
		writeError(w, err)
		return
	}
	query := dest.Query()
	query.Set("error", string(t))
	query.Set("error_description", err.Error())
	if state != "" {
		query.Set("state", state)
	}
	dest.RawQuery = query.Encode()
	http.Redirect(w, r, dest.String(), http.StatusFound)
}

// Token implements POST /oauth/token.
func (e *OAuthEndpoints) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, coreerrors.NewInvalidRequestError("malformed request", err))
		return
	}
	clientID, clientSecret := e.clientCredentials(r)

	req := oauth.TokenRequest{
		GrantType:    oauth.GrantType(r.Form.Get("grant_type")),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Code:         r.Form.Get("code"),
		RedirectURI:  r.Form.Get("redirect_uri"),
		CodeVerifier: r.Form.Get("code_verifier"),
		RefreshToken: r.Form.Get("refresh_token"),
	}
	if scope := r.Form.Get("scope"); scope != "" {
		req.Scope = oauth.ParseScope(scope)
	}

	res, err := e.handler.Exchange(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Introspect implements POST /oauth/introspect (RFC 7662).
func (e *OAuthEndpoints) Introspect(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, coreerrors.NewInvalidRequestError("malformed request", err))
		return
	}
	clientID, clientSecret := e.clientCredentials(r)
	res, err := e.handler.Introspect(r.Context(), oauth.IntrospectionRequest{
		ClientID:      clientID,
		ClientSecret:  clientSecret,
		Token:         r.Form.Get("token"),
		TokenTypeHint: oauth.TokenTypeHint(r.Form.Get("token_type_hint")),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Revoke implements POST /oauth/revoke (RFC 7009).
func (e *OAuthEndpoints) Revoke(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, coreerrors.NewInvalidRequestError("malformed request", err))
		return
	}
	clientID, clientSecret := e.clientCredentials(r)
	res, err := e.handler.Revoke(r.Context(), oauth.RevocationRequest{
		ClientID:      clientID,
		ClientSecret:  clientSecret,
		Token:         r.Form.Get("token"),
		TokenTypeHint: oauth.TokenTypeHint(r.Form.Get("token_type_hint")),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// clientCredentials reads client_id/client_secret from HTTP Basic
// auth if present, falling back to the form body: all four endpoints
// accept either Basic client auth or client_id/client_secret in the
// form body.
func (e *OAuthEndpoints) clientCredentials(r *http.Request) (string, string) {
	if id, secret, ok := r.BasicAuth(); ok {
		return id, secret
	}
	return r.Form.Get("client_id"), r.Form.Get("client_secret")
}
