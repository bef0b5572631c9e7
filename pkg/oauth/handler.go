// SPDX-FileCopyrightText: Copyright 2026 Lattice Authors
// SPDX-License-Identifier: Apache-2.0

package oauth

import (
	"context"
	"time"

	coreerrors "github.com/latticectl/core/pkg/errors"
	"github.com/latticectl/core/pkg/logger"
	"github.com/latticectl/core/pkg/runtime"
	"github.com/latticectl/core/pkg/secure"
)

const (
	accessTokenTTL  = 5 * time.Minute
	refreshTokenTTL = 24 * time.Hour
	authCodeTTL     = 5 * time.Minute
)

// Handler is the OAuth2 protocol core: it validates and executes the
// authorization, token, introspection, and revocation flows against
// the resource-manager-backed stores for each kind it persists.
//
// Every stored token and code is keyed by the HMAC-SHA512 signature of
// its plaintext value under secretKey, never by the plaintext itself
// — only the caller that just requested a code or token ever sees its
// plaintext, and a leaked storage snapshot reveals no valid bearer
// credential.
type Handler struct {
	clients       *runtime.ResourceManager[OAuthClient]
	accessTokens  *runtime.ResourceManager[AccessToken]
	refreshTokens *runtime.ResourceManager[RefreshToken]
	codes         *runtime.ResourceManager[AuthorizationCode]
	secretKey     string
	now           func() time.Time
}

// NewHandler builds a Handler persisting through the given resource
// managers, signing stored lookup keys with secretKey.
func NewHandler(
	clients *runtime.ResourceManager[OAuthClient],
	accessTokens *runtime.ResourceManager[AccessToken],
	refreshTokens *runtime.ResourceManager[RefreshToken],
	codes *runtime.ResourceManager[AuthorizationCode],
	secretKey string,
) *Handler {
	return &Handler{
		clients:       clients,
		accessTokens:  accessTokens,
		refreshTokens: refreshTokens,
		codes:         codes,
		secretKey:     secretKey,
		now:           time.Now,
	}
}

func (h *Handler) sign(value string) string {
	return secure.Signature(value, h.secretKey)
}

// ValidateAuthorization resolves and validates the client for req:
// the client must exist, must allow the requested scope and redirect
// URI, and — if a PKCE challenge method is present — the method must
// be one this handler supports.
func (h *Handler) ValidateAuthorization(ctx context.Context, req AuthorizationRequest) (OAuthClient, error) {
	client, err := h.validateClient(ctx, req.ClientID, req.RedirectURI, req.Scope)
	if err != nil {
		return OAuthClient{}, err
	}
	if req.PKCE != nil {
		switch req.PKCE.CodeChallengeMethod {
		case ChallengeMethodS256, ChallengeMethodPlain:
		default:
			return OAuthClient{}, coreerrors.NewInvalidRequestError("unsupported code_challenge_method", nil)
		}
	}
	return client, nil
}

// HandleAuthorization issues a fresh authorization code for session
// and returns its plaintext value (the "code" query parameter) — the
// only time that plaintext is ever available.
func (h *Handler) HandleAuthorization(ctx context.Context, req AuthorizationRequest, session Session) (string, error) {
	session.Scope = req.Scope
	secret, err := secure.GenerateToken(16)
	if err != nil {
		return "", coreerrors.NewServerError("generating authorization code", err)
	}

	code := AuthorizationCode{
		Session:    session,
		Expiration: h.now().Add(authCodeTTL),
		PKCE:       req.PKCE,
	}
	sig := h.sign(secret)
	if _, err := h.codes.Put(ctx, sig, code); err != nil {
		return "", err
	}
	logger.Debugw("issued authorization code", "client_id", session.ClientID)
	return secret, nil
}

// Exchange executes the token endpoint for either supported grant
// type, returning the fresh token set.
func (h *Handler) Exchange(ctx context.Context, req TokenRequest) (TokenResponse, error) {
	client, err := h.validateTokenRequest(ctx, req)
	if err != nil {
		return TokenResponse{}, err
	}

	switch req.GrantType {
	case GrantTypeAuthorizationCode:
		return h.exchangeAuthorizationCode(ctx, req, client)
	case GrantTypeRefreshToken:
		return h.exchangeRefreshToken(ctx, req, client)
	default:
		return TokenResponse{}, coreerrors.NewUnsupportedGrantTypeError("unsupported grant type", nil)
	}
}

func (h *Handler) validateTokenRequest(ctx context.Context, req TokenRequest) (OAuthClient, error) {
	switch req.GrantType {
	case GrantTypeAuthorizationCode:
		sig := h.sign(req.Code)
		code, found, err := h.codes.Find(ctx, sig)
		if err != nil {
			return OAuthClient{}, err
		}
		if !found {
			return OAuthClient{}, coreerrors.NewInvalidGrantError("invalid authorization code", nil)
		}
		if code.IsExpired(h.now()) {
			return OAuthClient{}, coreerrors.NewInvalidGrantError("invalid authorization code", nil)
		}
		if code.Session.ClientID != req.ClientID {
			return OAuthClient{}, coreerrors.NewInvalidClientError("invalid client", nil)
		}
		client, err := h.validateClient(ctx, req.ClientID, req.RedirectURI, code.Session.Scope)
		if err != nil {
			return OAuthClient{}, err
		}
		if err := client.Authenticate(req.ClientSecret); err != nil {
			return OAuthClient{}, err
		}
		return client, nil
	case GrantTypeRefreshToken:
		sig := h.sign(req.RefreshToken)
		refreshToken, found, err := h.refreshTokens.Find(ctx, sig)
		if err != nil {
			return OAuthClient{}, err
		}
		if !found {
			return OAuthClient{}, coreerrors.NewInvalidGrantError("invalid refresh token", nil)
		}
		if refreshToken.IsExpired(h.now()) {
			return OAuthClient{}, coreerrors.NewInvalidGrantError("invalid refresh token", nil)
		}
		if refreshToken.Session.ClientID != req.ClientID {
			return OAuthClient{}, coreerrors.NewInvalidClientError("invalid client_id", nil)
		}
		scope := refreshToken.Session.Scope
		if req.Scope != nil {
			if !refreshToken.Session.Scope.IsSuperset(req.Scope) {
				return OAuthClient{}, coreerrors.NewInvalidScopeError("invalid scope", nil)
			}
			scope = req.Scope
		}
		client, err := h.validateClient(ctx, req.ClientID, "", scope)
		if err != nil {
			return OAuthClient{}, err
		}
		if err := client.Authenticate(req.ClientSecret); err != nil {
			return OAuthClient{}, err
		}
		return client, nil
	default:
		return OAuthClient{}, coreerrors.NewUnsupportedGrantTypeError("unsupported grant type", nil)
	}
}

func (h *Handler) exchangeAuthorizationCode(ctx context.Context, req TokenRequest, _ OAuthClient) (TokenResponse, error) {
	sig := h.sign(req.Code)
	code, found, err := h.codes.Find(ctx, sig)
	if err != nil {
		return TokenResponse{}, err
	}
	if !found {
		return TokenResponse{}, coreerrors.NewInvalidGrantError("invalid authorization code", nil)
	}
	if code.PKCE != nil {
		if err := code.PKCE.Verify(req.CodeVerifier); err != nil {
			return TokenResponse{}, err
		}
	}

	res, err := h.generateTokenSet(ctx, code.Session)
	if err != nil {
		return TokenResponse{}, err
	}

	if err := h.codes.Delete(ctx, sig); err != nil {
		logger.Warnw("failed to revoke redeemed authorization code", "error", err)
	}
	return res, nil
}

func (h *Handler) exchangeRefreshToken(ctx context.Context, req TokenRequest, _ OAuthClient) (TokenResponse, error) {
	sig := h.sign(req.RefreshToken)
	refreshToken, found, err := h.refreshTokens.Find(ctx, sig)
	if err != nil {
		return TokenResponse{}, err
	}
	if !found {
		return TokenResponse{}, coreerrors.NewInvalidGrantError("invalid refresh token", nil)
	}

	session := refreshToken.Session
	if req.Scope != nil {
		session.Scope = req.Scope
	}

	// Refresh tokens are single-use: redeeming one unconditionally
	// invalidates it and its paired access token, regardless of
	// whether the new token set is issued successfully.
	if err := h.refreshTokens.Delete(ctx, sig); err != nil {
		logger.Warnw("failed to revoke redeemed refresh token", "error", err)
	}
	if err := h.accessTokens.Delete(ctx, refreshToken.RelatedAccessTokenSignature); err != nil {
		logger.Debugw("related access token already absent", "error", err)
	}

	return h.generateTokenSet(ctx, session)
}

func (h *Handler) generateTokenSet(ctx context.Context, session Session) (TokenResponse, error) {
	accessSecret, err := secure.GenerateToken(32)
	if err != nil {
		return TokenResponse{}, coreerrors.NewServerError("generating access token", err)
	}
	accessSig := h.sign(accessSecret)
	accessToken := AccessToken{Session: session, Expiration: h.now().Add(accessTokenTTL)}
	if _, err := h.accessTokens.Put(ctx, accessSig, accessToken); err != nil {
		return TokenResponse{}, err
	}

	refreshSecret, err := secure.GenerateToken(32)
	if err != nil {
		return TokenResponse{}, coreerrors.NewServerError("generating refresh token", err)
	}
	refreshSig := h.sign(refreshSecret)
	refreshToken := RefreshToken{
		Session:                     session,
		Expiration:                  h.now().Add(refreshTokenTTL),
		RelatedAccessTokenSignature: accessSig,
	}
	if _, err := h.refreshTokens.Put(ctx, refreshSig, refreshToken); err != nil {
		return TokenResponse{}, err
	}

	return TokenResponse{
		AccessToken:  accessSecret,
		TokenType:    "bearer",
		ExpiresIn:    accessToken.ExpiresIn(h.now()),
		RefreshToken: refreshSecret,
		Scope:        session.Scope.String(),
	}, nil
}

func (h *Handler) validateClient(ctx context.Context, clientID, redirectURI string, scope Scope) (OAuthClient, error) {
	client, found, err := h.clients.Find(ctx, clientID)
	if err != nil {
		return OAuthClient{}, err
	}
	if !found {
		return OAuthClient{}, coreerrors.NewInvalidClientError("invalid client_id", nil)
	}
	if !client.Spec.AllowedScopes.IsSuperset(scope) {
		return OAuthClient{}, coreerrors.NewInvalidScopeError("invalid scope", nil)
	}
	if redirectURI != "" && !client.AllowsRedirectURI(redirectURI) {
		return OAuthClient{}, coreerrors.NewInvalidRedirectURIError("invalid redirect URI", nil)
	}
	return client, nil
}

// ResolveAccessToken looks up the Session bound to a bearer token's
// plaintext, with no client authentication — the boundary contract
// for "OAuth produces tokens used by extractors": the HTTP boundary's
// bearer-auth middleware calls this, not Introspect, since extracting
// the caller's own identity from their own credential is not the RFC
// 7662 third-party introspection flow (which requires the asking
// client to authenticate as itself).
func (h *Handler) ResolveAccessToken(ctx context.Context, token string) (Session, error) {
	sig := h.sign(token)
	accessToken, found, err := h.accessTokens.Find(ctx, sig)
	if err != nil {
		return Session{}, err
	}
	if !found || accessToken.IsExpired(h.now()) {
		return Session{}, coreerrors.NewInvalidGrantError("invalid or expired access token", nil)
	}
	return accessToken.Session, nil
}

// Introspect executes RFC 7662: the requesting client must
// authenticate, after which the token's active state and session
// metadata (or bare {"active": false}) are returned.
func (h *Handler) Introspect(ctx context.Context, req IntrospectionRequest) (IntrospectionResponse, error) {
	if _, err := h.authenticateRequester(ctx, req.ClientID, req.ClientSecret); err != nil {
		return IntrospectionResponse{}, err
	}

	sig := h.sign(req.Token)
	if req.TokenTypeHint != TokenTypeHintRefreshToken {
		if token, found, err := h.accessTokens.Find(ctx, sig); err == nil && found {
			return h.introspectionResultFor(token.Session, TokenTypeHintAccessToken, token.Expiration, token.IsExpired(h.now())), nil
		}
	}
	if token, found, err := h.refreshTokens.Find(ctx, sig); err == nil && found {
		return h.introspectionResultFor(token.Session, TokenTypeHintRefreshToken, token.Expiration, token.IsExpired(h.now())), nil
	}
	return InactiveIntrospectionResponse(), nil
}

func (h *Handler) introspectionResultFor(session Session, hint TokenTypeHint, exp time.Time, expired bool) IntrospectionResponse {
	if expired {
		return InactiveIntrospectionResponse()
	}
	return activeIntrospectionResponse(session, hint, exp)
}

// Revoke executes RFC 7009: the requesting client must authenticate
// and must own the session the token belongs to. Revoking a refresh
// token also revokes its paired access token; revoking an unknown
// token is not an error (the RFC requires revocation to be
// idempotent and silent about whether the token ever existed).
func (h *Handler) Revoke(ctx context.Context, req RevocationRequest) (RevocationResponse, error) {
	requester, err := h.authenticateRequester(ctx, req.ClientID, req.ClientSecret)
	if err != nil {
		return RevocationResponse{}, err
	}

	sig := h.sign(req.Token)
	ok := RevocationResponse{OK: true}

	if req.TokenTypeHint != TokenTypeHintRefreshToken {
		if token, found, err := h.accessTokens.Find(ctx, sig); err == nil && found {
			if token.Session.ClientID != requester.Metadata.Name {
				return RevocationResponse{}, coreerrors.NewAccessDeniedError("access denied", nil)
			}
			if err := h.accessTokens.Delete(ctx, sig); err != nil {
				return RevocationResponse{}, err
			}
			return ok, nil
		}
	}

	if token, found, err := h.refreshTokens.Find(ctx, sig); err == nil && found {
		if token.Session.ClientID != requester.Metadata.Name {
			return RevocationResponse{}, coreerrors.NewAccessDeniedError("access denied", nil)
		}
		if err := h.refreshTokens.Delete(ctx, sig); err != nil {
			return RevocationResponse{}, err
		}
		if err := h.accessTokens.Delete(ctx, token.RelatedAccessTokenSignature); err != nil {
			logger.Debugw("related access token already absent", "error", err)
		}
		return ok, nil
	}

	return ok, nil
}

func (h *Handler) authenticateRequester(ctx context.Context, clientID, clientSecret string) (OAuthClient, error) {
	client, found, err := h.clients.Find(ctx, clientID)
	if err != nil {
		return OAuthClient{}, err
	}
	if !found {
		return OAuthClient{}, coreerrors.NewInvalidClientError("invalid client_id", nil)
	}
	if err := client.Authenticate(clientSecret); err != nil {
		return OAuthClient{}, err
	}
	return client, nil
}
