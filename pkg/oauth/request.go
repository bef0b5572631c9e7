// SPDX-FileCopyrightText: Copyright 2026 Lattice Authors
// SPDX-License-Identifier: Apache-2.0

package oauth

// AuthorizationRequest is the RFC 6749 §4.1.1 authorization request,
// extended with the RFC 7636 PKCE parameters.
type AuthorizationRequest struct {
	ClientID    string
	RedirectURI string
	Scope       Scope
	State       string
	PKCE        *PKCERequest
}

// GrantType identifies which token endpoint flow a TokenRequest uses.
type GrantType string

const (
	GrantTypeAuthorizationCode GrantType = "authorization_code"
	GrantTypeRefreshToken      GrantType = "refresh_token"
)

// TokenRequest is the RFC 6749 §4.1.3 / §6 token request body. Only
// the fields relevant to GrantType are populated; client_id and
// client_secret may instead have arrived via HTTP Basic auth, in
// which case the caller resolves them before constructing this value.
type TokenRequest struct {
	GrantType    GrantType
	ClientID     string
	ClientSecret string

	// authorization_code grant
	Code         string
	RedirectURI  string
	CodeVerifier string

	// refresh_token grant
	RefreshToken string
	Scope        Scope
}

// IntrospectionRequest is the RFC 7662 introspection request body.
type IntrospectionRequest struct {
	ClientID      string
	ClientSecret  string
	Token         string
	TokenTypeHint TokenTypeHint
}

// RevocationRequest is the RFC 7009 revocation request body.
type RevocationRequest struct {
	ClientID      string
	ClientSecret  string
	Token         string
	TokenTypeHint TokenTypeHint
}
