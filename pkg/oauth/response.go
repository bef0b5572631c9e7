// SPDX-FileCopyrightText: Copyright 2026 Lattice Authors
// SPDX-License-Identifier: Apache-2.0

package oauth

import "time"

// TokenResponse is the RFC 6749 §5.1 access token response body.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope"`
}

// IntrospectionResponse is the RFC 7662 introspection response body.
type IntrospectionResponse struct {
	Active    bool          `json:"active"`
	Scope     string        `json:"scope,omitempty"`
	ClientID  string        `json:"client_id,omitempty"`
	Username  string        `json:"username,omitempty"`
	TokenType TokenTypeHint `json:"token_type,omitempty"`
	Exp       int64         `json:"exp,omitempty"`
}

// InactiveIntrospectionResponse is the minimal {"active": false} body
// RFC 7662 mandates for an unrecognized or expired token, regardless
// of why it failed to resolve — this avoids leaking whether a token
// ever existed.
func InactiveIntrospectionResponse() IntrospectionResponse {
	return IntrospectionResponse{Active: false}
}

func activeIntrospectionResponse(session Session, hint TokenTypeHint, exp time.Time) IntrospectionResponse {
	return IntrospectionResponse{
		Active:    true,
		Scope:     session.Scope.String(),
		ClientID:  session.ClientID,
		Username:  session.UserID,
		TokenType: hint,
		Exp:       exp.Unix(),
	}
}

// RevocationResponse is the body returned for a successful RFC 7009
// revocation request (the endpoint has no error body distinct from
// the shared OAuth2 error response — a revocation request responds 200
// unless client authentication fails, the token belongs to another
// client, or the store fails to delete it).
type RevocationResponse struct {
	OK bool `json:"ok"`
}
