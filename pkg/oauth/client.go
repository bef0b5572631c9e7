// SPDX-FileCopyrightText: Copyright 2026 Lattice Authors
// SPDX-License-Identifier: Apache-2.0

package oauth

import (
	"github.com/latticectl/core/pkg/api"
	coreerrors "github.com/latticectl/core/pkg/errors"
	"github.com/latticectl/core/pkg/secure"
)

var _ api.StatusHolder[OAuthClientStatus] = (*OAuthClient)(nil)

// ClientType distinguishes a client that cannot hold a secret (a
// native or single-page app, identified only by its client id and
// redirect URI allowlist; a PKCE challenge is verified when the
// authorization request carried one, but is not required) from one that can
// (confidential: server-side apps authenticated with a client secret).
type ClientType string

const (
	ClientTypePublic       ClientType = "Public"
	ClientTypeConfidential ClientType = "Confidential"
)

// OAuthClientSpec is the user-authored configuration of a registered
// OAuth2 client.
type OAuthClientSpec struct {
	ClientType          ClientType `json:"clientType"`
	SecretHash          string     `json:"secretHash,omitempty"`
	AllowedScopes       Scope      `json:"allowedScopes"`
	AllowedRedirectURIs []string   `json:"allowedRedirectUris"`
}

// OAuthClientCondition reports the reconciler-observed state of a
// client: Pending until first reconciled, Active once validated,
// Error while validation (e.g. a malformed redirect URI) fails; each
// reconcile recomputes it from the current spec.
type OAuthClientCondition string

const (
	OAuthClientConditionPending OAuthClientCondition = "Pending"
	OAuthClientConditionActive  OAuthClientCondition = "Active"
	OAuthClientConditionError   OAuthClientCondition = "Error"
)

// OAuthClientStatus is the reconciler-observed state of an OAuthClient.
type OAuthClientStatus struct {
	Condition        OAuthClientCondition `json:"condition"`
	ConditionMessage string               `json:"conditionMessage,omitempty"`
}

// OAuthClient is a registered OAuth2 client, reconciled like any other
// resource kind.
type OAuthClient struct {
	TypeMeta api.TypeMeta      `json:"typeMeta"`
	Metadata api.Metadata      `json:"metadata"`
	Spec     OAuthClientSpec   `json:"spec"`
	Status   OAuthClientStatus `json:"status"`
}

// GetTypeMeta implements api.Resource.
func (c OAuthClient) GetTypeMeta() api.TypeMeta { return c.TypeMeta }

// GetMetadata implements api.Resource.
func (c OAuthClient) GetMetadata() api.Metadata { return c.Metadata }

// SetMetadata implements api.Resource.
func (c *OAuthClient) SetMetadata(md api.Metadata) { c.Metadata = md }

// GetStatus implements api.StatusHolder.
func (c OAuthClient) GetStatus() OAuthClientStatus { return c.Status }

// SetStatus implements api.StatusHolder.
func (c *OAuthClient) SetStatus(s OAuthClientStatus) { c.Status = s }

// Authenticate validates clientSecret against the client's registered
// credential. A public client requires no secret at all; a
// confidential client must present one matching its stored hash.
func (c OAuthClient) Authenticate(clientSecret string) error {
	if c.Spec.ClientType == ClientTypePublic {
		return nil
	}
	if clientSecret == "" {
		return coreerrors.NewInvalidClientError("invalid client credentials", nil)
	}
	ok, err := secure.VerifyPassword(c.Spec.SecretHash, clientSecret)
	if err != nil {
		return coreerrors.NewInvalidClientError("invalid client credentials", err)
	}
	if !ok {
		return coreerrors.NewInvalidClientError("invalid client credentials", nil)
	}
	return nil
}

// AllowsRedirectURI reports whether uri is in the client's allowlist.
func (c OAuthClient) AllowsRedirectURI(uri string) bool {
	for _, allowed := range c.Spec.AllowedRedirectURIs {
		if allowed == uri {
			return true
		}
	}
	return false
}
