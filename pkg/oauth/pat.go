// SPDX-FileCopyrightText: Copyright 2026 Lattice Authors
// SPDX-License-Identifier: Apache-2.0

package oauth

import (
	"context"
	"time"

	"github.com/google/uuid"

	coreerrors "github.com/latticectl/core/pkg/errors"
	"github.com/latticectl/core/pkg/logger"
	"github.com/latticectl/core/pkg/pagination"
	"github.com/latticectl/core/pkg/runtime"
	"github.com/latticectl/core/pkg/secure"
)

// PATManager issues and manages Personal Access Tokens: long-lived
// bearer credentials a user creates for themselves, outside the
// authorization-code flow, typically for CLI or CI use. A PAT is
// looked up the same way as an access token — by the HMAC signature
// of its plaintext — so it is accepted anywhere an access token is,
// including introspection and the resource API's bearer auth.
type PATManager struct {
	pats         *runtime.ResourceManager[PersonalAccessToken]
	accessTokens *runtime.ResourceManager[AccessToken]
	secretKey    string
	now          func() time.Time
}

// NewPATManager builds a PATManager persisting through pats, and
// projecting each issued PAT into accessTokens so the resource API's
// bearer-token lookup never needs to know PATs exist as a separate
// concept.
func NewPATManager(pats *runtime.ResourceManager[PersonalAccessToken], accessTokens *runtime.ResourceManager[AccessToken], secretKey string) *PATManager {
	return &PATManager{pats: pats, accessTokens: accessTokens, secretKey: secretKey, now: time.Now}
}

// Create issues a new PAT for userID under scope, valid for ttl (zero
// meaning no expiration), and returns its assigned name and plaintext
// value — the only time that value is ever available. An empty name
// gets a generated UUID, for callers (e.g. CI provisioning) that don't
// need a human-chosen one.
func (m *PATManager) Create(ctx context.Context, name, userID string, scope Scope, ttl time.Duration) (string, string, error) {
	if name == "" {
		name = uuid.NewString()
	}
	secret, err := secure.GenerateToken(32)
	if err != nil {
		return "", "", coreerrors.NewServerError("generating personal access token", err)
	}
	sig := secure.Signature(secret, m.secretKey)

	var expiration *time.Time
	if ttl > 0 {
		t := m.now().Add(ttl)
		expiration = &t
	}

	pat := PersonalAccessToken{
		Name:                 name,
		UserID:               userID,
		Scope:                scope,
		CreatedAt:            m.now(),
		Expiration:           expiration,
		AccessTokenSignature: sig,
	}
	if _, err := m.pats.Put(ctx, name, pat); err != nil {
		return "", "", err
	}

	session := NewSession("", userID, scope)
	accessToken := AccessToken{Session: session, Expiration: farFuture(expiration, m.now())}
	if _, err := m.accessTokens.Put(ctx, sig, accessToken); err != nil {
		return "", "", err
	}

	return name, secret, nil
}

// List returns every PAT owned by userID, as a single unbounded page —
// ListAll already drains every underlying page, so there is never a
// further token to resume from.
func (m *PATManager) List(ctx context.Context, userID string) (pagination.Page[PersonalAccessToken], error) {
	all, err := m.pats.ListAll(ctx)
	if err != nil {
		return pagination.Page[PersonalAccessToken]{}, err
	}
	owned := make([]PersonalAccessToken, 0, len(all))
	for _, pat := range all {
		if pat.UserID == userID {
			owned = append(owned, pat)
		}
	}
	return pagination.FromSlice(owned), nil
}

// Revoke deletes the PAT named name, owned by userID, along with the
// access-token projection Create stored alongside it — deleting a PAT
// revokes both records it lives as.
func (m *PATManager) Revoke(ctx context.Context, name, userID string) error {
	pat, found, err := m.pats.Find(ctx, name)
	if err != nil {
		return err
	}
	if !found {
		return coreerrors.NewNotFoundError("personal access token not found", nil)
	}
	if pat.UserID != userID {
		return coreerrors.NewAccessDeniedError("access denied", nil)
	}
	if err := m.pats.Delete(ctx, name); err != nil {
		return err
	}
	if err := m.accessTokens.Delete(ctx, pat.AccessTokenSignature); err != nil {
		logger.Debugw("pat: backing access token already absent", "name", name, "error", err)
	}
	return nil
}

// farFuture returns expiration if set, or a date far enough out from
// now to be effectively non-expiring for a PAT with no explicit TTL.
func farFuture(expiration *time.Time, now time.Time) time.Time {
	if expiration != nil {
		return *expiration
	}
	return now.AddDate(100, 0, 0)
}
