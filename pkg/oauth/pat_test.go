// SPDX-FileCopyrightText: Copyright 2026 Lattice Authors
// SPDX-License-Identifier: Apache-2.0

package oauth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticectl/core/pkg/runtime"
	"github.com/latticectl/core/pkg/secure"
)

func newTestPATManager(t *testing.T) *PATManager {
	t.Helper()
	store := newFakeStore()
	pats := runtime.NewResourceManager[PersonalAccessToken](store, "personalaccesstokens")
	accessTokens := runtime.NewResourceManager[AccessToken](store, "accesstokens")
	return NewPATManager(pats, accessTokens, "test-secret-key")
}

func TestPATManager_CreateListRevoke(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newTestPATManager(t)

	name, secret, err := m.Create(ctx, "ci-token", "user-1", NewScope("read"), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "ci-token", name)
	assert.NotEmpty(t, secret)

	owned, err := m.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, owned.Items(), 1)
	assert.Equal(t, "ci-token", owned.Items()[0].Name)
	assert.False(t, owned.HasNext())

	others, err := m.List(ctx, "someone-else")
	require.NoError(t, err)
	assert.Empty(t, others.Items())

	require.NoError(t, m.Revoke(ctx, "ci-token", "user-1"))
	owned, err = m.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, owned.Items())
}

func TestPATManager_Revoke_AlsoRevokesBackingAccessToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newTestPATManager(t)

	name, secret, err := m.Create(ctx, "ci-token", "user-1", NewScope("read"), time.Hour)
	require.NoError(t, err)

	sig := secure.Signature(secret, "test-secret-key")
	_, found, err := m.accessTokens.Find(ctx, sig)
	require.NoError(t, err)
	require.True(t, found, "Create should project the PAT into the access token store")

	require.NoError(t, m.Revoke(ctx, name, "user-1"))

	_, found, err = m.accessTokens.Find(ctx, sig)
	require.NoError(t, err)
	assert.False(t, found, "Revoke should delete the backing access token too")
}

func TestPATManager_Revoke_WrongOwnerDenied(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newTestPATManager(t)

	_, _, err := m.Create(ctx, "ci-token", "user-1", NewScope("read"), 0)
	require.NoError(t, err)

	err = m.Revoke(ctx, "ci-token", "someone-else")
	assert.Error(t, err)
}

func TestPATManager_Create_GeneratesNameWhenEmpty(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newTestPATManager(t)

	name, secret, err := m.Create(ctx, "", "user-1", NewScope("read"), 0)
	require.NoError(t, err)
	assert.NotEmpty(t, name)
	assert.NotEmpty(t, secret)

	owned, err := m.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, owned.Items(), 1)
	assert.Equal(t, name, owned.Items()[0].Name)
}

func TestPersonalAccessToken_NeverExpiresWithoutExplicitTTL(t *testing.T) {
	t.Parallel()
	pat := PersonalAccessToken{CreatedAt: time.Now()}
	assert.False(t, pat.IsExpired(time.Now().AddDate(50, 0, 0)))
}
