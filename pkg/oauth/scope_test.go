// SPDX-FileCopyrightText: Copyright 2026 Lattice Authors
// SPDX-License-Identifier: Apache-2.0

package oauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScope_IsSuperset(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		have  Scope
		want  Scope
		super bool
	}{
		{"exact match", NewScope("profile", "email"), NewScope("profile", "email"), true},
		{"proper superset", NewScope("profile", "email"), NewScope("profile"), true},
		{"missing scope", NewScope("profile"), NewScope("profile", "email"), false},
		{"full scope grants anything", NewScope("*"), NewScope("anything", "goes"), true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.super, tc.have.IsSuperset(tc.want))
		})
	}
}

func TestScope_Intersect(t *testing.T) {
	t.Parallel()

	a := NewScope("profile", "email", "openid")
	b := NewScope("email", "openid", "something")
	got := a.Intersect(b)
	assert.Equal(t, "email openid", got.String())
}

func TestScope_Intersect_FullScopeYieldsOther(t *testing.T) {
	t.Parallel()

	full := NewScope("*")
	other := NewScope("a", "b")
	assert.Equal(t, other.String(), full.Intersect(other).String())
	assert.Equal(t, other.String(), other.Intersect(full).String())
}

func TestScope_ParseAndString_RoundTrips(t *testing.T) {
	t.Parallel()

	s := ParseScope("profile email profile")
	assert.Equal(t, "email profile", s.String())
}

func TestScope_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	s := NewScope("b", "a")
	data, err := s.MarshalJSON()
	assert.NoError(t, err)
	assert.Equal(t, `"a b"`, string(data))

	var out Scope
	assert.NoError(t, out.UnmarshalJSON(data))
	assert.Equal(t, "a b", out.String())
}
