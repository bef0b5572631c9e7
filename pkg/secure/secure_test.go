package secure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken(32)
	require.NoError(t, err)
	assert.Len(t, tok, 64) // hex-encoded, 2 chars per byte

	other, err := GenerateToken(32)
	require.NoError(t, err)
	assert.NotEqual(t, tok, other)
}

func TestSignature(t *testing.T) {
	t.Parallel()

	sig := Signature("authorization-code-value", "hmac-key")
	assert.Len(t, sig, 128) // hex-encoded SHA-512, 64 bytes

	// Deterministic for the same source and key.
	assert.Equal(t, sig, Signature("authorization-code-value", "hmac-key"))

	// Different key, different signature.
	assert.NotEqual(t, sig, Signature("authorization-code-value", "other-key"))
}

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("s3cr3t")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	ok, err := VerifyPassword(hash, "s3cr3t")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPassword_UniqueSalt(t *testing.T) {
	t.Parallel()

	h1, err := HashPassword("same-password")
	require.NoError(t, err)
	h2, err := HashPassword("same-password")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	t.Parallel()

	_, err := VerifyPassword("not-a-valid-hash", "whatever")
	assert.Error(t, err)
}

func TestSHA256Sum(t *testing.T) {
	t.Parallel()

	// Known SHA-256 of the empty string.
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	got := SHA256Sum("")
	assert.Len(t, got, 64)
	assert.Equal(t, want, got)
}

func TestPKCEChallengeS256(t *testing.T) {
	t.Parallel()

	// RFC 7636 Appendix B test vector.
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	want := "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"
	assert.Equal(t, want, PKCEChallengeS256(verifier))
}
