// Package secure provides the cryptographic primitives shared by the
// OAuth2 protocol core: random secret generation, HMAC-SHA512 token
// signatures (the lookup key under which codes and tokens are stored),
// Argon2 password hashing for confidential client secrets, and the
// SHA-256 PKCE challenge derivation.
package secure

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// argon2Params mirrors the Rust original's default argon2::Config: a
// single pass, 64MB of memory, four lanes of parallelism, 32-byte output.
type argon2Params struct {
	time    uint32
	memory  uint32
	threads uint8
	keyLen  uint32
	saltLen int
}

var defaultArgon2Params = argon2Params{
	time:    1,
	memory:  64 * 1024,
	threads: 4,
	keyLen:  32,
	saltLen: 16,
}

// GenerateToken returns size cryptographically random bytes, hex-encoded.
// Used for authorization code secrets, access tokens, and refresh tokens.
func GenerateToken(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating random token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Signature returns the hex-encoded HMAC-SHA512 of source under key. This
// is the lookup key under which authorization codes and tokens are
// persisted: the plaintext secret is returned to the caller exactly
// once, and only the signature is ever stored.
func Signature(source, key string) string {
	mac := hmac.New(sha512.New, []byte(key))
	mac.Write([]byte(source))
	return hex.EncodeToString(mac.Sum(nil))
}

// HashPassword returns an Argon2id-encoded hash of password, in the
// conventional "$argon2id$v=..$m=..,t=..,p=..$salt$hash" PHC string
// format, suitable for storage as OAuthClient.Spec.SecretHash.
func HashPassword(password string) (string, error) {
	salt := make([]byte, defaultArgon2Params.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	p := defaultArgon2Params
	hash := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)
	encoded := fmt.Sprintf(
		"$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		p.memory, p.time, p.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)
	return encoded, nil
}

// VerifyPassword reports whether password matches the Argon2id PHC
// string hash, using a constant-time comparison of the derived key.
func VerifyPassword(hash, password string) (bool, error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, fmt.Errorf("malformed argon2 hash")
	}
	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, fmt.Errorf("parsing argon2 params: %w", err)
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("decoding salt: %w", err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("decoding hash: %w", err)
	}
	got := argon2.IDKey([]byte(password), salt, time, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// SHA256Sum returns the hex-encoded SHA-256 digest of s.
func SHA256Sum(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Base64URLEncode base64url-encodes s without padding.
func Base64URLEncode(s []byte) string {
	return base64.RawURLEncoding.EncodeToString(s)
}

// PKCEChallengeS256 derives the S256 PKCE code_challenge from a
// code_verifier: base64url(unpadded)(SHA-256(verifier)).
func PKCEChallengeS256(codeVerifier string) string {
	sum := sha256.Sum256([]byte(codeVerifier))
	return Base64URLEncode(sum[:])
}
