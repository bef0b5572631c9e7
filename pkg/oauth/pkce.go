// SPDX-FileCopyrightText: Copyright 2026 Lattice Authors
// SPDX-License-Identifier: Apache-2.0

package oauth

import (
	"crypto/subtle"

	coreerrors "github.com/latticectl/core/pkg/errors"
	"github.com/latticectl/core/pkg/secure"
)

// ChallengeMethod is the PKCE code_challenge_method: "S256" hashes the
// verifier with SHA-256 before comparison, "plain" compares it as-is.
// "plain" exists for clients that cannot compute SHA-256, and is
// weaker — it is accepted because RFC 7636 requires servers to
// support it, not because it is recommended.
type ChallengeMethod string

const (
	ChallengeMethodS256  ChallengeMethod = "S256"
	ChallengeMethodPlain ChallengeMethod = "plain"
)

// PKCERequest is the code_challenge presented at the authorization
// endpoint and checked against the code_verifier presented at the
// token endpoint.
type PKCERequest struct {
	CodeChallenge       string          `json:"codeChallenge"`
	CodeChallengeMethod ChallengeMethod `json:"codeChallengeMethod"`
}

// NewPKCERequest builds a PKCERequest, defaulting an empty method to S256
// per RFC 7636's recommendation.
func NewPKCERequest(challenge string, method ChallengeMethod) PKCERequest {
	if method == "" {
		method = ChallengeMethodS256
	}
	return PKCERequest{CodeChallenge: challenge, CodeChallengeMethod: method}
}

// Verify reports whether verifier reproduces this request's challenge.
func (p PKCERequest) Verify(verifier string) error {
	var derived string
	switch p.CodeChallengeMethod {
	case ChallengeMethodS256:
		derived = secure.PKCEChallengeS256(verifier)
	case ChallengeMethodPlain:
		derived = verifier
	default:
		return coreerrors.NewInvalidRequestError("unsupported code_challenge_method", nil)
	}
	if subtle.ConstantTimeCompare([]byte(derived), []byte(p.CodeChallenge)) != 1 {
		return coreerrors.NewInvalidGrantError("code_verifier does not match code_challenge", nil)
	}
	return nil
}
