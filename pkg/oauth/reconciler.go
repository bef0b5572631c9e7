// SPDX-FileCopyrightText: Copyright 2026 Lattice Authors
// SPDX-License-Identifier: Apache-2.0

package oauth

import (
	"context"
	"fmt"
	"net/url"

	"github.com/latticectl/core/pkg/runtime"
)

// ReconcileClient returns a Reconciler that validates an OAuthClient's
// spec whenever it is created or changed and writes the observed
// condition back to its status: Error if the redirect URI allowlist
// or secret configuration is malformed, Active otherwise.
func ReconcileClient(clients *runtime.ResourceManager[OAuthClient]) runtime.Reconciler[OAuthClient] {
	return func(ctx context.Context, name string, ev runtime.Event[OAuthClient]) error {
		if ev.Deleted {
			return nil
		}
		client := ev.Doc
		condition, message := validateClientSpec(client.Spec)
		if client.Status.Condition == condition && client.Status.ConditionMessage == message {
			return nil
		}
		client.Status = OAuthClientStatus{Condition: condition, ConditionMessage: message}
		if _, err := clients.Put(ctx, name, client); err != nil {
			return runtime.WrapAndRetry(err)
		}
		return nil
	}
}

func validateClientSpec(spec OAuthClientSpec) (OAuthClientCondition, string) {
	if len(spec.AllowedRedirectURIs) == 0 {
		return OAuthClientConditionError, "at least one allowed redirect URI is required"
	}
	for _, raw := range spec.AllowedRedirectURIs {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return OAuthClientConditionError, fmt.Sprintf("invalid redirect URI %q", raw)
		}
	}
	if spec.ClientType == ClientTypeConfidential && spec.SecretHash == "" {
		return OAuthClientConditionError, "confidential clients require a secret"
	}
	return OAuthClientConditionActive, ""
}
