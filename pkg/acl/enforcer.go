// SPDX-FileCopyrightText: Copyright 2026 Lattice Authors
// SPDX-License-Identifier: Apache-2.0

package acl

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/latticectl/core/pkg/api"
	coreerrors "github.com/latticectl/core/pkg/errors"
	"github.com/latticectl/core/pkg/logger"
	"github.com/latticectl/core/pkg/runtime"
)

// RootUserKey is the subject key for the well-known principal that is
// unconditionally granted every permission. Named rather than inlined
// so every caller short-circuiting on it refers to the same constant.
const RootUserKey = "user:" + RootUser

// Enforcer holds the current Model behind a reader-writer lock: Check
// calls take the read lock and run concurrently; LoadModelFromResources
// rebuilds a fresh Model off to the side and swaps it in under the
// write lock, so reloads never block or race with in-flight checks.
type Enforcer struct {
	mu    sync.RWMutex
	model *Model
}

// NewEnforcer returns an Enforcer that grants nothing until the first
// successful LoadModelFromResources call.
func NewEnforcer() *Enforcer {
	return &Enforcer{model: EmptyModel()}
}

// Check reports whether subject is granted action on object. subject
// must already be in "kind:name" form (see SubjectKey); object must be
// in "group/version/kind/name" form (see api.GroupVersionKindName.String).
func (e *Enforcer) Check(subject, object, action string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.model.Check(subject, object, action)
}

// SubjectKey builds the "kind:name" key Check expects for a subject,
// given a KindNamedRef-shaped (kind, name) pair.
func SubjectKey(kind, name string) string {
	return principalKey(kind, name)
}

// LoadModelFromResources rebuilds the model from the full set of
// Policy, PolicyAttachment, and RoleAttachment resources and
// atomically swaps it in. It never returns an error for a malformed
// individual attachment — invalid subject kinds are logged and
// skipped so a single bad resource can't take the enforcer offline.
//
// The algorithm mirrors the original's load_rules: index policies by
// name, then walk each PolicyAttachment's subjects, expanding every
// (rule, resource pattern, action) combination of the referenced
// policy into a Permission on either the named Role or the named
// Principal depending on the subject's kind. Finally, RoleAttachments
// wire each named Role onto its target Principal.
func (e *Enforcer) LoadModelFromResources(policies []Policy, attachments []PolicyAttachment, roleAttachments []RoleAttachment) {
	policiesByName := make(map[string]Policy, len(policies))
	for _, p := range policies {
		policiesByName[p.Metadata.Name] = p
	}

	roles := make(map[string]*Role)
	principals := make(map[string]*Principal)

	roleFor := func(name string) *Role {
		r, ok := roles[name]
		if !ok {
			r = &Role{Name: name}
			roles[name] = r
		}
		return r
	}
	principalFor := func(key string) *Principal {
		p, ok := principals[key]
		if !ok {
			p = &Principal{Name: key}
			principals[key] = p
		}
		return p
	}

	for _, att := range attachments {
		policy, ok := policiesByName[att.PolicyRef.Name]
		if !ok {
			logger.Warnw("acl: policy attachment references unknown policy, skipping", "attachment", att.Metadata.Name, "policy", att.PolicyRef.Name)
			continue
		}
		perms := permissionsForPolicy(policy)

		for _, subject := range att.Subjects {
			switch strings.ToLower(subject.Kind) {
			case "role":
				role := roleFor(subject.Name)
				role.Permissions = append(role.Permissions, perms...)
			case "user":
				key := principalKey("user", subject.Name)
				principal := principalFor(key)
				principal.Permissions = append(principal.Permissions, perms...)
			default:
				logger.Warnw("acl: policy attachment subject has unknown kind, skipping", "attachment", att.Metadata.Name, "kind", subject.Kind)
			}
		}
	}

	for _, ra := range roleAttachments {
		if _, ok := roles[ra.RoleRef.Name]; !ok {
			logger.Warnw("acl: role attachment references unknown role, granting no permissions", "attachment", ra.Metadata.Name, "role", ra.RoleRef.Name)
		}
		role := roleFor(ra.RoleRef.Name)
		key := principalKey("user", ra.UserRef.Name)
		principal := principalFor(key)
		principal.Roles = append(principal.Roles, role)
	}

	model := EmptyModel()
	for key, p := range principals {
		model.AddPrincipal(key, p)
	}

	e.mu.Lock()
	e.model = model
	e.mu.Unlock()
}

// Grant attaches the named policy to a subject by writing a
// PolicyAttachment through attachments, naming the attachment
// "<policyName>-<subjectKind>-<subjectName>" so repeated grants of the
// same pair are idempotent updates rather than distinct documents. A
// revision conflict from a racing concurrent grant of the same pair is
// treated as success, not an error.
func (e *Enforcer) Grant(ctx context.Context, attachments *runtime.ResourceManager[PolicyAttachment], policyName, subjectKind, subjectName string) error {
	if subjectKind == "user" && subjectName == RootUser {
		return nil
	}
	name := policyName + "-" + subjectKind + "-" + subjectName
	att := PolicyAttachment{
		TypeMeta:  api.TypeMeta{APIVersion: "v1", Kind: "PolicyAttachment", KindPlural: "policyattachments"},
		Metadata:  api.NewMetadata(name, time.Now()),
		PolicyRef: api.NamedRef{Name: policyName},
		Subjects:  []api.KindNamedRef{{Kind: subjectKind, Name: subjectName}},
	}
	if _, err := attachments.Put(ctx, name, att); err != nil {
		if t, ok := coreerrors.AsType(err); ok && t == coreerrors.TypeRevisionConflict {
			return nil
		}
		return err
	}
	return nil
}

// AssignRole grants every permission roleName carries to userName by
// writing a RoleAttachment through roleAttachments, naming it
// "<roleName>-<userName>" for the same idempotency reason as Grant.
func (e *Enforcer) AssignRole(ctx context.Context, roleAttachments *runtime.ResourceManager[RoleAttachment], roleName, userName string) error {
	if userName == RootUser {
		return nil
	}
	name := roleName + "-" + userName
	ra := RoleAttachment{
		TypeMeta: api.TypeMeta{APIVersion: "v1", Kind: "RoleAttachment", KindPlural: "roleattachments"},
		Metadata: api.NewMetadata(name, time.Now()),
		RoleRef:  api.NamedRef{Name: roleName},
		UserRef:  api.NamedRef{Name: userName},
	}
	if _, err := roleAttachments.Put(ctx, name, ra); err != nil {
		if t, ok := coreerrors.AsType(err); ok && t == coreerrors.TypeRevisionConflict {
			return nil
		}
		return err
	}
	return nil
}

func permissionsForPolicy(policy Policy) []Permission {
	var perms []Permission
	for _, rule := range policy.Rules {
		for _, res := range rule.Resources {
			for _, action := range rule.Actions {
				perms = append(perms, NewPermission(res.String(), action))
			}
		}
	}
	return perms
}
