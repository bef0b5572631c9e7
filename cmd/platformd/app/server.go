// SPDX-FileCopyrightText: Copyright 2026 Lattice Authors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/latticectl/core/pkg/acl"
	"github.com/latticectl/core/pkg/api"
	"github.com/latticectl/core/pkg/config"
	"github.com/latticectl/core/pkg/docstore"
	"github.com/latticectl/core/pkg/httpapi"
	"github.com/latticectl/core/pkg/oauth"
	"github.com/latticectl/core/pkg/runtime"
)

// databaseName is the single partitioned database every resource kind
// lives in, keyed by its own partition (kind plural).
const databaseName = "platform"

// partitions lists every resource kind's storage partition, reported
// by migrate once the database is ready and swept by the garbage
// collector.
var partitions = []string{
	"policies", "policyattachments", "roleattachments",
	"oauthclients", "accesstokens", "refreshtokens", "authorizationcodes", "personalaccesstokens",
}

// server bundles every long-running piece serve assembles: the HTTP
// handler plus the background actors an errgroup supervises alongside it.
type server struct {
	httpAddr string
	handler  http.Handler
	actors   []func(context.Context)
}

// buildServer wires the document substrate, the resource managers for
// every kind, the ACL enforcer with its reload-on-change controller,
// the OAuth2 protocol core, and the HTTP boundary on top of them.
func buildServer(ctx context.Context, cfg config.Config, session httpapi.SessionAuthenticator) (*server, error) {
	client, err := docstore.Open(ctx, cfg.Docstore.Driver, cfg.Docstore.DSN)
	if err != nil {
		return nil, err
	}
	store, err := docstore.EnsureDatabase(ctx, client, databaseName, cfg.Docstore.Partitioned)
	if err != nil {
		return nil, err
	}

	policies := runtime.NewResourceManager[acl.Policy](store, "policies")
	policyAttachments := runtime.NewResourceManager[acl.PolicyAttachment](store, "policyattachments")
	roleAttachments := runtime.NewResourceManager[acl.RoleAttachment](store, "roleattachments")

	clients := runtime.NewResourceManager[oauth.OAuthClient](store, "oauthclients")
	accessTokens := runtime.NewResourceManager[oauth.AccessToken](store, "accesstokens")
	refreshTokens := runtime.NewResourceManager[oauth.RefreshToken](store, "refreshtokens")
	codes := runtime.NewResourceManager[oauth.AuthorizationCode](store, "authorizationcodes")
	pats := runtime.NewResourceManager[oauth.PersonalAccessToken](store, "personalaccesstokens")

	enforcer := acl.NewEnforcer()
	reloader := runtime.NewReloader(func() error {
		pp, err := policies.ListAll(ctx)
		if err != nil {
			return err
		}
		pa, err := policyAttachments.ListAll(ctx)
		if err != nil {
			return err
		}
		ra, err := roleAttachments.ListAll(ctx)
		if err != nil {
			return err
		}
		enforcer.LoadModelFromResources(pp, pa, ra)
		return nil
	})
	if err := reloader.TriggerReload(); err != nil {
		return nil, err
	}

	oauthHandler := oauth.NewHandler(clients, accessTokens, refreshTokens, codes, cfg.OAuth.SigningKey)
	patManager := oauth.NewPATManager(pats, accessTokens, cfg.OAuth.SigningKey)
	oauthEndpoints := httpapi.NewOAuthEndpoints(oauthHandler, session)

	router := httpapi.NewRouter(httpapi.BearerAuth(oauthHandler), oauthEndpoints)
	router.Route("/apis/acl/v1", func(r chi.Router) {
		r.Route("/policies", func(r chi.Router) {
			httpapi.ResourceRoutes(r, policies, enforcer, api.NewGroupVersionKind(acl.Group, "v1", "Policy"), nil, nil)
		})
		r.Route("/policyattachments", func(r chi.Router) {
			httpapi.ResourceRoutes(r, policyAttachments, enforcer, api.NewGroupVersionKind(acl.Group, "v1", "PolicyAttachment"), nil, nil)
		})
		r.Route("/roleattachments", func(r chi.Router) {
			httpapi.ResourceRoutes(r, roleAttachments, enforcer, api.NewGroupVersionKind(acl.Group, "v1", "RoleAttachment"), nil, nil)
		})
	})
	router.Route("/apis/oauth/v1", func(r chi.Router) {
		r.Route("/clients", func(r chi.Router) {
			httpapi.ResourceRoutes(r, clients, enforcer, api.NewGroupVersionKind("oauth", "v1", "OAuthClient"), normalizeOAuthClient, nil)
		})
		r.Route("/personalaccesstokens", func(r chi.Router) {
			httpapi.PersonalAccessTokenRoutes(r, patManager)
		})
	})

	gc := runtime.NewGarbageCollector(store, partitions, cfg.Runtime.GCInterval)

	policyWatcher := runtime.NewWatcher(policies, store, cfg.Runtime.ResyncInterval)
	policyAttachmentWatcher := runtime.NewWatcher(policyAttachments, store, cfg.Runtime.ResyncInterval)
	roleAttachmentWatcher := runtime.NewWatcher(roleAttachments, store, cfg.Runtime.ResyncInterval)
	clientWatcher := runtime.NewWatcher(clients, store, cfg.Runtime.ResyncInterval)

	policyDispatcher := runtime.NewDispatcher("Policy", runtime.ReconcilerFor[acl.Policy](reloader))
	policyAttachmentDispatcher := runtime.NewDispatcher("PolicyAttachment", runtime.ReconcilerFor[acl.PolicyAttachment](reloader))
	roleAttachmentDispatcher := runtime.NewDispatcher("RoleAttachment", runtime.ReconcilerFor[acl.RoleAttachment](reloader))
	clientDispatcher := runtime.NewDispatcher("OAuthClient", oauth.ReconcileClient(clients))

	actors := []func(context.Context){
		gc.Run,
		func(ctx context.Context) { policyDispatcher.Run(ctx, policyWatcher.Start(ctx)) },
		func(ctx context.Context) { policyAttachmentDispatcher.Run(ctx, policyAttachmentWatcher.Start(ctx)) },
		func(ctx context.Context) { roleAttachmentDispatcher.Run(ctx, roleAttachmentWatcher.Start(ctx)) },
		func(ctx context.Context) { clientDispatcher.Run(ctx, clientWatcher.Start(ctx)) },
	}

	return &server{httpAddr: cfg.HTTPAddr, handler: router, actors: actors}, nil
}

func normalizeOAuthClient(existing oauth.OAuthClient, existed bool, incoming oauth.OAuthClient) oauth.OAuthClient {
	if existed {
		incoming.Status = existing.Status
		incoming.Metadata = existing.Metadata
	}
	incoming.TypeMeta = api.TypeMeta{APIVersion: "v1", Kind: "OAuthClient", KindPlural: "oauthclients"}
	return incoming
}

// anonymousSession rejects every request, used when platformd is run
// without a login-session integration wired in (e.g. local dev behind
// a reverse proxy that authenticates end users itself).
type anonymousSession struct{}

func (anonymousSession) AuthenticatedUserID(*http.Request) (string, error) {
	return "", http.ErrNoCookie
}

var _ httpapi.SessionAuthenticator = anonymousSession{}

// httpServer builds the *http.Server for srv, with the timeouts the
// teacher's services set on every listener.
func httpServer(srv *server) *http.Server {
	return &http.Server{
		Addr:              srv.httpAddr,
		Handler:           srv.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
