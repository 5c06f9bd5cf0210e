package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tabwave/keygate/internal/issuer/service"
	"github.com/tabwave/keygate/internal/issuer/store"
	"github.com/tabwave/keygate/pkg/httpx"
	"github.com/tabwave/keygate/pkg/jwtx"
	"github.com/tabwave/keygate/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	validate     *validator.Validate

	store          store.Store
	LicenseService *service.LicenseService

	// AdminCheck authenticates admin Basic auth credentials. Must run in
	// constant time.
	AdminCheck httpx.CredentialChecker
}

func NewRouter(
	keys *jwtx.KeySet,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		validate:     validator.New(),
		store:        st,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerLicenses()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerLicenses() {
	admin := httpx.BasicAuth("keygate", r.AdminCheck)

	// POST /issue - admin mutation, strict rate limit
	issueHandler := &IssueHandler{LicenseService: r.LicenseService, Validate: r.validate}
	r.Mux.Handle("POST /issue",
		httpx.Chain(issueHandler,
			admin,
			httpx.RateLimitByAdmin(httpx.StrictLimit),
		),
	)

	// POST /verify - public endpoint hit by every client on startup
	verifyHandler := &VerifyHandler{LicenseService: r.LicenseService, Validate: r.validate}
	r.Mux.Handle("POST /verify",
		httpx.Chain(verifyHandler,
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	// POST /revoke - admin mutation, strict rate limit
	revokeHandler := &RevokeHandler{LicenseService: r.LicenseService, Validate: r.validate}
	r.Mux.Handle("POST /revoke",
		httpx.Chain(revokeHandler,
			admin,
			httpx.RateLimitByAdmin(httpx.StrictLimit),
		),
	)

	// GET /status/{jti} - public revocation lookup
	statusHandler := &StatusHandler{LicenseService: r.LicenseService}
	r.Mux.Handle("GET /status/{jti}",
		httpx.Chain(statusHandler,
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	// GET /licenses - admin read, moderate rate limit
	listHandler := &ListHandler{LicenseService: r.LicenseService}
	r.Mux.Handle("GET /licenses",
		httpx.Chain(listHandler,
			admin,
			httpx.RateLimitByAdmin(httpx.ModerateLimit),
		),
	)

	// GET /.well-known/jwks.json - public key discovery
	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.store, r.keys))
}
