package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/service"
	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/store"
	"github.com/D-Arox/BluFox-Studio-sub000/pkg/httpx"
	"github.com/D-Arox/BluFox-Studio-sub000/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	OAuthService    *service.OAuthService
	Gate            *service.SessionGate
	RememberService *service.RememberService

	// SiteURL is where the callback redirects after a successful login.
	SiteURL       string
	SecureCookies bool
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerAccount()
	r.registerAdmin()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	// GET /login - strict rate limit (starts authentication attempts)
	r.Mux.Handle("GET /v1/auth/login",
		httpx.Chain(&LoginHandler{OAuth: r.OAuthService},
			httpx.RateLimitByIP("login", httpx.StrictLimit),
		),
	)

	// GET /callback - strict rate limit, shares the login budget so a
	// brute-forced state can't bypass the login cap
	r.Mux.Handle("GET /v1/auth/callback",
		httpx.Chain(&CallbackHandler{
			OAuth:         r.OAuthService,
			Gate:          r.Gate,
			SiteURL:       r.SiteURL,
			SecureCookies: r.SecureCookies,
		},
			httpx.RateLimitByIP("login", httpx.StrictLimit),
		),
	)

	// POST /refresh - moderate rate limit
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(&RefreshHandler{Gate: r.Gate},
			httpx.RateLimitByIP("refresh", httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("POST /v1/auth/logout",
		&LogoutHandler{Gate: r.Gate, SecureCookies: r.SecureCookies})
}

func (r *Router) registerAccount() {
	r.Mux.Handle("GET /v1/auth/me",
		httpx.Chain(&MeHandler{Gate: r.Gate, SecureCookies: r.SecureCookies},
			httpx.RateLimitByIP("me", httpx.LenientLimit),
		),
	)

	sessions := &SessionsHandler{Gate: r.Gate, Remember: r.RememberService, SecureCookies: r.SecureCookies}
	r.Mux.HandleFunc("GET /v1/auth/sessions", sessions.HandleList)
	r.Mux.HandleFunc("DELETE /v1/auth/sessions/{id}", sessions.HandleRevoke)
}

func (r *Router) registerAdmin() {
	r.Mux.Handle("GET /v1/admin/activity",
		&ActivityHandler{Gate: r.Gate, Store: r.store, SecureCookies: r.SecureCookies})
}

func (r *Router) registerSystem() {
	r.Mux.HandleFunc("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.HandleFunc("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}
