package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// AdminToken guards /api/admin. Empty leaves admin routes open.
	AdminToken string
	// Metrics observes every request when set.
	Metrics RequestObserver
	// MetricsHandler is mounted at /metrics when set.
	MetricsHandler http.Handler
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(h *Handler, opts RouterOptions, baseLogger *zerolog.Logger) *gin.Engine {
	log := baseLogger.With().Str("component", "http_router").Logger()

	r := gin.New()
	r.Use(requestLogger(log))
	r.Use(gin.CustomRecovery(recovery))
	if opts.Metrics != nil {
		r.Use(observe(opts.Metrics))
	}
	r.NoRoute(func(c *gin.Context) { Error(c, errNotFound) })

	r.GET("/healthz", h.Health)
	if opts.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(opts.MetricsHandler))
	}

	api := r.Group("/api")

	admin := api.Group("/admin")
	if opts.AdminToken != "" {
		admin.Use(adminAuth(opts.AdminToken))
	} else {
		log.Warn().Msg("No admin token configured, admin routes are unauthenticated")
	}
	admin.GET("/accounts", h.AdminAccounts)

	challenge := admin.Group("/challenges/:source/:id")
	challenge.POST("/credentials", h.AssignCredentials)
	challenge.POST("/release", h.ReleaseCredentials)
	challenge.POST("/pass", h.MarkPassed)
	challenge.POST("/breach", h.Breach)
	challenge.POST("/unbreach", h.Unbreach)
	challenge.POST("/reject", h.Reject)
	challenge.POST("/note", h.SaveNote)
	challenge.PATCH("", h.Edit)

	users := api.Group("/users/:userID")
	users.GET("/accounts", h.UserAccounts)
	users.POST("/challenges/:source/:id/contract", h.SignContract)

	return r
}
