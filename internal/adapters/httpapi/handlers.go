package httpapi

import (
	"PropDesk/internal/core/domain"
	"PropDesk/internal/core/services/lifecycle"
	"PropDesk/internal/core/services/reconcile"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Reconciler builds the merged dashboards.
type Reconciler interface {
	ForAdmin(ctx context.Context) (*reconcile.Result, error)
	ForUser(ctx context.Context, userID string) (*reconcile.Result, error)
}

// Lifecycle applies status transitions to single challenges.
type Lifecycle interface {
	AssignCredentials(ctx context.Context, ref domain.ChallengeRef, creds lifecycle.Credentials) (*domain.Challenge, error)
	SignContract(ctx context.Context, ref domain.ChallengeRef, userID string) (*domain.Challenge, error)
	ReleaseCredentials(ctx context.Context, ref domain.ChallengeRef) (*domain.Challenge, error)
	MarkPassed(ctx context.Context, ref domain.ChallengeRef) (*domain.Challenge, error)
	Breach(ctx context.Context, ref domain.ChallengeRef, reason string) (*domain.Challenge, error)
	Unbreach(ctx context.Context, ref domain.ChallengeRef) (*domain.Challenge, error)
	Reject(ctx context.Context, ref domain.ChallengeRef, reason string) (*domain.Challenge, error)
	SaveNote(ctx context.Context, ref domain.ChallengeRef, note string) (*domain.Challenge, error)
	Edit(ctx context.Context, ref domain.ChallengeRef, edit lifecycle.Edit) (*domain.Challenge, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler exposes the dashboards and admin actions over HTTP.
type Handler struct {
	reconciler Reconciler
	lifecycle  Lifecycle
	checks     map[string]Pinger
	log        zerolog.Logger
}

// NewHandler creates the API handler. /healthz pings every entry in checks.
func NewHandler(reconciler Reconciler, lc Lifecycle, checks map[string]Pinger, baseLogger *zerolog.Logger) *Handler {
	return &Handler{
		reconciler: reconciler,
		lifecycle:  lc,
		checks:     checks,
		log:        baseLogger.With().Str("component", "http_handler").Logger(),
	}
}

// Health reports each dependency. It always answers 200 so a single
// optional source going down does not restart the service.
func (h *Handler) Health(c *gin.Context) {
	status := "ok"
	deps := make(map[string]string, len(h.checks))
	for name, p := range h.checks {
		if err := p.Ping(c.Request.Context()); err != nil {
			deps[name] = "down"
			status = "degraded"
			continue
		}
		deps[name] = "up"
	}
	Success(c, http.StatusOK, gin.H{"status": status, "checks": deps})
}

// AdminAccounts returns the full back-office dashboard.
func (h *Handler) AdminAccounts(c *gin.Context) {
	res, err := h.reconciler.ForAdmin(c.Request.Context())
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, http.StatusOK, newDashboardDTO(res, adminView))
}

// UserAccounts returns one trader's dashboard.
func (h *Handler) UserAccounts(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userID"))
	res, err := h.reconciler.ForUser(c.Request.Context(), userID)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, http.StatusOK, newDashboardDTO(res, traderView))
}

func (h *Handler) AssignCredentials(c *gin.Context) {
	var body lifecycle.Credentials
	h.withBody(c, &body, func(ctx context.Context, ref domain.ChallengeRef) (*domain.Challenge, error) {
		return h.lifecycle.AssignCredentials(ctx, ref, body)
	})
}

func (h *Handler) ReleaseCredentials(c *gin.Context) {
	h.transition(c, h.lifecycle.ReleaseCredentials)
}

// MarkPassed answers with the newly opened next-phase challenge.
func (h *Handler) MarkPassed(c *gin.Context) {
	ref, ok := parseRef(c)
	if !ok {
		return
	}
	next, err := h.lifecycle.MarkPassed(c.Request.Context(), ref)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, http.StatusCreated, newChallengeDTO(*next, adminView))
}

func (h *Handler) Breach(c *gin.Context) {
	var body reasonRequest
	h.withBody(c, &body, func(ctx context.Context, ref domain.ChallengeRef) (*domain.Challenge, error) {
		return h.lifecycle.Breach(ctx, ref, body.Reason)
	})
}

func (h *Handler) Unbreach(c *gin.Context) {
	h.transition(c, h.lifecycle.Unbreach)
}

func (h *Handler) Reject(c *gin.Context) {
	var body reasonRequest
	h.withBody(c, &body, func(ctx context.Context, ref domain.ChallengeRef) (*domain.Challenge, error) {
		return h.lifecycle.Reject(ctx, ref, body.Reason)
	})
}

func (h *Handler) SaveNote(c *gin.Context) {
	var body noteRequest
	h.withBody(c, &body, func(ctx context.Context, ref domain.ChallengeRef) (*domain.Challenge, error) {
		return h.lifecycle.SaveNote(ctx, ref, body.Note)
	})
}

func (h *Handler) Edit(c *gin.Context) {
	var body lifecycle.Edit
	h.withBody(c, &body, func(ctx context.Context, ref domain.ChallengeRef) (*domain.Challenge, error) {
		return h.lifecycle.Edit(ctx, ref, body)
	})
}

// SignContract is the trader's own action on one of their challenges.
func (h *Handler) SignContract(c *gin.Context) {
	ref, ok := parseRef(c)
	if !ok {
		return
	}
	userID := strings.TrimSpace(c.Param("userID"))
	updated, err := h.lifecycle.SignContract(c.Request.Context(), ref, userID)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, http.StatusOK, newChallengeDTO(*updated, traderView))
}

func (h *Handler) transition(c *gin.Context, fn func(context.Context, domain.ChallengeRef) (*domain.Challenge, error)) {
	ref, ok := parseRef(c)
	if !ok {
		return
	}
	respond(c, fn, ref)
}

// withBody decodes the JSON body into dst before running fn. An empty
// body leaves dst zero-valued so the service's own validation reports it.
func (h *Handler) withBody(c *gin.Context, dst any, fn func(context.Context, domain.ChallengeRef) (*domain.Challenge, error)) {
	ref, ok := parseRef(c)
	if !ok {
		return
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		zerolog.Ctx(c.Request.Context()).Debug().Err(err).Msg("Bad request body")
		Error(c, errBadBody)
		return
	}
	respond(c, fn, ref)
}

func respond(c *gin.Context, fn func(context.Context, domain.ChallengeRef) (*domain.Challenge, error), ref domain.ChallengeRef) {
	updated, err := fn(c.Request.Context(), ref)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, http.StatusOK, newChallengeDTO(*updated, adminView))
}

func parseRef(c *gin.Context) (domain.ChallengeRef, bool) {
	src, err := domain.ParseSource(c.Param("source"))
	if err != nil {
		Error(c, err)
		return domain.ChallengeRef{}, false
	}
	return domain.ChallengeRef{Source: src, ID: strings.TrimSpace(c.Param("id"))}, true
}
