package webhook

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"archway-web/internal/config"
	"archway-web/internal/logger"
	"archway-web/internal/resources"
	"archway-web/internal/ws"
	"archway-web/pkg/models"
)

const TokenHeader = "X-Webhook-Token"

// Invalidator marks cached content stale.
type Invalidator interface {
	InvalidateContent(resource, slug string) (int, error)
}

// Notifier tells open pages that content changed.
type Notifier interface {
	NotifyContentUpdated(update ws.ContentUpdate)
}

// Handler receives content change notifications from the CMS backend.
type Handler struct {
	Config   *config.Config
	Cache    Invalidator
	Notifier Notifier
	lggr     logger.Logger
}

func NewHandler(cfg *config.Config, cache Invalidator, notifier Notifier, lggr logger.Logger) *Handler {
	return &Handler{
		Config:   cfg,
		Cache:    cache,
		Notifier: notifier,
		lggr:     lggr.Named("webhook"),
	}
}

func (h *Handler) VerifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode != "" && token != "" {
		if mode == "subscribe" && h.tokenMatches(token) {
			h.lggr.Info("Webhook verified successfully")
			c.String(http.StatusOK, challenge)
		} else {
			c.Status(http.StatusForbidden)
		}
	} else {
		c.Status(http.StatusBadRequest)
	}
}

// RequireToken rejects requests whose TokenHeader does not match the
// configured verify token.
func (h *Handler) RequireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.tokenMatches(c.GetHeader(TokenHeader)) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid webhook token"})
			return
		}
		c.Next()
	}
}

// HandleContentEvent invalidates the cached content named by the event and
// forwards it to connected pages. Routes put RequireToken in front of it.
func (h *Handler) HandleContentEvent(c *gin.Context) {
	var event models.ContentEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		h.lggr.Warnw("Error binding content event", "err", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	n, err := h.Cache.InvalidateContent(event.Resource, event.Slug)
	if err != nil {
		if errors.Is(err, resources.ErrUnknownResource) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		h.lggr.Errorw("Failed to invalidate content", "resource", event.Resource, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to invalidate content"})
		return
	}

	if h.Notifier != nil {
		h.Notifier.NotifyContentUpdated(ws.ContentUpdate{Resource: event.Resource, Slug: event.Slug, Invalidated: n})
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "invalidated": n})
}

// tokenMatches rejects everything while no token is configured.
func (h *Handler) tokenMatches(token string) bool {
	want := h.Config.WebhookVerifyToken
	if want == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(want)) == 1
}
