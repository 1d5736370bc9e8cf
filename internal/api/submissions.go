package api

import (
	"context"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"archway-web/internal/logger"
	"archway-web/internal/models"
)

// SubmissionLog is the read side of the submission log.
type SubmissionLog interface {
	Recent(ctx context.Context, limit int) ([]models.Submission, error)
	CountByStatus(ctx context.Context, kind string, since time.Time) (map[string]int64, error)
}

// SubmissionHandler lets the studio check that form traffic reaches the backend.
type SubmissionHandler struct {
	Log  SubmissionLog
	lggr logger.Logger
}

func NewSubmissionHandler(log SubmissionLog, lggr logger.Logger) *SubmissionHandler {
	return &SubmissionHandler{Log: log, lggr: lggr.Named("submissions")}
}

func limitParam(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 {
		return 50
	}
	return min(limit, 500)
}

func (h *SubmissionHandler) GetSubmissions(c *gin.Context) {
	subs, err := h.Log.Recent(c.Request.Context(), limitParam(c))
	if err != nil {
		h.lggr.Errorw("Failed to list submissions", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list submissions"})
		return
	}

	// Return empty array instead of null
	if subs == nil {
		subs = []models.Submission{}
	}

	c.JSON(http.StatusOK, subs)
}

// GetStats counts submissions per kind and status over ?hours= (default 24).
func (h *SubmissionHandler) GetStats(c *gin.Context) {
	hours, err := strconv.Atoi(c.DefaultQuery("hours", "24"))
	if err != nil || hours < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hours must be a positive integer"})
		return
	}
	since := time.Now().Add(-time.Duration(hours) * time.Hour)

	stats := gin.H{}
	for _, kind := range []string{models.KindContact, models.KindNewsletter} {
		counts, err := h.Log.CountByStatus(c.Request.Context(), kind, since)
		if err != nil {
			h.lggr.Errorw("Failed to count submissions", "kind", kind, "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count submissions"})
			return
		}
		stats[kind] = counts
	}

	c.JSON(http.StatusOK, gin.H{"since": since.UTC(), "stats": stats})
}

func (h *SubmissionHandler) ExportSubmissions(c *gin.Context) {
	subs, err := h.Log.Recent(c.Request.Context(), limitParam(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list submissions"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=submissions.csv")
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"ID", "Kind", "Locale", "Email", "Name", "Subject", "Status", "HTTP Status", "Request ID", "Created At"})
	for _, s := range subs {
		_ = w.Write([]string{
			strconv.FormatUint(uint64(s.ID), 10),
			s.Kind,
			s.Locale,
			s.Email,
			s.Name,
			s.Subject,
			s.Status,
			strconv.Itoa(s.HTTPStatus),
			s.RequestID,
			s.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		h.lggr.Warnw("Failed to write submissions export", "err", err)
	}
}
