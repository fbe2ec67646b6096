package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"clippa/internal/clip"
	"clippa/internal/jobid"
	"clippa/internal/logging"
	"clippa/internal/services"
)

const (
	requiredFieldsMessage = "url, startTime, endTime and userId are required"
	malformedBodyMessage  = "malformed request body"
)

type handlers struct {
	pipeline Submitter
	jobs     JobReader
	logger   *slog.Logger
}

func (h *handlers) root(c *gin.Context) {
	c.String(http.StatusOK, "Server is running!")
}

func (h *handlers) ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *handlers) createClip(c *gin.Context) {
	var req clip.Request
	// Missing fields are reported by Validate inside Submit.
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": malformedBodyMessage})
		return
	}

	id, err := h.pipeline.Submit(c.Request.Context(), req)
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, gin.H{"id": id})
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationText(err)})
	default:
		logging.WithContext(c.Request.Context(), h.logger).Error("job creation failed",
			logging.String(logging.FieldEventType, "job_create_failed"),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create job"})
	}
}

func (h *handlers) getClip(c *gin.Context) {
	id := c.Param("id")
	if !jobid.Valid(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	job, err := h.jobs.Get(c.Request.Context(), id)
	if err != nil {
		logging.WithContext(c.Request.Context(), h.logger).Error("job lookup failed",
			logging.String(logging.FieldEventType, "job_lookup_failed"),
			logging.String(logging.FieldJobID, id),
			logging.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read job"})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

// validationText drops the taxonomy prefix from a validation error.
func validationText(err error) string {
	return strings.TrimPrefix(err.Error(), services.ErrValidation.Error()+": ")
}
