package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"sciencefair-registration/config"
	"sciencefair-registration/db"
	"sciencefair-registration/metrics"
	"sciencefair-registration/models"
	"sciencefair-registration/validation"
)

// timestampLayout matches JavaScript's Date.toISOString.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

const registrationFailedMessage = "An error occurred while processing your registration. Please try again later."

// APIHandler holds the dependencies for API handlers, like the sheet store
type APIHandler struct {
	Store   db.Store
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Now     func() time.Time
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(store db.Store, cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) *APIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	return &APIHandler{
		Store:   store,
		Config:  cfg,
		Logger:  logger,
		Metrics: m,
		Now:     time.Now,
	}
}

// --- Registration ---

// Register handles POST /api/register
func (h *APIHandler) Register(c *gin.Context) {
	var req models.RegistrationRequest
	// an empty body is validated as an empty registration
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.rejectRegistration(c, validation.DecodeErrors(err))
		return
	}
	if errs := validation.Validate(&req); len(errs) > 0 {
		h.rejectRegistration(c, errs)
		return
	}

	ctx := c.Request.Context()
	timestamp := h.Now().UTC().Format(timestampLayout)
	projectID, err := h.Store.NextProjectID(ctx)
	if err != nil {
		h.failRegistration(c, err)
		return
	}

	row := models.NewProjectRow(req, projectID, timestamp)
	if err := h.Store.AppendRegistration(ctx, []models.ProjectRow{row}); err != nil {
		h.failRegistration(c, err)
		return
	}

	studentCount := row.StudentCount()
	h.Metrics.Registrations.WithLabelValues(metrics.OutcomeCreated).Inc()
	h.Metrics.Students.Add(float64(studentCount))
	h.Logger.Info("Registration successful",
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.Int("projectId", projectID),
		zap.String("timestamp", timestamp),
		zap.Int("studentCount", studentCount))

	c.JSON(http.StatusCreated, models.RegistrationResponse{
		Success:   true,
		ProjectID: projectID,
		Timestamp: timestamp,
		Message:   "Registration successful",
	})
}

func (h *APIHandler) rejectRegistration(c *gin.Context, errs []models.FieldError) {
	h.Metrics.Registrations.WithLabelValues(metrics.OutcomeInvalid).Inc()
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "errors": errs})
}

func (h *APIHandler) failRegistration(c *gin.Context, err error) {
	h.Metrics.Registrations.WithLabelValues(metrics.OutcomeFailed).Inc()
	h.Logger.Error("Registration failed",
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": registrationFailedMessage})
}

// --- Lookups ---

// GetTeachers handles GET /api/teachers
func (h *APIHandler) GetTeachers(c *gin.Context) {
	teachers, err := h.Store.GetTeachers(c.Request.Context())
	if err != nil && !errors.Is(err, db.ErrUsingDefaults) {
		h.Logger.Error("Error fetching teachers", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch teachers list"})
		return
	}
	if teachers == nil {
		// Return empty list instead of null for JSON consistency
		teachers = []models.Teacher{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "teachers": teachers})
}

// GetMetadata handles GET /api/metadata
func (h *APIHandler) GetMetadata(c *gin.Context) {
	meta, err := h.Store.GetFairMetadata(c.Request.Context())
	if err != nil && !errors.Is(err, db.ErrUsingDefaults) {
		h.Logger.Error("Error fetching fair metadata", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch fair metadata"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":              true,
		"school":               meta.School,
		"contactEmail":         meta.ContactEmail,
		"registrationDeadline": meta.RegistrationDeadline,
		"scienceFairDate":      meta.ScienceFairDate,
	})
}

// --- Health ---

// Health handles GET /health
func (h *APIHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"timestamp":   h.Now().UTC().Format(timestampLayout),
		"environment": h.Config.Environment,
	})
}

// NotFound answers unknown routes with a JSON 404.
func (h *APIHandler) NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Endpoint not found"})
}
