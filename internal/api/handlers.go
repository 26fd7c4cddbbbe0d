package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/RishiKendai/overlap/internal/config"
	"github.com/RishiKendai/overlap/internal/models"
	"github.com/RishiKendai/overlap/internal/plagiarism"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// maxInlineDocuments bounds the synchronous endpoint; all-pairs cost grows quadratically.
const maxInlineDocuments = 200

// Runner executes a comparison batch for an assignment
type Runner interface {
	Run(ctx context.Context, assignmentID, requestedBy string) (*models.SimilarityReport, error)
}

type ReportReader interface {
	GetLatestReport(ctx context.Context, assignmentID string) (*models.SimilarityReport, error)
}

type StatusStore interface {
	UpdateStatus(ctx context.Context, assignmentID string, step models.Step) error
	GetStatus(ctx context.Context, assignmentID string) (models.Step, error)
}

// Handler holds dependencies for handlers
type Handler struct {
	runner         Runner
	comparator     *plagiarism.Comparator
	tiers          plagiarism.Tiers
	reports        ReportReader
	status         StatusStore
	computeSem     chan struct{} // Semaphore for bounded concurrency
	computeTimeout time.Duration
}

// NewHandler creates a new handler
func NewHandler(
	cfg *config.Config,
	runner Runner,
	comparator *plagiarism.Comparator,
	reports ReportReader,
	status StatusStore,
) *Handler {
	return &Handler{
		runner:         runner,
		comparator:     comparator,
		tiers:          cfg.Tiers(),
		reports:        reports,
		status:         status,
		computeSem:     make(chan struct{}, cfg.MaxConcurrentCompute),
		computeTimeout: cfg.ComputationTimeout,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

// Compute starts an asynchronous comparison of an assignment's submissions
func (h *Handler) Compute(c *gin.Context) {
	var req models.ComputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	req.AssignmentID = strings.TrimSpace(req.AssignmentID)
	if req.AssignmentID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "assignmentId is required",
			Code:  "INVALID_ASSIGNMENT_ID",
		})
		return
	}

	ctx := c.Request.Context()

	// Acquire semaphore (bounded concurrency)
	select {
	case h.computeSem <- struct{}{}:
	case <-ctx.Done():
		c.JSON(http.StatusRequestTimeout, ErrorResponse{
			Error: "Request cancelled",
			Code:  "REQUEST_TIMEOUT",
		})
		return
	}

	if err := h.status.UpdateStatus(ctx, req.AssignmentID, models.StepInitiated); err != nil {
		log.Warn().Err(err).Str("assignmentId", req.AssignmentID).Msg("Failed to update initiated status")
	}

	c.JSON(http.StatusAccepted, models.ComputeResponse{
		Step:         models.StepInitiated,
		AssignmentID: req.AssignmentID,
	})

	go h.processComputation(req.AssignmentID, callerID(c))
}

// processComputation runs the batch detached from the request
func (h *Handler) processComputation(assignmentID, requestedBy string) {
	defer func() { <-h.computeSem }() // Release semaphore

	ctx, cancel := context.WithTimeout(context.Background(), h.computeTimeout)
	defer cancel()

	if _, err := h.runner.Run(ctx, assignmentID, requestedBy); err != nil {
		log.Error().Err(err).Str("assignmentId", assignmentID).Msg("Computation failed")
		return
	}

	log.Debug().Str("assignmentId", assignmentID).Msg("Computation completed successfully")
}

// CompareInline compares documents posted in the body and returns the report without storing it
func (h *Handler) CompareInline(c *gin.Context) {
	var req models.InlineCompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	if err := validateInlineDocuments(req.Documents); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_DOCUMENTS",
		})
		return
	}

	docs := make([]models.Document, 0, len(req.Documents))
	for _, d := range req.Documents {
		docs = append(docs, models.Document{
			ID:        d.ID,
			OwnerName: d.OwnerName,
			RawText:   d.Text,
		})
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.computeTimeout)
	defer cancel()

	report, _, err := plagiarism.BuildReport(ctx, h.comparator, docs, h.tiers, req.FocusID)
	if err != nil {
		log.Error().Err(err).Int("documents", len(docs)).Msg("Inline comparison failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to compare documents",
			Code:  "INTERNAL_ERROR",
		})
		return
	}

	respondReport(c, report)
}

// GetReport returns the latest stored report of an assignment
func (h *Handler) GetReport(c *gin.Context) {
	assignmentID := c.Param("assignmentId")

	latest, err := h.reports.GetLatestReport(c.Request.Context(), assignmentID)
	if err != nil {
		log.Error().Err(err).Str("assignmentId", assignmentID).Msg("Failed to get latest report")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to load report",
			Code:  "INTERNAL_ERROR",
		})
		return
	}

	if latest == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "No report found for assignmentId",
			Code:  "REPORT_NOT_FOUND",
		})
		return
	}

	if c.Query("format") == "text" && latest.Report != nil {
		c.String(http.StatusOK, plagiarism.RenderText(latest.Report))
		return
	}

	c.JSON(http.StatusOK, latest)
}

// GetStatus returns the current step of the assignment's latest run
func (h *Handler) GetStatus(c *gin.Context) {
	assignmentID := c.Param("assignmentId")

	step, err := h.status.GetStatus(c.Request.Context(), assignmentID)
	if err != nil {
		log.Error().Err(err).Str("assignmentId", assignmentID).Msg("Failed to get status")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to load status",
			Code:  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, models.StatusResponse{
		AssignmentID: assignmentID,
		Step:         step,
	})
}

func respondReport(c *gin.Context, report *models.Report) {
	if c.Query("format") == "text" {
		c.String(http.StatusOK, plagiarism.RenderText(report))
		return
	}
	c.JSON(http.StatusOK, report)
}

func validateInlineDocuments(docs []models.InlineDocument) error {
	if len(docs) > maxInlineDocuments {
		return fmt.Errorf("at most %d documents can be compared inline", maxInlineDocuments)
	}
	for i, d := range docs {
		if strings.TrimSpace(d.ID) == "" {
			return fmt.Errorf("documents[%d].id is required", i)
		}
	}
	return nil
}

// callerID is the authenticated subject, passed explicitly down to the run
func callerID(c *gin.Context) string {
	if subject, ok := c.Get(contextKeySubject); ok {
		if s, ok := subject.(string); ok {
			return s
		}
	}
	return ""
}
