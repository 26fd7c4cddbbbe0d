package plagiarism

import (
	"context"
	"fmt"
	"time"

	"github.com/RishiKendai/overlap/internal/metrics"
	"github.com/RishiKendai/overlap/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DocumentSource resolves the submissions of an assignment into documents, in a stable order
type DocumentSource interface {
	Documents(ctx context.Context, assignmentID string) ([]models.Document, error)
}

// SubmissionChecker is implemented by sources that can tell without loading
// content whether an assignment has any submissions
type SubmissionChecker interface {
	HasSubmissions(ctx context.Context, assignmentID string) (bool, error)
}

type ReportStore interface {
	InsertReport(ctx context.Context, report *models.SimilarityReport) error
	UpdateReport(ctx context.Context, report *models.SimilarityReport) error
}

type StatusUpdater interface {
	UpdateStatus(ctx context.Context, assignmentID string, step models.Step) error
}

// BuildReport compares docs and formats the ranked result.
// focusID, when it names one of docs, adds the selected-submission section.
func BuildReport(ctx context.Context, comparator *Comparator, docs []models.Document, tiers Tiers, focusID string) (*models.Report, *BatchResult, error) {
	batch, err := comparator.CompareBatch(ctx, docs)
	if err != nil {
		return nil, nil, err
	}

	opts := []FormatOption{WithSkipped(batch.Skipped)}
	seen := make(map[string]bool, len(docs))
	owners := make([]string, 0, len(docs))
	for _, doc := range docs {
		if seen[doc.ID] {
			continue
		}
		seen[doc.ID] = true
		// Skipped documents are listed separately, not as compared submissions.
		if !doc.Available() {
			continue
		}
		owners = append(owners, doc.OwnerName)
		if focusID != "" && doc.ID == focusID {
			opts = append(opts, WithFocus(doc))
		}
	}

	return Format(owners, batch.Scores, tiers, opts...), batch, nil
}

// Service runs comparison batches for assignments and persists their reports
type Service struct {
	source     DocumentSource
	comparator *Comparator
	reports    ReportStore
	status     StatusUpdater
	tiers      Tiers
}

func NewService(source DocumentSource, comparator *Comparator, reports ReportStore, status StatusUpdater, tiers Tiers) *Service {
	return &Service{
		source:     source,
		comparator: comparator,
		reports:    reports,
		status:     status,
		tiers:      tiers,
	}
}

func (s *Service) Tiers() Tiers {
	return s.tiers
}

func (s *Service) Comparator() *Comparator {
	return s.comparator
}

// Run loads every submission of assignmentID, compares them pairwise and
// stores the report. A fresh batch is built on every call.
func (s *Service) Run(ctx context.Context, assignmentID, requestedBy string) (*models.SimilarityReport, error) {
	start := time.Now()
	defer func() {
		metrics.BatchDuration.Observe(time.Since(start).Seconds())
	}()

	// Unknown assignments are rejected before a pending report is stored.
	if checker, ok := s.source.(SubmissionChecker); ok {
		exists, err := checker.HasSubmissions(ctx, assignmentID)
		if err == nil && !exists {
			metrics.BatchCount.WithLabelValues("failed").Inc()
			s.updateStatus(ctx, assignmentID, models.StepFailed)
			return nil, fmt.Errorf("%w: %s", models.ErrAssignmentNotFound, assignmentID)
		}
		if err != nil {
			log.Warn().Err(err).Str("assignmentId", assignmentID).Msg("Failed to count submissions, loading them anyway")
		}
	}

	record := &models.SimilarityReport{
		RunID:        uuid.New().String(),
		AssignmentID: assignmentID,
		RequestedBy:  requestedBy,
		Status:       models.ReportStatusPending,
	}

	if err := s.reports.InsertReport(ctx, record); err != nil {
		metrics.BatchCount.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to create pending report: %w", err)
	}

	s.updateStatus(ctx, assignmentID, models.StepStarted)

	report, err := s.run(ctx, record)
	if err != nil {
		metrics.BatchCount.WithLabelValues("failed").Inc()
		s.fail(ctx, record, err)
		return nil, err
	}

	metrics.BatchCount.WithLabelValues("completed").Inc()
	s.updateStatus(ctx, assignmentID, models.StepCompleted)

	log.Info().
		Str("assignmentId", assignmentID).
		Str("runId", record.RunID).
		Int("analyzed", report.TotalAnalyzed).
		Int("flagged", report.FlaggedPairs).
		Dur("took", time.Since(start)).
		Msg("Comparison completed successfully")

	return report, nil
}

func (s *Service) run(ctx context.Context, record *models.SimilarityReport) (*models.SimilarityReport, error) {
	s.updateStatus(ctx, record.AssignmentID, models.StepLoading)

	docs, err := s.source.Documents(ctx, record.AssignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load submissions: %w", err)
	}

	// Edge Case: unknown assignment
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %s", models.ErrAssignmentNotFound, record.AssignmentID)
	}

	s.updateStatus(ctx, record.AssignmentID, models.StepComparing)

	report, batch, err := BuildReport(ctx, s.comparator, docs, s.tiers, "")
	if err != nil {
		return nil, fmt.Errorf("failed to compare submissions: %w", err)
	}

	metrics.PairsCompared.Add(float64(len(batch.Scores)))
	metrics.DocumentsSkipped.Add(float64(len(batch.Skipped)))

	if len(batch.Skipped) > 0 {
		log.Warn().
			Str("assignmentId", record.AssignmentID).
			Strs("skipped", batch.Skipped).
			Msg("Partial result: some submissions could not be loaded")
	}

	flagged := 0
	for _, row := range report.Rows {
		if row.Tier == models.TierSignificant {
			flagged++
		}
	}

	record.Status = models.ReportStatusCompleted
	record.Report = report
	record.TotalAnalyzed = batch.Compared
	record.FlaggedPairs = flagged
	record.CompletedAt = time.Now()

	if err := s.reports.UpdateReport(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store report: %w", err)
	}

	return record, nil
}

func (s *Service) fail(ctx context.Context, record *models.SimilarityReport, cause error) {
	log.Error().Err(cause).Str("assignmentId", record.AssignmentID).Str("runId", record.RunID).Msg("Comparison failed")

	// The run context may already be expired; record the failure regardless.
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	record.Status = models.ReportStatusFailed
	record.Error = cause.Error()
	record.CompletedAt = time.Now()
	if err := s.reports.UpdateReport(storeCtx, record); err != nil {
		log.Error().Err(err).Str("assignmentId", record.AssignmentID).Msg("Failed to update failed report")
	}
	s.updateStatus(storeCtx, record.AssignmentID, models.StepFailed)
}

func (s *Service) updateStatus(ctx context.Context, assignmentID string, step models.Step) {
	if s.status == nil {
		return
	}
	if err := s.status.UpdateStatus(ctx, assignmentID, step); err != nil {
		log.Warn().Err(err).Str("assignmentId", assignmentID).Str("step", string(step)).Msg("Failed to update status")
	}
}
