package plagiarism

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RishiKendai/overlap/internal/models"
)

type fakeSource struct {
	docs []models.Document
	err  error
}

func (f *fakeSource) Documents(ctx context.Context, assignmentID string) ([]models.Document, error) {
	return f.docs, f.err
}

type fakeReports struct {
	mu       sync.Mutex
	inserted []models.SimilarityReport
	updated  []models.SimilarityReport
	err      error
}

func (f *fakeReports) InsertReport(ctx context.Context, r *models.SimilarityReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted = append(f.inserted, *r)
	return nil
}

func (f *fakeReports) UpdateReport(ctx context.Context, r *models.SimilarityReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, *r)
	return f.err
}

type fakeStatus struct {
	mu    sync.Mutex
	steps []models.Step
}

func (f *fakeStatus) UpdateStatus(ctx context.Context, assignmentID string, step models.Step) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps = append(f.steps, step)
	return nil
}

type countingSource struct {
	fakeSource
	count    int
	countErr error
}

func (f *countingSource) HasSubmissions(ctx context.Context, assignmentID string) (bool, error) {
	return f.count > 0, f.countErr
}

func TestBuildReport(t *testing.T) {
	docs := []models.Document{
		{ID: "1", OwnerName: "Ada", RawText: "alpha bravo charlie delta"},
		{ID: "2", OwnerName: "Grace", RawText: "alpha bravo charlie delta"},
		{ID: "1", OwnerName: "Ada again", RawText: "ignored duplicate"},
	}

	report, batch, err := BuildReport(context.Background(), NewComparator(DefaultOptions(), nil), docs, DefaultTiers(), "2")
	require.NoError(t, err)

	assert.Equal(t, []string{"Ada", "Grace"}, report.Submissions)
	require.NotNil(t, report.Focus)
	assert.Equal(t, "Grace", report.Focus.OwnerName)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, "100.00%", report.Rows[0].Percentage)
	assert.Equal(t, 2, batch.Compared)
}

func TestBuildReport_SkippedOwnersNotListed(t *testing.T) {
	docs := []models.Document{
		{ID: "1", OwnerName: "Ada", RawText: "alpha bravo charlie delta"},
		{ID: "2", OwnerName: "Grace", LoadErr: fmt.Errorf("%w: gone", models.ErrInputUnavailable)},
		{ID: "3", OwnerName: "Linus", RawText: "alpha bravo charlie delta"},
	}

	report, _, err := BuildReport(context.Background(), NewComparator(DefaultOptions(), nil), docs, DefaultTiers(), "2")
	require.NoError(t, err)

	assert.Equal(t, []string{"Ada", "Linus"}, report.Submissions)
	assert.Equal(t, []string{"2"}, report.Skipped)
	assert.Nil(t, report.Focus)
}

func TestBuildReport_UnknownFocus(t *testing.T) {
	report, _, err := BuildReport(context.Background(), NewComparator(DefaultOptions(), nil), nil, DefaultTiers(), "missing")
	require.NoError(t, err)
	assert.Nil(t, report.Focus)
	assert.True(t, report.Empty)
}

func TestService_Run(t *testing.T) {
	src := &fakeSource{docs: []models.Document{
		{ID: "1", OwnerName: "Ada", RawText: "alpha bravo charlie delta echo"},
		{ID: "2", OwnerName: "Grace", RawText: "alpha bravo charlie delta echo"},
		{ID: "3", OwnerName: "Linus", RawText: "zulu yankee xray whiskey"},
	}}
	reports := &fakeReports{}
	status := &fakeStatus{}
	svc := NewService(src, NewComparator(DefaultOptions(), nil), reports, status, DefaultTiers())

	result, err := svc.Run(context.Background(), "hw1", "teacher-7")
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "hw1", result.AssignmentID)
	assert.Equal(t, "teacher-7", result.RequestedBy)
	assert.Equal(t, models.ReportStatusCompleted, result.Status)
	assert.Equal(t, 3, result.TotalAnalyzed)
	assert.Equal(t, 1, result.FlaggedPairs)
	require.NotNil(t, result.Report)
	assert.Len(t, result.Report.Rows, 3)
	assert.False(t, result.CompletedAt.IsZero())

	require.Len(t, reports.inserted, 1)
	assert.Equal(t, models.ReportStatusPending, reports.inserted[0].Status)
	require.Len(t, reports.updated, 1)
	assert.Equal(t, reports.inserted[0].RunID, reports.updated[0].RunID)

	assert.Equal(t, []models.Step{
		models.StepStarted,
		models.StepLoading,
		models.StepComparing,
		models.StepCompleted,
	}, status.steps)
}

func TestService_Run_UnknownAssignment(t *testing.T) {
	reports := &fakeReports{}
	status := &fakeStatus{}
	svc := NewService(&fakeSource{}, NewComparator(DefaultOptions(), nil), reports, status, DefaultTiers())

	_, err := svc.Run(context.Background(), "missing", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrAssignmentNotFound))

	require.Len(t, reports.updated, 1)
	assert.Equal(t, models.ReportStatusFailed, reports.updated[0].Status)
	assert.NotEmpty(t, reports.updated[0].Error)
	assert.Equal(t, models.StepFailed, status.steps[len(status.steps)-1])
}

func TestService_Run_SourceError(t *testing.T) {
	src := &fakeSource{err: fmt.Errorf("connection refused")}
	reports := &fakeReports{}
	svc := NewService(src, NewComparator(DefaultOptions(), nil), reports, nil, DefaultTiers())

	_, err := svc.Run(context.Background(), "hw1", "")
	require.Error(t, err)
	assert.False(t, errors.Is(err, models.ErrAssignmentNotFound))
	require.Len(t, reports.updated, 1)
	assert.Equal(t, models.ReportStatusFailed, reports.updated[0].Status)
}

func TestService_Run_SingleSubmission(t *testing.T) {
	src := &fakeSource{docs: []models.Document{{ID: "1", OwnerName: "Ada", RawText: "alone"}}}
	svc := NewService(src, NewComparator(DefaultOptions(), nil), &fakeReports{}, nil, DefaultTiers())

	result, err := svc.Run(context.Background(), "hw1", "")
	require.NoError(t, err)
	assert.True(t, result.Report.Empty)
	assert.Equal(t, NoSimilaritiesMessage, result.Report.Message)
}

func TestService_Run_FreshBatchEachCall(t *testing.T) {
	src := &fakeSource{docs: []models.Document{
		{ID: "1", OwnerName: "Ada", RawText: "alpha bravo charlie delta"},
		{ID: "2", OwnerName: "Grace", RawText: "alpha bravo charlie delta"},
	}}
	reports := &fakeReports{}
	svc := NewService(src, NewComparator(DefaultOptions(), nil), reports, nil, DefaultTiers())

	first, err := svc.Run(context.Background(), "hw1", "")
	require.NoError(t, err)
	second, err := svc.Run(context.Background(), "hw1", "")
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Report.Rows, second.Report.Rows)
	assert.Len(t, reports.inserted, 2)
}

func TestService_Run_UnknownAssignmentRejectedBeforeInsert(t *testing.T) {
	reports := &fakeReports{}
	status := &fakeStatus{}
	svc := NewService(&countingSource{}, NewComparator(DefaultOptions(), nil), reports, status, DefaultTiers())

	_, err := svc.Run(context.Background(), "hw404", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrAssignmentNotFound))
	assert.Empty(t, reports.inserted)
	assert.Equal(t, []models.Step{models.StepFailed}, status.steps)
}

func TestService_Run_CountErrorFallsBackToLoading(t *testing.T) {
	src := &countingSource{
		fakeSource: fakeSource{docs: []models.Document{
			{ID: "1", OwnerName: "Ada", RawText: "alpha bravo charlie delta"},
			{ID: "2", OwnerName: "Grace", RawText: "alpha bravo charlie delta"},
		}},
		countErr: errors.New("count timed out"),
	}
	reports := &fakeReports{}
	svc := NewService(src, NewComparator(DefaultOptions(), nil), reports, nil, DefaultTiers())

	result, err := svc.Run(context.Background(), "hw1", "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.FlaggedPairs)
	assert.Len(t, reports.inserted, 1)
}
