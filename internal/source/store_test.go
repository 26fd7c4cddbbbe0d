package source

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RishiKendai/overlap/internal/models"
)

type fakeLister struct {
	subs []*models.Submission
	err  error
}

func (f *fakeLister) CountByAssignmentID(ctx context.Context, assignmentID string) (int64, error) {
	return int64(len(f.subs)), f.err
}

func (f *fakeLister) GetSubmissionsByAssignmentID(ctx context.Context, assignmentID string) ([]*models.Submission, error) {
	return f.subs, f.err
}

func TestStoreSource_Documents(t *testing.T) {
	uploads := t.TempDir()
	writeFile(t, filepath.Join(uploads, "hw1", "grace.txt"), "uploaded essay body")

	lister := &fakeLister{subs: []*models.Submission{
		{ID: "1", StudentName: "Ada", Content: "inline essay body"},
		{ID: "2", StudentName: "Grace", Filepath: "hw1/grace.txt"},
		{ID: "3", StudentName: "Linus", Filepath: "hw1/missing.txt"},
		{ID: "4", StudentName: "Ken"},
		{ID: "1", StudentName: "Ada duplicate", Content: "ignored"},
	}}

	docs, err := NewStoreSource(lister, uploads).Documents(context.Background(), "hw1")
	require.NoError(t, err)

	require.Len(t, docs, 4)
	assert.Equal(t, "inline essay body", docs[0].RawText)
	assert.Equal(t, "Ada", docs[0].OwnerName)
	assert.Equal(t, "uploaded essay body", docs[1].RawText)
	assert.True(t, errors.Is(docs[2].LoadErr, models.ErrInputUnavailable))
	assert.True(t, errors.Is(docs[3].LoadErr, models.ErrInputUnavailable))
}

func TestStoreSource_AbsolutePathInsideUploads(t *testing.T) {
	uploads := t.TempDir()
	stored := filepath.Join(uploads, "1700000000-essay.txt")
	writeFile(t, stored, "essay saved with its absolute path")

	lister := &fakeLister{subs: []*models.Submission{
		{ID: "1", StudentName: "Ada", Filepath: stored},
	}}

	docs, err := NewStoreSource(lister, uploads).Documents(context.Background(), "hw1")
	require.NoError(t, err)

	require.Len(t, docs, 1)
	require.NoError(t, docs[0].LoadErr)
	assert.Equal(t, "essay saved with its absolute path", docs[0].RawText)
}

func TestStoreSource_ListerError(t *testing.T) {
	_, err := NewStoreSource(&fakeLister{err: errors.New("db down")}, t.TempDir()).Documents(context.Background(), "hw1")
	assert.Error(t, err)
}

func TestStoreSource_ResolveStaysInUploads(t *testing.T) {
	s := NewStoreSource(nil, "/srv/uploads")
	assert.Equal(t, filepath.Join("/srv/uploads", "etc", "passwd"), s.resolve("../../etc/passwd"))
	assert.Equal(t, filepath.Join("/srv/uploads", "hw1", "a.txt"), s.resolve("hw1/a.txt"))
	assert.Equal(t, filepath.Join("/srv/uploads", "hw1", "a.txt"), s.resolve("/srv/uploads/hw1/a.txt"))
	assert.Equal(t, filepath.Join("/srv/uploads", "etc", "passwd"), s.resolve("/etc/passwd"))
	assert.Equal(t, filepath.Join("/srv/uploads", "srv", "uploads-other", "x"), s.resolve("/srv/uploads-other/x"))
}

func TestStoreSource_HasSubmissions(t *testing.T) {
	ok, err := NewStoreSource(&fakeLister{subs: []*models.Submission{{ID: "1"}}}, "").HasSubmissions(context.Background(), "hw1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = NewStoreSource(&fakeLister{}, "").HasSubmissions(context.Background(), "hw404")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = NewStoreSource(&fakeLister{err: errors.New("db down")}, "").HasSubmissions(context.Background(), "hw1")
	assert.Error(t, err)
}
