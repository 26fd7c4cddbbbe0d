package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/RishiKendai/overlap/internal/models"
)

// SubmissionLister is the part of the submissions repository the store source needs
type SubmissionLister interface {
	GetSubmissionsByAssignmentID(ctx context.Context, assignmentID string) ([]*models.Submission, error)
	CountByAssignmentID(ctx context.Context, assignmentID string) (int64, error)
}

// StoreSource reads submissions from the portal's database. Content stored
// inline is used as is; otherwise the uploaded file is read from uploadsDir.
type StoreSource struct {
	lister     SubmissionLister
	uploadsDir string
}

func NewStoreSource(lister SubmissionLister, uploadsDir string) *StoreSource {
	return &StoreSource{
		lister:     lister,
		uploadsDir: uploadsDir,
	}
}

// HasSubmissions counts the assignment's submissions without reading their content
func (s *StoreSource) HasSubmissions(ctx context.Context, assignmentID string) (bool, error) {
	count, err := s.lister.CountByAssignmentID(ctx, assignmentID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *StoreSource) Documents(ctx context.Context, assignmentID string) ([]models.Document, error) {
	submissions, err := s.lister.GetSubmissionsByAssignmentID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	docs := make([]models.Document, 0, len(submissions))
	for _, sub := range submissions {
		doc := models.Document{
			ID:        sub.ID,
			OwnerName: sub.StudentName,
		}
		text, err := s.content(sub)
		if err != nil {
			doc.LoadErr = err
		} else {
			doc.RawText = text
		}
		docs = append(docs, doc)
	}

	return Dedupe(docs), nil
}

func (s *StoreSource) content(sub *models.Submission) (string, error) {
	if sub.Content != "" {
		return sub.Content, nil
	}
	if sub.Filepath == "" {
		return "", fmt.Errorf("%w: submission %s has no content", models.ErrInputUnavailable, sub.ID)
	}

	data, err := os.ReadFile(s.resolve(sub.Filepath))
	if err != nil {
		return "", fmt.Errorf("%w: failed to read file %s: %v", models.ErrInputUnavailable, sub.Filepath, err)
	}

	return decodeContent(sub.ID, data), nil
}

// resolve maps a stored path into the uploads directory. Absolute paths
// already inside it are kept; anything else is re-rooted under it.
func (s *StoreSource) resolve(stored string) string {
	if filepath.IsAbs(stored) {
		if root, err := filepath.Abs(s.uploadsDir); err == nil {
			rel, err := filepath.Rel(root, filepath.Clean(stored))
			if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
				return filepath.Join(root, rel)
			}
		}
	}
	return filepath.Join(s.uploadsDir, filepath.Clean(string(filepath.Separator)+stored))
}
