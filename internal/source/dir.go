package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/RishiKendai/overlap/internal/models"
)

// DirSource reads submissions laid out as <root>/<assignmentId>/<file>, one file per student
type DirSource struct {
	root string
}

func NewDirSource(root string) *DirSource {
	return &DirSource{root: root}
}

// Documents returns the files of the assignment directory sorted by name.
// A missing directory yields no documents.
func (s *DirSource) Documents(ctx context.Context, assignmentID string) ([]models.Document, error) {
	if assignmentID == "" || strings.ContainsAny(assignmentID, `/\`) || assignmentID == ".." {
		return nil, fmt.Errorf("invalid assignment id %q", assignmentID)
	}

	paths, err := ListFiles(filepath.Join(s.root, assignmentID))
	if errors.Is(err, fs.ErrNotExist) {
		return []models.Document{}, nil
	}
	if err != nil {
		return nil, err
	}

	return ReadFiles(ctx, paths), nil
}

// ListFiles returns the regular, non-hidden files directly inside dir, sorted by name
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)

	return paths, nil
}

// ReadFiles loads each path as a document owned by the file's base name.
// Unreadable files are returned with LoadErr set.
func ReadFiles(ctx context.Context, paths []string) []models.Document {
	docs := make([]models.Document, 0, len(paths))
	for _, path := range paths {
		doc := models.Document{
			ID:        path,
			OwnerName: ownerFromPath(path),
		}

		if err := ctx.Err(); err != nil {
			doc.LoadErr = fmt.Errorf("%w: %v", models.ErrInputUnavailable, err)
			docs = append(docs, doc)
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			doc.LoadErr = fmt.Errorf("%w: failed to read file %s: %v", models.ErrInputUnavailable, path, err)
		} else {
			doc.RawText = decodeContent(path, data)
		}
		docs = append(docs, doc)
	}

	return Dedupe(docs)
}

func ownerFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
