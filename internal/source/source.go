// Package source resolves an assignment's submissions into documents for comparison.
package source

import (
	"github.com/RishiKendai/overlap/internal/models"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// Dedupe keeps the first document for each id, preserving order
func Dedupe(docs []models.Document) []models.Document {
	seen := make(map[string]bool, len(docs))
	out := make([]models.Document, 0, len(docs))
	for _, doc := range docs {
		if seen[doc.ID] {
			continue
		}
		seen[doc.ID] = true
		out = append(out, doc)
	}
	return out
}

// decodeContent returns data as text, or "" when it is not a text format.
// Binary uploads (PDF, images, archives) are compared as empty documents.
func decodeContent(id string, data []byte) string {
	if len(data) == 0 {
		return ""
	}

	mtype := mimetype.Detect(data)
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return string(data)
		}
	}

	log.Debug().
		Str("documentId", id).
		Str("mime", mtype.String()).
		Msg("Non-text submission treated as empty")
	return ""
}
