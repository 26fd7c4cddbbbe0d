package plagiarism

import (
	"fmt"
	"strings"

	"github.com/RishiKendai/overlap/internal/models"
)

const (
	ReportTitle = "Plagiarism Detection Results"

	// NoSimilaritiesMessage replaces the table when no pair was scored.
	NoSimilaritiesMessage = "No similarities found between submissions."

	ReviewNote = "These scores are based on algorithmic comparison and should be reviewed manually."
)

// Tiers holds the inclusive lower bounds of the interpretation tiers
type Tiers struct {
	Significant float64
	Moderate    float64
}

func DefaultTiers() Tiers {
	return Tiers{
		Significant: 0.30,
		Moderate:    0.20,
	}
}

func (t Tiers) Validate() error {
	if t.Moderate < 0 || t.Significant > 1 {
		return fmt.Errorf("tier bounds must lie within [0, 1]")
	}
	if t.Moderate > t.Significant {
		return fmt.Errorf("moderate tier bound %.2f exceeds significant bound %.2f", t.Moderate, t.Significant)
	}
	return nil
}

// Classify maps a score to its interpretation tier
func (t Tiers) Classify(score float64) models.Tier {
	if score >= t.Significant {
		return models.TierSignificant
	} else if score >= t.Moderate {
		return models.TierModerate
	}
	return models.TierMinimal
}

// Guide describes the tiers for a reader of the report
func (t Tiers) Guide() []string {
	return []string{
		fmt.Sprintf("Scores of %s and above suggest significant similarity", percent(t.Significant)),
		fmt.Sprintf("Scores from %s up to %s indicate moderate similarity", percent(t.Moderate), percent(t.Significant)),
		fmt.Sprintf("Scores below %s suggest minimal or coincidental similarity", percent(t.Moderate)),
	}
}

type formatOptions struct {
	focus   *models.Focus
	skipped []string
}

type FormatOption func(*formatOptions)

// WithFocus adds a section describing the submission the reviewer selected
func WithFocus(doc models.Document) FormatOption {
	return func(o *formatOptions) {
		o.focus = &models.Focus{
			DocumentID:    doc.ID,
			OwnerName:     doc.OwnerName,
			ContentLength: len([]rune(doc.RawText)),
		}
	}
}

// WithSkipped lists documents left out because their content was unavailable
func WithSkipped(ids []string) FormatOption {
	return func(o *formatOptions) {
		o.skipped = append(o.skipped, ids...)
	}
}

// Format builds the report for one batch. It performs no I/O.
func Format(owners []string, scores []models.PairScore, tiers Tiers, opts ...FormatOption) *models.Report {
	var o formatOptions
	for _, opt := range opts {
		opt(&o)
	}

	report := &models.Report{
		Title:       ReportTitle,
		Submissions: append([]string{}, owners...),
		Focus:       o.focus,
		Rows:        make([]models.ReportRow, 0, len(scores)),
		Skipped:     append([]string{}, o.skipped...),
		Guide:       tiers.Guide(),
		Note:        ReviewNote,
	}

	for _, ps := range scores {
		report.Rows = append(report.Rows, models.ReportRow{
			DocumentIDA: ps.DocumentIDA,
			DocumentIDB: ps.DocumentIDB,
			OwnerA:      ps.OwnerA,
			OwnerB:      ps.OwnerB,
			Score:       ps.Score,
			Percentage:  percent(ps.Score),
			Tier:        tiers.Classify(ps.Score),
		})
	}

	if len(report.Rows) == 0 {
		report.Empty = true
		report.Message = NoSimilaritiesMessage
	}

	return report
}

// RenderText renders a report as markdown text
func RenderText(report *models.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", report.Title)

	if report.Focus != nil {
		b.WriteString("## Selected Submission\n")
		fmt.Fprintf(&b, "Student: %s\n", report.Focus.OwnerName)
		fmt.Fprintf(&b, "Content length: %d characters\n\n", report.Focus.ContentLength)
	}

	b.WriteString("## Similarity Scores\n\n")
	if report.Empty {
		fmt.Fprintf(&b, "%s\n", NoSimilaritiesMessage)
	} else {
		b.WriteString("| Student 1 | Student 2 | Similarity Score | Assessment |\n")
		b.WriteString("|-----------|-----------|------------------|------------|\n")
		for _, row := range report.Rows {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", row.OwnerA, row.OwnerB, row.Percentage, row.Tier)
		}
	}

	if len(report.Skipped) > 0 {
		b.WriteString("\n## Skipped Submissions\n\n")
		b.WriteString("The content of these submissions could not be loaded; the results above are partial.\n")
		for _, id := range report.Skipped {
			fmt.Fprintf(&b, "- %s\n", id)
		}
	}

	b.WriteString("\n## Interpretation Guide\n\n")
	for _, line := range report.Guide {
		fmt.Fprintf(&b, "- %s\n", line)
	}
	fmt.Fprintf(&b, "\nNote: %s\n", report.Note)

	return b.String()
}

func percent(score float64) string {
	return fmt.Sprintf("%.2f%%", score*100)
}
