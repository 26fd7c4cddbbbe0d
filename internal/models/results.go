package models

import (
	"time"
)

type Step string

const (
	StepIdle      Step = "idle"
	StepInitiated Step = "initiated"
	StepStarted   Step = "started"
	StepLoading   Step = "loading"
	StepComparing Step = "comparing"
	StepCompleted Step = "completed"
	StepFailed    Step = "failed"
)

type Tier string

const (
	TierSignificant Tier = "significant similarity"
	TierModerate    Tier = "moderate similarity"
	TierMinimal     Tier = "minimal/coincidental similarity"
)

// PairScore is the similarity of one unordered pair of documents
type PairScore struct {
	DocumentIDA string  `bson:"documentIdA" json:"documentIdA"`
	DocumentIDB string  `bson:"documentIdB" json:"documentIdB"`
	OwnerA      string  `bson:"ownerA" json:"ownerA"`
	OwnerB      string  `bson:"ownerB" json:"ownerB"`
	Score       float64 `bson:"score" json:"score"`
}

// ReportRow is one rendered line of the similarity table
type ReportRow struct {
	DocumentIDA string  `bson:"documentIdA" json:"documentIdA"`
	DocumentIDB string  `bson:"documentIdB" json:"documentIdB"`
	OwnerA      string  `bson:"ownerA" json:"ownerA"`
	OwnerB      string  `bson:"ownerB" json:"ownerB"`
	Score       float64 `bson:"score" json:"score"`
	Percentage  string  `bson:"percentage" json:"percentage"`
	Tier        Tier    `bson:"tier" json:"tier"`
}

// Focus describes the submission a reviewer asked about
type Focus struct {
	DocumentID    string `bson:"documentId" json:"documentId"`
	OwnerName     string `bson:"ownerName" json:"ownerName"`
	ContentLength int    `bson:"contentLength" json:"contentLength"`
}

// Report is the reviewer-facing result of one comparison batch
type Report struct {
	Title       string      `bson:"title" json:"title"`
	Submissions []string    `bson:"submissions" json:"submissions"`
	Focus       *Focus      `bson:"focus,omitempty" json:"focus,omitempty"`
	Rows        []ReportRow `bson:"rows" json:"rows"`
	Empty       bool        `bson:"empty" json:"empty"`
	Message     string      `bson:"message,omitempty" json:"message,omitempty"`
	Skipped     []string    `bson:"skipped" json:"skipped"`
	Guide       []string    `bson:"guide" json:"guide"`
	Note        string      `bson:"note" json:"note"`
}

// SimilarityReport is a persisted comparison run for an assignment
type SimilarityReport struct {
	RunID         string    `bson:"runId" json:"runId"`
	AssignmentID  string    `bson:"assignmentId" json:"assignmentId"`
	RequestedBy   string    `bson:"requestedBy,omitempty" json:"requestedBy,omitempty"`
	Status        string    `bson:"status" json:"status"` // pending, completed, failed
	Error         string    `bson:"error,omitempty" json:"error,omitempty"`
	Report        *Report   `bson:"report,omitempty" json:"report,omitempty"`
	TotalAnalyzed int       `bson:"total_analyzed" json:"total_analyzed"`
	FlaggedPairs  int       `bson:"flagged_pairs" json:"flagged_pairs"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	CompletedAt   time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

const (
	ReportStatusPending   = "pending"
	ReportStatusCompleted = "completed"
	ReportStatusFailed    = "failed"
)

// ComputeRequest represents a request to compare an assignment's submissions
type ComputeRequest struct {
	AssignmentID string `json:"assignmentId" binding:"required"`
}

// ComputeResponse represents the response from compute endpoint
type ComputeResponse struct {
	Step         Step   `json:"step"`
	AssignmentID string `json:"assignmentId"`
}

// InlineDocument is a document posted directly to the inline compare endpoint
type InlineDocument struct {
	ID        string `json:"id" binding:"required"`
	OwnerName string `json:"ownerName"`
	Text      string `json:"text"`
}

// InlineCompareRequest compares documents supplied in the request body
type InlineCompareRequest struct {
	Documents []InlineDocument `json:"documents" binding:"required"`
	FocusID   string           `json:"focusId"`
}

// StatusResponse reports the current step of an assignment's run
type StatusResponse struct {
	AssignmentID string `json:"assignmentId"`
	Step         Step   `json:"step"`
}
