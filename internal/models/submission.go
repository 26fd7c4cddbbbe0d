package models

import (
	"time"
)

// Submission is a student's upload for an assignment as kept by the portal's submission store
type Submission struct {
	ID           string    `bson:"id" json:"id"`
	AssignmentID string    `bson:"assignmentId" json:"assignmentId"`
	StudentID    string    `bson:"studentId" json:"studentId"`
	StudentName  string    `bson:"studentName" json:"studentName"`
	Filename     string    `bson:"filename" json:"filename"`
	Filepath     string    `bson:"filepath" json:"filepath"`
	Content      string    `bson:"content,omitempty" json:"content,omitempty"`
	SubmittedAt  time.Time `bson:"submittedAt" json:"submittedAt"`
}

// Document is one submission's text, resolved and ready for comparison
type Document struct {
	ID        string `json:"id"`
	OwnerName string `json:"ownerName"`
	RawText   string `json:"text"`

	// LoadErr is set when the content could not be obtained.
	LoadErr error `json:"-"`
}

// Available reports whether the document's content was loaded
func (d Document) Available() bool {
	return d.LoadErr == nil
}

// CompareJob is a compare request read from the Redis stream
type CompareJob struct {
	AssignmentID string `json:"assignmentId"`
	RequestedBy  string `json:"requestedBy"`
}
