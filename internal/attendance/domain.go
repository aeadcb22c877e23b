// Package attendance owns the submit/validate workflow for event attendance
// records.
package attendance

import (
	"io"
	"time"
)

// Status is the workflow state of one attendance record.
type Status string

// Workflow states. A record starts pending and moves to one of the other
// states when validated; a resubmission puts it back to the submitted status.
const (
	StatusPending  Status = "pending"
	StatusPresent  Status = "present"
	StatusAbsent   Status = "absent"
	StatusExcused  Status = "excused"
	StatusRejected Status = "rejected"
)

// SelfReportable reports whether an attendee may request the status on their
// own submission. Absent and rejected are validator-only outcomes.
func (s Status) SelfReportable() bool {
	return s == StatusPresent || s == StatusExcused
}

// ValidOutcome reports whether the status is a legal validation outcome.
func (s Status) ValidOutcome() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusExcused, StatusRejected:
		return true
	default:
		return false
	}
}

// Attendance represents one member's participation record for one event.
// Unique per (UserID, EventID).
type Attendance struct {
	ID              int64
	EventID         int64
	UserID          int64
	Status          Status
	ProofRefs       []string
	Notes           string
	RejectionReason string
	ValidatedAt     time.Time
	ValidatedByID   int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validated reports whether a validator has acted on the record.
func (a Attendance) Validated() bool {
	return !a.ValidatedAt.IsZero()
}

// Record is an attendance row joined with display fields for listings and
// exports.
type Record struct {
	Attendance
	UserName       string
	DepartmentName string
	ValidatorName  string
}

// ProofFile is one uploaded proof document.
type ProofFile struct {
	Name    string
	Content io.Reader
}

// SubmitInput carries one attendance submission.
type SubmitInput struct {
	EventID int64
	Status  Status
	Proofs  []ProofFile
	Notes   string
}
