package model

import (
	"time"
)

// Decision is the terminal outcome recorded on a submission. A submission
// with no decision is still pending (or was expired without one).
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// Submission is a user-proposed content item. Rows are created by the submit
// flow, mutated exactly once when a moderator decides, and never deleted.
type Submission struct {
	SubmissionID int64  `gorm:"column:submission_id;primaryKey;autoIncrement"`
	UserID       string `gorm:"column:user_id;not null"`

	Artist                string  `gorm:"column:artist;not null"`
	ArtLink               string  `gorm:"column:art_link;not null"`
	AdditionalInformation *string `gorm:"column:additional_information"`

	SampleImageURL *string `gorm:"column:sample_image_url"`

	Decision *Decision `gorm:"column:decision"`

	SubmissionDate         time.Time  `gorm:"column:submission_date;not null"`
	SubmissionDecisionDate *time.Time `gorm:"column:submission_decision_date"`
}

func (Submission) TableName() string {
	return "submissions"
}

// Decided reports whether a terminal decision has been recorded.
func (s *Submission) Decided() bool {
	return s.Decision != nil
}

// AddSubmission carries the fields of a new submission into the store.
type AddSubmission struct {
	UserID                string
	Artist                string
	ArtLink               string
	AdditionalInformation *string
	SampleImageURL        *string
}

// SubmissionSelector picks the single open submission to decide on, either
// by its id or by the submitting user's id.
type SubmissionSelector struct {
	submissionID int64
	userID       string
}

func BySubmissionID(id int64) SubmissionSelector {
	return SubmissionSelector{submissionID: id}
}

func BySubmitter(userID string) SubmissionSelector {
	return SubmissionSelector{userID: userID}
}

// Condition returns the WHERE fragment and argument for this selector.
func (sel SubmissionSelector) Condition() (string, any) {
	if sel.userID != "" {
		return "user_id = ?", sel.userID
	}
	return "submission_id = ?", sel.submissionID
}
