package model

import (
	"time"
)

// PendingApproval links an undecided Submission to the message used to vote
// on it. The row's existence is what makes a submission "open": deleting it
// is the linearization point for approve, reject and expiry.
type PendingApproval struct {
	SubmissionID int64     `gorm:"column:submission_id;primaryKey;autoIncrement:false"`
	MessageID    string    `gorm:"column:message_id;uniqueIndex;not null"`
	Date         time.Time `gorm:"column:date;not null"`

	Submission *Submission `gorm:"foreignKey:SubmissionID;references:SubmissionID"`
}

func (PendingApproval) TableName() string {
	return "pending_approvals"
}

// Deadline is the wall-clock instant this approval expires.
func (p *PendingApproval) Deadline(ttl time.Duration) time.Time {
	return p.Date.Add(ttl)
}

// ApprovalSelector picks a pending approval either by submission id or by
// the id of the message displaying it.
type ApprovalSelector struct {
	submissionID int64
	messageID    string
}

func ApprovalBySubmission(id int64) ApprovalSelector {
	return ApprovalSelector{submissionID: id}
}

func ApprovalByMessage(messageID string) ApprovalSelector {
	return ApprovalSelector{messageID: messageID}
}

// Condition returns the WHERE fragment and argument for this selector.
func (sel ApprovalSelector) Condition() (string, any) {
	if sel.messageID != "" {
		return "message_id = ?", sel.messageID
	}
	return "submission_id = ?", sel.submissionID
}

// MessageID returns the message id this selector carries, if any.
func (sel ApprovalSelector) MessageID() (string, bool) {
	return sel.messageID, sel.messageID != ""
}

// SubmissionID returns the submission id this selector carries, if any.
func (sel ApprovalSelector) SubmissionID() (int64, bool) {
	return sel.submissionID, sel.messageID == ""
}
