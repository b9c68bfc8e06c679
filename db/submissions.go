package db

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/catuhana/YuriEveryHour-bot/model"
)

// AddSubmission inserts a new submission with no decision and returns the
// stored row. The handle may be a transaction so the insert commits together
// with its pending approval.
func AddSubmission(tx *gorm.DB, add model.AddSubmission) (*model.Submission, error) {
	submission := model.Submission{
		UserID:                add.UserID,
		Artist:                add.Artist,
		ArtLink:               add.ArtLink,
		AdditionalInformation: add.AdditionalInformation,
		SampleImageURL:        add.SampleImageURL,
		SubmissionDate:        time.Now().UTC(),
	}

	if err := tx.Create(&submission).Error; err != nil {
		return nil, fmt.Errorf("inserting submission: %w", err)
	}
	return &submission, nil
}

// ApproveSubmission records an approved decision on the open submission
// matching the selector and returns the updated row.
func ApproveSubmission(tx *gorm.DB, sel model.SubmissionSelector) (*model.Submission, error) {
	return decideSubmission(tx, sel, model.DecisionApproved)
}

// RejectSubmission records a rejected decision on the open submission
// matching the selector and returns the updated row.
func RejectSubmission(tx *gorm.DB, sel model.SubmissionSelector) (*model.Submission, error) {
	return decideSubmission(tx, sel, model.DecisionRejected)
}

// decideSubmission sets decision and submission_decision_date in one UPDATE
// guarded by `decision IS NULL`, so both columns flip from absent to present
// together and a decided row can never be decided twice.
func decideSubmission(tx *gorm.DB, sel model.SubmissionSelector, decision model.Decision) (*model.Submission, error) {
	cond, arg := sel.Condition()
	now := time.Now().UTC()

	res := tx.Model(&model.Submission{}).
		Where(cond, arg).
		Where("decision IS NULL").
		Updates(map[string]any{
			"decision":                 decision,
			"submission_decision_date": now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("updating submission decision: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&model.Submission{}).Where(cond, arg).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("checking submission existence: %w", err)
		}
		if count == 0 {
			return nil, model.ErrNotFound
		}
		return nil, model.ErrAlreadyDecided
	}

	var decided model.Submission
	if err := tx.Where(cond, arg).Where("decision = ?", decision).
		Order("submission_decision_date DESC").First(&decided).Error; err != nil {
		return nil, fmt.Errorf("reloading decided submission: %w", err)
	}
	return &decided, nil
}

// GetSubmission fetches a submission by id.
func GetSubmission(tx *gorm.DB, submissionID int64) (*model.Submission, error) {
	var submission model.Submission
	err := tx.Where("submission_id = ?", submissionID).First(&submission).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching submission: %w", err)
	}
	return &submission, nil
}
