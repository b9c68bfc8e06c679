package db

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/catuhana/YuriEveryHour-bot/model"
)

// AddPendingApproval inserts the open-approval row for a submission.
func AddPendingApproval(tx *gorm.DB, submissionID int64, messageID string) (*model.PendingApproval, error) {
	approval := model.PendingApproval{
		SubmissionID: submissionID,
		MessageID:    messageID,
		Date:         time.Now().UTC(),
	}

	err := tx.Create(&approval).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, model.ErrDuplicateApproval
	}
	if err != nil {
		return nil, fmt.Errorf("inserting pending approval: %w", err)
	}
	return &approval, nil
}

// RemovePendingApproval deletes the matching row and returns it. The DELETE's
// affected-row count is the tie-break between racing transitions: the first
// caller to commit a removal wins, every later caller gets ErrNotFound.
func RemovePendingApproval(tx *gorm.DB, sel model.ApprovalSelector) (*model.PendingApproval, error) {
	cond, arg := sel.Condition()

	var approval model.PendingApproval
	err := tx.Where(cond, arg).First(&approval).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching pending approval: %w", err)
	}

	res := tx.Where(cond, arg).Delete(&model.PendingApproval{})
	if res.Error != nil {
		return nil, fmt.Errorf("deleting pending approval: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// A concurrent transition committed between the read and the delete.
		return nil, model.ErrNotFound
	}
	return &approval, nil
}

// ListPendingApprovals returns every open approval, oldest first.
func ListPendingApprovals(tx *gorm.DB) ([]model.PendingApproval, error) {
	var approvals []model.PendingApproval
	if err := tx.Order("date ASC").Find(&approvals).Error; err != nil {
		return nil, fmt.Errorf("listing pending approvals: %w", err)
	}
	return approvals, nil
}

// DeleteExpiredApprovals removes every approval created before the cutoff
// and returns the removed rows.
func DeleteExpiredApprovals(tx *gorm.DB, cutoff time.Time) ([]model.PendingApproval, error) {
	var expired []model.PendingApproval
	if err := tx.Where("date < ?", cutoff).Order("date ASC").Find(&expired).Error; err != nil {
		return nil, fmt.Errorf("finding expired approvals: %w", err)
	}
	if len(expired) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(expired))
	for _, approval := range expired {
		ids = append(ids, approval.SubmissionID)
	}
	if err := tx.Where("submission_id IN ?", ids).Delete(&model.PendingApproval{}).Error; err != nil {
		return nil, fmt.Errorf("deleting expired approvals: %w", err)
	}
	return expired, nil
}
