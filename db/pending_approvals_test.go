package db

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/catuhana/YuriEveryHour-bot/model"
)

func addTestApproval(t *testing.T, database *gorm.DB, submissionID int64) *model.PendingApproval {
	t.Helper()

	approval, err := AddPendingApproval(database, submissionID, fmt.Sprintf("message-%d", submissionID))
	require.NoError(t, err)
	return approval
}

func backdateApproval(t *testing.T, database *gorm.DB, submissionID int64, age time.Duration) {
	t.Helper()

	err := database.Model(&model.PendingApproval{}).
		Where("submission_id = ?", submissionID).
		Update("date", time.Now().UTC().Add(-age)).Error
	require.NoError(t, err)
}

func TestAddPendingApproval(t *testing.T) {
	t.Parallel()
	database := testDB(t)
	submission := addTestSubmission(t, database, "100")

	approval := addTestApproval(t, database, submission.SubmissionID)
	require.Equal(t, submission.SubmissionID, approval.SubmissionID)
	require.False(t, approval.Date.IsZero())
}

func TestAddPendingApprovalDuplicate(t *testing.T) {
	t.Parallel()
	database := testDB(t)
	submission := addTestSubmission(t, database, "100")
	addTestApproval(t, database, submission.SubmissionID)

	_, err := AddPendingApproval(database, submission.SubmissionID, "other-message")
	require.ErrorIs(t, err, model.ErrDuplicateApproval)

	other := addTestSubmission(t, database, "200")
	_, err = AddPendingApproval(database, other.SubmissionID, fmt.Sprintf("message-%d", submission.SubmissionID))
	require.ErrorIs(t, err, model.ErrDuplicateApproval)
}

func TestRemovePendingApproval(t *testing.T) {
	t.Parallel()
	database := testDB(t)
	submission := addTestSubmission(t, database, "100")
	approval := addTestApproval(t, database, submission.SubmissionID)

	removed, err := RemovePendingApproval(database, model.ApprovalByMessage(approval.MessageID))
	require.NoError(t, err)
	require.Equal(t, approval.SubmissionID, removed.SubmissionID)

	// The second removal of the same approval is the losing side of the
	// race and must see ErrNotFound.
	_, err = RemovePendingApproval(database, model.ApprovalBySubmission(approval.SubmissionID))
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestListPendingApprovalsOrdered(t *testing.T) {
	t.Parallel()
	database := testDB(t)

	for i := 0; i < 3; i++ {
		submission := addTestSubmission(t, database, "100")
		addTestApproval(t, database, submission.SubmissionID)
		backdateApproval(t, database, submission.SubmissionID, time.Duration(3-i)*time.Hour)
	}

	approvals, err := ListPendingApprovals(database)
	require.NoError(t, err)
	require.Len(t, approvals, 3)
	for i := 1; i < len(approvals); i++ {
		require.False(t, approvals[i].Date.Before(approvals[i-1].Date))
	}
}

func TestDeleteExpiredApprovalsBoundary(t *testing.T) {
	t.Parallel()
	database := testDB(t)
	ttl := 24 * time.Hour

	stale := addTestSubmission(t, database, "100")
	addTestApproval(t, database, stale.SubmissionID)
	backdateApproval(t, database, stale.SubmissionID, ttl+time.Second)

	fresh := addTestSubmission(t, database, "200")
	addTestApproval(t, database, fresh.SubmissionID)
	backdateApproval(t, database, fresh.SubmissionID, ttl-time.Second)

	expired, err := DeleteExpiredApprovals(database, time.Now().UTC().Add(-ttl))
	require.NoError(t, err)
	require.Len(t, expired, 1)
	require.Equal(t, stale.SubmissionID, expired[0].SubmissionID)

	remaining, err := ListPendingApprovals(database)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, fresh.SubmissionID, remaining[0].SubmissionID)
}

func TestDeleteExpiredApprovalsNone(t *testing.T) {
	t.Parallel()
	database := testDB(t)

	expired, err := DeleteExpiredApprovals(database, time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	require.Empty(t, expired)
}
