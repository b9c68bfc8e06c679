package approval

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/catuhana/YuriEveryHour-bot/db"
	"github.com/catuhana/YuriEveryHour-bot/model"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := db.Open("sqlite://:memory:", 1)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(database))

	t.Cleanup(func() {
		sqldb, err := database.DB()
		if err == nil {
			sqldb.Close()
		}
	})
	return database
}

func seedSubmission(t *testing.T, database *gorm.DB, userID string) *model.Submission {
	t.Helper()

	submission, err := db.AddSubmission(database, model.AddSubmission{
		UserID:  userID,
		Artist:  "https://example.com/artist",
		ArtLink: "https://example.com/art",
	})
	require.NoError(t, err)
	return submission
}

func seedApproval(t *testing.T, database *gorm.DB, registry *Registry, userID string) model.PendingApproval {
	t.Helper()

	submission := seedSubmission(t, database, userID)
	approval, err := registry.Add(database, submission.SubmissionID, fmt.Sprintf("message-%d", submission.SubmissionID))
	require.NoError(t, err)
	registry.Track(*approval)
	return *approval
}

func backdate(t *testing.T, database *gorm.DB, registry *Registry, approval model.PendingApproval, age time.Duration) model.PendingApproval {
	t.Helper()

	past := time.Now().UTC().Add(-age)
	err := database.Model(&model.PendingApproval{}).
		Where("submission_id = ?", approval.SubmissionID).
		Update("date", past).Error
	require.NoError(t, err)

	approval.Date = past
	if registry != nil {
		registry.Track(approval)
	}
	return approval
}

func TestRegistryAddAndLookup(t *testing.T) {
	t.Parallel()
	database := testDB(t)
	registry := NewRegistry()

	approval := seedApproval(t, database, registry, "100")

	byMessage, ok := registry.Lookup(model.ApprovalByMessage(approval.MessageID))
	require.True(t, ok)
	require.Equal(t, approval.SubmissionID, byMessage.SubmissionID)

	bySubmission, ok := registry.Lookup(model.ApprovalBySubmission(approval.SubmissionID))
	require.True(t, ok)
	require.Equal(t, approval.MessageID, bySubmission.MessageID)
}

func TestRegistryAddDuplicate(t *testing.T) {
	t.Parallel()
	database := testDB(t)
	registry := NewRegistry()

	approval := seedApproval(t, database, registry, "100")

	_, err := registry.Add(database, approval.SubmissionID, "another-message")
	require.ErrorIs(t, err, model.ErrDuplicateApproval)

	other := seedSubmission(t, database, "200")
	_, err = registry.Add(database, other.SubmissionID, approval.MessageID)
	require.ErrorIs(t, err, model.ErrDuplicateApproval)
}

func TestRegistryRemove(t *testing.T) {
	t.Parallel()
	database := testDB(t)
	registry := NewRegistry()

	approval := seedApproval(t, database, registry, "100")

	removed, err := registry.Remove(database, model.ApprovalByMessage(approval.MessageID))
	require.NoError(t, err)
	registry.Untrack(*removed)

	_, ok := registry.Lookup(model.ApprovalByMessage(approval.MessageID))
	require.False(t, ok)

	_, err = registry.Remove(database, model.ApprovalBySubmission(approval.SubmissionID))
	require.ErrorIs(t, err, model.ErrNotFound)
}

// Populate on a fresh cache must land on exactly the rows inserted and not
// yet removed.
func TestRegistryPopulateRoundTrip(t *testing.T) {
	t.Parallel()
	database := testDB(t)
	registry := NewRegistry()

	var kept []model.PendingApproval
	for i := 0; i < 5; i++ {
		approval := seedApproval(t, database, registry, fmt.Sprintf("%d", 100+i))
		kept = append(kept, approval)
	}
	removed, err := registry.Remove(database, model.ApprovalBySubmission(kept[0].SubmissionID))
	require.NoError(t, err)
	registry.Untrack(*removed)
	kept = kept[1:]

	fresh := NewRegistry()
	require.NoError(t, fresh.Populate(database))

	open := fresh.Open()
	require.Len(t, open, len(kept))
	for _, approval := range kept {
		cached, ok := fresh.Lookup(model.ApprovalBySubmission(approval.SubmissionID))
		require.True(t, ok)
		require.Equal(t, approval.MessageID, cached.MessageID)
	}
}

func TestRegistrySweepExpired(t *testing.T) {
	t.Parallel()
	database := testDB(t)
	registry := NewRegistry()
	ttl := 24 * time.Hour

	stale := seedApproval(t, database, registry, "100")
	stale = backdate(t, database, registry, stale, ttl+time.Second)

	fresh := seedApproval(t, database, registry, "200")
	backdate(t, database, registry, fresh, ttl-time.Second)

	swept, err := registry.SweepExpired(database, ttl)
	require.NoError(t, err)
	require.Len(t, swept, 1)
	require.Equal(t, stale.SubmissionID, swept[0].SubmissionID)

	_, ok := registry.Lookup(model.ApprovalBySubmission(stale.SubmissionID))
	require.False(t, ok)
	_, ok = registry.Lookup(model.ApprovalBySubmission(fresh.SubmissionID))
	require.True(t, ok)
}
