package db

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/catuhana/YuriEveryHour-bot/model"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := Open("sqlite://:memory:", 1)
	require.NoError(t, err)
	require.NoError(t, Migrate(database))

	t.Cleanup(func() {
		sqldb, err := database.DB()
		if err == nil {
			sqldb.Close()
		}
	})
	return database
}

func addTestSubmission(t *testing.T, database *gorm.DB, userID string) *model.Submission {
	t.Helper()

	submission, err := AddSubmission(database, model.AddSubmission{
		UserID:  userID,
		Artist:  "https://example.com/artist",
		ArtLink: "https://example.com/art",
	})
	require.NoError(t, err)
	return submission
}

func TestAddSubmission(t *testing.T) {
	t.Parallel()
	database := testDB(t)

	info := "drawn last spring"
	submission, err := AddSubmission(database, model.AddSubmission{
		UserID:                "100",
		Artist:                "https://example.com/artist",
		ArtLink:               "https://example.com/art",
		AdditionalInformation: &info,
	})
	require.NoError(t, err)

	require.NotZero(t, submission.SubmissionID)
	require.Nil(t, submission.Decision)
	require.Nil(t, submission.SubmissionDecisionDate)
	require.False(t, submission.SubmissionDate.IsZero())

	stored, err := GetSubmission(database, submission.SubmissionID)
	require.NoError(t, err)
	require.Equal(t, "100", stored.UserID)
	require.NotNil(t, stored.AdditionalInformation)
	require.Equal(t, info, *stored.AdditionalInformation)
}

func TestApproveSubmission(t *testing.T) {
	t.Parallel()
	database := testDB(t)
	submission := addTestSubmission(t, database, "100")

	approved, err := ApproveSubmission(database, model.BySubmissionID(submission.SubmissionID))
	require.NoError(t, err)
	require.NotNil(t, approved.Decision)
	require.Equal(t, model.DecisionApproved, *approved.Decision)
	require.NotNil(t, approved.SubmissionDecisionDate)
}

func TestRejectSubmissionBySubmitter(t *testing.T) {
	t.Parallel()
	database := testDB(t)
	submission := addTestSubmission(t, database, "200")

	rejected, err := RejectSubmission(database, model.BySubmitter("200"))
	require.NoError(t, err)
	require.Equal(t, submission.SubmissionID, rejected.SubmissionID)
	require.Equal(t, model.DecisionRejected, *rejected.Decision)
}

func TestDecideTwiceFails(t *testing.T) {
	t.Parallel()
	database := testDB(t)
	submission := addTestSubmission(t, database, "100")

	_, err := ApproveSubmission(database, model.BySubmissionID(submission.SubmissionID))
	require.NoError(t, err)

	_, err = RejectSubmission(database, model.BySubmissionID(submission.SubmissionID))
	require.ErrorIs(t, err, model.ErrAlreadyDecided)

	stored, err := GetSubmission(database, submission.SubmissionID)
	require.NoError(t, err)
	require.Equal(t, model.DecisionApproved, *stored.Decision)
}

func TestDecideMissingSubmission(t *testing.T) {
	t.Parallel()
	database := testDB(t)

	_, err := ApproveSubmission(database, model.BySubmissionID(9999))
	require.ErrorIs(t, err, model.ErrNotFound)

	_, err = RejectSubmission(database, model.BySubmitter("nobody"))
	require.ErrorIs(t, err, model.ErrNotFound)
}

// Whatever sequence of decisions is attempted, decision and its date are
// always both absent or both present.
func TestDecisionDateInvariant(t *testing.T) {
	t.Parallel()
	database := testDB(t)

	rng := rand.New(rand.NewSource(42))
	var ids []int64
	for i := 0; i < 20; i++ {
		submission := addTestSubmission(t, database, "100")
		ids = append(ids, submission.SubmissionID)
	}

	for i := 0; i < 100; i++ {
		id := ids[rng.Intn(len(ids))]
		if rng.Intn(2) == 0 {
			_, _ = ApproveSubmission(database, model.BySubmissionID(id))
		} else {
			_, _ = RejectSubmission(database, model.BySubmissionID(id))
		}
	}

	var submissions []model.Submission
	require.NoError(t, database.Find(&submissions).Error)
	require.Len(t, submissions, 20)
	for _, submission := range submissions {
		if submission.Decision == nil {
			require.Nil(t, submission.SubmissionDecisionDate)
		} else {
			require.NotNil(t, submission.SubmissionDecisionDate)
		}
	}
}
