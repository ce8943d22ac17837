package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/revu-go-api/internal/models"
)

func newRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Evaluation{}, &models.EvaluationResponse{}))
	return db
}

func seedEvaluation(t *testing.T, db *gorm.DB) models.Evaluation {
	t.Helper()
	evaluation := models.Evaluation{
		CycleID:      uuid.New(),
		AssignmentID: uuid.New(),
		Status:       models.EvaluationStatusDraft,
		Version:      1,
	}
	require.NoError(t, db.Create(&evaluation).Error)
	return evaluation
}

func TestUpdateVersionedBumpsVersionOnMatch(t *testing.T) {
	db := newRepoTestDB(t)
	repo := NewEvaluationRepository(db)
	evaluation := seedEvaluation(t, db)

	err := repo.UpdateVersioned(context.Background(), &evaluation, 1, EvaluationUpdate{Status: models.EvaluationStatusSubmitted})
	require.NoError(t, err)
	require.Equal(t, 2, evaluation.Version)
	require.Equal(t, models.EvaluationStatusSubmitted, evaluation.Status)

	var stored models.Evaluation
	require.NoError(t, db.First(&stored, "id = ?", evaluation.ID).Error)
	require.Equal(t, 2, stored.Version)
	require.Equal(t, models.EvaluationStatusSubmitted, stored.Status)
}

func TestUpdateVersionedRejectsStaleVersion(t *testing.T) {
	db := newRepoTestDB(t)
	repo := NewEvaluationRepository(db)
	evaluation := seedEvaluation(t, db)

	stale := evaluation
	err := repo.UpdateVersioned(context.Background(), &stale, 99, EvaluationUpdate{Status: models.EvaluationStatusSubmitted})
	require.ErrorIs(t, err, ErrVersionConflict)

	// The row is untouched after a failed compare-and-set.
	var stored models.Evaluation
	require.NoError(t, db.First(&stored, "id = ?", evaluation.ID).Error)
	require.Equal(t, 1, stored.Version)
	require.Equal(t, models.EvaluationStatusDraft, stored.Status)
}

func TestUpdateVersionedLosesRaceExactlyOnce(t *testing.T) {
	db := newRepoTestDB(t)
	repo := NewEvaluationRepository(db)
	evaluation := seedEvaluation(t, db)

	first := evaluation
	require.NoError(t, repo.UpdateVersioned(context.Background(), &first, 1, EvaluationUpdate{}))

	// The second writer read version 1 too; its compare-and-set must fail.
	second := evaluation
	err := repo.UpdateVersioned(context.Background(), &second, 1, EvaluationUpdate{})
	require.ErrorIs(t, err, ErrVersionConflict)
}

func TestUpsertResponseInsertsThenUpdates(t *testing.T) {
	db := newRepoTestDB(t)
	repo := NewEvaluationRepository(db)
	evaluation := seedEvaluation(t, db)

	value := "4"
	require.NoError(t, repo.UpsertResponse(context.Background(), evaluation.ID, "overall_rating", &value))

	updated := "5"
	require.NoError(t, repo.UpsertResponse(context.Background(), evaluation.ID, "overall_rating", &updated))

	responses, err := repo.ListResponses(context.Background(), evaluation.ID)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	require.Equal(t, "5", *responses[0].ValueText)
}

func TestCreateLostRaceRereadsInsideTransaction(t *testing.T) {
	db := newRepoTestDB(t)
	repo := NewEvaluationRepository(db)
	winner := seedEvaluation(t, db)

	// The get-or-create loser inserts under a savepoint; after the
	// duplicate rolls back, the enclosing transaction must still serve
	// the re-read and further writes.
	err := db.Transaction(func(tx *gorm.DB) error {
		loser := models.Evaluation{
			CycleID:      winner.CycleID,
			AssignmentID: winner.AssignmentID,
			Status:       models.EvaluationStatusDraft,
			Version:      1,
		}
		createErr := tx.Transaction(func(nested *gorm.DB) error {
			return NewEvaluationRepository(nested).Create(context.Background(), &loser)
		})
		require.ErrorIs(t, createErr, gorm.ErrDuplicatedKey)

		found, err := NewEvaluationRepository(tx).FindByAssignment(context.Background(), winner.AssignmentID)
		require.NoError(t, err)
		require.Equal(t, winner.ID, found.ID)

		value := "4"
		return NewEvaluationRepository(tx).UpsertResponse(context.Background(), winner.ID, "overall_rating", &value)
	})
	require.NoError(t, err)

	responses, err := repo.ListResponses(context.Background(), winner.ID)
	require.NoError(t, err)
	require.Len(t, responses, 1)

	var count int64
	require.NoError(t, db.Model(&models.Evaluation{}).Where("assignment_id = ?", winner.AssignmentID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestCreateDuplicateAssignmentTranslated(t *testing.T) {
	db := newRepoTestDB(t)
	repo := NewEvaluationRepository(db)
	evaluation := seedEvaluation(t, db)

	duplicate := models.Evaluation{
		CycleID:      evaluation.CycleID,
		AssignmentID: evaluation.AssignmentID,
		Status:       models.EvaluationStatusDraft,
		Version:      1,
	}
	err := repo.Create(context.Background(), &duplicate)
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}
