package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ecoguard_backend/internals/features/field/projects/model"
)

func newMockRepo(t *testing.T) (*ProjectRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewProjectRepository(db), mock
}

func TestMarkCompleted_OnlyFromActive(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE "projects" SET .* WHERE .*project_status = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.MarkCompleted(context.Background(), uuid.New(), time.Now())
	assert.ErrorIs(t, err, ErrProjectNotActive)

	mock.ExpectExec(`UPDATE "projects" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.MarkCompleted(context.Background(), uuid.New(), time.Now()))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProgress_CompletedProjectIsFrozen(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE "projects" SET .*"project_average_daily_progress"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	active := model.ProjectStatusActive
	err := repo.UpdateProgress(context.Background(), uuid.New(), 96.5, &active)
	assert.ErrorIs(t, err, ErrProjectNotActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyCompletionTotals_OnlyOnce(t *testing.T) {
	repo, mock := newMockRepo(t)
	pid, uid := uuid.New(), uuid.New()

	mock.ExpectExec(`UPDATE "project_contributors" SET .*"project_contributor_completion_applied_at"=.* WHERE .*project_contributor_completion_applied_at IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.ApplyCompletionTotals(context.Background(), pid, uid, 40, 1725))

	// panggilan kedua: marker sudah terisi, row tetap ada
	mock.ExpectExec(`UPDATE "project_contributors" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM "project_contributors" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"project_contributor_id"}).AddRow(uuid.NewString()))
	require.NoError(t, repo.ApplyCompletionTotals(context.Background(), pid, uid, 40, 1725))

	mock.ExpectExec(`UPDATE "project_contributors" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM "project_contributors" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"project_contributor_id"}))
	err := repo.ApplyCompletionTotals(context.Background(), pid, uuid.New(), 40, 1725)
	assert.ErrorIs(t, err, ErrContributorNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindContributor_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT \* FROM "project_contributors" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"project_contributor_id"}))

	_, err := repo.FindContributor(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrContributorNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
