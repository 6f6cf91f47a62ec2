package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ecoguard_backend/internals/features/progress/mint/model"
)

func newMockRepo(t *testing.T) (*MintRequestRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewMintRequestRepository(db), mock
}

func TestClaim_OnlyOneWinner(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()
	lease := time.Now().Add(time.Minute)

	mock.ExpectExec(`UPDATE "mint_requests" SET .*"mint_request_attempts"=mint_request_attempts \+ 1.* WHERE .*mint_request_lease_until <`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.Claim(context.Background(), id, lease)
	require.NoError(t, err)
	assert.True(t, ok)

	// row sudah in_flight dengan lease aktif
	mock.ExpectExec(`UPDATE "mint_requests" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = repo.Claim(context.Background(), id, lease)
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectExec(`UPDATE "mint_requests" SET`).
		WillReturnError(errors.New("conn reset"))
	_, err = repo.Claim(context.Background(), id, lease)
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkResult_ReleasesLease(t *testing.T) {
	repo, mock := newMockRepo(t)
	tx := "0xabc"

	mock.ExpectExec(`UPDATE "mint_requests" SET .*"mint_request_lease_until"=.* WHERE .*mint_request_status = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.MarkResult(context.Background(), uuid.New(), model.MintSucceeded, &tx, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRetryable_SkipsLiveLeases(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT \* FROM "mint_requests" WHERE .*mint_request_status = \$\d+ AND mint_request_lease_until < .*mint_request_attempts < `).
		WillReturnRows(sqlmock.NewRows([]string{"mint_request_id", "mint_request_status"}).
			AddRow(uuid.NewString(), "in_flight"))

	rows, err := repo.ListRetryable(context.Background(), time.Now().Add(-time.Minute), 5, 10)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
