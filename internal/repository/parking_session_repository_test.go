package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/parking-service/internal/domain"
)

var sessionColumnNames = []string{"id", "token", "tier", "slot", "vehicle_number", "category", "parked_at", "released_at"}

func newMockRepo(t *testing.T) (ParkingSessionRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewParkingSessionRepository(mock), mock
}

func TestOpenInsertsSession(t *testing.T) {
	repo, mock := newMockRepo(t)
	parkedAt := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO parking_sessions")).
		WithArgs("s1", "T1S3", 1, 3, "CAR", "FOUR_WHEELER", parkedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Open(context.Background(), &domain.ParkingSession{
		ID:            "s1",
		Token:         "T1S3",
		Tier:          domain.Tier1,
		Slot:          3,
		VehicleNumber: "CAR",
		Category:      domain.CategoryFourWheeler,
		ParkedAt:      parkedAt,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseStampsNewestOpenRow(t *testing.T) {
	repo, mock := newMockRepo(t)
	releasedAt := time.Date(2026, 1, 2, 11, 0, 0, 0, time.UTC)

	mock.ExpectExec(`(?s)UPDATE parking_sessions SET released_at=\$1.*WHERE token=\$2 AND released_at IS NULL.*ORDER BY parked_at DESC LIMIT 1`).
		WithArgs(releasedAt, "T1S1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.Close(context.Background(), "T1S1", releasedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseWithoutOpenRow(t *testing.T) {
	repo, mock := newMockRepo(t)
	releasedAt := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE parking_sessions")).
		WithArgs(releasedAt, "T2S4").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Close(context.Background(), "T2S4", releasedAt)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseReturnsDatabaseError(t *testing.T) {
	repo, mock := newMockRepo(t)
	boom := errors.New("connection reset")

	mock.ExpectExec(regexp.QuoteMeta("UPDATE parking_sessions")).
		WithArgs(pgxmock.AnyArg(), "T1S1").
		WillReturnError(boom)

	err := repo.Close(context.Background(), "T1S1", time.Now())
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, pgx.ErrNoRows))
}

func TestListByVehicleNewestFirst(t *testing.T) {
	repo, mock := newMockRepo(t)
	earlier := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	later := earlier.Add(24 * time.Hour)
	releasedAt := earlier.Add(2 * time.Hour)

	mock.ExpectQuery(`WHERE vehicle_number=\$1 ORDER BY parked_at DESC LIMIT \$2 OFFSET \$3`).
		WithArgs("CAR", 2, 1).
		WillReturnRows(pgxmock.NewRows(sessionColumnNames).
			AddRow("s2", "T1S1", 1, 1, "CAR", "FOUR_WHEELER", later, nil).
			AddRow("s1", "T1S1", 1, 1, "CAR", "FOUR_WHEELER", earlier, &releasedAt))

	sessions, err := repo.ListByVehicle(context.Background(), "CAR", 2, 1)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	assert.Equal(t, "s2", sessions[0].ID)
	assert.Nil(t, sessions[0].ReleasedAt)
	assert.Equal(t, domain.Token("T1S1"), sessions[0].Token)
	assert.Equal(t, domain.Tier1, sessions[0].Tier)
	assert.Equal(t, domain.CategoryFourWheeler, sessions[0].Category)

	assert.Equal(t, "s1", sessions[1].ID)
	require.NotNil(t, sessions[1].ReleasedAt)
	assert.Equal(t, releasedAt, *sessions[1].ReleasedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByVehicleNormalizesPaging(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM parking_sessions")).
		WithArgs("BIKE", 20, 0).
		WillReturnRows(pgxmock.NewRows(sessionColumnNames))

	sessions, err := repo.ListByVehicle(context.Background(), "BIKE", 0, -5)
	require.NoError(t, err)
	assert.Empty(t, sessions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOpen(t *testing.T) {
	repo, mock := newMockRepo(t)
	parkedAt := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`WHERE released_at IS NULL ORDER BY tier, slot LIMIT \$1`).
		WithArgs(5).
		WillReturnRows(pgxmock.NewRows(sessionColumnNames).
			AddRow("s1", "T2S2", 2, 2, "BIKE", "TWO_WHEELER", parkedAt, nil))

	sessions, err := repo.ListOpen(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, domain.Tier2, sessions[0].Tier)
	assert.Equal(t, domain.CategoryTwoWheeler, sessions[0].Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNopRepository(t *testing.T) {
	repo := NewNopParkingSessionRepository()
	ctx := context.Background()

	assert.NoError(t, repo.Open(ctx, &domain.ParkingSession{}))
	assert.NoError(t, repo.Close(ctx, "T1S1", time.Now()))
	open, err := repo.ListOpen(ctx, 10)
	assert.NoError(t, err)
	assert.Empty(t, open)
}
