package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/parking-service/internal/domain"
)

// ParkingSessionRepository encapsulates the parking session audit log.
type ParkingSessionRepository interface {
	Open(ctx context.Context, session *domain.ParkingSession) error
	Close(ctx context.Context, token domain.Token, releasedAt time.Time) error
	ListOpen(ctx context.Context, limit int) ([]domain.ParkingSession, error)
	ListByVehicle(ctx context.Context, vehicleNumber string, limit, offset int) ([]domain.ParkingSession, error)
}

// DBTX is the part of *pgxpool.Pool the repository uses.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type parkingSessionRepository struct {
	pool DBTX
}

// NewParkingSessionRepository instantiates repository.
func NewParkingSessionRepository(pool DBTX) ParkingSessionRepository {
	return &parkingSessionRepository{pool: pool}
}

const sessionColumns = `id, token, tier, slot, vehicle_number, category, parked_at, released_at`

func (r *parkingSessionRepository) Open(ctx context.Context, session *domain.ParkingSession) error {
	const query = `
        INSERT INTO parking_sessions (id, token, tier, slot, vehicle_number, category, parked_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := r.pool.Exec(ctx, query,
		session.ID,
		string(session.Token),
		int(session.Tier),
		session.Slot,
		session.VehicleNumber,
		string(session.Category),
		session.ParkedAt,
	)
	return err
}

// Close stamps the most recent open session for token. Tokens are reused, so
// older closed rows for the same token are left alone.
func (r *parkingSessionRepository) Close(ctx context.Context, token domain.Token, releasedAt time.Time) error {
	const query = `
        UPDATE parking_sessions SET released_at=$1
        WHERE id = (
            SELECT id FROM parking_sessions
            WHERE token=$2 AND released_at IS NULL
            ORDER BY parked_at DESC LIMIT 1
        )`
	cmd, err := r.pool.Exec(ctx, query, releasedAt, string(token))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *parkingSessionRepository) ListOpen(ctx context.Context, limit int) ([]domain.ParkingSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM parking_sessions
        WHERE released_at IS NULL ORDER BY tier, slot LIMIT $1`
	rows, err := r.pool.Query(ctx, query, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSessions(rows)
}

func (r *parkingSessionRepository) ListByVehicle(ctx context.Context, vehicleNumber string, limit, offset int) ([]domain.ParkingSession, error) {
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + sessionColumns + ` FROM parking_sessions
        WHERE vehicle_number=$1 ORDER BY parked_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, vehicleNumber, normalizeLimit(limit), offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSessions(rows)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	return limit
}

func scanSessions(rows pgx.Rows) ([]domain.ParkingSession, error) {
	var result []domain.ParkingSession
	for rows.Next() {
		var (
			session  domain.ParkingSession
			token    string
			tier     int
			category string
		)
		if err := rows.Scan(
			&session.ID,
			&token,
			&tier,
			&session.Slot,
			&session.VehicleNumber,
			&category,
			&session.ParkedAt,
			&session.ReleasedAt,
		); err != nil {
			return nil, err
		}
		session.Token = domain.Token(token)
		session.Tier = domain.Tier(tier)
		session.Category = domain.VehicleCategory(category)
		result = append(result, session)
	}
	return result, rows.Err()
}

// nopParkingSessionRepository is used when no database is configured.
type nopParkingSessionRepository struct{}

// NewNopParkingSessionRepository returns a repository that stores nothing.
func NewNopParkingSessionRepository() ParkingSessionRepository {
	return nopParkingSessionRepository{}
}

func (nopParkingSessionRepository) Open(context.Context, *domain.ParkingSession) error {
	return nil
}

func (nopParkingSessionRepository) Close(context.Context, domain.Token, time.Time) error {
	return nil
}

func (nopParkingSessionRepository) ListOpen(context.Context, int) ([]domain.ParkingSession, error) {
	return nil, nil
}

func (nopParkingSessionRepository) ListByVehicle(context.Context, string, int, int) ([]domain.ParkingSession, error) {
	return nil, nil
}
