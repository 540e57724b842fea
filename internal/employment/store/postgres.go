package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "civica/pkg/domain"
	"civica/pkg/platform/sentinel"
)

// Postgres tracks last-earn timestamps in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) LastEarn(ctx context.Context, citizenID id.CitizenID) (time.Time, error) {
	var at time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT last_earn_at FROM employment_cooldowns WHERE citizen_id = $1`,
		uuid.UUID(citizenID),
	).Scan(&at)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, sentinel.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("get last earn: %w", err)
	}
	return at, nil
}

func (s *Postgres) SetLastEarn(ctx context.Context, citizenID id.CitizenID, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employment_cooldowns (citizen_id, last_earn_at)
		VALUES ($1, $2)
		ON CONFLICT (citizen_id) DO UPDATE SET last_earn_at = EXCLUDED.last_earn_at
	`, uuid.UUID(citizenID), at)
	if err != nil {
		return fmt.Errorf("set last earn: %w", err)
	}
	return nil
}
