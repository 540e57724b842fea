package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"civica/internal/citizen/models"
	id "civica/pkg/domain"
	"civica/pkg/platform/sentinel"
)

// Postgres persists citizens in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const citizenColumns = `id, external_account_id, display_name, age, job, archived, created_at, updated_at`

func (s *Postgres) CreateIfAccountAvailable(ctx context.Context, citizen *models.Citizen) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO citizens (`+citizenColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.UUID(citizen.ID), citizen.ExternalAccountID, citizen.DisplayName,
		citizen.Age, string(citizen.Job), citizen.Archived, citizen.CreatedAt, citizen.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create citizen: %w", err)
	}
	return nil
}

// Delete removes a citizen row. Registration uses it to compensate when the
// ledger account cannot be opened; archived citizens are never deleted.
func (s *Postgres) Delete(ctx context.Context, citizenID id.CitizenID) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM citizens WHERE id = $1`, uuid.UUID(citizenID))
	if err != nil {
		return fmt.Errorf("delete citizen: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete citizen: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, citizenID id.CitizenID) (*models.Citizen, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+citizenColumns+` FROM citizens WHERE id = $1`, uuid.UUID(citizenID))
	return scanCitizen(row)
}

func (s *Postgres) FindByExternalAccount(ctx context.Context, externalAccountID string) (*models.Citizen, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+citizenColumns+` FROM citizens WHERE external_account_id = $1`, externalAccountID)
	return scanCitizen(row)
}

func (s *Postgres) Execute(
	ctx context.Context,
	citizenID id.CitizenID,
	validate func(*models.Citizen) error,
	mutate func(*models.Citizen),
) (*models.Citizen, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+citizenColumns+` FROM citizens WHERE id = $1 FOR UPDATE`, uuid.UUID(citizenID))
	citizen, err := scanCitizen(row)
	if err != nil {
		return nil, err
	}

	if err := validate(citizen); err != nil {
		return nil, err
	}
	mutate(citizen)

	_, err = tx.ExecContext(ctx, `
		UPDATE citizens
		SET display_name = $2, age = $3, job = $4, archived = $5, updated_at = $6
		WHERE id = $1
	`, uuid.UUID(citizen.ID), citizen.DisplayName, citizen.Age,
		string(citizen.Job), citizen.Archived, citizen.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update citizen: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit citizen update: %w", err)
	}
	return citizen, nil
}

func (s *Postgres) List(ctx context.Context, offset, limit int) ([]*models.Citizen, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+citizenColumns+` FROM citizens
		ORDER BY created_at, id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list citizens: %w", err)
	}
	defer rows.Close()

	citizens := make([]*models.Citizen, 0, limit)
	for rows.Next() {
		citizen, err := scanCitizen(rows)
		if err != nil {
			return nil, err
		}
		citizens = append(citizens, citizen)
	}
	return citizens, rows.Err()
}

func (s *Postgres) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM citizens`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count citizens: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCitizen(row rowScanner) (*models.Citizen, error) {
	var citizen models.Citizen
	var citizenID uuid.UUID
	var job string
	err := row.Scan(&citizenID, &citizen.ExternalAccountID, &citizen.DisplayName,
		&citizen.Age, &job, &citizen.Archived, &citizen.CreatedAt, &citizen.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan citizen: %w", err)
	}
	citizen.ID = id.CitizenID(citizenID)
	citizen.Job = id.JobKind(job)
	return &citizen, nil
}
