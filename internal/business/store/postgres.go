package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"civica/internal/business/models"
	id "civica/pkg/domain"
	"civica/pkg/platform/sentinel"
)

// Postgres persists businesses in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const businessColumns = `id, name, type, owner_id, revenue, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, business *models.Business) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO businesses (`+businessColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.UUID(business.ID), business.Name, business.Type, ownerValue(business.OwnerID),
		business.Revenue, business.CreatedAt, business.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create business: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, businessID id.BusinessID) (*models.Business, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+businessColumns+` FROM businesses WHERE id = $1`, uuid.UUID(businessID))
	return scanBusiness(row)
}

func (s *Postgres) Execute(
	ctx context.Context,
	businessID id.BusinessID,
	validate func(*models.Business) error,
	mutate func(*models.Business),
) (*models.Business, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+businessColumns+` FROM businesses WHERE id = $1 FOR UPDATE`, uuid.UUID(businessID))
	business, err := scanBusiness(row)
	if err != nil {
		return nil, err
	}

	if err := validate(business); err != nil {
		return nil, err
	}
	mutate(business)

	_, err = tx.ExecContext(ctx, `
		UPDATE businesses
		SET name = $2, type = $3, owner_id = $4, revenue = $5, updated_at = $6
		WHERE id = $1
	`, uuid.UUID(business.ID), business.Name, business.Type,
		ownerValue(business.OwnerID), business.Revenue, business.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update business: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit business update: %w", err)
	}
	return business, nil
}

func (s *Postgres) ListByOwner(ctx context.Context, ownerID id.CitizenID) ([]*models.Business, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+businessColumns+` FROM businesses
		WHERE owner_id = $1
		ORDER BY created_at, id
	`, uuid.UUID(ownerID))
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	defer rows.Close()

	businesses := make([]*models.Business, 0)
	for rows.Next() {
		business, err := scanBusiness(rows)
		if err != nil {
			return nil, err
		}
		businesses = append(businesses, business)
	}
	return businesses, rows.Err()
}

func (s *Postgres) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM businesses`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count businesses: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func ownerValue(ownerID *id.CitizenID) any {
	if ownerID == nil {
		return nil
	}
	return uuid.UUID(*ownerID)
}

func scanBusiness(row rowScanner) (*models.Business, error) {
	var business models.Business
	var businessID uuid.UUID
	var ownerID uuid.NullUUID
	err := row.Scan(&businessID, &business.Name, &business.Type, &ownerID,
		&business.Revenue, &business.CreatedAt, &business.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan business: %w", err)
	}
	business.ID = id.BusinessID(businessID)
	if ownerID.Valid {
		owner := id.CitizenID(ownerID.UUID)
		business.OwnerID = &owner
	}
	return &business, nil
}
