package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"civica/internal/property/models"
	id "civica/pkg/domain"
	"civica/pkg/platform/sentinel"
)

// Postgres persists properties in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const propertyColumns = `id, kind, name, price, owner_id, renter_id, rental_expires_at, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, property *models.Property) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO properties (`+propertyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, uuid.UUID(property.ID), property.Kind, property.Name, property.Price,
		citizenValue(property.OwnerID), citizenValue(property.RenterID),
		property.RentalExpiresAt, property.CreatedAt, property.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create property: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, propertyID id.PropertyID) (*models.Property, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE id = $1`, uuid.UUID(propertyID))
	return scanProperty(row)
}

func (s *Postgres) Execute(
	ctx context.Context,
	propertyID id.PropertyID,
	validate func(*models.Property) error,
	mutate func(*models.Property),
) (*models.Property, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE id = $1 FOR UPDATE`, uuid.UUID(propertyID))
	property, err := scanProperty(row)
	if err != nil {
		return nil, err
	}

	if err := validate(property); err != nil {
		return nil, err
	}
	mutate(property)

	_, err = tx.ExecContext(ctx, `
		UPDATE properties
		SET owner_id = $2, renter_id = $3, rental_expires_at = $4, updated_at = $5
		WHERE id = $1
	`, uuid.UUID(property.ID), citizenValue(property.OwnerID),
		citizenValue(property.RenterID), property.RentalExpiresAt, property.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update property: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit property update: %w", err)
	}
	return property, nil
}

func (s *Postgres) ListByOccupant(ctx context.Context, citizenID id.CitizenID) ([]*models.Property, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+propertyColumns+` FROM properties
		WHERE owner_id = $1 OR renter_id = $1
		ORDER BY created_at, id
	`, uuid.UUID(citizenID))
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	return collectProperties(rows)
}

func (s *Postgres) ListExpiredRentals(ctx context.Context, now time.Time) ([]*models.Property, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+propertyColumns+` FROM properties
		WHERE renter_id IS NOT NULL AND rental_expires_at <= $1
		ORDER BY created_at, id
	`, now)
	if err != nil {
		return nil, fmt.Errorf("list expired rentals: %w", err)
	}
	return collectProperties(rows)
}

func (s *Postgres) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM properties`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count properties: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func citizenValue(citizenID *id.CitizenID) any {
	if citizenID == nil {
		return nil
	}
	return uuid.UUID(*citizenID)
}

func collectProperties(rows *sql.Rows) ([]*models.Property, error) {
	defer rows.Close()
	properties := make([]*models.Property, 0)
	for rows.Next() {
		property, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		properties = append(properties, property)
	}
	return properties, rows.Err()
}

func scanProperty(row rowScanner) (*models.Property, error) {
	var property models.Property
	var propertyID uuid.UUID
	var ownerID, renterID uuid.NullUUID
	var expiresAt sql.NullTime
	err := row.Scan(&propertyID, &property.Kind, &property.Name, &property.Price,
		&ownerID, &renterID, &expiresAt, &property.CreatedAt, &property.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan property: %w", err)
	}
	property.ID = id.PropertyID(propertyID)
	if ownerID.Valid {
		owner := id.CitizenID(ownerID.UUID)
		property.OwnerID = &owner
	}
	if renterID.Valid {
		renter := id.CitizenID(renterID.UUID)
		property.RenterID = &renter
	}
	if expiresAt.Valid {
		at := expiresAt.Time
		property.RentalExpiresAt = &at
	}
	return &property, nil
}
