package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"civica/internal/enforcement/models"
	id "civica/pkg/domain"
	"civica/pkg/platform/sentinel"
)

// Postgres persists enforcement records in PostgreSQL. The partial unique
// index on uncleared wanted records backs the one-active-record invariant.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const wantedColumns = `id, citizen_id, reason, issued_by, issued_at, cleared, cleared_by, cleared_at`
const fineColumns = `id, citizen_id, amount, reason, issued_by, status, issued_at, settled_at`

func (s *Postgres) CreateWanted(ctx context.Context, record *models.WantedRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wanted_records (`+wantedColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.UUID(record.ID), uuid.UUID(record.CitizenID), record.Reason, record.IssuedBy,
		record.IssuedAt, record.Cleared, nullString(record.ClearedBy), record.ClearedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create wanted record: %w", err)
	}
	return nil
}

func (s *Postgres) FindActiveWanted(ctx context.Context, citizenID id.CitizenID) (*models.WantedRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+wantedColumns+` FROM wanted_records
		WHERE citizen_id = $1 AND NOT cleared
	`, uuid.UUID(citizenID))
	return scanWanted(row)
}

func (s *Postgres) ExecuteWanted(
	ctx context.Context,
	wantedID id.WantedID,
	validate func(*models.WantedRecord) error,
	mutate func(*models.WantedRecord),
) (*models.WantedRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+wantedColumns+` FROM wanted_records WHERE id = $1 FOR UPDATE`, uuid.UUID(wantedID))
	record, err := scanWanted(row)
	if err != nil {
		return nil, err
	}

	if err := validate(record); err != nil {
		return nil, err
	}
	mutate(record)

	_, err = tx.ExecContext(ctx, `
		UPDATE wanted_records
		SET cleared = $2, cleared_by = $3, cleared_at = $4
		WHERE id = $1
	`, uuid.UUID(record.ID), record.Cleared, nullString(record.ClearedBy), record.ClearedAt)
	if err != nil {
		return nil, fmt.Errorf("update wanted record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit wanted update: %w", err)
	}
	return record, nil
}

func (s *Postgres) ListWantedByCitizen(ctx context.Context, citizenID id.CitizenID) ([]*models.WantedRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+wantedColumns+` FROM wanted_records
		WHERE citizen_id = $1
		ORDER BY issued_at, id
	`, uuid.UUID(citizenID))
	if err != nil {
		return nil, fmt.Errorf("list wanted records: %w", err)
	}
	defer rows.Close()

	records := make([]*models.WantedRecord, 0)
	for rows.Next() {
		record, err := scanWanted(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *Postgres) CreateFine(ctx context.Context, fine *models.Fine) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fines (`+fineColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.UUID(fine.ID), uuid.UUID(fine.CitizenID), fine.Amount, fine.Reason,
		fine.IssuedBy, string(fine.Status), fine.IssuedAt, fine.SettledAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create fine: %w", err)
	}
	return nil
}

func (s *Postgres) FindFine(ctx context.Context, fineID id.FineID) (*models.Fine, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+fineColumns+` FROM fines WHERE id = $1`, uuid.UUID(fineID))
	return scanFine(row)
}

func (s *Postgres) ExecuteFine(
	ctx context.Context,
	fineID id.FineID,
	validate func(*models.Fine) error,
	mutate func(*models.Fine),
) (*models.Fine, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+fineColumns+` FROM fines WHERE id = $1 FOR UPDATE`, uuid.UUID(fineID))
	fine, err := scanFine(row)
	if err != nil {
		return nil, err
	}

	if err := validate(fine); err != nil {
		return nil, err
	}
	mutate(fine)

	_, err = tx.ExecContext(ctx, `
		UPDATE fines
		SET status = $2, settled_at = $3
		WHERE id = $1
	`, uuid.UUID(fine.ID), string(fine.Status), fine.SettledAt)
	if err != nil {
		return nil, fmt.Errorf("update fine: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit fine update: %w", err)
	}
	return fine, nil
}

func (s *Postgres) ListFinesByCitizen(ctx context.Context, citizenID id.CitizenID) ([]*models.Fine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+fineColumns+` FROM fines
		WHERE citizen_id = $1
		ORDER BY issued_at, id
	`, uuid.UUID(citizenID))
	if err != nil {
		return nil, fmt.Errorf("list fines: %w", err)
	}
	defer rows.Close()

	fines := make([]*models.Fine, 0)
	for rows.Next() {
		fine, err := scanFine(rows)
		if err != nil {
			return nil, err
		}
		fines = append(fines, fine)
	}
	return fines, rows.Err()
}

func (s *Postgres) CountOpenFines(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM fines WHERE status = 'issued'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count open fines: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func scanWanted(row rowScanner) (*models.WantedRecord, error) {
	var record models.WantedRecord
	var wantedID, citizenID uuid.UUID
	var clearedBy sql.NullString
	var clearedAt sql.NullTime
	err := row.Scan(&wantedID, &citizenID, &record.Reason, &record.IssuedBy,
		&record.IssuedAt, &record.Cleared, &clearedBy, &clearedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan wanted record: %w", err)
	}
	record.ID = id.WantedID(wantedID)
	record.CitizenID = id.CitizenID(citizenID)
	record.ClearedBy = clearedBy.String
	if clearedAt.Valid {
		at := clearedAt.Time
		record.ClearedAt = &at
	}
	return &record, nil
}

func scanFine(row rowScanner) (*models.Fine, error) {
	var fine models.Fine
	var fineID, citizenID uuid.UUID
	var status string
	var settledAt sql.NullTime
	err := row.Scan(&fineID, &citizenID, &fine.Amount, &fine.Reason,
		&fine.IssuedBy, &status, &fine.IssuedAt, &settledAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan fine: %w", err)
	}
	fine.ID = id.FineID(fineID)
	fine.CitizenID = id.CitizenID(citizenID)
	fine.Status = models.FineStatus(status)
	if settledAt.Valid {
		at := settledAt.Time
		fine.SettledAt = &at
	}
	return &fine, nil
}
