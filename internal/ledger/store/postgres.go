package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"civica/internal/ledger/models"
	id "civica/pkg/domain"
	"civica/pkg/platform/sentinel"
)

// Postgres persists accounts in PostgreSQL. Execute maps the validate-then-
// mutate contract onto a transaction with SELECT ... FOR UPDATE, so the
// row-level lock covers the whole read-modify-write.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, account *models.Account) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ledger_accounts (citizen_id, cash, bank, updated_at)
		VALUES ($1, $2, $3, $4)
	`, uuid.UUID(account.CitizenID), account.Cash, account.Bank, account.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *Postgres) FindByCitizen(ctx context.Context, citizenID id.CitizenID) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT citizen_id, cash, bank, updated_at
		FROM ledger_accounts WHERE citizen_id = $1
	`, uuid.UUID(citizenID))
	return scanAccount(row)
}

func (s *Postgres) Execute(
	ctx context.Context,
	citizenID id.CitizenID,
	validate func(*models.Account) error,
	mutate func(*models.Account),
) (*models.Account, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		SELECT citizen_id, cash, bank, updated_at
		FROM ledger_accounts WHERE citizen_id = $1
		FOR UPDATE
	`, uuid.UUID(citizenID))
	account, err := scanAccount(row)
	if err != nil {
		return nil, err
	}

	if err := validate(account); err != nil {
		return nil, err
	}
	mutate(account)

	_, err = tx.ExecContext(ctx, `
		UPDATE ledger_accounts SET cash = $2, bank = $3, updated_at = $4
		WHERE citizen_id = $1
	`, uuid.UUID(account.CitizenID), account.Cash, account.Bank, account.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit account update: %w", err)
	}
	return account, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var account models.Account
	var citizenID uuid.UUID
	err := row.Scan(&citizenID, &account.Cash, &account.Bank, &account.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	account.CitizenID = id.CitizenID(citizenID)
	return &account, nil
}
