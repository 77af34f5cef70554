package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/results-app/internal/models"
	appErrors "github.com/noah-isme/results-app/pkg/errors"
)

const uniqueViolation = "23505"

// AccountRepository provides database access for dev server accounts.
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository creates a new instance of AccountRepository.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, email, password_hash, first_name, last_name, created_at, updated_at`

// FindByEmail returns an account by email address.
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE LOWER(email) = LOWER($1) LIMIT 1`
	var account models.Account
	if err := r.db.GetContext(ctx, &account, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find account by email: %w", err)
	}
	return &account, nil
}

// FindByID returns an account by identifier.
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 LIMIT 1`
	var account models.Account
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find account by id: %w", err)
	}
	return &account, nil
}

// Create inserts a new account. A duplicate email yields ErrConflict.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	const query = `INSERT INTO accounts (` + accountColumns + `) VALUES (:id, :email, :password_hash, :first_name, :last_name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, account); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}
