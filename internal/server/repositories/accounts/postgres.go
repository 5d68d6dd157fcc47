package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/manup/agenda/internal/common"
	"github.com/manup/agenda/internal/dbx"
	"github.com/manup/agenda/internal/server/models"
)

const selectColumns = `id, email, display_name, password_hash, created_at, reset_token_hash, reset_token_expires_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts account, assigning its ID and CreatedAt. A taken email
// yields common.ErrDuplicateEmail.
func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (id, email, display_name, password_hash)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at
		 `

	id := uuid.NewString()
	err := r.db.QueryRowContext(ctx, query,
		id, account.Email, account.DisplayName, account.PasswordHash).Scan(&account.CreatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	account.ID = id
	return account, nil
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + selectColumns + ` FROM accounts
		 WHERE email = $1
		 `
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + selectColumns + ` FROM accounts
		 WHERE id = $1
		 `
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// SetResetToken records a new reset token, replacing any previous one.
func (r *PostgresRepository) SetResetToken(ctx context.Context, accountID string, tokenHash []byte, expiresAt time.Time) error {
	query :=
		`UPDATE accounts SET reset_token_hash = $1, reset_token_expires_at = $2
		 WHERE id = $3
		 `

	res, err := r.db.ExecContext(ctx, query, tokenHash, expiresAt, accountID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res, common.ErrorNotFound)
}

// FindByValidResetToken returns the account holding tokenHash provided the
// token expires strictly after now.
func (r *PostgresRepository) FindByValidResetToken(ctx context.Context, tokenHash []byte, now time.Time) (*models.Account, error) {
	query := `SELECT ` + selectColumns + ` FROM accounts
		 WHERE reset_token_hash = $1 AND reset_token_expires_at > $2
		 `
	return r.scanOne(r.db.QueryRowContext(ctx, query, tokenHash, now))
}

// UpdatePasswordAndClearToken sets the new password hash and clears the
// reset token in one statement, but only while the account still holds
// tokenHash unexpired. Losing a race, or a token consumed in between,
// yields common.ErrInvalidOrExpiredToken.
func (r *PostgresRepository) UpdatePasswordAndClearToken(ctx context.Context, accountID string, tokenHash []byte, newHash string, now time.Time) error {
	query :=
		`UPDATE accounts
		 SET password_hash = $1, reset_token_hash = NULL, reset_token_expires_at = NULL
		 WHERE id = $2 AND reset_token_hash = $3 AND reset_token_expires_at > $4
		 `

	res, err := r.db.ExecContext(ctx, query, newHash, accountID, tokenHash, now)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res, common.ErrInvalidOrExpiredToken)
}

func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, accountID string, newHash string) error {
	query :=
		`UPDATE accounts SET password_hash = $1
		 WHERE id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, newHash, accountID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res, common.ErrorNotFound)
}

// PurgeExpiredResetTokens clears reset tokens that expired at or before now.
func (r *PostgresRepository) PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	query :=
		`UPDATE accounts SET reset_token_hash = NULL, reset_token_expires_at = NULL
		 WHERE reset_token_expires_at <= $1
		 `

	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.Account, error) {
	account := &models.Account{}
	var expires sql.NullTime

	err := row.Scan(&account.ID, &account.Email, &account.DisplayName, &account.PasswordHash,
		&account.CreatedAt, &account.ResetTokenHash, &expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if expires.Valid {
		t := expires.Time
		account.ResetTokenExpiresAt = &t
	}
	return account, nil
}

func requireRow(res sql.Result, none error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return none
	}
	return nil
}
