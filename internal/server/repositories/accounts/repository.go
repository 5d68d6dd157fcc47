// Package accounts is the credential store: account rows together with
// their password hash and the outstanding password reset token, if any.
package accounts

import (
	"context"
	"time"

	"github.com/manup/agenda/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByID(ctx context.Context, id string) (*models.Account, error)
	SetResetToken(ctx context.Context, accountID string, tokenHash []byte, expiresAt time.Time) error
	FindByValidResetToken(ctx context.Context, tokenHash []byte, now time.Time) (*models.Account, error)
	UpdatePasswordAndClearToken(ctx context.Context, accountID string, tokenHash []byte, newHash string, now time.Time) error
	UpdatePasswordHash(ctx context.Context, accountID string, newHash string) error
	PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}
