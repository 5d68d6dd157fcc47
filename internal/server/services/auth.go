// Package services contains server-side business logic. This file implements
// AuthService: registration, login, session verification and the two-step
// password reset.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/manup/agenda/internal/common"
	"github.com/manup/agenda/internal/cryptox"
	"github.com/manup/agenda/internal/logging"
	"github.com/manup/agenda/internal/server/auth"
	"github.com/manup/agenda/internal/server/config"
	"github.com/manup/agenda/internal/server/models"
	"github.com/manup/agenda/internal/server/notify"
	"github.com/manup/agenda/internal/server/repositories/repomanager"
)

const (
	maxEmailLength       = 254
	maxPasswordLength    = 256
	maxDisplayNameLength = 120
)

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	Token     string
	ExpiresIn time.Duration
	Account   *models.Account
}

type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      cryptox.PasswordHasher
	notifier    notify.Notifier
	log         logging.Logger

	jwtSecret  []byte
	sessionTTL time.Duration
	resetTTL   time.Duration
	resetURL   *url.URL

	// dummyHash is verified against when the email is unknown so that both
	// login failures cost one hash verification.
	dummyHash string
	now       func() time.Time
}

// NewAuthService constructs an AuthService. It fails when the configured
// reset URL is not absolute or the hasher cannot produce the dummy hash.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config,
	hasher cryptox.PasswordHasher, notifier notify.Notifier, log logging.Logger) (*AuthService, error) {

	resetURL, err := url.Parse(cfg.ResetURL)
	if err != nil || !resetURL.IsAbs() {
		return nil, fmt.Errorf("invalid reset url %q", cfg.ResetURL)
	}

	seed, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	dummy, err := hasher.Hash(seed)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}

	return &AuthService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		notifier:    notifier,
		log:         log,
		jwtSecret:   []byte(cfg.SecretKey),
		sessionTTL:  cfg.SessionTTL,
		resetTTL:    cfg.ResetTokenTTL,
		resetURL:    resetURL,
		dummyHash:   dummy,
		now:         time.Now,
	}, nil
}

// Register creates an account. An empty display name defaults to the local
// part of the email.
func (s *AuthService) Register(ctx context.Context, email, password, displayName string) (*models.Account, error) {
	email = normalizeEmail(email)
	displayName = strings.TrimSpace(displayName)

	if !validEmail(email) || !validPassword(password) || len(displayName) > maxDisplayNameLength {
		return nil, common.ErrValidation
	}
	if displayName == "" {
		displayName = email[:strings.IndexByte(email, '@')]
	}

	repo := s.repomanager.Accounts(s.db)

	_, err := repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, common.ErrDuplicateEmail
	case !errors.Is(err, common.ErrorNotFound):
		s.log.Error(ctx, "register: lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.log.Error(ctx, "register: hash failed", "error", err)
		return nil, common.ErrorInternal
	}

	account, err := repo.Create(ctx, &models.Account{Email: email, DisplayName: displayName, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			return nil, common.ErrDuplicateEmail
		}
		s.log.Error(ctx, "register: create failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.log.Info(ctx, "account registered", "account_id", account.ID)
	return account, nil
}

// Login checks the credentials and issues a session token. Unknown email
// and wrong password produce the same common.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, common.ErrValidation
	}

	repo := s.repomanager.Accounts(s.db)

	account, err := repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			return nil, common.ErrInvalidCredentials
		}
		s.log.Error(ctx, "login: lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(account.PasswordHash) {
		s.rehash(ctx, account.ID, password)
	}

	token, err := auth.GenerateToken(account.ID, account.Email, s.jwtSecret, s.sessionTTL)
	if err != nil {
		s.log.Error(ctx, "login: sign token failed", "account_id", account.ID, "error", err)
		return nil, common.ErrorInternal
	}

	return &LoginResult{Token: token, ExpiresIn: s.sessionTTL, Account: account}, nil
}

// rehash upgrades a stored hash to the current work factor. Failure only
// costs the upgrade.
func (s *AuthService) rehash(ctx context.Context, accountID, password string) {
	hash, err := s.hasher.Hash(password)
	if err == nil {
		err = s.repomanager.Accounts(s.db).UpdatePasswordHash(ctx, accountID, hash)
	}
	if err != nil {
		s.log.Warn(ctx, "login: rehash failed", "account_id", accountID, "error", err)
		return
	}
	s.log.Info(ctx, "password hash upgraded", "account_id", accountID)
}

// Authenticate verifies a bearer token.
func (s *AuthService) Authenticate(_ context.Context, token string) (*auth.Claims, error) {
	return auth.ParseToken(token, s.jwtSecret)
}

func (s *AuthService) Profile(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := s.repomanager.Accounts(s.db).FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.log.Error(ctx, "profile: lookup failed", "account_id", accountID, "error", err)
		return nil, common.ErrorInternal
	}
	return account, nil
}

// RequestPasswordReset issues a reset token for email and delivers the
// link. The result is the same whether or not the account exists; only a
// broken notification channel or storage surfaces as an error.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return common.ErrValidation
	}

	if !s.notifier.Available() {
		s.log.Error(ctx, "reset request: notification channel not configured")
		return common.ErrNotification
	}

	repo := s.repomanager.Accounts(s.db)

	account, err := repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		s.log.Error(ctx, "reset request: lookup failed", "error", err)
		return common.ErrorInternal
	}

	token, err := auth.NewResetToken(s.resetTTL, s.now())
	if err != nil {
		s.log.Error(ctx, "reset request: token generation failed", "error", err)
		return common.ErrorInternal
	}

	if err := repo.SetResetToken(ctx, account.ID, token.Hash, token.ExpiresAt); err != nil {
		s.log.Error(ctx, "reset request: persist token failed", "account_id", account.ID, "error", err)
		return common.ErrorInternal
	}

	if err := s.notifier.SendPasswordReset(ctx, account.Email, s.resetLink(token.Token), s.resetTTL); err != nil {
		s.log.Error(ctx, "reset request: delivery failed", "account_id", account.ID, "error", err)
		return common.ErrNotification
	}

	s.log.Info(ctx, "password reset issued", "account_id", account.ID)
	return nil
}

// CompletePasswordReset consumes token and sets the new password. Of two
// concurrent completions with the same token exactly one succeeds.
func (s *AuthService) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" || !validPassword(newPassword) {
		return common.ErrValidation
	}

	repo := s.repomanager.Accounts(s.db)
	tokenHash := auth.HashResetToken(token)
	now := s.now()

	account, err := repo.FindByValidResetToken(ctx, tokenHash, now)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidOrExpiredToken
		}
		s.log.Error(ctx, "reset complete: lookup failed", "error", err)
		return common.ErrorInternal
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		s.log.Error(ctx, "reset complete: hash failed", "account_id", account.ID, "error", err)
		return common.ErrorInternal
	}

	if err := repo.UpdatePasswordAndClearToken(ctx, account.ID, tokenHash, hash, now); err != nil {
		if errors.Is(err, common.ErrInvalidOrExpiredToken) {
			return common.ErrInvalidOrExpiredToken
		}
		s.log.Error(ctx, "reset complete: update failed", "account_id", account.ID, "error", err)
		return common.ErrorInternal
	}

	s.log.Info(ctx, "password reset completed", "account_id", account.ID)
	return nil
}

// PurgeExpiredResetTokens clears reset tokens past their expiry.
func (s *AuthService) PurgeExpiredResetTokens(ctx context.Context) (int64, error) {
	return s.repomanager.Accounts(s.db).PurgeExpiredResetTokens(ctx, s.now())
}

func (s *AuthService) resetLink(token string) string {
	u := *s.resetURL
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	if email == "" || len(email) > maxEmailLength || strings.ContainsAny(email, " \t\r\n") {
		return false
	}
	at := strings.IndexByte(email, '@')
	return at > 0 && at < len(email)-1 && strings.Count(email, "@") == 1
}

func validPassword(password string) bool {
	return password != "" && len(password) <= maxPasswordLength
}
