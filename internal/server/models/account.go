// Package models defines server-side data models persisted in the database.
package models

import "time"

// Account is a registered user. ResetTokenHash and ResetTokenExpiresAt are
// either both nil or both set.
type Account struct {
	ID                  string
	Email               string
	DisplayName         string
	PasswordHash        string
	CreatedAt           time.Time
	ResetTokenHash      []byte
	ResetTokenExpiresAt *time.Time
}

// HasResetToken reports whether a reset token is outstanding, regardless of expiry.
func (a *Account) HasResetToken() bool {
	return a.ResetTokenHash != nil && a.ResetTokenExpiresAt != nil
}
