package auth

import (
	"crypto/sha256"
	"time"

	"github.com/manup/agenda/internal/common"
)

// ResetToken is a freshly issued password reset token. Token goes to the
// account owner; only Hash is persisted.
type ResetToken struct {
	Token     string
	Hash      []byte
	ExpiresAt time.Time
}

// NewResetToken draws common.ResetTokenBytes random bytes, hex encodes
// them and stamps an expiry of now+ttl.
func NewResetToken(ttl time.Duration, now time.Time) (ResetToken, error) {
	token, err := common.MakeRandHexString(common.ResetTokenBytes)
	if err != nil {
		return ResetToken{}, err
	}
	return ResetToken{
		Token:     token,
		Hash:      HashResetToken(token),
		ExpiresAt: now.Add(ttl),
	}, nil
}

// HashResetToken is the lookup key stored for a reset token.
func HashResetToken(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	return sum[:]
}
