// Package notify delivers out-of-band messages to account owners.
package notify

import (
	"context"
	"time"

	"github.com/manup/agenda/internal/logging"
)

// Notifier sends password reset links. Available reports whether the
// channel is configured at all; callers check it before doing any work so
// that an unconfigured channel fails the same way for every request.
type Notifier interface {
	Available() bool
	SendPasswordReset(ctx context.Context, to, link string, validFor time.Duration) error
}

// Disabled is the Notifier used when no delivery channel is configured.
type Disabled struct{}

func (Disabled) Available() bool { return false }

func (Disabled) SendPasswordReset(context.Context, string, string, time.Duration) error {
	return ErrUnavailable
}

// LogNotifier writes reset links to the log instead of mailing them. It is
// meant for local development only.
type LogNotifier struct {
	log logging.Logger
}

func NewLogNotifier(log logging.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Available() bool { return true }

func (n *LogNotifier) SendPasswordReset(ctx context.Context, _ string, link string, validFor time.Duration) error {
	n.log.Warn(ctx, "password reset link (development delivery)", "link", link, "valid_for", validFor.String())
	return nil
}
