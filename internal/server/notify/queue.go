package notify

import (
	"context"
	"errors"
	"time"

	"github.com/manup/agenda/internal/logging"
)

var ErrQueueFull = errors.New("notification queue full")

const defaultSendTimeout = 30 * time.Second

type resetJob struct {
	to       string
	link     string
	validFor time.Duration
}

// Queue hands reset messages to a background worker, so a request only
// waits for the message to be accepted and never for the relay.
// Delivery failures are logged by the worker.
type Queue struct {
	next        Notifier
	jobs        chan resetJob
	log         logging.Logger
	sendTimeout time.Duration
}

func NewQueue(next Notifier, size int, log logging.Logger) *Queue {
	if size <= 0 {
		size = 1
	}
	return &Queue{
		next:        next,
		jobs:        make(chan resetJob, size),
		log:         log.With("module", "notify"),
		sendTimeout: defaultSendTimeout,
	}
}

// Available is false while the wrapped channel is unconfigured or the
// queue has no free slot.
func (q *Queue) Available() bool {
	return q.next.Available() && len(q.jobs) < cap(q.jobs)
}

func (q *Queue) SendPasswordReset(_ context.Context, to, link string, validFor time.Duration) error {
	if !q.next.Available() {
		return ErrUnavailable
	}
	select {
	case q.jobs <- resetJob{to: to, link: link, validFor: validFor}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run delivers queued messages until ctx is done. Messages still queued
// at that point are dropped; their links stay valid until they expire.
func (q *Queue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			if n := len(q.jobs); n > 0 {
				q.log.Warn(ctx, "dropping undelivered reset messages", "count", n)
			}
			return
		case j := <-q.jobs:
			q.deliver(ctx, j)
		}
	}
}

func (q *Queue) deliver(ctx context.Context, j resetJob) {
	sendCtx, cancel := context.WithTimeout(ctx, q.sendTimeout)
	defer cancel()

	if err := q.next.SendPasswordReset(sendCtx, j.to, j.link, j.validFor); err != nil {
		q.log.Error(ctx, "password reset delivery failed", "error", err)
	}
}
