package notify

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/manup/agenda/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu        sync.Mutex
	available bool
	err       error
	release   chan struct{}
	links     []string
	delivered chan struct{}
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{available: true, delivered: make(chan struct{}, 16)}
}

func (r *recordingNotifier) Available() bool { return r.available }

func (r *recordingNotifier) SendPasswordReset(ctx context.Context, _, link string, _ time.Duration) error {
	if r.release != nil {
		select {
		case <-r.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	r.links = append(r.links, link)
	r.mu.Unlock()
	r.delivered <- struct{}{}
	return r.err
}

func (r *recordingNotifier) sent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.links...)
}

func waitDelivered(t *testing.T, r *recordingNotifier) {
	t.Helper()
	select {
	case <-r.delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
}

func TestQueue_DeliversInBackground(t *testing.T) {
	next := newRecordingNotifier()
	next.release = make(chan struct{})
	q := NewQueue(next, 4, logging.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	start := time.Now()
	require.NoError(t, q.SendPasswordReset(context.Background(), "ana@x.io", "https://m/r?token=a", time.Hour))
	assert.Less(t, time.Since(start), time.Second, "caller does not wait for the relay")
	assert.Empty(t, next.sent())

	close(next.release)
	waitDelivered(t, next)
	assert.Equal(t, []string{"https://m/r?token=a"}, next.sent())
}

func TestQueue_FullQueue(t *testing.T) {
	next := newRecordingNotifier()
	q := NewQueue(next, 1, logging.Nop())

	assert.True(t, q.Available())
	require.NoError(t, q.SendPasswordReset(context.Background(), "a@x.io", "l1", time.Hour))

	assert.False(t, q.Available(), "no free slot")
	assert.ErrorIs(t, q.SendPasswordReset(context.Background(), "b@x.io", "l2", time.Hour), ErrQueueFull)
}

func TestQueue_UnavailableChannel(t *testing.T) {
	q := NewQueue(Disabled{}, 4, logging.Nop())

	assert.False(t, q.Available())
	assert.ErrorIs(t, q.SendPasswordReset(context.Background(), "a@x.io", "l", time.Hour), ErrUnavailable)
}

func TestQueue_LogsDeliveryFailure(t *testing.T) {
	var buf syncBuffer
	next := newRecordingNotifier()
	next.err = errors.New("relay refused")
	q := NewQueue(next, 4, logging.New(&buf, "debug"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(done)
	}()

	require.NoError(t, q.SendPasswordReset(context.Background(), "secret@x.io", "l", time.Hour))
	waitDelivered(t, next)
	cancel()
	<-done

	assert.Contains(t, buf.String(), "relay refused")
	assert.NotContains(t, buf.String(), "secret@x.io")
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
