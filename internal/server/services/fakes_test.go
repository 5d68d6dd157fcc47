package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/manup/agenda/internal/common"
	"github.com/manup/agenda/internal/cryptox"
	"github.com/manup/agenda/internal/dbx"
	"github.com/manup/agenda/internal/server/models"
	"github.com/manup/agenda/internal/server/repositories/accounts"
	"github.com/manup/agenda/internal/server/repositories/appointments"
	"github.com/manup/agenda/internal/server/repositories/posts"
	"github.com/stretchr/testify/require"
)

var errDB = errors.New("db error: connection reset")

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func testHasher() *cryptox.Argon2Hasher {
	return cryptox.NewArgon2Hasher(cryptox.Params{Time: 1, Memory: 8 * 1024, Threads: 1})
}

// fakeAccounts is an in-memory credential store with the same conditional
// update semantics as the SQL one.
type fakeAccounts struct {
	mu   sync.Mutex
	byID map[string]*models.Account

	findErr   error
	createErr error
	setErr    error
	updateErr error

	rehashed []string
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byID: map[string]*models.Account{}}
}

func (f *fakeAccounts) Create(_ context.Context, a *models.Account) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, existing := range f.byID {
		if existing.Email == a.Email {
			return nil, common.ErrDuplicateEmail
		}
	}
	cp := *a
	cp.ID = uuid.NewString()
	cp.CreatedAt = time.Now()
	f.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeAccounts) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, a := range f.byID {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeAccounts) FindByID(_ context.Context, id string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	a, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) SetResetToken(_ context.Context, id string, hash []byte, exp time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	a, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.ResetTokenHash = append([]byte(nil), hash...)
	a.ResetTokenExpiresAt = &exp
	return nil
}

func (f *fakeAccounts) FindByValidResetToken(_ context.Context, hash []byte, now time.Time) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if a.HasResetToken() && bytes.Equal(a.ResetTokenHash, hash) && a.ResetTokenExpiresAt.After(now) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeAccounts) UpdatePasswordAndClearToken(_ context.Context, id string, hash []byte, newHash string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	a, ok := f.byID[id]
	if !ok || !a.HasResetToken() || !bytes.Equal(a.ResetTokenHash, hash) || !a.ResetTokenExpiresAt.After(now) {
		return common.ErrInvalidOrExpiredToken
	}
	a.PasswordHash = newHash
	a.ResetTokenHash = nil
	a.ResetTokenExpiresAt = nil
	return nil
}

func (f *fakeAccounts) UpdatePasswordHash(_ context.Context, id, newHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.PasswordHash = newHash
	f.rehashed = append(f.rehashed, id)
	return nil
}

func (f *fakeAccounts) PurgeExpiredResetTokens(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, a := range f.byID {
		if a.HasResetToken() && !a.ResetTokenExpiresAt.After(now) {
			a.ResetTokenHash, a.ResetTokenExpiresAt = nil, nil
			n++
		}
	}
	return n, nil
}

// get returns a snapshot of the stored account.
func (f *fakeAccounts) get(id string) *models.Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := *f.byID[id]
	return &a
}

type fakeAppointments struct {
	mu    sync.Mutex
	items map[string]*models.Appointment
	err   error
}

func newFakeAppointments() *fakeAppointments {
	return &fakeAppointments{items: map[string]*models.Appointment{}}
}

func (f *fakeAppointments) Create(_ context.Context, a *models.Appointment) (*models.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	cp := *a
	cp.ID = uuid.NewString()
	cp.Status = models.AppointmentPending
	cp.CreatedAt, cp.UpdatedAt = time.Now(), time.Now()
	f.items[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeAppointments) ListActive(_ context.Context, accountID string) ([]*models.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*models.Appointment, 0)
	for _, a := range f.items {
		if a.AccountID == accountID && a.Status != models.AppointmentDeleted {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

func (f *fakeAppointments) GetForUpdate(_ context.Context, accountID, id string) (*models.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.items[id]
	if !ok || a.AccountID != accountID {
		return nil, common.ErrorNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAppointments) UpdateStatus(_ context.Context, id string, status models.AppointmentStatus) (*models.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	a.Status = status
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

type fakePosts struct {
	mu        sync.Mutex
	items     []*models.ForumPost
	err       error
	lastAfter *posts.Cursor
	lastLimit int
}

func (f *fakePosts) Create(_ context.Context, p *models.ForumPost) (*models.ForumPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	cp := *p
	cp.ID = uuid.NewString()
	cp.CreatedAt = time.Now()
	f.items = append(f.items, &cp)
	out := cp
	return &out, nil
}

// List mimics ORDER BY created_at DESC, id DESC with a keyset cursor.
func (f *fakePosts) List(_ context.Context, after *posts.Cursor, limit int) ([]*models.ForumPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastAfter, f.lastLimit = after, limit
	if f.err != nil {
		return nil, f.err
	}
	sorted := append([]*models.ForumPost(nil), f.items...)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		}
		return sorted[i].ID > sorted[j].ID
	})
	out := make([]*models.ForumPost, 0, limit)
	for _, p := range sorted {
		if after != nil {
			if p.CreatedAt.After(after.CreatedAt) || (p.CreatedAt.Equal(after.CreatedAt) && p.ID >= after.ID) {
				continue
			}
		}
		if len(out) == limit {
			break
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakePosts) Delete(_ context.Context, accountID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for i, p := range f.items {
		if p.ID == id && p.AccountID == accountID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return common.ErrorNotFound
}

type fakeRepoManager struct {
	accounts     *fakeAccounts
	appointments *fakeAppointments
	posts        *fakePosts
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		accounts:     newFakeAccounts(),
		appointments: newFakeAppointments(),
		posts:        &fakePosts{},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Accounts(dbx.DBTX) accounts.Repository        { return m.accounts }
func (m *fakeRepoManager) Appointments(dbx.DBTX) appointments.Repository {
	return m.appointments
}
func (m *fakeRepoManager) Posts(dbx.DBTX) posts.Repository { return m.posts }

// fakeNotifier records reset links.
type fakeNotifier struct {
	mu        sync.Mutex
	available bool
	err       error
	sent      []sentReset
}

type sentReset struct {
	to, link string
	validFor time.Duration
}

func (n *fakeNotifier) Available() bool { return n.available }

func (n *fakeNotifier) SendPasswordReset(_ context.Context, to, link string, validFor time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentReset{to: to, link: link, validFor: validFor})
	return nil
}

func (n *fakeNotifier) last(t *testing.T) sentReset {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.sent)
	return n.sent[len(n.sent)-1]
}
