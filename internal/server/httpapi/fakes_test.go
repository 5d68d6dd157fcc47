package httpapi

import (
	"context"
	"time"

	"github.com/manup/agenda/internal/common"
	"github.com/manup/agenda/internal/server/auth"
	"github.com/manup/agenda/internal/server/models"
	"github.com/manup/agenda/internal/server/services"
)

const validToken = "valid-token"

type fakeAuth struct {
	register func(email, password, displayName string) (*models.Account, error)
	login    func(email, password string) (*services.LoginResult, error)
	reset    func(email string) error
	complete func(token, newPassword string) error

	resetCalls []string
}

func (f *fakeAuth) Register(_ context.Context, email, password, displayName string) (*models.Account, error) {
	if f.register == nil {
		return &models.Account{ID: "acc-1", Email: email, DisplayName: displayName}, nil
	}
	return f.register(email, password, displayName)
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (*services.LoginResult, error) {
	return f.login(email, password)
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*auth.Claims, error) {
	if token != validToken {
		return nil, common.ErrInvalidToken
	}
	return &auth.Claims{AccountID: "acc-1", Email: "a@x.com"}, nil
}

func (f *fakeAuth) Profile(_ context.Context, accountID string) (*models.Account, error) {
	if accountID != "acc-1" {
		return nil, common.ErrorNotFound
	}
	return &models.Account{ID: accountID, Email: "a@x.com", DisplayName: "Ana"}, nil
}

func (f *fakeAuth) RequestPasswordReset(_ context.Context, email string) error {
	f.resetCalls = append(f.resetCalls, email)
	if f.reset == nil {
		return nil
	}
	return f.reset(email)
}

func (f *fakeAuth) CompletePasswordReset(_ context.Context, token, newPassword string) error {
	return f.complete(token, newPassword)
}

type fakeAppointments struct {
	items    map[string]*models.Appointment
	lastUser string
}

func newFakeAppointments() *fakeAppointments {
	return &fakeAppointments{items: map[string]*models.Appointment{}}
}

func (f *fakeAppointments) Create(_ context.Context, accountID, title string, scheduledAt time.Time, description string) (*models.Appointment, error) {
	if title == "" || scheduledAt.IsZero() {
		return nil, common.ErrValidation
	}
	a := &models.Appointment{
		ID:          "ap-1",
		AccountID:   accountID,
		Title:       title,
		Description: description,
		ScheduledAt: scheduledAt,
		Status:      models.AppointmentPending,
	}
	f.items[a.ID] = a
	return a, nil
}

func (f *fakeAppointments) List(_ context.Context, accountID string) ([]*models.Appointment, error) {
	f.lastUser = accountID
	var out []*models.Appointment
	for _, a := range f.items {
		if a.AccountID == accountID && a.Status != models.AppointmentDeleted {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAppointments) SetStatus(_ context.Context, accountID, id string, status models.AppointmentStatus) (*models.Appointment, error) {
	if !status.Valid() {
		return nil, common.ErrValidation
	}
	a, ok := f.items[id]
	if !ok || a.AccountID != accountID || a.Status == models.AppointmentDeleted {
		return nil, common.ErrorNotFound
	}
	if !a.Status.CanTransition(status) {
		return nil, common.ErrInvalidTransition
	}
	a.Status = status
	return a, nil
}

func (f *fakeAppointments) Delete(ctx context.Context, accountID, id string) error {
	_, err := f.SetStatus(ctx, accountID, id, models.AppointmentDeleted)
	if err == common.ErrInvalidTransition {
		return common.ErrorNotFound
	}
	return err
}

type fakeForum struct {
	page        *services.PostPage
	lastCursor  string
	lastLimit   int
	attachments bool
}

func (f *fakeForum) CreatePost(_ context.Context, accountID, body, attachmentKey string) (*models.ForumPost, error) {
	if body == "" {
		return nil, common.ErrValidation
	}
	if attachmentKey != "" && !f.attachments {
		return nil, common.ErrFeatureDisabled
	}
	return &models.ForumPost{ID: "p-1", AccountID: accountID, AuthorName: "Ana", Body: body, AttachmentKey: attachmentKey}, nil
}

func (f *fakeForum) ListPosts(_ context.Context, cursor string, limit int) (*services.PostPage, error) {
	f.lastCursor, f.lastLimit = cursor, limit
	if cursor == "bad" || limit < 0 {
		return nil, common.ErrValidation
	}
	if f.page == nil {
		return &services.PostPage{}, nil
	}
	return f.page, nil
}

func (f *fakeForum) DeletePost(_ context.Context, accountID, id string) error {
	if id != "p-1" || accountID != "acc-1" {
		return common.ErrorNotFound
	}
	return nil
}

func (f *fakeForum) AttachmentUploadURL(_ context.Context, accountID string) (string, string, error) {
	if !f.attachments {
		return "", "", common.ErrFeatureDisabled
	}
	key := "forum/" + accountID + "/k"
	return key, "https://s3.local/put/" + key, nil
}

func (f *fakeForum) AttachmentURL(_ context.Context, key string) (string, error) {
	if !f.attachments {
		return "", common.ErrFeatureDisabled
	}
	return "https://s3.local/get/" + key, nil
}
