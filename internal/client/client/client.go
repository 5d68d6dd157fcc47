package client

import (
	"context"
	"time"
)

type Account struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Appointment struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Status      string    `json:"status"`
}

type Post struct {
	ID            string    `json:"id"`
	AccountID     string    `json:"accountId"`
	AuthorName    string    `json:"authorName"`
	Body          string    `json:"body"`
	AttachmentKey string    `json:"attachmentKey,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type PostPage struct {
	Posts      []Post `json:"posts"`
	NextCursor string `json:"next_cursor"`
}

type BMI struct {
	Value    float64 `json:"value"`
	Category string  `json:"category"`
	Label    string  `json:"label"`
	Message  string  `json:"message"`
}

// Client is the API surface used by the CLI.
type Client interface {
	Ping(ctx context.Context) error
	Register(ctx context.Context, email string, password []byte, displayName string) (string, error)
	Login(ctx context.Context, email string, password []byte) (*Account, error)
	Logout()
	RequestReset(ctx context.Context, email string) (string, error)
	CompleteReset(ctx context.Context, token string, newPassword []byte) (string, error)
	Me(ctx context.Context) (*Account, error)

	Appointments(ctx context.Context) ([]Appointment, error)
	AddAppointment(ctx context.Context, title string, at time.Time, description string) (*Appointment, error)
	SetAppointmentStatus(ctx context.Context, id, status string) (*Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error

	Posts(ctx context.Context, cursor string, limit int) (*PostPage, error)
	AddPost(ctx context.Context, body, attachmentKey string) (*Post, error)
	AttachmentUploadURL(ctx context.Context) (key, url string, err error)
	Upload(ctx context.Context, url string, data []byte) error

	BMI(ctx context.Context, heightCm, weightKg float64) (*BMI, error)
}
