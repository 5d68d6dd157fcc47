package httpapi

import (
	"time"

	"github.com/manup/agenda/internal/server/models"
	"github.com/manup/agenda/internal/server/services"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type registerResponse struct {
	AccountID string `json:"accountId"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string          `json:"token"`
	ExpiresIn int64           `json:"expiresIn"`
	Account   accountResponse `json:"account"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetCompleteRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type accountResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toAccount(a *models.Account) accountResponse {
	return accountResponse{ID: a.ID, Email: a.Email, DisplayName: a.DisplayName, CreatedAt: a.CreatedAt}
}

type appointmentRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ScheduledAt time.Time `json:"scheduledAt"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type appointmentResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toAppointment(a *models.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		ScheduledAt: a.ScheduledAt,
		Status:      string(a.Status),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

type postRequest struct {
	Body          string `json:"body"`
	AttachmentKey string `json:"attachmentKey"`
}

type postResponse struct {
	ID            string    `json:"id"`
	AccountID     string    `json:"accountId"`
	AuthorName    string    `json:"authorName"`
	Body          string    `json:"body"`
	AttachmentKey string    `json:"attachmentKey,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toPost(p *models.ForumPost) postResponse {
	return postResponse{
		ID:            p.ID,
		AccountID:     p.AccountID,
		AuthorName:    p.AuthorName,
		Body:          p.Body,
		AttachmentKey: p.AttachmentKey,
		CreatedAt:     p.CreatedAt,
	}
}

type postPageResponse struct {
	Posts      []postResponse `json:"posts"`
	NextCursor string         `json:"next_cursor"`
}

func toPostPage(p *services.PostPage) postPageResponse {
	out := postPageResponse{Posts: make([]postResponse, 0, len(p.Posts)), NextCursor: p.NextCursor}
	for _, post := range p.Posts {
		out.Posts = append(out.Posts, toPost(post))
	}
	return out
}

type attachmentResponse struct {
	Key string `json:"key,omitempty"`
	URL string `json:"url"`
}

type bmiRequest struct {
	HeightCm float64 `json:"heightCm"`
	WeightKg float64 `json:"weightKg"`
}

type bmiResponse struct {
	Value    float64 `json:"value"`
	Category string  `json:"category"`
	Label    string  `json:"label"`
	Message  string  `json:"message"`
}
