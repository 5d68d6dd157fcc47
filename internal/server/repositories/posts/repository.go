package posts

import (
	"context"
	"time"

	"github.com/manup/agenda/internal/server/models"
)

// Cursor is the position of the last post of a page in
// (created_at DESC, id DESC) order.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

type Repository interface {
	Create(ctx context.Context, post *models.ForumPost) (*models.ForumPost, error)
	List(ctx context.Context, after *Cursor, limit int) ([]*models.ForumPost, error)
	Delete(ctx context.Context, accountID, id string) error
}
