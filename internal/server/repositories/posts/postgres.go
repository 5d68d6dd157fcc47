// Package posts stores forum posts in PostgreSQL.
package posts

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/manup/agenda/internal/common"
	"github.com/manup/agenda/internal/dbx"
	"github.com/manup/agenda/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, post *models.ForumPost) (*models.ForumPost, error) {
	query := `
		INSERT INTO forum_posts (id, account_id, author_name, body, attachment_key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	id := uuid.NewString()
	err := r.db.QueryRowContext(ctx, query,
		id, post.AccountID, post.AuthorName, post.Body, nullable(post.AttachmentKey),
	).Scan(&post.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	post.ID = id
	return post, nil
}

// List returns up to limit posts, newest first, strictly after the given
// cursor. A nil cursor starts from the newest post.
func (r *PostgresRepository) List(ctx context.Context, after *Cursor, limit int) ([]*models.ForumPost, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if after == nil {
		query := `
			SELECT id, account_id, author_name, body, attachment_key, created_at FROM forum_posts
			ORDER BY created_at DESC, id DESC
			LIMIT $1
		`
		rows, err = r.db.QueryContext(ctx, query, limit)
	} else {
		query := `
			SELECT id, account_id, author_name, body, attachment_key, created_at FROM forum_posts
			WHERE (created_at, id) < ($1, $2)
			ORDER BY created_at DESC, id DESC
			LIMIT $3
		`
		rows, err = r.db.QueryContext(ctx, query, after.CreatedAt, after.ID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.ForumPost, 0, limit)
	for rows.Next() {
		var item models.ForumPost
		var attachment sql.NullString
		if err := rows.Scan(&item.ID, &item.AccountID, &item.AuthorName, &item.Body, &attachment, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		item.AttachmentKey = attachment.String
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// Delete removes the post if accountID wrote it; otherwise common.ErrorNotFound.
func (r *PostgresRepository) Delete(ctx context.Context, accountID, id string) error {
	query := `DELETE FROM forum_posts WHERE id = $1 AND account_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, accountID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
