// Package appointments provides PostgreSQL-backed storage for the
// per-account agenda.
package appointments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/manup/agenda/internal/common"
	"github.com/manup/agenda/internal/dbx"
	"github.com/manup/agenda/internal/server/models"
)

const selectColumns = `id, account_id, title, description, scheduled_at, status, created_at, updated_at`

// PostgresRepository implements appointment storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a pending appointment and fills in its ID and timestamps.
func (r *PostgresRepository) Create(ctx context.Context, appointment *models.Appointment) (*models.Appointment, error) {
	query := `
		INSERT INTO appointments (id, account_id, title, description, scheduled_at, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	id := uuid.NewString()
	appointment.Status = models.AppointmentPending

	err := r.db.QueryRowContext(ctx, query,
		id, appointment.AccountID, appointment.Title, appointment.Description,
		appointment.ScheduledAt, string(appointment.Status),
	).Scan(&appointment.CreatedAt, &appointment.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	appointment.ID = id
	return appointment, nil
}

// ListActive returns the account's appointments that are not deleted,
// earliest first.
func (r *PostgresRepository) ListActive(ctx context.Context, accountID string) ([]*models.Appointment, error) {
	query := `SELECT ` + selectColumns + ` FROM appointments
		WHERE account_id = $1 AND status <> 'deleted'
		ORDER BY scheduled_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Appointment, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// GetForUpdate loads and row-locks one appointment owned by accountID. It
// must run inside a transaction for the lock to matter.
func (r *PostgresRepository) GetForUpdate(ctx context.Context, accountID, id string) (*models.Appointment, error) {
	query := `SELECT ` + selectColumns + ` FROM appointments
		WHERE id = $1 AND account_id = $2
		FOR UPDATE
	`
	item, err := scan(r.db.QueryRowContext(ctx, query, id, accountID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) (*models.Appointment, error) {
	query := `UPDATE appointments SET status = $1, updated_at = now()
		WHERE id = $2
		RETURNING ` + selectColumns

	item, err := scan(r.db.QueryRowContext(ctx, query, string(status), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*models.Appointment, error) {
	var item models.Appointment
	var status string
	if err := s.Scan(&item.ID, &item.AccountID, &item.Title, &item.Description,
		&item.ScheduledAt, &status, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	item.Status = models.AppointmentStatus(status)
	return &item, nil
}
