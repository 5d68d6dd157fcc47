package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/manup/agenda/internal/common"
	"github.com/manup/agenda/internal/dbx"
	"github.com/manup/agenda/internal/logging"
	"github.com/manup/agenda/internal/server/models"
	"github.com/manup/agenda/internal/server/repositories/repomanager"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 2000
)

// AppointmentService manages an account's agenda.
type AppointmentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewAppointmentService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *AppointmentService {
	return &AppointmentService{db: db, repomanager: m, log: log}
}

func (s *AppointmentService) Create(ctx context.Context, accountID, title string, scheduledAt time.Time, description string) (*models.Appointment, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" || utf8.RuneCountInString(title) > maxTitleLength ||
		utf8.RuneCountInString(description) > maxDescriptionLength || scheduledAt.IsZero() {
		return nil, common.ErrValidation
	}

	a, err := s.repomanager.Appointments(s.db).Create(ctx, &models.Appointment{
		AccountID:   accountID,
		Title:       title,
		Description: description,
		ScheduledAt: scheduledAt.UTC(),
	})
	if err != nil {
		s.log.Error(ctx, "appointment create failed", "account_id", accountID, "error", err)
		return nil, common.ErrorInternal
	}
	return a, nil
}

// List returns the account's appointments that are not deleted, earliest first.
func (s *AppointmentService) List(ctx context.Context, accountID string) ([]*models.Appointment, error) {
	items, err := s.repomanager.Appointments(s.db).ListActive(ctx, accountID)
	if err != nil {
		s.log.Error(ctx, "appointment list failed", "account_id", accountID, "error", err)
		return nil, common.ErrorInternal
	}
	return items, nil
}

// SetStatus moves an appointment to status. The row is locked for the
// duration of the check so concurrent transitions apply one after another.
func (s *AppointmentService) SetStatus(ctx context.Context, accountID, id string, status models.AppointmentStatus) (*models.Appointment, error) {
	if !status.Valid() {
		return nil, common.ErrValidation
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	var updated *models.Appointment
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Appointments(tx)

		current, err := repo.GetForUpdate(ctx, accountID, id)
		if err != nil {
			return err
		}
		if current.Status == models.AppointmentDeleted {
			return common.ErrorNotFound
		}
		if !current.Status.CanTransition(status) {
			return common.ErrInvalidTransition
		}

		updated, err = repo.UpdateStatus(ctx, id, status)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorNotFound), errors.Is(err, common.ErrInvalidTransition):
			return nil, err
		default:
			s.log.Error(ctx, "appointment status update failed", "account_id", accountID, "appointment_id", id, "error", err)
			return nil, common.ErrorInternal
		}
	}
	return updated, nil
}

// Delete marks the appointment deleted. Deleting twice is not found the
// second time, since deleted appointments are no longer visible.
func (s *AppointmentService) Delete(ctx context.Context, accountID, id string) error {
	_, err := s.SetStatus(ctx, accountID, id, models.AppointmentDeleted)
	if errors.Is(err, common.ErrInvalidTransition) {
		return common.ErrorNotFound
	}
	return err
}
