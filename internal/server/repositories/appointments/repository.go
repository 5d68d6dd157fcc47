package appointments

import (
	"context"

	"github.com/manup/agenda/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, appointment *models.Appointment) (*models.Appointment, error)
	ListActive(ctx context.Context, accountID string) ([]*models.Appointment, error)
	GetForUpdate(ctx context.Context, accountID, id string) (*models.Appointment, error)
	UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) (*models.Appointment, error)
}
