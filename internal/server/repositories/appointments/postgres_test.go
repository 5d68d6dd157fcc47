package appointments

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/manup/agenda/internal/common"
	"github.com/manup/agenda/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{"id", "account_id", "title", "description", "scheduled_at", "status", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	at := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+appointments\s*\(id,\s*account_id,\s*title,\s*description,\s*scheduled_at,\s*status\).*RETURNING\s+created_at,\s*updated_at`).
		WithArgs(sqlmock.AnyArg(), "a-1", "Dentist", "", at, "pending").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	got, err := repo.Create(context.Background(), &models.Appointment{AccountID: "a-1", Title: "Dentist", ScheduledAt: at})
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, models.AppointmentPending, got.Status)
	assert.Equal(t, now, got.CreatedAt)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+appointments`).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.Appointment{AccountID: "a-1"})
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db down`, err.Error())
}

func TestListActive(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	at := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(columns).
		AddRow("p-1", "a-1", "Gym", "", at, "pending", at, at).
		AddRow("p-2", "a-1", "Doctor", "bring exams", at.Add(time.Hour), "completed", at, at)

	mock.ExpectQuery(`(?s)FROM\s+appointments\s+WHERE\s+account_id\s*=\s*\$1\s+AND\s+status\s*<>\s*'deleted'\s+ORDER\s+BY\s+scheduled_at\s+ASC`).
		WithArgs("a-1").
		WillReturnRows(rows)

	got, err := repo.ListActive(context.Background(), "a-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Gym", got[0].Title)
	assert.Equal(t, models.AppointmentCompleted, got[1].Status)
	assert.Equal(t, "bring exams", got[1].Description)
}

func TestListActive_Empty(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+appointments`).
		WithArgs("a-1").
		WillReturnRows(sqlmock.NewRows(columns))

	got, err := repo.ListActive(context.Background(), "a-1")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGetForUpdate(t *testing.T) {
	q := `(?s)FROM\s+appointments\s+WHERE\s+id\s*=\s*\$1\s+AND\s+account_id\s*=\s*\$2\s+FOR\s+UPDATE`
	at := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).
			WithArgs("p-1", "a-1").
			WillReturnRows(sqlmock.NewRows(columns).AddRow("p-1", "a-1", "Gym", "", at, "pending", at, at))

		got, err := repo.GetForUpdate(context.Background(), "a-1", "p-1")
		require.NoError(t, err)
		assert.Equal(t, models.AppointmentPending, got.Status)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).
			WithArgs("p-1", "other").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetForUpdate(context.Background(), "other", "p-1")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestUpdateStatus(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	at := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)^UPDATE\s+appointments\s+SET\s+status\s*=\s*\$1,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$2\s+RETURNING`).
		WithArgs("completed", "p-1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow("p-1", "a-1", "Gym", "", at, "completed", at, at.Add(time.Minute)))

	got, err := repo.UpdateStatus(context.Background(), "p-1", models.AppointmentCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentCompleted, got.Status)
	assert.Equal(t, at.Add(time.Minute), got.UpdatedAt)
}
