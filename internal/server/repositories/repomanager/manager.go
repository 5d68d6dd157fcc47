package repomanager

import (
	"context"
	"database/sql"

	"github.com/manup/agenda/internal/dbx"
	"github.com/manup/agenda/internal/server/repositories/accounts"
	"github.com/manup/agenda/internal/server/repositories/appointments"
	"github.com/manup/agenda/internal/server/repositories/posts"
)

// RepositoryManager vends repositories bound to either the pool or a
// transaction, so services decide the transactional scope.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Appointments(db dbx.DBTX) appointments.Repository
	Posts(db dbx.DBTX) posts.Repository
}
