package repomanager

import (
	"context"
	"database/sql"

	"github.com/filebeam/filebeam/internal/dbx"
	"github.com/filebeam/filebeam/internal/server/repositories/files"
	"github.com/filebeam/filebeam/internal/server/repositories/statuschecks"
	"github.com/filebeam/filebeam/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Files(db dbx.DBTX) files.Repository
	StatusChecks(db dbx.DBTX) statuschecks.Repository
}
