package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/photovault/internal/dbx"
	"github.com/dmitrijs2005/photovault/internal/server/repositories/albums"
	"github.com/dmitrijs2005/photovault/internal/server/repositories/auditlog"
	"github.com/dmitrijs2005/photovault/internal/server/repositories/photos"
	"github.com/dmitrijs2005/photovault/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/photovault/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX (*sql.DB or *sql.Tx),
// so a service can use the same repository code inside and outside a
// transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Albums(db dbx.DBTX) albums.Repository
	Photos(db dbx.DBTX) photos.Repository
	AuditLog(db dbx.DBTX) auditlog.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
