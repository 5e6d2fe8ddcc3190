package auditlog

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/photovault/internal/dbx"
	"github.com/dmitrijs2005/photovault/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, entry *models.AuditEntry) error {
	query := `
		INSERT INTO audit_log (user_id, user_email, action, target_type, target_id, detail, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := r.db.ExecContext(ctx, query,
		entry.UserID, entry.UserEmail, string(entry.Action),
		entry.TargetType, entry.TargetID, entry.Detail, entry.IPAddress); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
