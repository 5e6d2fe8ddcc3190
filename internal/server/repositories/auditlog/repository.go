// Package auditlog declares the repository contract for the append-only
// audit trail. Entries are created by the audit writer and never updated or
// deleted.
package auditlog

import (
	"context"

	"github.com/dmitrijs2005/photovault/internal/server/models"
)

type Repository interface {
	// Create appends one audit entry.
	Create(ctx context.Context, entry *models.AuditEntry) error
}
