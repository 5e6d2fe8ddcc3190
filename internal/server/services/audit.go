// Package services contains server-side business logic: the audit trail
// writer, the upload/delete coordinator, and the album and user services.
package services

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/dmitrijs2005/photovault/internal/logging"
	"github.com/dmitrijs2005/photovault/internal/server/models"
	"github.com/dmitrijs2005/photovault/internal/server/repositories/repomanager"
)

// Recorder accepts fully-formed audit events for asynchronous persistence.
// Recording must never block the caller or surface an error: audit durability
// is best-effort and must not become an availability dependency for
// user-facing operations.
type Recorder interface {
	Record(entry *models.AuditEntry)
}

// auditWriteTimeout bounds the background insert; each entry commits in its
// own transaction, fully independent of the triggering operation.
const auditWriteTimeout = 5 * time.Second

// AuditService persists security-relevant events through a bounded queue
// consumed by a background worker. A full queue drops the entry with a
// warning; persistence failures are logged, never propagated.
type AuditService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger

	queue chan *models.AuditEntry
	wg    sync.WaitGroup
	once  sync.Once
}

// NewAuditService constructs an AuditService with the given queue capacity
// and starts its worker.
func NewAuditService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger, queueSize int) *AuditService {
	s := &AuditService{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "audit"),
		queue:       make(chan *models.AuditEntry, queueSize),
	}
	s.wg.Add(1)
	go s.worker()
	return s
}

// Record enqueues an entry without blocking. When the queue is full the
// entry is dropped and a warning is logged.
func (s *AuditService) Record(entry *models.AuditEntry) {
	select {
	case s.queue <- entry:
	default:
		s.logger.Warn(context.Background(), "audit queue full, dropping entry",
			"action", string(entry.Action), "target_type", entry.TargetType)
	}
}

// Close stops accepting entries, drains the queue, and waits for the worker
// to finish. Safe to call more than once.
func (s *AuditService) Close() {
	s.once.Do(func() { close(s.queue) })
	s.wg.Wait()
}

func (s *AuditService) worker() {
	defer s.wg.Done()
	for entry := range s.queue {
		s.persist(entry)
	}
}

// persist writes one entry in its own short-lived context so that the
// triggering request's cancellation never reaches the audit transaction.
func (s *AuditService) persist(entry *models.AuditEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
	defer cancel()

	repo := s.repomanager.AuditLog(s.db)
	if err := repo.Create(ctx, entry); err != nil {
		s.logger.Error(ctx, "failed to save audit entry",
			"action", string(entry.Action), "target_type", entry.TargetType, "error", err.Error())
	}
}
