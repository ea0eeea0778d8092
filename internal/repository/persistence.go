package repository

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/graphreq/permission-workflow/internal/domain/entity"
	"github.com/graphreq/permission-workflow/pkg/database"
)

// AuditAppend is one history entry queued for the audit log. Permission is
// empty for request-level entries.
type AuditAppend struct {
	Permission string
	Entry      entity.HistoryEntry
}

// Persistence coordinates the three repositories so that a request mutation
// lands atomically: header, approval rows and audit appends commit together
// or not at all.
type Persistence struct {
	db        *database.DB
	requests  *RequestRepository
	approvals *ApprovalRepository
	audit     *AuditRepository
	logger    *zap.Logger
}

// NewPersistence creates the persistence coordinator
func NewPersistence(db *database.DB, logger *zap.Logger) *Persistence {
	return &Persistence{
		db:        db,
		requests:  NewRequestRepository(db.DB, logger),
		approvals: NewApprovalRepository(db.DB, logger),
		audit:     NewAuditRepository(db.DB, logger),
		logger:    logger,
	}
}

// Save writes the full request state and the newly appended audit entries in
// one transaction. Approval rows for permissions no longer selected are
// removed; their audit rows stay.
func (p *Persistence) Save(req *entity.Request, appended []AuditAppend) error {
	return p.db.WithTransaction(func(tx *sql.Tx) error {
		if err := p.requests.Upsert(tx, req); err != nil {
			return err
		}
		for _, name := range req.Permissions {
			pa := req.Approval(name)
			if pa == nil {
				continue
			}
			if err := p.approvals.Upsert(tx, req.ID, pa); err != nil {
				return err
			}
		}
		if err := p.approvals.DeleteExcept(tx, req.ID, req.Permissions); err != nil {
			return err
		}
		for _, a := range appended {
			if err := p.audit.Append(tx, req.ID, a.Permission, a.Entry); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadAll rehydrates every request with its approval records
func (p *Persistence) LoadAll() ([]*entity.Request, error) {
	requests, err := p.requests.GetAll()
	if err != nil {
		return nil, err
	}
	for _, req := range requests {
		approvals, err := p.approvals.GetByRequestID(req.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load approvals for %s: %w", req.ID, err)
		}
		req.PermissionApprovals = approvals
	}
	p.logger.Info("Requests rehydrated", zap.Int("count", len(requests)))
	return requests, nil
}

// AuditTrail returns the immutable audit log of a request
func (p *Persistence) AuditTrail(requestID string) ([]*AuditRecord, error) {
	return p.audit.GetByRequestID(requestID)
}
