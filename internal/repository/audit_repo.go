package repository

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/graphreq/permission-workflow/internal/domain/entity"
)

// AuditRepository handles the insert-only audit log. Rows are never updated
// or deleted, even when a revision drops a permission from its request; the
// log outlives the aggregate's own view of history.
type AuditRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// AuditRecord is one persisted audit line. Permission is empty for
// request-level entries.
type AuditRecord struct {
	ID         int64               `json:"id"`
	RequestID  string              `json:"request_id"`
	Permission string              `json:"permission,omitempty"`
	Entry      entity.HistoryEntry `json:"entry"`
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sql.DB, logger *zap.Logger) *AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Append inserts one audit record
func (r *AuditRepository) Append(tx *sql.Tx, requestID, permission string, entry entity.HistoryEntry) error {
	query := `
		INSERT INTO audit_log (
			request_id, permission, approver_id, stage, status, origin, comment, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	args := []interface{}{
		requestID, permission,
		entry.ApproverID, entry.Stage, entry.Status, entry.Origin, entry.Comment, entry.Timestamp,
	}

	var err error
	if tx != nil {
		_, err = tx.Exec(query, args...)
	} else {
		_, err = r.db.Exec(query, args...)
	}
	if err != nil {
		r.logger.Error("Failed to append audit record",
			zap.String("request_id", requestID),
			zap.String("permission", permission),
			zap.Error(err))
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	return nil
}

// GetByRequestID loads the full audit trail of a request in insertion order
func (r *AuditRepository) GetByRequestID(requestID string) ([]*AuditRecord, error) {
	query := `
		SELECT id, request_id, permission, approver_id, stage, status, origin, comment, timestamp
		FROM audit_log
		WHERE request_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.Query(query, requestID)
	if err != nil {
		r.logger.Error("Failed to query audit log", zap.String("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var records []*AuditRecord
	for rows.Next() {
		var rec AuditRecord
		if err := rows.Scan(
			&rec.ID, &rec.RequestID, &rec.Permission,
			&rec.Entry.ApproverID, &rec.Entry.Stage, &rec.Entry.Status,
			&rec.Entry.Origin, &rec.Entry.Comment, &rec.Entry.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
