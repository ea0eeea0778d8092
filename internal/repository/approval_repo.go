package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/graphreq/permission-workflow/internal/domain/entity"
)

// ApprovalRepository handles per-permission approval state database
// operations. One row per (request, permission); the permission's own history
// is stored alongside as JSON so a request rehydrates without joins.
type ApprovalRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewApprovalRepository creates a new approval repository
func NewApprovalRepository(db *sql.DB, logger *zap.Logger) *ApprovalRepository {
	return &ApprovalRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts or replaces one permission's approval row
func (r *ApprovalRepository) Upsert(tx *sql.Tx, requestID string, pa *entity.PermissionApproval) error {
	history, err := json.Marshal(pa.History)
	if err != nil {
		return fmt.Errorf("failed to marshal approval history: %w", err)
	}

	query := `
		INSERT INTO permission_approvals (request_id, permission, status, current_stage, history)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(request_id, permission) DO UPDATE SET
			status = excluded.status,
			current_stage = excluded.current_stage,
			history = excluded.history
	`

	if tx != nil {
		_, err = tx.Exec(query, requestID, pa.Permission, pa.Status, pa.CurrentStage, string(history))
	} else {
		_, err = r.db.Exec(query, requestID, pa.Permission, pa.Status, pa.CurrentStage, string(history))
	}
	if err != nil {
		r.logger.Error("Failed to upsert approval",
			zap.String("request_id", requestID),
			zap.String("permission", pa.Permission),
			zap.Error(err))
		return fmt.Errorf("failed to upsert approval: %w", err)
	}
	return nil
}

// DeleteExcept removes every approval row of a request whose permission is
// not in keep. Used when a revision drops permissions.
func (r *ApprovalRepository) DeleteExcept(tx *sql.Tx, requestID string, keep []string) error {
	query := `DELETE FROM permission_approvals WHERE request_id = ?`
	args := []interface{}{requestID}

	if len(keep) > 0 {
		query += ` AND permission NOT IN (?` + strings.Repeat(",?", len(keep)-1) + `)`
		for _, p := range keep {
			args = append(args, p)
		}
	}

	var err error
	if tx != nil {
		_, err = tx.Exec(query, args...)
	} else {
		_, err = r.db.Exec(query, args...)
	}
	if err != nil {
		r.logger.Error("Failed to delete approvals", zap.String("request_id", requestID), zap.Error(err))
		return fmt.Errorf("failed to delete approvals: %w", err)
	}
	return nil
}

// GetByRequestID loads every approval row of a request
func (r *ApprovalRepository) GetByRequestID(requestID string) (map[string]*entity.PermissionApproval, error) {
	query := `
		SELECT permission, status, current_stage, history
		FROM permission_approvals
		WHERE request_id = ?
	`

	rows, err := r.db.Query(query, requestID)
	if err != nil {
		r.logger.Error("Failed to query approvals", zap.String("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to query approvals: %w", err)
	}
	defer rows.Close()

	approvals := make(map[string]*entity.PermissionApproval)
	for rows.Next() {
		var pa entity.PermissionApproval
		var history string
		if err := rows.Scan(&pa.Permission, &pa.Status, &pa.CurrentStage, &history); err != nil {
			return nil, fmt.Errorf("failed to scan approval: %w", err)
		}
		if err := json.Unmarshal([]byte(history), &pa.History); err != nil {
			return nil, fmt.Errorf("failed to unmarshal approval history: %w", err)
		}
		approvals[pa.Permission] = &pa
	}
	return approvals, rows.Err()
}
