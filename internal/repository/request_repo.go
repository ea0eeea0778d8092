package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/graphreq/permission-workflow/internal/domain/entity"
)

// RequestRepository handles request header database operations. The
// permission selection, types and request-level history are stored as JSON
// columns; per-permission approval records live in their own table.
type RequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sql.DB, logger *zap.Logger) *RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts or replaces a request header row
func (r *RequestRepository) Upsert(tx *sql.Tx, req *entity.Request) error {
	permissions, err := json.Marshal(req.Permissions)
	if err != nil {
		return fmt.Errorf("failed to marshal permissions: %w", err)
	}
	types, err := json.Marshal(req.PermissionTypes)
	if err != nil {
		return fmt.Errorf("failed to marshal permission types: %w", err)
	}
	requirements, err := json.Marshal(req.AdditionalRequirements)
	if err != nil {
		return fmt.Errorf("failed to marshal additional requirements: %w", err)
	}
	history, err := json.Marshal(req.History)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	query := `
		INSERT INTO requests (
			id, requester, status, current_stage, submitted_date, version,
			permissions, permission_types, additional_requirements, history
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			requester = excluded.requester,
			status = excluded.status,
			current_stage = excluded.current_stage,
			version = excluded.version,
			permissions = excluded.permissions,
			permission_types = excluded.permission_types,
			additional_requirements = excluded.additional_requirements,
			history = excluded.history
	`

	args := []interface{}{
		req.ID, req.Requester, req.Status, req.CurrentStage, req.SubmittedDate, req.Version,
		string(permissions), string(types), string(requirements), string(history),
	}

	if tx != nil {
		_, err = tx.Exec(query, args...)
	} else {
		_, err = r.db.Exec(query, args...)
	}
	if err != nil {
		r.logger.Error("Failed to upsert request", zap.String("id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to upsert request: %w", err)
	}
	return nil
}

// GetAll loads every request header, oldest submission first
func (r *RequestRepository) GetAll() ([]*entity.Request, error) {
	query := `
		SELECT id, requester, status, current_stage, submitted_date, version,
			permissions, permission_types, additional_requirements, history
		FROM requests
		ORDER BY submitted_date ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		r.logger.Error("Failed to query requests", zap.Error(err))
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var requests []*entity.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func scanRequest(rows *sql.Rows) (*entity.Request, error) {
	var req entity.Request
	var permissions, types, requirements, history string

	if err := rows.Scan(
		&req.ID, &req.Requester, &req.Status, &req.CurrentStage, &req.SubmittedDate, &req.Version,
		&permissions, &types, &requirements, &history,
	); err != nil {
		return nil, fmt.Errorf("failed to scan request: %w", err)
	}

	if err := json.Unmarshal([]byte(permissions), &req.Permissions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal permissions: %w", err)
	}
	if err := json.Unmarshal([]byte(types), &req.PermissionTypes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal permission types: %w", err)
	}
	if err := json.Unmarshal([]byte(requirements), &req.AdditionalRequirements); err != nil {
		return nil, fmt.Errorf("failed to unmarshal additional requirements: %w", err)
	}
	if err := json.Unmarshal([]byte(history), &req.History); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}

	req.PermissionApprovals = make(map[string]*entity.PermissionApproval)
	return &req, nil
}
