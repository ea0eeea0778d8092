// Package cache provides the advisory approval-status cache: a TTL'd
// read-optimization keyed by (request, permission). It is never the source of
// truth; every failure mode reads as a miss and callers recompute from the
// request itself.
package cache

import (
	"context"
	"time"

	"github.com/graphreq/permission-workflow/internal/domain/entity"
)

// Snapshot is the cached view of one permission's approval state.
type Snapshot struct {
	Status       string                `json:"status"`
	CurrentStage string                `json:"current_stage"`
	LastUpdated  int64                 `json:"last_updated"` // epoch milliseconds
	History      []entity.HistoryEntry `json:"history"`
}

// NewSnapshot captures a permission approval record at the current time.
func NewSnapshot(pa *entity.PermissionApproval) *Snapshot {
	return &Snapshot{
		Status:       pa.Status,
		CurrentStage: pa.CurrentStage,
		LastUpdated:  time.Now().UnixMilli(),
		History:      append([]entity.HistoryEntry(nil), pa.History...),
	}
}

// ApprovalStatusCache is the narrow interface the workflow core writes
// through. Implementations must treat expired or unparseable entries as
// misses and must never surface storage errors to callers.
type ApprovalStatusCache interface {
	// Get returns the cached snapshot, or false on any kind of miss.
	Get(ctx context.Context, requestID, permission string) (*Snapshot, bool)

	// Put stores a snapshot under the configured TTL.
	Put(ctx context.Context, requestID, permission string, snap *Snapshot)

	// Invalidate drops the entries for the given permissions of a request.
	Invalidate(ctx context.Context, requestID string, permissions []string)
}
