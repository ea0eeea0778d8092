// Package store holds the authoritative collection of requests. Every
// mutation recomputes the request's derived status, persists atomically and
// mirrors per-permission snapshots into the advisory cache.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/graphreq/permission-workflow/internal/cache"
	"github.com/graphreq/permission-workflow/internal/domain/entity"
	"github.com/graphreq/permission-workflow/internal/repository"
	"github.com/graphreq/permission-workflow/internal/workflow"
)

// ErrNotFound is returned when a request id is unknown
var ErrNotFound = errors.New("request not found")

// Persister writes a request and its newly appended audit entries durably.
type Persister interface {
	Save(req *entity.Request, appended []repository.AuditAppend) error
}

// Store is the request aggregate store.
type Store struct {
	mu       sync.RWMutex
	requests map[string]*entity.Request
	order    []string // request ids in creation order

	engine    *workflow.Engine
	cache     cache.ApprovalStatusCache
	persister Persister
	logger    *zap.Logger

	// auditCursor tracks how many history entries per request ("" key) and
	// per permission have already been persisted to the audit log.
	auditCursor map[string]map[string]int
}

// New creates a request store
func New(engine *workflow.Engine, c cache.ApprovalStatusCache, p Persister, logger *zap.Logger) *Store {
	return &Store{
		requests:    make(map[string]*entity.Request),
		engine:      engine,
		cache:       c,
		persister:   p,
		logger:      logger,
		auditCursor: make(map[string]map[string]int),
	}
}

// Seed loads rehydrated requests without re-persisting them. Audit cursors
// start at the current history lengths so only future entries are appended.
func (s *Store) Seed(requests []*entity.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, req := range requests {
		s.requests[req.ID] = req
		s.order = append(s.order, req.ID)

		cur := map[string]int{"": len(req.History)}
		for name, pa := range req.PermissionApprovals {
			cur[name] = len(pa.History)
		}
		s.auditCursor[req.ID] = cur
	}
}

// AddRequest registers a newly submitted request, assigning its id and
// submission time when absent.
func (s *Store) AddRequest(ctx context.Context, req *entity.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if _, exists := s.requests[req.ID]; exists {
		return fmt.Errorf("request %s already exists", req.ID)
	}
	if req.SubmittedDate.IsZero() {
		req.SubmittedDate = time.Now().UTC()
	}
	if req.Version == 0 {
		req.Version = 1
	}

	s.engine.RefreshAggregate(req)

	// Register only after the flush: a failed persist must leave the store
	// without the request.
	if err := s.flush(ctx, req, nil); err != nil {
		return err
	}
	s.requests[req.ID] = req
	s.order = append(s.order, req.ID)

	s.logger.Info("Request added",
		zap.String("id", req.ID),
		zap.Strings("permissions", req.Permissions))
	return nil
}

// RequestUpdate is a shallow partial update. Nil fields are left untouched;
// set maps and slices replace the existing value wholesale; callers must
// pass the full desired value, there is no deep merge.
type RequestUpdate struct {
	Status                 *string
	CurrentStage           *string
	Version                *int
	Permissions            []string
	PermissionTypes        map[string]entity.PermissionType
	PermissionApprovals    map[string]*entity.PermissionApproval
	AdditionalRequirements []string
	History                []entity.HistoryEntry
}

// UpdateRequest shallow-merges the update into the stored request, recomputes
// the derived status and propagates into cache and persistence.
func (s *Store) UpdateRequest(ctx context.Context, id string, upd RequestUpdate) (*entity.Request, error) {
	return s.Mutate(ctx, id, func(req *entity.Request) error {
		if upd.Status != nil {
			req.Status = *upd.Status
		}
		if upd.CurrentStage != nil {
			req.CurrentStage = *upd.CurrentStage
		}
		if upd.Version != nil {
			req.Version = *upd.Version
		}
		if upd.Permissions != nil {
			req.Permissions = upd.Permissions
		}
		if upd.PermissionTypes != nil {
			req.PermissionTypes = upd.PermissionTypes
		}
		if upd.PermissionApprovals != nil {
			req.PermissionApprovals = upd.PermissionApprovals
		}
		if upd.AdditionalRequirements != nil {
			req.AdditionalRequirements = upd.AdditionalRequirements
		}
		if upd.History != nil {
			req.History = upd.History
		}
		return nil
	})
}

// Mutate applies fn to a clone of the stored request under the store lock.
// The clone replaces the stored request only after the flush succeeds, so an
// error from fn or from persistence leaves the store exactly as it was.
// Permissions the mutation dropped have their cache entries invalidated.
func (s *Store) Mutate(ctx context.Context, id string, fn func(req *entity.Request) error) (*entity.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	work := req.Clone()
	if err := fn(work); err != nil {
		return nil, err
	}

	s.engine.RefreshAggregate(work)

	var removed []string
	for name := range req.PermissionApprovals {
		if _, keep := work.PermissionApprovals[name]; !keep {
			removed = append(removed, name)
		}
	}

	if err := s.flush(ctx, work, removed); err != nil {
		return nil, err
	}
	s.requests[id] = work
	return work.Clone(), nil
}

// GetRequest returns a copy of the request
func (s *Store) GetRequest(id string) (*entity.Request, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, false
	}
	return req.Clone(), true
}

// ListRequests returns copies of all requests in creation order
func (s *Store) ListRequests() []*entity.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entity.Request, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.requests[id].Clone())
	}
	return out
}

// ApprovalSnapshot returns the cached snapshot for one permission,
// recomputing and re-priming the cache from the authoritative request on any
// miss. A missing permission yields nil.
func (s *Store) ApprovalSnapshot(ctx context.Context, requestID, permission string) *cache.Snapshot {
	if snap, ok := s.cache.Get(ctx, requestID, permission); ok {
		return snap
	}

	s.mu.RLock()
	req, ok := s.requests[requestID]
	var pa *entity.PermissionApproval
	if ok {
		pa = req.Approval(permission)
	}
	s.mu.RUnlock()

	if pa == nil {
		return nil
	}
	snap := cache.NewSnapshot(pa)
	s.cache.Put(ctx, requestID, permission, snap)
	return snap
}

// flush persists the request and pushes fresh snapshots for every permission.
// The audit cursor only advances after the persister accepts the batch, so a
// failed flush leaves the unpersisted entries queued for the next attempt.
// Callers must hold the write lock.
func (s *Store) flush(ctx context.Context, req *entity.Request, removed []string) error {
	appended := s.pendingAppends(req)

	if s.persister != nil {
		if err := s.persister.Save(req, appended); err != nil {
			return fmt.Errorf("failed to persist request %s: %w", req.ID, err)
		}
	}

	s.commitCursor(req, removed)

	for _, name := range req.Permissions {
		if pa := req.Approval(name); pa != nil {
			s.cache.Put(ctx, req.ID, name, cache.NewSnapshot(pa))
		}
	}
	if len(removed) > 0 {
		s.cache.Invalidate(ctx, req.ID, removed)
	}
	return nil
}

// pendingAppends diffs history lengths against the audit cursor, returning
// the entries not yet written to the audit log. The cursor itself is not
// touched.
func (s *Store) pendingAppends(req *entity.Request) []repository.AuditAppend {
	cur := s.auditCursor[req.ID]

	var out []repository.AuditAppend

	from := cur[""]
	if from > len(req.History) {
		from = 0
	}
	for _, h := range req.History[from:] {
		out = append(out, repository.AuditAppend{Entry: h})
	}

	for _, name := range req.Permissions {
		pa := req.Approval(name)
		if pa == nil {
			continue
		}
		from := cur[name]
		if from > len(pa.History) {
			// A permission was removed and later re-added with a fresh
			// history; log it from the start.
			from = 0
		}
		for _, h := range pa.History[from:] {
			out = append(out, repository.AuditAppend{Permission: name, Entry: h})
		}
	}
	return out
}

// commitCursor records the persisted history lengths. Called only after a
// successful Save.
func (s *Store) commitCursor(req *entity.Request, removed []string) {
	cur := s.auditCursor[req.ID]
	if cur == nil {
		cur = map[string]int{}
		s.auditCursor[req.ID] = cur
	}

	cur[""] = len(req.History)
	for _, name := range req.Permissions {
		if pa := req.Approval(name); pa != nil {
			cur[name] = len(pa.History)
		}
	}
	for _, name := range removed {
		delete(cur, name)
	}
}
