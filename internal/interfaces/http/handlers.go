package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/graphreq/permission-workflow/internal/domain/entity"
	domainwf "github.com/graphreq/permission-workflow/internal/domain/workflow"
	"github.com/graphreq/permission-workflow/internal/notify"
	"github.com/graphreq/permission-workflow/internal/repository"
	"github.com/graphreq/permission-workflow/internal/store"
	"github.com/graphreq/permission-workflow/internal/workflow"
	"github.com/graphreq/permission-workflow/pkg/utils"
)

// AuditReader exposes the immutable audit trail to the API. Nil disables the
// audit endpoint (memory-only deployments).
type AuditReader interface {
	AuditTrail(requestID string) ([]*repository.AuditRecord, error)
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	store    *store.Store
	engine   *workflow.Engine
	notifier notify.Notifier
	audit    AuditReader
	logger   *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(st *store.Store, engine *workflow.Engine, notifier notify.Notifier, audit AuditReader, logger *zap.Logger) *Handlers {
	return &Handlers{
		store:    st,
		engine:   engine,
		notifier: notifier,
		audit:    audit,
		logger:   logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SubmitRequestBody is the payload for a first submission
type SubmitRequestBody struct {
	Requester              string                           `json:"requester" binding:"required"`
	Permissions            []string                         `json:"permissions" binding:"required,min=1"`
	PermissionTypes        map[string]entity.PermissionType `json:"permission_types"`
	AdditionalRequirements []string                         `json:"additional_requirements"`
}

// DecisionBody is the payload for an approve/deny decision
type DecisionBody struct {
	ApproverID string `json:"approver_id" binding:"required"`
	Decision   string `json:"decision" binding:"required,oneof=approve deny"`
	Comment    string `json:"comment"`
}

// RevisionBody is the payload for a resubmission
type RevisionBody struct {
	Permissions     []string                         `json:"permissions" binding:"required,min=1"`
	PermissionTypes map[string]entity.PermissionType `json:"permission_types"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"status":    "healthy",
			"service":   "permission-workflow",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// ListPermissions handles GET /api/v1/catalog/permissions
func (h *Handlers) ListPermissions(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: h.engine.Catalog().Permissions()})
}

// ListApprovers handles GET /api/v1/catalog/approvers
func (h *Handlers) ListApprovers(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: h.engine.Catalog().Approvers()})
}

// SubmitRequest handles POST /api/v1/requests
func (h *Handlers) SubmitRequest(c *gin.Context) {
	var body SubmitRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	if err := utils.ValidateEmail(body.Requester); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	if body.PermissionTypes == nil {
		body.PermissionTypes = map[string]entity.PermissionType{}
	}

	req := &entity.Request{
		Requester:              body.Requester,
		Status:                 entity.StatusPending,
		Permissions:            body.Permissions,
		PermissionTypes:        body.PermissionTypes,
		PermissionApprovals:    h.engine.InitializeApprovals(body.Permissions),
		AdditionalRequirements: body.AdditionalRequirements,
		History:                []entity.HistoryEntry{entity.NewSystemEntry(entity.HistoryPending, "Request submitted")},
	}

	if err := h.store.AddRequest(c.Request.Context(), req); err != nil {
		h.logger.Error("Failed to add request", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to create request"})
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: req})
}

// ListRequests handles GET /api/v1/requests
func (h *Handlers) ListRequests(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: h.store.ListRequests()})
}

// GetRequest handles GET /api/v1/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	req, ok := h.store.GetRequest(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "request not found"})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// PermissionProgress is one permission's chain with derived statuses
type PermissionProgress struct {
	Permission   string                  `json:"permission"`
	Status       string                  `json:"status"`
	CurrentStage string                  `json:"current_stage"`
	Approvers    []workflow.ApproverView `json:"approvers"`
}

// ProgressResponse is the full review view of a request
type ProgressResponse struct {
	RequestID    string               `json:"request_id"`
	Status       string               `json:"status"`
	CurrentStage string               `json:"current_stage"`
	Chain        []entity.Approver    `json:"chain"` // aggregate approver chain
	Permissions  []PermissionProgress `json:"permissions"`
}

// GetProgress handles GET /api/v1/requests/:id/progress
func (h *Handlers) GetProgress(c *gin.Context) {
	req, ok := h.store.GetRequest(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "request not found"})
		return
	}

	progress := ProgressResponse{
		RequestID:    req.ID,
		Status:       req.Status,
		CurrentStage: req.CurrentStage,
		Chain:        h.engine.Catalog().ResolveApprovers(req.Permissions),
	}
	for _, name := range req.Permissions {
		pa := req.Approval(name)
		if pa == nil {
			continue
		}
		progress.Permissions = append(progress.Permissions, PermissionProgress{
			Permission:   name,
			Status:       pa.Status,
			CurrentStage: pa.CurrentStage,
			Approvers:    h.engine.PermissionProgress(pa),
		})
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: progress})
}

// GetApprovalStatus handles GET /api/v1/requests/:id/permissions/:permission/status
func (h *Handlers) GetApprovalStatus(c *gin.Context) {
	snap := h.store.ApprovalSnapshot(c.Request.Context(), c.Param("id"), c.Param("permission"))
	if snap == nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "permission not found on request"})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: snap})
}

// Decide handles POST /api/v1/requests/:id/permissions/:permission/decision
func (h *Handlers) Decide(c *gin.Context) {
	var body DecisionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid decision body"})
		return
	}

	id := c.Param("id")
	permission := c.Param("permission")
	approve := body.Decision == "approve"

	var advanced *entity.Approver
	updated, err := h.store.Mutate(c.Request.Context(), id, func(req *entity.Request) error {
		next, err := h.engine.Decide(req, permission, body.ApproverID, approve, body.Comment)
		advanced = next
		return err
	})
	if err != nil {
		h.respondWorkflowError(c, err)
		return
	}

	if advanced != nil {
		h.notifier.NotifyTurn(c.Request.Context(), *advanced, updated, permission)
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: updated})
}

// Implement handles POST /api/v1/requests/:id/implement
func (h *Handlers) Implement(c *gin.Context) {
	updated, err := h.store.Mutate(c.Request.Context(), c.Param("id"), func(req *entity.Request) error {
		return h.engine.Implement(req)
	})
	if err != nil {
		h.respondWorkflowError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: updated})
}

// Revise handles POST /api/v1/requests/:id/revisions
func (h *Handlers) Revise(c *gin.Context) {
	var body RevisionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid revision body"})
		return
	}

	// The patch is computed and applied inside the same Mutate callback so no
	// other mutation can slip between the read and the write.
	var patch *workflow.RevisionPatch
	updated, err := h.store.Mutate(c.Request.Context(), c.Param("id"), func(req *entity.Request) error {
		patch = h.engine.PrepareRevision(req, body.Permissions, body.PermissionTypes)
		req.Permissions = patch.Permissions
		req.PermissionTypes = patch.PermissionTypes
		req.PermissionApprovals = patch.PermissionApprovals
		req.History = patch.History
		req.Version = patch.Version
		return nil
	})
	if err != nil {
		h.respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{
		"request": updated,
		"changes": patch.Changes,
	}})
}

// GetAuditTrail handles GET /api/v1/requests/:id/audit
func (h *Handlers) GetAuditTrail(c *gin.Context) {
	if h.audit == nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "audit log not available"})
		return
	}

	records, err := h.audit.AuditTrail(c.Param("id"))
	if err != nil {
		h.logger.Error("Failed to load audit trail", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to load audit trail"})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: records})
}

// respondWorkflowError maps workflow refusals onto HTTP statuses: unknown
// references are 404, guard violations 409, everything else 500.
func (h *Handlers) respondWorkflowError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, workflow.ErrUnknownPermission):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
	case errors.Is(err, workflow.ErrUnknownApprover):
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
	case errors.Is(err, domainwf.ErrInvalidTransition),
		errors.Is(err, domainwf.ErrNotCurrentApprover),
		errors.Is(err, workflow.ErrNotAllApproved):
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
	default:
		h.logger.Error("Workflow operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal error"})
	}
}
