// Package notify tells approvers when a permission request reaches their
// stage. Notification failures are logged and swallowed; the workflow never
// depends on delivery.
package notify

import (
	"context"

	"github.com/graphreq/permission-workflow/internal/domain/entity"
)

// Notifier delivers "your turn" notices to approvers.
type Notifier interface {
	// NotifyTurn tells the approver that the given permission of the request
	// now awaits their decision.
	NotifyTurn(ctx context.Context, approver entity.Approver, req *entity.Request, permission string)
}

// Noop is the notifier used when messaging is not configured.
type Noop struct{}

func (Noop) NotifyTurn(context.Context, entity.Approver, *entity.Request, string) {}
