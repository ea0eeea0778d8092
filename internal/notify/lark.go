package notify

import (
	"context"
	"encoding/json"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/graphreq/permission-workflow/internal/domain/entity"
)

// Config holds Lark messaging configuration
type Config struct {
	AppID     string
	AppSecret string
	ChatID    string // approvals chat every notice is posted to
}

// LarkNotifier posts approval-turn notices into a shared approvals chat.
type LarkNotifier struct {
	client *lark.Client
	chatID string
	logger *zap.Logger
}

// NewLarkNotifier creates a Lark-backed notifier
func NewLarkNotifier(cfg Config, logger *zap.Logger) *LarkNotifier {
	client := lark.NewClient(cfg.AppID, cfg.AppSecret,
		lark.WithLogLevel(larkcore.LogLevelInfo),
		lark.WithEnableTokenCache(true),
	)

	return &LarkNotifier{
		client: client,
		chatID: cfg.ChatID,
		logger: logger,
	}
}

// NotifyTurn posts a text notice naming the approver, the request and the
// permission awaiting them.
func (n *LarkNotifier) NotifyTurn(ctx context.Context, approver entity.Approver, req *entity.Request, permission string) {
	justification := ""
	if t, ok := req.PermissionTypes[permission]; ok {
		justification = t.Justification
	}

	text := fmt.Sprintf("%s (%s): permission %q of request %s from %s awaits your decision.",
		approver.Name, approver.Role, permission, req.ID, req.Requester)
	if justification != "" {
		text += fmt.Sprintf(" Justification: %s", justification)
	}

	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		n.logger.Error("Failed to build notification content", zap.Error(err))
		return
	}

	msgReq := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType("chat_id").
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(n.chatID).
			MsgType("text").
			Content(string(content)).
			Build()).
		Build()

	resp, err := n.client.Im.Message.Create(ctx, msgReq)
	if err != nil {
		n.logger.Error("Failed to send approval notification",
			zap.String("approver", approver.ID),
			zap.String("request_id", req.ID),
			zap.Error(err))
		return
	}
	if !resp.Success() {
		n.logger.Error("Notification API returned failure",
			zap.String("approver", approver.ID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return
	}

	n.logger.Info("Approver notified",
		zap.String("approver", approver.ID),
		zap.String("request_id", req.ID),
		zap.String("permission", permission))
}
