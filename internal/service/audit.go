package service

import (
	"context"
	"encoding/json"

	"incorpo/internal/models"
	"incorpo/internal/repository"
	"incorpo/pkg/logger"
)

// Actor identifies who triggered an operation, for the audit trail.
type Actor struct {
	UserID    uint
	IP        string
	UserAgent string
}

func writeAudit(ctx context.Context, repo *repository.AuditLogRepository, log logger.Logger, actor Actor, action, resource, resourceID string, metadata map[string]interface{}) {
	if repo == nil {
		return
	}
	entry := &models.AuditLog{
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		IP:         actor.IP,
		UserAgent:  truncate(actor.UserAgent, 512),
	}
	if actor.UserID != 0 {
		uid := actor.UserID
		entry.UserID = &uid
	}
	if metadata != nil {
		b, _ := json.Marshal(metadata)
		entry.Metadata = string(b)
	}
	if err := repo.Create(ctx, entry); err != nil {
		log.Warn("audit log write failed", "action", action, "resource", resource, "error", err)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
