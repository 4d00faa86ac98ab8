package services

import (
	"context"

	"github.com/glotta/agency-api/internal/models"
	"github.com/glotta/agency-api/internal/repository"
	"github.com/glotta/agency-api/pkg/logger"
)

type AuditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// Log records an audit entry. Best-effort: a failed write is logged, never
// surfaced to the caller.
func (s *AuditService) Log(ctx context.Context, userID uint, action, entity string, entityID uint, details, ip, userAgent string) {
	entry := &models.AuditLog{
		UserID:    userID,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Details:   details,
		IPAddress: ip,
		UserAgent: userAgent,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		logger.Error("Failed to write audit log",
			"action", action, "entity", entity, "entity_id", entityID, "error", err)
	}
}

// List retrieves audit logs, newest first
func (s *AuditService) List(ctx context.Context, limit, offset int) ([]models.AuditLog, int64, error) {
	return s.repo.List(ctx, limit, offset)
}
