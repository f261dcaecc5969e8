package services

import (
	"gorm.io/gorm"

	"budgetapp/internal/logger"
	"budgetapp/internal/models"
)

type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log appends an entry for a completed mutation. A failed write is logged and
// swallowed: the request it describes has already been committed.
func (s *auditService) Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{}) {
	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      changes,
	}
	if err := s.db.Create(entry).Error; err != nil {
		logger.With("action", action, "resource_type", resourceType, "resource_id", resourceID).
			Errorw("audit write failed", "error", err, "user_id", userID)
	}
}
