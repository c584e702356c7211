package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog is a tenant-scoped trail entry. Written only by the audit recorder,
// never queried on the request path.
type AuditLog struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	UserID        string         `json:"user_id" gorm:"size:128;index"`
	Action        string         `json:"action" gorm:"size:64;not null;index"`
	ResourceType  string         `json:"resource_type" gorm:"size:64"`
	ResourceID    string         `json:"resource_id" gorm:"size:128"`
	Changes       datatypes.JSON `json:"changes" gorm:"type:jsonb"`
	Metadata      datatypes.JSON `json:"metadata" gorm:"type:jsonb"`
	CorrelationID string         `json:"correlation_id" gorm:"size:64;index"`
	CreatedAt     time.Time      `json:"created_at"`
}
