package audit

import (
	"context"
	"fmt"

	"touroperator-backend/models"

	"gorm.io/gorm"
)

// GormRecorder writes audit entries into the tenant schema's audit_logs table,
// each in a short transaction with SET LOCAL search_path so the write is
// independent of any request transaction.
type GormRecorder struct {
	db *gorm.DB
}

func NewGormRecorder(db *gorm.DB) *GormRecorder {
	return &GormRecorder{db: db}
}

func (r *GormRecorder) Record(ctx context.Context, e Entry) error {
	if e.TenantSchema == "" {
		return fmt.Errorf("audit: entry without tenant schema")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`SET LOCAL search_path = "` + e.TenantSchema + `", public`).Error; err != nil {
			return fmt.Errorf("audit: pin tenant schema: %w", err)
		}
		row := models.AuditLog{
			UserID:        e.UserID,
			Action:        e.Action,
			ResourceType:  e.ResourceType,
			ResourceID:    e.ResourceID,
			Changes:       e.Changes,
			Metadata:      e.Metadata,
			CorrelationID: e.CorrelationID,
			CreatedAt:     e.At,
		}
		return tx.Create(&row).Error
	})
}
