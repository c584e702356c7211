package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"touroperator-backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore persists idempotency records in the tenant schema. Every call runs
// in its own short transaction with SET LOCAL search_path so nothing leaks
// onto pooled connections, and so records are never tied to the request's
// business transaction.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) withTenant(ctx context.Context, tenant string, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`SET LOCAL search_path = "` + tenant + `", public`).Error; err != nil {
			return fmt.Errorf("pin tenant schema: %w", err)
		}
		return fn(tx)
	})
}

// Insert relies on the unique index on key: ON CONFLICT DO NOTHING with a
// rows-affected check makes the claim a single atomic statement.
func (s *GormStore) Insert(ctx context.Context, tenant string, rec *models.IdempotencyRecord) error {
	return s.withTenant(ctx, tenant, func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).Create(rec)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrDuplicate
		}
		return nil
	})
}

func (s *GormStore) Get(ctx context.Context, tenant, key string) (*models.IdempotencyRecord, error) {
	var rec models.IdempotencyRecord
	err := s.withTenant(ctx, tenant, func(tx *gorm.DB) error {
		if err := tx.Where("key = ?", key).First(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Reclaim is a conditional update: it only wins if the record is still
// processing and its claim predates staleBefore. Concurrent reclaimers race on
// the row, exactly one sees RowsAffected == 1.
func (s *GormStore) Reclaim(ctx context.Context, tenant, key string, staleBefore, claimedAt, expiresAt time.Time) (bool, error) {
	var won bool
	err := s.withTenant(ctx, tenant, func(tx *gorm.DB) error {
		res := tx.Model(&models.IdempotencyRecord{}).
			Where("key = ? AND status = ? AND claimed_at < ?", key, models.IdempotencyProcessing, staleBefore).
			Updates(map[string]any{
				"claimed_at": claimedAt,
				"expires_at": expiresAt,
			})
		if res.Error != nil {
			return res.Error
		}
		won = res.RowsAffected == 1
		return nil
	})
	return won, err
}

func (s *GormStore) Complete(ctx context.Context, tenant, key string, statusCode int, headers []byte, body []byte, bodyOmitted bool) error {
	return s.withTenant(ctx, tenant, func(tx *gorm.DB) error {
		blob := make([]byte, len(body))
		copy(blob, body)
		res := tx.Model(&models.IdempotencyRecord{}).
			Where("key = ? AND status = ?", key, models.IdempotencyProcessing).
			Updates(map[string]any{
				"status":           models.IdempotencyCompleted,
				"response_status":  statusCode,
				"response_headers": headers,
				"response_body":    blob,
				"body_omitted":     bodyOmitted,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *GormStore) Delete(ctx context.Context, tenant, key string) error {
	return s.withTenant(ctx, tenant, func(tx *gorm.DB) error {
		return tx.Where("key = ?", key).Delete(&models.IdempotencyRecord{}).Error
	})
}

func (s *GormStore) DeleteExpired(ctx context.Context, tenant, key string, now time.Time) error {
	return s.withTenant(ctx, tenant, func(tx *gorm.DB) error {
		return tx.Where("key = ? AND expires_at <= ?", key, now).
			Delete(&models.IdempotencyRecord{}).Error
	})
}
