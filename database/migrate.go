package database

import (
	"fmt"

	"touroperator-backend/models"

	"gorm.io/gorm"
)

// MigrateTenantSchema applies (idempotent) schema migrations for a single tenant schema.
// It pins search_path to the tenant and performs:
// - AutoMigrate (tables/columns)
// - Money column types (NUMERIC(12,2))
// - Indexes (document versions, payments, items, idempotency, audit)
// - Foreign key: document_items.catalog_item_id → catalog_items.id
// - Basic CHECK constraints
func MigrateTenantSchema(schema string) error {
	if schema == "" {
		return fmt.Errorf("schema name is empty")
	}

	return DB.Transaction(func(tx *gorm.DB) error {
		// Pin the tenant schema for this transaction
		if err := tx.Exec(`SET search_path = "` + schema + `", public`).Error; err != nil {
			return fmt.Errorf("set search_path failed: %w", err)
		}

		// --- AutoMigrate tables/columns/index tags (non-destructive) ---
		if err := tx.AutoMigrate(
			&models.Client{},
			&models.Provider{},
			&models.CatalogItem{},
			&models.TripDocument{},
			&models.DocumentItem{},
			&models.DocumentVersion{},
			&models.Payment{},
			&models.Booking{},
			&models.IdempotencyRecord{},
			&models.AuditLog{},
		); err != nil {
			return fmt.Errorf("tenant automigrate failed: %w", err)
		}

		// --- Enforce money columns as NUMERIC(12,2) (idempotent ALTERs) ---
		alters := []string{
			`ALTER TABLE catalog_items   ALTER COLUMN unit_price  TYPE numeric(12,2)`,
			`ALTER TABLE trip_documents  ALTER COLUMN subtotal    TYPE numeric(12,2)`,
			`ALTER TABLE trip_documents  ALTER COLUMN tax_total   TYPE numeric(12,2)`,
			`ALTER TABLE trip_documents  ALTER COLUMN total       TYPE numeric(12,2)`,
			`ALTER TABLE trip_documents  ALTER COLUMN paid_total  TYPE numeric(12,2)`,
			`ALTER TABLE document_items  ALTER COLUMN unit_price  TYPE numeric(12,2)`,
			`ALTER TABLE document_items  ALTER COLUMN net_price   TYPE numeric(12,2)`,
			`ALTER TABLE document_items  ALTER COLUMN tax_amount  TYPE numeric(12,2)`,
			`ALTER TABLE document_items  ALTER COLUMN gross_price TYPE numeric(12,2)`,
			`ALTER TABLE payments        ALTER COLUMN amount      TYPE numeric(12,2)`,
			`ALTER TABLE bookings        ALTER COLUMN total_price TYPE numeric(12,2)`,
		}
		for _, stmt := range alters {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("money type migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Composite / helpful indexes (idempotent) ---
		indexes := []string{
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_document_versions_document_id_version_no ON document_versions (document_id, version_no)`,
			`CREATE INDEX IF NOT EXISTS idx_payments_document_paid_at ON payments (document_id, paid_at)`,
			`CREATE INDEX IF NOT EXISTS idx_document_items_document ON document_items (document_id)`,
			`CREATE INDEX IF NOT EXISTS idx_document_items_catalog_item ON document_items (catalog_item_id)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_idempotency_records_key ON idempotency_records (key)`,
			`CREATE INDEX IF NOT EXISTS idx_idempotency_records_expires_at ON idempotency_records (expires_at)`,
			`CREATE INDEX IF NOT EXISTS idx_audit_logs_action_created_at ON audit_logs (action, created_at)`,
		}
		for _, stmt := range indexes {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Foreign key: document_items.catalog_item_id -> catalog_items.id (RESTRICT/RESTRICT) ---
		fk := `
DO $$
BEGIN
	IF NOT EXISTS (
		SELECT 1
		FROM pg_constraint
		WHERE conrelid = 'document_items'::regclass
		  AND conname  = 'fk_document_items_catalog_item'
	) THEN
		ALTER TABLE document_items
		ADD CONSTRAINT fk_document_items_catalog_item
		FOREIGN KEY (catalog_item_id)
		REFERENCES catalog_items(id)
		ON UPDATE RESTRICT
		ON DELETE RESTRICT;
	END IF;
END $$;`
		if err := tx.Exec(fk).Error; err != nil {
			return fmt.Errorf("foreign key migration failed: %w", err)
		}

		// --- NOT NULL for document_items.catalog_item_id (idempotent) ---
		if err := tx.Exec(`ALTER TABLE document_items ALTER COLUMN catalog_item_id SET NOT NULL`).Error; err != nil {
			return fmt.Errorf("set NOT NULL on document_items.catalog_item_id failed: %w", err)
		}

		// --- Basic CHECK constraints (idempotent) ---
		checks := []string{
			// Non-negative catalog price
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'catalog_items'::regclass
					  AND conname  = 'chk_catalog_items_unit_price_nonneg'
				) THEN
					ALTER TABLE catalog_items
					ADD CONSTRAINT chk_catalog_items_unit_price_nonneg
					CHECK (unit_price >= 0);
				END IF;
			END $$;`,
			// Payments.amount >= 0
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'payments'::regclass
					  AND conname  = 'chk_payments_amount_nonneg'
				) THEN
					ALTER TABLE payments
					ADD CONSTRAINT chk_payments_amount_nonneg
					CHECK (amount >= 0);
				END IF;
			END $$;`,
			// Document items: quantity >= 0
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'document_items'::regclass
					  AND conname  = 'chk_document_items_quantity_nonneg'
				) THEN
					ALTER TABLE document_items
					ADD CONSTRAINT chk_document_items_quantity_nonneg
					CHECK (quantity >= 0);
				END IF;
			END $$;`,
		}
		for _, stmt := range checks {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("check constraint migration failed: %w", err)
			}
		}

		return nil
	})
}
