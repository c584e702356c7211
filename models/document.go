package models

import (
	"time"

	"gorm.io/datatypes"
)

// Commercial document kinds. A document starts life as a quotation and is
// converted to an invoice; each transition is captured as an immutable version.
const (
	DocQuotation = "quotation"
	DocInvoice   = "invoice"
)

// TripDocument is the current/live state of a commercial document
// (quotation or the invoice it was converted into).
type TripDocument struct {
	ID             uint   `json:"id" gorm:"primaryKey"`
	DocumentNumber string `json:"document_number" gorm:"unique"`
	Kind           string `json:"kind" gorm:"size:20;not null;default:quotation"`
	ClientID       uint   `json:"-"`
	Client         Client `json:"client" gorm:"foreignKey:ClientID;references:Id"`

	// Live lines (latest state)
	Items    []DocumentItem `json:"items" gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE"`
	Subtotal float64        `json:"subtotal" gorm:"type:numeric(12,2)"`
	TaxTotal float64        `json:"tax_total" gorm:"type:numeric(12,2)"`
	Total    float64        `json:"total" gorm:"type:numeric(12,2)"`
	Currency string         `json:"currency" gorm:"size:3;not null;default:EUR"`

	// State
	Draft       bool       `json:"draft"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at"`

	// Payments rollup (invoices only)
	PaidTotal float64 `json:"paid_total" gorm:"type:numeric(12,2)"`

	CreatedAt time.Time `json:"created_at"`
}

type DocumentItem struct {
	ID            uint        `json:"id" gorm:"primaryKey"`
	DocumentID    uint        `json:"-" gorm:"index"` // fast join
	CatalogItemID string      `json:"catalog_item_id" gorm:"not null;index"`
	CatalogItem   CatalogItem `json:"-" gorm:"foreignKey:CatalogItemID;references:Id;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT"`
	Description   string      `json:"description"`
	Quantity      int         `json:"quantity"`
	UnitPrice     float64     `json:"unit_price" gorm:"type:numeric(12,2)"`
	TaxRate       float64     `json:"tax_rate"` // rate stays float
	NetPrice      float64     `json:"net_price" gorm:"type:numeric(12,2)"`
	TaxAmount     float64     `json:"tax_amount" gorm:"type:numeric(12,2)"`
	GrossPrice    float64     `json:"gross_price" gorm:"type:numeric(12,2)"`
}

// Immutable snapshot taken on every conversion/publish.
type DocumentVersion struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	DocumentID uint           `json:"document_id" gorm:"index:idx_document_versions_document_id_version_no,unique,priority:1"`
	VersionNo  int            `json:"version_no" gorm:"not null;index:idx_document_versions_document_id_version_no,unique,priority:2"`
	Kind       string         `json:"kind" gorm:"type:VARCHAR(20)"` // "quotation" | "invoice"
	Snapshot   datatypes.JSON `json:"snapshot" gorm:"type:jsonb"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Payment survives conversions; linked to the document.
type Payment struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	DocumentID uint      `json:"document_id" gorm:"index:idx_payments_document_paid_at,priority:1"`
	Amount     float64   `json:"amount" gorm:"type:numeric(12,2)"`
	Method     string    `json:"method"`
	Reference  string    `json:"reference"`
	Note       string    `json:"note"`
	PaidAt     time.Time `json:"paid_at" gorm:"index:idx_payments_document_paid_at,priority:2"`
	CreatedAt  time.Time `json:"created_at"`
}
