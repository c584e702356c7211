package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogItem is a priced service offered by a provider (a room night, a
// guiding day, a transfer leg). Quotation lines reference catalog items.
type CatalogItem struct {
	Id          string     `json:"id" gorm:"primaryKey"`
	ProviderID  uint       `json:"provider_id" gorm:"not null;index"`
	Provider    Provider   `json:"-" gorm:"foreignKey:ProviderID;references:Id;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT"`
	Name        string     `json:"name" gorm:"not null"`
	Description string     `json:"description"`
	UnitPrice   float64    `json:"unit_price" gorm:"type:numeric(12,2)"`
	Currency    string     `json:"currency" gorm:"size:3;not null;default:EUR"`
	SeasonFrom  *time.Time `json:"season_from"` // nil = valid year-round
	SeasonTo    *time.Time `json:"season_to"`
	Active      bool       `json:"-"`
}

func (item *CatalogItem) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	item.Id = uuid.NewString()
	return
}
