package models

import "time"

// Booking statuses.
const (
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

// Booking is a confirmed trip, usually created from an accepted quotation.
type Booking struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	Reference   string        `json:"reference" gorm:"size:32;unique;not null"`
	ClientID    uint          `json:"-" gorm:"not null;index"`
	Client      Client        `json:"client" gorm:"foreignKey:ClientID;references:Id"`
	DocumentID  *uint         `json:"document_id" gorm:"index"` // source quotation, if any
	Document    *TripDocument `json:"-" gorm:"foreignKey:DocumentID;references:ID"`
	Status      string        `json:"status" gorm:"size:20;not null;default:confirmed"`
	StartDate   time.Time     `json:"start_date"`
	EndDate     time.Time     `json:"end_date"`
	Travelers   int           `json:"travelers"`
	TotalPrice  float64       `json:"total_price" gorm:"type:numeric(12,2)"`
	Currency    string        `json:"currency" gorm:"size:3;not null;default:EUR"`
	CancelledAt *time.Time    `json:"cancelled_at"`
	CancelNote  string        `json:"cancel_note"`
	CreatedAt   time.Time     `json:"created_at"`
}
