package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Agency is the registered tour operator. Lives in the public schema and
// anchors the tenant: its SchemaName is the per-tenant Postgres schema every
// authenticated request switches into.
type Agency struct {
	Id         string          `json:"id" gorm:"primaryKey"`
	Name       string          `json:"name" gorm:"not null;unique"`
	Address    string          `json:"address" gorm:"not null"`
	City       string          `json:"city" gorm:"not null"`
	Country    string          `json:"country" gorm:"not null"`
	Zip        string          `json:"zip" gorm:"not null"`
	Website    string          `json:"website" gorm:"null"`
	IataCode   string          `json:"iata_code" gorm:"null"`
	OwnerId    string          `json:"-"`
	Owner      User            `json:"owner" gorm:"foreignKey:OwnerId;references:Id"`
	ContactId  uint            `json:"-"`
	Contact    OperatorContact `json:"contact" gorm:"foreignKey:ContactId;references:Id"`
	SchemaName string          `json:"-"`
}

func (agency *Agency) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	agency.Id = uuid.NewString()
	return
}

// OperatorContact is the person the operator names at registration, used for
// correspondence outside the app.
type OperatorContact struct {
	Id         uint   `json:"id" gorm:"primaryKey"`
	FirstName  string `json:"first_name" gorm:"not null"`
	LastName   string `json:"last_name" gorm:"not null"`
	Phone      string `json:"phone"`
	Mobile     string `json:"mobile"`
	Salutation string `json:"salutation"`
	Title      string `json:"title"`
}
