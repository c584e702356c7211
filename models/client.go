package models

// Client is a travel customer of the operator (agency or direct traveler).
type Client struct {
	Id           uint    `json:"id" gorm:"primaryKey"`
	Name         string  `json:"name" gorm:"not null;unique"`
	ContactName  string  `json:"contact_name"`
	Email        string  `json:"email" gorm:"unique;not null"`
	PhoneNumber  string  `json:"phone_number"`
	Address      string  `json:"address"`
	City         string  `json:"city"`
	Country      string  `json:"country" gorm:"not null"`
	Zip          string  `json:"zip"`
	Language     string  `json:"language" gorm:"size:8"`
	Nationality  string  `json:"nationality" gorm:"size:64"`
	AgencyMarkup float64 `json:"agency_markup"` // percent applied on quotations
	Notes        string  `json:"notes"`
	Active       bool    `json:"-"`
}
