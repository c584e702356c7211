package models

// Provider types recognized by the catalog. Mirrors the operator's supplier
// taxonomy: accommodation, guiding, transport, dining, transfers.
const (
	ProviderHotel      = "hotel"
	ProviderGuide      = "guide"
	ProviderVehicle    = "vehicle"
	ProviderRestaurant = "restaurant"
	ProviderTransfer   = "transfer"
)

// Provider is a supplier the operator buys services from.
type Provider struct {
	Id          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"not null;uniqueIndex:idx_providers_name_type,priority:1"`
	Type        string `json:"type" gorm:"size:20;not null;uniqueIndex:idx_providers_name_type,priority:2;index"`
	Email       string `json:"email" gorm:"not null"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
	City        string `json:"city" gorm:"not null"`
	Country     string `json:"country" gorm:"not null"`
	Zip         string `json:"zip"`
	TaxNumber   string `json:"tax_number"`
	Notes       string `json:"notes"`
	Active      bool   `json:"active" gorm:"default:true"`
}

// KnownProviderType reports whether t is one of the catalog's provider types.
func KnownProviderType(t string) bool {
	switch t {
	case ProviderHotel, ProviderGuide, ProviderVehicle, ProviderRestaurant, ProviderTransfer:
		return true
	}
	return false
}
