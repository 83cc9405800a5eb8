package car

import (
	"github.com/google/uuid"

	"github.com/RentalBee/service-rental/internal/common/domain"
)

// Location is a pickup/dropoff point. It is plain catalogue data.
type Location struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Address string    `json:"address"`
	MapURL  string    `json:"url,omitempty"`
}

// NewLocation validates and creates a Location.
func NewLocation(name, address, mapURL string) (*Location, error) {
	if name == "" || address == "" {
		return nil, domain.NewValidationError("location name and address are required")
	}
	return &Location{ID: uuid.New(), Name: name, Address: address, MapURL: mapURL}, nil
}

// Label is the "name, address" text shown on car cards.
func (l Location) Label() string {
	return l.Name + ", " + l.Address
}
