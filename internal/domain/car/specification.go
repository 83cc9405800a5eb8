package car

import "strings"

// Category is the rental class of a car.
type Category string

const (
	CategoryEconomy   Category = "ECONOMY"
	CategoryComfort   Category = "COMFORT"
	CategoryBusiness  Category = "BUSINESS"
	CategoryMinivan   Category = "MINIVAN"
	CategoryPremium   Category = "PREMIUM"
	CategoryCrossover Category = "CROSSOVER"
	CategoryElectric  Category = "ELECTRIC"
)

// IsValid returns true if the category is recognized.
func (c Category) IsValid() bool {
	switch c {
	case CategoryEconomy, CategoryComfort, CategoryBusiness, CategoryMinivan,
		CategoryPremium, CategoryCrossover, CategoryElectric:
		return true
	}
	return false
}

// GearBoxType is the transmission of a car.
type GearBoxType string

const (
	GearBoxAutomatic GearBoxType = "AUTOMATIC"
	GearBoxManual    GearBoxType = "MANUAL"
)

// IsValid returns true if the gearbox type is recognized.
func (g GearBoxType) IsValid() bool {
	return g == GearBoxAutomatic || g == GearBoxManual
}

// FuelType is the energy source of a car.
type FuelType string

const (
	FuelPetrol   FuelType = "PETROL"
	FuelDiesel   FuelType = "DIESEL"
	FuelElectric FuelType = "ELECTRIC"
	FuelHybrid   FuelType = "HYBRID"
)

// IsValid returns true if the fuel type is recognized.
func (f FuelType) IsValid() bool {
	switch f {
	case FuelPetrol, FuelDiesel, FuelElectric, FuelHybrid:
		return true
	}
	return false
}

// Normalize upper-cases a filter or input value so "automatic" matches AUTOMATIC.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Specification is an immutable value object describing what the car offers.
type Specification struct {
	GearBoxType          GearBoxType `json:"gearBoxType"`
	FuelType             FuelType    `json:"fuelType"`
	EngineCapacity       string      `json:"engineCapacity"`
	FuelConsumption      string      `json:"fuelConsumption"`
	PassengerCapacity    int         `json:"passengerCapacity"`
	ClimateControlOption string      `json:"climateControlOption"`
}
