package booking

import "fmt"

// PricingStrategy defines the interface for calculating rental prices.
type PricingStrategy interface {
	// Calculate returns the rental price in cents for the given parameters.
	Calculate(params PricingParams) (int64, error)
}

// PricingParams holds the inputs for price calculation.
type PricingParams struct {
	Window           Window
	PricePerDayCents int64
	OneWay           bool
}

// DailyRatePricing charges the car's daily rate per started day, plus a flat
// fee when the car is returned to a different location.
type DailyRatePricing struct {
	OneWayFeeCents int64
}

// NewDailyRatePricing creates a DailyRatePricing with the default one-way fee.
func NewDailyRatePricing() *DailyRatePricing {
	return &DailyRatePricing{OneWayFeeCents: 2500}
}

// Calculate computes the rental price in cents.
func (p *DailyRatePricing) Calculate(params PricingParams) (int64, error) {
	if params.PricePerDayCents < 0 {
		return 0, fmt.Errorf("price per day cannot be negative")
	}
	if !params.Window.Pickup.Before(params.Window.Dropoff) {
		return 0, fmt.Errorf("window must end after it starts")
	}

	total := params.Window.BillableDays() * params.PricePerDayCents
	if params.OneWay {
		total += p.OneWayFeeCents
	}
	return total, nil
}
