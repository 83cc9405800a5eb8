package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyRatePricing(t *testing.T) {
	p := NewDailyRatePricing()
	w := Window{Pickup: baseTime, Dropoff: baseTime.Add(50 * time.Hour)}

	price, err := p.Calculate(PricingParams{Window: w, PricePerDayCents: 4000})
	require.NoError(t, err)
	assert.Equal(t, int64(12000), price)

	price, err = p.Calculate(PricingParams{Window: w, PricePerDayCents: 4000, OneWay: true})
	require.NoError(t, err)
	assert.Equal(t, int64(14500), price)

	_, err = p.Calculate(PricingParams{Window: w, PricePerDayCents: -1})
	assert.Error(t, err)
	_, err = p.Calculate(PricingParams{Window: Window{}, PricePerDayCents: 1})
	assert.Error(t, err)
}
