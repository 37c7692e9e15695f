package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

func pricedSlot(rate string) *domain.Slot {
	return &domain.Slot{
		ID:     1,
		Status: domain.SlotStatusActive,
		Rate:   decimal.NullDecimal{Decimal: decimal.RequireFromString(rate), Valid: true},
	}
}

func window(t *testing.T, d time.Duration) domain.Window {
	t.Helper()
	start := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	w, err := domain.NewWindow(start, start.Add(d))
	require.NoError(t, err)
	return w
}

func TestComputePrice(t *testing.T) {
	calc := NewCalculator(2)

	tests := []struct {
		name     string
		rate     string
		duration time.Duration
		want     string
	}{
		{name: "whole hours", rate: "50.00", duration: 4 * time.Hour, want: "200"},
		{name: "half hour", rate: "10.00", duration: 30 * time.Minute, want: "5"},
		{name: "rounds half up", rate: "0.01", duration: 30 * time.Minute, want: "0.01"},
		{name: "rounds down below half", rate: "0.01", duration: 17 * time.Minute, want: "0"},
		{name: "third of an hour", rate: "10.00", duration: 20 * time.Minute, want: "3.33"},
		{name: "two thirds of an hour", rate: "10.00", duration: 40 * time.Minute, want: "6.67"},
		{name: "multi day", rate: "2.50", duration: 7 * 24 * time.Hour, want: "420"},
		{name: "fractional seconds", rate: "3600", duration: time.Hour + 900*time.Millisecond, want: "3600.90"},
		{name: "sub-second half rounds up", rate: "36", duration: time.Hour + 500*time.Millisecond, want: "36.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.ComputePrice(pricedSlot(tt.rate), window(t, tt.duration))
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestComputePrice_MinorUnits(t *testing.T) {
	got, err := NewCalculator(0).ComputePrice(pricedSlot("10"), window(t, 90*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "15", got.String())

	got, err = NewCalculator(0).ComputePrice(pricedSlot("3"), window(t, 30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "2", got.String(), "1.5 rounds half up")
}

func TestComputePrice_QuoteRequired(t *testing.T) {
	slot := &domain.Slot{ID: 1, Status: domain.SlotStatusActive}

	_, err := NewCalculator(2).ComputePrice(slot, window(t, time.Hour))
	assert.ErrorIs(t, err, ErrQuoteRequired)
}

func TestComputePrice_Deterministic(t *testing.T) {
	calc := NewCalculator(2)
	slot := pricedSlot("12.34")
	w := window(t, 155*time.Minute)

	first, err := calc.ComputePrice(slot, w)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := calc.ComputePrice(slot, w)
		require.NoError(t, err)
		assert.True(t, first.Equal(again))
	}
	assert.Equal(t, "31.88", calc.Format(first))
}

func TestValidateRate(t *testing.T) {
	calc := NewCalculator(2)

	assert.NoError(t, calc.ValidateRate(decimal.RequireFromString("12.5")))
	assert.NoError(t, calc.ValidateRate(decimal.RequireFromString("0.01")))
	assert.ErrorIs(t, calc.ValidateRate(decimal.Zero), ErrInvalidRate)
	assert.ErrorIs(t, calc.ValidateRate(decimal.RequireFromString("-1")), ErrInvalidRate)
	assert.ErrorIs(t, calc.ValidateRate(decimal.RequireFromString("1.005")), ErrInvalidRate)
}
