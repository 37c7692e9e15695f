// Package pricing вычисляет стоимость бронирования.
// Стоимость считается только здесь; значения от клиента не принимаются.
package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

var nanosPerHour = decimal.NewFromInt(int64(time.Hour))

// Calculator считает стоимость по часовому тарифу слота
type Calculator struct {
	minorUnits int32
}

// NewCalculator создает калькулятор; minorUnits - число знаков после запятой в валюте
func NewCalculator(minorUnits int) *Calculator {
	return &Calculator{minorUnits: int32(minorUnits)}
}

// MinorUnits число знаков после запятой
func (c *Calculator) MinorUnits() int {
	return int(c.minorUnits)
}

// ComputePrice возвращает rate * длительность в часах, округлённую half-up до minor units.
// Для слота без тарифа возвращает ErrQuoteRequired.
func (c *Calculator) ComputePrice(slot *domain.Slot, window domain.Window) (decimal.Decimal, error) {
	rate, ok := slot.HourlyRate()
	if !ok {
		return decimal.Zero, ErrQuoteRequired
	}

	d := window.Duration()
	if d <= 0 {
		return decimal.Zero, ErrEmptyWindow
	}

	// длительность в наносекундах: дробные секунды границ входят в цену.
	// DivRound округляет точное частное half away from zero, для положительных это half-up
	return rate.
		Mul(decimal.NewFromInt(int64(d))).
		DivRound(nanosPerHour, c.minorUnits), nil
}

// ValidateRate проверяет, что тариф положителен и не точнее minor units
func (c *Calculator) ValidateRate(rate decimal.Decimal) error {
	if !rate.IsPositive() {
		return fmt.Errorf("%w: rate must be positive, got %s", ErrInvalidRate, rate)
	}
	if !rate.Equal(rate.Truncate(c.minorUnits)) {
		return fmt.Errorf("%w: rate %s has more than %d decimal places", ErrInvalidRate, rate, c.minorUnits)
	}
	return nil
}

// Format форматирует сумму с фиксированным числом знаков
func (c *Calculator) Format(amount decimal.Decimal) string {
	return amount.StringFixed(c.minorUnits)
}
