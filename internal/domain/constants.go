package domain

import "time"

// Default booking rules
const (
	DefaultMinDuration        = 30 * time.Minute
	DefaultMaxDuration        = 7 * 24 * time.Hour
	DefaultMaxAdvance         = 60 * 24 * time.Hour
	DefaultCancellationGrace  = 60 * time.Minute
	DefaultCurrencyMinorUnits = 2
)

// Validation limits
const (
	MaxLabelLength              = 64
	MaxCancellationReasonLength = 500
	MaxListLimit                = 500
	DefaultListLimit            = 100
)

// TimeFormat формат временных меток в API (RFC 3339, UTC)
const TimeFormat = time.RFC3339
