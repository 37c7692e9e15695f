package pricing

import "errors"

var (
	// ErrQuoteRequired возвращается для слота без тарифа: цену согласуют с владельцем
	ErrQuoteRequired = errors.New("pricing: quote required")

	// ErrInvalidRate возвращается для неположительного тарифа или тарифа с лишними знаками
	ErrInvalidRate = errors.New("pricing: invalid rate")

	// ErrEmptyWindow возвращается для пустого интервала
	ErrEmptyWindow = errors.New("pricing: empty window")
)
