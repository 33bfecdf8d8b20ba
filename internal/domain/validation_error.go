package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ValidationError describe por qué una transferencia fue rechazada antes de
// persistir nada. Siempre envuelve una de las categorías de errors.go; los
// campos estructurados permiten al host renderizar un mensaje accionable en
// su propio idioma (la localización no es responsabilidad del motor).
type ValidationError struct {
	Err           error // categoría (ErrInvalidQuantity, ErrInsufficientStock, ...)
	Item          string
	Location      string
	Batch         *string
	Date          time.Time
	FormattedDate string // fecha ya renderizada por el DateFormatter del host
	Shortfall     decimal.Decimal
}

func (e *ValidationError) Error() string {
	switch {
	case errors.Is(e.Err, ErrInsufficientStock):
		if e.Batch != nil {
			return fmt.Sprintf("stock insuficiente: faltan %s de %s en %s (lote %s) al %s",
				e.Shortfall, e.Item, e.Location, *e.Batch, e.FormattedDate)
		}
		return fmt.Sprintf("stock insuficiente: faltan %s de %s en %s al %s",
			e.Shortfall, e.Item, e.Location, e.FormattedDate)
	case errors.Is(e.Err, ErrFutureNegativeStock):
		return fmt.Sprintf("la salida de %s en %s al %s dejaría negativo un saldo futuro ya registrado (déficit %s)",
			e.Item, e.Location, e.FormattedDate, e.Shortfall)
	default:
		if e.Item != "" {
			return fmt.Sprintf("%s: %s", e.Err.Error(), e.Item)
		}
		return e.Err.Error()
	}
}

// Unwrap expone la categoría para que el caller despache con errors.Is.
func (e *ValidationError) Unwrap() error { return e.Err }
