package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockLedgerEntry es un asiento inmutable del libro de stock: cantidad
// firmada (negativa salida, positiva entrada) de un artículo en una bodega
// a una fecha. Los asientos nunca se corrigen ni se reversan valor a valor;
// la cancelación borra todos los asientos de la referencia que los creó.
// El saldo de (item, location, batch) a una fecha es la suma de las
// cantidades firmadas hasta esa fecha.
type StockLedgerEntry struct {
	ID            string
	Item          string
	Location      string
	Batch         *string
	Quantity      decimal.Decimal
	Rate          decimal.Decimal
	Date          time.Time
	ReferenceType string
	ReferenceName string
	CreatedAt     time.Time
}

// IsOutward reporta si el asiento es una salida (cantidad no positiva).
// El orden de persistencia dentro de una línea depende de esto: las salidas
// se escriben antes que las entradas.
func (e *StockLedgerEntry) IsOutward() bool {
	return !e.Quantity.GreaterThan(decimal.Zero)
}
