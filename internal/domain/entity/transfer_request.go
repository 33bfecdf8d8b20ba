package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferRequest es la solicitud de mover Quantity unidades de un artículo
// entre una bodega origen y/o una bodega destino, con lote opcional.
// FromLocation, ToLocation y Batch son punteros: nil significa "no aplica"
// (al menos una bodega debe estar presente; lo valida el coordinador).
// Inmutable una vez construida; las operaciones devuelven copias.
type TransferRequest struct {
	Item          string
	Rate          decimal.Decimal
	Quantity      decimal.Decimal
	Date          time.Time
	FromLocation  *string
	ToLocation    *string
	Batch         *string
	ReferenceType string
	ReferenceName string
}

// Reversed devuelve la solicitud inversa: origen y destino intercambiados,
// mismo artículo, cantidad, tarifa y fecha. Es la forma de preguntar
// "¿sería seguro devolver este stock por donde vino?" antes de cancelar.
func (r TransferRequest) Reversed() TransferRequest {
	rev := r
	rev.FromLocation, rev.ToLocation = r.ToLocation, r.FromLocation
	return rev
}
