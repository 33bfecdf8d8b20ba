package repository

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceRepository consulta el saldo firmado de (item, location, batch) en
// un punto del tiempo. Son dos consultas direccionales deliberadamente
// separadas: "estrictamente antes" y "estrictamente después" tienen
// semánticas distintas y no deben fusionarse en una lectura de historial.
type BalanceRepository interface {
	// BalanceBefore suma las cantidades firmadas con fecha estrictamente
	// anterior a date. Sin registros previos devuelve 0.
	// El filtro por lote aplica solo si batch no es nil.
	BalanceBefore(item, location string, batch *string, date time.Time) (decimal.Decimal, error)
	// BalanceAfter suma las cantidades firmadas con fecha estrictamente
	// posterior a date. Devuelve nil si no existe ningún asiento posterior;
	// un saldo de 0 sobre asientos existentes NO es nil.
	BalanceAfter(item, location string, batch *string, date time.Time) (*decimal.Decimal, error)
}
