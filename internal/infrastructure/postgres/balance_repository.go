package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.BalanceRepository = (*BalanceRepo)(nil)

// BalanceRepo consulta saldos firmados sobre stock_ledger_entries
// (usable con pool o tx).
type BalanceRepo struct {
	q Querier
}

// NewBalanceRepository construye el adaptador de saldos. Pasar pool o tx (Querier).
func NewBalanceRepository(q Querier) *BalanceRepo {
	return &BalanceRepo{q: q}
}

// BalanceBefore suma las cantidades con fecha estrictamente anterior.
// Sin filas devuelve 0.
func (r *BalanceRepo) BalanceBefore(item, location string, batch *string, date time.Time) (decimal.Decimal, error) {
	_, sum, err := r.sumWhere("date < $3", item, location, batch, date)
	return sum, err
}

// BalanceAfter suma las cantidades con fecha estrictamente posterior.
// Devuelve nil cuando no existe ningún asiento posterior; se consulta
// COUNT(*) junto al SUM precisamente para no confundir "sin filas" con
// "la suma da 0".
func (r *BalanceRepo) BalanceAfter(item, location string, batch *string, date time.Time) (*decimal.Decimal, error) {
	count, sum, err := r.sumWhere("date > $3", item, location, batch, date)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	return &sum, nil
}

func (r *BalanceRepo) sumWhere(cond, item, location string, batch *string, date time.Time) (int64, decimal.Decimal, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(quantity), 0)
		FROM stock_ledger_entries
		WHERE item = $1 AND location = $2 AND ` + cond
	args := []any{item, location, date}
	if batch != nil {
		query += " AND batch = $4"
		args = append(args, *batch)
	}
	var count int64
	var sum decimal.Decimal
	if err := r.q.QueryRow(context.Background(), query, args...).Scan(&count, &sum); err != nil {
		return 0, decimal.Zero, fmt.Errorf("sumar saldo: %w", err)
	}
	return count, sum, nil
}
