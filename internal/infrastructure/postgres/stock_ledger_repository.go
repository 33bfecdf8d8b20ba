package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.StockLedgerRepository = (*StockLedgerRepo)(nil)

// StockLedgerRepo implementación del libro de stock sobre PostgreSQL
// (usable con pool o tx).
type StockLedgerRepo struct {
	q Querier
}

// NewStockLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockLedgerRepository(q Querier) *StockLedgerRepo {
	return &StockLedgerRepo{q: q}
}

// AppendEntries inserta los asientos uno a uno en el orden recibido; las
// salidas llegan antes que las entradas y ese orden queda reflejado en
// created_at/orden de inserción.
func (r *StockLedgerRepo) AppendEntries(entries []*entity.StockLedgerEntry) error {
	query := `
		INSERT INTO stock_ledger_entries
			(id, item, location, batch, quantity, rate, date, reference_type, reference_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	for _, e := range entries {
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now()
		}
		_, err := r.q.Exec(context.Background(), query,
			e.ID, e.Item, e.Location, e.Batch, e.Quantity, e.Rate,
			e.Date, e.ReferenceType, e.ReferenceName, e.CreatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("append ledger entry %s: %w", e.ID, domain.ErrDuplicate)
			}
			return fmt.Errorf("append ledger entry: %w", err)
		}
	}
	return nil
}

// DeleteByReference borra todos los asientos de una referencia.
func (r *StockLedgerRepo) DeleteByReference(referenceType, referenceName string) error {
	query := `DELETE FROM stock_ledger_entries WHERE reference_type = $1 AND reference_name = $2`
	_, err := r.q.Exec(context.Background(), query, referenceType, referenceName)
	if err != nil {
		return fmt.Errorf("delete by reference: %w", err)
	}
	return nil
}

// ListByReference lista los asientos de una referencia en orden de fecha y creación.
func (r *StockLedgerRepo) ListByReference(referenceType, referenceName string) ([]*entity.StockLedgerEntry, error) {
	query := `
		SELECT id, item, location, batch, quantity, rate, date, reference_type, reference_name, created_at
		FROM stock_ledger_entries
		WHERE reference_type = $1 AND reference_name = $2
		ORDER BY date, created_at`
	rows, err := r.q.Query(context.Background(), query, referenceType, referenceName)
	if err != nil {
		return nil, fmt.Errorf("list by reference: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockLedgerEntry
	for rows.Next() {
		var e entity.StockLedgerEntry
		if err := rows.Scan(&e.ID, &e.Item, &e.Location, &e.Batch, &e.Quantity, &e.Rate,
			&e.Date, &e.ReferenceType, &e.ReferenceName, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}
