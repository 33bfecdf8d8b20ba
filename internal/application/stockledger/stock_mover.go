package stockledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// StockMover convierte una TransferRequest ya validada en sus asientos
// firmados: una salida en la bodega origen y/o una entrada en la destino.
type StockMover struct {
	request entity.TransferRequest
	entries []*entity.StockLedgerEntry
}

// NewStockMover construye el mover para una solicitud.
func NewStockMover(request entity.TransferRequest) *StockMover {
	return &StockMover{request: request}
}

// TransferStock descarta cualquier asiento previo y genera los de esta
// solicitud: -Quantity en origen si hay origen, +Quantity en destino si hay
// destino. Un traslado entre dos bodegas produce ambos; un ajuste puro de
// entrada o salida produce uno solo. Con cantidad cero no produce ninguno.
func (m *StockMover) TransferStock() {
	m.entries = nil
	if m.request.Quantity.IsZero() {
		return
	}
	if m.request.FromLocation != nil {
		m.entries = append(m.entries, m.newEntry(*m.request.FromLocation, m.request.Quantity.Neg()))
	}
	if m.request.ToLocation != nil {
		m.entries = append(m.entries, m.newEntry(*m.request.ToLocation, m.request.Quantity))
	}
}

func (m *StockMover) newEntry(location string, quantity decimal.Decimal) *entity.StockLedgerEntry {
	return &entity.StockLedgerEntry{
		Item:          m.request.Item,
		Location:      location,
		Batch:         m.request.Batch,
		Quantity:      quantity,
		Rate:          m.request.Rate,
		Date:          m.request.Date,
		ReferenceType: m.request.ReferenceType,
		ReferenceName: m.request.ReferenceName,
	}
}

// Entries devuelve los asientos generados, en orden de creación.
func (m *StockMover) Entries() []*entity.StockLedgerEntry {
	return m.entries
}

// Sync persiste los asientos generados: todas las salidas primero y luego
// las entradas, cada grupo en su orden de creación. En un traslado interno
// neto-cero la resta queda registrada antes que la suma, de modo que un
// lector que observe una escritura parcial nunca vea el stock sobrecontado.
func (m *StockMover) Sync(ledger repository.StockLedgerRepository) error {
	if len(m.entries) == 0 {
		return nil
	}
	if err := ledger.AppendEntries(orderForSync(m.entries)); err != nil {
		return fmt.Errorf("persistir asientos de %s: %w", m.request.Item, err)
	}
	return nil
}

// orderForSync particiona de forma estable: salidas (cantidad no positiva)
// primero, entradas después.
func orderForSync(entries []*entity.StockLedgerEntry) []*entity.StockLedgerEntry {
	ordered := make([]*entity.StockLedgerEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsOutward() {
			ordered = append(ordered, e)
		}
	}
	for _, e := range entries {
		if !e.IsOutward() {
			ordered = append(ordered, e)
		}
	}
	return ordered
}
