package repository

import "github.com/jhoicas/stock-ledger-api/internal/domain/entity"

// StockLedgerRepository define el puerto de persistencia del libro de stock
// (append-only). El motor solo decide qué asientos son válidos y con qué
// valores firmados; cómo se almacenan es asunto del adaptador.
type StockLedgerRepository interface {
	// AppendEntries persiste los asientos en el orden recibido. El orden es
	// significativo: dentro de una línea las salidas llegan antes que las
	// entradas.
	AppendEntries(entries []*entity.StockLedgerEntry) error
	// DeleteByReference borra todos los asientos de la referencia, sin
	// condiciones ni recálculo de saldos.
	DeleteByReference(referenceType, referenceName string) error
	ListByReference(referenceType, referenceName string) ([]*entity.StockLedgerEntry, error)
}
