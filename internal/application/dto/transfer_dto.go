package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// dateLayout formato de fecha aceptado en los cuerpos JSON (fecha contable,
// sin hora).
const dateLayout = "2006-01-02"

// TransferDTO una línea de transferencia dentro del lote.
type TransferDTO struct {
	Item         string          `json:"item"`
	Rate         decimal.Decimal `json:"rate"`
	Quantity     decimal.Decimal `json:"quantity"`
	Date         string          `json:"date"` // YYYY-MM-DD
	FromLocation *string         `json:"from_location,omitempty"`
	ToLocation   *string         `json:"to_location,omitempty"`
	Batch        *string         `json:"batch,omitempty"`
}

// TransferBatchRequest body para POST /api/stock/transfers y los endpoints
// de validación. Todas las líneas comparten la referencia del lote.
type TransferBatchRequest struct {
	ReferenceType string        `json:"reference_type"`
	ReferenceName string        `json:"reference_name"`
	IsCancelled   bool          `json:"is_cancelled,omitempty"`
	Transfers     []TransferDTO `json:"transfers"`
}

// ToEntities convierte el lote en solicitudes de dominio, parseando fechas
// y propagando la referencia a cada línea.
func (r TransferBatchRequest) ToEntities() ([]entity.TransferRequest, error) {
	out := make([]entity.TransferRequest, 0, len(r.Transfers))
	for i, t := range r.Transfers {
		date, err := time.Parse(dateLayout, t.Date)
		if err != nil {
			return nil, fmt.Errorf("línea %d: fecha inválida %q (se espera YYYY-MM-DD)", i+1, t.Date)
		}
		out = append(out, entity.TransferRequest{
			Item:          t.Item,
			Rate:          t.Rate,
			Quantity:      t.Quantity,
			Date:          date,
			FromLocation:  t.FromLocation,
			ToLocation:    t.ToLocation,
			Batch:         t.Batch,
			ReferenceType: r.ReferenceType,
			ReferenceName: r.ReferenceName,
		})
	}
	return out, nil
}

// LedgerEntryDTO asiento del libro en respuestas.
type LedgerEntryDTO struct {
	ID            string          `json:"id"`
	Item          string          `json:"item"`
	Location      string          `json:"location"`
	Batch         *string         `json:"batch,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
	Rate          decimal.Decimal `json:"rate"`
	Date          string          `json:"date"`
	ReferenceType string          `json:"reference_type"`
	ReferenceName string          `json:"reference_name"`
}

// FromEntry construye el DTO desde la entidad.
func FromEntry(e *entity.StockLedgerEntry) LedgerEntryDTO {
	return LedgerEntryDTO{
		ID:            e.ID,
		Item:          e.Item,
		Location:      e.Location,
		Batch:         e.Batch,
		Quantity:      e.Quantity,
		Rate:          e.Rate,
		Date:          e.Date.Format(dateLayout),
		ReferenceType: e.ReferenceType,
		ReferenceName: e.ReferenceName,
	}
}

// BalanceResponse respuesta de GET /api/stock/balance. Balance es nil
// cuando la consulta "after" no encuentra asientos posteriores (distinto
// de saldo 0).
type BalanceResponse struct {
	Item     string           `json:"item"`
	Location string           `json:"location"`
	Batch    *string          `json:"batch,omitempty"`
	Balance  *decimal.Decimal `json:"balance"`
}
