package stockledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// TransferBatch coordina un conjunto de transferencias que comparten una
// referencia de transacción: valida el lote completo antes de mutar nada y,
// solo si todo pasa, crea los asientos de cada línea. Se construye por
// llamada y se descarta al terminar; no guarda estado entre llamadas.
//
// El stock es un libro ordenado por fecha, no un contador: insertar una
// salida en una fecha pasada puede dejar negativo un saldo posterior ya
// registrado aunque el total actual alcance. Por eso la validación revisa
// dos bordes: el saldo inmediatamente anterior a la fecha y el saldo que
// resulta de aplicar los asientos futuros ya existentes.
type TransferBatch struct {
	ReferenceType string
	ReferenceName string
	// IsCancelled indica que el lote es la reversa de una transacción ya
	// cancelada cuyos asientos originales aún no se borran del libro.
	IsCancelled bool

	balances repository.BalanceRepository
	ledger   repository.StockLedgerRepository
	dates    DateFormatter
	movers   []*StockMover
}

// NewTransferBatch construye el coordinador para una referencia.
func NewTransferBatch(
	referenceType, referenceName string,
	isCancelled bool,
	balances repository.BalanceRepository,
	ledger repository.StockLedgerRepository,
	dates DateFormatter,
) *TransferBatch {
	return &TransferBatch{
		ReferenceType: referenceType,
		ReferenceName: referenceName,
		IsCancelled:   isCancelled,
		balances:      balances,
		ledger:        ledger,
		dates:         dates,
	}
}

// ValidateTransfers valida cada solicitud en orden y falla con la primera
// inválida. No muta estado; repetirla sin cambios intermedios produce el
// mismo resultado.
func (b *TransferBatch) ValidateTransfers(requests []entity.TransferRequest) error {
	for _, req := range requests {
		if err := b.validateTransfer(req); err != nil {
			return err
		}
	}
	return nil
}

// CreateTransfers revalida todo el lote (defensa contra callers con estado
// viejo) y, solo si todas las solicitudes pasan, genera un StockMover por
// línea y persiste sus asientos mover a mover. Si la persistencia falla a
// mitad de camino los asientos ya escritos permanecen: el motor no ofrece
// rollback entre asientos; el caller reconcilia con CancelTransfers o
// envuelve la llamada en una transacción del almacenamiento (TxRunner).
func (b *TransferBatch) CreateTransfers(requests []entity.TransferRequest) error {
	if err := b.ValidateTransfers(requests); err != nil {
		return err
	}
	b.movers = b.movers[:0]
	for _, req := range requests {
		mover := NewStockMover(req)
		mover.TransferStock()
		b.movers = append(b.movers, mover)
	}
	for _, mover := range b.movers {
		if err := mover.Sync(b.ledger); err != nil {
			return err
		}
	}
	return nil
}

// CancelTransfers borra todos los asientos de la referencia del lote.
// Borrado puro e incondicional: no recalcula saldos ni reversa valores.
func (b *TransferBatch) CancelTransfers() error {
	if err := b.ledger.DeleteByReference(b.ReferenceType, b.ReferenceName); err != nil {
		return fmt.Errorf("borrar asientos de %s %s: %w", b.ReferenceType, b.ReferenceName, err)
	}
	return nil
}

// ValidateCancel valida la reversa de cada solicitud (origen y destino
// intercambiados). Responde si es seguro devolver el stock por donde vino,
// es decir, si cancelar no dejará negativo ningún registro futuro que
// dependa de estos asientos.
func (b *TransferBatch) ValidateCancel(requests []entity.TransferRequest) error {
	reversed := make([]entity.TransferRequest, 0, len(requests))
	for _, req := range requests {
		reversed = append(reversed, req.Reversed())
	}
	return b.ValidateTransfers(reversed)
}

// Movers devuelve los movers del último CreateTransfers.
func (b *TransferBatch) Movers() []*StockMover {
	return b.movers
}

// validateTransfer aplica las verificaciones en orden fijo: cantidad,
// tarifa, bodegas y disponibilidad de stock.
func (b *TransferBatch) validateTransfer(req entity.TransferRequest) error {
	if err := b.validateQuantity(req); err != nil {
		return err
	}
	if err := b.validateRate(req); err != nil {
		return err
	}
	if err := b.validateLocations(req); err != nil {
		return err
	}
	return b.validateAvailability(req)
}

func (b *TransferBatch) validateQuantity(req entity.TransferRequest) error {
	if !req.Quantity.GreaterThan(decimal.Zero) {
		return &domain.ValidationError{Err: domain.ErrInvalidQuantity, Item: req.Item}
	}
	return nil
}

func (b *TransferBatch) validateRate(req entity.TransferRequest) error {
	if !req.Rate.GreaterThan(decimal.Zero) {
		return &domain.ValidationError{Err: domain.ErrInvalidRate, Item: req.Item}
	}
	return nil
}

func (b *TransferBatch) validateLocations(req entity.TransferRequest) error {
	if req.FromLocation == nil && req.ToLocation == nil {
		return &domain.ValidationError{Err: domain.ErrNoLocation, Item: req.Item}
	}
	return nil
}

// validateAvailability verifica la salida contra el libro: que el saldo
// inmediatamente anterior a la fecha alcance, y que insertar la salida no
// deje negativo ningún saldo futuro ya registrado.
func (b *TransferBatch) validateAvailability(req entity.TransferRequest) error {
	if req.FromLocation == nil {
		return nil
	}
	location := *req.FromLocation

	qtyBefore, err := b.balances.BalanceBefore(req.Item, location, req.Batch, req.Date)
	if err != nil {
		return fmt.Errorf("consultar saldo previo de %s en %s: %w", req.Item, location, err)
	}
	if b.IsCancelled {
		// La reversa se valida con los asientos originales todavía en el
		// libro; la salida que se está revirtiendo aún descuenta del saldo
		// y se compensa aquí.
		qtyBefore = qtyBefore.Add(req.Quantity)
	}
	if qtyBefore.LessThan(req.Quantity) {
		return &domain.ValidationError{
			Err:           domain.ErrInsufficientStock,
			Item:          req.Item,
			Location:      location,
			Batch:         req.Batch,
			Date:          req.Date,
			FormattedDate: b.dates.FormatDate(req.Date),
			Shortfall:     req.Quantity.Sub(qtyBefore),
		}
	}

	qtyAfter, err := b.balances.BalanceAfter(req.Item, location, req.Batch, req.Date)
	if err != nil {
		return fmt.Errorf("consultar saldo posterior de %s en %s: %w", req.Item, location, err)
	}
	if qtyAfter == nil {
		// Sin asientos posteriores: ningún saldo futuro depende de esta
		// salida. Ojo: nil no es lo mismo que saldo 0.
		return nil
	}
	qtyRemaining := qtyBefore.Sub(req.Quantity)
	if qtyAfter.LessThan(qtyRemaining) {
		return &domain.ValidationError{
			Err:           domain.ErrFutureNegativeStock,
			Item:          req.Item,
			Location:      location,
			Batch:         req.Batch,
			Date:          req.Date,
			FormattedDate: b.dates.FormatDate(req.Date),
			Shortfall:     qtyAfter.Sub(qtyRemaining),
		}
	}
	return nil
}
