package stockledger_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/application/stockledger"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/pkg/dates"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria: un libro de stock que implementa los dos puertos
// (StockLedgerRepository y BalanceRepository) calculando saldos sobre sus
// propios asientos, con la misma semántica estricta before/after del
// adaptador PostgreSQL (sin filas posteriores => nil, no 0).
// ──────────────────────────────────────────────────────────────────────────────

type memLedger struct {
	entries []*entity.StockLedgerEntry
}

func (m *memLedger) AppendEntries(entries []*entity.StockLedgerEntry) error {
	for _, e := range entries {
		cp := *e
		if cp.ID == "" {
			cp.ID = uuid.New().String()
		}
		m.entries = append(m.entries, &cp)
	}
	return nil
}

func (m *memLedger) DeleteByReference(referenceType, referenceName string) error {
	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.ReferenceType != referenceType || e.ReferenceName != referenceName {
			kept = append(kept, e)
		}
	}
	m.entries = kept
	return nil
}

func (m *memLedger) ListByReference(referenceType, referenceName string) ([]*entity.StockLedgerEntry, error) {
	var list []*entity.StockLedgerEntry
	for _, e := range m.entries {
		if e.ReferenceType == referenceType && e.ReferenceName == referenceName {
			list = append(list, e)
		}
	}
	return list, nil
}

func (m *memLedger) BalanceBefore(item, location string, batch *string, date time.Time) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, e := range m.entries {
		if m.matches(e, item, location, batch) && e.Date.Before(date) {
			sum = sum.Add(e.Quantity)
		}
	}
	return sum, nil
}

func (m *memLedger) BalanceAfter(item, location string, batch *string, date time.Time) (*decimal.Decimal, error) {
	sum := decimal.Zero
	found := false
	for _, e := range m.entries {
		if m.matches(e, item, location, batch) && e.Date.After(date) {
			sum = sum.Add(e.Quantity)
			found = true
		}
	}
	if !found {
		return nil, nil
	}
	return &sum, nil
}

func (m *memLedger) matches(e *entity.StockLedgerEntry, item, location string, batch *string) bool {
	if e.Item != item || e.Location != location {
		return false
	}
	if batch == nil {
		return true
	}
	return e.Batch != nil && *e.Batch == *batch
}

// failingBalances simula un colaborador de saldos caído.
type failingBalances struct{ memLedger }

func (f *failingBalances) BalanceBefore(string, string, *string, time.Time) (decimal.Decimal, error) {
	return decimal.Zero, fmt.Errorf("balance query: connection refused")
}

// ── helpers ───────────────────────────────────────────────────────────────────

const (
	refType = "Stock Entry"
	refName = "STE-0001"
)

func strPtr(s string) *string { return &s }

func day(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return d
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

// seed agrega al libro un asiento firmado ya existente (de otra referencia).
func seed(m *memLedger, item, location string, batch *string, qty, date string, t *testing.T) {
	t.Helper()
	m.entries = append(m.entries, &entity.StockLedgerEntry{
		ID:            uuid.New().String(),
		Item:          item,
		Location:      location,
		Batch:         batch,
		Quantity:      dec(qty),
		Rate:          dec("5"),
		Date:          day(t, date),
		ReferenceType: "Purchase Receipt",
		ReferenceName: "PR-" + date,
	})
}

func newBatch(m *memLedger, isCancelled bool) *stockledger.TransferBatch {
	return stockledger.NewTransferBatch(refType, refName, isCancelled, m, m, dates.New(""))
}

func request(item, qty string, from, to *string, date string, t *testing.T) entity.TransferRequest {
	t.Helper()
	return entity.TransferRequest{
		Item:          item,
		Rate:          dec("5"),
		Quantity:      dec(qty),
		Date:          day(t, date),
		FromLocation:  from,
		ToLocation:    to,
		ReferenceType: refType,
		ReferenceName: refName,
	}
}

// ── validaciones de forma ─────────────────────────────────────────────────────

// La cantidad no positiva falla siempre, sin importar bodegas ni saldos.
func TestValidateTransfers_CantidadNoPositiva(t *testing.T) {
	m := &memLedger{}
	seed(m, "Widget", "Bodega Central", nil, "100", "2024-01-01", t)
	batch := newBatch(m, false)

	for _, qty := range []string{"0", "-3"} {
		req := request("Widget", qty, strPtr("Bodega Central"), nil, "2024-01-10", t)
		err := batch.ValidateTransfers([]entity.TransferRequest{req})
		require.Error(t, err, "cantidad %s debe rechazarse", qty)
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	}
}

func TestValidateTransfers_TarifaNoPositiva(t *testing.T) {
	m := &memLedger{}
	seed(m, "Widget", "Bodega Central", nil, "100", "2024-01-01", t)
	batch := newBatch(m, false)

	req := request("Widget", "5", strPtr("Bodega Central"), nil, "2024-01-10", t)
	req.Rate = decimal.Zero
	err := batch.ValidateTransfers([]entity.TransferRequest{req})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidRate)
}

func TestValidateTransfers_SinBodegas(t *testing.T) {
	batch := newBatch(&memLedger{}, false)
	req := request("Widget", "5", nil, nil, "2024-01-10", t)
	err := batch.ValidateTransfers([]entity.TransferRequest{req})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoLocation)
}

// El orden de verificación es fijo: una solicitud sin bodegas y con cantidad
// inválida reporta primero la cantidad.
func TestValidateTransfers_OrdenDeVerificacion(t *testing.T) {
	batch := newBatch(&memLedger{}, false)
	req := request("Widget", "0", nil, nil, "2024-01-10", t)
	err := batch.ValidateTransfers([]entity.TransferRequest{req})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

// ── disponibilidad: borde inmediato ──────────────────────────────────────────

// Saldo 10 antes de la fecha y salida de 11: rechaza reportando déficit 1.
func TestValidateTransfers_StockInsuficiente(t *testing.T) {
	m := &memLedger{}
	seed(m, "Widget", "Warehouse", nil, "10", "2024-01-05", t)
	batch := newBatch(m, false)

	req := request("Widget", "11", strPtr("Warehouse"), nil, "2024-01-10", t)
	err := batch.ValidateTransfers([]entity.TransferRequest{req})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "Widget", vErr.Item)
	assert.Equal(t, "Warehouse", vErr.Location)
	assert.True(t, vErr.Shortfall.Equal(dec("1")), "déficit esperado 1, fue %s", vErr.Shortfall)
	assert.Equal(t, "10-01-2024", vErr.FormattedDate)
}

// Con saldo suficiente y sin asientos posteriores la validación pasa,
// incluso retirando el saldo completo.
func TestValidateTransfers_SaldoJustoSinFuturo(t *testing.T) {
	m := &memLedger{}
	seed(m, "Widget", "Warehouse", nil, "10", "2024-01-05", t)
	batch := newBatch(m, false)

	req := request("Widget", "10", strPtr("Warehouse"), nil, "2024-01-10", t)
	assert.NoError(t, batch.ValidateTransfers([]entity.TransferRequest{req}))
}

// El saldo anterior es estricto: un asiento en la misma fecha de la salida
// no cuenta como saldo disponible.
func TestValidateTransfers_SaldoAnteriorEsEstricto(t *testing.T) {
	m := &memLedger{}
	seed(m, "Widget", "Warehouse", nil, "10", "2024-01-10", t)
	batch := newBatch(m, false)

	req := request("Widget", "10", strPtr("Warehouse"), nil, "2024-01-10", t)
	err := batch.ValidateTransfers([]entity.TransferRequest{req})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

// Una entrada pura (sin bodega origen) no consulta saldos y siempre pasa.
func TestValidateTransfers_EntradaPuraNoConsultaSaldo(t *testing.T) {
	failing := &failingBalances{}
	batch := stockledger.NewTransferBatch(refType, refName, false, failing, &failing.memLedger, dates.New(""))
	req := request("Widget", "5", nil, strPtr("Warehouse"), "2024-01-10", t)
	assert.NoError(t, batch.ValidateTransfers([]entity.TransferRequest{req}))
}

// ── disponibilidad: borde futuro ─────────────────────────────────────────────

// Insertar una salida en una fecha pasada puede dejar negativo un saldo
// futuro ya registrado aunque el saldo previo alcance.
func TestValidateTransfers_SaldoFuturoNegativo(t *testing.T) {
	m := &memLedger{}
	seed(m, "Widget", "Warehouse", nil, "10", "2024-01-01", t)
	seed(m, "Widget", "Warehouse", nil, "-8", "2024-01-20", t) // salida futura ya registrada
	batch := newBatch(m, false)

	// Antes del 10: saldo 10, alcanza para 5. Pero el saldo posterior es -8
	// y el remanente sería 5: -8 < 5 => déficit -13.
	req := request("Widget", "5", strPtr("Warehouse"), nil, "2024-01-10", t)
	err := batch.ValidateTransfers([]entity.TransferRequest{req})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFutureNegativeStock)

	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.True(t, vErr.Shortfall.Equal(dec("-13")), "déficit esperado -13, fue %s", vErr.Shortfall)
}

// Un saldo posterior de exactamente 0 NO es "sin asientos posteriores":
// la comparación futura sí se ejecuta y rechaza el retiro.
func TestValidateTransfers_SaldoFuturoCeroNoSeOmite(t *testing.T) {
	m := &memLedger{}
	seed(m, "Widget", "Warehouse", nil, "10", "2024-01-01", t)
	seed(m, "Widget", "Warehouse", nil, "-6", "2024-01-20", t)
	seed(m, "Widget", "Warehouse", nil, "6", "2024-01-25", t) // suma posterior = 0
	batch := newBatch(m, false)

	// Remanente sería 10-5=5; saldo posterior 0 < 5 => rechazo.
	req := request("Widget", "5", strPtr("Warehouse"), nil, "2024-01-10", t)
	err := batch.ValidateTransfers([]entity.TransferRequest{req})
	assert.ErrorIs(t, err, domain.ErrFutureNegativeStock)
}

// El filtro por lote aplica solo si la solicitud trae lote.
func TestValidateTransfers_FiltroPorLote(t *testing.T) {
	m := &memLedger{}
	seed(m, "Widget", "Warehouse", strPtr("L-001"), "10", "2024-01-05", t)
	seed(m, "Widget", "Warehouse", strPtr("L-002"), "50", "2024-01-05", t)
	batch := newBatch(m, false)

	// El lote L-001 solo tiene 10; los 50 de L-002 no cuentan.
	req := request("Widget", "20", strPtr("Warehouse"), nil, "2024-01-10", t)
	req.Batch = strPtr("L-001")
	err := batch.ValidateTransfers([]entity.TransferRequest{req})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.True(t, vErr.Shortfall.Equal(dec("10")))

	// Sin lote, el saldo agregado (60) alcanza.
	req.Batch = nil
	assert.NoError(t, batch.ValidateTransfers([]entity.TransferRequest{req}))
}

// ── modo reversa de cancelación ──────────────────────────────────────────────

// En modo IsCancelled el asiento original aún no se borró del libro: la
// cantidad se suma de vuelta al saldo previo antes de comparar.
func TestValidateTransfers_ModoCancelacionCompensa(t *testing.T) {
	m := &memLedger{}
	// La transferencia original ya retiró todo: saldo previo quedó en 0.
	seed(m, "Widget", "Warehouse", nil, "5", "2024-01-01", t)
	seed(m, "Widget", "Warehouse", nil, "-5", "2024-01-05", t)

	req := request("Widget", "5", strPtr("Warehouse"), nil, "2024-01-10", t)

	err := newBatch(m, false).ValidateTransfers([]entity.TransferRequest{req})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock, "sin compensación el saldo 0 no alcanza")

	assert.NoError(t, newBatch(m, true).ValidateTransfers([]entity.TransferRequest{req}),
		"con IsCancelled la cantidad revertida compensa el saldo")
}

// ── lote completo ────────────────────────────────────────────────────────────

// La validación es orden-preservante y corta en la primera inválida.
func TestValidateTransfers_CortaEnLaPrimeraInvalida(t *testing.T) {
	m := &memLedger{}
	seed(m, "Widget", "Warehouse", nil, "10", "2024-01-01", t)
	batch := newBatch(m, false)

	reqs := []entity.TransferRequest{
		request("Widget", "4", strPtr("Warehouse"), nil, "2024-01-10", t),
		request("Widget", "0", strPtr("Warehouse"), nil, "2024-01-10", t),  // inválida
		request("Widget", "99", strPtr("Warehouse"), nil, "2024-01-10", t), // también inválida, no se llega
	}
	err := batch.ValidateTransfers(reqs)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity, "debe reportar la segunda línea, no la tercera")
}

// Validar dos veces sin cambios intermedios produce el mismo resultado.
func TestValidateTransfers_Idempotente(t *testing.T) {
	m := &memLedger{}
	seed(m, "Widget", "Warehouse", nil, "10", "2024-01-05", t)
	batch := newBatch(m, false)
	reqs := []entity.TransferRequest{request("Widget", "11", strPtr("Warehouse"), nil, "2024-01-10", t)}

	err1 := batch.ValidateTransfers(reqs)
	err2 := batch.ValidateTransfers(reqs)
	require.Error(t, err1)
	require.Error(t, err2)
	assert.Equal(t, err1.Error(), err2.Error())
	assert.Empty(t, m.entries[1:], "la validación no debe escribir asientos")
}

// Los errores del colaborador de saldos se propagan, no se reintentan.
func TestValidateTransfers_ErrorDeColaboradorSePropaga(t *testing.T) {
	failing := &failingBalances{}
	batch := stockledger.NewTransferBatch(refType, refName, false, failing, &failing.memLedger, dates.New(""))
	req := request("Widget", "5", strPtr("Warehouse"), nil, "2024-01-10", t)

	err := batch.ValidateTransfers([]entity.TransferRequest{req})
	require.Error(t, err)
	var vErr *domain.ValidationError
	assert.False(t, errors.As(err, &vErr), "un fallo de I/O no es un error de validación")
	assert.Contains(t, err.Error(), "connection refused")
}

// ── creación ─────────────────────────────────────────────────────────────────

// Un traslado entre dos bodegas persiste exactamente dos asientos firmados,
// la salida antes que la entrada.
func TestCreateTransfers_TrasladoDosBodegas(t *testing.T) {
	m := &memLedger{}
	seed(m, "Widget", "Bodega X", nil, "20", "2024-01-01", t)
	batch := newBatch(m, false)

	req := request("Widget", "5", strPtr("Bodega X"), strPtr("Bodega Y"), "2024-01-10", t)
	require.NoError(t, batch.CreateTransfers([]entity.TransferRequest{req}))

	created, err := m.ListByReference(refType, refName)
	require.NoError(t, err)
	require.Len(t, created, 2)

	out, in := created[0], created[1]
	assert.Equal(t, "Bodega X", out.Location)
	assert.True(t, out.Quantity.Equal(dec("-5")))
	assert.Equal(t, "Bodega Y", in.Location)
	assert.True(t, in.Quantity.Equal(dec("5")))
	assert.True(t, out.Rate.Equal(in.Rate))
	require.Len(t, batch.Movers(), 1)
}

// Si cualquier línea del lote es inválida no se persiste ninguna.
func TestCreateTransfers_NoPersisteLoteInvalido(t *testing.T) {
	m := &memLedger{}
	seed(m, "Widget", "Bodega X", nil, "20", "2024-01-01", t)
	batch := newBatch(m, false)

	reqs := []entity.TransferRequest{
		request("Widget", "5", strPtr("Bodega X"), strPtr("Bodega Y"), "2024-01-10", t),
		request("Widget", "99", strPtr("Bodega X"), nil, "2024-01-10", t), // insuficiente
	}
	err := batch.CreateTransfers(reqs)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	created, _ := m.ListByReference(refType, refName)
	assert.Empty(t, created, "ningún asiento debe escribirse si el lote no pasa completo")
}

// Dentro de un mismo lote las líneas se procesan en orden determinista.
func TestCreateTransfers_VariasLineas(t *testing.T) {
	m := &memLedger{}
	seed(m, "Widget", "Bodega X", nil, "20", "2024-01-01", t)
	batch := newBatch(m, false)

	reqs := []entity.TransferRequest{
		request("Widget", "5", strPtr("Bodega X"), strPtr("Bodega Y"), "2024-01-10", t),
		request("Widget", "3", strPtr("Bodega X"), nil, "2024-01-11", t),
	}
	require.NoError(t, batch.CreateTransfers(reqs))

	created, _ := m.ListByReference(refType, refName)
	require.Len(t, created, 3)
	assert.True(t, created[0].Quantity.Equal(dec("-5")))
	assert.True(t, created[1].Quantity.Equal(dec("5")))
	assert.True(t, created[2].Quantity.Equal(dec("-3")))
}

// ── cancelación ──────────────────────────────────────────────────────────────

// CancelTransfers borra todos los asientos de la referencia y solo esos.
func TestCancelTransfers_BorraSoloLaReferencia(t *testing.T) {
	m := &memLedger{}
	seed(m, "Widget", "Bodega X", nil, "20", "2024-01-01", t) // otra referencia
	batch := newBatch(m, false)

	req := request("Widget", "5", strPtr("Bodega X"), strPtr("Bodega Y"), "2024-01-10", t)
	require.NoError(t, batch.CreateTransfers([]entity.TransferRequest{req}))
	require.Len(t, m.entries, 3)

	require.NoError(t, batch.CancelTransfers())

	created, _ := m.ListByReference(refType, refName)
	assert.Empty(t, created)
	assert.Len(t, m.entries, 1, "los asientos de otras referencias permanecen")
}

// ValidateCancel equivale a validar el mismo lote con origen y destino
// intercambiados.
func TestValidateCancel_EquivaleAValidarInverso(t *testing.T) {
	m := &memLedger{}
	seed(m, "Widget", "Bodega X", nil, "20", "2024-01-01", t)
	seed(m, "Widget", "Bodega Y", nil, "2", "2024-01-01", t)
	batch := newBatch(m, false)

	forward := []entity.TransferRequest{
		request("Widget", "5", strPtr("Bodega X"), strPtr("Bodega Y"), "2024-01-10", t),
	}
	reversed := []entity.TransferRequest{forward[0].Reversed()}

	gotCancel := batch.ValidateCancel(forward)
	gotReversed := batch.ValidateTransfers(reversed)
	if assert.Error(t, gotCancel, "Bodega Y solo tiene 2, la reversa de 5 no alcanza") {
		assert.Equal(t, gotReversed.Error(), gotCancel.Error())
	}

	// Con saldo suficiente en la bodega destino, ambas pasan.
	seed(m, "Widget", "Bodega Y", nil, "10", "2024-01-02", t)
	assert.NoError(t, batch.ValidateCancel(forward))
	assert.NoError(t, batch.ValidateTransfers(reversed))
}

// ── escenario de referencia ──────────────────────────────────────────────────

// Widget en Warehouse: saldo 10 antes del 2024-01-10, sin asientos futuros.
// Retirar 10 pasa y produce (Warehouse, -10); retirar 11 falla con déficit 1.
func TestEscenarioWidgetWarehouse(t *testing.T) {
	m := &memLedger{}
	seed(m, "Widget", "Warehouse", nil, "10", "2024-01-05", t)

	ok := request("Widget", "10", strPtr("Warehouse"), nil, "2024-01-10", t)
	batch := newBatch(m, false)
	require.NoError(t, batch.CreateTransfers([]entity.TransferRequest{ok}))

	created, _ := m.ListByReference(refType, refName)
	require.Len(t, created, 1)
	assert.Equal(t, "Warehouse", created[0].Location)
	assert.True(t, created[0].Quantity.Equal(dec("-10")))

	require.NoError(t, batch.CancelTransfers())

	tooMuch := request("Widget", "11", strPtr("Warehouse"), nil, "2024-01-10", t)
	err := newBatch(m, false).ValidateTransfers([]entity.TransferRequest{tooMuch})
	require.Error(t, err)
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.True(t, vErr.Shortfall.Equal(dec("1")))
}
