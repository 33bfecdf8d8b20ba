package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/stockledger"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

// TransferHandler maneja las peticiones HTTP del libro de stock (protegido).
// Las validaciones sin mutación usan los repos del pool; el submit corre
// dentro del TxRunner para que un fallo a mitad de lote haga rollback.
type TransferHandler struct {
	txRunner    stockledger.TxRunner
	ledgerRepo  repository.StockLedgerRepository
	balanceRepo repository.BalanceRepository
	dates       stockledger.DateFormatter
	log         *logger.Logger
}

// NewTransferHandler construye el handler.
func NewTransferHandler(
	txRunner stockledger.TxRunner,
	ledgerRepo repository.StockLedgerRepository,
	balanceRepo repository.BalanceRepository,
	dates stockledger.DateFormatter,
	log *logger.Logger,
) *TransferHandler {
	return &TransferHandler{
		txRunner:    txRunner,
		ledgerRepo:  ledgerRepo,
		balanceRepo: balanceRepo,
		dates:       dates,
		log:         log,
	}
}

// SubmitTransfers godoc
// @Summary      Registrar un lote de transferencias de stock
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferBatchRequest  true  "referencia del lote y líneas de transferencia"
// @Success      201   {object}  map[string]string
// @Failure      400   {object}  dto.ValidationErrorResponse
// @Failure      409   {object}  dto.ValidationErrorResponse
// @Router       /api/stock/transfers [post]
func (h *TransferHandler) SubmitTransfers(c *fiber.Ctx) error {
	in, requests, ok := h.parseBatch(c)
	if !ok {
		return nil // parseBatch ya escribió la respuesta
	}

	err := h.txRunner.Run(c.Context(), func(
		ledgerRepo repository.StockLedgerRepository,
		balanceRepo repository.BalanceRepository,
	) error {
		batch := stockledger.NewTransferBatch(
			in.ReferenceType, in.ReferenceName, in.IsCancelled,
			balanceRepo, ledgerRepo, h.dates,
		)
		return batch.CreateTransfers(requests)
	})
	if err != nil {
		return h.renderError(c, err)
	}

	h.log.Info().
		Str("reference_type", in.ReferenceType).
		Str("reference_name", in.ReferenceName).
		Int("transfers", len(requests)).
		Str("user", GetUserID(c)).
		Msg("lote de transferencias registrado")
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":        "transferencias registradas",
		"reference_type": in.ReferenceType,
		"reference_name": in.ReferenceName,
	})
}

// ValidateTransfers godoc
// @Summary      Validar un lote sin registrar nada
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferBatchRequest  true  "lote a validar"
// @Success      200   {object}  map[string]bool
// @Failure      409   {object}  dto.ValidationErrorResponse
// @Router       /api/stock/transfers/validate [post]
func (h *TransferHandler) ValidateTransfers(c *fiber.Ctx) error {
	in, requests, ok := h.parseBatch(c)
	if !ok {
		return nil
	}
	batch := stockledger.NewTransferBatch(
		in.ReferenceType, in.ReferenceName, in.IsCancelled,
		h.balanceRepo, h.ledgerRepo, h.dates,
	)
	if err := batch.ValidateTransfers(requests); err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(fiber.Map{"valid": true})
}

// ValidateCancel godoc
// @Summary      Validar que cancelar el lote no dejaría saldos futuros negativos
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferBatchRequest  true  "lote original a evaluar en reversa"
// @Success      200   {object}  map[string]bool
// @Failure      409   {object}  dto.ValidationErrorResponse
// @Router       /api/stock/transfers/validate-cancel [post]
func (h *TransferHandler) ValidateCancel(c *fiber.Ctx) error {
	in, requests, ok := h.parseBatch(c)
	if !ok {
		return nil
	}
	batch := stockledger.NewTransferBatch(
		in.ReferenceType, in.ReferenceName, in.IsCancelled,
		h.balanceRepo, h.ledgerRepo, h.dates,
	)
	if err := batch.ValidateCancel(requests); err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(fiber.Map{"valid": true})
}

// CancelTransfers godoc
// @Summary      Cancelar una referencia: borra todos sus asientos
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        type  path  string  true  "tipo de referencia"
// @Param        name  path  string  true  "nombre de referencia"
// @Success      200   {object}  map[string]string
// @Router       /api/stock/transfers/{type}/{name} [delete]
func (h *TransferHandler) CancelTransfers(c *fiber.Ctx) error {
	refType := c.Params("type")
	refName := c.Params("name")
	batch := stockledger.NewTransferBatch(refType, refName, false, h.balanceRepo, h.ledgerRepo, h.dates)
	if err := batch.CancelTransfers(); err != nil {
		return h.renderError(c, err)
	}
	h.log.Info().
		Str("reference_type", refType).
		Str("reference_name", refName).
		Str("user", GetUserID(c)).
		Msg("asientos de la referencia borrados")
	return c.JSON(fiber.Map{"message": "transferencias canceladas"})
}

// ListByReference godoc
// @Summary      Listar los asientos de una referencia
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        type  path  string  true  "tipo de referencia"
// @Param        name  path  string  true  "nombre de referencia"
// @Success      200   {array}  dto.LedgerEntryDTO
// @Router       /api/stock/transfers/{type}/{name} [get]
func (h *TransferHandler) ListByReference(c *fiber.Ctx) error {
	entries, err := h.ledgerRepo.ListByReference(c.Params("type"), c.Params("name"))
	if err != nil {
		return h.renderError(c, err)
	}
	out := make([]dto.LedgerEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.FromEntry(e))
	}
	return c.JSON(fiber.Map{"total": len(out), "entries": out})
}

// GetBalance godoc
// @Summary      Saldo firmado de (item, location, batch) antes o después de una fecha
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        item      query  string  true   "artículo"
// @Param        location  query  string  true   "bodega"
// @Param        batch     query  string  false  "lote"
// @Param        before    query  string  false  "YYYY-MM-DD: suma estrictamente anterior"
// @Param        after     query  string  false  "YYYY-MM-DD: suma estrictamente posterior (null si no hay asientos)"
// @Success      200  {object}  dto.BalanceResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/balance [get]
func (h *TransferHandler) GetBalance(c *fiber.Ctx) error {
	item := c.Query("item")
	location := c.Query("location")
	if item == "" || location == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "item y location son obligatorios"})
	}
	var batch *string
	if b := c.Query("batch"); b != "" {
		batch = &b
	}

	before := c.Query("before")
	after := c.Query("after")
	if (before == "") == (after == "") {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "se requiere exactamente uno de before/after"})
	}

	resp := dto.BalanceResponse{Item: item, Location: location, Batch: batch}
	if before != "" {
		date, err := time.Parse("2006-01-02", before)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "before: fecha inválida"})
		}
		sum, err := h.balanceRepo.BalanceBefore(item, location, batch, date)
		if err != nil {
			return h.renderError(c, err)
		}
		resp.Balance = &sum
		return c.JSON(resp)
	}

	date, err := time.Parse("2006-01-02", after)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "after: fecha inválida"})
	}
	sum, err := h.balanceRepo.BalanceAfter(item, location, batch, date)
	if err != nil {
		return h.renderError(c, err)
	}
	resp.Balance = sum
	return c.JSON(resp)
}

// parseBatch parsea y valida la forma del body compartido por submit y los
// endpoints de validación. Si devuelve false, la respuesta ya fue escrita.
func (h *TransferHandler) parseBatch(c *fiber.Ctx) (dto.TransferBatchRequest, []entity.TransferRequest, bool) {
	var in dto.TransferBatchRequest
	if err := c.BodyParser(&in); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		return in, nil, false
	}
	if in.ReferenceType == "" || in.ReferenceName == "" {
		_ = c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "reference_type y reference_name son obligatorios"})
		return in, nil, false
	}
	if len(in.Transfers) == 0 {
		_ = c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "el lote no tiene transferencias"})
		return in, nil, false
	}
	requests, err := in.ToEntities()
	if err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		return in, nil, false
	}
	return in, requests, true
}

// renderError mapea errores del motor a HTTP: errores de forma -> 400,
// conflictos de stock -> 409, lo demás -> 500.
func (h *TransferHandler) renderError(c *fiber.Ctx, err error) error {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		status := fiber.StatusBadRequest
		code := "VALIDATION"
		switch {
		case errors.Is(err, domain.ErrInsufficientStock):
			status, code = fiber.StatusConflict, "INSUFFICIENT_STOCK"
		case errors.Is(err, domain.ErrFutureNegativeStock):
			status, code = fiber.StatusConflict, "FUTURE_NEGATIVE_STOCK"
		case errors.Is(err, domain.ErrInvalidQuantity):
			code = "INVALID_QUANTITY"
		case errors.Is(err, domain.ErrInvalidRate):
			code = "INVALID_RATE"
		case errors.Is(err, domain.ErrNoLocation):
			code = "NO_LOCATION"
		}
		resp := dto.ValidationErrorResponse{
			Code:     code,
			Message:  vErr.Error(),
			Item:     vErr.Item,
			Location: vErr.Location,
			Batch:    vErr.Batch,
			Date:     vErr.FormattedDate,
		}
		if !vErr.Shortfall.IsZero() {
			resp.Shortfall = vErr.Shortfall.String()
		}
		return c.Status(status).JSON(resp)
	}
	if errors.Is(err, domain.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	}
	h.log.Error().Err(err).Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
