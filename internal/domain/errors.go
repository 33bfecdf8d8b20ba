package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")

	// Categorías de error de validación de transferencias. Todas se reportan
	// envueltas en ValidationError; el caller distingue con errors.Is.
	ErrInvalidQuantity     = errors.New("cantidad inválida")
	ErrInvalidRate         = errors.New("tarifa inválida")
	ErrNoLocation          = errors.New("se requiere bodega origen o destino")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrFutureNegativeStock = errors.New("stock futuro negativo")
)
