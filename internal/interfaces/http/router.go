package http

import (
	"github.com/gofiber/fiber/v2"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Transfers *TransferHandler
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Libro de stock (protegido: requiere Bearer Token emitido por el host)
	stock := api.Group("/stock", AuthMiddleware(deps.JWTSecret))
	stock.Post("/transfers", deps.Transfers.SubmitTransfers)
	stock.Post("/transfers/validate", deps.Transfers.ValidateTransfers)
	stock.Post("/transfers/validate-cancel", deps.Transfers.ValidateCancel)
	stock.Get("/transfers/:type/:name", deps.Transfers.ListByReference)
	stock.Delete("/transfers/:type/:name", deps.Transfers.CancelTransfers)
	stock.Get("/balance", deps.Transfers.GetBalance)
}
