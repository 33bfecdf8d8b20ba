package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationErrorResponse detalle estructurado de un rechazo de validación
// de stock, suficiente para que el cliente arme un mensaje accionable.
type ValidationErrorResponse struct {
	Code      string  `json:"code"`
	Message   string  `json:"message"`
	Item      string  `json:"item,omitempty"`
	Location  string  `json:"location,omitempty"`
	Batch     *string `json:"batch,omitempty"`
	Date      string  `json:"date,omitempty"`
	Shortfall string  `json:"shortfall,omitempty"`
}
