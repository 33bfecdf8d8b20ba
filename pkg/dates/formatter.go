package dates

import "time"

// Formatter renderiza fechas para mensajes al usuario. Es una preocupación
// de presentación: el layout configurado no tiene ningún efecto sobre la
// lógica del libro de stock.
type Formatter struct {
	layout string
}

// New crea un Formatter con el layout de Go dado; vacío usa dd-mm-yyyy.
func New(layout string) *Formatter {
	if layout == "" {
		layout = "02-01-2006"
	}
	return &Formatter{layout: layout}
}

// FormatDate renderiza la fecha con el layout configurado.
func (f *Formatter) FormatDate(t time.Time) string {
	return t.Format(f.layout)
}
