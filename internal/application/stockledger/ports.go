package stockledger

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. El motor no la exige (sus puertos son
// agnósticos de transacciones); el host la usa para que un fallo a mitad de
// lote haga rollback cuando el almacenamiento lo soporta.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		ledgerRepo repository.StockLedgerRepository,
		balanceRepo repository.BalanceRepository,
	) error) error
}

// DateFormatter renderiza fechas para mensajes de error. Es solo
// presentación: ningún cálculo del motor depende del formato.
type DateFormatter interface {
	FormatDate(t time.Time) string
}
