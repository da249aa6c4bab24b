package loader

import (
	"context"
	"errors"
	"net"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"

	"github.com/Giomelox/Be-Analytic-ETL/internal/db"
	"github.com/Giomelox/Be-Analytic-ETL/internal/ida"
)

// FactTable is the target relational table for normalized facts.
const FactTable = "be_analytic_table"

var (
	// ErrSinkUnavailable indicates the target store cannot be reached at all.
	ErrSinkUnavailable = errors.New("loader: sink unavailable")
	// ErrSinkRejected indicates the store refused a batch; only that
	// resource's transaction rolls back.
	ErrSinkRejected = errors.New("loader: sink rejected batch")
)

var (
	factColumns = []string{
		"mes_referencia", "grupo_economico", "servico", "valor",
		"tipo_servico", "source_resource_id",
	}
	// The idempotency key: re-loading the same resource inserts nothing new.
	factKeys = []string{"mes_referencia", "grupo_economico", "servico", "source_resource_id"}
)

// Sink persists normalized facts into the target table. Each Store call is
// one transaction, so a mid-batch failure leaves no partial resource load.
type Sink struct {
	pool db.Pool
}

func NewSink(pool db.Pool) *Sink {
	return &Sink{pool: pool}
}

// Ping verifies the target store is reachable before the run starts.
func (s *Sink) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return eris.Wrapf(ErrSinkUnavailable, "ping: %v", err)
	}
	return nil
}

// Store writes one resource's facts idempotently and returns the number of
// rows actually inserted. Facts already present under the idempotency key
// count as stored but not inserted.
func (s *Sink) Store(ctx context.Context, facts []ida.Fact) (int64, error) {
	if len(facts) == 0 {
		return 0, nil
	}

	rows := make([][]any, len(facts))
	for i, f := range facts {
		rows[i] = []any{
			f.Month, string(f.Group), f.Service, f.Value,
			string(f.ServiceType), f.ResourceID,
		}
	}

	n, err := db.BulkInsertIgnore(ctx, s.pool, db.InsertConfig{
		Table:        FactTable,
		Columns:      factColumns,
		ConflictKeys: factKeys,
	}, rows)
	if err != nil {
		if connectionLost(err) {
			return 0, eris.Wrapf(ErrSinkUnavailable, "store %d facts: %v", len(facts), err)
		}
		return 0, eris.Wrapf(ErrSinkRejected, "store %d facts: %v", len(facts), err)
	}
	return n, nil
}

// connectionLost distinguishes a dropped database connection from a batch
// the store actually refused. A connection that dies after the initial ping
// is still an availability failure, not a rejection.
func connectionLost(err error) bool {
	if pgconn.SafeToRetry(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED)
}
