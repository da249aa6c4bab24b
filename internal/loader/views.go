package loader

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Giomelox/Be-Analytic-ETL/internal/db"
)

// ViewName is the analytical view consumed by downstream dashboards.
const ViewName = "consolidacao_de_metricas"

// viewSQL consolidates the fact table per group, service and month and adds
// the month-over-month variation of the mean value.
const viewSQL = `
CREATE OR REPLACE VIEW consolidacao_de_metricas AS
WITH mensal AS (
    SELECT
        grupo_economico,
        servico,
        mes_referencia,
        avg(valor) AS valor_medio
    FROM be_analytic_table
    GROUP BY grupo_economico, servico, mes_referencia
)
SELECT
    grupo_economico,
    servico,
    mes_referencia,
    valor_medio,
    valor_medio - lag(valor_medio) OVER w                    AS variacao_absoluta,
    CASE
        WHEN lag(valor_medio) OVER w IS NULL OR lag(valor_medio) OVER w = 0 THEN NULL
        ELSE (valor_medio - lag(valor_medio) OVER w) / lag(valor_medio) OVER w * 100
    END                                                      AS variacao_percentual
FROM mensal
WINDOW w AS (
    PARTITION BY grupo_economico, servico
    ORDER BY mes_referencia
)
`

// EnsureView bootstraps the analytical view. It runs the migrations first so
// the view can be created against an empty database, then creates or
// replaces the view itself. Safe to run repeatedly.
func EnsureView(ctx context.Context, pool db.Pool) error {
	log := zap.L().With(zap.String("component", "loader.views"))

	// The view depends on the fact table; make sure it exists.
	if err := Migrate(ctx, pool); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, viewSQL); err != nil {
		return eris.Wrapf(err, "loader: create view %s", ViewName)
	}

	log.Info("analytical view ready", zap.String("view", ViewName))
	return nil
}
