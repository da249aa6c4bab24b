package loader

import (
	"context"
	"fmt"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// expectMigrations adds the expectations for a Migrate pass where every
// migration is already applied.
func expectMigrations(t *testing.T, mock pgxmock.PgxPoolIface) {
	t.Helper()
	expectAdvisoryLock(mock)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	rows := pgxmock.NewRows([]string{"filename"})
	for _, name := range migrationFileNames(t) {
		rows.AddRow(name)
	}
	mock.ExpectQuery("SELECT filename FROM schema_migrations").WillReturnRows(rows)
	expectAdvisoryUnlock(mock)
}

func TestEnsureView(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	expectMigrations(t, mock)
	mock.ExpectExec("CREATE OR REPLACE VIEW consolidacao_de_metricas").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	err = EnsureView(context.Background(), mock)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureView_CreateError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	expectMigrations(t, mock)
	mock.ExpectExec("CREATE OR REPLACE VIEW consolidacao_de_metricas").
		WillReturnError(fmt.Errorf("permission denied"))

	err = EnsureView(context.Background(), mock)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create view")
}

func TestEnsureView_MigrateError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("SELECT pg_advisory_lock").
		WillReturnError(fmt.Errorf("could not obtain lock"))

	err = EnsureView(context.Background(), mock)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "advisory lock")
}
