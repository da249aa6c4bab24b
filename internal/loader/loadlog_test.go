package loader

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLog_Start(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("INSERT INTO load_log").
		WithArgs("indice-desempenho-atendimento").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := NewLoadLog(mock).Start(context.Background(), "indice-desempenho-atendimento")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadLog_Complete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	summary := &RunSummary{
		Attempted:    3,
		Succeeded:    2,
		Failed:       1,
		FactsWritten: 15,
		RowsRejected: 2,
	}

	mock.ExpectExec("UPDATE load_log").
		WithArgs("complete", 3, 1, int64(15), 2, int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = NewLoadLog(mock).Complete(context.Background(), 7, summary)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadLog_Complete_AllFailed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	summary := &RunSummary{Attempted: 2, Failed: 2}

	mock.ExpectExec("UPDATE load_log").
		WithArgs("failed", 2, 2, int64(0), 0, int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = NewLoadLog(mock).Complete(context.Background(), 3, summary)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadLog_Fail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("UPDATE load_log").
		WithArgs("catalog: unavailable", int64(9)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = NewLoadLog(mock).Fail(context.Background(), 9, "catalog: unavailable")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadLog_ListRecent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	completed := started.Add(3 * time.Minute)
	errMsg := "catalog: unavailable"

	rows := pgxmock.NewRows([]string{
		"id", "dataset", "status", "started_at", "completed_at",
		"resources_total", "resources_failed", "facts_written", "rows_rejected", "error",
	}).
		AddRow(int64(2), "ida", "complete", started, &completed, 3, 1, int64(15), 2, (*string)(nil)).
		AddRow(int64(1), "ida", "failed", started.Add(-time.Hour), (*time.Time)(nil), 0, 0, int64(0), 0, &errMsg)

	mock.ExpectQuery("SELECT id, dataset, status").
		WithArgs(10).
		WillReturnRows(rows)

	entries, err := NewLoadLog(mock).ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "complete", entries[0].Status)
	assert.Equal(t, int64(15), entries[0].FactsWritten)
	require.NotNil(t, entries[0].CompletedAt)
	assert.Equal(t, completed, *entries[0].CompletedAt)

	assert.Equal(t, "failed", entries[1].Status)
	assert.Nil(t, entries[1].CompletedAt)
	assert.Equal(t, errMsg, entries[1].Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadLog_StartError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("INSERT INTO load_log").
		WithArgs("ida").
		WillReturnError(fmt.Errorf("connection lost"))

	_, err = NewLoadLog(mock).Start(context.Background(), "ida")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start run")
}
