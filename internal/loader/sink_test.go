package loader

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Giomelox/Be-Analytic-ETL/internal/ida"
)

func sampleFacts(n int) []ida.Fact {
	facts := make([]ida.Fact, n)
	for i := range facts {
		facts[i] = ida.Fact{
			Month:       time.Date(2017, time.Month(i%12+1), 1, 0, 0, 0, 0, time.UTC),
			Group:       ida.GroupTim,
			Service:     "Taxa de Resolvidas",
			Value:       90 + float64(i),
			ServiceType: ida.ServiceSMP,
			ResourceID:  "res-a",
		}
	}
	return facts
}

func TestSink_Store(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_insert_be_analytic_table"}, factColumns).
		WillReturnResult(3)
	mock.ExpectExec("DELETE FROM").WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("INSERT INTO").WillReturnResult(pgxmock.NewResult("INSERT", 3))
	mock.ExpectCommit()

	n, err := NewSink(mock).Store(context.Background(), sampleFacts(3))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSink_Store_DuplicatesSkipped(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_insert_be_analytic_table"}, factColumns).
		WillReturnResult(3)
	mock.ExpectExec("DELETE FROM").WillReturnResult(pgxmock.NewResult("DELETE", 0))
	// all three already present under the idempotency key
	mock.ExpectExec("INSERT INTO").WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectCommit()

	n, err := NewSink(mock).Store(context.Background(), sampleFacts(3))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSink_Store_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	n, err := NewSink(mock).Store(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSink_Store_Rejected(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE").WillReturnError(fmt.Errorf("out of memory"))
	mock.ExpectRollback()

	_, err = NewSink(mock).Store(context.Background(), sampleFacts(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSinkRejected))
}

func TestSink_Store_ConnectionLost(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	// The database drops mid-transaction, after ping already passed.
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE").
		WillReturnError(&net.OpError{Op: "write", Err: syscall.ECONNRESET})
	mock.ExpectRollback()

	_, err = NewSink(mock).Store(context.Background(), sampleFacts(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSinkUnavailable))
	assert.False(t, errors.Is(err, ErrSinkRejected))
}

func TestSink_Ping(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectPing().WillReturnError(fmt.Errorf("connection refused"))

	err = NewSink(mock).Ping(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSinkUnavailable))
}
