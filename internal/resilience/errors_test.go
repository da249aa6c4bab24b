package resilience

import (
	"errors"
	"syscall"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestTransientError_Unwrap(t *testing.T) {
	inner := errors.New("rate limited")
	te := NewTransientError(inner, 429)

	assert.Equal(t, "rate limited", te.Error())
	assert.True(t, errors.Is(te, inner))
	assert.Equal(t, 429, te.StatusCode)
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("bad table shape"), false},
		{"transient wrapper", NewTransientError(errors.New("503"), 503), true},
		{"transient deep in chain", eris.Wrap(NewTransientError(errors.New("503"), 503), "download"), true},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"connection reset", syscall.ECONNRESET, true},
		{"flattened transport message", errors.New("read tcp: connection reset by peer"), true},
		{"dns failure message", errors.New("dial tcp: no such host"), true},
		{"catalog shape error", eris.New("decode recursos: unexpected EOF"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsTransient(tc.err))
		})
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "status %d", code)
	}
	for _, code := range []int{200, 201, 301, 400, 401, 403, 404, 422} {
		assert.False(t, IsTransientHTTPStatus(code), "status %d", code)
	}
}
