package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"testing"
	"time"

	"github.com/and161185/lab-data-logger/internal/errs"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type tempErr struct{}

func (tempErr) Error() string   { return "temp" }
func (tempErr) Timeout() bool   { return true } // net.Error
func (tempErr) Temporary() bool { return true }

var fast = []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}

func TestWithRetry_RetriesAndSucceeds(t *testing.T) {
	var n int
	err := WithRetryDelays(context.Background(), fast, func() error {
		n++
		if n < 3 {
			return tempErr{}
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestWithRetry_GivesUp(t *testing.T) {
	var n int
	err := WithRetryDelays(context.Background(), fast, func() error {
		n++
		return tempErr{}
	})
	require.Error(t, err)
	require.Equal(t, len(fast)+1, n)
}

func TestWithRetry_PermanentErrorNotRetried(t *testing.T) {
	var n int
	boom := errors.New("syntax error")
	err := WithRetryDelays(context.Background(), fast, func() error {
		n++
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, n)
}

func TestWithRetry_StopsOnContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	var n int
	err := WithRetry(ctx, func() error {
		n++
		return tempErr{}
	})
	require.Error(t, err)
	require.Equal(t, 1, n)
	require.Less(t, time.Since(start), 900*time.Millisecond)
}

func TestIsRetriable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"pg-conn-failure", &pgconn.PgError{Code: pgerrcode.ConnectionFailure}, true},
		{"pg-starting-up", &pgconn.PgError{Code: pgerrcode.CannotConnectNow}, true},
		{"pg-unique", &pgconn.PgError{Code: pgerrcode.UniqueViolation}, false},
		{"net-error", &net.DNSError{Err: "x"}, true},
		{"os-deadline", os.ErrDeadlineExceeded, true},
		{"refused", fmt.Errorf("%w: dial", errs.ErrConnectionRefused), true},
		{"configuration", errs.ErrConfiguration, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, isRetriable(tc.err))
		})
	}
}
