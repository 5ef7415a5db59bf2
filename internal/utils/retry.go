// Package utils holds small helpers shared by the storage-facing code.
package utils

import (
	"context"
	"errors"
	"net"
	"os"
	"time"

	"github.com/and161185/lab-data-logger/internal/errs"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// DefaultDelays are the pauses between attempts used by WithRetry.
var DefaultDelays = []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

// WithRetry runs fn, retrying transient failures after each of DefaultDelays.
func WithRetry(ctx context.Context, fn func() error) error {
	return WithRetryDelays(ctx, DefaultDelays, fn)
}

// WithRetryDelays runs fn up to len(delays)+1 times. Waiting is aborted when ctx
// is done, in which case the last error of fn is returned.
func WithRetryDelays(ctx context.Context, delays []time.Duration, fn func() error) error {
	err := fn()
	for _, delay := range delays {
		if err == nil || !isRetriable(err) {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
		err = fn()
	}
	return err
}

func isRetriable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.ConnectionException,
			pgerrcode.ConnectionDoesNotExist,
			pgerrcode.ConnectionFailure,
			pgerrcode.SQLClientUnableToEstablishSQLConnection,
			pgerrcode.SQLServerRejectedEstablishmentOfSQLConnection,
			pgerrcode.TransactionResolutionUnknown,
			pgerrcode.SerializationFailure,
			pgerrcode.TooManyConnections,
			pgerrcode.CannotConnectNow:
			return true
		default:
			return false
		}
	}

	if errs.IsConnectionFault(err) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	if os.IsTimeout(err) {
		return true
	}

	return false
}
