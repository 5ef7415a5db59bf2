// Package postgres writes batches into a PostgreSQL table shaped like
//
//	CREATE TABLE points (
//		time        timestamptz NOT NULL,
//		measurement text        NOT NULL,
//		tags        jsonb       NOT NULL DEFAULT '{}',
//		fields      jsonb       NOT NULL
//	);
package postgres

//go:generate mockgen -source=postgres.go -destination=mock_pool_test.go -package=postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/and161185/lab-data-logger/internal/errs"
	"github.com/and161185/lab-data-logger/internal/sink"
	"github.com/and161185/lab-data-logger/internal/utils"
	"github.com/and161185/lab-data-logger/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	Name         = "postgres"
	defaultTable = "points"
)

var retryDelays = utils.DefaultDelays

// Pool is the part of *pgxpool.Pool the writer uses.
type Pool interface {
	Ping(ctx context.Context) error
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

type Writer struct {
	pool   Pool
	table  string
	logger *zap.SugaredLogger
}

// New opens a pool for s.DSN and checks that the target table exists.
func New(ctx context.Context, s sink.Settings, logger *zap.SugaredLogger) (sink.Writer, error) {
	if s.DSN == "" {
		return nil, fmt.Errorf("%w: postgres dsn not set", errs.ErrConfiguration)
	}
	pool, err := pgxpool.New(ctx, s.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: postgres pool: %v", errs.ErrConfiguration, err)
	}
	return NewWithPool(ctx, pool, s.Table, logger)
}

// NewWithPool builds a writer on an existing pool. The pool is closed when
// the checks fail.
func NewWithPool(ctx context.Context, pool Pool, table string, logger *zap.SugaredLogger) (*Writer, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if table == "" {
		table = defaultTable
	}

	if err := utils.WithRetryDelays(ctx, retryDelays, func() error { return pool.Ping(ctx) }); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping postgres: %v", errs.ErrConfiguration, err)
	}

	var exists bool
	if err := pool.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, table).Scan(&exists); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: check table %s: %v", errs.ErrConfiguration, table, err)
	}
	if !exists {
		pool.Close()
		return nil, fmt.Errorf("%w: table %s does not exist", errs.ErrConfiguration, table)
	}

	logger.Infof("writing to postgres table %s", table)
	return &Writer{pool: pool, table: table, logger: logger}, nil
}

func (w *Writer) Name() string { return Name }

// Write inserts the whole batch with one statement.
func (w *Writer) Write(ctx context.Context, b model.Batch) error {
	if len(b) == 0 {
		return nil
	}

	query, args, err := w.insert(b)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrSinkPersistence, err)
	}
	if _, err := w.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: insert into %s: %v", errs.ErrSinkPersistence, w.table, err)
	}
	return nil
}

func (w *Writer) insert(b model.Batch) (string, []any, error) {
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(pgx.Identifier(strings.Split(w.table, ".")).Sanitize())
	sb.WriteString(" (time, measurement, tags, fields) VALUES ")

	args := make([]any, 0, len(b)*4)
	for i, p := range b {
		tags := p.Tags
		if tags == nil {
			tags = model.Tags{}
		}
		tagsJSON, err := json.Marshal(tags)
		if err != nil {
			return "", nil, fmt.Errorf("encode tags: %w", err)
		}
		fieldsJSON, err := json.Marshal(p.Fields)
		if err != nil {
			return "", nil, fmt.Errorf("encode fields: %w", err)
		}

		if i > 0 {
			sb.WriteString(", ")
		}
		n := i * 4
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4)
		args = append(args, p.Time.UTC().Truncate(time.Microsecond), p.Measurement, string(tagsJSON), string(fieldsJSON))
	}
	return sb.String(), args, nil
}

func (w *Writer) Close() error {
	w.pool.Close()
	return nil
}
