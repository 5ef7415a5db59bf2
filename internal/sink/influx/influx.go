// Package influx writes batches to an InfluxDB 1.x server over its HTTP API.
package influx

import (
	"context"
	"fmt"
	"time"

	"github.com/and161185/lab-data-logger/internal/errs"
	"github.com/and161185/lab-data-logger/internal/sink"
	"github.com/and161185/lab-data-logger/model"
	client "github.com/influxdata/influxdb1-client/v2"
	"go.uber.org/zap"
)

const (
	Name = "influxdb"

	defaultAddr      = "http://localhost:8086"
	defaultPrecision = "ns"
	requestTimeout   = 10 * time.Second
)

type Writer struct {
	client    client.Client
	database  string
	precision string
	logger    *zap.SugaredLogger
}

// New connects to the server and checks that the database exists.
func New(_ context.Context, s sink.Settings, logger *zap.SugaredLogger) (sink.Writer, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if s.Database == "" {
		return nil, fmt.Errorf("%w: influxdb database not set", errs.ErrConfiguration)
	}
	addr := s.Addr
	if addr == "" {
		addr = defaultAddr
	}
	precision := s.Precision
	if precision == "" {
		precision = defaultPrecision
	}

	c, err := client.NewHTTPClient(client.HTTPConfig{
		Addr:     addr,
		Username: s.User,
		Password: s.Password,
		Timeout:  requestTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: influxdb client: %v", errs.ErrConfiguration, err)
	}

	w := &Writer{client: c, database: s.Database, precision: precision, logger: logger}
	if err := w.checkDatabase(); err != nil {
		_ = c.Close()
		return nil, err
	}
	logger.Infof("writing to influxdb %s, database %s", addr, s.Database)
	return w, nil
}

func (w *Writer) checkDatabase() error {
	resp, err := w.client.Query(client.NewQuery("SHOW DATABASES", "", ""))
	if err != nil {
		return fmt.Errorf("%w: query databases: %v", errs.ErrConfiguration, err)
	}
	if err := resp.Error(); err != nil {
		return fmt.Errorf("%w: query databases: %v", errs.ErrConfiguration, err)
	}

	for _, res := range resp.Results {
		for _, row := range res.Series {
			for _, v := range row.Values {
				if len(v) > 0 && v[0] == w.database {
					return nil
				}
			}
		}
	}
	return fmt.Errorf("%w: influxdb database %q does not exist", errs.ErrConfiguration, w.database)
}

func (w *Writer) Name() string { return Name }

func (w *Writer) Write(_ context.Context, b model.Batch) error {
	bp, err := client.NewBatchPoints(client.BatchPointsConfig{
		Database:  w.database,
		Precision: w.precision,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrSinkPersistence, err)
	}

	for _, p := range b {
		pt, err := client.NewPoint(p.Measurement, p.Tags, p.Fields, p.Time)
		if err != nil {
			return fmt.Errorf("%w: point %s: %v", errs.ErrSinkPersistence, p.Measurement, err)
		}
		bp.AddPoint(pt)
	}

	if err := w.client.Write(bp); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrSinkPersistence, err)
	}
	return nil
}

func (w *Writer) Close() error {
	return w.client.Close()
}
