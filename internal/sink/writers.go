package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/and161185/lab-data-logger/internal/errs"
	"github.com/and161185/lab-data-logger/model"
	influx "github.com/influxdata/influxdb1-client/v2"
	"go.uber.org/zap"
)

const (
	VoidName  = "void"
	PrintName = "print"
)

type void struct{}

// NewVoid returns a writer that discards everything.
func NewVoid(_ context.Context, _ Settings, _ *zap.SugaredLogger) (Writer, error) {
	return void{}, nil
}

func (void) Name() string                                 { return VoidName }
func (void) Write(_ context.Context, _ model.Batch) error { return nil }
func (void) Close() error                                 { return nil }

// Print writes batches as InfluxDB line protocol.
type Print struct {
	mu     sync.Mutex
	out    io.Writer
	closer io.Closer
}

// NewPrint writes to stdout, stderr or the file named by s.Output.
func NewPrint(_ context.Context, s Settings, _ *zap.SugaredLogger) (Writer, error) {
	switch s.Output {
	case "", "stdout", "-":
		return NewPrintTo(os.Stdout), nil
	case "stderr":
		return NewPrintTo(os.Stderr), nil
	}

	f, err := os.OpenFile(s.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: open print output: %v", errs.ErrConfiguration, err)
	}
	return &Print{out: f, closer: f}, nil
}

func NewPrintTo(w io.Writer) *Print {
	return &Print{out: w}
}

func (p *Print) Name() string { return PrintName }

func (p *Print) Write(_ context.Context, b model.Batch) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, point := range b {
		line, err := LineProtocol(point)
		if err != nil {
			return fmt.Errorf("%w: %v", errs.ErrSinkPersistence, err)
		}
		if _, err := fmt.Fprintln(p.out, line); err != nil {
			return fmt.Errorf("%w: %v", errs.ErrSinkPersistence, err)
		}
	}
	return nil
}

func (p *Print) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

// LineProtocol renders one point in InfluxDB line protocol.
func LineProtocol(p model.Point) (string, error) {
	pt, err := influx.NewPoint(p.Measurement, p.Tags, p.Fields, p.Time)
	if err != nil {
		return "", err
	}
	return pt.String(), nil
}
