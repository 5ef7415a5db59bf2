// Package catalog assembles the writer registry used by the Recorder.
package catalog

import (
	"github.com/and161185/lab-data-logger/internal/sink"
	"github.com/and161185/lab-data-logger/internal/sink/influx"
	"github.com/and161185/lab-data-logger/internal/sink/postgres"
)

// Default returns a registry with every builtin writer.
func Default() *sink.Registry {
	r := sink.NewRegistry().WithBuiltins()
	r.Register(influx.Name, influx.New)
	r.Register(postgres.Name, postgres.New)
	return r
}
