package catalog

import (
	"testing"

	"github.com/and161185/lab-data-logger/internal/sink"
	"github.com/and161185/lab-data-logger/internal/sink/influx"
	"github.com/and161185/lab-data-logger/internal/sink/postgres"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	require.Equal(t, []string{influx.Name, postgres.Name, sink.PrintName, sink.VoidName}, Default().Names())
}
