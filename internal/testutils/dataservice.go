// Package testutils starts stub DataServices for tests.
package testutils

import (
	"context"
	"net"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/and161185/lab-data-logger/internal/dataservice"
	"github.com/and161185/lab-data-logger/model"
	"go.uber.org/zap"
)

// StubAcquirer returns a fixed set of fields, or Err when set.
type StubAcquirer struct {
	mu     sync.Mutex
	fields model.Fields
	err    error
	calls  int
}

func (s *StubAcquirer) AcquireFields(_ context.Context, _ []string) (model.Fields, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make(model.Fields, len(s.fields))
	for k, v := range s.fields {
		out[k] = v
	}
	return out, nil
}

func (s *StubAcquirer) SetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *StubAcquirer) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// StubService is a running DataService backed by a StubAcquirer.
type StubService struct {
	*httptest.Server
	Acquirer *StubAcquirer
	Netloc   model.Netloc
}

// NewDataService starts a DataService named name that serves fields. It is
// closed when the test ends.
func NewDataService(t *testing.T, name string, fields model.Fields) *StubService {
	t.Helper()

	acq := &StubAcquirer{fields: fields}
	srv := httptest.NewServer(dataservice.Handler(dataservice.NewService(name, acq), zap.NewNop().Sugar()))
	t.Cleanup(srv.Close)

	host, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	if err != nil {
		t.Fatalf("split stub address: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("stub port: %v", err)
	}

	return &StubService{Server: srv, Acquirer: acq, Netloc: model.Netloc{Host: host, Port: port}}
}

// FreePort returns a TCP port that was free at the time of the call.
func FreePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}
