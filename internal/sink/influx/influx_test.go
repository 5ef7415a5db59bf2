package influx

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/and161185/lab-data-logger/internal/errs"
	"github.com/and161185/lab-data-logger/internal/sink"
	"github.com/and161185/lab-data-logger/model"
	"github.com/stretchr/testify/require"
)

type fakeInflux struct {
	mu        sync.Mutex
	databases []string
	lines     []string
	failWrite bool
}

func (f *fakeInflux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/query":
		var values []string
		for _, db := range f.databases {
			values = append(values, `["`+db+`"]`)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"results":[{"statement_id":0,"series":[{"name":"databases","columns":["name"],"values":[`+
			strings.Join(values, ",")+`]}]}]}`)
	case "/write":
		f.mu.Lock()
		fail := f.failWrite
		f.mu.Unlock()
		if fail {
			http.Error(w, `{"error":"database not found"}`, http.StatusNotFound)
			return
		}
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.lines = append(f.lines, strings.Split(strings.TrimSpace(string(body)), "\n")...)
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func TestNew_DatabaseCheck(t *testing.T) {
	fake := &fakeInflux{databases: []string{"_internal", "lab"}}
	ts := httptest.NewServer(fake)
	defer ts.Close()

	w, err := New(context.Background(), sink.Settings{Addr: ts.URL, Database: "lab"}, nil)
	require.NoError(t, err)
	require.Equal(t, Name, w.Name())
	require.NoError(t, w.Close())

	_, err = New(context.Background(), sink.Settings{Addr: ts.URL, Database: "missing"}, nil)
	require.ErrorIs(t, err, errs.ErrConfiguration)

	_, err = New(context.Background(), sink.Settings{Addr: ts.URL}, nil)
	require.ErrorIs(t, err, errs.ErrConfiguration)
}

func TestNew_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	addr := ts.URL
	ts.Close()

	_, err := New(context.Background(), sink.Settings{Addr: addr, Database: "lab"}, nil)
	require.ErrorIs(t, err, errs.ErrConfiguration)
}

func TestWriter_Write(t *testing.T) {
	fake := &fakeInflux{databases: []string{"lab"}}
	ts := httptest.NewServer(fake)
	defer ts.Close()

	w, err := New(context.Background(), sink.Settings{Addr: ts.URL, Database: "lab"}, nil)
	require.NoError(t, err)
	defer w.Close()

	b := model.Batch{
		{Measurement: "room", Time: time.Unix(1, 0), Tags: model.Tags{"lab": "a"}, Fields: model.Fields{"temp": 21.5}},
		{Measurement: "room", Time: time.Unix(2, 0), Fields: model.Fields{"count": int64(3)}},
	}
	require.NoError(t, w.Write(context.Background(), b))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Equal(t, []string{
		"room,lab=a temp=21.5 1000000000",
		"room count=3i 2000000000",
	}, fake.lines)
}

func TestWriter_WriteFailure(t *testing.T) {
	fake := &fakeInflux{databases: []string{"lab"}}
	ts := httptest.NewServer(fake)
	defer ts.Close()

	w, err := New(context.Background(), sink.Settings{Addr: ts.URL, Database: "lab"}, nil)
	require.NoError(t, err)
	defer w.Close()

	fake.mu.Lock()
	fake.failWrite = true
	fake.mu.Unlock()
	err = w.Write(context.Background(), model.Batch{{Measurement: "m", Time: time.Now(), Fields: model.Fields{"a": 1.0}}})
	require.ErrorIs(t, err, errs.ErrSinkPersistence)
}
