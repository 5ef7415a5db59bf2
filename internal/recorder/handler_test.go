package recorder

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/and161185/lab-data-logger/internal/metrics"
	"github.com/and161185/lab-data-logger/internal/rpc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHandler(t *testing.T) {
	net := newFakeNetwork()
	net.add(18861)

	reg := prometheus.NewRegistry()
	rec := New(Options{
		Dial:        net.dial,
		StopTimeout: 200 * time.Millisecond,
		Observer:    metrics.NewPromObs(reg),
	})
	t.Cleanup(rec.Close)
	h := Handler(rec, reg, zap.NewNop().Sugar())

	steps := []struct {
		name       string
		method     string
		url        string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"set_writer", http.MethodPut, "/writer", `{"sink_type":"void"}`, http.StatusOK, ""},
		{"set_writer_unknown", http.MethodPut, "/writer", `{"sink_type":"cassandra"}`, http.StatusUnprocessableEntity, rpc.CodeConfiguration},
		{"set_writer_missing_type", http.MethodPut, "/writer", `{}`, http.StatusBadRequest, rpc.CodeInvalidArgument},
		{"connect", http.MethodPost, "/sources", `{"netloc":"localhost:18861","interval":0.05,"measurement":"room","tags":{"lab":"1"}}`, http.StatusCreated, ""},
		{"connect_duplicate", http.MethodPost, "/sources", `{"netloc":"18861","interval":1,"measurement":"room"}`, http.StatusConflict, rpc.CodeAlreadyConnected},
		{"connect_bad_netloc", http.MethodPost, "/sources", `{"netloc":"localhost:x","interval":1,"measurement":"room"}`, http.StatusBadRequest, rpc.CodeInvalidArgument},
		{"connect_bad_interval", http.MethodPost, "/sources", `{"netloc":"localhost:18862","interval":-1,"measurement":"room"}`, http.StatusBadRequest, rpc.CodeInvalidArgument},
		{"connect_broken_json", http.MethodPost, "/sources", `{"netloc":`, http.StatusBadRequest, rpc.CodeInvalidArgument},
		{"status", http.MethodGet, "/status", ``, http.StatusOK, ""},
		{"metrics", http.MethodGet, "/metrics", ``, http.StatusOK, ""},
		{"disconnect", http.MethodDelete, "/sources/localhost:18861", ``, http.StatusOK, ""},
		{"disconnect_again", http.MethodDelete, "/sources/localhost:18861", ``, http.StatusNotFound, rpc.CodeNotConnected},
	}

	for _, st := range steps {
		t.Run(st.name, func(t *testing.T) {
			req := httptest.NewRequest(st.method, st.url, bytes.NewBufferString(st.body))
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			require.Equal(t, st.wantStatus, rr.Code, rr.Body.String())
			if st.wantCode != "" {
				var body rpc.ErrorResponse
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
				require.Equal(t, st.wantCode, body.Code)
			}
		})
	}
}

func TestHandler_StatusJSONAndText(t *testing.T) {
	net := newFakeNetwork()
	net.add(18861)
	rec := New(Options{Dial: net.dial, StopTimeout: 200 * time.Millisecond})
	t.Cleanup(rec.Close)
	h := Handler(rec, nil, zap.NewNop().Sugar())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/sources",
		strings.NewReader(`{"netloc":"localhost:18861","interval":1.5,"measurement":"room"}`)))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status", nil))
	var st rpc.RecorderStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &st))
	require.Nil(t, st.Sink)
	require.Len(t, st.Sources, 1)
	require.Equal(t, 1.5, st.Sources[0].Interval)
	require.Equal(t, "localhost:18861", st.Sources[0].Netloc)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "no writer set")
	require.Contains(t, rr.Body.String(), "localhost:18861")

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
}
