package recorder

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/and161185/lab-data-logger/internal/display"
	"github.com/and161185/lab-data-logger/internal/errs"
	"github.com/and161185/lab-data-logger/internal/rpc"
	"github.com/and161185/lab-data-logger/internal/server"
	"github.com/and161185/lab-data-logger/model"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type handler struct {
	rec    *Recorder
	logger *zap.SugaredLogger
}

// Handler exposes the Recorder over HTTP. gatherer may be nil, in which case
// /metrics is not served.
func Handler(rec *Recorder, gatherer prometheus.Gatherer, logger *zap.SugaredLogger) http.Handler {
	h := &handler{rec: rec, logger: logger}

	router := server.NewRouter(logger)
	router.Put("/writer", h.setWriter)
	router.Post("/sources", h.connectSource)
	router.Delete("/sources/{netloc}", h.disconnectSource)
	router.Get("/status", h.status)
	router.Get("/", h.statusText)
	if gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return router
}

func (h *handler) setWriter(w http.ResponseWriter, r *http.Request) {
	var req rpc.SetWriterRequest
	if err := rpc.DecodeJSON(r.Body, &req); err != nil {
		rpc.WriteError(w, err)
		return
	}
	if req.SinkType == "" {
		rpc.WriteError(w, fmt.Errorf("%w: sink_type is required", errs.ErrInvalidArgument))
		return
	}

	st, err := h.rec.SetWriter(r.Context(), req.SinkType, req.Settings)
	if err != nil {
		rpc.WriteError(w, err)
		return
	}
	rpc.WriteJSON(w, http.StatusOK, st)
}

func (h *handler) connectSource(w http.ResponseWriter, r *http.Request) {
	var req rpc.ConnectSourceRequest
	if err := rpc.DecodeJSON(r.Body, &req); err != nil {
		rpc.WriteError(w, err)
		return
	}

	netloc, err := model.ParseNetloc(req.Netloc)
	if err != nil {
		rpc.WriteError(w, fmt.Errorf("%w: %w", errs.ErrInvalidArgument, err))
		return
	}
	if req.Interval <= 0 {
		rpc.WriteError(w, fmt.Errorf("%w: interval must be positive", errs.ErrInvalidArgument))
		return
	}

	st, err := h.rec.ConnectSource(ConnectRequest{
		Netloc:          netloc,
		Measurement:     req.Measurement,
		Interval:        time.Duration(req.Interval * float64(time.Second)),
		Tags:            req.Tags,
		RequestedFields: req.RequestedFields,
	})
	if err != nil {
		rpc.WriteError(w, err)
		return
	}
	rpc.WriteJSON(w, http.StatusCreated, st)
}

func (h *handler) disconnectSource(w http.ResponseWriter, r *http.Request) {
	netloc, err := model.ParseNetloc(chi.URLParam(r, "netloc"))
	if err != nil {
		rpc.WriteError(w, fmt.Errorf("%w: %w", errs.ErrInvalidArgument, err))
		return
	}

	exit, err := h.rec.DisconnectSource(netloc)
	if err != nil {
		rpc.WriteError(w, err)
		return
	}
	rpc.WriteJSON(w, http.StatusOK, rpc.DisconnectResponse{Netloc: netloc.String(), Exit: string(exit)})
}

func (h *handler) status(w http.ResponseWriter, _ *http.Request) {
	rpc.WriteJSON(w, http.StatusOK, h.rec.Status())
}

func (h *handler) statusText(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	display.Recorder(&buf, h.rec.Status())

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Errorf("write status: %v", err)
	}
}
