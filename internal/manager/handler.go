package manager

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/and161185/lab-data-logger/internal/display"
	"github.com/and161185/lab-data-logger/internal/errs"
	"github.com/and161185/lab-data-logger/internal/rpc"
	"github.com/and161185/lab-data-logger/internal/server"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type handler struct {
	m      *Manager
	logger *zap.SugaredLogger
}

// Handler exposes the Manager over HTTP.
func Handler(m *Manager, logger *zap.SugaredLogger) http.Handler {
	h := &handler{m: m, logger: logger}

	router := server.NewRouter(logger)
	router.Post("/services", h.addService)
	router.Delete("/services/{port}", h.removeService)
	router.Get("/status", h.status)
	router.Get("/", h.statusText)
	return router
}

func (h *handler) addService(w http.ResponseWriter, r *http.Request) {
	var req rpc.AddServiceRequest
	if err := rpc.DecodeJSON(r.Body, &req); err != nil {
		rpc.WriteError(w, err)
		return
	}

	st, err := h.m.AddService(r.Context(), Spec{
		Descriptor: req.Descriptor,
		Port:       req.Port,
		Config:     req.Config,
		WorkingDir: req.WorkingDir,
	})
	if err != nil {
		rpc.WriteError(w, err)
		return
	}
	rpc.WriteJSON(w, http.StatusCreated, st)
}

func (h *handler) removeService(w http.ResponseWriter, r *http.Request) {
	port, err := strconv.Atoi(chi.URLParam(r, "port"))
	if err != nil {
		rpc.WriteError(w, fmt.Errorf("%w: bad port %q", errs.ErrInvalidArgument, chi.URLParam(r, "port")))
		return
	}
	if err := h.m.RemoveService(port); err != nil {
		rpc.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) status(w http.ResponseWriter, _ *http.Request) {
	rpc.WriteJSON(w, http.StatusOK, h.m.Status())
}

func (h *handler) statusText(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	display.Manager(&buf, h.m.Status())

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Errorf("write status: %v", err)
	}
}
