package dataservice

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/and161185/lab-data-logger/internal/rpc"
	"github.com/and161185/lab-data-logger/internal/server"
	"github.com/and161185/lab-data-logger/model"
	"go.uber.org/zap"
)

// DataService is what Handler exposes over RPC.
type DataService interface {
	ServiceName() string
	GetData(ctx context.Context, requested []string) (model.Fields, error)
}

type handler struct {
	svc    DataService
	logger *zap.SugaredLogger
}

// Handler serves POST /data and GET /name for svc.
func Handler(svc DataService, logger *zap.SugaredLogger) http.Handler {
	h := &handler{svc: svc, logger: logger}

	router := server.NewRouter(logger)
	router.Post("/data", h.getData)
	router.Get("/name", h.serviceName)
	return router
}

func (h *handler) getData(w http.ResponseWriter, r *http.Request) {
	var req rpc.DataRequest
	if err := rpc.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		rpc.WriteError(w, err)
		return
	}

	fields, err := h.svc.GetData(r.Context(), req.RequestedFields)
	if err != nil {
		h.logger.Errorf("get data from %s: %v", h.svc.ServiceName(), err)
		rpc.WriteError(w, err)
		return
	}
	rpc.WriteJSON(w, http.StatusOK, rpc.DataResponse{Fields: fields})
}

func (h *handler) serviceName(w http.ResponseWriter, _ *http.Request) {
	rpc.WriteJSON(w, http.StatusOK, rpc.NameResponse{Name: h.svc.ServiceName()})
}
