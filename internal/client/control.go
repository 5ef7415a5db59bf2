package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/and161185/lab-data-logger/internal/rpc"
	"github.com/and161185/lab-data-logger/internal/sink"
	"github.com/and161185/lab-data-logger/internal/source"
)

// RecorderClient drives a remote Recorder.
type RecorderClient struct {
	caller *rpc.Caller
}

func NewRecorderClient(addr string, hc *http.Client) *RecorderClient {
	return &RecorderClient{caller: rpc.NewCaller(addr, hc)}
}

func (c *RecorderClient) SetWriter(ctx context.Context, sinkType string, settings sink.Settings) (sink.Status, error) {
	var st sink.Status
	err := c.caller.Call(ctx, http.MethodPut, "/writer", rpc.SetWriterRequest{SinkType: sinkType, Settings: settings}, &st)
	return st, err
}

func (c *RecorderClient) ConnectSource(ctx context.Context, req rpc.ConnectSourceRequest) (source.Status, error) {
	var st source.Status
	err := c.caller.Call(ctx, http.MethodPost, "/sources", req, &st)
	return st, err
}

func (c *RecorderClient) DisconnectSource(ctx context.Context, netloc string) (rpc.DisconnectResponse, error) {
	var resp rpc.DisconnectResponse
	err := c.caller.Call(ctx, http.MethodDelete, "/sources/"+url.PathEscape(netloc), nil, &resp)
	return resp, err
}

func (c *RecorderClient) Status(ctx context.Context) (rpc.RecorderStatus, error) {
	var st rpc.RecorderStatus
	err := c.caller.Call(ctx, http.MethodGet, "/status", nil, &st)
	return st, err
}

// ManagerClient drives a remote ServiceManager.
type ManagerClient struct {
	caller *rpc.Caller
}

func NewManagerClient(addr string, hc *http.Client) *ManagerClient {
	return &ManagerClient{caller: rpc.NewCaller(addr, hc)}
}

func (c *ManagerClient) AddService(ctx context.Context, req rpc.AddServiceRequest) (rpc.ServiceStatus, error) {
	var st rpc.ServiceStatus
	err := c.caller.Call(ctx, http.MethodPost, "/services", req, &st)
	return st, err
}

func (c *ManagerClient) RemoveService(ctx context.Context, port int) error {
	return c.caller.Call(ctx, http.MethodDelete, "/services/"+strconv.Itoa(port), nil, nil)
}

func (c *ManagerClient) Status(ctx context.Context) (rpc.ManagerStatus, error) {
	var st rpc.ManagerStatus
	err := c.caller.Call(ctx, http.MethodGet, "/status", nil, &st)
	return st, err
}
