// Package client provides RPC clients for DataServices, the Recorder and the
// ServiceManager.
package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/and161185/lab-data-logger/internal/rpc"
	"github.com/and161185/lab-data-logger/internal/source"
	"github.com/and161185/lab-data-logger/model"
)

// DataServiceClient calls one remote DataService.
type DataServiceClient struct {
	caller *rpc.Caller
	netloc model.Netloc
}

// NewDataServiceClient creates a client for netloc. No connection is made
// until the first call.
func NewDataServiceClient(netloc model.Netloc, hc *http.Client) *DataServiceClient {
	return &DataServiceClient{caller: rpc.NewCaller(netloc.String(), hc), netloc: netloc}
}

// Dialer returns a function suitable for recorder.Options.Dial. timeout bounds
// each call; zero leaves calls bounded only by their context.
func Dialer(timeout time.Duration) func(model.Netloc) source.DataService {
	hc := rpc.NewHTTPClient(timeout)
	return func(netloc model.Netloc) source.DataService {
		return NewDataServiceClient(netloc, hc)
	}
}

func (c *DataServiceClient) ServiceName(ctx context.Context) (string, error) {
	var resp rpc.NameResponse
	if err := c.caller.Call(ctx, http.MethodGet, "/name", nil, &resp); err != nil {
		return "", fmt.Errorf("service name from %s: %w", c.netloc, err)
	}
	return resp.Name, nil
}

// GetData fetches the requested fields. Numbers are returned as int64 or float64.
func (c *DataServiceClient) GetData(ctx context.Context, requested []string) (model.Fields, error) {
	var resp rpc.DataResponse
	if err := c.caller.Call(ctx, http.MethodPost, "/data", rpc.DataRequest{RequestedFields: requested}, &resp); err != nil {
		return nil, fmt.Errorf("get data from %s: %w", c.netloc, err)
	}

	fields, err := model.NormalizeFields(resp.Fields)
	if err != nil {
		return nil, fmt.Errorf("get data from %s: %w", c.netloc, err)
	}
	return fields, nil
}
