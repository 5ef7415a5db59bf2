package rpc

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/and161185/lab-data-logger/internal/errs"
)

// Caller performs JSON calls against one remote endpoint.
type Caller struct {
	baseURL    string
	httpClient *http.Client
}

// NewCaller creates a caller for addr ("host:port" or a full http(s) URL).
// A nil client gets a default one without an overall timeout, so slow
// DataServices are only bounded by the caller's context.
func NewCaller(addr string, hc *http.Client) *Caller {
	if hc == nil {
		hc = &http.Client{}
	}
	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		addr = "http://" + addr
	}
	return &Caller{baseURL: strings.TrimRight(addr, "/"), httpClient: hc}
}

// NewHTTPClient returns a client with the given timeout; zero means none.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func (c *Caller) BaseURL() string { return c.baseURL }

// Call sends in as gzipped JSON (when non-nil) and decodes the response into out
// (when non-nil). Transport faults are classified into errs.ErrConnectionRefused
// and errs.ErrPeerClosed.
func (c *Caller) Call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := gzipJSON(in)
		if err != nil {
			return err
		}
		body = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Content-Encoding", "gzip")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classify(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return classify(err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return errorFromResponse(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return DecodeJSON(bytes.NewReader(raw), out)
}

func gzipJSON(v any) (*bytes.Buffer, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("gzip write: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	return &buf, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("%w: %w", errs.ErrConnectionRefused, err)
	case errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE):
		return fmt.Errorf("%w: %w", errs.ErrPeerClosed, err)
	default:
		return err
	}
}
