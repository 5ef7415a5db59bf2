// Package rpc holds the JSON-over-HTTP conventions shared by every control-plane
// endpoint and DataService: wire types, the error envelope and the client caller.
package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/and161185/lab-data-logger/internal/errs"
)

// Error codes carried in ErrorResponse.Code.
const (
	CodeAlreadyConnected = "already_connected"
	CodeNotConnected     = "not_connected"
	CodePortInUse        = "port_in_use"
	CodeNotFound         = "not_found"
	CodeInvalidArgument  = "invalid_argument"
	CodeConfiguration    = "configuration"
	CodeUnknownService   = "unknown_service"
	CodeInternal         = "internal"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

type errorMapping struct {
	code   string
	err    error
	status int
}

var mappings = []errorMapping{
	{CodeAlreadyConnected, errs.ErrAlreadyConnected, http.StatusConflict},
	{CodeNotConnected, errs.ErrNotConnected, http.StatusNotFound},
	{CodePortInUse, errs.ErrPortInUse, http.StatusConflict},
	{CodeNotFound, errs.ErrNotFound, http.StatusNotFound},
	{CodeInvalidArgument, errs.ErrInvalidArgument, http.StatusBadRequest},
	{CodeConfiguration, errs.ErrConfiguration, http.StatusUnprocessableEntity},
	{CodeUnknownService, errs.ErrUnknownService, http.StatusBadRequest},
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err onto the error envelope.
func WriteError(w http.ResponseWriter, err error) {
	code, status := CodeInternal, http.StatusInternalServerError
	for _, m := range mappings {
		if errors.Is(err, m.err) {
			code, status = m.code, m.status
			break
		}
	}
	WriteJSON(w, status, ErrorResponse{Code: code, Error: err.Error()})
}

// DecodeJSON decodes a request body. Numbers inside untyped values stay json.Number.
func DecodeJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: decode body: %w", errs.ErrInvalidArgument, err)
	}
	return nil
}

// errorFromResponse rebuilds a sentinel-wrapped error from an error envelope.
func errorFromResponse(status int, body []byte) error {
	var er ErrorResponse
	if err := json.Unmarshal(body, &er); err != nil || er.Code == "" {
		return fmt.Errorf("unexpected status: %d", status)
	}
	for _, m := range mappings {
		if m.code == er.Code {
			return fmt.Errorf("%w (remote: %s)", m.err, er.Error)
		}
	}
	return fmt.Errorf("remote error: %s", er.Error)
}
