package rpc

import (
	"github.com/and161185/lab-data-logger/internal/sink"
	"github.com/and161185/lab-data-logger/internal/source"
)

// DataRequest is the body of POST /data on a DataService.
type DataRequest struct {
	RequestedFields []string `json:"requested_fields,omitempty"`
}

// DataResponse carries the fields produced by a DataService.
type DataResponse struct {
	Fields map[string]any `json:"fields"`
}

// NameResponse is the body of GET /name.
type NameResponse struct {
	Name string `json:"name"`
}

// SetWriterRequest is the body of PUT /writer on the Recorder.
type SetWriterRequest struct {
	SinkType string        `json:"sink_type"`
	Settings sink.Settings `json:"settings"`
}

// ConnectSourceRequest is the body of POST /sources on the Recorder.
// Interval is expressed in seconds.
type ConnectSourceRequest struct {
	Netloc          string            `json:"netloc"`
	Interval        float64           `json:"interval"`
	Measurement     string            `json:"measurement"`
	Tags            map[string]string `json:"tags,omitempty"`
	RequestedFields []string          `json:"requested_fields,omitempty"`
}

// AddServiceRequest is the body of POST /services on the ServiceManager.
type AddServiceRequest struct {
	Descriptor string         `json:"descriptor"`
	Port       int            `json:"port"`
	Config     map[string]any `json:"config,omitempty"`
	WorkingDir string         `json:"working_dir,omitempty"`
}

// DisconnectResponse reports how a disconnected source terminated.
type DisconnectResponse struct {
	Netloc string `json:"netloc"`
	Exit   string `json:"exit"`
}

// RecorderStatus is the body of GET /status on the Recorder. Sources are
// sorted by netloc.
type RecorderStatus struct {
	Sink    *sink.Status    `json:"sink,omitempty"`
	Sources []source.Status `json:"sources"`
}

// ServiceStatus describes one service spawned by the ServiceManager.
type ServiceStatus struct {
	Port       int    `json:"port"`
	Descriptor string `json:"descriptor"`
	Launcher   string `json:"launcher"`
	Running    bool   `json:"running"`
}

// ManagerStatus is the body of GET /status on the ServiceManager. Services
// are sorted by port.
type ManagerStatus struct {
	Services []ServiceStatus `json:"services"`
}
