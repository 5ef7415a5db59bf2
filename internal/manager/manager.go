// Package manager implements the ServiceManager: a registry of locally spawned
// DataServices keyed by port.
package manager

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/and161185/lab-data-logger/internal/errs"
	"github.com/and161185/lab-data-logger/internal/rpc"
	"go.uber.org/zap"
)

const DefaultStopTimeout = 5 * time.Second

// Spec describes a service to spawn.
type Spec struct {
	Descriptor string
	Port       int
	Config     map[string]any
	WorkingDir string
}

// Process is a spawned DataService.
type Process interface {
	Running() bool
	// Stop asks the service to exit and forces it after timeout.
	Stop(timeout time.Duration) error
}

// Launcher resolves a descriptor and spawns it. Unknown descriptors must be
// reported as errs.ErrUnknownService and busy ports as errs.ErrPortInUse.
type Launcher interface {
	Launch(ctx context.Context, spec Spec) (Process, string, error)
}

type entry struct {
	spec     Spec
	proc     Process
	launcher string
}

type Manager struct {
	mu       sync.RWMutex
	services map[int]entry

	launcher    Launcher
	stopTimeout time.Duration
	logger      *zap.SugaredLogger
}

func New(launcher Launcher, stopTimeout time.Duration, logger *zap.SugaredLogger) *Manager {
	if stopTimeout <= 0 {
		stopTimeout = DefaultStopTimeout
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Manager{
		services:    make(map[int]entry),
		launcher:    launcher,
		stopTimeout: stopTimeout,
		logger:      logger,
	}
}

// AddService spawns spec on its port. A port can host one service.
func (m *Manager) AddService(ctx context.Context, spec Spec) (rpc.ServiceStatus, error) {
	if spec.Port < 1 || spec.Port > 65535 {
		return rpc.ServiceStatus{}, fmt.Errorf("%w: port %d out of range", errs.ErrInvalidArgument, spec.Port)
	}
	if spec.Descriptor == "" {
		return rpc.ServiceStatus{}, fmt.Errorf("%w: descriptor is required", errs.ErrInvalidArgument)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, ok := m.services[spec.Port]; ok {
		m.logger.Warnf("add %s: port %d already hosts %s", spec.Descriptor, spec.Port, cur.spec.Descriptor)
		return rpc.ServiceStatus{}, fmt.Errorf("%w: %d", errs.ErrPortInUse, spec.Port)
	}

	proc, launcher, err := m.launcher.Launch(ctx, spec)
	if err != nil {
		m.logger.Errorf("launch %s on port %d: %v", spec.Descriptor, spec.Port, err)
		return rpc.ServiceStatus{}, err
	}

	e := entry{spec: spec, proc: proc, launcher: launcher}
	m.services[spec.Port] = e
	m.logger.Infof("started %s on port %d (%s)", spec.Descriptor, spec.Port, launcher)
	return e.status(), nil
}

// RemoveService stops the service on port and forgets it.
func (m *Manager) RemoveService(port int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.services[port]
	if !ok {
		return fmt.Errorf("%w: no service on port %d", errs.ErrNotFound, port)
	}

	err := e.proc.Stop(m.stopTimeout)
	delete(m.services, port)
	if err != nil {
		m.logger.Warnf("stop %s on port %d: %v", e.spec.Descriptor, port, err)
	} else {
		m.logger.Infof("stopped %s on port %d", e.spec.Descriptor, port)
	}
	return nil
}

// Status lists services sorted by port.
func (m *Manager) Status() rpc.ManagerStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := rpc.ManagerStatus{Services: make([]rpc.ServiceStatus, 0, len(m.services))}
	for _, e := range m.services {
		st.Services = append(st.Services, e.status())
	}
	sort.Slice(st.Services, func(i, j int) bool { return st.Services[i].Port < st.Services[j].Port })
	return st
}

// Close stops every service.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for port, e := range m.services {
		if err := e.proc.Stop(m.stopTimeout); err != nil {
			m.logger.Warnf("stop %s on port %d: %v", e.spec.Descriptor, port, err)
		}
		delete(m.services, port)
	}
}

func (e entry) status() rpc.ServiceStatus {
	return rpc.ServiceStatus{
		Port:       e.spec.Port,
		Descriptor: e.spec.Descriptor,
		Launcher:   e.launcher,
		Running:    e.proc.Running(),
	}
}
