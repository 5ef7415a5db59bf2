package manager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/and161185/lab-data-logger/internal/config"
	"github.com/and161185/lab-data-logger/internal/dataservice"
	"github.com/and161185/lab-data-logger/internal/errs"
	"github.com/and161185/lab-data-logger/internal/server"
	"go.uber.org/zap"
	"go.uber.org/zap/zapio"
)

const (
	InProcessName = "inprocess"
	ExecName      = "exec"

	// ConfigEnv carries the JSON service configuration to executables.
	ConfigEnv = config.ServiceConfigEnv
)

// InProcess serves registered DataServices from this process, one HTTP server
// per port.
type InProcess struct {
	Registry *dataservice.Registry
	Logger   *zap.SugaredLogger
}

func (l *InProcess) Launch(_ context.Context, spec Spec) (Process, string, error) {
	svc, err := l.Registry.New(spec.Descriptor, spec.Config)
	if err != nil {
		return nil, "", err
	}

	logger := l.Logger.With("service", spec.Descriptor, "port", spec.Port)
	srv := server.New(":"+strconv.Itoa(spec.Port), dataservice.Handler(svc, logger), logger)
	if err := srv.Listen(); err != nil {
		return nil, "", err
	}

	p := &inProcess{srv: srv, done: make(chan struct{})}
	go func() {
		defer close(p.done)
		if err := srv.Serve(); err != nil {
			logger.Errorf("serve: %v", err)
		}
	}()
	return p, InProcessName, nil
}

type inProcess struct {
	srv  *server.Server
	done chan struct{}
}

func (p *inProcess) Running() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

func (p *inProcess) Stop(timeout time.Duration) error {
	if err := p.srv.Shutdown(timeout); err != nil {
		return err
	}
	<-p.done
	return nil
}

// Exec runs an executable named after the descriptor from the working
// directory. The executable receives --port and the configuration in ConfigEnv.
type Exec struct {
	Logger *zap.SugaredLogger
}

func (l *Exec) Launch(_ context.Context, spec Spec) (Process, string, error) {
	path, err := lookupExecutable(spec.WorkingDir, spec.Descriptor)
	if err != nil {
		return nil, "", err
	}

	cfg, err := json.Marshal(spec.Config)
	if err != nil {
		return nil, "", fmt.Errorf("%w: encode service config: %v", errs.ErrConfiguration, err)
	}

	logger := l.Logger.Desugar().With(zap.String("service", spec.Descriptor), zap.Int("port", spec.Port))
	out := &zapio.Writer{Log: logger, Level: zap.InfoLevel}

	// The child must outlive the request that spawned it, so no CommandContext.
	cmd := exec.Command(path, "--port", strconv.Itoa(spec.Port))
	cmd.Dir = spec.WorkingDir
	cmd.Env = append(os.Environ(), ConfigEnv+"="+string(cfg))
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Start(); err != nil {
		return nil, "", fmt.Errorf("start %s: %w", path, err)
	}

	p := &execProcess{cmd: cmd, done: make(chan struct{})}
	go func() {
		defer close(p.done)
		err := cmd.Wait()
		_ = out.Close()
		if err != nil {
			logger.Sugar().Infof("exited: %v", err)
		}
	}()
	return p, ExecName, nil
}

func lookupExecutable(dir, descriptor string) (string, error) {
	if dir == "" || descriptor == "" || filepath.Base(descriptor) != descriptor {
		return "", fmt.Errorf("%w: %q", errs.ErrUnknownService, descriptor)
	}
	path := filepath.Join(dir, descriptor)
	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() || fi.Mode().Perm()&0o111 == 0 {
		return "", fmt.Errorf("%w: no executable %s", errs.ErrUnknownService, path)
	}
	return path, nil
}

type execProcess struct {
	cmd  *exec.Cmd
	done chan struct{}
}

func (p *execProcess) Running() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

func (p *execProcess) Stop(timeout time.Duration) error {
	if !p.Running() {
		return nil
	}
	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return p.kill()
	}

	select {
	case <-p.done:
		return nil
	case <-time.After(timeout):
		return p.kill()
	}
}

func (p *execProcess) kill() error {
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill: %w", err)
	}
	<-p.done
	return nil
}

// Composite prefers an executable from the working directory and falls back
// to the in-process registry.
type Composite struct {
	Exec      *Exec
	InProcess *InProcess
}

func (l *Composite) Launch(ctx context.Context, spec Spec) (Process, string, error) {
	if spec.WorkingDir != "" && l.Exec != nil {
		p, name, err := l.Exec.Launch(ctx, spec)
		if err == nil || !errors.Is(err, errs.ErrUnknownService) {
			return p, name, err
		}
	}
	if l.InProcess == nil {
		return nil, "", fmt.Errorf("%w: %q", errs.ErrUnknownService, spec.Descriptor)
	}
	return l.InProcess.Launch(ctx, spec)
}

// NewLauncher returns the default composite launcher.
func NewLauncher(registry *dataservice.Registry, logger *zap.SugaredLogger) *Composite {
	return &Composite{
		Exec:      &Exec{Logger: logger},
		InProcess: &InProcess{Registry: registry, Logger: logger},
	}
}
