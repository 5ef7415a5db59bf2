// Package config builds the configuration of every ldl command from defaults,
// an optional JSON or YAML file, command-line flags and LDL_* environment
// variables, in increasing order of priority.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/and161185/lab-data-logger/internal/sink"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const (
	DefaultRecorderAddr  = ":18860"
	DefaultManagerAddr   = ":18859"
	DefaultServicePort   = 18861
	DefaultStopTimeout   = time.Second
	// DefaultClientTimeout bounds control-plane calls. DataService calls have
	// no timeout unless one is configured.
	DefaultClientTimeout = 5 * time.Second

	// ServiceConfigEnv carries a JSON service configuration to spawned services.
	ServiceConfigEnv = "LDL_SERVICE_CONFIG"
)

// NewLogger builds the process logger. outputs defaults to stdout and ldl.log.
func NewLogger(level string, outputs ...string) (*zap.SugaredLogger, error) {
	logCfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		logCfg.Level = lvl
	}
	logCfg.OutputPaths = []string{"stdout", "ldl.log"}
	if len(outputs) > 0 {
		logCfg.OutputPaths = outputs
	}

	logger, err := logCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Sugar(), nil
}

// WriterConfig selects the writer a recorder starts with.
type WriterConfig struct {
	SinkType string        `json:"sink_type" yaml:"sink_type"`
	Settings sink.Settings `json:"settings" yaml:"settings"`
}

// RecorderConfig configures `ldl recorder start`.
type RecorderConfig struct {
	Addr               string
	StopTimeout        time.Duration
	DataServiceTimeout time.Duration
	Writer             *WriterConfig
}

type recorderFile struct {
	Address            *string       `json:"address" yaml:"address"`
	StopTimeout        *string       `json:"stop_timeout" yaml:"stop_timeout"`
	DataServiceTimeout *string       `json:"dataservice_timeout" yaml:"dataservice_timeout"`
	Writer             *WriterConfig `json:"writer" yaml:"writer"`
}

type RecorderFlags struct {
	addr        strFlag
	stopTimeout durFlag
	dsTimeout   durFlag
	config      strFlag
}

func NewRecorderFlags(fs *pflag.FlagSet) *RecorderFlags {
	f := &RecorderFlags{}
	f.addr.v = DefaultRecorderAddr
	f.stopTimeout.v = DefaultStopTimeout

	fs.VarP(&f.addr, "address", "a", "address the recorder API listens on")
	fs.Var(&f.stopTimeout, "stop-timeout", "cooperative stop window for sources and the writer")
	fs.Var(&f.dsTimeout, "dataservice-timeout", "timeout of a single DataService call, 0 waits as long as the service takes")
	fs.VarP(&f.config, "config", "c", "path to a JSON or YAML config file")
	return f
}

func (f *RecorderFlags) Load() (*RecorderConfig, error) {
	cfg := &RecorderConfig{
		Addr:               f.addr.v,
		StopTimeout:        f.stopTimeout.v,
		DataServiceTimeout: f.dsTimeout.v,
	}

	if path := configPath(&f.config); path != "" {
		var fc recorderFile
		if err := loadFile(path, &fc); err != nil {
			return nil, err
		}
		if fc.Address != nil && !f.addr.set {
			cfg.Addr = *fc.Address
		}
		if err := fileDuration(fc.StopTimeout, f.stopTimeout.set, &cfg.StopTimeout); err != nil {
			return nil, fmt.Errorf("stop_timeout: %w", err)
		}
		if err := fileDuration(fc.DataServiceTimeout, f.dsTimeout.set, &cfg.DataServiceTimeout); err != nil {
			return nil, fmt.Errorf("dataservice_timeout: %w", err)
		}
		cfg.Writer = fc.Writer
	}

	if err := readRecorderEnvironment(cfg); err != nil {
		return nil, err
	}
	if cfg.StopTimeout <= 0 {
		return nil, fmt.Errorf("stop timeout must be positive, got %s", cfg.StopTimeout)
	}
	return cfg, nil
}

func readRecorderEnvironment(cfg *RecorderConfig) error {
	if addr := os.Getenv("LDL_ADDRESS"); addr != "" {
		cfg.Addr = addr
	}
	if err := envDuration("LDL_STOP_TIMEOUT", &cfg.StopTimeout); err != nil {
		return err
	}
	return envDuration("LDL_DATASERVICE_TIMEOUT", &cfg.DataServiceTimeout)
}

// ManagerConfig configures `ldl services manager start`.
type ManagerConfig struct {
	Addr        string
	StopTimeout time.Duration
}

type managerFile struct {
	Address     *string `json:"address" yaml:"address"`
	StopTimeout *string `json:"stop_timeout" yaml:"stop_timeout"`
}

type ManagerFlags struct {
	addr        strFlag
	stopTimeout durFlag
	config      strFlag
}

func NewManagerFlags(fs *pflag.FlagSet) *ManagerFlags {
	f := &ManagerFlags{}
	f.addr.v = DefaultManagerAddr
	f.stopTimeout.v = 5 * time.Second

	fs.VarP(&f.addr, "address", "a", "address the manager API listens on")
	fs.Var(&f.stopTimeout, "stop-timeout", "graceful stop window for spawned services")
	fs.VarP(&f.config, "config", "c", "path to a JSON or YAML config file")
	return f
}

func (f *ManagerFlags) Load() (*ManagerConfig, error) {
	cfg := &ManagerConfig{Addr: f.addr.v, StopTimeout: f.stopTimeout.v}

	if path := configPath(&f.config); path != "" {
		var fc managerFile
		if err := loadFile(path, &fc); err != nil {
			return nil, err
		}
		if fc.Address != nil && !f.addr.set {
			cfg.Addr = *fc.Address
		}
		if err := fileDuration(fc.StopTimeout, f.stopTimeout.set, &cfg.StopTimeout); err != nil {
			return nil, fmt.Errorf("stop_timeout: %w", err)
		}
	}

	if addr := os.Getenv("LDL_ADDRESS"); addr != "" {
		cfg.Addr = addr
	}
	if err := envDuration("LDL_STOP_TIMEOUT", &cfg.StopTimeout); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ClientConfig holds the global flags shared by all commands.
type ClientConfig struct {
	RecorderAddr string
	ManagerAddr  string
	Timeout      time.Duration
	LogLevel     string
}

type ClientFlags struct {
	recorder strFlag
	manager  strFlag
	timeout  durFlag
	logLevel strFlag
}

func NewClientFlags(fs *pflag.FlagSet) *ClientFlags {
	f := &ClientFlags{}
	f.recorder.v = "localhost" + DefaultRecorderAddr
	f.manager.v = "localhost" + DefaultManagerAddr
	f.timeout.v = DefaultClientTimeout
	f.logLevel.v = "info"

	fs.Var(&f.recorder, "recorder", "address of the recorder API")
	fs.Var(&f.manager, "manager", "address of the service manager API")
	fs.Var(&f.timeout, "timeout", "timeout of control-plane calls")
	fs.Var(&f.logLevel, "log-level", "debug, info, warn or error")
	return f
}

func (f *ClientFlags) Load() (*ClientConfig, error) {
	cfg := &ClientConfig{
		RecorderAddr: f.recorder.v,
		ManagerAddr:  f.manager.v,
		Timeout:      f.timeout.v,
		LogLevel:     f.logLevel.v,
	}

	if v := os.Getenv("LDL_RECORDER_ADDRESS"); v != "" {
		cfg.RecorderAddr = v
	}
	if v := os.Getenv("LDL_MANAGER_ADDRESS"); v != "" {
		cfg.ManagerAddr = v
	}
	if v := os.Getenv("LDL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if err := envDuration("LDL_CLIENT_TIMEOUT", &cfg.Timeout); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ServiceConfig configures `ldl services run`.
type ServiceConfig struct {
	Port     int
	Settings map[string]any
}

type ServiceFlags struct {
	port   intFlag
	config strFlag
}

func NewServiceFlags(fs *pflag.FlagSet) *ServiceFlags {
	f := &ServiceFlags{}
	f.port.v = DefaultServicePort

	fs.VarP(&f.port, "port", "p", "port the DataService listens on")
	fs.VarP(&f.config, "config", "c", "path to a JSON or YAML file with service settings")
	return f
}

// Load reads service settings from the config file, or from ServiceConfigEnv
// when the service was spawned by a manager.
func (f *ServiceFlags) Load() (*ServiceConfig, error) {
	cfg := &ServiceConfig{Port: f.port.v}

	switch {
	case f.config.v != "":
		settings, err := ReadSettings(f.config.v)
		if err != nil {
			return nil, err
		}
		cfg.Settings = settings
	case os.Getenv(ServiceConfigEnv) != "":
		if err := decodeJSON([]byte(os.Getenv(ServiceConfigEnv)), &cfg.Settings); err != nil {
			return nil, fmt.Errorf("%s: %w", ServiceConfigEnv, err)
		}
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port %d out of range", cfg.Port)
	}
	return cfg, nil
}
