package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func setEnvAndRun(t *testing.T, env map[string]string, fn func()) {
	t.Helper()
	for k, v := range env {
		t.Setenv(k, v)
	}
	fn()
}

func withFreshFlagSet(t *testing.T, args []string, bind func(fs *pflag.FlagSet)) {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	bind(fs)
	require.NoError(t, fs.Parse(args))
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRecorderDefaults(t *testing.T) {
	t.Setenv("CONFIG", "")
	var f *RecorderFlags
	withFreshFlagSet(t, nil, func(fs *pflag.FlagSet) { f = NewRecorderFlags(fs) })

	cfg, err := f.Load()
	require.NoError(t, err)
	require.Equal(t, ":18860", cfg.Addr)
	require.Equal(t, time.Second, cfg.StopTimeout)
	require.Zero(t, cfg.DataServiceTimeout, "DataService calls are unbounded by default")
	require.Nil(t, cfg.Writer)
}

func TestRecorderFileFillsUnsetFlags(t *testing.T) {
	path := writeFile(t, "rec.yaml", `
address: ":19000"
stop_timeout: 3s
writer:
  sink_type: influxdb
  settings:
    addr: http://localhost:8086
    database: lab
`)
	var f *RecorderFlags
	withFreshFlagSet(t, []string{"-c", path, "--stop-timeout", "2s"}, func(fs *pflag.FlagSet) { f = NewRecorderFlags(fs) })

	cfg, err := f.Load()
	require.NoError(t, err)
	require.Equal(t, ":19000", cfg.Addr)
	require.Equal(t, 2*time.Second, cfg.StopTimeout, "explicit flag wins over the file")
	require.NotNil(t, cfg.Writer)
	require.Equal(t, "influxdb", cfg.Writer.SinkType)
	require.Equal(t, "lab", cfg.Writer.Settings.Database)
}

func TestRecorderJSONFromConfigEnv(t *testing.T) {
	path := writeFile(t, "rec.json", `{"address": ":19001", "writer": {"sink_type": "void"}}`)
	setEnvAndRun(t, map[string]string{"CONFIG": path}, func() {
		var f *RecorderFlags
		withFreshFlagSet(t, nil, func(fs *pflag.FlagSet) { f = NewRecorderFlags(fs) })

		cfg, err := f.Load()
		require.NoError(t, err)
		require.Equal(t, ":19001", cfg.Addr)
		require.Equal(t, "void", cfg.Writer.SinkType)
	})
}

func TestRecorderEnvOverridesAll(t *testing.T) {
	env := map[string]string{
		"CONFIG":                  "",
		"LDL_ADDRESS":             ":20000",
		"LDL_STOP_TIMEOUT":        "250ms",
		"LDL_DATASERVICE_TIMEOUT": "3s",
	}
	setEnvAndRun(t, env, func() {
		var f *RecorderFlags
		withFreshFlagSet(t, []string{"--address", ":1"}, func(fs *pflag.FlagSet) { f = NewRecorderFlags(fs) })

		cfg, err := f.Load()
		require.NoError(t, err)
		require.Equal(t, ":20000", cfg.Addr)
		require.Equal(t, 250*time.Millisecond, cfg.StopTimeout)
		require.Equal(t, 3*time.Second, cfg.DataServiceTimeout)
	})
}

func TestRecorderInvalidEnv(t *testing.T) {
	setEnvAndRun(t, map[string]string{"CONFIG": "", "LDL_STOP_TIMEOUT": "soon"}, func() {
		var f *RecorderFlags
		withFreshFlagSet(t, nil, func(fs *pflag.FlagSet) { f = NewRecorderFlags(fs) })

		_, err := f.Load()
		require.ErrorContains(t, err, "LDL_STOP_TIMEOUT")
	})
}

func TestRecorderMissingFile(t *testing.T) {
	var f *RecorderFlags
	withFreshFlagSet(t, []string{"-c", filepath.Join(t.TempDir(), "nope.json")}, func(fs *pflag.FlagSet) { f = NewRecorderFlags(fs) })

	_, err := f.Load()
	require.Error(t, err)
}

func TestManagerConfig(t *testing.T) {
	path := writeFile(t, "mgr.json", `{"address": ":19100", "stop_timeout": "10s"}`)
	setEnvAndRun(t, map[string]string{"CONFIG": ""}, func() {
		var f *ManagerFlags
		withFreshFlagSet(t, []string{"--config", path}, func(fs *pflag.FlagSet) { f = NewManagerFlags(fs) })

		cfg, err := f.Load()
		require.NoError(t, err)
		require.Equal(t, ":19100", cfg.Addr)
		require.Equal(t, 10*time.Second, cfg.StopTimeout)
	})
}

func TestClientConfig(t *testing.T) {
	env := map[string]string{
		"LDL_RECORDER_ADDRESS": "lab-pc:18860",
		"LDL_CLIENT_TIMEOUT":   "1s",
	}
	setEnvAndRun(t, env, func() {
		var f *ClientFlags
		withFreshFlagSet(t, []string{"--manager", "lab-pc:1", "--log-level", "debug"}, func(fs *pflag.FlagSet) { f = NewClientFlags(fs) })

		cfg, err := f.Load()
		require.NoError(t, err)
		require.Equal(t, "lab-pc:18860", cfg.RecorderAddr)
		require.Equal(t, "lab-pc:1", cfg.ManagerAddr)
		require.Equal(t, time.Second, cfg.Timeout)
		require.Equal(t, "debug", cfg.LogLevel)
	})
}

func TestServiceConfig(t *testing.T) {
	t.Run("from env", func(t *testing.T) {
		t.Setenv(ServiceConfigEnv, `{"a_number": 7}`)
		var f *ServiceFlags
		withFreshFlagSet(t, []string{"--port", "19200"}, func(fs *pflag.FlagSet) { f = NewServiceFlags(fs) })

		cfg, err := f.Load()
		require.NoError(t, err)
		require.Equal(t, 19200, cfg.Port)
		require.Contains(t, cfg.Settings, "a_number")
	})

	t.Run("file wins over env", func(t *testing.T) {
		t.Setenv(ServiceConfigEnv, `{"a_number": 7}`)
		path := writeFile(t, "svc.yml", "another_number: 4\n")
		var f *ServiceFlags
		withFreshFlagSet(t, []string{"-c", path}, func(fs *pflag.FlagSet) { f = NewServiceFlags(fs) })

		cfg, err := f.Load()
		require.NoError(t, err)
		require.Equal(t, DefaultServicePort, cfg.Port)
		require.Equal(t, map[string]any{"another_number": 4}, cfg.Settings)
	})

	t.Run("bad port", func(t *testing.T) {
		t.Setenv(ServiceConfigEnv, "")
		var f *ServiceFlags
		withFreshFlagSet(t, []string{"-p", "70000"}, func(fs *pflag.FlagSet) { f = NewServiceFlags(fs) })

		_, err := f.Load()
		require.Error(t, err)
	})
}

func TestFlagTypes(t *testing.T) {
	var d durFlag
	require.Error(t, d.Set("x"))
	require.NoError(t, d.Set("1m"))
	require.True(t, d.set)
	require.Equal(t, "1m0s", d.String())

	var i intFlag
	require.Error(t, i.Set("x"))
	require.NoError(t, i.Set("5"))
	require.Equal(t, "5", i.String())
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug", "stderr")
	require.NoError(t, err)
	require.NotNil(t, logger)

	_, err = NewLogger("loud", "stderr")
	require.Error(t, err)
}
