package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func newFlags(t *testing.T, settingsPath string, extra ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	Flags(fs)
	args := append([]string{"--settings", settingsPath}, extra...)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_DecodesSettingsFile(t *testing.T) {
	path := writeSettings(t, `
serv_opt:
  address: 127.0.0.1
  port: 9000
  static_dir: ./ui
vp_opt:
  vp_debug_port: 5005
  vp_trace_port: 5006
gdb_opt:
  gdbgui_port: 5556
  gdbproxy_port: 5557
  gdb_bin: gdb-multiarch
  gdbgui: gdbgui
bin_dir: ./bin
vp_dir: ./vp
gui_vp_kit_dir: /opt/guivp
gui_vp_args: "--extra"
`)
	cfg, _, err := Load(newFlags(t, path))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.ServOpt.Address)
	assert.Equal(t, 9000, cfg.ServOpt.Port)
	assert.Equal(t, 5006, cfg.VPOpt.VPTracePort)
	assert.Equal(t, "/opt/guivp", cfg.GUIVPKitDir)
}

func TestLoad_FlagOverridesSettingsFile(t *testing.T) {
	path := writeSettings(t, "serv_opt:\n  address: 127.0.0.1\n  port: 9000\n")
	cfg, _, err := Load(newFlags(t, path, "--port", "9999"))
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.ServOpt.Port)
}

func TestLoad_DefaultsApplyWhenFieldMissing(t *testing.T) {
	path := writeSettings(t, "bin_dir: ./mybin\n")
	cfg, _, err := Load(newFlags(t, path))
	require.NoError(t, err)
	assert.Equal(t, "./mybin", cfg.BinDir)
	assert.Equal(t, 5005, cfg.VPOpt.VPDebugPort)
}
