// Package config loads the settings record described in spec.md §6 (an
// external collaborator): server address/port/static dir, VP debug/trace
// ports, GDB helper options, and the binary/VP/project directories.
//
// Grounded on the teacher's go.mod stack for this concern (viper + pflag +
// fsnotify is the teacher's own dependency set, though the teacher ships no
// config package in the retrieval pack to copy a file from) and on
// PLS/src/options.rs's Options record shape for field naming.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ServerOptions is serv_opt.
type ServerOptions struct {
	Address   string `mapstructure:"address"`
	Port      int    `mapstructure:"port"`
	StaticDir string `mapstructure:"static_dir"`
}

// VPOptions is vp_opt.
type VPOptions struct {
	VPDebugPort int `mapstructure:"vp_debug_port"`
	VPTracePort int `mapstructure:"vp_trace_port"`
}

// GDBOptions is gdb_opt.
type GDBOptions struct {
	GDBGuiPort   int    `mapstructure:"gdbgui_port"`
	GDBProxyPort int    `mapstructure:"gdbproxy_port"`
	GDBBin       string `mapstructure:"gdb_bin"`
	GDBGui       string `mapstructure:"gdbgui"`
}

// Config is the full settings record (§6).
type Config struct {
	ServOpt     ServerOptions `mapstructure:"serv_opt"`
	VPOpt       VPOptions     `mapstructure:"vp_opt"`
	GDBOpt      GDBOptions    `mapstructure:"gdb_opt"`
	BinDir      string        `mapstructure:"bin_dir"`
	VPDir       string        `mapstructure:"vp_dir"`
	GUIVPKitDir string        `mapstructure:"gui_vp_kit_dir"`
	GUIVPArgs   string        `mapstructure:"gui_vp_args"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("serv_opt.address", "0.0.0.0")
	v.SetDefault("serv_opt.port", 8080)
	v.SetDefault("serv_opt.static_dir", "./static")
	v.SetDefault("vp_opt.vp_debug_port", 5005)
	v.SetDefault("vp_opt.vp_trace_port", 5006)
	v.SetDefault("gdb_opt.gdbgui_port", 5556)
	v.SetDefault("gdb_opt.gdbproxy_port", 5557)
	v.SetDefault("gdb_opt.gdb_bin", "gdb-multiarch")
	v.SetDefault("gdb_opt.gdbgui", "gdbgui")
	v.SetDefault("bin_dir", "./bin")
	v.SetDefault("vp_dir", "./vp")
}

// Flags registers the CLI overrides mirrored onto viper keys.
func Flags(fs *pflag.FlagSet) {
	fs.String("settings", "settings.yaml", "path to the settings file")
	fs.String("address", "", "override serv_opt.address")
	fs.Int("port", 0, "override serv_opt.port")
	fs.String("bin-dir", "", "override bin_dir")
	fs.String("vp-dir", "", "override vp_dir")
}

// Load reads the settings file named by --settings, applies environment and
// flag overrides, and returns the decoded Config.
func Load(fs *pflag.FlagSet) (*Config, *viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	settingsPath, err := fs.GetString("settings")
	if err != nil {
		return nil, nil, fmt.Errorf("config: missing --settings flag: %w", err)
	}
	v.SetConfigFile(settingsPath)

	v.SetEnvPrefix("VPBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlag("serv_opt.address", fs.Lookup("address")); err != nil {
		return nil, nil, err
	}
	if err := v.BindPFlag("serv_opt.port", fs.Lookup("port")); err != nil {
		return nil, nil, err
	}
	if err := v.BindPFlag("bin_dir", fs.Lookup("bin-dir")); err != nil {
		return nil, nil, err
	}
	if err := v.BindPFlag("vp_dir", fs.Lookup("vp-dir")); err != nil {
		return nil, nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("config: reading %s: %w", settingsPath, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("config: decoding settings: %w", err)
	}
	return &cfg, v, nil
}

// Watch decodes the settings afresh whenever the settings file changes on
// disk, calling onChange with the freshly decoded Config. fsnotify is driven
// internally by viper.WatchConfig; this wrapper exists so callers get a
// typed Config rather than viper's untyped change event.
func Watch(v *viper.Viper, log *slog.Logger, onChange func(*Config)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		var cfg Config
		if err := v.Unmarshal(&cfg); err != nil {
			log.Warn("config: reload failed, keeping previous settings", "error", err)
			return
		}
		log.Info("config: reloaded", "file", e.Name)
		onChange(&cfg)
	})
	v.WatchConfig()
}
