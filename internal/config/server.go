package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"svgjsx/internal/jsx"
)

const EnvPrefix = "SVGJSX__"

type LogConfig struct {
	Level string `koanf:"level"`
	JSON  bool   `koanf:"json"`
}

type ClipboardConfig struct {
	ResetAfter time.Duration `koanf:"reset_after"`
}

// Server is the process-wide configuration shared by every subcommand.
type Server struct {
	GRPCPort    int             `koanf:"grpc_port"`
	MetricsPort int             `koanf:"metrics_port"`
	Pipeline    string          `koanf:"pipeline"`
	DefaultMode string          `koanf:"default_mode"`
	Log         LogConfig       `koanf:"log"`
	Clipboard   ClipboardConfig `koanf:"clipboard"`
}

// LoadServer merges the YAML file at path (if it exists) with env-vars
// (prefix `SVGJSX__`, delimiter `__`, e.g. SVGJSX__LOG__LEVEL) and fills
// defaults for anything left unset.
func LoadServer(path string) (Server, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil &&
			!errors.Is(err, fs.ErrNotExist) {
			return Server{}, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if sv := k.String("schema_version"); sv != "" && sv != SupportedSchema {
		return Server{}, fmt.Errorf("config schema_version %q not supported (want %q)", sv, SupportedSchema)
	}

	_ = k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil)

	var cfg Server
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, err
	}
	applyServerDefaults(&cfg)
	if _, err := jsx.ParseMode(cfg.DefaultMode); err != nil {
		return cfg, fmt.Errorf("config default_mode: %w", err)
	}
	return cfg, nil
}

// Mode returns the parsed default mode. LoadServer already validated it.
func (s Server) Mode() jsx.Mode {
	m, _ := jsx.ParseMode(s.DefaultMode)
	return m
}

func applyServerDefaults(c *Server) {
	if c.GRPCPort == 0 {
		c.GRPCPort = 7070
	}
	if c.MetricsPort == 0 {
		c.MetricsPort = 9100
	}
	if c.DefaultMode == "" {
		c.DefaultMode = jsx.React.String()
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Clipboard.ResetAfter <= 0 {
		c.Clipboard.ResetAfter = 2 * time.Second
	}
}
