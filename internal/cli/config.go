package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the optional TOML configuration file.
//
//	[log]
//	file = "/var/log/spamdb-curses.log"
//	level = "info"
//
//	[ui]
//	theme = "auto"
//	sort = "key"
//
//	[audit]
//	db = "/var/db/spamdb-audit.sqlite"
//
//	[store]
//	create = false
type Config struct {
	Log   LogConfig   `toml:"log"`
	UI    UIConfig    `toml:"ui"`
	Audit AuditConfig `toml:"audit"`
	Store StoreConfig `toml:"store"`
}

type LogConfig struct {
	File   string `toml:"file"`
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type UIConfig struct {
	Theme string `toml:"theme"`
	Sort  string `toml:"sort"`
}

// AuditConfig enables the change journal when DB is set.
type AuditConfig struct {
	DB string `toml:"db"`
}

type StoreConfig struct {
	Create bool `toml:"create"`
}

func defaultConfig() Config {
	return Config{
		Log: LogConfig{Level: "info", Format: "text"},
		UI:  UIConfig{Theme: "auto", Sort: "key"},
	}
}

// defaultConfigPath is $SPAMDB_CURSES_CONFIG or
// <UserConfigDir>/spamdb-curses/config.toml.
func defaultConfigPath() string {
	if v := envOr("SPAMDB_CURSES_CONFIG", ""); v != "" {
		return v
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "spamdb-curses", "config.toml")
}

// loadConfig reads path over the defaults. A missing file is only an error
// when the path was given explicitly. Unknown keys are returned so the caller
// can warn about them once a logger exists.
func loadConfig(path string, explicit bool) (Config, []string, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return defaultConfig(), nil, nil
		}
		return Config{}, nil, fmt.Errorf("config %s: %w", path, err)
	}

	var unknown []string
	for _, k := range md.Undecoded() {
		unknown = append(unknown, k.String())
	}

	cfg.Log.File = strings.TrimSpace(cfg.Log.File)
	cfg.Audit.DB = strings.TrimSpace(cfg.Audit.DB)
	if err := cfg.validate(); err != nil {
		return Config{}, nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, unknown, nil
}

func (c Config) validate() error {
	switch strings.ToLower(c.UI.Theme) {
	case "", "auto", "light", "dark":
	default:
		return fmt.Errorf("ui.theme: %q is not auto|light|dark", c.UI.Theme)
	}
	switch c.UI.Sort {
	case "", "key", "expiry", "class", "classification":
	default:
		return fmt.Errorf("ui.sort: %q is not key|expiry|classification", c.UI.Sort)
	}
	return nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
