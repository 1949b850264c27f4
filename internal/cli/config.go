package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/joey603/surveypro/pkg/core/flow/layout"
)

// defaultConfigFile is picked up from the working directory when no
// --config flag is given.
const defaultConfigFile = "surveypro.toml"

// Config holds the CLI and server configuration, loaded from a TOML
// file. Every field has a working default so a config file is optional.
type Config struct {
	// Listen is the HTTP listen address for the serve command.
	Listen string `toml:"listen"`
	// CacheDir overrides the XDG cache directory for rendered artifacts.
	CacheDir string `toml:"cache_dir"`

	Mongo  MongoConfig  `toml:"mongo"`
	Redis  RedisConfig  `toml:"redis"`
	Layout LayoutConfig `toml:"layout"`
}

// MongoConfig configures the survey store. An empty URI selects the
// in-memory store.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// RedisConfig configures the artifact cache. An empty address selects
// the file cache.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// LayoutConfig overrides the layout spacing. Zero values keep the
// engine defaults.
type LayoutConfig struct {
	BaseGap        float64 `toml:"base_gap"`
	CriticalGap    float64 `toml:"critical_gap"`
	MediaGap       float64 `toml:"media_gap"`
	NestedGap      float64 `toml:"nested_gap"`
	HorizontalUnit float64 `toml:"horizontal_unit"`
	CenterX        float64 `toml:"center_x"`
	TopMargin      float64 `toml:"top_margin"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Listen: ":8080",
		Mongo: MongoConfig{
			Database: "surveypro",
		},
	}
}

// LoadConfig reads a TOML config file. With an empty path it looks for
// surveypro.toml in the working directory and falls back to
// [DefaultConfig] when the file does not exist. An explicit path that
// cannot be read is an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}
	if _, err := os.Stat(path); err != nil {
		if explicit {
			return cfg, fmt.Errorf("config file %s: %w", path, err)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// layoutConfig converts the TOML overrides into an engine config.
func (c Config) layoutConfig() layout.Config {
	return layout.Config{
		BaseGap:        c.Layout.BaseGap,
		CriticalGap:    c.Layout.CriticalGap,
		MediaGap:       c.Layout.MediaGap,
		NestedGap:      c.Layout.NestedGap,
		HorizontalUnit: c.Layout.HorizontalUnit,
		CenterX:        c.Layout.CenterX,
		TopMargin:      c.Layout.TopMargin,
	}
}
