package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent reel configuration stored as config.toml
// in the .reel/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version int           `toml:"version"`
	Forge   ForgeConfig   `toml:"forge"`
	API     APIConfig     `toml:"api"`
	Storage StorageConfig `toml:"storage"`
	Viewer  ViewerConfig  `toml:"viewer"`
}

// ForgeConfig holds settings for the forge the run details and artifacts
// are fetched from.
type ForgeConfig struct {
	// Token is the API token. Usually supplied via REEL_FORGE_TOKEN rather
	// than the config file.
	Token string `toml:"token,omitempty"`

	// BaseURL is the forge API root, overridable for enterprise hosts.
	BaseURL string `toml:"base_url,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// StorageConfig holds local storage settings.
type StorageConfig struct {
	SQLitePath string `toml:"sqlite_path,omitempty"`
}

// ViewerConfig holds settings for the view command.
type ViewerConfig struct {
	// Port is the local port the --web viewer binds to.
	Port uint `toml:"port,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"forge.token": {
		get: func(c *Config) string { return c.Forge.Token },
		set: func(c *Config, v string) error { c.Forge.Token = v; return nil },
	},
	"forge.base_url": {
		get: func(c *Config) string { return c.Forge.BaseURL },
		set: func(c *Config, v string) error { c.Forge.BaseURL = v; return nil },
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"viewer.port": {
		get: func(c *Config) string {
			if c.Viewer.Port == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Viewer.Port), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 16)
			if err != nil {
				return fmt.Errorf("invalid value for viewer.port: %w", err)
			}
			c.Viewer.Port = uint(n)
			return nil
		},
	},
}
