package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the savesync client.
//
// Fields:
//   - ServerEndpointAddr: base URL of the save library server.
//   - DatabasePath: where the local SQLite state lives.
//   - SaveRoot: directory holding per-game save subdirectories.
//   - OnlineCheckInterval: how often background mode probes reachability.
//   - WatchDebounce: quiet period after a save write before a pass starts.
type Config struct {
	ServerEndpointAddr  string
	DatabasePath        string
	SaveRoot            string
	OnlineCheckInterval time.Duration
	WatchDebounce       time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	dataDir := defaultDataDir()
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.DatabasePath = filepath.Join(dataDir, "savesync.db")
	c.SaveRoot = filepath.Join(dataDir, "saves")
	c.OnlineCheckInterval = 3 * time.Second
	c.WatchDebounce = 5 * time.Second
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "savesync")
	}
	return ".savesync"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
