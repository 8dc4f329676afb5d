package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/edmarkov/savesync/internal/flagx"
	"github.com/edmarkov/savesync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "3s"
// or as integer nanoseconds.
type JsonConfig struct {
	ServerEndpointAddr  string         `json:"server_endpoint_addr"`
	DatabasePath        string         `json:"database_path"`
	SaveRoot            string         `json:"save_root"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	WatchDebounce       timex.Duration `json:"watch_debounce"`
}

// parseJson overlays Config with values loaded from a JSON file selected via
// the -c/-config flags (flagx.JsonConfigFlags). Empty JSON fields leave the
// existing value in place. Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.SaveRoot != "" {
		cfg.SaveRoot = jc.SaveRoot
	}
	if jc.OnlineCheckInterval.Duration != 0 {
		cfg.OnlineCheckInterval = time.Duration(jc.OnlineCheckInterval.Duration)
	}
	if jc.WatchDebounce.Duration != 0 {
		cfg.WatchDebounce = time.Duration(jc.WatchDebounce.Duration)
	}
}
