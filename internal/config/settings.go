package config

import (
	_ "embed"
	"encoding/json"
	"os"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

type Config struct {
	Resolver struct {
		// DefaultRegion is used when a request omits the region parameter.
		DefaultRegion string `json:"default_region"`
		// NavigationTimeout is the overall navigation ceiling in
		// milliseconds. Zero means the built-in default.
		NavigationTimeout uint32 `json:"navigation_timeout"`
		// IPLookup is the third-party geolocation endpoint probed from
		// inside the page after navigation.
		IPLookup string `json:"ip_lookup"`
	} `json:"resolver"`

	Regions []Region `json:"regions"`

	Stats struct {
		TimingLogPath string `json:"timing_log_path"`
	} `json:"stats"`

	ZoneUsage struct {
		BaseURL     string `json:"base_url"`
		Zone        string `json:"zone"`
		APITokenEnv string `json:"api_token_env"`
	} `json:"zone_usage"`

	GeoLite struct {
		CountryDBPath string `json:"country_db_path"`
	} `json:"geolite"`
}

// Region maps a region code to its proxy-exit connection parameters. The
// shared credential is resolved from the environment variable named by
// CredentialEnv, so secrets never live in the settings file.
type Region struct {
	Code          string `json:"code"`
	Host          string `json:"host"`
	CredentialEnv string `json:"credential_env"`
}

const settingsFilePath = "data/settings.json"

var (
	//go:embed default_settings.json
	defaultConfig []byte

	configValue atomic.Value

	InProductionMode bool
)

func init() {
	configValue.Store(Config{})
}

func ReadSettings() {
	data, err := os.ReadFile(settingsFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Settings file not found, creating with default configuration")

			err = os.MkdirAll("data", os.ModePerm)
			if err != nil {
				log.Error("Error creating directory for settings file:", err)
				return
			}

			err = os.WriteFile(settingsFilePath, defaultConfig, os.ModePerm)
			if err != nil {
				log.Error("Error writing default settings file:", err)
				return
			}

			data = defaultConfig
		} else {
			log.Error("Error reading settings file:", err)
			return
		}
	}

	var newConfig Config
	err = json.Unmarshal(data, &newConfig)
	if err != nil {
		log.Error("Error unmarshalling settings file:", err)
		return
	}

	configValue.Store(newConfig)
	log.Debug("Settings file loaded successfully")
}

func GetConfig() Config {
	return configValue.Load().(Config)
}

// SetProductionMode records the run mode and tunes log verbosity to match:
// production runs keep the log at info level, everything else stays at debug.
func SetProductionMode(productionMode bool) {
	InProductionMode = productionMode

	if productionMode {
		log.SetLevel(log.InfoLevel)
	} else {
		log.SetLevel(log.DebugLevel)
	}
}
