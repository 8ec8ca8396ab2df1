package config

import (
	"os"
	"testing"

	"github.com/charmbracelet/log"
)

func TestSetProductionModeTunesLogLevel(t *testing.T) {
	prevMode := InProductionMode
	prevLevel := log.GetLevel()
	t.Cleanup(func() {
		InProductionMode = prevMode
		log.SetLevel(prevLevel)
	})

	SetProductionMode(true)
	if !InProductionMode {
		t.Fatal("expected InProductionMode to be set")
	}
	if got := log.GetLevel(); got != log.InfoLevel {
		t.Fatalf("production log level = %v, want %v", got, log.InfoLevel)
	}

	SetProductionMode(false)
	if InProductionMode {
		t.Fatal("expected InProductionMode to be cleared")
	}
	if got := log.GetLevel(); got != log.DebugLevel {
		t.Fatalf("development log level = %v, want %v", got, log.DebugLevel)
	}
}

func TestReadSettingsCreatesDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())

	ReadSettings()

	if _, err := os.Stat(settingsFilePath); err != nil {
		t.Fatalf("expected settings file to be created: %v", err)
	}

	cfg := GetConfig()
	if cfg.Resolver.DefaultRegion != "US" {
		t.Fatalf("default region = %q, want %q", cfg.Resolver.DefaultRegion, "US")
	}
	if len(cfg.Regions) == 0 {
		t.Fatal("expected default regions to be loaded")
	}
}
