package app

import (
	"flag"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"linktrace/internal/activity"
	"linktrace/internal/app/server"
	"linktrace/internal/browser"
	"linktrace/internal/config"
	"linktrace/internal/exitprobe"
	"linktrace/internal/identity"
	"linktrace/internal/regions"
	"linktrace/internal/resolver"
	"linktrace/internal/stats"
	"linktrace/internal/zoneusage"
)

const defaultPort = 8082

func Run() error {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found. Falling back to system environment variables.")
	}

	portFlag := flag.Int("port", defaultPort, "Port for API server")
	productionFlag := flag.Bool("production", false, "Run in production mode")
	flag.Parse()

	config.SetProductionMode(*productionFlag)

	port := resolvePort("PORT", *portFlag)

	config.ReadSettings()
	cfg := config.GetConfig()

	registry := regions.NewRegistry(cfg.Regions)
	log.Info("Region registry ready", "advertised", registry.AdvertisedRegions())

	aggregator := stats.New(cfg.Stats.TimingLogPath)
	aggregator.StartDailyReset()

	recorder := buildActivityRecorder()
	defer func() {
		if err := recorder.Close(); err != nil {
			log.Debug("close activity recorder", "error", err)
		}
	}()

	res := &resolver.Resolver{
		Registry:          registry,
		Identity:          identity.NewSelector(rand.NewSource(time.Now().UnixNano())),
		Connector:         browser.NewRodConnector(),
		Stats:             aggregator,
		Probe:             exitprobe.New(cfg.Resolver.IPLookup, cfg.GeoLite.CountryDBPath),
		DefaultRegion:     cfg.Resolver.DefaultRegion,
		NavigationTimeout: time.Duration(cfg.Resolver.NavigationTimeout) * time.Millisecond,
		IPLookupURL:       cfg.Resolver.IPLookup,
	}

	zone := zoneusage.NewClient(cfg.ZoneUsage.BaseURL, cfg.ZoneUsage.Zone, os.Getenv(cfg.ZoneUsage.APITokenEnv))

	srv := &server.Server{
		Resolver:  res,
		Registry:  registry,
		Stats:     aggregator,
		ZoneUsage: zone,
		Activity:  recorder,
	}

	return srv.OpenRoutes(port)
}

func buildActivityRecorder() activity.Recorder {
	redisURL := os.Getenv("redisUrl")
	if redisURL == "" {
		log.Debug("No redis configured; activity recording disabled")
		return activity.Noop{}
	}

	recorder, err := activity.NewRedisRecorder(redisURL)
	if err != nil {
		log.Warn("Activity recorder unavailable", "error", err)
		return activity.Noop{}
	}
	return recorder
}

func resolvePort(envKey string, fallback int) int {
	raw := os.Getenv(envKey)
	if raw == "" {
		return fallback
	}

	port, err := strconv.Atoi(raw)
	if err != nil || port == 0 {
		log.Warn("invalid port override", "env", envKey, "value", raw)
		return fallback
	}
	return port
}
