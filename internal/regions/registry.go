package regions

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"linktrace/internal/config"
	"linktrace/internal/domain"
)

// ConfigurationError reports a region whose exit cannot be used: either the
// code is unknown or its configuration is incomplete.
type ConfigurationError struct {
	Region string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("region %q: %s", e.Region, e.Reason)
}

// Registry maps region codes to proxy-exit endpoints. Codes are matched
// case-insensitively. Regions with incomplete configuration are excluded
// from the advertised list at construction time; they never silently route
// through a wrong exit.
type Registry struct {
	exits map[string]domain.ExitEndpoint
}

// NewRegistry resolves each region's shared credential from the environment
// variable the config names. Incomplete regions get one warning each and are
// dropped; the service degrades to fewer regions rather than refusing to
// start.
func NewRegistry(regionConfigs []config.Region) *Registry {
	return newRegistry(regionConfigs, os.Getenv)
}

func newRegistry(regionConfigs []config.Region, lookupEnv func(string) string) *Registry {
	exits := make(map[string]domain.ExitEndpoint, len(regionConfigs))

	for _, rc := range regionConfigs {
		code := strings.ToUpper(strings.TrimSpace(rc.Code))
		if code == "" {
			log.Warn("Skipping region with empty code")
			continue
		}
		if rc.Host == "" {
			log.Warn("Region has no exit host; excluded from advertised regions", "region", code)
			continue
		}

		credential := ""
		if rc.CredentialEnv != "" {
			credential = lookupEnv(rc.CredentialEnv)
		}
		if credential == "" {
			log.Warn("Region has no exit credential; excluded from advertised regions",
				"region", code, "credential_env", rc.CredentialEnv)
			continue
		}

		username, password, _ := strings.Cut(credential, ":")

		exits[code] = domain.ExitEndpoint{
			Region:   code,
			Host:     rc.Host,
			Username: username,
			Password: password,
		}
	}

	return &Registry{exits: exits}
}

// ExitFor returns the exit endpoint for a region code, matched
// case-insensitively.
func (r *Registry) ExitFor(regionCode string) (domain.ExitEndpoint, error) {
	code := strings.ToUpper(strings.TrimSpace(regionCode))

	exit, ok := r.exits[code]
	if !ok {
		return domain.ExitEndpoint{}, &ConfigurationError{Region: regionCode, Reason: "no exit configured"}
	}
	return exit, nil
}

// AdvertisedRegions lists the codes with complete configuration, sorted.
func (r *Registry) AdvertisedRegions() []string {
	codes := make([]string, 0, len(r.exits))
	for code := range r.exits {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
