package regions

import (
	"errors"
	"testing"

	"linktrace/internal/config"
)

func testEnv(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}

func TestExitForIsCaseInsensitive(t *testing.T) {
	registry := newRegistry([]config.Region{
		{Code: "US", Host: "exit.example.com:9222", CredentialEnv: "CRED_US"},
	}, testEnv(map[string]string{"CRED_US": "user-us:secret"}))

	upper, err := registry.ExitFor("US")
	if err != nil {
		t.Fatalf("ExitFor(US) returned error: %v", err)
	}
	lower, err := registry.ExitFor("us")
	if err != nil {
		t.Fatalf("ExitFor(us) returned error: %v", err)
	}

	if upper != lower {
		t.Fatalf("ExitFor(US) = %+v, ExitFor(us) = %+v, want identical endpoints", upper, lower)
	}
	if upper.Username != "user-us" || upper.Password != "secret" {
		t.Fatalf("credential not split into username/password: %+v", upper)
	}
}

func TestExitForUnknownRegion(t *testing.T) {
	registry := newRegistry(nil, testEnv(nil))

	_, err := registry.ExitFor("ZZ")
	var confErr *ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("ExitFor(ZZ) returned %v, want ConfigurationError", err)
	}
}

func TestIncompleteRegionsAreNotAdvertised(t *testing.T) {
	registry := newRegistry([]config.Region{
		{Code: "US", Host: "exit.example.com:9222", CredentialEnv: "CRED_US"},
		{Code: "GB", Host: "exit.example.com:9222", CredentialEnv: "CRED_GB"}, // env unset
		{Code: "DE", Host: "", CredentialEnv: "CRED_DE"},                      // no host
	}, testEnv(map[string]string{"CRED_US": "u:p", "CRED_DE": "u:p"}))

	advertised := registry.AdvertisedRegions()
	if len(advertised) != 1 || advertised[0] != "US" {
		t.Fatalf("AdvertisedRegions() = %v, want [US]", advertised)
	}

	for _, code := range []string{"GB", "DE"} {
		if _, err := registry.ExitFor(code); err == nil {
			t.Fatalf("ExitFor(%s) succeeded for incomplete region", code)
		}
	}
}

func TestAdvertisedRegionsSorted(t *testing.T) {
	registry := newRegistry([]config.Region{
		{Code: "gb", Host: "h", CredentialEnv: "C"},
		{Code: "AU", Host: "h", CredentialEnv: "C"},
		{Code: "us", Host: "h", CredentialEnv: "C"},
	}, testEnv(map[string]string{"C": "u:p"}))

	advertised := registry.AdvertisedRegions()
	want := []string{"AU", "GB", "US"}
	if len(advertised) != len(want) {
		t.Fatalf("AdvertisedRegions() = %v, want %v", advertised, want)
	}
	for i := range want {
		if advertised[i] != want[i] {
			t.Fatalf("AdvertisedRegions() = %v, want %v", advertised, want)
		}
	}
}
