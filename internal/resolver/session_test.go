package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"path/filepath"
	"testing"

	"linktrace/internal/browser"
	"linktrace/internal/config"
	"linktrace/internal/domain"
	"linktrace/internal/identity"
	"linktrace/internal/regions"
	"linktrace/internal/stats"
)

func testRegistry(t *testing.T, codes ...string) *regions.Registry {
	t.Helper()
	t.Setenv("TEST_EXIT_CREDENTIAL", "user:pass")

	regionConfigs := make([]config.Region, 0, len(codes))
	for _, code := range codes {
		regionConfigs = append(regionConfigs, config.Region{
			Code:          code,
			Host:          "exit.example.com:9222",
			CredentialEnv: "TEST_EXIT_CREDENTIAL",
		})
	}
	return regions.NewRegistry(regionConfigs)
}

func testResolver(t *testing.T, connector browser.Connector, codes ...string) *Resolver {
	t.Helper()
	return &Resolver{
		Registry:      testRegistry(t, codes...),
		Identity:      identity.NewSelector(rand.NewSource(1)),
		Connector:     connector,
		Stats:         stats.New(filepath.Join(t.TempDir(), "timing.json")),
		DefaultRegion: "US",
		IPLookupURL:   "https://lookup.example/json/",
	}
}

func TestResolveSuccess(t *testing.T) {
	connector := &browser.FakeConnector{
		Default: &browser.FakeScript{
			FinalURL:   "https://shop.example/?clickid=123",
			EvalResult: json.RawMessage(`{"ip":"1.2.3.4","country_code":"US","country_name":"United States"}`),
		},
	}
	r := testResolver(t, connector, "US")

	result, err := r.Resolve(context.Background(), "https://track.example/offer", "us", "desktop")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if !result.Outcome.Succeeded() {
		t.Fatalf("outcome not successful: %+v", result.Outcome)
	}
	if result.Outcome.FinalURL != "https://shop.example/?clickid=123" {
		t.Fatalf("FinalURL = %q", result.Outcome.FinalURL)
	}
	if result.Region != "US" {
		t.Fatalf("Region = %q, want US", result.Region)
	}
	if !result.Reconciled.Matched || result.Reconciled.ActualRegion != "US" {
		t.Fatalf("Reconciled = %+v, want matched US", result.Reconciled)
	}

	snap := r.Stats.Snapshot()
	if snap.SuccessCount != 1 || snap.PerRegion["US"].SuccessCount != 1 {
		t.Fatalf("stats not recorded: %+v", snap)
	}

	if got := connector.DisconnectedRegions(); len(got) != 1 {
		t.Fatalf("session not released, disconnects = %v", got)
	}
}

func TestResolveRejectsBadInput(t *testing.T) {
	r := testResolver(t, &browser.FakeConnector{}, "US")

	for _, bad := range []string{"", "   ", "not-a-url", "ftp://files.example/x"} {
		if _, err := r.Resolve(context.Background(), bad, "US", ""); !errors.Is(err, ErrBadRequest) {
			t.Fatalf("Resolve(%q) returned %v, want ErrBadRequest", bad, err)
		}
	}

	// No session may start for rejected input.
	connector := r.Connector.(*browser.FakeConnector)
	if got := connector.ConnectedRegions(); len(got) != 0 {
		t.Fatalf("sessions started for invalid input: %v", got)
	}
}

func TestResolveUnknownRegion(t *testing.T) {
	r := testResolver(t, &browser.FakeConnector{}, "US")

	_, err := r.Resolve(context.Background(), "https://track.example/offer", "ZZ", "")
	var confErr *regions.ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("Resolve with unknown region returned %v, want ConfigurationError", err)
	}
}

func TestConnectFailureIsCountedFailure(t *testing.T) {
	connector := &browser.FakeConnector{
		Default: &browser.FakeScript{ConnectErr: errors.New("bad credentials")},
	}
	r := testResolver(t, connector, "US")

	result, err := r.Resolve(context.Background(), "https://track.example/offer", "US", "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if result.Outcome.Succeeded() {
		t.Fatalf("connect failure produced success: %+v", result.Outcome)
	}
	if result.Outcome.FinalURL != "" {
		t.Fatalf("failed outcome carries final url: %+v", result.Outcome)
	}

	snap := r.Stats.Snapshot()
	if snap.FailureCount != 1 || snap.PerRegion["US"].FailureCount != 1 {
		t.Fatalf("failure not counted: %+v", snap)
	}
	if len(snap.FailedURLs) != 1 || snap.FailedURLs[0].URL != "https://track.example/offer" {
		t.Fatalf("failed-URL ledger = %+v", snap.FailedURLs)
	}
}

func TestNavigationTimeoutDoesNotAbortExtraction(t *testing.T) {
	connector := &browser.FakeConnector{
		Default: &browser.FakeScript{
			NavigateOutcome: browser.StepOutcome{Status: browser.StepTimedOut, Err: context.DeadlineExceeded},
			WaitBodyOutcome: browser.StepOutcome{Status: browser.StepTimedOut, Err: context.DeadlineExceeded},
			FinalURL:        "https://shop.example/landed",
			EvalResult:      json.RawMessage(`{"ip":"1.2.3.4","country_code":"US"}`),
		},
	}
	r := testResolver(t, connector, "US")

	result, err := r.Resolve(context.Background(), "https://track.example/offer", "US", "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if !result.Outcome.Succeeded() {
		t.Fatalf("timed-out navigation aborted extraction: %+v", result.Outcome)
	}
	if result.Outcome.FinalURL != "https://shop.example/landed" {
		t.Fatalf("FinalURL = %q", result.Outcome.FinalURL)
	}
}

func TestMissingFinalURLIsFailureWithoutError(t *testing.T) {
	connector := &browser.FakeConnector{
		Default: &browser.FakeScript{
			FinalURL:   "",
			EvalResult: json.RawMessage(`{"ip":"1.2.3.4"}`),
		},
	}
	r := testResolver(t, connector, "US")

	result, err := r.Resolve(context.Background(), "https://track.example/offer", "US", "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if result.Outcome.Succeeded() {
		t.Fatalf("empty final url classified as success")
	}
	if snap := r.Stats.Snapshot(); snap.FailureCount != 1 {
		t.Fatalf("absent final url not counted as failure: %+v", snap)
	}
}

func TestProbeFailureDegradesToSentinel(t *testing.T) {
	connector := &browser.FakeConnector{
		Default: &browser.FakeScript{
			FinalURL: "https://shop.example/",
			EvalErr:  errors.New("fetch refused"),
		},
	}
	r := testResolver(t, connector, "US")

	result, err := r.Resolve(context.Background(), "https://track.example/offer", "US", "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if !result.Outcome.Succeeded() {
		t.Fatalf("probe failure aborted the session: %+v", result.Outcome)
	}
	if result.Outcome.ExitIPInfo == nil || result.Outcome.ExitIPInfo.Error != "IP lookup failed" {
		t.Fatalf("ExitIPInfo = %+v, want sentinel lookup failure", result.Outcome.ExitIPInfo)
	}
	if result.Reconciled.ActualRegion != UnknownRegion {
		t.Fatalf("ActualRegion = %q, want %q", result.Reconciled.ActualRegion, UnknownRegion)
	}
}

type stubProber struct {
	info *domain.IPInfo
	err  error
}

func (s *stubProber) Probe(context.Context, domain.ExitEndpoint) (*domain.IPInfo, error) {
	return s.info, s.err
}

func TestProbeFallbackFillsMissingCountry(t *testing.T) {
	connector := &browser.FakeConnector{
		Default: &browser.FakeScript{
			FinalURL:   "https://shop.example/",
			EvalResult: json.RawMessage(`{"ip":"1.2.3.4"}`),
		},
	}
	r := testResolver(t, connector, "US")
	r.Probe = &stubProber{info: &domain.IPInfo{IP: "1.2.3.4", CountryCode: "US"}}

	result, err := r.Resolve(context.Background(), "https://track.example/offer", "US", "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if !result.Reconciled.Matched {
		t.Fatalf("fallback country not used for reconciliation: %+v", result.Reconciled)
	}
}

func TestFinalURLReadFailureFailsSession(t *testing.T) {
	connector := &browser.FakeConnector{
		Default: &browser.FakeScript{
			FinalURLErr: errors.New("target crashed"),
		},
	}
	r := testResolver(t, connector, "US")

	result, err := r.Resolve(context.Background(), "https://track.example/offer", "US", "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if result.Outcome.Succeeded() || result.Outcome.Error == "" {
		t.Fatalf("final-url read failure not surfaced: %+v", result.Outcome)
	}
	if got := connector.DisconnectedRegions(); len(got) != 1 {
		t.Fatalf("session not released after extraction failure: %v", got)
	}
}
