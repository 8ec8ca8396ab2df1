package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"linktrace/internal/browser"
	"linktrace/internal/domain"
	"linktrace/internal/identity"
	"linktrace/internal/regions"
	"linktrace/internal/stats"
)

const (
	// defaultNavigationTimeout is the overall navigation ceiling when the
	// operator configured none.
	defaultNavigationTimeout = 60 * time.Second

	// establishTimeout bounds the initial navigation/readiness signal.
	// Deliberately shorter than the overall ceiling: redirect chains often
	// finish client-side after the nominal navigation wait expires.
	establishTimeout = 20 * time.Second

	// bodyWaitTimeout is generous on purpose, to ride out slow
	// client-side redirect chains.
	bodyWaitTimeout = 120 * time.Second
)

// ExitProber is the server-side fallback for discovering the exit node's
// public identity when the in-page probe fails or lacks a country.
type ExitProber interface {
	Probe(ctx context.Context, exit domain.ExitEndpoint) (*domain.IPInfo, error)
}

// Resolver drives region-aware URL resolutions through remote browser
// sessions.
type Resolver struct {
	Registry  *regions.Registry
	Identity  *identity.Selector
	Connector browser.Connector
	Stats     *stats.Aggregator

	// Probe is optional best-effort telemetry; nil disables the fallback.
	Probe ExitProber

	// DefaultRegion is used when a request omits the region.
	DefaultRegion string

	// NavigationTimeout overrides the overall navigation ceiling when
	// positive.
	NavigationTimeout time.Duration

	// IPLookupURL is the third-party geolocation endpoint fetched from
	// inside the page.
	IPLookupURL string
}

// ResolveResult is the full product of a single-region resolution.
type ResolveResult struct {
	Region     string
	Profile    domain.IdentityProfile
	Outcome    domain.ResolutionOutcome
	Reconciled ReconcileResult
}

// Resolve runs one resolution end to end: validate, select identity, drive
// the session, reconcile the exit region and record stats exactly once.
func (r *Resolver) Resolve(ctx context.Context, inputURL, region, identityPreference string) (ResolveResult, error) {
	if err := validateInputURL(inputURL); err != nil {
		return ResolveResult{}, err
	}

	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = strings.ToUpper(r.DefaultRegion)
	}

	exit, err := r.Registry.ExitFor(region)
	if err != nil {
		return ResolveResult{}, err
	}

	profile := r.Identity.Select(identityPreference)
	outcome := r.resolveSession(ctx, inputURL, exit, profile)
	r.recordOutcome(inputURL, region, outcome)

	return ResolveResult{
		Region:     region,
		Profile:    profile,
		Outcome:    outcome,
		Reconciled: Reconcile(region, outcome.ExitIPInfo),
	}, nil
}

// resolveSession is the per-session state machine: connect, configure,
// navigate bounded, wait for the body, extract the final URL, probe the
// exit identity, disconnect. Navigation and body-wait timeouts are
// tolerated; extraction proceeds on whatever page state exists. Any
// unanticipated panic drives the session to a failed outcome instead of
// escaping. Elapsed time covers the whole session, tolerated timeouts
// included.
func (r *Resolver) resolveSession(ctx context.Context, inputURL string, exit domain.ExitEndpoint, profile domain.IdentityProfile) (out domain.ResolutionOutcome) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("resolution session panic", "region", exit.Region, "panic", rec)
			out = domain.ResolutionOutcome{Error: fmt.Sprintf("session failure: %v", rec)}
		}
		out.ElapsedMillis = time.Since(start).Milliseconds()
	}()

	session, err := r.Connector.Connect(ctx, exit)
	if err != nil {
		return domain.ResolutionOutcome{Error: (&ConnectError{Err: err}).Error()}
	}
	defer func() {
		if err := session.Disconnect(); err != nil {
			log.Warn("disconnect remote session", "region", exit.Region, "error", err)
		}
	}()

	page, err := session.NewPage()
	if err != nil {
		return domain.ResolutionOutcome{Error: "open page: " + err.Error()}
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Debug("close page", "region", exit.Region, "error", err)
		}
	}()

	if err := page.BlockHeavyResources(); err != nil {
		return domain.ResolutionOutcome{Error: "configure interception: " + err.Error()}
	}
	if err := page.ApplyIdentity(profile); err != nil {
		return domain.ResolutionOutcome{Error: "apply identity: " + err.Error()}
	}

	nav := page.Navigate(inputURL, establishTimeout, r.navigationTimeout())
	switch nav.Status {
	case browser.StepTimedOut:
		log.Debug("navigation timed out, attempting extraction anyway", "url", inputURL, "region", exit.Region)
	case browser.StepErrored:
		log.Debug("navigation error tolerated", "url", inputURL, "region", exit.Region, "error", nav.Err)
	}

	if wait := page.WaitBody(bodyWaitTimeout); !wait.Ok() {
		log.Debug("body wait incomplete, attempting extraction anyway", "url", inputURL, "region", exit.Region, "error", wait.Err)
	}

	finalURL, err := page.CurrentURL()
	if err != nil {
		return domain.ResolutionOutcome{Error: "read final url: " + err.Error()}
	}

	return domain.ResolutionOutcome{
		FinalURL:   finalURL,
		ExitIPInfo: r.probeExitIdentity(ctx, page, exit),
	}
}

// probeExitIdentity fetches the geolocation endpoint from inside the page.
// The in-page probe sees the network exactly as the navigation did; the
// server-side prober only backs it up. Every failure degrades to a sentinel
// payload, never to a session failure.
func (r *Resolver) probeExitIdentity(ctx context.Context, page browser.Page, exit domain.ExitEndpoint) *domain.IPInfo {
	info, err := r.probeInPage(page)
	if err != nil {
		log.Debug("in-page IP lookup failed", "region", exit.Region, "error", err)
		if fallback := r.probeFallback(ctx, exit); fallback != nil {
			return fallback
		}
		return &domain.IPInfo{Error: "IP lookup failed"}
	}

	if info.CountryCode == "" {
		if fallback := r.probeFallback(ctx, exit); fallback != nil && fallback.CountryCode != "" {
			return fallback
		}
	}
	return info
}

func (r *Resolver) probeInPage(page browser.Page) (*domain.IPInfo, error) {
	js := fmt.Sprintf(`async () => {
		const res = await fetch(%q);
		return await res.json();
	}`, r.IPLookupURL)

	raw, err := page.Eval(js)
	if err != nil {
		return nil, err
	}

	var info domain.IPInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (r *Resolver) probeFallback(ctx context.Context, exit domain.ExitEndpoint) *domain.IPInfo {
	if r.Probe == nil {
		return nil
	}
	info, err := r.Probe.Probe(ctx, exit)
	if err != nil {
		log.Debug("exit probe fallback failed", "region", exit.Region, "error", err)
		return nil
	}
	return info
}

func (r *Resolver) recordOutcome(inputURL, region string, outcome domain.ResolutionOutcome) {
	if r.Stats == nil {
		return
	}
	r.Stats.Record(region, inputURL, outcome)
	if err := r.Stats.RecordTiming(time.Now(), inputURL, outcome.ElapsedMillis); err != nil {
		log.Warn("record timing sample", "url", inputURL, "error", err)
	}
}

func (r *Resolver) navigationTimeout() time.Duration {
	if r.NavigationTimeout > 0 {
		return r.NavigationTimeout
	}
	return defaultNavigationTimeout
}

func validateInputURL(inputURL string) error {
	if strings.TrimSpace(inputURL) == "" {
		return fmt.Errorf("%w: url is required", ErrBadRequest)
	}

	parsed, err := url.Parse(inputURL)
	if err != nil || !parsed.IsAbs() || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("%w: url must be absolute with an http(s) scheme", ErrBadRequest)
	}
	return nil
}
