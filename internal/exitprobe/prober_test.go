package exitprobe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"linktrace/internal/domain"
)

// The test server plays the HTTP proxy role: for plain-http lookups the
// transport sends the absolute URI straight to the proxy.
func TestProbeThroughHTTPExit(t *testing.T) {
	exitProxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.RequestURI, "lookup.example") {
			t.Errorf("proxy received unexpected URI %q", r.RequestURI)
		}
		_ = json.NewEncoder(w).Encode(domain.IPInfo{IP: "5.6.7.8", CountryCode: "DE"})
	}))
	defer exitProxy.Close()

	p := New("http://lookup.example/json/", "")

	info, err := p.Probe(context.Background(), domain.ExitEndpoint{
		Region: "DE",
		Host:   strings.TrimPrefix(exitProxy.URL, "http://"),
	})
	if err != nil {
		t.Fatalf("Probe returned error: %v", err)
	}

	if info.IP != "5.6.7.8" || info.CountryCode != "DE" {
		t.Fatalf("Probe returned %+v", info)
	}
}

func TestProbeNonJSONResponse(t *testing.T) {
	exitProxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>blocked</html>"))
	}))
	defer exitProxy.Close()

	p := New("http://lookup.example/json/", "")

	_, err := p.Probe(context.Background(), domain.ExitEndpoint{
		Region: "US",
		Host:   strings.TrimPrefix(exitProxy.URL, "http://"),
	})
	if err == nil {
		t.Fatal("Probe succeeded on non-JSON response")
	}
}

func TestProbeUpstreamFailure(t *testing.T) {
	exitProxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "denied", http.StatusProxyAuthRequired)
	}))
	defer exitProxy.Close()

	p := New("http://lookup.example/json/", "")

	_, err := p.Probe(context.Background(), domain.ExitEndpoint{
		Region: "US",
		Host:   strings.TrimPrefix(exitProxy.URL, "http://"),
	})
	if err == nil {
		t.Fatal("Probe succeeded against failing exit")
	}
}

func TestMissingGeoLiteDatabaseIsTolerated(t *testing.T) {
	p := New("http://lookup.example/json/", "testdata/does-not-exist.mmdb")
	if p.geo != nil {
		t.Fatal("missing database should disable the GeoLite fill")
	}

	info := &domain.IPInfo{IP: "1.2.3.4"}
	p.fillCountry(info)
	if info.CountryCode != "" {
		t.Fatalf("fillCountry without a database mutated info: %+v", info)
	}
}
