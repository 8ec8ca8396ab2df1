// Package exitprobe discovers the public identity of a proxy exit from the
// server side, as a fallback for the in-page lookup. It issues the same
// geolocation request the page would, but through the exit proxy directly,
// and can fill a missing country from a local GeoLite2 database.
package exitprobe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/oschwald/geoip2-golang"
	"golang.org/x/net/proxy"
	"golang.org/x/sync/singleflight"

	"linktrace/internal/domain"
)

const defaultProbeTimeout = 15 * time.Second

type Prober struct {
	lookupURL string
	timeout   time.Duration
	group     singleflight.Group
	geo       *geoip2.Reader
}

// New builds a prober for the given lookup endpoint. countryDBPath is
// optional; an absent or unreadable database just disables the GeoLite
// country fill.
func New(lookupURL, countryDBPath string) *Prober {
	p := &Prober{
		lookupURL: lookupURL,
		timeout:   defaultProbeTimeout,
	}

	if countryDBPath != "" {
		reader, err := geoip2.Open(countryDBPath)
		if err != nil {
			log.Debug("GeoLite country database unavailable", "path", countryDBPath, "error", err)
		} else {
			p.geo = reader
		}
	}

	return p
}

// Probe fetches the geolocation endpoint through the exit. Concurrent
// probes of the same exit are deduplicated.
func (p *Prober) Probe(ctx context.Context, exit domain.ExitEndpoint) (*domain.IPInfo, error) {
	v, err, _ := p.group.Do(exit.Host+"|"+exit.Username, func() (interface{}, error) {
		return p.probe(ctx, exit)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.IPInfo), nil
}

func (p *Prober) probe(ctx context.Context, exit domain.ExitEndpoint) (*domain.IPInfo, error) {
	transport, err := buildTransport(exit, p.timeout)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Transport: transport, Timeout: p.timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.lookupURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("probe through exit %s: %w", exit.Region, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("probe through exit %s: status %d", exit.Region, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return nil, err
	}

	var info domain.IPInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("probe response not JSON: %w", err)
	}

	p.fillCountry(&info)
	return &info, nil
}

// fillCountry supplies the country from GeoLite when the lookup service
// reported an IP without one.
func (p *Prober) fillCountry(info *domain.IPInfo) {
	if p.geo == nil || info.CountryCode != "" || info.IP == "" {
		return
	}

	ip := net.ParseIP(info.IP)
	if ip == nil {
		return
	}

	record, err := p.geo.Country(ip)
	if err != nil {
		return
	}
	info.CountryCode = record.Country.IsoCode
	if info.CountryName == "" {
		info.CountryName = record.Country.Names["en"]
	}
}

func buildTransport(exit domain.ExitEndpoint, timeout time.Duration) (*http.Transport, error) {
	transport := &http.Transport{
		DisableKeepAlives:   true,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	proxyURL := exit.ProxyURL()
	switch proxyURL.Scheme {
	case "socks5", "socks4":
		var auth *proxy.Auth
		if exit.Username != "" {
			auth = &proxy.Auth{User: exit.Username, Password: exit.Password}
		}
		dialer, err := proxy.SOCKS5("tcp", proxyURL.Host, auth, &net.Dialer{Timeout: timeout})
		if err != nil {
			return nil, err
		}
		transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	default:
		transport.Proxy = http.ProxyURL(proxyURL)
		transport.DialContext = (&net.Dialer{Timeout: timeout}).DialContext
	}

	return transport, nil
}
