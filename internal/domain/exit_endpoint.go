package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// ExitEndpoint is the proxy network egress point associated with a region
// code. The remote browser's traffic is routed through it.
type ExitEndpoint struct {
	Region   string
	Host     string
	Username string
	Password string
}

// ControlURL builds the websocket address used to attach to the remote
// scraping browser behind this exit.
func (e ExitEndpoint) ControlURL() string {
	if e.Username == "" {
		return fmt.Sprintf("wss://%s", e.Host)
	}
	return fmt.Sprintf("wss://%s:%s@%s", url.QueryEscape(e.Username), url.QueryEscape(e.Password), e.Host)
}

// ProxyURL returns the endpoint as a proxy URL usable by an HTTP transport
// or a SOCKS dialer. Hosts may carry an explicit scheme; plain host:port
// defaults to http.
func (e ExitEndpoint) ProxyURL() *url.URL {
	host := e.Host
	scheme := "http"
	if i := strings.Index(host, "://"); i >= 0 {
		scheme = host[:i]
		host = host[i+3:]
	}

	u := &url.URL{Scheme: scheme, Host: host}
	if e.Username != "" {
		u.User = url.UserPassword(e.Username, e.Password)
	}
	return u
}
