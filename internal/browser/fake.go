package browser

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"linktrace/internal/domain"
)

// FakeScript pins the behavior of every step of a faked session.
type FakeScript struct {
	ConnectErr error
	PageErr    error

	NavigateOutcome StepOutcome
	WaitBodyOutcome StepOutcome

	FinalURL    string
	FinalURLErr error

	EvalResult json.RawMessage
	EvalErr    error
}

// FakeConnector returns scripted sessions keyed by exit region, falling back
// to Default. It records connects and disconnects so tests can assert the
// always-release guarantee.
type FakeConnector struct {
	mu      sync.Mutex
	Default *FakeScript
	Scripts map[string]*FakeScript

	connected    []string
	disconnected []string
}

func (c *FakeConnector) Connect(_ context.Context, exit domain.ExitEndpoint) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	script := c.Default
	if s, ok := c.Scripts[exit.Region]; ok {
		script = s
	}
	if script == nil {
		script = &FakeScript{}
	}
	if script.ConnectErr != nil {
		return nil, script.ConnectErr
	}

	c.connected = append(c.connected, exit.Region)
	return &fakeSession{connector: c, region: exit.Region, script: script}, nil
}

// ConnectedRegions returns the regions a session was opened for, in connect
// order.
func (c *FakeConnector) ConnectedRegions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.connected...)
}

// DisconnectedRegions returns the regions whose session has been released.
func (c *FakeConnector) DisconnectedRegions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.disconnected...)
}

type fakeSession struct {
	connector *FakeConnector
	region    string
	script    *FakeScript
}

func (s *fakeSession) NewPage() (Page, error) {
	if s.script.PageErr != nil {
		return nil, s.script.PageErr
	}
	return &FakePage{script: s.script}, nil
}

func (s *fakeSession) Disconnect() error {
	s.connector.mu.Lock()
	defer s.connector.mu.Unlock()
	s.connector.disconnected = append(s.connector.disconnected, s.region)
	return nil
}

// FakePage replays its script and records what was applied to it.
type FakePage struct {
	script *FakeScript

	AppliedIdentity  *domain.IdentityProfile
	ResourcesBlocked bool
	NavigatedTo      string
}

func (p *FakePage) ApplyIdentity(profile domain.IdentityProfile) error {
	p.AppliedIdentity = &profile
	return nil
}

func (p *FakePage) BlockHeavyResources() error {
	p.ResourcesBlocked = true
	return nil
}

func (p *FakePage) Navigate(url string, _, _ time.Duration) StepOutcome {
	p.NavigatedTo = url
	return p.script.NavigateOutcome
}

func (p *FakePage) WaitBody(_ time.Duration) StepOutcome {
	return p.script.WaitBodyOutcome
}

func (p *FakePage) CurrentURL() (string, error) {
	if p.script.FinalURLErr != nil {
		return "", p.script.FinalURLErr
	}
	return p.script.FinalURL, nil
}

func (p *FakePage) Eval(string) (json.RawMessage, error) {
	if p.script.EvalErr != nil {
		return nil, p.script.EvalErr
	}
	return p.script.EvalResult, nil
}

func (p *FakePage) Close() error { return nil }
