package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"linktrace/internal/domain"
)

// RodConnector attaches to a remote scraping browser over its websocket
// control URL. Credentials and the region-specific exit are both encoded in
// the endpoint; the remote service owns the browser process lifetime.
type RodConnector struct{}

func NewRodConnector() *RodConnector {
	return &RodConnector{}
}

func (c *RodConnector) Connect(ctx context.Context, exit domain.ExitEndpoint) (Session, error) {
	b := rod.New().ControlURL(exit.ControlURL()).Context(ctx)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect remote browser for region %s: %w", exit.Region, err)
	}
	return &rodSession{browser: b}, nil
}

type rodSession struct {
	browser *rod.Browser
}

func (s *rodSession) NewPage() (Page, error) {
	p, err := stealth.Page(s.browser)
	if err != nil {
		return nil, fmt.Errorf("stealth page: %w", err)
	}
	return &rodPage{page: p}, nil
}

// Disconnect closes this remote session. The hosting service allocates one
// browser per control connection, so the close only tears down our session
// and releases its exit slot; the service itself keeps running.
func (s *rodSession) Disconnect() error {
	return s.browser.Close()
}

type rodPage struct {
	page   *rod.Page
	router *rod.HijackRouter
}

var blockedResourceTypes = map[proto.NetworkResourceType]bool{
	proto.NetworkResourceTypeImage:      true,
	proto.NetworkResourceTypeStylesheet: true,
	proto.NetworkResourceTypeFont:       true,
	proto.NetworkResourceTypeMedia:      true,
	proto.NetworkResourceTypeOther:      true,
}

func (p *rodPage) BlockHeavyResources() error {
	router := p.page.HijackRequests()
	err := router.Add("*", "", func(h *rod.Hijack) {
		if blockedResourceTypes[h.Request.Type()] {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	if err != nil {
		return fmt.Errorf("install resource interception: %w", err)
	}

	go router.Run()
	p.router = router
	return nil
}

func (p *rodPage) ApplyIdentity(profile domain.IdentityProfile) error {
	err := p.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent: profile.UserAgent,
	})
	if err != nil {
		return fmt.Errorf("set user agent: %w", err)
	}

	err = p.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             profile.ViewportWidth,
		Height:            profile.ViewportHeight,
		DeviceScaleFactor: profile.DeviceScaleFactor,
		Mobile:            profile.IsMobile,
	})
	if err != nil {
		return fmt.Errorf("set viewport: %w", err)
	}

	if profile.HasTouch {
		maxTouchPoints := 5
		err = proto.EmulationSetTouchEmulationEnabled{
			Enabled:        true,
			MaxTouchPoints: &maxTouchPoints,
		}.Call(p.page)
		if err != nil {
			return fmt.Errorf("enable touch emulation: %w", err)
		}
	}

	return nil
}

func (p *rodPage) Navigate(url string, establish, overall time.Duration) StepOutcome {
	if err := p.page.Timeout(establish).Navigate(url); err != nil {
		return classifyStep(err)
	}
	if err := p.page.Timeout(overall).WaitLoad(); err != nil {
		return classifyStep(err)
	}
	return StepOutcome{Status: StepOk}
}

func (p *rodPage) WaitBody(timeout time.Duration) StepOutcome {
	if _, err := p.page.Timeout(timeout).Element("body"); err != nil {
		return classifyStep(err)
	}
	return StepOutcome{Status: StepOk}
}

func (p *rodPage) CurrentURL() (string, error) {
	info, err := p.page.Info()
	if err != nil {
		return "", fmt.Errorf("page info: %w", err)
	}
	return info.URL, nil
}

func (p *rodPage) Eval(js string) (json.RawMessage, error) {
	res, err := p.page.Eval(js)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(res.Value.Val())
	if err != nil {
		return nil, fmt.Errorf("encode eval result: %w", err)
	}
	return raw, nil
}

func (p *rodPage) Close() error {
	if p.router != nil {
		_ = p.router.Stop()
	}
	return p.page.Close()
}

func classifyStep(err error) StepOutcome {
	if errors.Is(err, context.DeadlineExceeded) {
		return StepOutcome{Status: StepTimedOut, Err: err}
	}
	return StepOutcome{Status: StepErrored, Err: err}
}
