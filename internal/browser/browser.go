// Package browser abstracts the remote scraping-browser capability: attach
// to a controllable browser behind a given network exit, drive one page
// through a navigation, and read its state. The production implementation
// speaks CDP via rod; tests swap in a scripted fake.
package browser

import (
	"context"
	"encoding/json"
	"time"

	"linktrace/internal/domain"
)

// StepStatus classifies the result of a bounded page-level wait. Timeouts
// are first-class outcomes rather than errors because the resolution flow
// tolerates them and continues.
type StepStatus int

const (
	StepOk StepStatus = iota
	StepTimedOut
	StepErrored
)

// StepOutcome is the inspectable result of a navigation or wait step.
type StepOutcome struct {
	Status StepStatus
	Err    error
}

func (o StepOutcome) Ok() bool       { return o.Status == StepOk }
func (o StepOutcome) TimedOut() bool { return o.Status == StepTimedOut }

// Connector acquires a remote browser session routed through an exit
// endpoint.
type Connector interface {
	Connect(ctx context.Context, exit domain.ExitEndpoint) (Session, error)
}

// Session is one remote browser connection. Disconnect releases the
// connection; it must be called on every path out of a resolution.
type Session interface {
	NewPage() (Page, error)
	Disconnect() error
}

// Page drives a single tab.
type Page interface {
	// ApplyIdentity installs the user agent, viewport and touch posture.
	ApplyIdentity(profile domain.IdentityProfile) error

	// BlockHeavyResources installs request interception that aborts
	// image, stylesheet, font, media and other-typed requests; documents,
	// scripts and fetch/XHR traffic proceed.
	BlockHeavyResources() error

	// Navigate drives the page to url. The establish timeout bounds the
	// initial navigation/readiness signal; the overall timeout bounds the
	// load wait that follows.
	Navigate(url string, establish, overall time.Duration) StepOutcome

	// WaitBody waits until the document body exists.
	WaitBody(timeout time.Duration) StepOutcome

	// CurrentURL reports the page's present address.
	CurrentURL() (string, error)

	// Eval runs a script in the page and returns its JSON-encoded result.
	// Promises are awaited.
	Eval(js string) (json.RawMessage, error)

	Close() error
}
