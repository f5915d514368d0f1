// Package browser defines the capability every engine drives the target site through
// and the drivers that implement it.
//
// Engines never touch chromedp or playwright directly: they receive a Session and
// look elements up through Find, which reports absence as an ordinary boolean
// instead of an error.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Driver selects the automation backend
type Driver string

const (
	DriverChrome     Driver = "chrome"
	DriverPlaywright Driver = "playwright"
)

// Fixed viewport shared by every driver
const (
	ViewportWidth  = 1920
	ViewportHeight = 1080
)

// ErrElementNotFound is returned by callers that require an element Find reported absent
var ErrElementNotFound = errors.New("element not found")

// Options configures one browser. Immutable, one per job.
type Options struct {
	Driver    Driver
	UserAgent string
	Headless  bool
}

// Cookie is an opaque credential fragment
type Cookie struct {
	Name   string
	Value  string
	Domain string
	Path   string
}

// Finder looks up elements on a page or below an element
type Finder interface {
	// Find waits up to wait for selector. A missing element is (nil, false, nil).
	Find(ctx context.Context, selector string, wait time.Duration) (Element, bool, error)
}

// Session is the single live browser handle a job owns
type Session interface {
	Finder

	Navigate(ctx context.Context, url string) error
	Reload(ctx context.Context) error
	CurrentURL(ctx context.Context) (string, error)
	// HTML returns the serialized document of the current page
	HTML(ctx context.Context) (string, error)

	// FindByText waits up to wait for the first tag element whose text contains text
	FindByText(ctx context.Context, tag, text string, wait time.Duration) (Element, bool, error)

	Execute(ctx context.Context, script string) error
	Cookies(ctx context.Context) ([]Cookie, error)
	SetCookies(ctx context.Context, cookies []Cookie) error
	Screenshot(ctx context.Context) ([]byte, error)

	Close() error
}

// Element is a node of the current page
type Element interface {
	Finder
	Text(ctx context.Context) (string, error)
	Attribute(ctx context.Context, name string) (string, bool, error)
	Click(ctx context.Context) error
	Fill(ctx context.Context, value string) error
}

// SessionError reports a browser that could not be launched
type SessionError struct {
	Driver Driver
	Err    error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("launch %s browser: %v", e.Driver, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// NavigationError reports a navigation the browser itself refused to complete,
// such as a redirect loop
type NavigationError struct {
	URL    string
	Reason string
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigate %s: %s", e.URL, e.Reason)
}

// MustFind is Find for steps where absence aborts the operation
func MustFind(ctx context.Context, f Finder, selector string, wait time.Duration) (Element, error) {
	el, ok, err := f.Find(ctx, selector, wait)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return el, nil
}

// hardeningArgs are passed to every launched browser
var hardeningArgs = []string{
	"enable-experimental-cookie-features",
	"incognito",
	"no-sandbox",
	"disable-dev-shm-usage",
	"disable-gpu",
	"disable-extensions",
	"disable-renderer-backgrounding",
	"disable-background-timer-throttling",
	"disable-backgrounding-occluded-windows",
	"disable-client-side-phishing-detection",
	"disable-crash-reporter",
	"no-crash-upload",
	"disable-low-res-tiling",
	"silent",
}
