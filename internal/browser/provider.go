package browser

import (
	"context"
	"fmt"
	"sync"

	"JobScraper/pkg/logging"
)

type launchFunc func(ctx context.Context, opts Options) (Session, error)

// Provider lazily launches one browser and hands the same Session to every caller
type Provider struct {
	opts   Options
	log    *logging.Logger
	launch launchFunc

	mu      sync.Mutex
	session Session
}

// NewProvider builds a Provider for opts. Nothing is launched until Session is called.
func NewProvider(opts Options, log *logging.Logger) *Provider {
	if opts.Driver == "" {
		opts.Driver = DriverChrome
	}
	return &Provider{opts: opts, log: log, launch: launcherFor(opts.Driver)}
}

// Session returns the provider's browser, launching it on first use
func (p *Provider) Session(ctx context.Context) (Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session != nil {
		return p.session, nil
	}

	if p.launch == nil {
		return nil, &SessionError{Driver: p.opts.Driver, Err: fmt.Errorf("unsupported driver %q", p.opts.Driver)}
	}

	s, err := p.launch(ctx, p.opts)
	if err != nil {
		return nil, &SessionError{Driver: p.opts.Driver, Err: err}
	}
	p.log.Info("browser launched", "driver", p.opts.Driver, "headless", p.opts.Headless)

	p.session = s
	return s, nil
}

// Close quits the browser if one was launched
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session == nil {
		return nil
	}
	err := p.session.Close()
	p.session = nil
	return err
}

func launcherFor(d Driver) launchFunc {
	switch d {
	case DriverChrome:
		return launchChrome
	case DriverPlaywright:
		return launchPlaywright
	default:
		return nil
	}
}
