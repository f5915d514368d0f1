// Package authorizer turns a fresh browser Session into a validated one, either
// anonymous or logged in through injected cookies.
package authorizer

import (
	"context"
	"fmt"
	"net/url"

	"JobScraper/internal/browser"
	"JobScraper/internal/domain"
	"JobScraper/internal/site"
	"JobScraper/pkg/logging"
)

// Authorizer prepares s so an engine can use it
type Authorizer interface {
	Authorize(ctx context.Context, s browser.Session) error
}

// For picks the strategy a job needs
func For(job domain.Job, st *site.Site, log *logging.Logger) Authorizer {
	if job.Dashboard == domain.DashboardOther {
		return &Passthrough{log: log}
	}
	if job.AuthorizedUser {
		return &Authenticated{site: st, cookies: job.Cookies(), log: log}
	}
	return &Anonymous{site: st, log: log}
}

// Anonymous validates the site is reachable without logging in
type Anonymous struct {
	site *site.Site
	log  *logging.Logger
}

func NewAnonymous(st *site.Site, log *logging.Logger) *Anonymous {
	return &Anonymous{site: st, log: log}
}

func (a *Anonymous) Authorize(ctx context.Context, s browser.Session) error {
	target := a.site.URLs.Base
	if err := open(ctx, s, target); err != nil {
		return err
	}
	if err := Validate(ctx, s, a.site, target); err != nil {
		return err
	}
	a.log.Info("anonymous session ready", "url", target)
	return nil
}

// Authenticated injects the user's cookies and validates the logged-in landing page
type Authenticated struct {
	site    *site.Site
	cookies []browser.Cookie
	log     *logging.Logger
}

func NewAuthenticated(st *site.Site, cookies []browser.Cookie, log *logging.Logger) *Authenticated {
	return &Authenticated{site: st, cookies: cookies, log: log}
}

func (a *Authenticated) Authorize(ctx context.Context, s browser.Session) error {
	if len(a.cookies) == 0 {
		return domain.ErrAuthorization
	}

	if err := open(ctx, s, a.site.URLs.Base); err != nil {
		return err
	}

	injected, err := a.injectCookies(ctx, s)
	if err != nil {
		return err
	}
	if injected > 0 {
		if err := s.Reload(ctx); err != nil {
			return fmt.Errorf("reload after cookie injection: %w", err)
		}
	}

	target := a.site.URLs.Feed
	if err := open(ctx, s, target); err != nil {
		return err
	}
	if err := Validate(ctx, s, a.site, target); err != nil {
		return err
	}
	a.log.Info("authenticated session ready", "url", target, "cookies_injected", injected)
	return nil
}

// injectCookies sets only the cookies whose value the browser does not hold yet
func (a *Authenticated) injectCookies(ctx context.Context, s browser.Session) (int, error) {
	existing, err := s.Cookies(ctx)
	if err != nil {
		return 0, fmt.Errorf("read browser cookies: %w", err)
	}
	values := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		values[c.Value] = struct{}{}
	}

	var fresh []browser.Cookie
	for _, c := range a.cookies {
		if _, ok := values[c.Value]; ok {
			continue
		}
		values[c.Value] = struct{}{}
		fresh = append(fresh, c)
	}
	if len(fresh) == 0 {
		return 0, nil
	}
	if err := scopeToCurrentPage(ctx, s, fresh); err != nil {
		return 0, err
	}
	if err := s.SetCookies(ctx, fresh); err != nil {
		return 0, fmt.Errorf("inject cookies: %w", err)
	}
	return len(fresh), nil
}

// scopeToCurrentPage gives cookies without a domain the host of the page the
// browser is on, and a root path when none is set
func scopeToCurrentPage(ctx context.Context, s browser.Session, cookies []browser.Cookie) error {
	var host string
	for i := range cookies {
		if cookies[i].Domain == "" {
			if host == "" {
				current, err := s.CurrentURL(ctx)
				if err != nil {
					return fmt.Errorf("read current url: %w", err)
				}
				u, err := url.Parse(current)
				if err != nil || u.Hostname() == "" {
					return fmt.Errorf("no host to scope cookies to in %q", current)
				}
				host = u.Hostname()
			}
			cookies[i].Domain = host
		}
		if cookies[i].Path == "" {
			cookies[i].Path = "/"
		}
	}
	return nil
}

// Passthrough is used for arbitrary pages, which have no session to prove
type Passthrough struct {
	log *logging.Logger
}

func (p *Passthrough) Authorize(context.Context, browser.Session) error {
	p.log.Info("browser session ready for arbitrary pages")
	return nil
}
