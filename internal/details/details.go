// Package details extracts a JobDetails record from a single posting page.
package details

import (
	"context"
	"fmt"
	"time"

	"JobScraper/internal/authorizer"
	"JobScraper/internal/browser"
	"JobScraper/internal/domain"
	"JobScraper/internal/site"
	"JobScraper/pkg/logging"
)

// LinkedIn reads structured fields from a job view page. A field that cannot be read
// stays nil. Only a page that cannot be reached is an error.
type LinkedIn struct {
	session  browser.Session
	site     *site.Site
	sel      site.Details
	nav      *authorizer.Navigator
	timeouts site.Timeouts
	log      *logging.Logger
}

func NewLinkedIn(s browser.Session, st *site.Site, mode site.Mode, t site.Timeouts, log *logging.Logger) *LinkedIn {
	log = log.With("mode", mode)
	return &LinkedIn{
		session:  s,
		site:     st,
		sel:      st.For(mode).Details,
		nav:      authorizer.NewNavigator(st, t, log),
		timeouts: t,
		log:      log,
	}
}

func (l *LinkedIn) Fetch(ctx context.Context, url string) (domain.JobDetails, error) {
	d := domain.JobDetails{URL: url}

	if err := l.nav.Open(ctx, l.session, url, l.site.URLs.JobView); err != nil {
		return d, fmt.Errorf("open job %s: %w", url, err)
	}
	d.ID = domain.StringPtr(l.jobID(ctx, url))

	if err := l.expand(ctx); err != nil {
		l.log.Warn("could not expand description", "url", url, "err", err)
	}

	d.RawJobDescription = l.text(ctx, "description", l.sel.Description)
	d.CompanyName = l.text(ctx, "company", l.sel.Company)
	d.Position = l.text(ctx, "position", l.sel.Position)

	l.log.Info("job details retrieved", "url", url, "position", deref(d.Position), "company", deref(d.CompanyName))
	return d, nil
}

func (l *LinkedIn) jobID(ctx context.Context, url string) string {
	if id := l.site.JobID(url); id != "" {
		return id
	}
	current, err := l.session.CurrentURL(ctx)
	if err != nil {
		return ""
	}
	return l.site.JobID(current)
}

func (l *LinkedIn) expand(ctx context.Context) error {
	btn, err := browser.MustFind(ctx, l.session, l.sel.Expand, l.timeouts.ElementWait)
	if err != nil {
		return err
	}
	return btn.Click(ctx)
}

func (l *LinkedIn) text(ctx context.Context, field, selector string) *string {
	el, err := browser.MustFind(ctx, l.session, selector, l.timeouts.ElementWait)
	if err != nil {
		l.log.Warn("field not extracted", "field", field, "err", err)
		return nil
	}
	t, err := el.Text(ctx)
	if err != nil {
		l.log.Warn("field not extracted", "field", field, "err", err)
		return nil
	}
	return domain.StringPtr(t)
}

// Arbitrary snapshots the body text of any page, capped at the site's text limit
type Arbitrary struct {
	session browser.Session
	settle  time.Duration
	limit   int
	log     *logging.Logger
}

func NewArbitrary(s browser.Session, st *site.Site, t site.Timeouts, log *logging.Logger) *Arbitrary {
	return &Arbitrary{session: s, settle: t.ArbitrarySettle, limit: st.ArbitraryTextLimit, log: log}
}

func (a *Arbitrary) Fetch(ctx context.Context, url string) (domain.JobDetails, error) {
	d := domain.JobDetails{URL: url}

	if err := a.session.Navigate(ctx, url); err != nil {
		return d, fmt.Errorf("open %s: %w", url, err)
	}
	if err := browser.Pause(ctx, a.settle); err != nil {
		return d, err
	}

	current, _ := a.session.CurrentURL(ctx)
	a.log.Info("visiting arbitrary page", "url", url, "current_url", current)

	body, err := browser.MustFind(ctx, a.session, "body", 0)
	if err != nil {
		a.log.Warn("page has no body", "url", url, "err", err)
		return d, nil
	}
	text, err := body.Text(ctx)
	if err != nil {
		a.log.Warn("could not read page text", "url", url, "err", err)
		return d, nil
	}
	text = truncate(text, a.limit)
	d.RawJobDescription = domain.StringPtr(text)

	a.log.Info("arbitrary job details retrieved", "url", url, "size", len([]rune(text)))
	return d, nil
}

// truncate keeps the first limit characters of s
func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
