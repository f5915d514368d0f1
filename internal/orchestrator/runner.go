// Package orchestrator runs jobs: it picks the engine for the requested action, walks
// the entry points in order, pushes each result unit to the callback and always
// releases the browser.
package orchestrator

import (
	"context"
	"errors"

	"JobScraper/internal/authorizer"
	"JobScraper/internal/browser"
	"JobScraper/internal/details"
	"JobScraper/internal/domain"
	"JobScraper/internal/profile"
	"JobScraper/internal/search"
	"JobScraper/internal/site"
	"JobScraper/pkg/logging"
)

// Notifier delivers one result unit to the caller
type Notifier interface {
	Push(ctx context.Context, url, userID string, payload any) error
}

// Sink persists results. Its failures never fail a job.
type Sink interface {
	SaveURLs(ctx context.Context, userID string, urls []string) error
	SaveDetails(ctx context.Context, userID string, d domain.JobDetails) error
}

// SessionProvider hands out the one browser a job owns
type SessionProvider interface {
	Session(ctx context.Context) (browser.Session, error)
	Close() error
}

type ProviderFactory func(opts browser.Options, log *logging.Logger) SessionProvider

type Options struct {
	SearchLimit   int
	ScreenshotDir string
	Timeouts      site.Timeouts
}

type Runner struct {
	site      *site.Site
	opts      Options
	notifier  Notifier
	sink      Sink
	providers ProviderFactory
	log       *logging.Logger
}

// NewRunner builds a Runner. sink may be nil.
func NewRunner(st *site.Site, opts Options, notifier Notifier, sink Sink, log *logging.Logger) *Runner {
	return &Runner{
		site:     st,
		opts:     opts,
		notifier: notifier,
		sink:     sink,
		providers: func(o browser.Options, l *logging.Logger) SessionProvider {
			return browser.NewProvider(o, l)
		},
		log: log,
	}
}

// WithProviders replaces how browsers are obtained
func (r *Runner) WithProviders(f ProviderFactory) *Runner {
	r.providers = f
	return r
}

// Run executes job and returns its aggregate result: SearchResults, DetailsResults or
// ProfileUpdateResult. Partial results come back together with the error that cut them short.
func (r *Runner) Run(ctx context.Context, job domain.Job) (any, error) {
	log := r.log.With("job_id", job.ID, "action", job.Action)

	if err := domain.CheckAction(job.Dashboard, job.Action); err != nil {
		log.Error("job rejected", "err", err)
		return nil, err
	}

	provider := r.providers(job.BrowserOptions.Options(), log)
	defer func() {
		if err := provider.Close(); err != nil {
			log.Warn("failed to close browser", "err", err)
		}
	}()

	s, err := provider.Session(ctx)
	if err != nil {
		return nil, err
	}
	if err := authorizer.For(job, r.site, log).Authorize(ctx, s); err != nil {
		return nil, err
	}

	log.Info("job started", "entry_points", len(job.EntryPoints), "authorized", job.AuthorizedUser)

	switch job.Action {
	case domain.ActionJobSearch:
		return r.runSearch(ctx, job, s, log)
	case domain.ActionJobDetails:
		ex := details.NewLinkedIn(s, r.site, site.ModeFor(job.AuthorizedUser), r.opts.Timeouts, log)
		return r.runDetails(ctx, job, ex, log)
	case domain.ActionArbitraryDetails:
		ex := details.NewArbitrary(s, r.site, r.opts.Timeouts, log)
		return r.runDetails(ctx, job, ex, log)
	case domain.ActionProfileUpdate:
		return r.runProfileUpdate(ctx, job, s, log)
	default:
		return nil, &domain.UnsupportedActionError{Action: job.Action, Dashboard: job.Dashboard}
	}
}

func (r *Runner) runSearch(ctx context.Context, job domain.Job, s browser.Session, log *logging.Logger) (domain.SearchResults, error) {
	engine := search.New(s, r.site, site.ModeFor(job.AuthorizedUser), search.Config{
		Limit:         r.opts.SearchLimit,
		ScreenshotDir: r.opts.ScreenshotDir,
		Timeouts:      r.opts.Timeouts,
	}, log)

	res := domain.SearchResults{URLs: []string{}}
	for _, entry := range job.EntryPoints {
		urls, err := engine.Discover(ctx, entry)
		if len(urls) > 0 {
			r.push(ctx, job, domain.SearchResults{URLs: urls}, log)
			r.saveURLs(ctx, job, urls, log)
			res.URLs = append(res.URLs, urls...)
		}

		var abort *search.AbortError
		if errors.As(err, &abort) {
			log.Warn("entry point aborted, continuing", "url", entry, "found", len(urls), "err", err)
			continue
		}
		if err != nil {
			return res, err
		}
	}

	log.Info("job search finished", "found", len(res.URLs))
	return res, nil
}

type fetcher interface {
	Fetch(ctx context.Context, url string) (domain.JobDetails, error)
}

func (r *Runner) runDetails(ctx context.Context, job domain.Job, ex fetcher, log *logging.Logger) (domain.DetailsResults, error) {
	res := domain.DetailsResults{JobDetails: []domain.JobDetails{}}
	for _, entry := range job.EntryPoints {
		d, err := ex.Fetch(ctx, entry)
		if err != nil {
			return res, err
		}
		r.push(ctx, job, domain.DetailsResults{JobDetails: []domain.JobDetails{d}}, log)
		r.saveDetails(ctx, job, d, log)
		res.JobDetails = append(res.JobDetails, d)
	}

	log.Info("job details finished", "count", len(res.JobDetails))
	return res, nil
}

func (r *Runner) runProfileUpdate(ctx context.Context, job domain.Job, s browser.Session, log *logging.Logger) (domain.ProfileUpdateResult, error) {
	res, err := profile.New(s, r.site, r.opts.Timeouts, log).UpdateHeadline(ctx, job.Headline)
	if err != nil {
		return res, err
	}
	r.push(ctx, job, res, log)
	return res, nil
}

func (r *Runner) push(ctx context.Context, job domain.Job, payload any, log *logging.Logger) {
	if job.CallbackURL == "" || r.notifier == nil {
		return
	}
	if err := r.notifier.Push(ctx, job.CallbackURL, job.UserID, payload); err != nil {
		log.Warn("callback delivery failed", "err", err)
	}
}

func (r *Runner) saveURLs(ctx context.Context, job domain.Job, urls []string, log *logging.Logger) {
	if r.sink == nil {
		return
	}
	if err := r.sink.SaveURLs(ctx, job.UserID, urls); err != nil {
		log.Warn("failed to persist urls", "err", err)
	}
}

func (r *Runner) saveDetails(ctx context.Context, job domain.Job, d domain.JobDetails, log *logging.Logger) {
	if r.sink == nil {
		return
	}
	if err := r.sink.SaveDetails(ctx, job.UserID, d); err != nil {
		log.Warn("failed to persist job details", "err", err)
	}
}
