// Package search discovers job posting URLs by walking the paginated results of a
// search page.
package search

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"

	"JobScraper/internal/authorizer"
	"JobScraper/internal/browser"
	"JobScraper/internal/site"
	"JobScraper/pkg/logging"
)

const DefaultLimit = 100

// AbortError stops a discovery call on an unexpected failure. The URLs found before
// the failure are still returned alongside it.
type AbortError struct {
	EntryURL   string
	Screenshot string
	Err        error
}

func (e *AbortError) Error() string {
	if e.Screenshot == "" {
		return fmt.Sprintf("search aborted on %s: %v", e.EntryURL, e.Err)
	}
	return fmt.Sprintf("search aborted on %s (screenshot %s): %v", e.EntryURL, e.Screenshot, e.Err)
}

func (e *AbortError) Unwrap() error {
	return e.Err
}

type Config struct {
	Limit         int
	ScreenshotDir string
	Timeouts      site.Timeouts
}

// Engine walks search results for one job. It remembers every canonical URL it has
// returned, so a URL is reported at most once across all entry points of the job.
type Engine struct {
	session browser.Session
	site    *site.Site
	mode    site.Mode
	sel     site.Search
	nav     *authorizer.Navigator
	cfg     Config
	log     *logging.Logger

	seen map[string]struct{}
}

func New(s browser.Session, st *site.Site, mode site.Mode, cfg Config, log *logging.Logger) *Engine {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	log = log.With("mode", mode)
	return &Engine{
		session: s,
		site:    st,
		mode:    mode,
		sel:     st.For(mode).Search,
		nav:     authorizer.NewNavigator(st, cfg.Timeouts, log),
		cfg:     cfg,
		log:     log,
		seen:    make(map[string]struct{}),
	}
}

// Discover returns the canonical job URLs newly found from entryURL, at most Limit.
// A failure while walking the results yields the partial list and an *AbortError.
func (e *Engine) Discover(ctx context.Context, entryURL string) ([]string, error) {
	if err := e.nav.Open(ctx, e.session, entryURL, e.site.URLs.Search); err != nil {
		return nil, err
	}

	var (
		found []string
		err   error
	)
	if e.mode == site.ModeAuthorized {
		err = e.walkAuthorized(ctx, &found)
	} else {
		err = e.walkAnonymous(ctx, entryURL, &found)
	}
	if err != nil {
		return found, e.abort(ctx, entryURL, err)
	}

	e.log.Info("search entry point finished", "url", entryURL, "found", len(found))
	return found, nil
}

// walkAuthorized clicks through the list items one by one, then the numbered page control
func (e *Engine) walkAuthorized(ctx context.Context, found *[]string) error {
	wait := e.cfg.Timeouts.ElementWait
	page, index := 1, 1

	for len(*found) < e.cfg.Limit {
		item, ok, err := e.session.Find(ctx, fmt.Sprintf(e.sel.Item, index), wait)
		if err != nil {
			return fmt.Errorf("look up item %d on page %d: %w", index, page, err)
		}
		if !ok {
			next, ok, err := e.session.Find(ctx, fmt.Sprintf(e.sel.NextPage, page+1), wait)
			if err != nil {
				return fmt.Errorf("look up page %d control: %w", page+1, err)
			}
			if !ok {
				e.log.Debug("no further result pages", "page", page)
				return nil
			}
			if err := next.Click(ctx); err != nil {
				return fmt.Errorf("open page %d: %w", page+1, err)
			}
			if err := browser.Pause(ctx, e.cfg.Timeouts.Settle); err != nil {
				return err
			}
			page, index = page+1, 1
			continue
		}

		id, err := e.authorizedID(ctx, item)
		if err != nil {
			return fmt.Errorf("read item %d on page %d: %w", index, page, err)
		}
		if err := item.Click(ctx); err != nil {
			return fmt.Errorf("click item %d on page %d: %w", index, page, err)
		}
		if err := browser.Pause(ctx, e.cfg.Timeouts.Settle); err != nil {
			return err
		}
		e.add(id, found)
		index++
	}
	return nil
}

func (e *Engine) authorizedID(ctx context.Context, item browser.Element) (string, error) {
	holder, ok, err := item.Find(ctx, e.sel.JobID, 0)
	if err != nil || !ok {
		return "", err
	}
	id, _, err := holder.Attribute(ctx, e.sel.JobIDAttr)
	return id, err
}

// walkAnonymous reads every item of a virtual page, then re-navigates with a larger
// offset. A page that adds nothing ends the walk.
func (e *Engine) walkAnonymous(ctx context.Context, entryURL string, found *[]string) error {
	for offset := 0; len(*found) < e.cfg.Limit; offset += e.sel.PageSize {
		if offset > 0 {
			u, err := pageURL(entryURL, e.sel.PageOffset, offset)
			if err != nil {
				return err
			}
			if err := e.nav.Open(ctx, e.session, u, e.site.URLs.Search); err != nil {
				return err
			}
		}
		if err := authorizer.DismissOverlay(ctx, e.session, e.site); err != nil {
			return fmt.Errorf("dismiss sign-in overlay: %w", err)
		}

		added, err := e.readAnonymousPage(ctx, found)
		if err != nil {
			return fmt.Errorf("read results at offset %d: %w", offset, err)
		}
		if added == 0 {
			e.log.Debug("results page added nothing", "offset", offset)
			return nil
		}
		if e.sel.PageSize <= 0 {
			return nil
		}
	}
	return nil
}

func (e *Engine) readAnonymousPage(ctx context.Context, found *[]string) (int, error) {
	added := 0
	for index := 1; len(*found) < e.cfg.Limit; index++ {
		wait := e.cfg.Timeouts.ElementWait
		if index > 1 {
			wait = 0
		}
		item, ok, err := e.session.Find(ctx, fmt.Sprintf(e.sel.Item, index), wait)
		if err != nil {
			return added, err
		}
		if !ok {
			return added, nil
		}

		link, ok, err := item.Find(ctx, e.sel.JobLink, 0)
		if err != nil {
			return added, err
		}
		if !ok {
			continue
		}
		href, _, err := link.Attribute(ctx, "href")
		if err != nil {
			return added, err
		}
		if e.add(ExtractJobID(href), found) {
			added++
		}
	}
	return added, nil
}

// add records the canonical URL of id unless it was seen before
func (e *Engine) add(id string, found *[]string) bool {
	if id == "" {
		return false
	}
	u := e.site.CanonicalJobURL(id)
	if _, ok := e.seen[u]; ok {
		return false
	}
	e.seen[u] = struct{}{}
	*found = append(*found, u)
	return true
}

func (e *Engine) abort(ctx context.Context, entryURL string, cause error) error {
	if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		return &AbortError{EntryURL: entryURL, Err: cause}
	}
	path, err := browser.SaveScreenshot(ctx, e.session, e.cfg.ScreenshotDir)
	if err != nil {
		e.log.Warn("could not capture screenshot", "err", err)
	}
	e.log.Error("search aborted", "url", entryURL, "screenshot", path, "err", cause)
	return &AbortError{EntryURL: entryURL, Screenshot: path, Err: cause}
}

var listingID = regexp.MustCompile(`-(\d+)\?`)

// ExtractJobID returns the digits between a '-' and a '?' in a listing href, or ""
func ExtractJobID(href string) string {
	m := listingID.FindStringSubmatch(href)
	if m == nil {
		return ""
	}
	return m[1]
}

func pageURL(entryURL, param string, offset int) (string, error) {
	u, err := url.Parse(entryURL)
	if err != nil {
		return "", fmt.Errorf("parse entry url: %w", err)
	}
	q := u.Query()
	q.Set(param, strconv.Itoa(offset))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
