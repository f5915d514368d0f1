package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"JobScraper/internal/browser/browsertest"
	"JobScraper/internal/domain"
	"JobScraper/internal/site"
	"JobScraper/pkg/logging"
)

const entryURL = "https://www.linkedin.com/jobs/search?keywords=golang"

func anonymousPage(hrefs ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><ul class="jobs-search__results-list">`)
	for _, h := range hrefs {
		fmt.Fprintf(&b, `<li><div class="base-card"><a data-tracking-control-name="public_jobs_jserp-result_search-card" href="%s">job</a></div></li>`, h)
	}
	b.WriteString(`</ul></body></html>`)
	return b.String()
}

func authorizedPage(nextPage int, ids ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><ul class="scaffold-layout__list-container">`)
	for _, id := range ids {
		if id == "" {
			b.WriteString(`<li><div class="ad">promoted</div></li>`)
			continue
		}
		fmt.Fprintf(&b, `<li><div data-job-id="%s">job %s</div></li>`, id, id)
	}
	b.WriteString(`</ul>`)
	if nextPage > 0 {
		fmt.Fprintf(&b, `<button aria-label="Page %d">%d</button>`, nextPage, nextPage)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

func listingHref(id int) string {
	return fmt.Sprintf("https://www.linkedin.com/jobs/view/golang-developer-at-acme-%d?refId=x&trackingId=y", id)
}

func canonical(id int) string {
	return fmt.Sprintf("https://www.linkedin.com/jobs/view/%d/", id)
}

func newEngine(t *testing.T, s *browsertest.Session, mode site.Mode, limit int) *Engine {
	t.Helper()
	cfg := Config{
		Limit:         limit,
		ScreenshotDir: t.TempDir(),
		Timeouts:      site.Timeouts{RetryAttempts: 5},
	}
	return New(s, site.Default(), mode, cfg, logging.NewNop())
}

func mustPageURL(t *testing.T, offset int) string {
	t.Helper()
	u, err := pageURL(entryURL, "start", offset)
	require.NoError(t, err)
	return u
}

func TestExtractJobID(t *testing.T) {
	tests := []struct {
		name string
		href string
		want string
	}{
		{name: "slug with id", href: "https://www.linkedin.com/jobs/view/golang-dev-1234567890?refId=a", want: "1234567890"},
		{name: "mixed path", href: `linkedin.com/jobs/view/1234567890/..."-1234567890?..."`, want: "1234567890"},
		{name: "no question mark", href: "https://www.linkedin.com/jobs/view/golang-dev-1234567890", want: ""},
		{name: "no dash", href: "https://www.linkedin.com/jobs/view/1234567890?refId=a", want: ""},
		{name: "letters between", href: "https://www.linkedin.com/jobs/view/dev-12ab?x", want: ""},
		{name: "empty", href: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJobID(tt.href))
		})
	}
}

func TestDiscoverAnonymousStopsOnEmptyYield(t *testing.T) {
	var hrefs, want []string
	for id := 1; id <= 7; id++ {
		hrefs = append(hrefs, listingHref(4000000000+id))
		want = append(want, canonical(4000000000+id))
	}

	s := browsertest.New().
		ServeHTML(entryURL, anonymousPage(hrefs...)).
		ServeHTML(mustPageURL(t, 7), anonymousPage(hrefs...))

	got, err := newEngine(t, s, site.ModeIncognito, 0).Discover(context.Background(), entryURL)

	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, []string{entryURL, mustPageURL(t, 7)}, s.Navigations)
	assert.Len(t, s.Scripts, 2)
}

func TestDiscoverAnonymousPaginatesAndDeduplicates(t *testing.T) {
	s := browsertest.New().
		ServeHTML(entryURL, anonymousPage(listingHref(1), listingHref(2), listingHref(2))).
		ServeHTML(mustPageURL(t, 7), anonymousPage(listingHref(2), listingHref(3))).
		ServeHTML(mustPageURL(t, 14), anonymousPage())

	got, err := newEngine(t, s, site.ModeIncognito, 0).Discover(context.Background(), entryURL)

	require.NoError(t, err)
	assert.Equal(t, []string{canonical(1), canonical(2), canonical(3)}, got)
	assert.Equal(t, 1, s.Hits(mustPageURL(t, 14)))
}

func TestDiscoverAnonymousDropsMalformedHrefs(t *testing.T) {
	s := browsertest.New().
		ServeHTML(entryURL, anonymousPage(
			"https://www.linkedin.com/jobs/view/no-id-here",
			listingHref(5),
			"/jobs/view/1234567890",
		))

	got, err := newEngine(t, s, site.ModeIncognito, 0).Discover(context.Background(), entryURL)

	require.NoError(t, err)
	assert.Equal(t, []string{canonical(5)}, got)
}

func TestDiscoverRespectsLimit(t *testing.T) {
	s := browsertest.New().
		ServeHTML(entryURL, anonymousPage(listingHref(1), listingHref(2), listingHref(3), listingHref(4)))

	got, err := newEngine(t, s, site.ModeIncognito, 3).Discover(context.Background(), entryURL)

	require.NoError(t, err)
	assert.Equal(t, []string{canonical(1), canonical(2), canonical(3)}, got)
	assert.Equal(t, []string{entryURL}, s.Navigations)
}

func TestDiscoverSkipsURLsSeenEarlierInJob(t *testing.T) {
	second := "https://www.linkedin.com/jobs/search?keywords=rust"
	s := browsertest.New().
		ServeHTML(entryURL, anonymousPage(listingHref(1), listingHref(2))).
		ServeHTML(second, anonymousPage(listingHref(2), listingHref(3)))

	e := newEngine(t, s, site.ModeIncognito, 0)

	first, err := e.Discover(context.Background(), entryURL)
	require.NoError(t, err)
	assert.Equal(t, []string{canonical(1), canonical(2)}, first)

	next, err := e.Discover(context.Background(), second)
	require.NoError(t, err)
	assert.Equal(t, []string{canonical(3)}, next)
}

func TestDiscoverAuthorizedClicksThroughPages(t *testing.T) {
	page2 := "https://www.linkedin.com/jobs/search?keywords=golang&page=2"
	s := browsertest.New().
		ServeHTML(entryURL, authorizedPage(2, "3900000001", "", "3900000002")).
		ServeHTML(page2, authorizedPage(0, "3900000002", "3900000003")).
		OnClick(`[aria-label="Page 2"]`, page2)

	got, err := newEngine(t, s, site.ModeAuthorized, 0).Discover(context.Background(), entryURL)

	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://www.linkedin.com/jobs/view/3900000001/",
		"https://www.linkedin.com/jobs/view/3900000002/",
		"https://www.linkedin.com/jobs/view/3900000003/",
	}, got)
	assert.Contains(t, s.Clicks, `[aria-label="Page 2"]`)
	assert.Contains(t, s.Clicks, "ul.scaffold-layout__list-container > li:nth-of-type(3)")
	assert.Empty(t, s.Scripts)
}

func TestDiscoverAuthorizedAbortKeepsPartialResults(t *testing.T) {
	boom := errors.New("node detached")
	s := browsertest.New().
		ServeHTML(entryURL, authorizedPage(0, "3900000001", "3900000002")).
		FailFind("ul.scaffold-layout__list-container > li:nth-of-type(2)", boom)

	got, err := newEngine(t, s, site.ModeAuthorized, 0).Discover(context.Background(), entryURL)

	assert.Equal(t, []string{"https://www.linkedin.com/jobs/view/3900000001/"}, got)
	var abort *AbortError
	require.ErrorAs(t, err, &abort)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, entryURL, abort.EntryURL)
	assert.FileExists(t, abort.Screenshot)
	assert.Equal(t, 1, s.Screenshots)
}

func TestDiscoverUnreachableEntry(t *testing.T) {
	s := browsertest.New().
		ServeHTML(entryURL, "<html><body>HTTP ERROR 429</body></html>")

	got, err := newEngine(t, s, site.ModeIncognito, 0).Discover(context.Background(), entryURL)

	assert.Nil(t, got)
	assert.ErrorIs(t, err, domain.ErrUnreachable)
	assert.Equal(t, 5, s.Hits(entryURL))
	assert.Zero(t, s.Screenshots)
}

func TestDiscoverRetriesRateLimitedEntry(t *testing.T) {
	blocked := browsertest.Page{HTML: "<html><body>HTTP ERROR 429</body></html>"}
	s := browsertest.New().
		Serve(entryURL, blocked, blocked, blocked, blocked, browsertest.Page{HTML: anonymousPage(listingHref(9))})

	got, err := newEngine(t, s, site.ModeIncognito, 0).Discover(context.Background(), entryURL)

	require.NoError(t, err)
	assert.Equal(t, []string{canonical(9)}, got)
	assert.Equal(t, 5, s.Hits(entryURL))
}
