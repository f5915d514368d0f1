package details

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"JobScraper/internal/browser/browsertest"
	"JobScraper/internal/domain"
	"JobScraper/internal/site"
	"JobScraper/pkg/logging"
)

const jobURL = "https://www.linkedin.com/jobs/view/3912345678/"

const authorizedJob = `<html><body>
<div class="job-details-jobs-unified-top-card__company-name"><a>Acme</a></div>
<h1 class="t-24 job-details-jobs-unified-top-card__job-title">Go Engineer</h1>
<div class="job-details-about-the-job-module__description">
  <div><button>see more</button></div>
  <p>Build crawlers in Go.</p>
</div>
</body></html>`

const incognitoJob = `<html><body>
<h1 class="top-card-layout__title font-sans text-lg papabear:text-xl font-bold leading-open text-color-text mb-0 topcard__title">Backend Developer</h1>
<a data-tracking-control-name="public_jobs_topcard-org-name">Globex</a>
<button aria-label="Click to see more description">Show more</button>
<div id="job-details">Public description.</div>
</body></html>`

func timeouts() site.Timeouts {
	return site.Timeouts{RetryAttempts: 5}
}

func TestLinkedInFetch(t *testing.T) {
	tests := []struct {
		name      string
		mode      site.Mode
		html      string
		wantClick string
		wantDesc  string
		wantComp  string
		wantPos   string
	}{
		{
			name:      "authorized",
			mode:      site.ModeAuthorized,
			html:      authorizedJob,
			wantClick: `[class="job-details-about-the-job-module__description"] > div > button`,
			wantDesc:  "Build crawlers in Go.",
			wantComp:  "Acme",
			wantPos:   "Go Engineer",
		},
		{
			name:      "incognito",
			mode:      site.ModeIncognito,
			html:      incognitoJob,
			wantClick: `[aria-label="Click to see more description"]`,
			wantDesc:  "Public description.",
			wantComp:  "Globex",
			wantPos:   "Backend Developer",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := browsertest.New().ServeHTML(jobURL, tt.html)

			d, err := NewLinkedIn(s, site.Default(), tt.mode, timeouts(), logging.NewNop()).Fetch(context.Background(), jobURL)
			require.NoError(t, err)

			assert.Equal(t, jobURL, d.URL)
			require.NotNil(t, d.ID)
			assert.Equal(t, "3912345678", *d.ID)
			require.NotNil(t, d.RawJobDescription)
			assert.Contains(t, *d.RawJobDescription, tt.wantDesc)
			require.NotNil(t, d.CompanyName)
			assert.Equal(t, tt.wantComp, *d.CompanyName)
			require.NotNil(t, d.Position)
			assert.Equal(t, tt.wantPos, *d.Position)
			assert.Equal(t, []string{tt.wantClick}, s.Clicks)
		})
	}
}

func TestLinkedInFetchPartialPage(t *testing.T) {
	s := browsertest.New().ServeHTML(jobURL, `<html><body><div id="job-details">Only text</div></body></html>`)

	d, err := NewLinkedIn(s, site.Default(), site.ModeIncognito, timeouts(), logging.NewNop()).Fetch(context.Background(), jobURL)

	require.NoError(t, err)
	assert.Equal(t, jobURL, d.URL)
	require.NotNil(t, d.RawJobDescription)
	assert.Equal(t, "Only text", *d.RawJobDescription)
	assert.Nil(t, d.CompanyName)
	assert.Nil(t, d.Position)
	assert.Empty(t, s.Clicks)
}

func TestLinkedInFetchUnreachable(t *testing.T) {
	s := browsertest.New().ServeHTML(jobURL, "<html><body>ERR_TOO_MANY_REDIRECTS</body></html>")

	d, err := NewLinkedIn(s, site.Default(), site.ModeAuthorized, timeouts(), logging.NewNop()).Fetch(context.Background(), jobURL)

	assert.ErrorIs(t, err, domain.ErrUnreachable)
	assert.Equal(t, jobURL, d.URL)
	assert.Nil(t, d.RawJobDescription)
	assert.Equal(t, 5, s.Hits(jobURL))
}

func TestArbitraryFetchTruncates(t *testing.T) {
	const url = "https://careers.example.com/jobs/42"
	long := strings.Repeat("é", 20000)
	s := browsertest.New().ServeHTML(url, "<html><body><p>"+long+"</p></body></html>")

	d, err := NewArbitrary(s, site.Default(), timeouts(), logging.NewNop()).Fetch(context.Background(), url)

	require.NoError(t, err)
	assert.Equal(t, url, d.URL)
	assert.Nil(t, d.ID)
	require.NotNil(t, d.RawJobDescription)
	assert.Len(t, []rune(*d.RawJobDescription), 16000)
}

func TestArbitraryFetchShortPage(t *testing.T) {
	const url = "https://careers.example.com/jobs/7"
	s := browsertest.New().ServeHTML(url, "<html><body><h1>Staff Engineer</h1><p>Remote</p></body></html>")

	d, err := NewArbitrary(s, site.Default(), timeouts(), logging.NewNop()).Fetch(context.Background(), url)

	require.NoError(t, err)
	require.NotNil(t, d.RawJobDescription)
	assert.Equal(t, "Staff EngineerRemote", *d.RawJobDescription)
	assert.Empty(t, s.Clicks)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abcdef", 3))
	assert.Equal(t, "ab", truncate("ab", 3))
	assert.Equal(t, "abcdef", truncate("abcdef", 0))
}
