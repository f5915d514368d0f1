package site

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeFor(t *testing.T) {
	assert.Equal(t, ModeAuthorized, ModeFor(true))
	assert.Equal(t, ModeIncognito, ModeFor(false))
}

func TestCanonicalJobURL(t *testing.T) {
	s := Default()
	assert.Equal(t, "https://www.linkedin.com/jobs/view/1234567890/", s.CanonicalJobURL("1234567890"))
}

func TestLoadEmptyPathIsDefault(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestLoadOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.yaml")
	raw := `
urls:
  feed: https://example.test/feed/
bot_markers: ["blocked"]
modes:
  incognito:
    search:
      page_size: 25
    details:
      company: ".org-name"
profile:
  save: "#save"
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	s, err := Load(path)
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, "https://example.test/feed/", s.URLs.Feed)
	assert.Equal(t, def.URLs.Base, s.URLs.Base)
	assert.Equal(t, []string{"blocked"}, s.BotMarkers)

	inc := s.For(ModeIncognito)
	assert.Equal(t, 25, inc.Search.PageSize)
	assert.Equal(t, def.For(ModeIncognito).Search.Item, inc.Search.Item)
	assert.Equal(t, ".org-name", inc.Details.Company)
	assert.Equal(t, def.For(ModeIncognito).Details.Position, inc.Details.Position)
	assert.Equal(t, def.For(ModeAuthorized), s.For(ModeAuthorized))

	assert.Equal(t, "#save", s.Profile.Save)
	assert.Equal(t, def.Profile.Headline, s.Profile.Headline)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		raw  string
	}{
		{name: "not a mapping", raw: "- a\n- b\n"},
		{name: "unknown mode", raw: "modes:\n  robot:\n    search: {}\n"},
		{name: "bad type", raw: "modes:\n  incognito:\n    search:\n      page_size: seven\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.raw), 0o600))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestJobID(t *testing.T) {
	s := Default()

	tests := []struct {
		url  string
		want string
	}{
		{url: "https://www.linkedin.com/jobs/view/1234567890/", want: "1234567890"},
		{url: "https://www.linkedin.com/jobs/view/1234567890", want: "1234567890"},
		{url: "https://www.linkedin.com/jobs/view/senior-go-engineer-at-acme-3876543210?refId=abc", want: "3876543210"},
		{url: "https://www.linkedin.com/jobs/search/?keywords=go", want: ""},
		{url: "https://www.linkedin.com/jobs/view/not-a-job/", want: ""},
		{url: "https://example.com/careers/42", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, s.JobID(tt.url))
		})
	}
}
