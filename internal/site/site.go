// Package site holds the URLs, markers and CSS selectors coupled to the target
// site's markup. The built-in table can be overlaid from a YAML file so a markup
// change does not need a rebuild.
package site

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Mode is the login state a traversal runs under
type Mode string

const (
	ModeAuthorized Mode = "authorized"
	ModeIncognito  Mode = "incognito"
)

// ModeFor maps the request flag to a Mode
func ModeFor(authorized bool) Mode {
	if authorized {
		return ModeAuthorized
	}
	return ModeIncognito
}

type URLs struct {
	Base    string `yaml:"base"`
	Feed    string `yaml:"feed"`
	JobView string `yaml:"job_view"`
	Search  string `yaml:"search"`
}

// Search selectors. Item is a format string taking the 1-based item index.
type Search struct {
	Item       string `yaml:"item"`
	JobID      string `yaml:"job_id"`
	JobIDAttr  string `yaml:"job_id_attr"`
	JobLink    string `yaml:"job_link"`
	NextPage   string `yaml:"next_page"`
	PageOffset string `yaml:"page_offset"`
	PageSize   int    `yaml:"page_size"`
}

type Details struct {
	Expand      string `yaml:"expand"`
	Description string `yaml:"description"`
	Company     string `yaml:"company"`
	Position    string `yaml:"position"`
}

// Selectors is the resolved table for one Mode
type Selectors struct {
	Search  Search  `yaml:"search"`
	Details Details `yaml:"details"`
}

type Profile struct {
	MeMenu          string `yaml:"me_menu"`
	ProfileLinkTag  string `yaml:"profile_link_tag"`
	ProfileLinkText string `yaml:"profile_link_text"`
	Headline        string `yaml:"headline"`
	EditIntro       string `yaml:"edit_intro"`
	HeadlineInput   string `yaml:"headline_input"`
	Save            string `yaml:"save"`
	CloseConfirm    string `yaml:"close_confirm"`
}

// Overlay is the synthetic click that dismisses the anonymous sign-in widget
type Overlay struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

type Site struct {
	URLs               URLs               `yaml:"urls"`
	BotMarkers         []string           `yaml:"bot_markers"`
	Modes              map[Mode]Selectors `yaml:"modes"`
	Profile            Profile            `yaml:"profile"`
	Overlay            Overlay            `yaml:"overlay"`
	ArbitraryTextLimit int                `yaml:"arbitrary_text_limit"`
}

// For resolves the selector table of m
func (s *Site) For(m Mode) Selectors {
	return s.Modes[m]
}

// CanonicalJobURL is the identity of a job posting
func (s *Site) CanonicalJobURL(id string) string {
	return fmt.Sprintf("%s/%s/", s.URLs.JobView, id)
}

// Default returns the built-in table
func Default() *Site {
	return &Site{
		URLs: URLs{
			Base:    "https://www.linkedin.com/",
			Feed:    "https://www.linkedin.com/feed/",
			JobView: "https://www.linkedin.com/jobs/view",
			Search:  "https://www.linkedin.com/jobs",
		},
		BotMarkers: []string{"ERR_TOO_MANY_REDIRECTS", "HTTP ERROR 429"},
		Modes: map[Mode]Selectors{
			ModeAuthorized: {
				Search: Search{
					Item:      "ul.scaffold-layout__list-container > li:nth-of-type(%d)",
					JobID:     "[data-job-id]",
					JobIDAttr: "data-job-id",
					NextPage:  `[aria-label="Page %d"]`,
				},
				Details: Details{
					Expand:      `[class="job-details-about-the-job-module__description"] > div > button`,
					Description: `[class="job-details-about-the-job-module__description"]`,
					Company:     `[class="job-details-jobs-unified-top-card__company-name"]`,
					Position:    `[class="t-24 job-details-jobs-unified-top-card__job-title"]`,
				},
			},
			ModeIncognito: {
				Search: Search{
					Item:       "ul.jobs-search__results-list > li:nth-of-type(%d)",
					JobLink:    `[data-tracking-control-name="public_jobs_jserp-result_search-card"]`,
					PageOffset: "start",
					PageSize:   7,
				},
				Details: Details{
					Expand:      `[aria-label="Click to see more description"]`,
					Description: `[id="job-details"]`,
					Company:     `[data-tracking-control-name="public_jobs_topcard-org-name"]`,
					Position:    `[class="top-card-layout__title font-sans text-lg papabear:text-xl font-bold leading-open text-color-text mb-0 topcard__title"]`,
				},
			},
		},
		Profile: Profile{
			MeMenu:          ".global-nav__primary-link-me-menu-trigger",
			ProfileLinkTag:  "a",
			ProfileLinkText: "View Profile",
			Headline:        `[class="text-body-medium break-words"]`,
			EditIntro:       `[aria-label="Edit intro"]`,
			HeadlineInput:   "textarea.fb-gai-text__textarea",
			Save:            `[data-view-name="profile-form-save"]`,
			CloseConfirm:    `[data-test-icon="close-medium"]`,
		},
		Overlay:            Overlay{X: 100, Y: 200},
		ArbitraryTextLimit: 16000,
	}
}

// Load returns Default overlaid with the YAML file at path. An empty path yields Default.
func Load(path string) (*Site, error) {
	s := Default()
	if path == "" {
		return s, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read selectors file: %w", err)
	}
	if err := Parse(raw, s); err != nil {
		return nil, fmt.Errorf("parse selectors file %s: %w", path, err)
	}
	return s, nil
}

// Parse overlays raw YAML onto s. Fields missing from raw keep their value.
func Parse(raw []byte, s *Site) error {
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return err
	}
	if len(root.Content) == 0 {
		return nil
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", doc.Line)
	}

	// modes are decoded one by one so a partial mode keeps the rest of its table
	var modesNode *yaml.Node
	rest := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if doc.Content[i].Value == "modes" {
			modesNode = doc.Content[i+1]
			continue
		}
		rest.Content = append(rest.Content, doc.Content[i], doc.Content[i+1])
	}

	modes := s.Modes
	if err := rest.Decode(s); err != nil {
		return err
	}
	s.Modes = modes
	if modesNode == nil {
		return nil
	}

	var nodes map[Mode]yaml.Node
	if err := modesNode.Decode(&nodes); err != nil {
		return err
	}
	for m, node := range nodes {
		if m != ModeAuthorized && m != ModeIncognito {
			return fmt.Errorf("unknown mode %q", m)
		}
		sel := s.Modes[m]
		if err := node.Decode(&sel); err != nil {
			return fmt.Errorf("mode %s: %w", m, err)
		}
		s.Modes[m] = sel
	}
	return nil
}

// Timeouts are the named waits the engines use instead of readiness signals
type Timeouts struct {
	Settle          time.Duration
	ElementWait     time.Duration
	ArbitrarySettle time.Duration
	RetryAttempts   int
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Settle:          5 * time.Second,
		ElementWait:     5 * time.Second,
		ArbitrarySettle: 30 * time.Second,
		RetryAttempts:   5,
	}
}

var jobViewID = regexp.MustCompile(`^/(?:[^/?#]*-)?(\d+)(?:[/?#]|$)`)

// JobID returns the posting id of a job view URL, or "" when url is not one
func (s *Site) JobID(url string) string {
	i := strings.Index(url, s.URLs.JobView)
	if i < 0 {
		return ""
	}
	m := jobViewID.FindStringSubmatch(url[i+len(s.URLs.JobView):])
	if m == nil {
		return ""
	}
	return m[1]
}
