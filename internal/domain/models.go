package domain

import (
	"JobScraper/internal/browser"
)

// Dashboard selects the family of target sites a job runs against
type Dashboard string

const (
	DashboardLinkedIn Dashboard = "LINKEDIN"
	DashboardOther    Dashboard = "OTHER"
)

// Action is the requested intent of a job
type Action string

const (
	ActionJobSearch        Action = "linkedin_job_search"
	ActionJobDetails       Action = "linkedin_job_details"
	ActionArbitraryDetails Action = "arbitrary_job_details"
	ActionProfileUpdate    Action = "linkedin_profile_update"
)

// UserCookie is one fragment of the user's login state. Never logged.
type UserCookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain"`
	Path   string `json:"path"`
}

// BrowserCookie converts the wire cookie to the browser capability type
func (c UserCookie) BrowserCookie() browser.Cookie {
	return browser.Cookie{Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path}
}

// BrowserOptions is the wire form of browser.Options
type BrowserOptions struct {
	DriverName   string `json:"driverName"`
	UserAgent    string `json:"userAgent"`
	HeadlessMode bool   `json:"headlessMode"`
}

func (o BrowserOptions) Options() browser.Options {
	return browser.Options{
		Driver:    browser.Driver(o.DriverName),
		UserAgent: o.UserAgent,
		Headless:  o.HeadlessMode,
	}
}

// JobScraperPayload is the body accepted by the scrape/search routes
type JobScraperPayload struct {
	JobDashboard   Dashboard      `json:"jobDashboard"`
	Action         Action         `json:"action"`
	AuthorizedUser bool           `json:"authorizedUser"`
	EntryPoints    []string       `json:"entryPoints"`
	BrowserOptions BrowserOptions `json:"browserOptions"`
	UserCookies    []UserCookie   `json:"userCookies,omitempty"`
	CallbackURL    string         `json:"callbackUrl,omitempty"`
}

// ProfileUpdatePayload is the body accepted by the refreshProfile route
type ProfileUpdatePayload struct {
	UserHeadline   string         `json:"userHeadline"`
	BrowserOptions BrowserOptions `json:"browserOptions"`
	UserCookies    []UserCookie   `json:"userCookies,omitempty"`
	AuthorizedUser *bool          `json:"authorizedUser,omitempty"`
	CallbackURL    string         `json:"callbackUrl,omitempty"`
}

// Job is one unit of work handed to the orchestrator
type Job struct {
	ID             string
	UserID         string
	Dashboard      Dashboard
	Action         Action
	AuthorizedUser bool
	EntryPoints    []string
	BrowserOptions BrowserOptions
	UserCookies    []UserCookie
	CallbackURL    string
	Headline       string
}

// Cookies returns the job cookies in browser form
func (j Job) Cookies() []browser.Cookie {
	out := make([]browser.Cookie, 0, len(j.UserCookies))
	for _, c := range j.UserCookies {
		out = append(out, c.BrowserCookie())
	}
	return out
}

// JobFromScraperPayload builds a Job for the scrape/search routes
func JobFromScraperPayload(id, userID string, p JobScraperPayload) Job {
	return Job{
		ID:             id,
		UserID:         userID,
		Dashboard:      p.JobDashboard,
		Action:         p.Action,
		AuthorizedUser: p.AuthorizedUser,
		EntryPoints:    p.EntryPoints,
		BrowserOptions: p.BrowserOptions,
		UserCookies:    p.UserCookies,
		CallbackURL:    p.CallbackURL,
	}
}

// JobFromProfilePayload builds a profile update Job. authorizedUser defaults to true.
func JobFromProfilePayload(id, userID string, p ProfileUpdatePayload) Job {
	authorized := true
	if p.AuthorizedUser != nil {
		authorized = *p.AuthorizedUser
	}
	return Job{
		ID:             id,
		UserID:         userID,
		Dashboard:      DashboardLinkedIn,
		Action:         ActionProfileUpdate,
		AuthorizedUser: authorized,
		BrowserOptions: p.BrowserOptions,
		UserCookies:    p.UserCookies,
		CallbackURL:    p.CallbackURL,
		Headline:       p.UserHeadline,
	}
}

// JobDetails is produced once per job posting. URL is always set.
type JobDetails struct {
	ID                *string `json:"id"`
	URL               string  `json:"url"`
	RawJobDescription *string `json:"rawJobDescription"`
	CompanyName       *string `json:"companyName"`
	Position          *string `json:"position"`
}

type SearchResults struct {
	URLs []string `json:"urls"`
}

type DetailsResults struct {
	JobDetails []JobDetails `json:"jobDetails"`
}

type ProfileUpdateResult struct {
	PreviousHeadline string `json:"previousHeadline"`
	Headline         string `json:"headline"`
}

// ScraperResponse is the synchronous acknowledgement of the inbound routes
type ScraperResponse struct {
	Response string `json:"response"`
}

// StringPtr returns nil for empty strings
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var dashboardActions = map[Dashboard][]Action{
	DashboardLinkedIn: {ActionJobSearch, ActionJobDetails, ActionProfileUpdate},
	DashboardOther:    {ActionArbitraryDetails},
}

// CheckAction returns an *UnsupportedActionError when d cannot run a
func CheckAction(d Dashboard, a Action) error {
	for _, supported := range dashboardActions[d] {
		if supported == a {
			return nil
		}
	}
	return &UnsupportedActionError{Action: a, Dashboard: d}
}

// Valid reports whether d is a known dashboard
func (d Dashboard) Valid() bool {
	_, ok := dashboardActions[d]
	return ok
}

// Scrapable reports whether a can be requested through a scraper payload
func (a Action) Scrapable() bool {
	switch a {
	case ActionJobSearch, ActionJobDetails, ActionArbitraryDetails:
		return true
	default:
		return false
	}
}
