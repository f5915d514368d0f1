// Package browsertest provides a scripted DOM implementation of browser.Session.
//
// Pages are registered per URL as a sequence of responses; navigating to the same
// URL again serves the next response and the last one repeats. Clicks on elements
// found through a registered selector load another registered page.
package browsertest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"JobScraper/internal/browser"
)

// Page is one scripted response
type Page struct {
	// URL the browser reports after loading. Defaults to the requested URL.
	URL  string
	HTML string
	// Err is returned by Navigate instead of loading the page
	Err error
}

type Session struct {
	mu sync.Mutex

	pages       map[string][]Page
	hits        map[string]int
	transitions map[string]string
	findErrs    map[string]error

	requested string
	current   Page
	doc       *goquery.Document

	jar []browser.Cookie

	Navigations []string
	Injected    []browser.Cookie
	Reloads     int
	Scripts     []string
	Clicks      []string
	Filled      map[string]string
	Screenshots int
	Closed      bool
	CloseErr    error
}

var _ browser.Session = (*Session)(nil)

func New() *Session {
	s := &Session{
		pages:       make(map[string][]Page),
		hits:        make(map[string]int),
		transitions: make(map[string]string),
		findErrs:    make(map[string]error),
		Filled:      make(map[string]string),
	}
	s.load("about:blank", Page{HTML: "<html><body></body></html>"})
	return s
}

// Serve registers responses for url in the order they are served
func (s *Session) Serve(url string, pages ...Page) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[url] = append(s.pages[url], pages...)
	return s
}

// ServeHTML registers a single page that stays at url
func (s *Session) ServeHTML(url, html string) *Session {
	return s.Serve(url, Page{HTML: html})
}

// OnClick makes a click on any element found by selector load url
func (s *Session) OnClick(selector, url string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitions[selector] = url
	return s
}

// FailFind makes every lookup of selector fail with err
func (s *Session) FailFind(selector string, err error) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findErrs[selector] = err
	return s
}

// WithCookies seeds the browser cookie jar
func (s *Session) WithCookies(cookies ...browser.Cookie) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jar = append(s.jar, cookies...)
	return s
}

// Hits reports how many times url was navigated to or reloaded
func (s *Session) Hits(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[url]
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Navigations = append(s.Navigations, url)
	return s.visit(url)
}

func (s *Session) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Reloads++
	return s.visit(s.requested)
}

func (s *Session) CurrentURL(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.URL, nil
}

func (s *Session) HTML(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.HTML, nil
}

func (s *Session) Find(ctx context.Context, selector string, _ time.Duration) (browser.Element, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(s.doc.Selection, selector)
}

// FindByText keys the element by tag, so OnClick and FailFind registered for tag apply
func (s *Session) FindByText(_ context.Context, tag, text string, _ time.Duration) (browser.Element, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.findErrs[tag]; err != nil {
		return nil, false, err
	}
	sel := s.doc.Find(tag).FilterFunction(func(_ int, sel *goquery.Selection) bool {
		return strings.Contains(sel.Text(), text)
	}).First()
	if sel.Length() == 0 {
		return nil, false, nil
	}
	return &element{s: s, sel: sel, selector: tag}, true, nil
}

func (s *Session) Execute(_ context.Context, script string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Scripts = append(s.Scripts, script)
	return nil
}

func (s *Session) Cookies(context.Context) ([]browser.Cookie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]browser.Cookie(nil), s.jar...), nil
}

func (s *Session) SetCookies(_ context.Context, cookies []browser.Cookie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jar = append(s.jar, cookies...)
	s.Injected = append(s.Injected, cookies...)
	return nil
}

func (s *Session) Screenshot(context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Screenshots++
	return []byte("\x89PNG"), nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
	return s.CloseErr
}

// visit must be called with mu held
func (s *Session) visit(url string) error {
	responses := s.pages[url]
	n := s.hits[url]
	s.hits[url] = n + 1

	p := Page{URL: url, HTML: "<html><body></body></html>"}
	if len(responses) > 0 {
		if n >= len(responses) {
			n = len(responses) - 1
		}
		p = responses[n]
	}
	if p.Err != nil {
		return p.Err
	}
	if p.URL == "" {
		p.URL = url
	}
	s.requested = url
	s.load(url, p)
	return nil
}

func (s *Session) load(url string, p Page) {
	if p.URL == "" {
		p.URL = url
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.HTML))
	if err != nil {
		panic(fmt.Sprintf("browsertest: parse %s: %v", url, err))
	}
	s.current = p
	s.doc = doc
}

func (s *Session) find(root *goquery.Selection, selector string) (browser.Element, bool, error) {
	if err := s.findErrs[selector]; err != nil {
		return nil, false, err
	}
	sel := root.Find(selector).First()
	if sel.Length() == 0 {
		return nil, false, nil
	}
	return &element{s: s, sel: sel, selector: selector}, true, nil
}

type element struct {
	s        *Session
	sel      *goquery.Selection
	selector string
}

func (e *element) Find(_ context.Context, selector string, _ time.Duration) (browser.Element, bool, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	return e.s.find(e.sel, selector)
}

func (e *element) Text(context.Context) (string, error) {
	return strings.TrimSpace(e.sel.Text()), nil
}

func (e *element) Attribute(_ context.Context, name string) (string, bool, error) {
	v, ok := e.sel.Attr(name)
	return v, ok, nil
}

func (e *element) Click(context.Context) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()

	e.s.Clicks = append(e.s.Clicks, e.selector)
	if next, ok := e.s.transitions[e.selector]; ok {
		return e.s.visit(next)
	}
	return nil
}

func (e *element) Fill(_ context.Context, value string) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	e.s.Filled[e.selector] = value
	return nil
}
