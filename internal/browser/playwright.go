package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

type playwrightSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
}

func launchPlaywright(_ context.Context, opts Options) (Session, error) {
	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}
	if err := playwright.Install(runOpts); err != nil {
		return nil, fmt.Errorf("install playwright: %w", err)
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	args := make([]string, 0, len(hardeningArgs))
	for _, a := range hardeningArgs {
		args = append(args, "--"+a)
	}

	b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     args,
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	ctxOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: ViewportWidth, Height: ViewportHeight},
	}
	if opts.UserAgent != "" {
		ctxOpts.UserAgent = playwright.String(opts.UserAgent)
	}
	bctx, err := b.NewContext(ctxOpts)
	if err != nil {
		_ = b.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("create context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		_ = b.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("create page: %w", err)
	}

	return &playwrightSession{pw: pw, browser: b, context: bctx, page: page}, nil
}

func (s *playwrightSession) Navigate(_ context.Context, url string) error {
	if _, err := s.page.Goto(url); err != nil {
		if strings.Contains(err.Error(), "net::ERR_") {
			return &NavigationError{URL: url, Reason: err.Error()}
		}
		return err
	}
	return nil
}

func (s *playwrightSession) Reload(_ context.Context) error {
	_, err := s.page.Reload()
	return err
}

func (s *playwrightSession) CurrentURL(_ context.Context) (string, error) {
	return s.page.URL(), nil
}

func (s *playwrightSession) HTML(_ context.Context) (string, error) {
	return s.page.Content()
}

func (s *playwrightSession) Find(_ context.Context, selector string, wait time.Duration) (Element, bool, error) {
	if wait <= 0 {
		h, err := s.page.QuerySelector(selector)
		return wrapHandle(h, err)
	}
	h, err := s.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(wait.Milliseconds())),
	})
	if errors.Is(err, playwright.ErrTimeout) {
		return nil, false, nil
	}
	return wrapHandle(h, err)
}

func (s *playwrightSession) FindByText(ctx context.Context, tag, text string, wait time.Duration) (Element, bool, error) {
	return s.Find(ctx, fmt.Sprintf("%s:has-text(%s)", tag, strconv.Quote(text)), wait)
}

func (s *playwrightSession) Execute(_ context.Context, script string) error {
	_, err := s.page.Evaluate(script)
	return err
}

func (s *playwrightSession) Cookies(_ context.Context) ([]Cookie, error) {
	cookies, err := s.context.Cookies()
	if err != nil {
		return nil, err
	}
	out := make([]Cookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, Cookie{Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path})
	}
	return out, nil
}

func (s *playwrightSession) SetCookies(_ context.Context, cookies []Cookie) error {
	in := make([]playwright.OptionalCookie, 0, len(cookies))
	for _, c := range cookies {
		in = append(in, playwright.OptionalCookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: playwright.String(c.Domain),
			Path:   playwright.String(c.Path),
		})
	}
	return s.context.AddCookies(in)
}

func (s *playwrightSession) Screenshot(_ context.Context) ([]byte, error) {
	return s.page.Screenshot(playwright.PageScreenshotOptions{FullPage: playwright.Bool(true)})
}

func (s *playwrightSession) Close() error {
	var errs []error
	if err := s.page.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.context.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.browser.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.pw.Stop(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

type playwrightElement struct {
	h playwright.ElementHandle
}

func wrapHandle(h playwright.ElementHandle, err error) (Element, bool, error) {
	if err != nil {
		return nil, false, err
	}
	if h == nil {
		return nil, false, nil
	}
	return &playwrightElement{h: h}, true, nil
}

func (e *playwrightElement) Text(_ context.Context) (string, error) {
	t, err := e.h.InnerText()
	return strings.TrimSpace(t), err
}

func (e *playwrightElement) Attribute(_ context.Context, name string) (string, bool, error) {
	v, err := e.h.GetAttribute(name)
	if err != nil {
		return "", false, err
	}
	return v, v != "", nil
}

func (e *playwrightElement) Click(_ context.Context) error {
	return e.h.Click()
}

func (e *playwrightElement) Fill(_ context.Context, value string) error {
	return e.h.Fill(value)
}

func (e *playwrightElement) Find(_ context.Context, selector string, wait time.Duration) (Element, bool, error) {
	if wait <= 0 {
		return wrapHandle(e.h.QuerySelector(selector))
	}
	h, err := e.h.WaitForSelector(selector, playwright.ElementHandleWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(wait.Milliseconds())),
	})
	if errors.Is(err, playwright.ErrTimeout) {
		return nil, false, nil
	}
	return wrapHandle(h, err)
}
