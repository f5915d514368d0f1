package authorizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"JobScraper/internal/browser"
	"JobScraper/internal/domain"
	"JobScraper/internal/site"
	"JobScraper/pkg/logging"
)

// Validate fails with a *domain.BotProtectionError when the current page shows a bot
// marker or the current URL does not contain expected
func Validate(ctx context.Context, s browser.Session, st *site.Site, expected string) error {
	current, err := s.CurrentURL(ctx)
	if err != nil {
		return fmt.Errorf("read current url: %w", err)
	}
	html, err := s.HTML(ctx)
	if err != nil {
		return fmt.Errorf("read page: %w", err)
	}

	for _, marker := range st.BotMarkers {
		if strings.Contains(html, marker) {
			return &domain.BotProtectionError{URL: current, Reason: marker}
		}
	}
	if !strings.Contains(current, expected) {
		return &domain.BotProtectionError{URL: current, Reason: "expected " + expected}
	}
	return nil
}

// open navigates to url. A navigation the browser refuses, such as a redirect
// loop, never yields a page body to validate and is reported as bot protection.
func open(ctx context.Context, s browser.Session, url string) error {
	err := s.Navigate(ctx, url)
	if err == nil {
		return nil
	}
	var nav *browser.NavigationError
	if errors.As(err, &nav) {
		return &domain.BotProtectionError{URL: nav.URL, Reason: nav.Reason}
	}
	return fmt.Errorf("open %s: %w", url, err)
}

// Navigator opens a page and proves it is reachable, re-navigating on bot
// protection up to a fixed number of attempts
type Navigator struct {
	site     *site.Site
	timeouts site.Timeouts
	log      *logging.Logger
}

func NewNavigator(st *site.Site, t site.Timeouts, log *logging.Logger) *Navigator {
	return &Navigator{site: st, timeouts: t, log: log}
}

// Open navigates to url until Validate against expected passes. Exhausting the
// attempts yields domain.ErrUnreachable wrapping the last failure.
func (n *Navigator) Open(ctx context.Context, s browser.Session, url, expected string) error {
	attempts := n.timeouts.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		last = n.try(ctx, s, url, expected)
		if last == nil {
			return nil
		}
		if !retryable(last) {
			return last
		}

		n.log.Warn("page not reachable, retrying", "url", url, "attempt", attempt, "err", last)
		if attempt < attempts {
			if err := browser.Pause(ctx, n.timeouts.Settle); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("%w: %s after %d attempts: %w", domain.ErrUnreachable, url, attempts, last)
}

func (n *Navigator) try(ctx context.Context, s browser.Session, url, expected string) error {
	if err := open(ctx, s, url); err != nil {
		return err
	}
	return Validate(ctx, s, n.site, expected)
}

func retryable(err error) bool {
	var bot *domain.BotProtectionError
	return errors.As(err, &bot)
}

// DismissOverlay clicks at a fixed viewport point through script so the sign-in
// widget shown to anonymous visitors goes away
func DismissOverlay(ctx context.Context, s browser.Session, st *site.Site) error {
	script := fmt.Sprintf(`(() => {
  const el = document.elementFromPoint(%[1]d, %[2]d);
  if (!el) return false;
  el.dispatchEvent(new MouseEvent('click', {view: window, bubbles: true, cancelable: true, clientX: %[1]d, clientY: %[2]d}));
  return true;
})()`, st.Overlay.X, st.Overlay.Y)
	return s.Execute(ctx, script)
}
