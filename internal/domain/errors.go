package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthorization is returned when an authenticated session is requested without cookies
	ErrAuthorization = errors.New("cannot authorize without required credentials")

	// ErrUnreachable is returned once the bounded navigation retry is exhausted
	ErrUnreachable = errors.New("target unreachable")
)

// BotProtectionError reports a page that is trapped behind bot protection,
// a redirect loop, or that landed away from the expected URL.
type BotProtectionError struct {
	URL    string
	Reason string
}

func (e *BotProtectionError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("hitting bot protection wall: %s", e.URL)
	}
	return fmt.Sprintf("hitting bot protection wall: %s (%s)", e.URL, e.Reason)
}

// UnsupportedActionError reports an action the selected dashboard cannot run
type UnsupportedActionError struct {
	Action    Action
	Dashboard Dashboard
}

func (e *UnsupportedActionError) Error() string {
	if e.Dashboard == "" {
		return fmt.Sprintf("not supported action: %q", e.Action)
	}
	return fmt.Sprintf("not supported action: %q on dashboard %q", e.Action, e.Dashboard)
}
