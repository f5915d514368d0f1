// Package profile edits the headline of the logged-in user's profile.
package profile

import (
	"context"
	"fmt"

	"JobScraper/internal/browser"
	"JobScraper/internal/domain"
	"JobScraper/internal/site"
	"JobScraper/pkg/logging"
)

// Updater runs the headline edit as one linear sequence. Any missing element aborts
// it and the update counts as not applied.
type Updater struct {
	session  browser.Session
	site     *site.Site
	sel      site.Profile
	timeouts site.Timeouts
	log      *logging.Logger
}

func New(s browser.Session, st *site.Site, t site.Timeouts, log *logging.Logger) *Updater {
	return &Updater{session: s, site: st, sel: st.Profile, timeouts: t, log: log}
}

func (u *Updater) UpdateHeadline(ctx context.Context, headline string) (domain.ProfileUpdateResult, error) {
	var res domain.ProfileUpdateResult

	if err := u.openProfile(ctx); err != nil {
		return res, fmt.Errorf("open profile: %w", err)
	}

	previous, err := u.readHeadline(ctx)
	if err != nil {
		return res, fmt.Errorf("read headline: %w", err)
	}
	res.PreviousHeadline = previous

	if err := u.click(ctx, u.sel.EditIntro); err != nil {
		return res, fmt.Errorf("open headline editor: %w", err)
	}
	input, err := browser.MustFind(ctx, u.session, u.sel.HeadlineInput, u.timeouts.ElementWait)
	if err != nil {
		return res, fmt.Errorf("find headline input: %w", err)
	}
	if err := input.Fill(ctx, headline); err != nil {
		return res, fmt.Errorf("fill headline: %w", err)
	}

	if err := u.click(ctx, u.sel.Save); err != nil {
		return res, fmt.Errorf("save profile: %w", err)
	}
	if err := browser.Pause(ctx, u.timeouts.Settle); err != nil {
		return res, err
	}
	if err := u.click(ctx, u.sel.CloseConfirm); err != nil {
		return res, fmt.Errorf("dismiss save confirmation: %w", err)
	}

	updated, err := u.readHeadline(ctx)
	if err != nil {
		return res, fmt.Errorf("read updated headline: %w", err)
	}
	res.Headline = updated

	u.log.Info("headline updated", "from", previous, "to", updated)
	return res, nil
}

func (u *Updater) openProfile(ctx context.Context) error {
	if err := u.session.Navigate(ctx, u.site.URLs.Feed); err != nil {
		return err
	}
	if err := u.click(ctx, u.sel.MeMenu); err != nil {
		return err
	}
	if err := browser.Pause(ctx, u.timeouts.Settle); err != nil {
		return err
	}

	link, ok, err := u.session.FindByText(ctx, u.sel.ProfileLinkTag, u.sel.ProfileLinkText, u.timeouts.ElementWait)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: link %q", browser.ErrElementNotFound, u.sel.ProfileLinkText)
	}
	return link.Click(ctx)
}

func (u *Updater) readHeadline(ctx context.Context) (string, error) {
	el, err := browser.MustFind(ctx, u.session, u.sel.Headline, u.timeouts.ElementWait)
	if err != nil {
		return "", err
	}
	return el.Text(ctx)
}

func (u *Updater) click(ctx context.Context, selector string) error {
	el, err := browser.MustFind(ctx, u.session, selector, u.timeouts.ElementWait)
	if err != nil {
		return err
	}
	return el.Click(ctx)
}
