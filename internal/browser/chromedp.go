package browser

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// upper bound for a single click/fill/read on an already located node
const chromeActionTimeout = 30 * time.Second

type chromeSession struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
}

func launchChrome(ctx context.Context, opts Options) (Session, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.WindowSize(ViewportWidth, ViewportHeight),
	)
	for _, arg := range hardeningArgs {
		allocOpts = append(allocOpts, chromedp.Flag(arg, true))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if p := os.Getenv("CHROME_PATH"); p != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(p))
	}

	// the browser outlives the launching call; Close owns its lifetime
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	bctx, tabCancel := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(bctx, network.Enable(), chromedp.Navigate("about:blank")); err != nil {
		tabCancel()
		allocCancel()
		return nil, err
	}

	return &chromeSession{ctx: bctx, cancelTab: tabCancel, cancelAlloc: allocCancel}, nil
}

// run executes actions on the browser tab, bounded by ctx's deadline and cancellation
func (s *chromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx := s.ctx
	if dl, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, dl)
		defer cancelDeadline()
	}
	runCtx, cancel := context.WithCancel(runCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	err := s.run(ctx, chromedp.Navigate(url))
	if err != nil && strings.Contains(err.Error(), "page load error") {
		return &NavigationError{URL: url, Reason: err.Error()}
	}
	return err
}

func (s *chromeSession) Reload(ctx context.Context) error {
	return s.run(ctx, chromedp.Reload())
}

func (s *chromeSession) CurrentURL(ctx context.Context) (string, error) {
	var u string
	err := s.run(ctx, chromedp.Location(&u))
	return u, err
}

func (s *chromeSession) HTML(ctx context.Context) (string, error) {
	var html string
	err := s.run(ctx, chromedp.EvaluateAsDevTools(`document.documentElement.outerHTML`, &html))
	return html, err
}

func (s *chromeSession) Find(ctx context.Context, selector string, wait time.Duration) (Element, bool, error) {
	return s.find(ctx, selector, wait, nil)
}

func (s *chromeSession) FindByText(ctx context.Context, tag, text string, wait time.Duration) (Element, bool, error) {
	xpath := fmt.Sprintf("//%s[contains(normalize-space(.), %s)]", tag, xpathLiteral(text))
	return s.query(ctx, xpath, wait, chromedp.BySearch, chromedp.BySearch, nil)
}

func (s *chromeSession) find(ctx context.Context, selector string, wait time.Duration, from *cdp.Node) (Element, bool, error) {
	return s.query(ctx, selector, wait, chromedp.ByQueryAll, chromedp.ByQuery, from)
}

// query looks selector up with all when wait is zero and polls with one otherwise
func (s *chromeSession) query(ctx context.Context, selector string, wait time.Duration, all, one chromedp.QueryOption, from *cdp.Node) (Element, bool, error) {
	var nodes []*cdp.Node

	if wait <= 0 {
		opts := []chromedp.QueryOption{all, chromedp.AtLeast(0)}
		if from != nil {
			opts = append(opts, chromedp.FromNode(from))
		}
		if err := s.run(ctx, chromedp.Nodes(selector, &nodes, opts...)); err != nil {
			return nil, false, err
		}
	} else {
		opts := []chromedp.QueryOption{one}
		if from != nil {
			opts = append(opts, chromedp.FromNode(from))
		}
		waitCtx, cancel := context.WithTimeout(ctx, wait)
		defer cancel()
		if err := s.run(waitCtx, chromedp.Nodes(selector, &nodes, opts...)); err != nil {
			if waitCtx.Err() != nil && ctx.Err() == nil {
				return nil, false, nil
			}
			return nil, false, err
		}
	}

	if len(nodes) == 0 {
		return nil, false, nil
	}
	return &chromeElement{s: s, node: nodes[0]}, true, nil
}

func (s *chromeSession) Execute(ctx context.Context, script string) error {
	return s.run(ctx, chromedp.EvaluateAsDevTools(script, nil))
}

func (s *chromeSession) Cookies(ctx context.Context) ([]Cookie, error) {
	var out []Cookie
	err := s.run(ctx, chromedp.ActionFunc(func(c context.Context) error {
		cookies, err := network.GetCookies().Do(c)
		if err != nil {
			return err
		}
		for _, ck := range cookies {
			out = append(out, Cookie{Name: ck.Name, Value: ck.Value, Domain: ck.Domain, Path: ck.Path})
		}
		return nil
	}))
	return out, err
}

func (s *chromeSession) SetCookies(ctx context.Context, cookies []Cookie) error {
	return s.run(ctx, chromedp.ActionFunc(func(c context.Context) error {
		for _, ck := range cookies {
			if err := network.SetCookie(ck.Name, ck.Value).
				WithDomain(ck.Domain).
				WithPath(ck.Path).
				Do(c); err != nil {
				return err
			}
		}
		return nil
	}))
}

func (s *chromeSession) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := s.run(ctx, chromedp.FullScreenshot(&buf, 100))
	return buf, err
}

func (s *chromeSession) Close() error {
	err := chromedp.Cancel(s.ctx)
	s.cancelTab()
	s.cancelAlloc()
	return err
}

// xpathLiteral quotes s for an XPath expression, splitting on single quotes
// when s holds both quote kinds
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	return "concat('" + strings.Join(parts, `', "'", '`) + "')"
}

type chromeElement struct {
	s    *chromeSession
	node *cdp.Node
}

func (e *chromeElement) ids() []cdp.NodeID {
	return []cdp.NodeID{e.node.NodeID}
}

func (e *chromeElement) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, chromeActionTimeout)
}

func (e *chromeElement) Text(ctx context.Context) (string, error) {
	ctx, cancel := e.bounded(ctx)
	defer cancel()
	var text string
	err := e.s.run(ctx, chromedp.Text(e.ids(), &text, chromedp.ByNodeID))
	return strings.TrimSpace(text), err
}

func (e *chromeElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	ctx, cancel := e.bounded(ctx)
	defer cancel()
	var (
		value string
		ok    bool
	)
	err := e.s.run(ctx, chromedp.AttributeValue(e.ids(), name, &value, &ok, chromedp.ByNodeID))
	return value, ok, err
}

func (e *chromeElement) Click(ctx context.Context) error {
	ctx, cancel := e.bounded(ctx)
	defer cancel()
	return e.s.run(ctx, chromedp.Click(e.ids(), chromedp.ByNodeID))
}

func (e *chromeElement) Fill(ctx context.Context, value string) error {
	ctx, cancel := e.bounded(ctx)
	defer cancel()
	return e.s.run(ctx,
		chromedp.Clear(e.ids(), chromedp.ByNodeID),
		chromedp.SendKeys(e.ids(), value, chromedp.ByNodeID),
	)
}

func (e *chromeElement) Find(ctx context.Context, selector string, wait time.Duration) (Element, bool, error) {
	return e.s.find(ctx, selector, wait, e.node)
}
