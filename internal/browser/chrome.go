package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prospect/internal/common"
	"github.com/ternarybob/prospect/internal/interfaces"
)

// Chrome drives a single Chrome instance via the DevTools protocol and
// implements interfaces.Browser. One instance belongs to one session.
type Chrome struct {
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	allocatorCancel context.CancelFunc
	logger          arbor.ILogger
	shortTimeout    time.Duration
}

// NewChrome launches a Chrome instance. The anti-automation flags keep the
// target site from flagging the session as driven; the profile directory
// persists cookies so a completed sign-in survives restarts.
func NewChrome(ctx context.Context, cfg *common.BrowserConfig, headless bool, logger arbor.ILogger) (*Chrome, error) {
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", headless),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("exclude-switches", "enable-automation"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("start-maximized", true),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
		chromedp.UserAgent(cfg.UserAgent),
	)

	if cfg.UserDataDir != "" {
		dir, err := filepath.Abs(cfg.UserDataDir)
		if err == nil {
			if mkErr := os.MkdirAll(dir, 0755); mkErr == nil {
				opts = append(opts, chromedp.UserDataDir(dir))
			}
		}
	}

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)

	// Startup test so provisioning failure surfaces at create time, not
	// on the first navigation deep inside the pipeline.
	testCtx, testCancel := context.WithTimeout(browserCtx, 30*time.Second)
	defer testCancel()
	if err := chromedp.Run(testCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocatorCancel()
		return nil, fmt.Errorf("browser failed startup test: %w", err)
	}

	logger.Debug().
		Bool("headless", headless).
		Int("width", cfg.WindowWidth).
		Int("height", cfg.WindowHeight).
		Msg("Chrome instance started")

	return &Chrome{
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
		allocatorCancel: allocatorCancel,
		logger:          logger,
		shortTimeout:    cfg.ShortTimeout,
	}, nil
}

// run executes chromedp actions against the browser context, honoring the
// caller's deadline when one is set.
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx := c.browserCtx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(c.browserCtx, deadline)
		defer cancel()
	}
	return chromedp.Run(runCtx, actions...)
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	if err := c.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (c *Chrome) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := c.run(ctx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

func (c *Chrome) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := c.run(waitCtx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("wait for %q: %w", selector, err)
	}
	return nil
}

func (c *Chrome) WaitNotPresent(ctx context.Context, selector string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := c.run(waitCtx, chromedp.WaitNotPresent(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("wait for %q to clear: %w", selector, err)
	}
	return nil
}

// Click escalates through three interaction strategies. The target UI
// intercepts direct clicks with overlays and animated containers often
// enough that the scripted and simulated-pointer fallbacks carry real
// traffic, mirroring the direct/JS/pointer ladder the site demands.
func (c *Chrome) Click(ctx context.Context, selector string) error {
	clickCtx, cancel := context.WithTimeout(ctx, c.shortTimeout)
	defer cancel()

	directErr := c.run(clickCtx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
	if directErr == nil {
		return nil
	}

	js := fmt.Sprintf(`(() => { const el = document.querySelector(%q); if (!el) return false; el.click(); return true; })()`, selector)
	var clicked bool
	if err := c.run(clickCtx, chromedp.Evaluate(js, &clicked)); err == nil && clicked {
		c.logger.Debug().Str("selector", selector).Msg("Click fell back to scripted click")
		return nil
	}

	if err := c.dispatchPointerClick(clickCtx, selector); err == nil {
		c.logger.Debug().Str("selector", selector).Msg("Click fell back to dispatched pointer event")
		return nil
	}

	return fmt.Errorf("click %q: %w", selector, directErr)
}

// dispatchPointerClick synthesizes a mouse press/release at the element's
// box-model center via the DevTools input domain.
func (c *Chrome) dispatchPointerClick(ctx context.Context, selector string) error {
	return c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var ids []cdp.NodeID
		if err := chromedp.NodeIDs(selector, &ids, chromedp.ByQuery).Do(ctx); err != nil {
			return err
		}
		if len(ids) == 0 {
			return fmt.Errorf("no node for %q", selector)
		}

		box, err := dom.GetBoxModel().WithNodeID(ids[0]).Do(ctx)
		if err != nil {
			return err
		}
		if box == nil || len(box.Content) < 8 {
			return fmt.Errorf("no box model for %q", selector)
		}
		x := (box.Content[0] + box.Content[4]) / 2
		y := (box.Content[1] + box.Content[5]) / 2

		press := input.DispatchMouseEvent(input.MousePressed, x, y).
			WithButton(input.Left).WithClickCount(1)
		if err := press.Do(ctx); err != nil {
			return err
		}
		release := input.DispatchMouseEvent(input.MouseReleased, x, y).
			WithButton(input.Left).WithClickCount(1)
		return release.Do(ctx)
	}))
}

func (c *Chrome) SendKeys(ctx context.Context, selector, text string) error {
	keysCtx, cancel := context.WithTimeout(ctx, c.shortTimeout)
	defer cancel()
	if err := c.run(keysCtx, chromedp.SendKeys(selector, text, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("send keys to %q: %w", selector, err)
	}
	return nil
}

func (c *Chrome) Text(ctx context.Context, selector string) (string, error) {
	textCtx, cancel := context.WithTimeout(ctx, c.shortTimeout)
	defer cancel()
	var text string
	if err := c.run(textCtx, chromedp.Text(selector, &text, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("text of %q: %w", selector, err)
	}
	return strings.TrimSpace(text), nil
}

func (c *Chrome) Attr(ctx context.Context, selector, name string) (string, bool, error) {
	attrCtx, cancel := context.WithTimeout(ctx, c.shortTimeout)
	defer cancel()
	var value string
	var ok bool
	if err := c.run(attrCtx, chromedp.AttributeValue(selector, name, &value, &ok, chromedp.ByQuery)); err != nil {
		return "", false, fmt.Errorf("attribute %q of %q: %w", name, selector, err)
	}
	return value, ok, nil
}

func (c *Chrome) OuterHTML(ctx context.Context, selector string) (string, error) {
	htmlCtx, cancel := context.WithTimeout(ctx, c.shortTimeout)
	defer cancel()
	var html string
	if err := c.run(htmlCtx, chromedp.OuterHTML(selector, &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("outer html of %q: %w", selector, err)
	}
	return html, nil
}

func (c *Chrome) Count(ctx context.Context, selector string) (int, error) {
	countCtx, cancel := context.WithTimeout(ctx, c.shortTimeout)
	defer cancel()
	var count int
	js := fmt.Sprintf(`document.querySelectorAll(%q).length`, selector)
	if err := c.run(countCtx, chromedp.Evaluate(js, &count)); err != nil {
		return 0, fmt.Errorf("count %q: %w", selector, err)
	}
	return count, nil
}

func (c *Chrome) Eval(ctx context.Context, expression string, out interface{}) error {
	if out == nil {
		var discard interface{}
		out = &discard
	}
	return c.run(ctx, chromedp.Evaluate(expression, out))
}

func (c *Chrome) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		data, err := page.CaptureScreenshot().WithFormat(page.CaptureScreenshotFormatPng).Do(ctx)
		if err != nil {
			return err
		}
		buf = data
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return buf, nil
}

func (c *Chrome) Close() error {
	c.browserCancel()
	c.allocatorCancel()
	c.logger.Debug().Msg("Chrome instance closed")
	return nil
}

var _ interfaces.Browser = (*Chrome)(nil)
