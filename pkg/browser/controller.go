// Package browser owns the single automation session against the messaging
// web client: engine launch, the one-time landing sequence, and teardown.
// The rest of the system only sees the Session's page handle.
package browser

import (
	"io"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/zapdrive/zapdrive/pkg/config"
)

// Landmarks on the landing page. The conversation-list pane is the signal
// that the authenticated client finished loading; the dialog selector
// matches the occasional "update available" interstitial.
const (
	conversationListSelector = "#pane-side"
	interstitialSelector     = `div[role="dialog"] button, div[role="dialog"] div[role="button"]`

	// The interstitial either shows immediately after load or not at all,
	// so its probe gets a short fixed budget.
	interstitialTimeoutMs = 2000.0
)

// Session is one live browser session. Exactly one exists per process at a
// time; the controller enforces that.
type Session struct {
	Context   playwright.BrowserContext
	Page      playwright.Page
	CreatedAt time.Time
}

// Controller launches and tears down the browser session.
type Controller struct {
	cfg    config.Config
	logger *zap.Logger

	mu     sync.Mutex
	pw     *playwright.Playwright
	active bool
}

// NewController creates a session controller. The logger may be nil.
func NewController(cfg config.Config, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{cfg: cfg, logger: logger}
}

// Start launches the automation engine, opens the messaging client with the
// persistent (pre-authenticated) profile, waits for the conversation-list
// landmark, and dismisses an interstitial overlay if one is showing. Any
// failure is returned as a *SessionStartError after partial resources are
// released.
func (c *Controller) Start() (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active {
		return nil, startError("a session is already active; concurrent sessions are not supported")
	}

	// The client only works against an interactively authenticated profile
	// (the QR scan happens out of band), so headless runs are refused
	// outright instead of failing mid-batch.
	if !c.cfg.Headful {
		return nil, startError("headless mode is not supported: the target service requires a visible, authenticated browser profile")
	}

	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if err := playwright.Install(runOpts); err != nil {
		return nil, startError("install driver: %w", err)
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, startError("start driver: %w", err)
	}

	context, err := pw.Chromium.LaunchPersistentContext(c.cfg.ProfileDir, launchOptions(c.cfg))
	if err != nil {
		c.stopDriver(pw)
		return nil, startError("launch browser: %w", err)
	}

	page, err := contextPage(context)
	if err != nil {
		c.closeContext(context)
		c.stopDriver(pw)
		return nil, startError("open page: %w", err)
	}

	waitMs := float64(c.cfg.WaitTimeout().Milliseconds())
	if _, err := page.Goto(c.cfg.ServiceURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(waitMs),
	}); err != nil {
		c.closeContext(context)
		c.stopDriver(pw)
		return nil, startError("open %s: %w", c.cfg.ServiceURL, err)
	}

	if _, err := page.WaitForSelector(conversationListSelector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(waitMs),
	}); err != nil {
		c.closeContext(context)
		c.stopDriver(pw)
		return nil, startError("conversation list did not appear: %w", err)
	}

	c.dismissInterstitial(page)

	c.pw = pw
	c.active = true
	c.logger.Info("session started",
		zap.String("service", c.cfg.ServiceURL),
		zap.String("profile", c.cfg.ProfileDir),
	)

	return &Session{
		Context:   context,
		Page:      page,
		CreatedAt: time.Now(),
	}, nil
}

// Stop releases the session. Every failure during release is logged and
// swallowed so teardown can never mask the real outcome of a run.
func (c *Controller) Stop(session *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if session != nil {
		if session.Page != nil {
			if err := session.Page.Close(); err != nil {
				c.logger.Warn("page close failed", zap.Error(err))
			}
		}
		if session.Context != nil {
			c.closeContext(session.Context)
		}
	}

	if c.pw != nil {
		c.stopDriver(c.pw)
		c.pw = nil
	}
	c.active = false
	c.logger.Info("session stopped")
}

// dismissInterstitial performs a single best-effort click on a known
// overlay. Absence of the overlay is the normal case, not an error.
func (c *Controller) dismissInterstitial(page playwright.Page) {
	dismiss := page.Locator(interstitialSelector).First()

	if err := dismiss.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(interstitialTimeoutMs),
	}); err != nil {
		return
	}

	if err := dismiss.Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(interstitialTimeoutMs),
	}); err != nil {
		c.logger.Debug("interstitial dismissal failed", zap.Error(err))
		return
	}
	c.logger.Debug("interstitial dismissed")
}

func (c *Controller) closeContext(context playwright.BrowserContext) {
	if err := context.Close(); err != nil {
		c.logger.Warn("context close failed", zap.Error(err))
	}
}

func (c *Controller) stopDriver(pw *playwright.Playwright) {
	if err := pw.Stop(); err != nil {
		c.logger.Warn("driver stop failed", zap.Error(err))
	}
}

// launchOptions translates configuration into Chromium launch options.
func launchOptions(cfg config.Config) playwright.BrowserTypeLaunchPersistentContextOptions {
	opts := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(!cfg.Headful),
		Args:     launchArgs(cfg),
	}
	if cfg.SuppressAutomation {
		opts.IgnoreDefaultArgs = []string{"--enable-automation"}
	}
	return opts
}

// launchArgs builds the Chromium argument list for the configured
// suppression and page-weight settings.
func launchArgs(cfg config.Config) []string {
	var args []string
	if cfg.SuppressAutomation {
		args = append(args, "--disable-blink-features=AutomationControlled")
	}
	if cfg.DisableImages {
		args = append(args,
			"--blink-settings=imagesEnabled=false",
			"--disable-extensions",
		)
	}
	return args
}

// contextPage reuses the profile's initial page when the persistent context
// opens with one, and creates a page otherwise.
func contextPage(context playwright.BrowserContext) (playwright.Page, error) {
	if pages := context.Pages(); len(pages) > 0 {
		return pages[0], nil
	}
	return context.NewPage()
}
