package session

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"

	"pindl/pkg/auth"
	"pindl/pkg/config"
	errs "pindl/pkg/errors"
	"pindl/pkg/logger"
	"pindl/pkg/models"
)

// Selectors used on Pinterest pages. These track the current markup of the
// web app and are the first thing to check when extraction breaks.
const (
	selSignInButton       = `[data-test-id="simple-login-button"]`
	selEmailInput         = `[data-test-id="emailInputField"]`
	selPasswordInput      = `[data-test-id="passwordInputField"]`
	selLoginSubmit        = `[data-test-id="registerFormSubmitButton"]`
	selActionBarButton    = `[data-test-id="closeup-action-bar-button"] button`
	selEditPinMenuOption  = `[data-test-id="pin-action-dropdown-edit-pin"]`
	selEditPinCoverBox    = `[data-test-id="edit-pin-cover-box"]`
	selEditPinCoverImage  = `[data-test-id="edit-pin-cover-box"] img`
	jsCollectGridHTML     = `[...document.querySelectorAll('.masonryContainer')].map(el => el.outerHTML).join('')`
	jsBoardTitle          = `(() => { const h = document.querySelectorAll('.mainContainer h1'); return h.length ? h[h.length - 1].textContent : ''; })()`
	jsScrollDown          = `scrollBy(0, window.innerHeight)`
	jsScrollPosition      = `(() => { const el = document.scrollingElement; if (!el) return {scrollValue: 0, scrollHeight: 1}; return {scrollHeight: el.scrollHeight, scrollValue: Math.ceil(el.scrollTop + window.innerHeight)}; })()`
)

// Session drives a Chrome instance against Pinterest. All page interaction of
// the crawler goes through it.
type Session struct {
	ctx         context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
	baseURL     string
	navTimeout  time.Duration
	waitTimeout time.Duration
	scrollDelay time.Duration
	logger      logger.Logger
}

// New launches a browser and returns a ready session. Close must be called
// to shut the browser down.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Browser.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(cfg.Pinterest.UserAgent),
		chromedp.WindowSize(1280, 1024),
	)
	if cfg.Browser.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.Browser.ChromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelCtx := chromedp.NewContext(allocCtx)

	// Force the browser to start now so a missing Chrome binary surfaces
	// here instead of on the first navigation.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelCtx()
		cancelAlloc()
		return nil, errs.New(errs.ErrorTypeUnknown, "failed to launch browser: %v", err)
	}

	return &Session{
		ctx:         browserCtx,
		cancelCtx:   cancelCtx,
		cancelAlloc: cancelAlloc,
		baseURL:     cfg.Pinterest.BaseURL,
		navTimeout:  cfg.Browser.NavTimeout,
		waitTimeout: cfg.Browser.WaitTimeout,
		scrollDelay: cfg.Browser.ScrollDelay,
		logger:      log.WithField("component", "session"),
	}, nil
}

// Close shuts the browser down.
func (s *Session) Close() error {
	s.cancelCtx()
	s.cancelAlloc()
	return nil
}

// SetCookies installs a captured cookie set into the browser before any
// navigation, so board pages render as the logged in user.
func (s *Session) SetCookies(cookies auth.CookieSet) error {
	return chromedp.Run(s.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, c := range cookies {
			expires := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
			err := network.SetCookie(c.Name, c.Value).
				WithDomain(c.Domain).
				WithPath(c.Path).
				WithHTTPOnly(c.HTTPOnly).
				WithSecure(c.Secure).
				WithExpires(&expires).
				Do(ctx)
			if err != nil {
				return err
			}
		}
		return nil
	}))
}

// Cookies captures the browser's current cookie jar.
func (s *Session) Cookies() ([]auth.Cookie, error) {
	var captured []auth.Cookie
	err := chromedp.Run(s.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := storage.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		for _, c := range cookies {
			captured = append(captured, auth.Cookie{
				Name:     c.Name,
				Value:    c.Value,
				Domain:   c.Domain,
				Path:     c.Path,
				Expires:  c.Expires,
				HTTPOnly: c.HTTPOnly,
				Secure:   c.Secure,
			})
		}
		return nil
	}))
	if err != nil {
		return nil, errs.New(errs.ErrorTypeAuth, "failed to capture cookies: %v", err)
	}
	return captured, nil
}

// Navigate opens a URL and waits for the initial render to settle.
func (s *Session) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := s.action(ctx, s.navTimeout)
	defer cancel()

	s.logger.DebugWithFields("navigating", map[string]interface{}{"url": url})

	err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(2*time.Second),
	)
	if err != nil {
		return errs.New(errs.ErrorTypeNetwork, "navigation to %s failed: %v", url, err)
	}
	return nil
}

// Title reads the board title off the current page. Boards render the name
// in the last heading of the main container.
func (s *Session) Title(ctx context.Context) (string, error) {
	runCtx, cancel := s.action(ctx, s.waitTimeout)
	defer cancel()

	var title string
	err := chromedp.Run(runCtx, chromedp.Evaluate(jsBoardTitle, &title))
	if err != nil || title == "" {
		return "", errs.New(errs.ErrorTypeExtraction, "board title not found")
	}
	return title, nil
}

// ExtractViewportItems parses every grid item currently rendered in the
// masonry containers.
func (s *Session) ExtractViewportItems(ctx context.Context) ([]models.RawItem, error) {
	runCtx, cancel := s.action(ctx, s.waitTimeout)
	defer cancel()

	var html string
	if err := chromedp.Run(runCtx, chromedp.Evaluate(jsCollectGridHTML, &html)); err != nil {
		return nil, errs.New(errs.ErrorTypeExtraction, "failed to read grid markup: %v", err)
	}
	if html == "" {
		return nil, nil
	}
	return ParseGridItems(html)
}

// Scroll advances the page by one viewport height and waits for new tiles
// to load in.
func (s *Session) Scroll(ctx context.Context) error {
	runCtx, cancel := s.action(ctx, s.waitTimeout+s.scrollDelay)
	defer cancel()

	return chromedp.Run(runCtx,
		chromedp.Evaluate(jsScrollDown, nil),
		chromedp.Sleep(s.scrollDelay),
	)
}

// AtBottom reports whether the page cannot scroll any further.
func (s *Session) AtBottom(ctx context.Context) (bool, error) {
	runCtx, cancel := s.action(ctx, s.waitTimeout)
	defer cancel()

	var pos struct {
		ScrollValue  float64 `json:"scrollValue"`
		ScrollHeight float64 `json:"scrollHeight"`
	}
	err := chromedp.Run(runCtx,
		chromedp.Sleep(500*time.Millisecond),
		chromedp.Evaluate(jsScrollPosition, &pos),
	)
	if err != nil {
		return false, errs.New(errs.ErrorTypeExtraction, "failed to read scroll position: %v", err)
	}
	return pos.ScrollValue >= pos.ScrollHeight, nil
}

// RecoverDeletedPin opens a pin whose source content was removed and digs
// the still-cached cover image out of the edit dialog.
func (s *Session) RecoverDeletedPin(ctx context.Context, pinURL string) (string, error) {
	if err := s.Navigate(ctx, pinURL); err != nil {
		return "", err
	}

	runCtx, cancel := s.action(ctx, s.navTimeout)
	defer cancel()

	var src string
	err := chromedp.Run(runCtx,
		chromedp.Click(selActionBarButton, chromedp.ByQuery),
		chromedp.Sleep(500*time.Millisecond),
		chromedp.Click(selEditPinMenuOption, chromedp.ByQuery),
		chromedp.Sleep(500*time.Millisecond),
		chromedp.WaitVisible(selEditPinCoverBox, chromedp.ByQuery),
		chromedp.AttributeValue(selEditPinCoverImage, "src", &src, nil, chromedp.ByQuery),
	)
	if err != nil {
		return "", errs.New(errs.ErrorTypeResolution, "deleted pin recovery failed: %v", err)
	}
	if src == "" {
		return "", errs.New(errs.ErrorTypeResolution, "deleted pin cover image has no source")
	}
	return src, nil
}

// Login walks the interactive sign in form and returns once the session is
// established. The caller captures cookies afterwards.
func (s *Session) Login(ctx context.Context, email, password string) error {
	if err := s.Navigate(ctx, s.baseURL+"/"); err != nil {
		return err
	}

	runCtx, cancel := s.action(ctx, s.navTimeout)
	defer cancel()

	err := chromedp.Run(runCtx,
		chromedp.Click(selSignInButton, chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
		chromedp.WaitVisible(selEmailInput, chromedp.ByQuery),
		chromedp.SendKeys(selEmailInput, email, chromedp.ByQuery),
		chromedp.SendKeys(selPasswordInput, password, chromedp.ByQuery),
		chromedp.Click(selLoginSubmit, chromedp.ByQuery),
		chromedp.Sleep(5*time.Second),
	)
	if err != nil {
		return errs.New(errs.ErrorTypeAuth, "login flow failed: %v", err)
	}

	s.logger.Info("login form submitted")
	return nil
}

// action derives a run context for one browser action. chromedp actions must
// run on the browser context, so caller cancellation is forwarded into it.
func (s *Session) action(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithTimeout(s.ctx, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}
