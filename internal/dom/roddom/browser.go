package roddom

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"

	"github.com/bamdow/folio/internal/config"
)

const navigateTimeout = 30 * time.Second

// Browser is a Chrome instance, launched locally or reached over a
// remote DevTools URL.
type Browser struct {
	cfg     config.BrowserConfig
	log     *zap.Logger
	browser *rod.Browser
	lnch    *launcher.Launcher
}

func Launch(ctx context.Context, cfg config.BrowserConfig, log *zap.Logger) (*Browser, error) {
	if log == nil {
		log = zap.NewNop()
	}
	b := &Browser{cfg: cfg, log: log}

	wsURL := cfg.RemoteURL
	if wsURL != "" {
		log.Info("connecting to remote browser", zap.String("url", wsURL))
	} else {
		l := launcher.New().Context(ctx).Headless(cfg.Headless)
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		b.lnch = l
		log.Info("launched local chrome", zap.String("url", wsURL), zap.Bool("headless", cfg.Headless))
	}

	rb := rod.New().ControlURL(wsURL)
	if err := rb.Connect(); err != nil {
		b.cleanup()
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	b.browser = rb
	return b, nil
}

// Open creates a tab, navigates to url and waits for the load event.
func (b *Browser) Open(ctx context.Context, url string) (*rod.Page, error) {
	var page *rod.Page
	var err error
	if b.cfg.Stealth {
		page, err = stealth.Page(b.browser)
	} else {
		page, err = b.browser.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, navigateTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(url); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		b.log.Warn("wait load timeout", zap.String("url", url), zap.Error(err))
	}
	return page, nil
}

func (b *Browser) Close() error {
	b.cleanup()
	return nil
}

func (b *Browser) cleanup() {
	if b.browser != nil {
		b.browser.Close()
		b.browser = nil
	}
	if b.lnch != nil {
		b.lnch.Cleanup()
		b.lnch = nil
	}
}
