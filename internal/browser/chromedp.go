package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"abcbizreport/internal/logging"
)

// chromedpPage drives one tab of a chromedp-managed browser process. The
// process is owned by the page: Close tears both down.
type chromedpPage struct {
	cfg Config

	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc

	closeOnce sync.Once
}

func newChromedpPage(cfg Config, logger logging.Logger) (*chromedpPage, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.WindowSize(cfg.Width, cfg.Height),
		chromedp.UserAgent(cfg.UserAgent),
		// The portal misbehaves with the defaults for these.
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-popup-blocking", false),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.NoSandbox,
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	// The SPA logs selector-relevant errors to its own console; surface
	// them at debug level for selector drift diagnosis.
	chromedp.ListenTarget(tabCtx, func(ev any) {
		switch e := ev.(type) {
		case *runtime.EventConsoleAPICalled:
			args := make([]string, 0, len(e.Args))
			for _, a := range e.Args {
				args = append(args, string(a.Value))
			}
			logger.Debug("page console",
				logging.Field{Key: "type", Value: string(e.Type)},
				logging.Field{Key: "args", Value: strings.Join(args, " ")})
		case *runtime.EventExceptionThrown:
			logger.Debug("page exception", logging.Field{Key: "detail", Value: e.ExceptionDetails.Error()})
		}
	})

	// Run a no-op so the browser process starts now and a broken
	// environment surfaces as a constructor error, not mid-session.
	startCtx, cancel := context.WithTimeout(tabCtx, cfg.NavTimeout)
	defer cancel()
	if err := chromedp.Run(startCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	return &chromedpPage{
		cfg:         cfg,
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
	}, nil
}

// run executes actions against the tab under timeout, honoring cancellation
// of the caller's ctx as well.
func (p *chromedpPage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	tctx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(tctx, actions...)
}

func (p *chromedpPage) Navigate(ctx context.Context, url string) (int, error) {
	tctx, cancel := context.WithTimeout(p.ctx, p.cfg.NavTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	resp, err := chromedp.RunResponse(tctx, chromedp.Navigate(url))
	if err != nil {
		return 0, err
	}
	if resp == nil {
		return 0, nil
	}
	return int(resp.Status), nil
}

func (p *chromedpPage) WaitVisible(ctx context.Context, sel string) error {
	return p.run(ctx, p.cfg.StepTimeout, chromedp.WaitVisible(sel, chromedp.ByQuery))
}

func (p *chromedpPage) Type(ctx context.Context, sel, text string) error {
	return p.run(ctx, p.cfg.StepTimeout, chromedp.SendKeys(sel, text, chromedp.ByQuery))
}

func (p *chromedpPage) Click(ctx context.Context, sel string) error {
	return p.run(ctx, p.cfg.StepTimeout, chromedp.Click(sel, chromedp.ByQuery))
}

func (p *chromedpPage) Exists(ctx context.Context, sel string) (bool, error) {
	var found bool
	expr := fmt.Sprintf(`document.querySelector(%q) !== null`, sel)
	if err := p.run(ctx, p.cfg.StepTimeout, chromedp.Evaluate(expr, &found)); err != nil {
		return false, err
	}
	return found, nil
}

func (p *chromedpPage) Text(ctx context.Context, sel string) (string, bool, error) {
	var res struct {
		Found bool   `json:"found"`
		Text  string `json:"text"`
	}
	expr := fmt.Sprintf(
		`(() => { const el = document.querySelector(%q); return { found: el !== null, text: el ? el.innerText.trim() : "" }; })()`,
		sel,
	)
	if err := p.run(ctx, p.cfg.StepTimeout, chromedp.Evaluate(expr, &res)); err != nil {
		return "", false, err
	}
	return res.Text, res.Found, nil
}

func (p *chromedpPage) OuterHTML(ctx context.Context, sel string) (string, error) {
	var html string
	err := p.run(ctx, p.cfg.StepTimeout, chromedp.OuterHTML(sel, &html, chromedp.ByQuery))
	if err != nil {
		return "", err
	}
	return html, nil
}

func (p *chromedpPage) Evaluate(ctx context.Context, expr string, out any) error {
	return p.run(ctx, p.cfg.StepTimeout, chromedp.Evaluate(expr, out))
}

func (p *chromedpPage) ScrollBy(ctx context.Context, fraction float64) error {
	expr := fmt.Sprintf(`window.scrollBy(0, Math.floor(window.innerHeight * %f))`, fraction)
	return p.Evaluate(ctx, expr, nil)
}

func (p *chromedpPage) Close() error {
	p.closeOnce.Do(func() {
		p.cancelTab()
		p.cancelAlloc()
	})
	return nil
}
