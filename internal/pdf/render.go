package pdf

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"quote-service/internal/domain"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const (
	a4WidthInches  = 8.27
	a4HeightInches = 11.69
	marginInches   = 15 / 25.4
)

type Options struct {
	RenderTimeout      time.Duration
	NetworkIdleTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.RenderTimeout <= 0 {
		o.RenderTimeout = 60 * time.Second
	}
	if o.NetworkIdleTimeout <= 0 {
		o.NetworkIdleTimeout = 10 * time.Second
	}
	return o
}

// RenderPDF loads html into a fresh tab, waits for the network to go idle and
// prints an A4 page set with 15mm margins and backgrounds.
func (b *Browser) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	lease, err := b.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer lease.Release()

	tabCtx, closeTab := chromedp.NewContext(lease.Context())
	defer closeTab()
	tabCtx, cancel := context.WithTimeout(tabCtx, b.opts.RenderTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	// Only the idle event of the latest document counts; the blank page a new
	// tab starts with reports its own lifecycle.
	var (
		mu          sync.Mutex
		loader      cdp.LoaderID
		idleOnce    sync.Once
		networkIdle = make(chan struct{})
	)
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		e, ok := ev.(*page.EventLifecycleEvent)
		if !ok {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		switch e.Name {
		case "init":
			loader = e.LoaderID
		case "networkIdle":
			if e.LoaderID == loader {
				idleOnce.Do(func() { close(networkIdle) })
			}
		}
	})

	start := time.Now()
	var out []byte
	err = chromedp.Run(tabCtx,
		chromedp.Navigate("data:text/html;base64,"+base64.StdEncoding.EncodeToString([]byte(html))),
		chromedp.ActionFunc(func(ctx context.Context) error {
			t := time.NewTimer(b.opts.NetworkIdleTimeout)
			defer t.Stop()
			select {
			case <-networkIdle:
			case <-t.C:
				b.logger.Warn().Dur("waited", b.opts.NetworkIdleTimeout).Msg("network not idle, printing anyway")
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPaperWidth(a4WidthInches).
				WithPaperHeight(a4HeightInches).
				WithMarginTop(marginInches).
				WithMarginBottom(marginInches).
				WithMarginLeft(marginInches).
				WithMarginRight(marginInches).
				WithPrintBackground(true).
				Do(ctx)
			out = buf
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: print pdf: %v", domain.ErrRender, err)
	}
	b.logger.Debug().Int("bytes", len(out)).Dur("elapsed", time.Since(start)).Msg("pdf rendered")
	return out, nil
}
