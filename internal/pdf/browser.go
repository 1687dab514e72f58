// Package pdf rasterizes HTML into PDF documents with a shared headless Chrome.
//
// A Browser owns at most one Chrome process. Callers borrow it through leases;
// every render opens its own tab, so a failing render only loses its own tab.
package pdf

import (
	"context"
	"fmt"
	"sync"

	"quote-service/internal/domain"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

// ErrClosed is returned by Acquire after Close has been called.
var ErrClosed = fmt.Errorf("browser closed: %w", domain.ErrRender)

// Launcher starts a browser and returns its context. Cancelling the returned
// function must terminate the browser process.
type Launcher func(ctx context.Context) (context.Context, context.CancelFunc, error)

// ChromeLauncher starts a headless Chrome without the sandbox, which restricted
// containers require. An empty execPath lets chromedp locate the binary.
func ChromeLauncher(execPath string) Launcher {
	return func(ctx context.Context) (context.Context, context.CancelFunc, error) {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.NoSandbox,
			chromedp.DisableGPU,
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("font-render-hinting", "none"),
		)
		if execPath != "" {
			opts = append(opts, chromedp.ExecPath(execPath))
		}
		// The browser outlives the request that launched it.
		allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), opts...)
		browserCtx, browserCancel := chromedp.NewContext(allocCtx)
		if err := chromedp.Run(browserCtx); err != nil {
			browserCancel()
			allocCancel()
			return nil, nil, err
		}
		return browserCtx, func() {
			browserCancel()
			allocCancel()
		}, nil
	}
}

// Browser is a lazily launched, reference-counted browser handle.
type Browser struct {
	launch Launcher
	logger zerolog.Logger
	opts   Options

	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	leases   int
	idle     chan struct{}
	closed   bool
	launches int
}

func NewBrowser(launch Launcher, logger zerolog.Logger, opts Options) *Browser {
	return &Browser{launch: launch, logger: logger, opts: opts.withDefaults()}
}

// Lease is a borrowed reference to the running browser.
type Lease struct {
	ctx  context.Context
	once sync.Once
	b    *Browser
}

// Context is the browser context tabs are created from.
func (l *Lease) Context() context.Context { return l.ctx }

// Release returns the lease. Calling it more than once is a no-op.
func (l *Lease) Release() {
	l.once.Do(l.b.release)
}

// Acquire returns a lease on the browser, launching it first if there is none
// or the previous process is gone. Launches are serialized.
func (b *Browser) Acquire(ctx context.Context) (*Lease, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	if b.ctx == nil || b.ctx.Err() != nil {
		if b.cancel != nil {
			b.cancel()
		}
		bctx, cancel, err := b.launch(ctx)
		if err != nil {
			b.ctx, b.cancel = nil, nil
			return nil, fmt.Errorf("%w: launch browser: %v", domain.ErrRender, err)
		}
		b.ctx, b.cancel = bctx, cancel
		b.launches++
		b.logger.Info().Int("launches", b.launches).Msg("browser launched")
	}
	if b.leases == 0 {
		b.idle = make(chan struct{})
	}
	b.leases++
	return &Lease{ctx: b.ctx, b: b}, nil
}

func (b *Browser) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.leases--
	if b.leases == 0 && b.idle != nil {
		close(b.idle)
		b.idle = nil
	}
}

// Connected reports whether a browser process is currently running.
func (b *Browser) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ctx != nil && b.ctx.Err() == nil
}

// Close stops accepting leases, waits for outstanding ones until ctx is done
// and terminates the browser. It is safe to call when nothing was launched.
func (b *Browser) Close(ctx context.Context) error {
	b.mu.Lock()
	b.closed = true
	idle := b.idle
	b.mu.Unlock()

	var waitErr error
	if idle != nil {
		select {
		case <-idle:
		case <-ctx.Done():
			waitErr = fmt.Errorf("browser close: leases outstanding: %w", ctx.Err())
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		b.cancel()
		b.logger.Info().Msg("browser closed")
	}
	b.ctx, b.cancel = nil, nil
	return waitErr
}
