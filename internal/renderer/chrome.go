package renderer

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// seekScript sets the playback position of the page's first <video> element
// and pauses it. Evaluates to true when the element exists.
const seekScript = `(() => {
	const video = document.querySelector('video');
	if (!video) return false;
	video.currentTime = %d;
	if (!video.paused) video.pause();
	return true;
})()`

// Chrome is the chromedp-backed Engine. One shared exec allocator hands out
// isolated browser sessions; each Render gets a fresh session and cancels it
// before returning.
type Chrome struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc

	navTimeout  time.Duration
	videoWait   time.Duration
	settleDelay time.Duration
	quality     int
}

var _ Engine = (*Chrome)(nil)

// ChromeConfig carries the renderer's stage budgets.
type ChromeConfig struct {
	NavTimeout  time.Duration
	VideoWait   time.Duration
	SettleDelay time.Duration
	JPEGQuality int
}

// NewChrome prepares the shared allocator. Browser processes launch lazily,
// one per Render call.
func NewChrome(cfg ChromeConfig) *Chrome {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Chrome{
		allocCtx:    allocCtx,
		allocCancel: cancel,
		navTimeout:  cfg.NavTimeout,
		videoWait:   cfg.VideoWait,
		settleDelay: cfg.SettleDelay,
		quality:     cfg.JPEGQuality,
	}
}

// Close releases the allocator and any browsers it still owns.
func (c *Chrome) Close() {
	c.allocCancel()
}

// Render navigates to url in a fresh browser session and returns JPEG bytes.
// The session is cancelled on every exit path. An overall deadline derived
// from the stage budgets guards against a hung session stalling its batch.
func (c *Chrome) Render(ctx context.Context, url string, opts Options) ([]byte, error) {
	vp := opts.Viewport
	if vp.Width == 0 || vp.Height == 0 {
		vp = PageViewport
	}

	sessionCtx, cancelSession := chromedp.NewContext(c.allocCtx)
	defer cancelSession()

	// Overall budget: navigation + video wait + settle, plus slack for
	// browser startup and the capture itself.
	budget := c.navTimeout + c.videoWait + c.settleDelay + 10*time.Second
	runCtx, cancelRun := context.WithTimeout(sessionCtx, budget)
	defer cancelRun()

	// Honor caller cancellation without tying the session to the request
	// context's values.
	stop := context.AfterFunc(ctx, cancelRun)
	defer stop()

	start := time.Now()

	navCtx, cancelNav := context.WithTimeout(runCtx, c.navTimeout)
	defer cancelNav()
	err := chromedp.Run(navCtx,
		chromedp.EmulateViewport(int64(vp.Width), int64(vp.Height)),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return nil, &NavigationError{URL: url, Err: err}
	}

	if opts.SeekSeconds != nil {
		if err := c.seekVideo(runCtx, url, *opts.SeekSeconds); err != nil {
			return nil, err
		}
	}

	var buf []byte
	if opts.FullPage {
		err = chromedp.Run(runCtx, chromedp.FullScreenshot(&buf, c.quality))
	} else {
		err = chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
			var capErr error
			buf, capErr = page.CaptureScreenshot().
				WithFormat(page.CaptureScreenshotFormatJpeg).
				WithQuality(int64(c.quality)).
				Do(ctx)
			return capErr
		}))
	}
	if err != nil {
		return nil, &CaptureError{URL: url, Err: err}
	}

	log.Debug().
		Str("url", url).
		Bool("fullPage", opts.FullPage).
		Int("bytes", len(buf)).
		Dur("elapsed", time.Since(start)).
		Msg("Page rendered")

	return buf, nil
}

// seekVideo waits for the <video> element, seeks it, and lets the frame
// settle before the caller captures.
func (c *Chrome) seekVideo(ctx context.Context, url string, second int) error {
	waitCtx, cancelWait := context.WithTimeout(ctx, c.videoWait)
	defer cancelWait()
	if err := chromedp.Run(waitCtx, chromedp.WaitVisible("video", chromedp.ByQuery)); err != nil {
		return &VideoNotFoundError{URL: url, Err: err}
	}

	var seeked bool
	script := fmt.Sprintf(seekScript, second)
	if err := chromedp.Run(ctx,
		chromedp.Evaluate(script, &seeked),
		chromedp.Sleep(c.settleDelay),
	); err != nil {
		return &CaptureError{URL: url, Err: fmt.Errorf("seek to %ds: %w", second, err)}
	}
	if !seeked {
		return &VideoNotFoundError{URL: url}
	}
	return nil
}
