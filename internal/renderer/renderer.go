// Package renderer drives a headless browser to produce still images of web
// pages, optionally seeking an embedded video to a target second first.
//
// Every render runs in its own isolated browser session that is torn down on
// all exit paths. Failures are reported through a small typed error set so
// callers can distinguish navigation trouble from a missing video element or
// a capture failure.
package renderer

import (
	"context"
	"fmt"
)

// Viewport is the browser window size for a render.
type Viewport struct {
	Width  int
	Height int
}

// Narrow/tall for short-form video, wide for general pages.
var (
	ShortsViewport = Viewport{Width: 540, Height: 960}
	PageViewport   = Viewport{Width: 1280, Height: 800}
)

// Options controls a single render.
type Options struct {
	// Viewport sizes the browser window. Zero value falls back to PageViewport.
	Viewport Viewport

	// FullPage captures the whole scrollable page instead of the viewport.
	FullPage bool

	// SeekSeconds, when non-nil, seeks the page's <video> element to the
	// given second and pauses it before capture.
	SeekSeconds *int
}

// Engine renders a URL to JPEG bytes. Implementations must close whatever
// session they open before returning, success or failure.
type Engine interface {
	Render(ctx context.Context, url string, opts Options) ([]byte, error)
}

// NavigationError reports that the page could not be loaded within budget.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s failed: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// VideoNotFoundError reports that no <video> element appeared before the
// wait budget expired.
type VideoNotFoundError struct {
	URL string
	Err error
}

func (e *VideoNotFoundError) Error() string {
	return fmt.Sprintf("no video element found on %s", e.URL)
}

func (e *VideoNotFoundError) Unwrap() error { return e.Err }

// CaptureError reports that the screenshot itself failed after the page was
// ready.
type CaptureError struct {
	URL string
	Err error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("screenshot capture on %s failed: %v", e.URL, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }
