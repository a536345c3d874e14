package interfaces

import (
	"context"
	"time"
)

// Browser is the capability surface the pipeline needs from a controllable
// browser. One instance is owned exclusively by one session's pipeline;
// callers borrow it transiently and must not retain it past their call.
type Browser interface {
	// Navigate loads the given URL and waits for the load event.
	Navigate(ctx context.Context, url string) error

	// CurrentURL returns the URL of the active page.
	CurrentURL(ctx context.Context) (string, error)

	// WaitVisible blocks until the selector matches a visible element or
	// the timeout expires.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error

	// WaitNotPresent blocks until no element matches the selector or the
	// timeout expires. Used for overlay dismissal.
	WaitNotPresent(ctx context.Context, selector string, timeout time.Duration) error

	// Click clicks the first element matching the selector, escalating
	// from a direct click to a scripted click to a simulated pointer
	// event when the target intercepts or rejects the interaction.
	Click(ctx context.Context, selector string) error

	// SendKeys types text into the element matching the selector.
	SendKeys(ctx context.Context, selector, text string) error

	// Text returns the trimmed inner text of the first matching element.
	Text(ctx context.Context, selector string) (string, error)

	// Attr returns the named attribute of the first matching element.
	// ok is false when the element exists but lacks the attribute.
	Attr(ctx context.Context, selector, name string) (value string, ok bool, err error)

	// OuterHTML returns the serialized HTML of the first matching element.
	OuterHTML(ctx context.Context, selector string) (string, error)

	// Count returns the number of elements matching the selector.
	Count(ctx context.Context, selector string) (int, error)

	// Eval runs a JavaScript expression in the page, unmarshaling the
	// result into out when out is non-nil.
	Eval(ctx context.Context, expression string, out interface{}) error

	// Screenshot captures the current viewport as PNG bytes.
	Screenshot(ctx context.Context) ([]byte, error)

	// Close tears down the browser and its allocator.
	Close() error
}

// BrowserOptions controls browser provisioning.
type BrowserOptions struct {
	// Kind names the browser engine; only "chrome" is supported.
	Kind     string
	Headless bool
}

// BrowserManager provisions browsers and tracks them by handle ID so the
// API surface can create, associate, and release them independently of
// session lifecycle.
type BrowserManager interface {
	Create(ctx context.Context, opts BrowserOptions) (string, Browser, error)
	Get(id string) (Browser, bool)
	List() []string
	Close(id string) error
	CloseAll() error
}
