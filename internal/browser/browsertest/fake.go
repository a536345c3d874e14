// Package browsertest provides a scripted in-memory Browser for service
// tests. Behaviors default to benign success; tests override the hook
// functions they care about and assert on the recorded calls.
package browsertest

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/prospect/internal/interfaces"
)

// Call records one interaction with the fake.
type Call struct {
	Op       string
	Selector string
	Value    string
}

// Fake implements interfaces.Browser with overridable hooks.
type Fake struct {
	mu    sync.Mutex
	calls []Call

	NavigateFunc       func(url string) error
	CurrentURLFunc     func() (string, error)
	WaitVisibleFunc    func(selector string) error
	WaitNotPresentFunc func(selector string) error
	ClickFunc          func(selector string) error
	SendKeysFunc       func(selector, text string) error
	TextFunc           func(selector string) (string, error)
	AttrFunc           func(selector, name string) (string, bool, error)
	OuterHTMLFunc      func(selector string) (string, error)
	CountFunc          func(selector string) (int, error)
	EvalFunc           func(expression string, out interface{}) error
	ScreenshotFunc     func() ([]byte, error)

	Closed bool
}

// New returns a fake whose every operation succeeds with zero values.
func New() *Fake {
	return &Fake{}
}

func (f *Fake) record(op, selector, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: op, Selector: selector, Value: value})
}

// Calls returns a copy of the recorded interactions in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsFor returns the recorded interactions matching op.
func (f *Fake) CallsFor(op string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (f *Fake) Navigate(_ context.Context, url string) error {
	f.record("navigate", "", url)
	if f.NavigateFunc != nil {
		return f.NavigateFunc(url)
	}
	return nil
}

func (f *Fake) CurrentURL(_ context.Context) (string, error) {
	f.record("current_url", "", "")
	if f.CurrentURLFunc != nil {
		return f.CurrentURLFunc()
	}
	return "", nil
}

func (f *Fake) WaitVisible(_ context.Context, selector string, _ time.Duration) error {
	f.record("wait_visible", selector, "")
	if f.WaitVisibleFunc != nil {
		return f.WaitVisibleFunc(selector)
	}
	return nil
}

func (f *Fake) WaitNotPresent(_ context.Context, selector string, _ time.Duration) error {
	f.record("wait_not_present", selector, "")
	if f.WaitNotPresentFunc != nil {
		return f.WaitNotPresentFunc(selector)
	}
	return nil
}

func (f *Fake) Click(_ context.Context, selector string) error {
	f.record("click", selector, "")
	if f.ClickFunc != nil {
		return f.ClickFunc(selector)
	}
	return nil
}

func (f *Fake) SendKeys(_ context.Context, selector, text string) error {
	f.record("send_keys", selector, text)
	if f.SendKeysFunc != nil {
		return f.SendKeysFunc(selector, text)
	}
	return nil
}

func (f *Fake) Text(_ context.Context, selector string) (string, error) {
	f.record("text", selector, "")
	if f.TextFunc != nil {
		return f.TextFunc(selector)
	}
	return "", nil
}

func (f *Fake) Attr(_ context.Context, selector, name string) (string, bool, error) {
	f.record("attr", selector, name)
	if f.AttrFunc != nil {
		return f.AttrFunc(selector, name)
	}
	return "", false, nil
}

func (f *Fake) OuterHTML(_ context.Context, selector string) (string, error) {
	f.record("outer_html", selector, "")
	if f.OuterHTMLFunc != nil {
		return f.OuterHTMLFunc(selector)
	}
	return "", nil
}

func (f *Fake) Count(_ context.Context, selector string) (int, error) {
	f.record("count", selector, "")
	if f.CountFunc != nil {
		return f.CountFunc(selector)
	}
	return 0, nil
}

func (f *Fake) Eval(_ context.Context, expression string, out interface{}) error {
	f.record("eval", "", expression)
	if f.EvalFunc != nil {
		return f.EvalFunc(expression, out)
	}
	return nil
}

func (f *Fake) Screenshot(_ context.Context) ([]byte, error) {
	f.record("screenshot", "", "")
	if f.ScreenshotFunc != nil {
		return f.ScreenshotFunc()
	}
	return []byte{}, nil
}

func (f *Fake) Close() error {
	f.record("close", "", "")
	f.Closed = true
	return nil
}

var _ interfaces.Browser = (*Fake)(nil)
