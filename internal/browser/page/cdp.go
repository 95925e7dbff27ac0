// File: internal/browser/page/cdp.go
package page

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	scriptTimeout = 10 * time.Second
	mouseTimeout  = 5 * time.Second
)

// Page-side functions. Each is invoked with JSON-encoded arguments only.
const (
	jsCount = `function(sel) {
		return document.querySelectorAll(sel).length;
	}`

	jsSetValue = `function(sel, idx, value) {
		const el = document.querySelectorAll(sel)[idx];
		if (!el) return {found: false, value: ""};
		el.focus();
		const desc = Object.getOwnPropertyDescriptor(Object.getPrototypeOf(el), 'value');
		if (desc && desc.set) { desc.set.call(el, value); } else { el.value = value; }
		for (const type of ['input', 'change', 'blur']) {
			el.dispatchEvent(new Event(type, {bubbles: true}));
		}
		return {found: true, value: el.value};
	}`

	jsCenter = `function(sel, idx) {
		const el = document.querySelectorAll(sel)[idx];
		if (!el) return null;
		el.scrollIntoView({block: 'center', inline: 'center'});
		const r = el.getBoundingClientRect();
		return {x: r.left + r.width / 2, y: r.top + r.height / 2};
	}`

	jsClick = `function(sel, idx) {
		const el = document.querySelectorAll(sel)[idx];
		if (!el) return false;
		el.click();
		return true;
	}`

	jsOptions = `function(patterns) {
		const out = [];
		for (const pattern of patterns) {
			document.querySelectorAll(pattern).forEach((el, index) => {
				out.push({pattern, index, text: (el.textContent || '').trim(), width: el.offsetWidth});
			});
		}
		return out;
	}`

	jsClickOption = `function(pattern, idx, text) {
		const el = document.querySelectorAll(pattern)[idx];
		if (!el || el.offsetWidth <= 0) return false;
		if ((el.textContent || '').trim() !== text) return false;
		el.scrollIntoView({block: 'nearest'});
		el.click();
		return true;
	}`

	jsSelectNative = `function(sel, label) {
		for (const s of document.querySelectorAll(sel)) {
			for (const o of s.options || []) {
				if ((o.textContent || '').includes(label)) {
					s.value = o.value;
					s.dispatchEvent(new Event('change', {bubbles: true}));
					return true;
				}
			}
		}
		return false;
	}`

	jsInputs = `function(sel) {
		return Array.from(document.querySelectorAll(sel)).map((el, index) => ({
			index,
			type: el.type || '',
			name: el.name || '',
			placeholder: el.placeholder || '',
			value: el.value || ''
		}));
	}`
)

// ActionRunner runs chromedp actions against an attached tab.
type ActionRunner func(ctx context.Context, actions ...chromedp.Action) error

// CDPPage implements Page over a chromedp tab context.
type CDPPage struct {
	url        string
	logger     *zap.Logger
	runActions ActionRunner
	// eval is swapped in tests; it defaults to chromedp.Evaluate through runActions.
	eval func(ctx context.Context, script string) (json.RawMessage, error)
}

var _ Page = (*CDPPage)(nil)

// NewCDPPage wraps a runner bound to one tab.
func NewCDPPage(url string, run ActionRunner, logger *zap.Logger) *CDPPage {
	p := &CDPPage{
		url:        url,
		logger:     logger.Named("page"),
		runActions: run,
	}
	p.eval = p.evaluate
	return p
}

func (p *CDPPage) URL() string { return p.url }

func (p *CDPPage) evaluate(ctx context.Context, script string) (json.RawMessage, error) {
	var res json.RawMessage
	err := p.runActions(ctx, chromedp.Evaluate(script, &res, func(ep *runtime.EvaluateParams) *runtime.EvaluateParams {
		return ep.WithReturnByValue(true).WithAwaitPromise(true).WithSilent(true)
	}))
	return res, err
}

// call invokes fn with JSON-encoded args and decodes the result into out.
func (p *CDPPage) call(ctx context.Context, fn string, out interface{}, args ...interface{}) error {
	encoded := make([]string, len(args))
	for i, a := range args {
		encoded[i] = jsonEncode(a)
	}
	script := fmt.Sprintf("(%s)(%s)", fn, strings.Join(encoded, ", "))

	opCtx, cancel := context.WithTimeout(ctx, scriptTimeout)
	defer cancel()

	res, err := p.eval(opCtx, script)
	if err != nil {
		if errors.Is(opCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("page script timed out after %v: %w", scriptTimeout, opCtx.Err())
		}
		return fmt.Errorf("page script failed: %w", err)
	}
	if out == nil {
		return nil
	}
	if len(res) == 0 {
		res = json.RawMessage("null")
	}
	if err := jsonAPI.Unmarshal(res, out); err != nil {
		return fmt.Errorf("decoding page result: %w (payload: %s)", err, string(res))
	}
	return nil
}

func (p *CDPPage) LocateInput(ctx context.Context, c Criteria) (Handle, error) {
	if c.Index < 0 {
		return Handle{}, fmt.Errorf("%w: negative index %d", ErrElementNotFound, c.Index)
	}
	var n int
	if err := p.call(ctx, jsCount, &n, c.Selector); err != nil {
		return Handle{}, err
	}
	if c.Index >= n {
		return Handle{}, fmt.Errorf("%w: %s[%d] (have %d)", ErrElementNotFound, c.Selector, c.Index, n)
	}
	return Handle{Selector: c.Selector, Index: c.Index}, nil
}

func (p *CDPPage) SetValue(ctx context.Context, h Handle, text string) (SetResult, error) {
	var res SetResult
	if err := p.call(ctx, jsSetValue, &res, h.Selector, h.Index, text); err != nil {
		return SetResult{}, err
	}
	if !res.Found {
		return res, fmt.Errorf("%w: %s[%d]", ErrElementNotFound, h.Selector, h.Index)
	}
	return res, nil
}

func (p *CDPPage) Center(ctx context.Context, h Handle) (Point, error) {
	var pt *Point
	if err := p.call(ctx, jsCenter, &pt, h.Selector, h.Index); err != nil {
		return Point{}, err
	}
	if pt == nil {
		return Point{}, fmt.Errorf("%w: %s[%d]", ErrElementNotFound, h.Selector, h.Index)
	}
	return *pt, nil
}

// ClickAt dispatches a move, press and release at the point. Some dropdowns
// only open on trusted pointer input, so this bypasses element.click().
func (p *CDPPage) ClickAt(ctx context.Context, pt Point) error {
	opCtx, cancel := context.WithTimeout(ctx, mouseTimeout)
	defer cancel()

	err := p.runActions(opCtx,
		input.DispatchMouseEvent(input.MouseMoved, pt.X, pt.Y),
		input.DispatchMouseEvent(input.MousePressed, pt.X, pt.Y).
			WithButton(input.Left).WithButtons(1).WithClickCount(1),
		input.DispatchMouseEvent(input.MouseReleased, pt.X, pt.Y).
			WithButton(input.Left).WithClickCount(1),
	)
	if err != nil {
		if errors.Is(opCtx.Err(), context.DeadlineExceeded) {
			p.logger.Debug("Pointer click timed out.", zap.Float64("x", pt.X), zap.Float64("y", pt.Y))
			return fmt.Errorf("pointer click timed out after %v: %w", mouseTimeout, opCtx.Err())
		}
		return fmt.Errorf("pointer click at (%.0f,%.0f): %w", pt.X, pt.Y, err)
	}
	return nil
}

func (p *CDPPage) Click(ctx context.Context, h Handle) error {
	var ok bool
	if err := p.call(ctx, jsClick, &ok, h.Selector, h.Index); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s[%d]", ErrElementNotFound, h.Selector, h.Index)
	}
	return nil
}

func (p *CDPPage) Options(ctx context.Context, patterns []string) ([]Option, error) {
	var opts []Option
	if err := p.call(ctx, jsOptions, &opts, patterns); err != nil {
		return nil, err
	}
	return opts, nil
}

func (p *CDPPage) ClickOption(ctx context.Context, o Option) (bool, error) {
	var ok bool
	if err := p.call(ctx, jsClickOption, &ok, o.Pattern, o.Index, o.Text); err != nil {
		return false, err
	}
	return ok, nil
}

func (p *CDPPage) SelectNative(ctx context.Context, selector, label string) (bool, error) {
	var ok bool
	if err := p.call(ctx, jsSelectNative, &ok, selector, label); err != nil {
		return false, err
	}
	return ok, nil
}

func (p *CDPPage) Inputs(ctx context.Context, selector string) ([]InputInfo, error) {
	var out []InputInfo
	if err := p.call(ctx, jsInputs, &out, selector); err != nil {
		return nil, err
	}
	return out, nil
}

// jsonEncode renders v as a JavaScript literal.
func jsonEncode(v interface{}) string {
	b, err := jsonAPI.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
