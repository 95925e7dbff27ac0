// File: internal/browser/page/pagetest/fake.go
//
// Package pagetest provides an in-memory Page for driving the filler and
// location selector in tests without a browser.
package pagetest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/xkilldash9x/notefill/internal/browser/page"
)

// Element is a fake input.
type Element struct {
	Type        string
	Name        string
	Placeholder string
	Value       string
	// Stuck makes value assignments silently not take effect.
	Stuck bool
	// Err is returned from any operation touching the element.
	Err error
	// Reveals replaces the rendered options when the element is clicked.
	Reveals []page.Option

	center page.Point
}

// Page is a fake DOM. The zero value is not usable; call New.
type Page struct {
	mu       sync.Mutex
	url      string
	elements map[string][]*Element
	order    []string
	options  []page.Option
	// selected maps an option text to the options rendered after choosing it.
	selected map[string][]page.Option
	natives  map[string][]string
	events   []string
}

var _ page.Page = (*Page)(nil)

// New returns an empty fake page.
func New(url string) *Page {
	return &Page{
		url:      url,
		elements: make(map[string][]*Element),
		selected: make(map[string][]page.Option),
		natives:  make(map[string][]string),
	}
}

// AddInputs appends n blank inputs under selector and returns them.
func (p *Page) AddInputs(selector string, n int) []*Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Element, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, p.addLocked(selector, &Element{Type: "text"}))
	}
	return out
}

// AddElement appends e under selector.
func (p *Page) AddElement(selector string, e *Element) *Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.addLocked(selector, e)
}

func (p *Page) addLocked(selector string, e *Element) *Element {
	if _, ok := p.elements[selector]; !ok {
		p.order = append(p.order, selector)
	}
	idx := len(p.elements[selector])
	e.center = page.Point{X: float64(idx*100 + 50), Y: float64(len(p.order)*1000 + 20)}
	p.elements[selector] = append(p.elements[selector], e)
	return e
}

// Element returns the idx-th element under selector, or nil.
func (p *Page) Element(selector string, idx int) *Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	els := p.elements[selector]
	if idx < 0 || idx >= len(els) {
		return nil
	}
	return els[idx]
}

// SetOptions replaces the currently rendered options.
func (p *Page) SetOptions(opts ...page.Option) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.options = opts
}

// OnSelect renders next after the option with text is chosen.
func (p *Page) OnSelect(text string, next ...page.Option) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selected[text] = next
}

// AddNativeSelect registers a <select> with the given option labels.
func (p *Page) AddNativeSelect(selector string, labels ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.natives[selector] = labels
}

// Events returns the recorded interaction log.
func (p *Page) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

// VisibleOption builds a rendered option.
func VisibleOption(pattern string, index int, text string) page.Option {
	return page.Option{Pattern: pattern, Index: index, Text: text, Width: 120}
}

// HiddenOption builds an option that exists in the DOM but is not rendered.
func HiddenOption(pattern string, index int, text string) page.Option {
	return page.Option{Pattern: pattern, Index: index, Text: text}
}

func (p *Page) record(format string, args ...interface{}) {
	p.events = append(p.events, fmt.Sprintf(format, args...))
}

func (p *Page) lookup(h page.Handle) (*Element, error) {
	els := p.elements[h.Selector]
	if h.Index < 0 || h.Index >= len(els) {
		return nil, fmt.Errorf("%w: %s[%d]", page.ErrElementNotFound, h.Selector, h.Index)
	}
	e := els[h.Index]
	if e.Err != nil {
		return nil, e.Err
	}
	return e, nil
}

func (p *Page) URL() string { return p.url }

func (p *Page) LocateInput(ctx context.Context, c page.Criteria) (page.Handle, error) {
	if err := ctx.Err(); err != nil {
		return page.Handle{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	h := page.Handle{Selector: c.Selector, Index: c.Index}
	if _, err := p.lookup(h); err != nil {
		return page.Handle{}, err
	}
	return h, nil
}

func (p *Page) SetValue(ctx context.Context, h page.Handle, text string) (page.SetResult, error) {
	if err := ctx.Err(); err != nil {
		return page.SetResult{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	e, err := p.lookup(h)
	if err != nil {
		return page.SetResult{}, err
	}
	p.record("set:%s[%d]=%s", h.Selector, h.Index, text)
	if !e.Stuck {
		e.Value = text
	}
	return page.SetResult{Found: true, Value: e.Value}, nil
}

func (p *Page) Center(ctx context.Context, h page.Handle) (page.Point, error) {
	if err := ctx.Err(); err != nil {
		return page.Point{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	e, err := p.lookup(h)
	if err != nil {
		return page.Point{}, err
	}
	return e.center, nil
}

func (p *Page) ClickAt(ctx context.Context, pt page.Point) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, sel := range p.order {
		for i, e := range p.elements[sel] {
			if e.center == pt {
				p.record("click_at:%s[%d]", sel, i)
				if e.Reveals != nil {
					p.options = e.Reveals
				}
				return nil
			}
		}
	}
	p.record("click_at:(%.0f,%.0f)", pt.X, pt.Y)
	return nil
}

func (p *Page) Click(ctx context.Context, h page.Handle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	e, err := p.lookup(h)
	if err != nil {
		return err
	}
	p.record("click:%s[%d]", h.Selector, h.Index)
	if e.Reveals != nil {
		p.options = e.Reveals
	}
	return nil
}

func (p *Page) Options(ctx context.Context, patterns []string) ([]page.Option, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []page.Option
	for _, pattern := range patterns {
		for _, o := range p.options {
			if o.Pattern == pattern {
				out = append(out, o)
			}
		}
	}
	return out, nil
}

func (p *Page) ClickOption(ctx context.Context, o page.Option) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, cur := range p.options {
		if cur.Pattern == o.Pattern && cur.Index == o.Index && cur.Text == o.Text && cur.Visible() {
			p.record("option:%s", o.Text)
			if next, ok := p.selected[o.Text]; ok {
				p.options = next
			}
			return true, nil
		}
	}
	return false, nil
}

func (p *Page) SelectNative(ctx context.Context, selector, label string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, l := range p.natives[selector] {
		if strings.Contains(l, label) {
			p.record("native:%s=%s", selector, l)
			return true, nil
		}
	}
	return false, nil
}

func (p *Page) Inputs(ctx context.Context, selector string) ([]page.InputInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []page.InputInfo
	for i, e := range p.elements[selector] {
		out = append(out, page.InputInfo{Index: i, Type: e.Type, Name: e.Name, Placeholder: e.Placeholder, Value: e.Value})
	}
	return out, nil
}
