// File: internal/browser/page/page.go
//
// Package page defines the typed page-automation commands the form filler and
// location selector drive. Selector and text matching decisions stay in Go;
// the browser side only resolves elements, reports geometry and text, and
// performs the requested mutation.
package page

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DOM contract of the reservation page.
const (
	// TextInputSelector matches the flat text inputs addressed by position.
	TextInputSelector = `input.el-input__inner[type="text"]`
	// AnyInputSelector matches every framework input, used for inspection.
	AnyInputSelector = `input.el-input__inner`
	// SelectItemSelector matches options of the independent dropdowns.
	SelectItemSelector = `.el-select-dropdown__item`
)

// CascadeOptionPatterns are searched in priority order for cascade options.
var CascadeOptionPatterns = []string{"li", `[role="menuitem"]`, ".el-cascader-node"}

// ErrElementNotFound is returned when a handle or criteria resolves to nothing.
var ErrElementNotFound = errors.New("element not found")

// Criteria selects one element: the Index-th match of Selector.
type Criteria struct {
	Selector string
	Index    int
}

// Positional addresses the n-th same-typed text input.
func Positional(index int) Criteria {
	return Criteria{Selector: TextInputSelector, Index: index}
}

// Descriptor matches inputs whose attribute contains a needle, ignoring case.
type Descriptor struct {
	Attr   string
	Needle string
}

// Criteria converts the descriptor into a CSS attribute-substring query.
func (d Descriptor) Criteria() Criteria {
	needle := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(d.Needle)
	if d.Needle == "" {
		return Criteria{Selector: fmt.Sprintf("input[%s]", d.Attr)}
	}
	return Criteria{Selector: fmt.Sprintf(`input[%s*="%s" i]`, d.Attr, needle)}
}

func (d Descriptor) String() string {
	if d.Needle == "" {
		return d.Attr
	}
	return d.Attr + "*=" + d.Needle
}

// Handle is a resolved reference to an element on the page.
type Handle struct {
	Selector string
	Index    int
}

// Point is a viewport coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Option is a candidate dropdown entry reported by the page.
type Option struct {
	Pattern string  `json:"pattern"`
	Index   int     `json:"index"`
	Text    string  `json:"text"`
	Width   float64 `json:"width"`
}

// Visible reports whether the option is rendered, not a hidden duplicate.
func (o Option) Visible() bool { return o.Width > 0 }

// InputInfo describes one input for the inspect dump.
type InputInfo struct {
	Index       int    `json:"index"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Placeholder string `json:"placeholder"`
	Value       string `json:"value"`
}

// SetResult is the read-back after a value assignment.
type SetResult struct {
	Found bool   `json:"found"`
	Value string `json:"value"`
}

// Page is the automation surface of one attached tab.
type Page interface {
	// URL is the address of the page at attach time.
	URL() string
	// LocateInput resolves criteria to a handle, or ErrElementNotFound.
	LocateInput(ctx context.Context, c Criteria) (Handle, error)
	// SetValue assigns text, raises input/change/blur and re-reads the value.
	SetValue(ctx context.Context, h Handle, text string) (SetResult, error)
	// Center scrolls the element into view and returns its on-screen centre.
	Center(ctx context.Context, h Handle) (Point, error)
	// ClickAt issues a physical pointer click at a viewport coordinate.
	ClickAt(ctx context.Context, p Point) error
	// Click triggers a programmatic click on the element.
	Click(ctx context.Context, h Handle) error
	// Options lists elements matching each pattern, in pattern order.
	Options(ctx context.Context, patterns []string) ([]Option, error)
	// ClickOption clicks an option if its text is still o.Text.
	ClickOption(ctx context.Context, o Option) (bool, error)
	// SelectNative picks the option of a native <select> whose label contains label.
	SelectNative(ctx context.Context, selector, label string) (bool, error)
	// Inputs lists inputs matching selector.
	Inputs(ctx context.Context, selector string) ([]InputInfo, error)
}
