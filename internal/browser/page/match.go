// File: internal/browser/page/match.go
package page

import (
	"context"
	"fmt"
	"strings"
)

// MatchMode decides how option text is compared with the target label.
type MatchMode int

const (
	// MatchStrict requires the trimmed option text to equal the label.
	MatchStrict MatchMode = iota
	// MatchContains accepts any option whose text contains the label.
	MatchContains
)

func (m MatchMode) String() string {
	if m == MatchContains {
		return "contains"
	}
	return "strict"
}

// Matches applies the mode to one option text.
func (m MatchMode) Matches(text, label string) bool {
	text = strings.TrimSpace(text)
	if m == MatchContains {
		return strings.Contains(text, label)
	}
	return text == label
}

// FirstVisibleMatch returns the first visible option matching label. Options
// are assumed to be ordered by pattern priority.
func FirstVisibleMatch(opts []Option, label string, mode MatchMode) (Option, bool) {
	for _, o := range opts {
		if o.Visible() && mode.Matches(o.Text, label) {
			return o, true
		}
	}
	return Option{}, false
}

// ClickVisibleOptionMatching lists the options under patterns once, then
// tries each mode in order and clicks the first visible match. It returns
// the mode that matched and whether a click landed.
func ClickVisibleOptionMatching(ctx context.Context, p Page, patterns []string, label string, modes ...MatchMode) (MatchMode, bool, error) {
	opts, err := p.Options(ctx, patterns)
	if err != nil {
		return 0, false, fmt.Errorf("listing options: %w", err)
	}
	for _, mode := range modes {
		o, ok := FirstVisibleMatch(opts, label, mode)
		if !ok {
			continue
		}
		clicked, err := p.ClickOption(ctx, o)
		if err != nil {
			return mode, false, fmt.Errorf("clicking option %q: %w", o.Text, err)
		}
		return mode, clicked, nil
	}
	return 0, false, nil
}
