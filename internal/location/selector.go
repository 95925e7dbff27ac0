// File: internal/location/selector.go
//
// Package location drives the exchange-location dropdowns: a dependent
// cascade of up to four levels, or a set of independent selects.
package location

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/notefill/internal/browser/page"
	"github.com/xkilldash9x/notefill/internal/config"
	"github.com/xkilldash9x/notefill/internal/domain"
)

// Options tunes waits and option matching.
type Options struct {
	PanelWait  time.Duration
	OptionWait time.Duration
	LevelPause time.Duration
	// Modes are tried in order; a later mode is used only when the earlier
	// ones found no visible match at all.
	Modes []page.MatchMode
}

// OptionsFromConfig converts fill settings. The policy has been validated at
// config load, so an unknown value falls back to strict-then-contains.
func OptionsFromConfig(fc config.FillConfig) Options {
	modes := []page.MatchMode{page.MatchStrict, page.MatchContains}
	switch policy, _ := config.ParseMatchPolicy(fc.MatchPolicy); policy {
	case config.MatchStrict:
		modes = []page.MatchMode{page.MatchStrict}
	case config.MatchContains:
		modes = []page.MatchMode{page.MatchContains}
	}
	return Options{
		PanelWait:  fc.PanelWait,
		OptionWait: fc.OptionWait,
		LevelPause: fc.LevelPause,
		Modes:      modes,
	}
}

// Result describes one selection run.
type Result struct {
	Kind     domain.LocationKind
	Final    State
	Selected []string
	// Err is the reason a cascade aborted.
	Err error
	// Misses are independent fields that could not be set.
	Misses []error
	Trace  []Transition
	Logs   []string
}

// OK reports a complete run with nothing missed.
func (r Result) OK() bool {
	return r.Final == Complete && r.Err == nil && len(r.Misses) == 0
}

func (r *Result) logf(format string, args ...interface{}) {
	r.Logs = append(r.Logs, fmt.Sprintf(format, args...))
}

// Selector runs location selections against a page.
type Selector struct {
	logger *zap.Logger
	opts   Options
}

// New creates a Selector.
func New(logger *zap.Logger, opts Options) *Selector {
	if len(opts.Modes) == 0 {
		opts.Modes = []page.MatchMode{page.MatchStrict, page.MatchContains}
	}
	return &Selector{logger: logger.Named("location"), opts: opts}
}

// Select dispatches on the spec's kind.
func (s *Selector) Select(ctx context.Context, p page.Page, spec domain.LocationSpec, profile domain.BankProfile) Result {
	if spec.Kind == domain.LocationIndependent {
		return s.SelectIndependent(ctx, p, spec.Independent, profile)
	}
	return s.SelectCascade(ctx, p, spec.CascadePath, profile.CascadeOffset)
}

// SelectCascade opens level L's trigger (input offset+L) with a pointer
// click, waits for the panel, and picks the matching visible option. A level
// is never attempted before the previous one completed; the first miss
// aborts the run.
func (s *Selector) SelectCascade(ctx context.Context, p page.Page, path []string, offset int) (res Result) {
	res.Kind = domain.LocationCascade
	m := &machine{}
	defer func() {
		res.Final = m.state
		res.Trace = m.trace
	}()

	abort := func(level int, err error) Result {
		res.Err = err
		res.logf("❌ 第%d级: %v", level+1, err)
		m.to(level, Aborted)
		s.logger.Warn("Cascade selection aborted.", zap.Int("level", level+1), zap.Error(err))
		return res
	}

	for level, label := range path {
		m.to(level, SelectingLevel)
		h, err := p.LocateInput(ctx, page.Positional(offset+level))
		if err != nil {
			return abort(level, fmt.Errorf("trigger input #%d: %w", offset+level, err))
		}
		pt, err := p.Center(ctx, h)
		if err != nil {
			return abort(level, fmt.Errorf("trigger input #%d: %w", offset+level, err))
		}
		if err := p.ClickAt(ctx, pt); err != nil {
			return abort(level, err)
		}

		m.to(level, AwaitingPanel)
		if err := sleep(ctx, s.opts.PanelWait); err != nil {
			return abort(level, err)
		}

		m.to(level, MatchingOption)
		clicked, err := s.clickMatching(ctx, p, page.CascadeOptionPatterns, label, s.opts.Modes)
		if err != nil {
			return abort(level, err)
		}
		if !clicked {
			return abort(level, &domain.OptionNotFoundError{Level: level, Label: label})
		}

		m.to(level, LevelComplete)
		res.Selected = append(res.Selected, label)
		res.logf("✅ 第%d级: %s", level+1, label)
		if level < len(path)-1 {
			if err := sleep(ctx, s.opts.LevelPause); err != nil {
				return abort(level+1, err)
			}
		}
	}

	m.to(len(path), Complete)
	return res
}

// SelectIndependent sets each non-empty field through its own dropdown. A
// missing trigger or option is recorded and the next field still runs.
func (s *Selector) SelectIndependent(ctx context.Context, p page.Page, fields domain.IndependentFields, profile domain.BankProfile) (res Result) {
	res.Kind = domain.LocationIndependent
	m := &machine{}
	defer func() {
		res.Final = m.state
		res.Trace = m.trace
	}()

	miss := func(pos int, field domain.IndependentField, err error) {
		res.Misses = append(res.Misses, err)
		res.logf("⚠️ %s: %v", field.Label(), err)
		s.logger.Info("Independent field not set.", zap.String("field", string(field)), zap.Error(err))
		m.to(pos, LevelComplete)
	}

	for pos, field := range domain.IndependentOrder {
		label := fields.Value(field)
		if label == "" {
			res.logf("- %s: 未配置，跳过", field.Label())
			continue
		}
		if ctx.Err() != nil {
			res.Err = ctx.Err()
			m.to(pos, Aborted)
			return res
		}

		m.to(pos, SelectingLevel)
		idx, ok := profile.Index(string(field))
		if !ok {
			miss(pos, field, fmt.Errorf("no input index configured"))
			continue
		}
		h, err := p.LocateInput(ctx, page.Positional(idx))
		if err != nil {
			miss(pos, field, fmt.Errorf("trigger input #%d: %w", idx, err))
			continue
		}
		if err := p.Click(ctx, h); err != nil {
			miss(pos, field, err)
			continue
		}

		m.to(pos, AwaitingPanel)
		if err := sleep(ctx, s.opts.OptionWait); err != nil {
			res.Err = err
			m.to(pos, Aborted)
			return res
		}

		m.to(pos, MatchingOption)
		clicked, err := s.clickMatching(ctx, p, []string{page.SelectItemSelector}, label, []page.MatchMode{page.MatchStrict})
		if err != nil {
			miss(pos, field, err)
			continue
		}
		if !clicked {
			miss(pos, field, &domain.OptionNotFoundError{Level: -1, Field: string(field), Label: label})
			continue
		}

		m.to(pos, LevelComplete)
		res.Selected = append(res.Selected, label)
		res.logf("✅ %s: %s", field.Label(), label)
	}

	m.to(len(domain.IndependentOrder), Complete)
	return res
}

// clickMatching clicks the first visible option matching label, trying modes
// in order.
func (s *Selector) clickMatching(ctx context.Context, p page.Page, patterns []string, label string, modes []page.MatchMode) (bool, error) {
	mode, clicked, err := page.ClickVisibleOptionMatching(ctx, p, patterns, label, modes...)
	if clicked && len(modes) > 0 && mode != modes[0] {
		s.logger.Debug("Option matched by fallback mode.", zap.String("label", label), zap.Stringer("mode", mode))
	}
	return clicked, err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
