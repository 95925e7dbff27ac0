// File: internal/formfill/filler.go
package formfill

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/xkilldash9x/notefill/internal/browser/page"
	"github.com/xkilldash9x/notefill/internal/domain"
)

// Outcome is the result of populating one logical field.
type Outcome struct {
	Field string
	Index int
	Value string
	OK    bool
	Err   error
}

// Report collects per-field outcomes. Fields are independent; one failure
// never prevents the others from being attempted.
type Report struct {
	Outcomes []Outcome
	Logs     []string
}

// OK reports whether every field succeeded.
func (r Report) OK() bool {
	for _, o := range r.Outcomes {
		if !o.OK {
			return false
		}
	}
	return len(r.Outcomes) > 0
}

// Outcome returns the outcome for field.
func (r Report) Outcome(field string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Field == field {
			return o, true
		}
	}
	return Outcome{}, false
}

// Failed returns the outcomes that did not succeed.
func (r Report) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.OK {
			out = append(out, o)
		}
	}
	return out
}

func (r *Report) add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	if o.OK {
		r.Logs = append(r.Logs, fmt.Sprintf("✅ %s: OK", o.Field))
		return
	}
	r.Logs = append(r.Logs, fmt.Sprintf("❌ %s: %v", o.Field, o.Err))
}

// Filler populates the basic applicant fields of the reservation form.
type Filler struct {
	logger *zap.Logger
}

// New creates a Filler.
func New(logger *zap.Logger) *Filler {
	return &Filler{logger: logger.Named("formfill")}
}

// Values maps each basic field to the text written into it.
func Values(id domain.Identity, quantity int) map[string]string {
	return map[string]string{
		domain.FieldName:     id.Name,
		domain.FieldIDNumber: id.IDNumber,
		domain.FieldPhone:    id.Phone,
		domain.FieldQuantity: strconv.Itoa(quantity),
	}
}

// FillBasicFields writes name, id number, phone and quantity into the inputs
// at the profile's positional indices. A field succeeds only if the value
// reads back unchanged after the input/change/blur events.
func (f *Filler) FillBasicFields(ctx context.Context, p page.Page, id domain.Identity, quantity int, profile domain.BankProfile) Report {
	var rep Report
	values := Values(id, quantity)

	for _, field := range domain.BasicFields {
		idx, ok := profile.Index(field)
		if !ok {
			rep.add(Outcome{Field: field, Index: -1, Err: &domain.FieldFillError{Field: field, Index: -1, Reason: "no index configured"}})
			continue
		}
		rep.add(f.fillOne(ctx, p, field, page.Positional(idx), idx, values[field]))
	}

	f.logger.Debug("Basic fields filled.",
		zap.String("identity", id.Name),
		zap.Int("failed", len(rep.Failed())))
	return rep
}

func (f *Filler) fillOne(ctx context.Context, p page.Page, field string, c page.Criteria, idx int, value string) Outcome {
	out := Outcome{Field: field, Index: idx, Value: value}

	h, err := p.LocateInput(ctx, c)
	if err != nil {
		reason := err.Error()
		if errors.Is(err, page.ErrElementNotFound) {
			reason = "input not found"
		}
		out.Err = &domain.FieldFillError{Field: field, Index: idx, Reason: reason}
		return out
	}

	res, err := p.SetValue(ctx, h, value)
	if err != nil {
		out.Err = &domain.FieldFillError{Field: field, Index: idx, Reason: err.Error()}
		return out
	}
	if res.Value != value {
		out.Err = &domain.FieldFillError{Field: field, Index: idx, Reason: fmt.Sprintf("value did not stick (read back %q)", res.Value)}
		return out
	}
	out.OK = true
	return out
}
