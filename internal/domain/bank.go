// File: internal/domain/bank.go
package domain

import "fmt"

// Logical form fields addressed by positional index.
const (
	FieldName     = "name"
	FieldIDNumber = "id_number"
	FieldPhone    = "phone"
	FieldQuantity = "quantity"
)

// BasicFields is the fixed fill order of the flat text inputs.
var BasicFields = []string{FieldName, FieldIDNumber, FieldPhone, FieldQuantity}

// DefaultCascadeOffset is the positional index of the first cascade trigger.
const DefaultCascadeOffset = 6

// Built-in bank profile names.
const (
	BankABC  = "农业银行"
	BankICBC = "工商银行"
)

// BankProfile selects the FormFiller and LocationSelector branch for a bank.
type BankProfile struct {
	Name string `mapstructure:"name" yaml:"name"`
	// FieldIndices maps a logical field to its zero-based index among the
	// page's same-typed text inputs.
	FieldIndices          map[string]int `mapstructure:"field_indices" yaml:"field_indices"`
	UsesCascadingSelector bool           `mapstructure:"use_cascader" yaml:"use_cascader"`
	CascadeOffset         int            `mapstructure:"cascade_offset" yaml:"cascade_offset"`
}

// DefaultBankProfiles returns the built-in profiles keyed by bank name.
func DefaultBankProfiles() map[string]BankProfile {
	return map[string]BankProfile{
		BankABC: {
			Name: BankABC,
			FieldIndices: map[string]int{
				FieldName:     0,
				FieldIDNumber: 1,
				FieldPhone:    2,
				FieldQuantity: 7,
			},
			UsesCascadingSelector: true,
			CascadeOffset:         DefaultCascadeOffset,
		},
		BankICBC: {
			Name: BankICBC,
			FieldIndices: map[string]int{
				FieldName:              0,
				FieldIDNumber:          1,
				FieldPhone:             2,
				FieldQuantity:          7,
				string(FieldProvince): 3,
				string(FieldCity):     4,
				string(FieldDistrict): 5,
				string(FieldOutlet):   6,
			},
			UsesCascadingSelector: false,
			CascadeOffset:         DefaultCascadeOffset,
		},
	}
}

// Index returns the positional index for a logical field.
func (p BankProfile) Index(field string) (int, bool) {
	i, ok := p.FieldIndices[field]
	return i, ok
}

// LocationKind reports which LocationSpec variant this profile drives.
func (p BankProfile) LocationKind() LocationKind {
	if p.UsesCascadingSelector {
		return LocationCascade
	}
	return LocationIndependent
}

// Merge overlays the name and field indices of o onto p. Field indices merge
// per key. The selector kind and cascade offset are left to the caller since
// false and 0 are valid overrides.
func (p BankProfile) Merge(o BankProfile) BankProfile {
	out := p
	out.FieldIndices = make(map[string]int, len(p.FieldIndices)+len(o.FieldIndices))
	for k, v := range p.FieldIndices {
		out.FieldIndices[k] = v
	}
	for k, v := range o.FieldIndices {
		out.FieldIndices[k] = v
	}
	if o.Name != "" {
		out.Name = o.Name
	}
	return out
}

// Validate checks the profile addresses every basic field.
func (p BankProfile) Validate() error {
	for _, f := range BasicFields {
		i, ok := p.FieldIndices[f]
		if !ok {
			return fmt.Errorf("bank %q: missing field index for %s", p.Name, f)
		}
		if i < 0 {
			return fmt.Errorf("bank %q: field index for %s must be non-negative", p.Name, f)
		}
	}
	if p.UsesCascadingSelector && p.CascadeOffset < 0 {
		return fmt.Errorf("bank %q: cascade_offset must be non-negative", p.Name)
	}
	return nil
}
