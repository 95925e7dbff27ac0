// File: internal/domain/location.go
package domain

import (
	"fmt"
	"strings"
)

// MaxCascadeLevels bounds the depth of a cascading location path.
const MaxCascadeLevels = 4

// LocationKind tags which LocationSpec variant is active.
type LocationKind string

const (
	LocationCascade     LocationKind = "cascade"
	LocationIndependent LocationKind = "independent"
)

// IndependentFields is a flat, order-independent location target.
type IndependentFields struct {
	Province string `mapstructure:"province" yaml:"province" json:"province"`
	City     string `mapstructure:"city" yaml:"city" json:"city"`
	District string `mapstructure:"district" yaml:"district" json:"district"`
	Outlet   string `mapstructure:"outlet" yaml:"outlet" json:"outlet"`
}

// IndependentField names one entry of IndependentFields.
type IndependentField string

const (
	FieldProvince IndependentField = "province"
	FieldCity     IndependentField = "city"
	FieldDistrict IndependentField = "district"
	FieldOutlet   IndependentField = "outlet"
)

// IndependentOrder is the fixed order independent fields are driven in.
var IndependentOrder = []IndependentField{FieldProvince, FieldCity, FieldDistrict, FieldOutlet}

// Label returns the operator-facing label of the field.
func (f IndependentField) Label() string {
	switch f {
	case FieldProvince:
		return "省份"
	case FieldCity:
		return "城市"
	case FieldDistrict:
		return "区县"
	case FieldOutlet:
		return "网点"
	}
	return string(f)
}

// Value returns the configured value for the named field.
func (f IndependentFields) Value(field IndependentField) string {
	switch field {
	case FieldProvince:
		return f.Province
	case FieldCity:
		return f.City
	case FieldDistrict:
		return f.District
	case FieldOutlet:
		return f.Outlet
	}
	return ""
}

// LocationSpec is either a cascade path or a set of independent fields.
// Exactly one variant is active, selected by Kind.
type LocationSpec struct {
	Kind        LocationKind
	CascadePath []string
	Independent IndependentFields
}

// NewCascadePath builds a cascade spec, dropping blank levels.
func NewCascadePath(levels ...string) (LocationSpec, error) {
	path := make([]string, 0, len(levels))
	for _, l := range levels {
		if l = strings.TrimSpace(l); l != "" {
			path = append(path, l)
		}
	}
	spec := LocationSpec{Kind: LocationCascade, CascadePath: path}
	return spec, spec.Validate()
}

// NewIndependentFields builds an independent-fields spec.
func NewIndependentFields(f IndependentFields) (LocationSpec, error) {
	f.Province = strings.TrimSpace(f.Province)
	f.City = strings.TrimSpace(f.City)
	f.District = strings.TrimSpace(f.District)
	f.Outlet = strings.TrimSpace(f.Outlet)
	spec := LocationSpec{Kind: LocationIndependent, Independent: f}
	return spec, spec.Validate()
}

// Validate enforces the variant invariants.
func (s LocationSpec) Validate() error {
	switch s.Kind {
	case LocationCascade:
		if len(s.CascadePath) == 0 {
			return fmt.Errorf("cascade path needs at least one level")
		}
		if len(s.CascadePath) > MaxCascadeLevels {
			return fmt.Errorf("cascade path has %d levels, at most %d allowed", len(s.CascadePath), MaxCascadeLevels)
		}
	case LocationIndependent:
		if s.Name() == "" {
			return fmt.Errorf("independent location needs at least one of province, city, district or outlet")
		}
	default:
		return fmt.Errorf("unknown location kind %q", s.Kind)
	}
	return nil
}

// Name is the display name of the target outlet, or of the most specific
// level configured when no outlet is set.
func (s LocationSpec) Name() string {
	switch s.Kind {
	case LocationCascade:
		if n := len(s.CascadePath); n > 0 {
			return s.CascadePath[n-1]
		}
	case LocationIndependent:
		for i := len(IndependentOrder) - 1; i >= 0; i-- {
			if v := s.Independent.Value(IndependentOrder[i]); v != "" {
				return v
			}
		}
	}
	return ""
}

// String renders the spec for status output.
func (s LocationSpec) String() string {
	switch s.Kind {
	case LocationCascade:
		if len(s.CascadePath) > 0 {
			return strings.Join(s.CascadePath, " → ")
		}
	case LocationIndependent:
		parts := make([]string, 0, 4)
		for _, f := range IndependentOrder {
			if v := s.Independent.Value(f); v != "" {
				parts = append(parts, v)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, " - ")
		}
	}
	return "未配置网点"
}
