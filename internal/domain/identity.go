// File: internal/domain/identity.go
package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DefaultIDType is the document type used when none is configured.
const DefaultIDType = "身份证"

// IDTypes lists the document types the reservation form accepts.
var IDTypes = []string{"身份证", "护照", "港澳通行证", "台胞证"}

// Identity is one applicant whose data is submitted through the form.
// ID is assigned at creation and never reused; positions in the roster are
// a display concern only.
type Identity struct {
	ID       string `mapstructure:"id" yaml:"id" json:"id"`
	Name     string `mapstructure:"name" yaml:"name" json:"name"`
	IDType   string `mapstructure:"id_type" yaml:"id_type" json:"id_type"`
	IDNumber string `mapstructure:"id_number" yaml:"id_number" json:"id_number"`
	Phone    string `mapstructure:"phone" yaml:"phone" json:"phone"`
}

// NewIdentity builds an identity with a fresh stable ID.
func NewIdentity(name, idType, idNumber, phone string) (Identity, error) {
	id := Identity{
		ID:       uuid.NewString(),
		Name:     strings.TrimSpace(name),
		IDType:   strings.TrimSpace(idType),
		IDNumber: strings.TrimSpace(idNumber),
		Phone:    strings.TrimSpace(phone),
	}
	if id.IDType == "" {
		id.IDType = DefaultIDType
	}
	if err := id.Validate(); err != nil {
		return Identity{}, err
	}
	return id, nil
}

// WithID returns a copy carrying a stable ID, generating one if missing.
// Identities loaded from older config files have no ID.
func (i Identity) WithID() Identity {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.IDType == "" {
		i.IDType = DefaultIDType
	}
	return i
}

// Validate checks that every field the form requires is present.
func (i Identity) Validate() error {
	if i.Name == "" {
		return fmt.Errorf("identity name is required")
	}
	if i.IDNumber == "" {
		return fmt.Errorf("identity %q: id_number is required", i.Name)
	}
	if i.Phone == "" {
		return fmt.Errorf("identity %q: phone is required", i.Name)
	}
	return nil
}

// Edit applies non-empty replacement values and returns the updated copy.
// The stable ID is preserved.
func (i Identity) Edit(name, idType, idNumber, phone string) (Identity, error) {
	if v := strings.TrimSpace(name); v != "" {
		i.Name = v
	}
	if v := strings.TrimSpace(idType); v != "" {
		i.IDType = v
	}
	if v := strings.TrimSpace(idNumber); v != "" {
		i.IDNumber = v
	}
	if v := strings.TrimSpace(phone); v != "" {
		i.Phone = v
	}
	return i, i.Validate()
}
