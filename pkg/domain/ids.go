// Package domain defines the typed identifiers shared across the engine.
//
// Each ID is a distinct named type wrapping uuid.UUID so that the compiler
// rejects cross-assignment (a RuleID can never be passed where a TemplateID
// is expected). Parse helpers enforce the invariant that IDs arriving at a
// trust boundary are valid, non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "sigclause/pkg/domain-errors"
)

type (
	// OrganizationID identifies a tenant organization (or an MSP parent).
	OrganizationID uuid.UUID

	// UserID identifies the email-sending user a resolution runs for.
	UserID uuid.UUID

	// RuleID identifies a disclaimer rule.
	RuleID uuid.UUID

	// TemplateID identifies a disclaimer template.
	TemplateID uuid.UUID
)

func (id OrganizationID) String() string { return uuid.UUID(id).String() }
func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id RuleID) String() string         { return uuid.UUID(id).String() }
func (id TemplateID) String() string     { return uuid.UUID(id).String() }

func (id OrganizationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id RuleID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id TemplateID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }

// MarshalText/UnmarshalText make the typed IDs JSON-friendly (string form,
// not a byte array) without giving up the distinct types.

func (id OrganizationID) MarshalText() ([]byte, error) { return marshalID(uuid.UUID(id)) }
func (id UserID) MarshalText() ([]byte, error)         { return marshalID(uuid.UUID(id)) }
func (id RuleID) MarshalText() ([]byte, error)         { return marshalID(uuid.UUID(id)) }
func (id TemplateID) MarshalText() ([]byte, error)     { return marshalID(uuid.UUID(id)) }

func (id *OrganizationID) UnmarshalText(b []byte) error {
	return unmarshalID((*uuid.UUID)(id), b)
}

func (id *UserID) UnmarshalText(b []byte) error {
	return unmarshalID((*uuid.UUID)(id), b)
}

func (id *RuleID) UnmarshalText(b []byte) error {
	return unmarshalID((*uuid.UUID)(id), b)
}

func (id *TemplateID) UnmarshalText(b []byte) error {
	return unmarshalID((*uuid.UUID)(id), b)
}

func marshalID(u uuid.UUID) ([]byte, error) {
	return []byte(u.String()), nil
}

func unmarshalID(dst *uuid.UUID, b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*dst = u
	return nil
}

// NewOrganizationID generates a fresh organization ID.
func NewOrganizationID() OrganizationID { return OrganizationID(uuid.New()) }

// NewUserID generates a fresh user ID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewRuleID generates a fresh rule ID.
func NewRuleID() RuleID { return RuleID(uuid.New()) }

// NewTemplateID generates a fresh template ID.
func NewTemplateID() TemplateID { return TemplateID(uuid.New()) }

// ParseOrganizationID validates and converts a string into an OrganizationID.
func ParseOrganizationID(s string) (OrganizationID, error) {
	u, err := parseUUID(s, "organization id")
	return OrganizationID(u), err
}

// ParseUserID validates and converts a string into a UserID.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user id")
	return UserID(u), err
}

// ParseRuleID validates and converts a string into a RuleID.
func ParseRuleID(s string) (RuleID, error) {
	u, err := parseUUID(s, "rule id")
	return RuleID(u), err
}

// ParseTemplateID validates and converts a string into a TemplateID.
func ParseTemplateID(s string) (TemplateID, error) {
	u, err := parseUUID(s, "template id")
	return TemplateID(u), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" must not be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" must not be the nil UUID")
	}
	return u, nil
}
