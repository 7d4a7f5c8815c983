//go:build go1.18

package domain

import (
	"testing"
)

// FuzzParseOrganizationID checks that parsing never panics on arbitrary
// input and that every accepted value round-trips through String.
func FuzzParseOrganizationID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE disclaimer_rules;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("550e8400-e29b-41d4-a716-446655440000\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseOrganizationID(input)
		if err != nil {
			return
		}
		roundTrip, err := ParseOrganizationID(id.String())
		if err != nil {
			t.Errorf("accepted ID failed round-trip: %v", err)
		}
		if roundTrip != id {
			t.Error("round-trip changed ID value")
		}
	})
}

// FuzzParseAllIDs ensures all ID types validate identically.
func FuzzParseAllIDs(f *testing.F) {
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("")
	f.Add("invalid")

	f.Fuzz(func(t *testing.T, input string) {
		_, errOrg := ParseOrganizationID(input)
		_, errUser := ParseUserID(input)
		_, errRule := ParseRuleID(input)
		_, errTemplate := ParseTemplateID(input)

		accepted := errOrg == nil
		if (errUser == nil) != accepted || (errRule == nil) != accepted || (errTemplate == nil) != accepted {
			t.Error("inconsistent validation across ID types")
		}
	})
}
