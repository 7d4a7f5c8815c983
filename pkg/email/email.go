// Package email holds small helpers for working with email addresses.
package email

import "strings"

// Domain extracts the domain portion of an email address, lowercased.
// It returns "" when the address has no usable domain (no "@", or nothing
// after it); callers treat that as "domain unknown" rather than an error.
func Domain(address string) string {
	at := strings.IndexByte(address, '@')
	if at < 0 || at == len(address)-1 {
		return ""
	}
	return strings.ToLower(address[at+1:])
}

// SameDomain reports whether the address belongs to the given organization
// domain, comparing case-insensitively. A malformed address never matches.
func SameDomain(address, orgDomain string) bool {
	d := Domain(address)
	return d != "" && d == strings.ToLower(orgDomain)
}
