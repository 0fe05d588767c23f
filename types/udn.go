// Package types implements the small immutable value objects of the UPnP
// device architecture: UDN, resource types, service identifiers, USNs,
// product tokens, timeouts and subscription identifiers. Each type owns its
// own parse/validate/format logic so the rest of the stack never touches
// raw strings for these concepts.
package types

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// UDN is a Unique Device Name: "uuid:XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX".
// It is invariant for the lifetime of a device instance.
type UDN string

// NewUDN generates a fresh, valid UDN using a random (v4) UUID.
func NewUDN() UDN {
	return UDN("uuid:" + uuid.New().String())
}

// ParseUDN validates s as a UDN and returns it unchanged (UDN's wire form
// and in-memory form are identical).
func ParseUDN(s string) (UDN, error) {
	s = strings.TrimSpace(s)
	rest, ok := strings.CutPrefix(s, "uuid:")
	if !ok {
		return "", fmt.Errorf("types: UDN %q: missing uuid: prefix", s)
	}
	if _, err := uuid.Parse(rest); err != nil {
		return "", fmt.Errorf("types: UDN %q: %w", s, err)
	}
	return UDN(s), nil
}

// String returns the wire representation, e.g. "uuid:...".
func (u UDN) String() string { return string(u) }

// Valid reports whether u parses as a well-formed UDN.
func (u UDN) Valid() bool {
	_, err := ParseUDN(string(u))
	return err == nil
}
