package types

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// SID is a GENA subscription identifier: "uuid:XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX".
type SID string

// NewSID mints a fresh subscription identifier.
func NewSID() SID {
	return SID("uuid:" + uuid.New().String())
}

// ParseSID validates s as an SID.
func ParseSID(s string) (SID, error) {
	s = strings.TrimSpace(s)
	rest, ok := strings.CutPrefix(s, "uuid:")
	if !ok {
		return "", fmt.Errorf("types: SID %q: missing uuid: prefix", s)
	}
	if _, err := uuid.Parse(rest); err != nil {
		return "", fmt.Errorf("types: SID %q: %w", s, err)
	}
	return SID(s), nil
}

func (s SID) String() string { return string(s) }
