package types

import (
	"fmt"
	"strings"
)

// ServiceID models "urn:<vendor>:serviceId:<id>". Unique within a device.
type ServiceID struct {
	Vendor string
	ID     string
}

// ParseServiceID parses the urn:<vendor>:serviceId:<id> form.
func ParseServiceID(s string) (ServiceID, error) {
	const infix = ":serviceId:"
	idx := strings.Index(s, infix)
	if !strings.HasPrefix(s, "urn:") || idx < 0 {
		return ServiceID{}, fmt.Errorf("types: %q is not a valid serviceId", s)
	}
	vendor := s[len("urn:"):idx]
	id := s[idx+len(infix):]
	if vendor == "" || id == "" {
		return ServiceID{}, fmt.Errorf("types: %q is not a valid serviceId", s)
	}
	return ServiceID{Vendor: vendor, ID: id}, nil
}

func (s ServiceID) String() string {
	return fmt.Sprintf("urn:%s:serviceId:%s", s.Vendor, s.ID)
}
