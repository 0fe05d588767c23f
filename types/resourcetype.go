package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind distinguishes device resource types from service resource types.
type Kind string

const (
	KindDevice  Kind = "device"
	KindService Kind = "service"
)

// MatchMode selects how two ResourceTypes are compared.
type MatchMode int

const (
	// Exact requires every field to match.
	Exact MatchMode = iota
	// Inclusive requires the same urn/vendor/kind/type and
	// target.Version <= stored.Version.
	Inclusive
)

// ResourceType models "urn:<vendor-domain>:{device,service}:<type>:<majorVersion>[.<minorVersion>]".
type ResourceType struct {
	Vendor  string
	Kind    Kind
	Type    string
	Major   int
	Minor   int // 0 when absent from the wire form
}

// ParseResourceType parses the urn form used throughout device/service
// descriptions and SSDP search/notification targets.
func ParseResourceType(s string) (ResourceType, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 5 || parts[0] != "urn" {
		return ResourceType{}, fmt.Errorf("types: %q is not a valid resource type", s)
	}

	var kind Kind
	switch parts[2] {
	case "device":
		kind = KindDevice
	case "service":
		kind = KindService
	default:
		return ResourceType{}, fmt.Errorf("types: %q: unknown kind %q", s, parts[2])
	}

	major, minor, err := parseVersion(parts[4])
	if err != nil {
		return ResourceType{}, fmt.Errorf("types: %q: %w", s, err)
	}

	return ResourceType{
		Vendor: parts[1],
		Kind:   kind,
		Type:   parts[3],
		Major:  major,
		Minor:  minor,
	}, nil
}

func parseVersion(s string) (major, minor int, err error) {
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		major, err = strconv.Atoi(s)
		return major, 0, err
	}
	major, err = strconv.Atoi(s[:dot])
	if err != nil {
		return 0, 0, err
	}
	minor, err = strconv.Atoi(s[dot+1:])
	return major, minor, err
}

// String renders the urn form, e.g. "urn:schemas-upnp-org:device:BinaryLight:1".
func (r ResourceType) String() string {
	if r.Minor == 0 {
		return fmt.Sprintf("urn:%s:%s:%s:%d", r.Vendor, r.Kind, r.Type, r.Major)
	}
	return fmt.Sprintf("urn:%s:%s:%s:%d.%d", r.Vendor, r.Kind, r.Type, r.Major, r.Minor)
}

func (r ResourceType) sameIdentity(o ResourceType) bool {
	return r.Vendor == o.Vendor && r.Kind == o.Kind && r.Type == o.Type
}

func (r ResourceType) versionLessEq(o ResourceType) bool {
	if r.Major != o.Major {
		return r.Major < o.Major
	}
	return r.Minor <= o.Minor
}

// Compare reports whether target matches stored under mode. See spec §4.1
// "Version matching": Exact requires all fields equal; Inclusive requires
// the same urn/vendor/kind/type and target.version <= stored.version.
func Compare(target, stored ResourceType, mode MatchMode) bool {
	if !target.sameIdentity(stored) {
		return false
	}
	switch mode {
	case Exact:
		return target.Major == stored.Major && target.Minor == stored.Minor
	case Inclusive:
		return target.versionLessEq(stored)
	default:
		return false
	}
}
