package types

import (
	"fmt"
	"strings"
)

// USN is a Unique Service Name: a UDN paired with a resource discriminator
// that is one of "upnp:rootdevice", a device/service type urn, or empty
// (meaning the USN is the bare UDN).
type USN struct {
	UDN      UDN
	Resource string // "", "upnp:rootdevice", or a ResourceType.String()
}

// String renders the wire form: "uuid:<UDN>" or "uuid:<UDN>::<resource>".
func (u USN) String() string {
	if u.Resource == "" {
		return u.UDN.String()
	}
	return u.UDN.String() + "::" + u.Resource
}

// ParseUSN splits a USN header value into UDN and resource discriminator.
func ParseUSN(s string) (USN, error) {
	udnPart, resource, _ := strings.Cut(s, "::")
	udn, err := ParseUDN(udnPart)
	if err != nil {
		return USN{}, fmt.Errorf("types: USN %q: %w", s, err)
	}
	return USN{UDN: udn, Resource: resource}, nil
}

// RootDeviceUSN returns the USN used for the "upnp:rootdevice" advertisement.
func RootDeviceUSN(udn UDN) USN { return USN{UDN: udn, Resource: "upnp:rootdevice"} }

// BareUSN returns the USN that is just the UDN, with no discriminator.
func BareUSN(udn UDN) USN { return USN{UDN: udn} }

// TypeUSN returns the USN for a device or service type advertisement.
func TypeUSN(udn UDN, rt ResourceType) USN { return USN{UDN: udn, Resource: rt.String()} }
