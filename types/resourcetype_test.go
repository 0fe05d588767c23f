package types

import "testing"

func TestParseResourceTypeRoundTrip(t *testing.T) {
	cases := []string{
		"urn:schemas-upnp-org:device:BinaryLight:1",
		"urn:schemas-upnp-org:service:SwitchPower:1.2",
	}
	for _, s := range cases {
		rt, err := ParseResourceType(s)
		if err != nil {
			t.Fatalf("ParseResourceType(%q): %v", s, err)
		}
		if got := rt.String(); got != s {
			t.Errorf("round trip: got %q, want %q", got, s)
		}
	}
}

func TestParseResourceTypeInvalid(t *testing.T) {
	cases := []string{
		"",
		"urn:schemas-upnp-org:device:BinaryLight",
		"notaurn:schemas-upnp-org:device:BinaryLight:1",
		"urn:schemas-upnp-org:widget:BinaryLight:1",
		"urn:schemas-upnp-org:device:BinaryLight:notanumber",
	}
	for _, s := range cases {
		if _, err := ParseResourceType(s); err == nil {
			t.Errorf("ParseResourceType(%q): expected error, got nil", s)
		}
	}
}

func TestCompareExact(t *testing.T) {
	a, _ := ParseResourceType("urn:schemas-upnp-org:device:BinaryLight:1")
	b, _ := ParseResourceType("urn:schemas-upnp-org:device:BinaryLight:1")
	c, _ := ParseResourceType("urn:schemas-upnp-org:device:BinaryLight:2")

	if !Compare(a, b, Exact) {
		t.Error("expected identical resource types to match under Exact")
	}
	if Compare(a, c, Exact) {
		t.Error("expected different versions to not match under Exact")
	}
}

func TestCompareInclusive(t *testing.T) {
	target, _ := ParseResourceType("urn:schemas-upnp-org:device:BinaryLight:1")
	stored, _ := ParseResourceType("urn:schemas-upnp-org:device:BinaryLight:2")

	if !Compare(target, stored, Inclusive) {
		t.Error("expected target.version <= stored.version to match under Inclusive")
	}
	if Compare(stored, target, Inclusive) {
		t.Error("expected target.version > stored.version to not match under Inclusive")
	}
}

func TestCompareDifferentIdentity(t *testing.T) {
	a, _ := ParseResourceType("urn:schemas-upnp-org:device:BinaryLight:1")
	b, _ := ParseResourceType("urn:schemas-upnp-org:service:SwitchPower:1")

	if Compare(a, b, Inclusive) {
		t.Error("expected different kind/type to never match")
	}
}
