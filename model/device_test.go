package model

import (
	"testing"

	"github.com/upnpforge/upnpstack/types"
)

func testDeviceType(t *testing.T) types.ResourceType {
	rt, err := types.ParseResourceType("urn:schemas-upnp-org:device:BinaryLight:1")
	if err != nil {
		t.Fatalf("ParseResourceType: %v", err)
	}
	return rt
}

func testServiceID(id string) types.ServiceID {
	return types.ServiceID{Vendor: "schemas-upnp-org", ID: id}
}

func testServiceType(t *testing.T) types.ResourceType {
	rt, err := types.ParseResourceType("urn:schemas-upnp-org:service:SwitchPower:1")
	if err != nil {
		t.Fatalf("ParseResourceType: %v", err)
	}
	return rt
}

func TestValidateUniqueDetectsDuplicateUDN(t *testing.T) {
	udn := types.NewUDN()
	root := NewDevice(DeviceInfo{DeviceType: testDeviceType(t), UDN: udn})
	child := NewDevice(DeviceInfo{DeviceType: testDeviceType(t), UDN: udn})

	if err := root.AddEmbeddedDevice(child); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := root.ValidateUnique(); err == nil {
		t.Error("expected duplicate UDN to be rejected")
	}
}

func TestValidateUniqueDetectsDuplicateControlURL(t *testing.T) {
	root := NewDevice(DeviceInfo{DeviceType: testDeviceType(t), UDN: types.NewUDN()})
	s1 := NewService(testServiceID("1"), testServiceType(t), "/s1.xml", "/control", "/event1")
	s2 := NewService(testServiceID("2"), testServiceType(t), "/s2.xml", "/control", "/event2")

	if err := root.AddService(s1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := root.AddService(s2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := root.ValidateUnique(); err == nil {
		t.Error("expected duplicate controlUrl to be rejected")
	}
}

func TestServicesByTypeInclusiveMatch(t *testing.T) {
	root := NewDevice(DeviceInfo{DeviceType: testDeviceType(t), UDN: types.NewUDN()})
	svcType, _ := types.ParseResourceType("urn:schemas-upnp-org:service:SwitchPower:2")
	s := NewService(testServiceID("1"), svcType, "/s.xml", "/control", "/event")
	root.AddService(s)

	target, _ := types.ParseResourceType("urn:schemas-upnp-org:service:SwitchPower:1")
	matches := root.ServicesByType(target, types.Inclusive)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
}

func TestEmbeddedDeviceParentLink(t *testing.T) {
	root := NewDevice(DeviceInfo{DeviceType: testDeviceType(t), UDN: types.NewUDN()})
	child := NewDevice(DeviceInfo{DeviceType: testDeviceType(t), UDN: types.NewUDN()})
	root.AddEmbeddedDevice(child)

	if child.ParentDevice() != root {
		t.Error("expected child's parent to be root")
	}
	if !root.IsRoot() {
		t.Error("expected root.IsRoot() true")
	}
	if child.IsRoot() {
		t.Error("expected child.IsRoot() false")
	}
	if child.RootDevice() != root {
		t.Error("expected child.RootDevice() to be root")
	}
}

func TestAddLocationDedups(t *testing.T) {
	root := NewDevice(DeviceInfo{DeviceType: testDeviceType(t), UDN: types.NewUDN()})
	root.AddLocation("http://1.2.3.4:1900/desc.xml")
	root.AddLocation("http://1.2.3.4:1900/desc.xml")
	if len(root.Locations()) != 1 {
		t.Errorf("expected 1 location after dedup, got %d", len(root.Locations()))
	}
}
