package model

import (
	"strings"
	"testing"

	"github.com/upnpforge/upnpstack/types"
)

func testDevice(t *testing.T) *Device {
	t.Helper()
	rt, err := types.ParseResourceType("urn:schemas-upnp-org:device:BinaryLight:1")
	if err != nil {
		t.Fatal(err)
	}
	udn, err := types.ParseUDN("uuid:138d3934-4202-45d7-bf35-8b50b0208139")
	if err != nil {
		t.Fatal(err)
	}
	return NewDevice(DeviceInfo{
		DeviceType:   rt,
		UDN:          udn,
		FriendlyName: "Lamp",
		Manufacturer: "Acme",
		ModelName:    "Lamp2000",
	})
}

func TestToDeviceDescriptionDocumentRendersIdentity(t *testing.T) {
	d := testDevice(t)
	sid, _ := types.ParseServiceID("urn:upnp-org:serviceId:SwitchPower")
	svcType, _ := types.ParseResourceType("urn:schemas-upnp-org:service:SwitchPower:1")
	svc := NewService(sid, svcType, "/scpd.xml", "/control", "/event")
	if err := d.AddService(svc); err != nil {
		t.Fatal(err)
	}

	doc := d.ToDeviceDescriptionDocument()
	s, err := doc.WriteToString()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Lamp", "Acme", "uuid:138d3934-4202-45d7-bf35-8b50b0208139", "SwitchPower", "/control"} {
		if !strings.Contains(s, want) {
			t.Errorf("rendered description missing %q:\n%s", want, s)
		}
	}
}
