package control

import (
	"context"
	"testing"

	"github.com/upnpforge/upnpstack/model"
	"github.com/upnpforge/upnpstack/types"
)

func testDevice(t *testing.T) *model.Device {
	t.Helper()
	dt, err := types.ParseResourceType("urn:schemas-upnp-org:device:BinaryLight:1")
	if err != nil {
		t.Fatalf("ParseResourceType: %v", err)
	}
	return model.NewDevice(model.DeviceInfo{
		DeviceType:   dt,
		UDN:          types.NewUDN(),
		FriendlyName: "Test Light",
	})
}

func testService(t *testing.T) *model.Service {
	t.Helper()
	sid, err := types.ParseServiceID("urn:upnp-org:serviceId:SwitchPower1")
	if err != nil {
		t.Fatal(err)
	}
	st, err := types.ParseResourceType("urn:schemas-upnp-org:service:SwitchPower:1")
	if err != nil {
		t.Fatal(err)
	}
	return model.NewService(sid, st, "/scpd.xml", "/control", "/event")
}

func TestQuitBeforeInitFails(t *testing.T) {
	c := New()
	if err := c.Quit(context.Background()); err != ErrNotInitialized {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
}

func TestInitTwiceFails(t *testing.T) {
	c := New()
	c.state = stateInitialized

	if err := c.Init(context.Background()); err != ErrAlreadyInitialized {
		t.Errorf("expected ErrAlreadyInitialized, got %v", err)
	}
}

func TestDeviceLookupMiss(t *testing.T) {
	c := New()
	if _, ok := c.Device(types.NewUDN()); ok {
		t.Error("expected lookup miss for unknown UDN")
	}
}

func TestDevicesAndDeviceReflectTracking(t *testing.T) {
	c := New()
	device := testDevice(t)
	td := &trackedDevice{device: device}

	c.mu.Lock()
	c.devices[device.UDN()] = td
	c.mu.Unlock()

	got, ok := c.Device(device.UDN())
	if !ok || got != device {
		t.Fatalf("expected to find tracked device, got %v, %v", got, ok)
	}
	if len(c.Devices()) != 1 {
		t.Errorf("expected 1 tracked device, got %d", len(c.Devices()))
	}
}

func TestFindServiceByIDSearchesEmbeddedDevices(t *testing.T) {
	root := testDevice(t)
	child := model.NewDevice(model.DeviceInfo{
		DeviceType: root.DeviceType(),
		UDN:        types.NewUDN(),
	})
	svc := testService(t)
	child.AddService(svc)
	root.AddEmbeddedDevice(child)

	found := findServiceByID(root, svc.ServiceID())
	if found != svc {
		t.Error("expected to find service on embedded device")
	}
}

func TestFindServiceByIDMissReturnsNil(t *testing.T) {
	root := testDevice(t)
	unknown, _ := types.ParseServiceID("urn:upnp-org:serviceId:DoesNotExist1")
	if found := findServiceByID(root, unknown); found != nil {
		t.Errorf("expected nil for unknown service ID, got %v", found)
	}
}

func TestInvokeUnknownDevice(t *testing.T) {
	c := New()
	_, err := c.Invoke(context.Background(), types.NewUDN(), types.ServiceID{}, "GetStatus", nil)
	if err != ErrUnknownDevice {
		t.Errorf("expected ErrUnknownDevice, got %v", err)
	}
}

func TestInvokeUnknownService(t *testing.T) {
	c := New()
	device := testDevice(t)
	c.mu.Lock()
	c.devices[device.UDN()] = &trackedDevice{device: device}
	c.mu.Unlock()

	unknown, _ := types.ParseServiceID("urn:upnp-org:serviceId:DoesNotExist1")
	_, err := c.Invoke(context.Background(), device.UDN(), unknown, "GetStatus", nil)
	if err != ErrUnknownService {
		t.Errorf("expected ErrUnknownService, got %v", err)
	}
}

func TestInvokeUnknownAction(t *testing.T) {
	c := New()
	device := testDevice(t)
	svc := testService(t)
	device.AddService(svc)
	c.mu.Lock()
	c.devices[device.UDN()] = &trackedDevice{device: device}
	c.mu.Unlock()

	_, err := c.Invoke(context.Background(), device.UDN(), svc.ServiceID(), "NoSuchAction", nil)
	if err != ErrUnknownAction {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}
}

func TestResolveAgainstRelative(t *testing.T) {
	got, err := resolveAgainst("http://192.168.1.5:8080/desc.xml", "/control")
	if err != nil {
		t.Fatalf("resolveAgainst: %v", err)
	}
	if got != "http://192.168.1.5:8080/control" {
		t.Errorf("got %q", got)
	}
}

func TestResolveAgainstAbsolute(t *testing.T) {
	got, err := resolveAgainst("http://192.168.1.5:8080/desc.xml", "http://other.host/control")
	if err != nil {
		t.Fatalf("resolveAgainst: %v", err)
	}
	if got != "http://other.host/control" {
		t.Errorf("got %q", got)
	}
}

func TestBaseURLOf(t *testing.T) {
	got, err := baseURLOf("http://192.168.1.5:8080/device_description.xml")
	if err != nil {
		t.Fatalf("baseURLOf: %v", err)
	}
	if got != "http://192.168.1.5:8080" {
		t.Errorf("got %q", got)
	}
}

func TestBaseURLOfRejectsInvalidLocation(t *testing.T) {
	if _, err := baseURLOf("://not a url"); err == nil {
		t.Error("expected error for malformed LOCATION")
	}
}

func TestSplitHostPort(t *testing.T) {
	host, port := splitHostPort("127.0.0.1:1900")
	if host != "127.0.0.1" || port != "1900" {
		t.Errorf("got host=%q port=%q", host, port)
	}
}
