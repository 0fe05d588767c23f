package builder

import "testing"

const testSCPD = `<?xml version="1.0"?>
<scpd xmlns="urn:schemas-upnp-org:service-1-0">
  <specVersion><major>1</major><minor>0</minor></specVersion>
  <actionList>
    <action>
      <name>SetTarget</name>
      <argumentList>
        <argument><name>newTargetValue</name><direction>in</direction><relatedStateVariable>Target</relatedStateVariable></argument>
      </argumentList>
    </action>
    <action>
      <name>GetTarget</name>
      <argumentList>
        <argument><name>RetTargetValue</name><direction>out</direction><relatedStateVariable>Target</relatedStateVariable><retval/></argument>
      </argumentList>
    </action>
    <action>
      <name>GetStatus</name>
      <argumentList>
        <argument><name>ResultStatus</name><direction>out</direction><relatedStateVariable>Status</relatedStateVariable><retval/></argument>
      </argumentList>
    </action>
  </actionList>
  <serviceStateTable>
    <stateVariable sendEvents="no"><name>Target</name><dataType>boolean</dataType><defaultValue>0</defaultValue></stateVariable>
    <stateVariable sendEvents="yes"><name>Status</name><dataType>boolean</dataType><defaultValue>0</defaultValue></stateVariable>
  </serviceStateTable>
</scpd>`

const testDeviceDescription = `<?xml version="1.0"?>
<root xmlns="urn:schemas-upnp-org:device-1-0">
  <specVersion><major>1</major><minor>0</minor></specVersion>
  <device>
    <deviceType>urn:schemas-upnp-org:device:BinaryLight:1</deviceType>
    <friendlyName>Test Light</friendlyName>
    <manufacturer>Acme</manufacturer>
    <modelName>Model T</modelName>
    <UDN>uuid:138d3934-4202-45d7-bf35-8b50b0208139</UDN>
    <serviceList>
      <service>
        <serviceType>urn:schemas-upnp-org:service:SwitchPower:1</serviceType>
        <serviceId>urn:upnp-org:serviceId:SwitchPower</serviceId>
        <SCPDURL>/switchpower.xml</SCPDURL>
        <controlURL>/control/SwitchPower</controlURL>
        <eventSubURL>/event/SwitchPower</eventSubURL>
      </service>
    </serviceList>
  </device>
</root>`

type fakeFetcher map[string][]byte

func (f fakeFetcher) Fetch(url string) ([]byte, error) {
	data, ok := f[url]
	if !ok {
		return nil, parseErr("no such fetchable resource: %s", url)
	}
	return data, nil
}

func TestBuildRootDeviceParsesServiceAndActions(t *testing.T) {
	opts := Options{Fetcher: fakeFetcher{"/switchpower.xml": []byte(testSCPD)}}
	device, err := BuildRootDevice([]byte(testDeviceDescription), opts)
	if err != nil {
		t.Fatalf("BuildRootDevice: %v", err)
	}

	if device.Info().FriendlyName != "Test Light" {
		t.Errorf("got friendlyName %q", device.Info().FriendlyName)
	}

	services := device.Services()
	if len(services) != 1 {
		t.Fatalf("expected 1 service, got %d", len(services))
	}
	svc := services[0]

	if len(svc.Actions()) != 3 {
		t.Fatalf("expected 3 actions, got %d", len(svc.Actions()))
	}

	getTarget, ok := svc.Action("GetTarget")
	if !ok {
		t.Fatal("expected GetTarget action")
	}
	if !getTarget.HasRetval() {
		t.Error("expected GetTarget to have a retval")
	}

	if !svc.IsEvented() {
		t.Error("expected service to be evented (Status sends events)")
	}
}

const testDeviceDescriptionWithIcon = `<?xml version="1.0"?>
<root xmlns="urn:schemas-upnp-org:device-1-0">
  <specVersion><major>1</major><minor>0</minor></specVersion>
  <device>
    <deviceType>urn:schemas-upnp-org:device:BinaryLight:1</deviceType>
    <friendlyName>Test Light</friendlyName>
    <manufacturer>Acme</manufacturer>
    <modelName>Model T</modelName>
    <UDN>uuid:138d3934-4202-45d7-bf35-8b50b0208139</UDN>
    <iconList>
      <icon>
        <mimetype>image/png</mimetype>
        <width>32</width>
        <height>32</height>
        <depth>24</depth>
        <url>/icon.png</url>
      </icon>
    </iconList>
  </device>
</root>`

func TestBuildRootDeviceAttachesFetchedIconBytes(t *testing.T) {
	opts := Options{Fetcher: fakeFetcher{"/icon.png": []byte("fake-png-bytes")}}
	device, err := BuildRootDevice([]byte(testDeviceDescriptionWithIcon), opts)
	if err != nil {
		t.Fatalf("BuildRootDevice: %v", err)
	}

	icon, ok := device.Icon("/icon.png")
	if !ok {
		t.Fatal("expected icon to be attached")
	}
	if icon.Mimetype != "image/png" || icon.Width != 32 || icon.Height != 32 || icon.Depth != 24 {
		t.Errorf("got icon metadata %+v", icon)
	}
	if string(icon.Data) != "fake-png-bytes" {
		t.Errorf("got icon data %q", icon.Data)
	}
}

func TestBuildRootDeviceLenientlyDropsUnreachableIconBytes(t *testing.T) {
	opts := Options{Fetcher: fakeFetcher{}, Strict: false}
	device, err := BuildRootDevice([]byte(testDeviceDescriptionWithIcon), opts)
	if err != nil {
		t.Fatalf("BuildRootDevice: %v", err)
	}

	icon, ok := device.Icon("/icon.png")
	if !ok {
		t.Fatal("expected icon metadata to be kept even without bytes")
	}
	if icon.Data != nil {
		t.Errorf("expected no icon data, got %d bytes", len(icon.Data))
	}
}

func TestBuildRootDeviceStrictFailsOnUnreachableIcon(t *testing.T) {
	opts := Options{Fetcher: fakeFetcher{}, Strict: true}
	if _, err := BuildRootDevice([]byte(testDeviceDescriptionWithIcon), opts); err == nil {
		t.Error("expected strict build to fail on unreachable icon")
	}
}

func TestBuildRootDeviceRejectsMissingUDN(t *testing.T) {
	bad := `<?xml version="1.0"?>
<root><specVersion><major>1</major><minor>0</minor></specVersion>
<device>
  <deviceType>urn:schemas-upnp-org:device:BinaryLight:1</deviceType>
  <friendlyName>Test Light</friendlyName>
  <manufacturer>Acme</manufacturer>
  <modelName>Model T</modelName>
</device></root>`
	if _, err := BuildRootDevice([]byte(bad), Options{}); err == nil {
		t.Error("expected error for missing UDN")
	}
}

func TestBuildRootDeviceRejectsBadSpecVersion(t *testing.T) {
	bad := `<?xml version="1.0"?>
<root><specVersion><major>2</major><minor>0</minor></specVersion>
<device></device></root>`
	if _, err := BuildRootDevice([]byte(bad), Options{}); err == nil {
		t.Error("expected error for unsupported specVersion")
	}
}
