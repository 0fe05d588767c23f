package ssdp

import "testing"

func TestParseAlive(t *testing.T) {
	raw := BuildAlive(AdvertisementFields{
		NT:       "upnp:rootdevice",
		USN:      mustUSN(t),
		Location: "http://127.0.0.1:8080/desc.xml",
		MaxAge:   1800,
		Server:   "Linux/5.0 UPnP/1.1 test/1.0",
	})
	msg, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if msg.Kind != ResourceAvailable {
		t.Errorf("got kind %v, want ResourceAvailable", msg.Kind)
	}
	if msg.Get("NT") != "upnp:rootdevice" {
		t.Errorf("got NT %q", msg.Get("NT"))
	}
	maxAge, err := msg.MaxAge()
	if err != nil || maxAge != 1800 {
		t.Errorf("got maxAge %v, err %v", maxAge, err)
	}
}

func TestParseByebye(t *testing.T) {
	raw := BuildByebye(AdvertisementFields{NT: "upnp:rootdevice", USN: mustUSN(t)})
	msg, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if msg.Kind != ResourceUnavailable {
		t.Errorf("got kind %v, want ResourceUnavailable", msg.Kind)
	}
}

func TestParseSearchRequest(t *testing.T) {
	raw := BuildSearchRequest("ssdp:all", 3, "")
	msg, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if msg.Kind != DiscoveryRequest {
		t.Errorf("got kind %v, want DiscoveryRequest", msg.Kind)
	}
	if msg.MX() != 3 {
		t.Errorf("got MX %d, want 3", msg.MX())
	}
}

func TestParseSearchRequestMissingMan(t *testing.T) {
	raw := []byte("M-SEARCH * HTTP/1.1\r\nHOST: 239.255.255.250:1900\r\nST: ssdp:all\r\nMX: 3\r\n\r\n")
	if _, err := Parse(raw); err == nil {
		t.Error("expected error for missing MAN header")
	}
}

func TestParseDiscoveryResponse(t *testing.T) {
	raw := BuildSearchResponse("ssdp:all", AdvertisementFields{
		USN: mustUSN(t), Location: "http://127.0.0.1:8080/desc.xml", MaxAge: 1800,
		Server: "Linux/5.0 UPnP/1.1 test/1.0",
	})
	msg, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if msg.Kind != DiscoveryResponse {
		t.Errorf("got kind %v, want DiscoveryResponse", msg.Kind)
	}
}

func TestParseMalformedDropped(t *testing.T) {
	if _, err := Parse([]byte("garbage\r\n\r\n")); err == nil {
		t.Error("expected error for malformed message")
	}
}
