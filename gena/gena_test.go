package gena

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/upnpforge/upnpstack/model"
	"github.com/upnpforge/upnpstack/types"
)

func testService(t *testing.T) *model.Service {
	t.Helper()
	sid, err := types.ParseServiceID("urn:upnp-org:serviceId:SwitchPower")
	if err != nil {
		t.Fatal(err)
	}
	rt, err := types.ParseResourceType("urn:schemas-upnp-org:service:SwitchPower:1")
	if err != nil {
		t.Fatal(err)
	}
	svc := model.NewService(sid, rt, "/scpd.xml", "/control", "/event")
	status := model.NewStateVariable("Status", model.TypeBoolean, model.EventingUnicastOnly)
	if err := svc.AddStateVariable(status); err != nil {
		t.Fatal(err)
	}
	return svc
}

func TestEncodeDecodePropertySetRoundTrip(t *testing.T) {
	svc := testService(t)
	status, _ := svc.StateVariable("Status")
	status.SetValue(true)

	body, err := EncodePropertySet(svc.EventedStateVariables())
	if err != nil {
		t.Fatalf("EncodePropertySet: %v", err)
	}
	props, err := DecodePropertySet(body)
	if err != nil {
		t.Fatalf("DecodePropertySet: %v", err)
	}
	if len(props) != 1 || props[0].Name != "Status" || props[0].Value != "1" {
		t.Errorf("got props %+v", props)
	}
}

func TestRegistrySubscribeSendsInitialNotify(t *testing.T) {
	svc := testService(t)
	delivered := make(chan uint32, 4)
	reg := NewRegistry(func(sub *model.HostSubscription, seq uint32, body []byte) {
		delivered <- seq
	})

	sub := reg.Subscribe(svc, []string{"http://example.invalid/cb"}, types.ClampTimeout(1800))
	if sub.SID == "" {
		t.Fatal("expected non-empty SID")
	}
	if seq := <-delivered; seq != 0 {
		t.Errorf("got initial seq %d, want 0", seq)
	}
}

func TestRegistryNotifyChangeAdvancesSEQ(t *testing.T) {
	svc := testService(t)
	delivered := make(chan uint32, 4)
	reg := NewRegistry(func(sub *model.HostSubscription, seq uint32, body []byte) {
		delivered <- seq
	})
	reg.Subscribe(svc, []string{"http://example.invalid/cb"}, types.ClampTimeout(1800))
	<-delivered // drain initial SEQ=0

	status, _ := svc.StateVariable("Status")
	status.SetValue(false)
	reg.NotifyChange(svc, status)

	if seq := <-delivered; seq != 1 {
		t.Errorf("got seq %d, want 1", seq)
	}
}

func TestRegistryUnsubscribeRemovesSID(t *testing.T) {
	svc := testService(t)
	reg := NewRegistry(func(*model.HostSubscription, uint32, []byte) {})
	sub := reg.Subscribe(svc, []string{"http://example.invalid/cb"}, types.ClampTimeout(1800))

	if !reg.Unsubscribe(sub.SID) {
		t.Fatal("expected Unsubscribe to succeed")
	}
	if reg.Unsubscribe(sub.SID) {
		t.Fatal("expected second Unsubscribe to fail")
	}
	if _, ok := reg.Lookup(sub.SID); ok {
		t.Fatal("expected SID to be gone after unsubscribe")
	}
}

func TestManagerRejectsUnknownSID(t *testing.T) {
	svc := testService(t)
	sub := model.NewClientSubscription(svc, "/notify/abc")
	sub.MarkSubscribed(types.NewSID(), types.ClampTimeout(1800))

	m := NewManager()
	m.Register(sub)

	req := httptest.NewRequest("NOTIFY", "/notify/abc", nil)
	req.Header.Set("SID", string(types.NewSID()))
	req.Header.Set("NT", "upnp:event")
	req.Header.Set("NTS", "upnp:propchange")
	req.Header.Set("SEQ", "0")
	w := httptest.NewRecorder()
	m.ServeHTTP(w, req)

	if w.Code != http.StatusPreconditionFailed {
		t.Errorf("got status %d, want 412", w.Code)
	}
}

func TestManagerAppliesInitialNotify(t *testing.T) {
	svc := testService(t)
	sid := types.NewSID()
	sub := model.NewClientSubscription(svc, "/notify/abc")
	sub.MarkSubscribed(sid, types.ClampTimeout(1800))

	m := NewManager()
	m.Register(sub)

	body, err := EncodePropertySet(svc.EventedStateVariables())
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("NOTIFY", "/notify/abc", bytes.NewReader(body))
	req.Header.Set("SID", string(sid))
	req.Header.Set("NT", "upnp:event")
	req.Header.Set("NTS", "upnp:propchange")
	req.Header.Set("SEQ", "0")
	w := httptest.NewRecorder()
	m.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", w.Code)
	}
}
