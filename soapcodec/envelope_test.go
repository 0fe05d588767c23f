package soapcodec

import (
	"strings"
	"testing"

	"github.com/upnpforge/upnpstack/model"
)

func TestEncodeDecodeRequestRoundTrip(t *testing.T) {
	body, err := EncodeRequest("urn:schemas-upnp-org:service:SwitchPower:1", "SetTarget",
		[]OrderedArg{{Name: "newTargetValue", Value: "1"}})
	if err != nil {
		t.Fatalf("EncodeRequest: %v", err)
	}
	req, err := DecodeRequest(body)
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if req.ActionName != "SetTarget" {
		t.Errorf("got action %q, want SetTarget", req.ActionName)
	}
	if len(req.Args) != 1 || req.Args[0].Name != "newTargetValue" || req.Args[0].Value != "1" {
		t.Errorf("got args %+v", req.Args)
	}
}

func TestEncodeDecodeResponseRoundTrip(t *testing.T) {
	body, err := EncodeResponse("urn:schemas-upnp-org:service:SwitchPower:1", "GetTarget",
		[]OrderedArg{{Name: "RetTargetValue", Value: "0"}})
	if err != nil {
		t.Fatalf("EncodeResponse: %v", err)
	}
	resp, err := DecodeResponse(body)
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if resp.ActionName != "GetTarget" {
		t.Errorf("got action %q, want GetTarget", resp.ActionName)
	}
	if len(resp.Args) != 1 || resp.Args[0].Value != "0" {
		t.Errorf("got args %+v", resp.Args)
	}
}

func TestEncodeDecodeFaultRoundTrip(t *testing.T) {
	body, err := EncodeFault(model.ErrInvalidArgs, "bad argument")
	if err != nil {
		t.Fatalf("EncodeFault: %v", err)
	}
	if !strings.Contains(string(body), "<s:Fault>") {
		t.Fatalf("body missing Fault element: %s", body)
	}
	fault, err := DecodeFault(body)
	if err != nil {
		t.Fatalf("DecodeFault: %v", err)
	}
	if fault.Code != model.ErrInvalidArgs {
		t.Errorf("got code %d, want %d", fault.Code, model.ErrInvalidArgs)
	}
	if fault.Description != "bad argument" {
		t.Errorf("got description %q", fault.Description)
	}
}

func TestEncodeEscapesArgumentValues(t *testing.T) {
	body, err := EncodeRequest("urn:schemas-upnp-org:service:Test:1", "Echo",
		[]OrderedArg{{Name: "msg", Value: "<hello & \"world\">"}})
	if err != nil {
		t.Fatalf("EncodeRequest: %v", err)
	}
	req, err := DecodeRequest(body)
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if req.Args[0].Value != "<hello & \"world\">" {
		t.Errorf("got %q after round trip", req.Args[0].Value)
	}
}
