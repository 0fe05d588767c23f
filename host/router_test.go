package host

import (
	"net/http/httptest"
	"testing"

	"github.com/upnpforge/upnpstack/model"
)

func TestIconHandlerServesFetchedBytes(t *testing.T) {
	h := New(testDevice(t))
	icon := &model.Icon{Mimetype: "image/png", URL: "/icon.png", Data: []byte("bytes")}

	req := httptest.NewRequest("GET", "/icon.png", nil)
	w := httptest.NewRecorder()
	h.iconHandler(icon)(w, req)

	if w.Code != 200 {
		t.Fatalf("got status %d, want 200", w.Code)
	}
	if w.Body.String() != "bytes" {
		t.Errorf("got body %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("got Content-Type %q", ct)
	}
}

func TestIconHandlerMissingDataReturns404(t *testing.T) {
	h := New(testDevice(t))
	icon := &model.Icon{URL: "/icon.png"}

	req := httptest.NewRequest("GET", "/icon.png", nil)
	w := httptest.NewRecorder()
	h.iconHandler(icon)(w, req)

	if w.Code != 404 {
		t.Errorf("got status %d, want 404", w.Code)
	}
}

func TestBuildRouterRegistersIconRoute(t *testing.T) {
	device := testDevice(t)
	device.AddIcon(&model.Icon{Mimetype: "image/png", URL: "/icon.png", Data: []byte("bytes")})

	h := New(device)
	h.baseURL = "http://127.0.0.1:1234"
	h.state = stateInitialized
	router := h.buildRouter()

	req := httptest.NewRequest("GET", "/icon.png", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("got status %d, want 200", w.Code)
	}
}
