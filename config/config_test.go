package config

import "testing"

func TestLoadDefaultConfig(t *testing.T) {
	cfg := Load("")
	if got := cfg.GetString("host.friendly_name", ""); got != "Go UPnP Device" {
		t.Errorf("got friendly_name %q", got)
	}
	if got := cfg.GetBool("host.product_tokens_strict", true); got != false {
		t.Errorf("got product_tokens_strict %v, want false", got)
	}
}

func TestGetMissingPathErrors(t *testing.T) {
	cfg := Load("")
	if _, err := cfg.Get("host.does_not_exist"); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestSetAndGetRoundTrip(t *testing.T) {
	cfg := Load("")
	cfg.mu.Lock()
	cfg.path = ""
	cfg.mu.Unlock()
	cfg.Set("host.friendly_name", "Test Device")
	if got := cfg.GetString("host.friendly_name", ""); got != "Test Device" {
		t.Errorf("got %q after Set", got)
	}
}
