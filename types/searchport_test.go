package types

import "testing"

func TestParseSearchPort(t *testing.T) {
	if _, err := ParseSearchPort(49151); err == nil {
		t.Error("expected error below range")
	}
	if _, err := ParseSearchPort(65536); err == nil {
		t.Error("expected error above range")
	}
	p, err := ParseSearchPort(50000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.Valid() {
		t.Error("expected valid port")
	}
}

func TestNoSearchPort(t *testing.T) {
	if NoSearchPort.Valid() {
		t.Error("sentinel should not be valid")
	}
}
