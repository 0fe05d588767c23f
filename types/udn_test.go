package types

import "testing"

func TestNewUDNIsValid(t *testing.T) {
	for i := 0; i < 10; i++ {
		u := NewUDN()
		if !u.Valid() {
			t.Fatalf("generated UDN %q is not valid", u)
		}
	}
}

func TestNewUDNUnique(t *testing.T) {
	seen := make(map[UDN]bool)
	for i := 0; i < 100; i++ {
		u := NewUDN()
		if seen[u] {
			t.Fatalf("duplicate UDN %q", u)
		}
		seen[u] = true
	}
}

func TestParseUDN(t *testing.T) {
	cases := []struct {
		in      string
		wantErr bool
	}{
		{"uuid:12345678-1234-1234-1234-123456789012", false},
		{"12345678-1234-1234-1234-123456789012", true},
		{"uuid:not-a-uuid", true},
		{"", true},
	}
	for _, c := range cases {
		_, err := ParseUDN(c.in)
		if (err != nil) != c.wantErr {
			t.Errorf("ParseUDN(%q): err=%v, wantErr=%v", c.in, err, c.wantErr)
		}
	}
}
