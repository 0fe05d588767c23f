package ssdp

import (
	"testing"

	"github.com/upnpforge/upnpstack/types"
)

func mustUSN(t *testing.T) types.USN {
	t.Helper()
	return types.BareUSN(types.NewUDN())
}
