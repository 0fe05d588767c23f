package ssdp

import (
	"fmt"
	"strings"
	"time"

	"github.com/upnpforge/upnpstack/types"
)

// AdvertisementFields are the per-message values needed to render an
// ssdp:alive, ssdp:byebye or ssdp:update NOTIFY, or a discovery response,
// for one resource target (spec §6.1).
type AdvertisementFields struct {
	NT         string // resource target urn, "upnp:rootdevice", or bare UDN
	USN        types.USN
	Location   string // absolute URL; empty for byebye
	MaxAge     types.Timeout
	Server     string // product tokens; empty for byebye
	BootID     types.BootID
	ConfigID   types.ConfigID
	SearchPort types.SearchPort
	UDA11      bool // whether to emit BOOTID/CONFIGID (device advertises UDA >= 1.1)
}

func crlf(lines []string) []byte {
	return []byte(strings.Join(lines, "\r\n") + "\r\n\r\n")
}

func (f AdvertisementFields) udaExtras() []string {
	if !f.UDA11 {
		return nil
	}
	var lines []string
	lines = append(lines, fmt.Sprintf("BOOTID.UPNP.ORG: %d", f.BootID))
	lines = append(lines, fmt.Sprintf("CONFIGID.UPNP.ORG: %d", f.ConfigID))
	if f.SearchPort.Valid() {
		lines = append(lines, fmt.Sprintf("SEARCHPORT.UPNP.ORG: %d", f.SearchPort))
	}
	return lines
}

// BuildAlive renders an ssdp:alive NOTIFY.
func BuildAlive(f AdvertisementFields) []byte {
	lines := []string{
		"NOTIFY * HTTP/1.1",
		"HOST: " + MulticastAddr,
		"CACHE-CONTROL: " + f.MaxAge.CacheControl(),
		"LOCATION: " + f.Location,
		"NT: " + f.NT,
		"NTS: ssdp:alive",
		"SERVER: " + f.Server,
		"USN: " + f.USN.String(),
	}
	lines = append(lines, f.udaExtras()...)
	return crlf(lines)
}

// BuildByebye renders an ssdp:byebye NOTIFY. Per spec §6.1, it omits
// LOCATION, CACHE-CONTROL and SERVER.
func BuildByebye(f AdvertisementFields) []byte {
	lines := []string{
		"NOTIFY * HTTP/1.1",
		"HOST: " + MulticastAddr,
		"NT: " + f.NT,
		"NTS: ssdp:byebye",
		"USN: " + f.USN.String(),
	}
	lines = append(lines, f.udaExtras()...)
	return crlf(lines)
}

// BuildUpdate renders an ssdp:update NOTIFY.
func BuildUpdate(f AdvertisementFields) []byte {
	lines := []string{
		"NOTIFY * HTTP/1.1",
		"HOST: " + MulticastAddr,
		"LOCATION: " + f.Location,
		"NT: " + f.NT,
		"NTS: ssdp:update",
		"USN: " + f.USN.String(),
	}
	lines = append(lines, f.udaExtras()...)
	return crlf(lines)
}

// BuildSearchRequest renders an M-SEARCH for the given search target.
func BuildSearchRequest(searchTarget string, mx int, userAgent string) []byte {
	lines := []string{
		"M-SEARCH * HTTP/1.1",
		"HOST: " + MulticastAddr,
		`MAN: "ssdp:discover"`,
		fmt.Sprintf("MX: %d", mx),
		"ST: " + searchTarget,
	}
	if userAgent != "" {
		lines = append(lines, "USER-AGENT: "+userAgent)
	}
	return crlf(lines)
}

// BuildSearchResponse renders the 200 OK unicast response to an M-SEARCH.
func BuildSearchResponse(searchTarget string, f AdvertisementFields) []byte {
	lines := []string{
		"HTTP/1.1 200 OK",
		"CACHE-CONTROL: " + f.MaxAge.CacheControl(),
		"DATE: " + time.Now().UTC().Format(time.RFC1123),
		"EXT:",
		"LOCATION: " + f.Location,
		"SERVER: " + f.Server,
		"ST: " + searchTarget,
		"USN: " + f.USN.String(),
	}
	lines = append(lines, f.udaExtras()...)
	return crlf(lines)
}
