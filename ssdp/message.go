// Package ssdp implements the wire-level Simple Service Discovery Protocol
// transport: the multicast/unicast UDP sockets and the five message kinds
// used for discovery (spec §4.3, §6.1). It has no knowledge of the device
// model; the host and control packages build and interpret these messages
// against their own device trees.
package ssdp

import (
	"bufio"
	"fmt"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/upnpforge/upnpstack/types"
)

// MulticastAddr is the well-known SSDP multicast group and port.
const MulticastAddr = "239.255.255.250:1900"

// Kind identifies which of the five SSDP message shapes a Message is.
type Kind int

const (
	KindUnknown Kind = iota
	ResourceAvailable
	ResourceUnavailable
	ResourceUpdate
	DiscoveryRequest
	DiscoveryResponse
)

func (k Kind) String() string {
	switch k {
	case ResourceAvailable:
		return "ResourceAvailable"
	case ResourceUnavailable:
		return "ResourceUnavailable"
	case ResourceUpdate:
		return "ResourceUpdate"
	case DiscoveryRequest:
		return "DiscoveryRequest"
	case DiscoveryResponse:
		return "DiscoveryResponse"
	default:
		return "Unknown"
	}
}

// Message is a parsed SSDP datagram: its kind plus the header bag needed
// to act on it. Header lookups are case-insensitive per HTTP convention.
type Message struct {
	Kind    Kind
	Headers textproto.MIMEHeader
}

func (m *Message) Get(key string) string { return m.Headers.Get(key) }

// USN parses the USN header, when present.
func (m *Message) USN() (types.USN, error) { return types.ParseUSN(m.Get("USN")) }

// MaxAge parses CACHE-CONTROL: max-age=<n>, clamped per spec §4.3.
func (m *Message) MaxAge() (types.Timeout, error) { return types.ParseCacheControl(m.Get("CACHE-CONTROL")) }

// BootID parses BOOTID.UPNP.ORG, defaulting to 0 when absent (pre-1.1 peer).
func (m *Message) BootID() types.BootID {
	n, _ := strconv.Atoi(m.Get("BOOTID.UPNP.ORG"))
	return types.BootID(n)
}

// ConfigID parses CONFIGID.UPNP.ORG, defaulting to 0 when absent.
func (m *Message) ConfigID() types.ConfigID {
	n, _ := strconv.Atoi(m.Get("CONFIGID.UPNP.ORG"))
	return types.ConfigID(n)
}

// SearchPort parses SEARCHPORT.UPNP.ORG, returning the absent sentinel
// when missing or out of range.
func (m *Message) SearchPort() types.SearchPort {
	n, err := strconv.Atoi(m.Get("SEARCHPORT.UPNP.ORG"))
	if err != nil {
		return types.NoSearchPort
	}
	p, err := types.ParseSearchPort(n)
	if err != nil {
		return types.NoSearchPort
	}
	return p
}

// MX parses the M-SEARCH MX header (seconds a responder may delay).
func (m *Message) MX() int {
	n, _ := strconv.Atoi(m.Get("MX"))
	return n
}

// Parse classifies and decodes a raw SSDP datagram. Malformed or
// unrecognized messages return (nil, err); the caller is expected to log
// and drop per spec §4.3.
func Parse(raw []byte) (*Message, error) {
	reader := textproto.NewReader(bufio.NewReader(strings.NewReader(string(raw))))
	requestLine, err := reader.ReadLine()
	if err != nil {
		return nil, fmt.Errorf("ssdp: reading start line: %w", err)
	}
	headers, err := reader.ReadMIMEHeader()
	if err != nil && len(headers) == 0 {
		return nil, fmt.Errorf("ssdp: reading headers: %w", err)
	}

	msg := &Message{Headers: headers}

	switch {
	case strings.HasPrefix(requestLine, "NOTIFY"):
		switch strings.ToLower(headers.Get("NTS")) {
		case "ssdp:alive":
			msg.Kind = ResourceAvailable
		case "ssdp:byebye":
			msg.Kind = ResourceUnavailable
		case "ssdp:update":
			msg.Kind = ResourceUpdate
		default:
			return nil, fmt.Errorf("ssdp: NOTIFY with unknown NTS %q", headers.Get("NTS"))
		}
	case strings.HasPrefix(requestLine, "M-SEARCH"):
		if !strings.Contains(strings.ToLower(headers.Get("Man")), "ssdp:discover") {
			return nil, fmt.Errorf("ssdp: M-SEARCH missing MAN: \"ssdp:discover\"")
		}
		if headers.Get("St") == "" {
			return nil, fmt.Errorf("ssdp: M-SEARCH missing ST")
		}
		msg.Kind = DiscoveryRequest
	case strings.HasPrefix(requestLine, "HTTP/1.1 200"):
		msg.Kind = DiscoveryResponse
	default:
		return nil, fmt.Errorf("ssdp: unrecognized start line %q", requestLine)
	}

	return msg, nil
}
