package netutils

import (
	"net"
)

// GuessLocalIP returns the outbound-facing local address by dialing a UDP
// socket (no packet is actually sent); falls back to loopback if routing
// fails, e.g. when offline.
func GuessLocalIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1", nil
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String(), nil
}
