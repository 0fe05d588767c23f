package ssdp

import (
	"fmt"
	"net"
	"time"
)

// MinUnicastPort and MaxUnicastPort bound the fallback port range for the
// per-instance unicast socket (spec §4.3, UDA's ephemeral range).
const (
	MinUnicastPort = 49152
	MaxUnicastPort = 65535
)

// Datagram is one received UDP packet, tagged with its source.
type Datagram struct {
	Data []byte
	Src  *net.UDPAddr
}

// Sockets is the dual-socket SSDP transport: a multicast listener bound
// to the well-known group, used to receive alive/byebye/update/M-SEARCH
// traffic, and a unicast socket used to send announcements and M-SEARCH
// and to receive unicast M-SEARCH responses.
type Sockets struct {
	multicast *net.UDPConn
	unicast   *net.UDPConn
}

// Open binds both sockets. The unicast socket prefers port 1900 on
// localAddr; if that's taken, it falls back to any free port in
// [MinUnicastPort, MaxUnicastPort] (spec §4.3).
func Open(localAddr string) (*Sockets, error) {
	mcastAddr, err := net.ResolveUDPAddr("udp4", MulticastAddr)
	if err != nil {
		return nil, fmt.Errorf("ssdp: resolving multicast address: %w", err)
	}
	mc, err := net.ListenMulticastUDP("udp4", nil, mcastAddr)
	if err != nil {
		return nil, fmt.Errorf("ssdp: opening multicast listener: %w", err)
	}
	mc.SetReadBuffer(8192)

	uc, err := openUnicast(localAddr)
	if err != nil {
		mc.Close()
		return nil, err
	}

	return &Sockets{multicast: mc, unicast: uc}, nil
}

func openUnicast(localAddr string) (*net.UDPConn, error) {
	ip := net.ParseIP(localAddr)
	if preferred, err := net.ListenUDP("udp4", &net.UDPAddr{IP: ip, Port: 1900}); err == nil {
		return preferred, nil
	}
	for port := MinUnicastPort; port <= MaxUnicastPort; port++ {
		conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: ip, Port: port})
		if err == nil {
			return conn, nil
		}
	}
	return nil, fmt.Errorf("ssdp: no free unicast port in [%d,%d]", MinUnicastPort, MaxUnicastPort)
}

// UnicastPort reports the bound unicast port, for SEARCHPORT.UPNP.ORG.
func (s *Sockets) UnicastPort() int {
	return s.unicast.LocalAddr().(*net.UDPAddr).Port
}

// SendMulticast writes data to the SSDP multicast group from the unicast
// socket (outbound announcements and M-SEARCH use the unicast socket per
// spec §4.3).
func (s *Sockets) SendMulticast(data []byte) error {
	addr, err := net.ResolveUDPAddr("udp4", MulticastAddr)
	if err != nil {
		return err
	}
	_, err = s.unicast.WriteToUDP(data, addr)
	return err
}

// SendUnicast writes data to a specific address, used for M-SEARCH
// responses.
func (s *Sockets) SendUnicast(data []byte, dst *net.UDPAddr) error {
	_, err := s.unicast.WriteToUDP(data, dst)
	return err
}

// ReadMulticast blocks (up to deadline) for the next datagram on the
// multicast listener, where NOTIFY and M-SEARCH traffic arrives.
func (s *Sockets) ReadMulticast(buf []byte, deadline time.Duration) (*Datagram, error) {
	return read(s.multicast, buf, deadline)
}

// ReadUnicast blocks (up to deadline) for the next datagram on the
// unicast socket, where M-SEARCH responses to our own requests arrive.
func (s *Sockets) ReadUnicast(buf []byte, deadline time.Duration) (*Datagram, error) {
	return read(s.unicast, buf, deadline)
}

func read(conn *net.UDPConn, buf []byte, deadline time.Duration) (*Datagram, error) {
	conn.SetReadDeadline(time.Now().Add(deadline))
	n, src, err := conn.ReadFromUDP(buf)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, buf[:n])
	return &Datagram{Data: out, Src: src}, nil
}

// IsTimeout reports whether err is a read-deadline timeout, which callers
// should treat as a normal poll and not an error.
func IsTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}

func (s *Sockets) Close() {
	s.multicast.Close()
	s.unicast.Close()
}
