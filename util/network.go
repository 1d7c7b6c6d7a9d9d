package util

import (
	"fmt"
	"net"
	"os"
	"strconv"
)

// probeAddr is dialled over UDP only to learn which local interface the
// kernel would route through; no packet is sent.
const probeAddr = "8.8.8.8:53"

// FormatAddr returns "host:port".
func FormatAddr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// LocalIP returns the address a peer on the network would most likely
// reach this machine on.  It is informational only and never fails:
// the outbound interface is tried first, then the hostname, then
// "Unknown".
func LocalIP() string {
	if conn, err := net.Dial("udp", probeAddr); err == nil {
		defer conn.Close()
		if ua, ok := conn.LocalAddr().(*net.UDPAddr); ok && !ua.IP.IsUnspecified() {
			return ua.IP.String()
		}
	}

	host, err := os.Hostname()
	if err != nil {
		return "Unknown"
	}
	addrs, err := net.LookupHost(host)
	if err != nil || len(addrs) == 0 {
		return "Unknown"
	}
	return addrs[0]
}

// SplitAddr breaks a net.Addr into host and numeric port.  Addresses
// without a port (pipes, tunnelled channels) yield port 0.
func SplitAddr(addr net.Addr) (string, int) {
	if addr == nil {
		return "", 0
	}
	switch a := addr.(type) {
	case *net.TCPAddr:
		return a.IP.String(), a.Port
	case *net.UDPAddr:
		return a.IP.String(), a.Port
	}
	host, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String(), 0
	}
	port, _ := strconv.Atoi(portStr)
	return host, port
}

// FindFreePort returns an available TCP port on 127.0.0.1.
func FindFreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("finding free port: %w", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
