// Package network reports whether the device has an IPv4 uplink.
package network

import (
	"context"
	"net"
	"time"
)

type link struct {
	name     string
	up       bool
	loopback bool
	addrs    []net.Addr
}

// Interface watches one named interface, or any non-loopback interface when
// the name is empty.
type Interface struct {
	name  string
	links func() ([]link, error)
}

func New(name string) *Interface {
	return &Interface{name: name, links: systemLinks}
}

func systemLinks() ([]link, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	out := make([]link, 0, len(ifaces))
	for _, ifc := range ifaces {
		addrs, err := ifc.Addrs()
		if err != nil {
			continue
		}
		out = append(out, link{
			name:     ifc.Name,
			up:       ifc.Flags&net.FlagUp != 0,
			loopback: ifc.Flags&net.FlagLoopback != 0,
			addrs:    addrs,
		})
	}
	return out, nil
}

func (n *Interface) Connected() bool {
	return n.Address() != ""
}

// Address returns the first usable IPv4 address, or "" when offline.
func (n *Interface) Address() string {
	links, err := n.links()
	if err != nil {
		return ""
	}
	for _, l := range links {
		if !l.up || l.loopback {
			continue
		}
		if n.name != "" && l.name != n.name {
			continue
		}
		for _, a := range l.addrs {
			ipn, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			ip := ipn.IP.To4()
			if ip == nil || ip.IsLinkLocalUnicast() {
				continue
			}
			return ip.String()
		}
	}
	return ""
}

// WaitConnected polls up to attempts times, calling progress after every
// failed poll. It reports whether the link came up.
func (n *Interface) WaitConnected(ctx context.Context, attempts int, interval time.Duration, progress func()) bool {
	for i := 0; i < attempts; i++ {
		if n.Connected() {
			return true
		}
		if progress != nil {
			progress()
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(interval):
		}
	}
	return n.Connected()
}
