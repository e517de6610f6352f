// SPDX-License-Identifier: GPL-3.0-or-later

package ipaddr

import (
	"fmt"
	"net/netip"
)

// AddrPort is a transport endpoint: an [Addr] plus a port.
type AddrPort struct {
	// Addr is the endpoint address.
	Addr Addr

	// Port is the endpoint port.
	Port uint16
}

// ParseAddrPort parses "1.2.3.4:33445" or "[::1]:33445".
//
// The address part follows the same rules as [Parse] and the
// returned error wraps [ErrMalformed].
func ParseAddrPort(s string) (AddrPort, error) {
	ap, err := netip.ParseAddrPort(s)
	if err != nil {
		return AddrPort{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if ap.Addr().Zone() != "" {
		return AddrPort{}, fmt.Errorf("%w: %q has an IPv6 zone", ErrMalformed, s)
	}
	return AddrPort{Addr: Addr{ip: ap.Addr()}, Port: ap.Port()}, nil
}

// String returns "1.2.3.4:33445" or "[::1]:33445", or
// [UnspecifiedString] when the address is not valid.
func (ap AddrPort) String() string {
	if !ap.Addr.IsValid() {
		return UnspecifiedString
	}
	return netip.AddrPortFrom(ap.Addr.ip, ap.Port).String()
}

// EqualAddrPort returns whether a and b have equal ports and
// addresses that are equal according to [Equal].
func EqualAddrPort(a, b *AddrPort) bool {
	if a == nil || b == nil || a.Port != b.Port {
		return false
	}
	return Equal(&a.Addr, &b.Addr)
}
