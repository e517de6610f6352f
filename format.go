// SPDX-License-Identifier: GPL-3.0-or-later

package ipaddr

import (
	"errors"
	"fmt"
	"net/netip"
)

// UnspecifiedString is what [Format] returns for an address
// with family [FamilyUnspec].
const UnspecifiedString = "(unspecified)"

// ErrMalformed indicates that a string is not an IPv4 or IPv6 literal.
var ErrMalformed = errors.New("malformed IP address literal")

// Format returns the text form of the address.
//
// IPv4 addresses use dotted-decimal notation. IPv6 addresses use the
// RFC 5952 compressed form, with IPv4-mapped addresses rendered as
// ::ffff:a.b.c.d. Addresses with family [FamilyUnspec] become
// [UnspecifiedString].
func Format(a Addr) string {
	if !a.IsValid() {
		return UnspecifiedString
	}
	return a.ip.String()
}

// Parse parses an IPv4 dotted-decimal or IPv6 colon-hex literal.
//
// IPv6 literals may embed an IPv4 address, e.g. ::ffff:127.0.0.1, and
// the result keeps [FamilyIPv6]. Zoned IPv6 literals, octets with leading
// zeros, and surrounding whitespace are rejected. The returned error
// wraps [ErrMalformed].
func Parse(s string) (Addr, error) {
	ip, err := netip.ParseAddr(s)
	if err != nil {
		return Addr{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if ip.Zone() != "" {
		return Addr{}, fmt.Errorf("%w: %q has an IPv6 zone", ErrMalformed, s)
	}
	return Addr{ip: ip}, nil
}
