// SPDX-License-Identifier: GPL-3.0-or-later

package ipaddr

import (
	"net/netip"

	"go4.org/netipx"
)

// Addr is an IPv4 or IPv6 address tagged with its [Family].
//
// The zero value has family [FamilyUnspec] and no payload. An IPv6 value
// whose payload is in ::ffff:0:0/96 keeps family [FamilyIPv6]; use
// [Addr.Embedded4] to read the embedded IPv4 address.
//
// The == operator compares the family and the payload bytes. Use [Equal]
// to compare addresses across the IPv4-mapped IPv6 encoding.
type Addr struct {
	// ip is either invalid, Is4, or Is6 without zone.
	ip netip.Addr
}

// AddrFrom4 returns the IPv4 address with the given network-order bytes.
func AddrFrom4(b [4]byte) Addr {
	return Addr{ip: netip.AddrFrom4(b)}
}

// AddrFrom16 returns the IPv6 address with the given network-order bytes.
func AddrFrom16(b [16]byte) Addr {
	return Addr{ip: netip.AddrFrom16(b)}
}

// AddrFromSlice returns the IPv4 address for a 4-byte slice and the
// IPv6 address for a 16-byte slice. Any other length returns false.
func AddrFromSlice(b []byte) (Addr, bool) {
	ip, ok := netip.AddrFromSlice(b)
	if !ok {
		return Addr{}, false
	}
	return Addr{ip: ip}, true
}

// AddrFromNetIP converts a [netip.Addr] to an [Addr] dropping the zone.
//
// An IPv4-mapped IPv6 [netip.Addr] becomes an IPv6 [Addr].
func AddrFromNetIP(ip netip.Addr) Addr {
	if !ip.IsValid() {
		return Addr{}
	}
	return Addr{ip: ip.WithZone("")}
}

// Loopback4 returns 127.0.0.1.
func Loopback4() Addr {
	return AddrFrom4([4]byte{127, 0, 0, 1})
}

// Loopback6 returns ::1.
func Loopback6() Addr {
	return Addr{ip: netip.IPv6Loopback()}
}

// Family returns the address family.
func (a Addr) Family() Family {
	switch {
	case a.ip.Is4():
		return FamilyIPv4
	case a.ip.Is6():
		return FamilyIPv6
	default:
		return FamilyUnspec
	}
}

// IsValid returns whether the family is not [FamilyUnspec].
func (a Addr) IsValid() bool {
	return a.ip.IsValid()
}

// As4 returns the IPv4 payload. The boolean is false unless
// the family is [FamilyIPv4].
func (a Addr) As4() ([4]byte, bool) {
	if !a.ip.Is4() {
		return [4]byte{}, false
	}
	return a.ip.As4(), true
}

// As16 returns the IPv6 payload. The boolean is false unless
// the family is [FamilyIPv6].
func (a Addr) As16() ([16]byte, bool) {
	if !a.ip.Is6() {
		return [16]byte{}, false
	}
	return a.ip.As16(), true
}

// Embedded4 returns the IPv4 address embedded in an IPv6 address
// in ::ffff:0:0/96. The boolean is false for any other address.
func (a Addr) Embedded4() ([4]byte, bool) {
	if !a.ip.Is4In6() {
		return [4]byte{}, false
	}
	return a.ip.Unmap().As4(), true
}

// NetIP returns the address as a [netip.Addr].
func (a Addr) NetIP() netip.Addr {
	return a.ip
}

// IsLoopback returns whether the address is a loopback address.
// IPv4-mapped addresses are classified by the embedded IPv4 address.
func (a Addr) IsLoopback() bool {
	return a.ip.Unmap().IsLoopback()
}

// lanSet contains the prefixes that [Addr.IsLAN] considers local.
var lanSet = mustBuildIPSet(
	"127.0.0.0/8",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"169.254.0.0/16",
	"100.64.0.0/10",
	"::1/128",
	"fe80::/10",
	"fc00::/7",
	"ff02::1/128",
)

func mustBuildIPSet(prefixes ...string) *netipx.IPSet {
	var b netipx.IPSetBuilder
	for _, p := range prefixes {
		b.AddPrefix(netip.MustParsePrefix(p))
	}
	set, err := b.IPSet()
	if err != nil {
		panic(err)
	}
	return set
}

// IsLAN returns whether the address belongs to a loopback, private,
// link-local, or shared address range that peers can reach without
// crossing the public internet. IPv4-mapped addresses are classified
// by the embedded IPv4 address.
func (a Addr) IsLAN() bool {
	if !a.ip.IsValid() {
		return false
	}
	return lanSet.Contains(a.ip.Unmap())
}

// String returns [Format] of the address.
func (a Addr) String() string {
	return Format(a)
}

// MarshalText implements [encoding.TextMarshaler].
//
// An address with family [FamilyUnspec] marshals as the empty string.
func (a Addr) MarshalText() ([]byte, error) {
	if !a.IsValid() {
		return []byte{}, nil
	}
	return []byte(Format(a)), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
//
// The empty string unmarshals as an address with family [FamilyUnspec].
func (a *Addr) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*a = Addr{}
		return nil
	}
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
