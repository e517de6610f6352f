// SPDX-License-Identifier: GPL-3.0-or-later

package ipaddr

import "strconv"

// Family is the address family of an [Addr].
type Family uint8

const (
	// FamilyUnspec means no address or no family preference.
	FamilyUnspec Family = iota

	// FamilyIPv4 is the IPv4 family.
	FamilyIPv4

	// FamilyIPv6 is the IPv6 family.
	FamilyIPv6
)

// String implements [fmt.Stringer].
func (f Family) String() string {
	switch f {
	case FamilyUnspec:
		return "unspecified"
	case FamilyIPv4:
		return "IPv4"
	case FamilyIPv6:
		return "IPv6"
	default:
		return "Family(" + strconv.Itoa(int(f)) + ")"
	}
}

// Found is the set of families for which a lookup returned at least one record.
type Found uint8

const (
	// FoundIPv4 is set when an IPv4 record was found.
	FoundIPv4 Found = 1 << iota

	// FoundIPv6 is set when an IPv6 record was found.
	FoundIPv6
)

// FoundFor returns the [Found] bit for the given family, or zero
// when the family is [FamilyUnspec] or unknown.
func FoundFor(f Family) Found {
	switch f {
	case FamilyIPv4:
		return FoundIPv4
	case FamilyIPv6:
		return FoundIPv6
	default:
		return 0
	}
}

// Has returns whether all the bits in other are set.
func (f Found) Has(other Found) bool {
	return other != 0 && f&other == other
}

// IPv4 returns whether [FoundIPv4] is set.
func (f Found) IPv4() bool {
	return f.Has(FoundIPv4)
}

// IPv6 returns whether [FoundIPv6] is set.
func (f Found) IPv6() bool {
	return f.Has(FoundIPv6)
}

// Empty returns whether no family was found.
func (f Found) Empty() bool {
	return f&(FoundIPv4|FoundIPv6) == 0
}

// String implements [fmt.Stringer].
func (f Found) String() string {
	switch {
	case f.IPv4() && f.IPv6():
		return "IPv4|IPv6"
	case f.IPv4():
		return "IPv4"
	case f.IPv6():
		return "IPv6"
	default:
		return "none"
	}
}
