// SPDX-License-Identifier: GPL-3.0-or-later

package ipaddr

// Equal returns whether a and b are the same address.
//
// A nil address or an address with family [FamilyUnspec] is never equal
// to anything, including itself. Addresses of the same family are equal
// when their payloads are equal. An IPv4 address is equal to an IPv6
// address when the latter is the IPv4-mapped encoding (::ffff:a.b.c.d)
// of the former. No other cross-family equality exists.
func Equal(a, b *Addr) bool {
	if a == nil || b == nil || !a.IsValid() || !b.IsValid() {
		return false
	}
	if a.Family() == b.Family() {
		return a.ip == b.ip
	}
	if a.Family() == FamilyIPv6 {
		a, b = b, a
	}
	v4, _ := a.As4()
	mapped, ok := b.Embedded4()
	return ok && v4 == mapped
}
