// SPDX-License-Identifier: GPL-3.0-or-later

// Package dnslookup resolves host names by exchanging DNS messages
// with a recursive server.
//
// [*Client] implements the [github.com/bassosimone/ipaddr.Lookuper]
// interface. [NewQuery] and [ParseResponse] are the message codec it
// uses: queries may use EDNS(0), RFC8467 padding, and DNSSEC flags,
// and responses are validated against the query before extracting
// the A and AAAA records as [net/netip.Addr] values.
//
// We do not implement DNS serialization here. We use and expose
// [github.com/miekg/dns] types.
package dnslookup
