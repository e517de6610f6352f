// SPDX-License-Identifier: GPL-3.0-or-later

// Package ipaddr is the dual-stack address layer of a peer-to-peer
// network stack.
//
// [Addr] is an immutable IPv4 or IPv6 address tagged with its [Family].
// [Equal] compares addresses treating an IPv4 address and its
// IPv4-mapped IPv6 encoding (::ffff:a.b.c.d) as the same address.
// [Format] and [Parse] convert addresses to and from text.
//
// [*Resolver] turns a host string into a [*Resolution]. Literal addresses
// are parsed without any lookup. Names are resolved through a [Lookuper],
// which is [net.DefaultResolver] unless configured otherwise, and the
// IPv6-over-IPv4 preference picks the primary address. The
// [github.com/bassosimone/ipaddr/dnslookup] package provides a [Lookuper]
// that talks directly to a DNS server.
//
// This package does not cache, retry, or rewrite host names.
package ipaddr
