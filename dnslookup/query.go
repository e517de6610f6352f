//
// SPDX-License-Identifier: BSD-3-Clause
//
// Adapted from: https://github.com/ooni/probe-engine/blob/v0.23.0/netx/resolver/encoder.go
// Adapted from: https://github.com/rbmk-project/rbmk/blob/v0.17.0/pkg/dns/dnscore/query.go
//

package dnslookup

import (
	"errors"
	"fmt"

	"github.com/miekg/dns"
	"golang.org/x/net/idna"
)

const (
	// QueryFlagBlockLengthPadding enables using RFC8467 block length padding.
	QueryFlagBlockLengthPadding = 1 << iota

	// QueryFlagDNSSec enables requesting for DNSSEC signatures.
	QueryFlagDNSSec
)

const (
	// QueryMaxResponseSizeUDP is the maximum response size when using UDP
	// and is consistent with what the standard library uses.
	QueryMaxResponseSizeUDP = 1232

	// QueryMaxResponseSizeTCP is the maximum response size when using TCP
	// and is consistent with what the standard library uses.
	QueryMaxResponseSizeTCP = 4096
)

// ErrUnsupportedNetwork indicates that the network passed to
// [QueryTypesForNetwork] is not "ip", "ip4", or "ip6".
var ErrUnsupportedNetwork = errors.New("unsupported network")

// QueryTypesForNetwork returns the query types needed to resolve
// addresses for the given network, in the order in which we send them.
//
// The network uses the same names as [*net.Resolver.LookupNetIP].
func QueryTypesForNetwork(network string) ([]uint16, error) {
	switch network {
	case "ip":
		return []uint16{dns.TypeA, dns.TypeAAAA}, nil
	case "ip4":
		return []uint16{dns.TypeA}, nil
	case "ip6":
		return []uint16{dns.TypeAAAA}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedNetwork, network)
	}
}

// Query is a DNS query for a single name and type.
//
// Construct using [NewQuery] or set the MANDATORY fields.
type Query struct {
	// Flags OPTIONALLY modify the query flags.
	//
	// Use [QueryFlagBlockLengthPadding] and [QueryFlagDNSSec].
	Flags uint16

	// ID is the OPTIONAL query ID.
	ID uint16

	// MaxSize is the OPTIONAL maximum response size
	// to include in the query using EDNS(0).
	MaxSize uint16

	// Name is the MANDATORY domain name to query.
	Name string

	// Type is the MANDATORY query type (e.g., [dns.TypeA]).
	Type uint16
}

// NewQuery constructs a new [*Query] with a random ID and
// [QueryMaxResponseSizeUDP] as the EDNS(0) response size.
func NewQuery(name string, qtype uint16) *Query {
	return &Query{
		Name:    name,
		Type:    qtype,
		ID:      dns.Id(),
		MaxSize: QueryMaxResponseSizeUDP,
	}
}

// Clone returns a copy of the query.
func (q *Query) Clone() *Query {
	c := *q
	return &c
}

// NewMsg creates a recursive [*dns.Msg] for the [*Query].
//
// The name is IDNA-encoded and made fully qualified.
func (q *Query) NewMsg() (*dns.Msg, error) {
	punyName, err := idna.Lookup.ToASCII(q.Name)
	if err != nil {
		return nil, err
	}

	msg := new(dns.Msg)
	msg.Id = q.ID
	msg.RecursionDesired = true
	msg.Question = []dns.Question{{
		Name:   dns.Fqdn(punyName),
		Qtype:  q.Type,
		Qclass: dns.ClassINET,
	}}
	msg.SetEdns0(q.MaxSize, q.Flags&QueryFlagDNSSec != 0)

	// RFC8467#section-4.1 says to pad queries to the closest multiple
	// of 128 octets. The padding option header takes four octets. The
	// uint16 arithmetic wraps around when the message is larger than
	// the block size, and the modulus still yields the right remainder.
	if q.Flags&QueryFlagBlockLengthPadding != 0 {
		const blockSize = 128
		remainder := (blockSize - uint16(msg.Len()+4)) % blockSize
		opt := &dns.EDNS0_PADDING{Padding: make([]byte, remainder)}
		edns := msg.IsEdns0()
		edns.Option = append(edns.Option, opt)
	}

	return msg, nil
}
