//
// SPDX-License-Identifier: BSD-3-Clause
//
// Adapted from: https://github.com/ooni/probe-engine/blob/v0.23.0/netx/resolver/decoder.go
// Adapted from: https://github.com/golang/go/blob/go1.21.10/src/net/dnsclient_unix.go
// Adapted from: https://github.com/rbmk-project/rbmk/blob/v0.17.0/pkg/dns/dnscore/response.go
//

package dnslookup

import (
	"errors"
	"net/netip"

	"github.com/miekg/dns"
	"go4.org/netipx"
)

// These error messages use the same suffixes used by the Go standard library.
var (
	// ErrInvalidQuery means that the query does not contain a single question.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrInvalidResponse means that the response is not a response message
	// or does not contain a single question matching the query.
	ErrInvalidResponse = errors.New("invalid DNS response")

	// ErrNoName indicates that the server response code is NXDOMAIN.
	ErrNoName = errors.New("no such host")

	// ErrServerMisbehaving indicates that the server response code is
	// neither 0, nor NXDOMAIN, nor SERVFAIL.
	ErrServerMisbehaving = errors.New("server misbehaving")

	// ErrServerTemporarilyMisbehaving indicates that the server answer is SERVFAIL.
	//
	// The message is the same as [ErrServerMisbehaving], like in the standard library.
	ErrServerTemporarilyMisbehaving = errors.New("server misbehaving")

	// ErrNoData indicates that there is no pertinent answer in the response.
	ErrNoData = errors.New("no answer from DNS server")
)

// ValidateResponseForQuery validates a DNS response for a given query.
// On success it returns the single question of the query.
func ValidateResponseForQuery(query, resp *dns.Msg) (dns.Question, error) {
	if !resp.Response || resp.Id != query.Id {
		return dns.Question{}, ErrInvalidResponse
	}
	if len(query.Question) != 1 {
		return dns.Question{}, ErrInvalidQuery
	}
	if len(resp.Question) != 1 {
		return dns.Question{}, ErrInvalidResponse
	}
	q0, r0 := query.Question[0], resp.Question[0]
	if !equalASCIIName(r0.Name, q0.Name) || r0.Qclass != q0.Qclass || r0.Qtype != q0.Qtype {
		return dns.Question{}, ErrInvalidResponse
	}
	return q0, nil
}

// SPDX-License-Identifier: BSD-3-Clause
//
// Borrowed from Go src/net package.
func equalASCIIName(x, y string) bool {
	if len(x) != len(y) {
		return false
	}
	for i := 0; i < len(x); i++ {
		a := x[i]
		b := y[i]
		if 'A' <= a && a <= 'Z' {
			a += 0x20
		}
		if 'A' <= b && b <= 'Z' {
			b += 0x20
		}
		if a != b {
			return false
		}
	}
	return true
}

// ResponseErrorFromRCODE maps the RCODE of a response that passed
// [ValidateResponseForQuery] to an error whose suffix is compatible with
// the errors of [*net.Resolver]. It returns nil on success.
func ResponseErrorFromRCODE(resp *dns.Msg) error {
	switch {
	case resp.Rcode == dns.RcodeNameError:
		return ErrNoName

	// lame referral
	case resp.Rcode == dns.RcodeSuccess && !resp.Authoritative &&
		!resp.RecursionAvailable && len(resp.Answer) == 0:
		return ErrNoData

	case resp.Rcode == dns.RcodeServerFailure:
		return ErrServerTemporarilyMisbehaving

	case resp.Rcode != dns.RcodeSuccess:
		return ErrServerMisbehaving

	default:
		return nil
	}
}

// ResponseExtractValidAnswers returns the RRs of the response that belong
// to the CNAME chain starting at the question name, in response order.
//
// RFC 1034 section 4.3.1 allows the answer to be prefaced by the CNAMEs
// encountered on the way, so we follow the chain comparing names without
// regard to case. It returns [ErrNoData] when nothing is left.
func ResponseExtractValidAnswers(q0 dns.Question, resp *dns.Msg) ([]dns.RR, error) {
	validNames := map[string]bool{dns.CanonicalName(q0.Name): true}
	currentName := q0.Name
	for _, answer := range resp.Answer {
		cname, ok := answer.(*dns.CNAME)
		if !ok {
			continue
		}
		header := cname.Header()
		if equalASCIIName(currentName, header.Name) && header.Class == q0.Qclass {
			currentName = dns.CanonicalName(cname.Target)
			validNames[currentName] = true
		}
	}

	// the type is not checked because a chain mixes CNAMEs and addresses
	valid := []dns.RR{}
	for _, answer := range resp.Answer {
		header := answer.Header()
		if validNames[dns.CanonicalName(header.Name)] && header.Class == q0.Qclass {
			valid = append(valid, answer)
		}
	}
	if len(valid) < 1 {
		return nil, ErrNoData
	}
	return valid, nil
}

// Response is a validated DNS response.
//
// Construct a new instance using [ParseResponse].
type Response struct {
	// Query is the original query message.
	Query *dns.Msg

	// Response is the response message.
	Response *dns.Msg

	// ValidRRs contains the valid RRs for the query.
	ValidRRs []dns.RR
}

// ParseResponse returns a [*Response] given a query and response messages or an
// error if the response message is not valid for the query.
func ParseResponse(query *dns.Msg, resp *dns.Msg) (*Response, error) {
	q0, err := ValidateResponseForQuery(query, resp)
	if err != nil {
		return nil, err
	}
	if err := ResponseErrorFromRCODE(resp); err != nil {
		return nil, err
	}
	rrs, err := ResponseExtractValidAnswers(q0, resp)
	if err != nil {
		return nil, err
	}
	return &Response{Query: query, Response: resp, ValidRRs: rrs}, nil
}

// RecordsA returns the addresses in the A records of the response.
//
// Malformed records are skipped and [ErrNoData] is returned
// when no address is left.
func (r *Response) RecordsA() ([]netip.Addr, error) {
	out := make([]netip.Addr, 0, len(r.ValidRRs))
	for _, rr := range r.ValidRRs {
		if rr, ok := rr.(*dns.A); ok {
			// FromStdIP unmaps the 16-byte form used by net.IPv4
			if addr, ok := netipx.FromStdIP(rr.A); ok && addr.Is4() {
				out = append(out, addr)
			}
		}
	}
	if len(out) < 1 {
		return nil, ErrNoData
	}
	return out, nil
}

// RecordsAAAA returns the addresses in the AAAA records of the response.
//
// Malformed records are skipped and [ErrNoData] is returned
// when no address is left.
func (r *Response) RecordsAAAA() ([]netip.Addr, error) {
	out := make([]netip.Addr, 0, len(r.ValidRRs))
	for _, rr := range r.ValidRRs {
		if rr, ok := rr.(*dns.AAAA); ok {
			if addr, ok := netipx.FromStdIPRaw(rr.AAAA); ok && addr.Is6() {
				out = append(out, addr)
			}
		}
	}
	if len(out) < 1 {
		return nil, ErrNoData
	}
	return out, nil
}

// RecordsCNAME returns the CNAME targets in the response, in chain order.
func (r *Response) RecordsCNAME() ([]string, error) {
	out := make([]string, 0, len(r.ValidRRs))
	for _, rr := range r.ValidRRs {
		if rr, ok := rr.(*dns.CNAME); ok {
			out = append(out, rr.Target)
		}
	}
	if len(out) < 1 {
		return nil, ErrNoData
	}
	return out, nil
}

// Addrs returns the addresses matching the query type,
// that is [*Response.RecordsA] or [*Response.RecordsAAAA].
func (r *Response) Addrs() ([]netip.Addr, error) {
	if len(r.Query.Question) == 1 && r.Query.Question[0].Qtype == dns.TypeAAAA {
		return r.RecordsAAAA()
	}
	return r.RecordsA()
}
