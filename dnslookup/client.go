// SPDX-License-Identifier: GPL-3.0-or-later

package dnslookup

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"time"

	"github.com/miekg/dns"
	"go.uber.org/zap"
)

// ErrNoServers indicates that a resolv.conf file lists no name servers.
var ErrNoServers = errors.New("no name servers configured")

// Exchanger sends a DNS query to a server and returns the response.
//
// [*dns.Client] implements this interface.
type Exchanger interface {
	ExchangeContext(ctx context.Context, m *dns.Msg, address string) (*dns.Msg, time.Duration, error)
}

// Client resolves names by querying a recursive DNS server.
//
// Construct using [NewClient] or [NewClientFromResolvConf], or set the
// MANDATORY fields. A [*Client] is safe for concurrent use when its
// [Exchanger] is.
type Client struct {
	// Server is the MANDATORY "host:port" endpoint of the server.
	Server string

	// Exchanger is the OPTIONAL [Exchanger]. When nil we
	// use a zero-value [*dns.Client], i.e., UDP.
	Exchanger Exchanger

	// Flags OPTIONALLY modify each query.
	//
	// Use [QueryFlagBlockLengthPadding] and [QueryFlagDNSSec].
	Flags uint16

	// Logger is the OPTIONAL logger. When nil we do not log.
	Logger *zap.Logger
}

// NewClient returns a [*Client] using UDP to talk to server.
func NewClient(server string) *Client {
	return &Client{
		Server:    server,
		Exchanger: &dns.Client{Net: "udp"},
		Logger:    zap.NewNop(),
	}
}

// NewClientFromResolvConf returns a [*Client] using the first name server
// and the timeout listed in the given resolv.conf file.
func NewClientFromResolvConf(path string) (*Client, error) {
	config, err := dns.ClientConfigFromFile(path)
	if err != nil {
		return nil, err
	}
	if len(config.Servers) < 1 {
		return nil, ErrNoServers
	}
	c := NewClient(net.JoinHostPort(config.Servers[0], config.Port))
	c.Exchanger = &dns.Client{
		Net:     "udp",
		Timeout: time.Duration(config.Timeout) * time.Second,
	}
	return c, nil
}

// LookupNetIP resolves host to IPv4 and/or IPv6 addresses depending on
// whether network is "ip4", "ip6", or "ip". For "ip" we send an A and
// then an AAAA query and return the A results first.
//
// The lookup fails only when every query fails. In such a case the error
// is a [*net.DNSError] reporting IsNotFound when all the queries failed
// with [ErrNoName] or [ErrNoData]. Its UnwrapErr field joins the errors.
func (c *Client) LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error) {
	qtypes, err := QueryTypesForNetwork(network)
	if err != nil {
		return nil, c.newDNSError(host, []error{err})
	}

	var (
		addrs []netip.Addr
		errs  []error
	)
	for _, qtype := range qtypes {
		found, err := c.lookup(ctx, host, qtype)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		addrs = append(addrs, found...)
	}
	if len(addrs) < 1 {
		return nil, c.newDNSError(host, errs)
	}
	return addrs, nil
}

// lookup performs a single query and returns the addresses it found.
func (c *Client) lookup(ctx context.Context, host string, qtype uint16) ([]netip.Addr, error) {
	logger := c.logger().With(
		zap.String("name", host),
		zap.String("qtype", dns.TypeToString[qtype]),
		zap.String("server", c.Server),
	)

	query := NewQuery(host, qtype)
	query.Flags = c.Flags
	msg, err := query.NewMsg()
	if err != nil {
		return nil, err
	}

	resp, rtt, err := c.exchanger().ExchangeContext(ctx, msg, c.Server)
	if err != nil {
		logger.Debug("dns exchange failed", zap.Error(err))
		return nil, err
	}

	parsed, err := ParseResponse(msg, resp)
	if err != nil {
		logger.Debug("invalid dns response", zap.Duration("rtt", rtt), zap.Error(err))
		return nil, err
	}

	addrs, err := parsed.Addrs()
	if err != nil {
		return nil, err
	}
	logger.Debug("dns lookup done", zap.Duration("rtt", rtt), zap.Int("addrs", len(addrs)))
	return addrs, nil
}

func (c *Client) exchanger() Exchanger {
	if c.Exchanger == nil {
		return &dns.Client{}
	}
	return c.Exchanger
}

func (c *Client) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// newDNSError builds the [*net.DNSError] for a failed lookup given
// the non-empty list of errors that caused the failure.
func (c *Client) newDNSError(host string, errs []error) *net.DNSError {
	dnsErr := &net.DNSError{
		Err:        errs[0].Error(),
		Name:       host,
		Server:     c.Server,
		IsNotFound: true,
		UnwrapErr:  errors.Join(errs...),
	}
	for _, err := range errs {
		if !errors.Is(err, ErrNoName) && !errors.Is(err, ErrNoData) {
			dnsErr.IsNotFound = false
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			dnsErr.IsTimeout = true
		}
	}
	return dnsErr
}
