// SPDX-License-Identifier: GPL-3.0-or-later

package dnslookup

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bassosimone/ipaddr"
	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var _ ipaddr.Lookuper = &Client{}

var _ Exchanger = &dns.Client{}

// replyFunc builds the response for a query.
type replyFunc func(query *dns.Msg) (*dns.Msg, error)

// fakeExchanger answers queries using a replyFunc per query type.
type fakeExchanger struct {
	replies map[uint16]replyFunc
	servers []string
	qtypes  []uint16
}

func (fe *fakeExchanger) ExchangeContext(
	ctx context.Context, m *dns.Msg, address string) (*dns.Msg, time.Duration, error) {
	fe.servers = append(fe.servers, address)
	fe.qtypes = append(fe.qtypes, m.Question[0].Qtype)
	reply, ok := fe.replies[m.Question[0].Qtype]
	if !ok {
		return nil, 0, errors.New("unexpected query type")
	}
	resp, err := reply(m)
	return resp, time.Millisecond, err
}

func answer(rrs ...dns.RR) replyFunc {
	return func(query *dns.Msg) (*dns.Msg, error) {
		resp := new(dns.Msg)
		resp.SetReply(query)
		resp.RecursionAvailable = true
		for _, rr := range rrs {
			rr = dns.Copy(rr)
			rr.Header().Name = query.Question[0].Name
			resp.Answer = append(resp.Answer, rr)
		}
		return resp, nil
	}
}

func rcode(code int) replyFunc {
	return func(query *dns.Msg) (*dns.Msg, error) {
		resp := new(dns.Msg)
		resp.SetRcode(query, code)
		resp.RecursionAvailable = true
		return resp, nil
	}
}

func fail(err error) replyFunc {
	return func(query *dns.Msg) (*dns.Msg, error) {
		return nil, err
	}
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func newTestClient(t *testing.T, exchanger Exchanger) *Client {
	return &Client{
		Server:    "127.0.0.53:53",
		Exchanger: exchanger,
		Logger:    zaptest.NewLogger(t),
	}
}

func TestClientLookupNetIP(t *testing.T) {
	v4 := newA("", net.IPv4(127, 0, 0, 1))
	v6 := newAAAA("", net.ParseIP("::1"))

	tests := []struct {
		name     string
		network  string
		replies  map[uint16]replyFunc
		expected []netip.Addr
		qtypes   []uint16
	}{
		{
			name:    "DualStack",
			network: "ip",
			replies: map[uint16]replyFunc{dns.TypeA: answer(v4), dns.TypeAAAA: answer(v6)},
			expected: []netip.Addr{
				netip.MustParseAddr("127.0.0.1"),
				netip.MustParseAddr("::1"),
			},
			qtypes: []uint16{dns.TypeA, dns.TypeAAAA},
		},
		{
			name:     "DualStackOnlyIPv4",
			network:  "ip",
			replies:  map[uint16]replyFunc{dns.TypeA: answer(v4), dns.TypeAAAA: answer()},
			expected: []netip.Addr{netip.MustParseAddr("127.0.0.1")},
			qtypes:   []uint16{dns.TypeA, dns.TypeAAAA},
		},
		{
			name:     "DualStackIPv4Failure",
			network:  "ip",
			replies:  map[uint16]replyFunc{dns.TypeA: fail(timeoutError{}), dns.TypeAAAA: answer(v6)},
			expected: []netip.Addr{netip.MustParseAddr("::1")},
			qtypes:   []uint16{dns.TypeA, dns.TypeAAAA},
		},
		{
			name:     "OnlyIPv4",
			network:  "ip4",
			replies:  map[uint16]replyFunc{dns.TypeA: answer(v4)},
			expected: []netip.Addr{netip.MustParseAddr("127.0.0.1")},
			qtypes:   []uint16{dns.TypeA},
		},
		{
			name:     "OnlyIPv6",
			network:  "ip6",
			replies:  map[uint16]replyFunc{dns.TypeAAAA: answer(v6)},
			expected: []netip.Addr{netip.MustParseAddr("::1")},
			qtypes:   []uint16{dns.TypeAAAA},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := &fakeExchanger{replies: tt.replies}
			clnt := newTestClient(t, fe)

			addrs, err := clnt.LookupNetIP(context.Background(), tt.network, "localhost")
			require.NoError(t, err)
			require.Equal(t, tt.expected, addrs)
			require.Equal(t, tt.qtypes, fe.qtypes)
			for _, server := range fe.servers {
				require.Equal(t, "127.0.0.53:53", server)
			}
		})
	}
}

func TestClientLookupNetIPFailure(t *testing.T) {
	tests := []struct {
		name       string
		network    string
		replies    map[uint16]replyFunc
		notFound   bool
		timeout    bool
		wrappedErr error
	}{
		{
			name:    "NXDOMAIN",
			network: "ip",
			replies: map[uint16]replyFunc{
				dns.TypeA:    rcode(dns.RcodeNameError),
				dns.TypeAAAA: rcode(dns.RcodeNameError),
			},
			notFound:   true,
			wrappedErr: ErrNoName,
		},
		{
			name:    "NoData",
			network: "ip6",
			replies: map[uint16]replyFunc{
				dns.TypeAAAA: answer(),
			},
			notFound:   true,
			wrappedErr: ErrNoData,
		},
		{
			name:    "ServerFailure",
			network: "ip4",
			replies: map[uint16]replyFunc{
				dns.TypeA: rcode(dns.RcodeServerFailure),
			},
			wrappedErr: ErrServerTemporarilyMisbehaving,
		},
		{
			name:    "MixedNoNameAndTimeout",
			network: "ip",
			replies: map[uint16]replyFunc{
				dns.TypeA:    rcode(dns.RcodeNameError),
				dns.TypeAAAA: fail(timeoutError{}),
			},
			timeout:    true,
			wrappedErr: ErrNoName,
		},
		{
			name:       "UnsupportedNetwork",
			network:    "udp",
			wrappedErr: ErrUnsupportedNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clnt := newTestClient(t, &fakeExchanger{replies: tt.replies})

			addrs, err := clnt.LookupNetIP(context.Background(), tt.network, "example.invalid")
			require.Nil(t, addrs)

			var dnsErr *net.DNSError
			require.ErrorAs(t, err, &dnsErr)
			require.Equal(t, "example.invalid", dnsErr.Name)
			require.Equal(t, "127.0.0.53:53", dnsErr.Server)
			require.Equal(t, tt.notFound, dnsErr.IsNotFound)
			require.Equal(t, tt.timeout, dnsErr.IsTimeout)
			require.ErrorIs(t, err, tt.wrappedErr)
		})
	}
}

func TestClientDefaults(t *testing.T) {
	clnt := &Client{Server: "127.0.0.53:53"}
	require.NotNil(t, clnt.logger())
	require.IsType(t, &dns.Client{}, clnt.exchanger())

	clnt = NewClient("[::1]:53")
	require.Equal(t, "[::1]:53", clnt.Server)
	require.Equal(t, &dns.Client{Net: "udp"}, clnt.Exchanger)
}

func TestNewClientFromResolvConf(t *testing.T) {
	dir := t.TempDir()

	t.Run("Success", func(t *testing.T) {
		path := filepath.Join(dir, "resolv.conf")
		content := "nameserver 9.9.9.9\nnameserver 1.1.1.1\noptions timeout:3\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		clnt, err := NewClientFromResolvConf(path)
		require.NoError(t, err)
		require.Equal(t, "9.9.9.9:53", clnt.Server)
		require.Equal(t, &dns.Client{Net: "udp", Timeout: 3 * time.Second}, clnt.Exchanger)
	})

	t.Run("NoServers", func(t *testing.T) {
		path := filepath.Join(dir, "empty.conf")
		require.NoError(t, os.WriteFile(path, []byte("search example.com\n"), 0o600))

		clnt, err := NewClientFromResolvConf(path)
		require.ErrorIs(t, err, ErrNoServers)
		require.Nil(t, clnt)
	})

	t.Run("MissingFile", func(t *testing.T) {
		clnt, err := NewClientFromResolvConf(filepath.Join(dir, "nonexistent.conf"))
		require.Error(t, err)
		require.Nil(t, clnt)
	})
}

func TestClientWithResolver(t *testing.T) {
	fe := &fakeExchanger{replies: map[uint16]replyFunc{
		dns.TypeA:    answer(newA("", net.IPv4(127, 0, 0, 1))),
		dns.TypeAAAA: answer(newAAAA("", net.ParseIP("::1"))),
	}}
	reso := ipaddr.New(
		ipaddr.WithLookuper(newTestClient(t, fe)),
		ipaddr.WithLogger(zaptest.NewLogger(t)),
	)

	res, err := reso.Resolve(context.Background(), "localhost", ipaddr.FamilyUnspec, true)
	require.NoError(t, err)
	require.Equal(t, ipaddr.Loopback6(), res.Primary)
	require.Equal(t, ipaddr.Loopback4(), res.Secondary)
	require.Equal(t, ipaddr.FoundIPv4|ipaddr.FoundIPv6, res.Found)
}

func TestClientWithResolverNotFound(t *testing.T) {
	fe := &fakeExchanger{replies: map[uint16]replyFunc{
		dns.TypeA:    rcode(dns.RcodeNameError),
		dns.TypeAAAA: rcode(dns.RcodeNameError),
	}}
	reso := ipaddr.New(ipaddr.WithLookuper(newTestClient(t, fe)))

	res, err := reso.Resolve(context.Background(), "example.invalid", ipaddr.FamilyUnspec, false)
	require.Nil(t, res)
	require.ErrorIs(t, err, ipaddr.ErrNotFound)
	require.ErrorIs(t, err, ErrNoName)
}
