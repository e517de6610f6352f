// SPDX-License-Identifier: GPL-3.0-or-later

package ipaddr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"

	"go.uber.org/zap"
)

// Lookuper resolves a host name to zero or more addresses.
//
// The network is "ip4", "ip6", or "ip" for both families, as in
// [*net.Resolver.LookupNetIP], which implements this interface.
// Implementations should return a [*net.DNSError] with IsNotFound
// set when the name has no records.
type Lookuper interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// Errors returned by [*Resolver.Resolve].
var (
	// ErrNotFound means that no family produced a usable record.
	//
	// The message matches the one used by the standard library.
	ErrNotFound = errors.New("no such host")

	// ErrUnavailable means that the [Lookuper] itself failed.
	ErrUnavailable = errors.New("resolver unavailable")

	// ErrInvalidFamily means that the preferred family is unknown.
	ErrInvalidFamily = errors.New("invalid address family")

	// ErrNoAddress is the detail of [ErrNotFound] when the lookup
	// succeeded without returning any usable IPv4 or IPv6 address.
	ErrNoAddress = errors.New("no usable address in lookup result")
)

// ResolveError is the error returned by [*Resolver.Resolve] when
// the host cannot be resolved.
//
// It unwraps to both Kind and Err.
type ResolveError struct {
	// Host is the host that we tried to resolve.
	Host string

	// Kind is either [ErrNotFound] or [ErrUnavailable].
	Kind error

	// Err is the underlying lookup error.
	Err error
}

var _ error = &ResolveError{}

// Error implements error.
func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve %s: %s: %s", e.Host, e.Kind, e.Err)
}

// Unwrap returns Kind and Err.
func (e *ResolveError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Resolution is the result of a successful [*Resolver.Resolve].
type Resolution struct {
	// Primary is the address to use.
	Primary Addr

	// Found contains the families for which the lookup
	// returned at least one usable record.
	Found Found

	// Secondary is the first address of the other family, when the
	// caller asked for it and the lookup was dual-stack. It has family
	// [FamilyUnspec] when absent.
	Secondary Addr
}

// HasSecondary returns whether Secondary is present.
func (r *Resolution) HasSecondary() bool {
	return r.Secondary.IsValid()
}

// Opt configures a [*Resolver].
type Opt func(*Resolver)

// WithLookuper sets the [Lookuper] used to resolve names.
//
// The default is [net.DefaultResolver].
func WithLookuper(l Lookuper) Opt {
	return func(r *Resolver) {
		r.lookuper = l
	}
}

// WithLogger sets the logger. The default discards all the logs.
func WithLogger(logger *zap.Logger) Opt {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// Resolver resolves host strings to addresses.
//
// Construct using [New]. A [*Resolver] is safe for concurrent use.
type Resolver struct {
	lookuper Lookuper
	logger   *zap.Logger
}

// New creates a new [*Resolver].
func New(opts ...Opt) *Resolver {
	r := &Resolver{
		lookuper: net.DefaultResolver,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve resolves host using a default [*Resolver].
func Resolve(ctx context.Context, host string, preferred Family, wantSecondary bool) (*Resolution, error) {
	return New().Resolve(ctx, host, preferred, wantSecondary)
}

// Resolve resolves host to an address.
//
// When host is an IPv4 or IPv6 literal, the result is the parsed literal,
// regardless of preferred, and the [Lookuper] is not called.
//
// Otherwise, with preferred set to [FamilyIPv4] or [FamilyIPv6] we only
// look up that family and the primary address is its first record. With
// [FamilyUnspec] we look up both families: the first IPv6 record becomes
// the primary address when present, otherwise the first IPv4 record. In
// this case, and only in this case, wantSecondary fills Secondary with the
// first record of the non-primary family.
//
// The host is passed to the [Lookuper] verbatim. This method blocks until
// the [Lookuper] returns and does not retry. On failure the returned error
// is a [*ResolveError] or wraps [ErrInvalidFamily].
func (r *Resolver) Resolve(ctx context.Context, host string, preferred Family, wantSecondary bool) (*Resolution, error) {
	// 1. parse literal addresses without any lookup
	if addr, err := Parse(host); err == nil {
		r.logger.Debug("resolved literal address",
			zap.String("host", host),
			zap.Stringer("family", addr.Family()))
		return &Resolution{Primary: addr, Found: FoundFor(addr.Family())}, nil
	}

	// 2. select which families to query
	network, err := lookupNetwork(preferred)
	if err != nil {
		return nil, err
	}

	// 3. perform the lookup
	r.logger.Debug("looking up host",
		zap.String("host", host),
		zap.String("network", network))
	records, err := r.lookuper.LookupNetIP(ctx, network, host)
	if err != nil {
		r.logger.Debug("lookup failed", zap.String("host", host), zap.Error(err))
		return nil, &ResolveError{Host: host, Kind: classifyLookupError(err), Err: err}
	}

	// 4. keep the first usable record of each family
	v4, v6 := firstPerFamily(records)
	switch preferred {
	case FamilyIPv4:
		v6 = Addr{}
	case FamilyIPv6:
		v4 = Addr{}
	}

	var found Found
	if v4.IsValid() {
		found |= FoundIPv4
	}
	if v6.IsValid() {
		found |= FoundIPv6
	}
	if found.Empty() {
		r.logger.Debug("no usable address", zap.String("host", host), zap.Int("records", len(records)))
		return nil, &ResolveError{Host: host, Kind: ErrNotFound, Err: ErrNoAddress}
	}

	// 5. prefer IPv6 over IPv4 for the primary address
	primary, other := v4, v6
	if v6.IsValid() {
		primary, other = v6, v4
	}
	res := &Resolution{Primary: primary, Found: found}
	if wantSecondary {
		res.Secondary = other
	}

	r.logger.Debug("resolved host",
		zap.String("host", host),
		zap.Stringer("primary", res.Primary),
		zap.Stringer("found", res.Found),
		zap.Bool("secondary", res.HasSecondary()))
	return res, nil
}

// lookupNetwork maps the preferred family to the [Lookuper] network.
func lookupNetwork(preferred Family) (string, error) {
	switch preferred {
	case FamilyUnspec:
		return "ip", nil
	case FamilyIPv4:
		return "ip4", nil
	case FamilyIPv6:
		return "ip6", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidFamily, preferred)
	}
}

// firstPerFamily returns the first IPv4 and the first IPv6 record. An
// IPv4-mapped IPv6 record counts as an IPv4 record.
func firstPerFamily(records []netip.Addr) (v4, v6 Addr) {
	for _, ip := range records {
		switch {
		case ip.Is4() || ip.Is4In6():
			if !v4.IsValid() {
				v4 = AddrFromNetIP(ip.Unmap())
			}
		case ip.Is6():
			if !v6.IsValid() {
				v6 = AddrFromNetIP(ip)
			}
		}
	}
	return
}

// classifyLookupError maps a [Lookuper] error to [ErrNotFound] or [ErrUnavailable].
func classifyLookupError(err error) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return ErrNotFound
	}
	return ErrUnavailable
}
