package dns

import (
	"context"
	stderrors "errors"
	"net"
	"strings"

	"goyave.dev/mailcheck/util/errors"
)

// StdResolver implements the Resolver interface using the standard library
// resolver. It doesn't support DNSSEC: `Result.Authentic` is always false.
type StdResolver struct {
	resolver *net.Resolver
}

var _ Resolver = (*StdResolver)(nil)

// NewStdResolver creates a resolver using the system configuration.
func NewStdResolver() *StdResolver {
	return &StdResolver{
		resolver: net.DefaultResolver,
	}
}

// NewStdResolverWithDialer creates a resolver using a custom dialer.
// This allows querying custom DNS servers through the standard library.
func NewStdResolverWithDialer(dial func(ctx context.Context, network, address string) (net.Conn, error)) *StdResolver {
	return &StdResolver{
		resolver: &net.Resolver{
			PreferGo: true,
			Dial:     dial,
		},
	}
}

// LookupIP retrieves A and AAAA records.
func (r *StdResolver) LookupIP(ctx context.Context, domain string) (Result[net.IP], error) {
	ips, err := r.resolver.LookupIP(ctx, "ip", strings.TrimSuffix(domain, "."))
	if err != nil {
		return Result[net.IP]{}, convertError(err)
	}
	if len(ips) == 0 {
		return Result[net.IP]{}, ErrDNSNotFound
	}
	return Result[net.IP]{Records: ips}, nil
}

// LookupMX retrieves MX records.
func (r *StdResolver) LookupMX(ctx context.Context, name string) (Result[*net.MX], error) {
	records, err := r.resolver.LookupMX(ctx, strings.TrimSuffix(name, "."))
	if err != nil {
		return Result[*net.MX]{}, convertError(err)
	}
	if len(records) == 0 {
		return Result[*net.MX]{}, ErrDNSNotFound
	}
	return Result[*net.MX]{Records: records}, nil
}

// convertError converts standard library DNS errors to package errors.
func convertError(err error) error {
	var dnsErr *net.DNSError
	if stderrors.As(err, &dnsErr) {
		switch {
		case dnsErr.IsNotFound:
			return ErrDNSNotFound
		case dnsErr.IsTimeout:
			return ErrDNSTimeout
		case dnsErr.IsTemporary:
			return ErrDNSServFail
		}
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return ErrDNSTimeout
	}
	return errors.Errorf("dns: lookup failed: %w", err)
}
