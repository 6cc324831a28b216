package dns

import (
	"context"
	"net"
	"slices"
)

// MockResolver is a Resolver used for testing.
// Set DNS records in the fields, which map FQDNs (with trailing dot) to values.
type MockResolver struct {
	A    map[string][]string
	AAAA map[string][]string
	MX   map[string][]*net.MX

	// Fail contains queries that will return a server failure.
	// Format: "type name", e.g. "mx example.com." where type is lowercase.
	Fail []string

	// Timeout contains queries that will time out, using the same format as Fail.
	Timeout []string

	// AllAuthentic sets the value for Authentic in responses.
	AllAuthentic bool
}

var _ Resolver = MockResolver{}

func ensureFQDN(name string) string {
	if len(name) == 0 || name[len(name)-1] != '.' {
		return name + "."
	}
	return name
}

// check returns the error configured for the given query, if any.
func (r MockResolver) check(ctx context.Context, qtype, fqdn string) error {
	if err := ctx.Err(); err != nil {
		return contextError(err)
	}
	req := qtype + " " + fqdn
	if slices.Contains(r.Timeout, req) {
		return ErrDNSTimeout
	}
	if slices.Contains(r.Fail, req) {
		return ErrDNSServFail
	}
	return nil
}

// LookupIP returns A and AAAA records for the given domain.
func (r MockResolver) LookupIP(ctx context.Context, domain string) (Result[net.IP], error) {
	fqdn := ensureFQDN(domain)
	result := Result[net.IP]{Authentic: r.AllAuthentic}

	for _, qtype := range []string{"a", "aaaa"} {
		if err := r.check(ctx, qtype, fqdn); err != nil {
			return result, err
		}
	}

	for _, ip := range r.A[fqdn] {
		result.Records = append(result.Records, net.ParseIP(ip))
	}
	for _, ip := range r.AAAA[fqdn] {
		result.Records = append(result.Records, net.ParseIP(ip))
	}

	if len(result.Records) == 0 {
		return result, ErrDNSNotFound
	}
	return result, nil
}

// LookupMX returns MX records for the given domain.
func (r MockResolver) LookupMX(ctx context.Context, name string) (Result[*net.MX], error) {
	fqdn := ensureFQDN(name)
	result := Result[*net.MX]{Authentic: r.AllAuthentic}

	if err := r.check(ctx, "mx", fqdn); err != nil {
		return result, err
	}

	records, ok := r.MX[fqdn]
	if !ok || len(records) == 0 {
		return result, ErrDNSNotFound
	}
	result.Records = records
	return result, nil
}
