// Package dns provides the resolvers used to check that the domain of an
// email address can receive mail.
package dns

import (
	"context"
	"errors"
	"net"
)

// DNS lookup errors.
var (
	ErrDNSNotFound = errors.New("dns: record not found")
	ErrDNSTimeout  = errors.New("dns: query timed out")
	ErrDNSServFail = errors.New("dns: server failure")
	ErrDNSRefused  = errors.New("dns: query refused")
	ErrDNSBogus    = errors.New("dns: DNSSEC validation failed")
)

// Result contains the records returned by a lookup.
type Result[T any] struct {
	Records []T

	// Authentic indicates if the response was DNSSEC-validated by the upstream
	// resolver. Always false for resolvers that don't support DNSSEC.
	Authentic bool
}

// Resolver is the interface for the DNS lookups required to check a mail domain.
// Implementations return `ErrDNSNotFound` when the name exists but has no
// record of the requested type, or doesn't exist at all.
type Resolver interface {
	// LookupMX retrieves MX records for the given domain.
	LookupMX(ctx context.Context, name string) (Result[*net.MX], error)

	// LookupIP retrieves A and AAAA records for the given domain.
	LookupIP(ctx context.Context, name string) (Result[net.IP], error)
}

// IsNotFound returns true if the error means the record doesn't exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDNSNotFound)
}

// IsTimeout returns true if the query timed out.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrDNSTimeout)
}

// IsServFail returns true if the upstream server failed to answer.
func IsServFail(err error) bool {
	return errors.Is(err, ErrDNSServFail)
}

// IsTemporary returns true if the same query may succeed later.
func IsTemporary(err error) bool {
	return IsTimeout(err) || IsServFail(err)
}
