package dns

import (
	"context"
	"net"
	"reflect"
	"time"

	"goyave.dev/mailcheck/config"
	"goyave.dev/mailcheck/util/errors"
)

// Resolver drivers.
const (
	DriverMiekg = "miekg"
	DriverStd   = "std"
)

func init() {
	config.Register("dns.driver", config.Entry{
		Value:            DriverMiekg,
		Type:             reflect.String,
		AuthorizedValues: []any{DriverMiekg, DriverStd},
	})
	config.Register("dns.nameservers", config.Entry{
		Value:            []string{},
		Type:             reflect.String,
		IsSlice:          true,
		AuthorizedValues: []any{},
	})
	config.Register("dns.timeout", config.Entry{
		Value:            5,
		Type:             reflect.Int,
		AuthorizedValues: []any{},
	})
	config.Register("dns.retries", config.Entry{
		Value:            2,
		Type:             reflect.Int,
		AuthorizedValues: []any{},
	})
	config.Register("dns.dnssec", config.Entry{
		Value:            false,
		Type:             reflect.Bool,
		AuthorizedValues: []any{},
	})
}

// NewFromConfig creates the resolver described by the "dns" config category.
//
// The "std" driver uses the system resolver unless nameservers are set, in
// which case queries are sent to the first nameserver. It ignores "dns.retries"
// and "dns.dnssec".
func NewFromConfig(cfg *config.Config) (Resolver, error) {
	timeout := cfg.GetInt("dns.timeout")
	if timeout <= 0 {
		return nil, errors.Errorf("dns: timeout must be positive, got %d", timeout)
	}
	retries := cfg.GetInt("dns.retries")
	if retries < 0 {
		return nil, errors.Errorf("dns: retries must not be negative, got %d", retries)
	}
	nameservers := cfg.GetStringSlice("dns.nameservers")

	switch driver := cfg.GetString("dns.driver"); driver {
	case DriverMiekg:
		return NewResolver(ResolverConfig{
			Nameservers: nameservers,
			DNSSEC:      cfg.GetBool("dns.dnssec"),
			Timeout:     time.Duration(timeout) * time.Second,
			Retries:     retries,
		}), nil
	case DriverStd:
		if len(nameservers) == 0 {
			return NewStdResolver(), nil
		}
		server := withPort(nameservers[0], "53")
		dialer := &net.Dialer{Timeout: time.Duration(timeout) * time.Second}
		return NewStdResolverWithDialer(func(ctx context.Context, network, _ string) (net.Conn, error) {
			return dialer.DialContext(ctx, network, server)
		}), nil
	default:
		return nil, errors.Errorf("dns: unknown driver %q", driver)
	}
}
