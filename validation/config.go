package validation

import (
	"reflect"
	"time"

	"goyave.dev/mailcheck/config"
	"goyave.dev/mailcheck/dns"
)

func init() {
	config.Register("validation.email.allowName", config.Entry{
		Value:            false,
		Type:             reflect.Bool,
		AuthorizedValues: []any{},
	})
	config.Register("validation.email.enableIDN", config.Entry{
		Value:            false,
		Type:             reflect.Bool,
		AuthorizedValues: []any{},
	})
	config.Register("validation.email.checkDNS", config.Entry{
		Value:            false,
		Type:             reflect.Bool,
		AuthorizedValues: []any{},
	})
	config.Register("validation.email.skipOnEmpty", config.Entry{
		Value:            true,
		Type:             reflect.Bool,
		AuthorizedValues: []any{},
	})
	config.Register("validation.email.message", config.Entry{
		Value:            "",
		Type:             reflect.String,
		AuthorizedValues: []any{},
	})
	config.Register("validation.email.dnsTimeout", config.Entry{
		Value:            int(DefaultDNSTimeout / time.Second),
		Type:             reflect.Int,
		AuthorizedValues: []any{},
	})
}

// EmailFromConfig creates an email validator using the "validation.email"
// config category. If the DNS check is enabled and the given resolver is nil,
// the resolver is created from the "dns" config category.
//
// Additional options are applied after the configured ones.
func EmailFromConfig(cfg *config.Config, resolver dns.Resolver, opts ...EmailOption) (*EmailValidator, error) {
	options := []EmailOption{
		SkipOnEmpty(cfg.GetBool("validation.email.skipOnEmpty")),
		Message(cfg.GetString("validation.email.message")),
		DNSTimeout(time.Duration(cfg.GetInt("validation.email.dnsTimeout")) * time.Second),
	}
	if cfg.GetBool("validation.email.allowName") {
		options = append(options, AllowName())
	}
	if cfg.GetBool("validation.email.enableIDN") {
		options = append(options, EnableIDN())
	}
	if cfg.GetBool("validation.email.checkDNS") {
		if resolver == nil {
			r, err := dns.NewFromConfig(cfg)
			if err != nil {
				return nil, err
			}
			resolver = r
		}
		options = append(options, CheckDNS(resolver))
	}
	return Email(append(options, opts...)...), nil
}
