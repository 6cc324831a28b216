package validation

import (
	"context"
	stderrors "errors"
	"net"
	"time"

	"goyave.dev/mailcheck/dns"
	"goyave.dev/mailcheck/idn"
	"goyave.dev/mailcheck/mailaddr"
	"goyave.dev/mailcheck/slog"
	"goyave.dev/mailcheck/util/errors"
)

// DefaultDNSTimeout the default time limit of the DNS check of the email validator.
const DefaultDNSTimeout = 5 * time.Second

// EmailReason the outcome of the email validation.
type EmailReason int

// Email validation outcomes.
const (
	EmailValid EmailReason = iota
	EmailInvalidType
	EmailSyntaxError
	EmailTooLong
	EmailDomainUnreachable
	EmailIDNConversionFailed
)

func (r EmailReason) String() string {
	switch r {
	case EmailValid:
		return "valid"
	case EmailInvalidType:
		return "invalid_type"
	case EmailSyntaxError:
		return "syntax"
	case EmailTooLong:
		return "too_long"
	case EmailDomainUnreachable:
		return "domain_unreachable"
	case EmailIDNConversionFailed:
		return "idn_conversion"
	default:
		return "unknown"
	}
}

// MarshalText encodes the reason as its string representation.
func (r EmailReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// LangEntry returns the language entry describing this reason.
// For example "validation.rules.email.too_long".
func (r EmailReason) LangEntry() string {
	if r == EmailValid {
		return "validation.rules.email"
	}
	return "validation.rules.email." + r.String()
}

// EmailOptions the configuration of an `EmailValidator`.
type EmailOptions struct {
	// Converter used when IDN is enabled. Defaults to `idn.Default`.
	Converter mailaddr.Converter

	// Resolver used when the DNS check is enabled.
	Resolver dns.Resolver

	// Logger receives the DNS check warnings when the validator is used
	// outside of `Validate()`. The logger from the validation options is
	// used otherwise.
	Logger *slog.Logger

	// Message template replacing the "validation.rules.email" language line.
	// The ":field" placeholder is replaced by the field name.
	Message string

	// DNSTimeout the maximum duration of the DNS check. Zero means the
	// DNS check is only bounded by the resolver's own timeout.
	DNSTimeout time.Duration

	// AllowName accepts addresses in the "Name <local@domain>" forms.
	AllowName bool

	// EnableIDN accepts internationalized local parts and domains.
	EnableIDN bool

	// CheckDNS requires the domain to have a MX record, or an A or AAAA record.
	CheckDNS bool

	// SkipOnEmpty skips validation of empty values.
	SkipOnEmpty bool
}

// EmailOption functional option for `Email()`.
type EmailOption func(*EmailOptions)

// AllowName accepts addresses in the "Name <local@domain>", "\"Name\" <local@domain>"
// and "<local@domain>" forms.
func AllowName() EmailOption {
	return func(o *EmailOptions) { o.AllowName = true }
}

// EnableIDN accepts internationalized domains and local parts. The domain is
// converted to punycode before the length checks.
func EnableIDN() EmailOption {
	return func(o *EmailOptions) { o.EnableIDN = true }
}

// CheckDNS requires the domain of the address to have a MX record, or
// an A or AAAA record if it has no MX record.
func CheckDNS(resolver dns.Resolver) EmailOption {
	return func(o *EmailOptions) {
		o.CheckDNS = true
		o.Resolver = resolver
	}
}

// DNSTimeout limits the duration of the DNS check.
func DNSTimeout(timeout time.Duration) EmailOption {
	return func(o *EmailOptions) { o.DNSTimeout = timeout }
}

// SkipOnEmpty sets whether empty values are skipped. Defaults to true.
func SkipOnEmpty(skip bool) EmailOption {
	return func(o *EmailOptions) { o.SkipOnEmpty = skip }
}

// Message replaces the default validation message.
func Message(template string) EmailOption {
	return func(o *EmailOptions) { o.Message = template }
}

// WithConverter replaces the IDN converter. Doesn't enable IDN by itself.
func WithConverter(converter mailaddr.Converter) EmailOption {
	return func(o *EmailOptions) { o.Converter = converter }
}

// WithLogger sets the logger used when the validator is called directly with `Check()`.
func WithLogger(logger *slog.Logger) EmailOption {
	return func(o *EmailOptions) { o.Logger = logger }
}

// EmailValidator the field under validation must be a string containing a
// valid email address.
//
// The validator is immutable and safe for concurrent use.
type EmailValidator struct {
	BaseValidator
	options EmailOptions
}

// Email the field under validation must be a string containing a valid email address.
//
// Panics if the DNS check is enabled without resolver.
func Email(opts ...EmailOption) *EmailValidator {
	options := EmailOptions{
		SkipOnEmpty: true,
		DNSTimeout:  DefaultDNSTimeout,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.EnableIDN && options.Converter == nil {
		options.Converter = idn.Default
	}
	if options.CheckDNS && options.Resolver == nil {
		panic(errors.NewSkip("email validator: DNS check enabled without resolver", 3))
	}
	return &EmailValidator{options: options}
}

// Name returns the string name of the validator.
func (v *EmailValidator) Name() string { return "email" }

// SkipOnEmpty returns true if empty values are not validated.
func (v *EmailValidator) SkipOnEmpty() bool { return v.options.SkipOnEmpty }

// CustomMessage returns the message template given with the `Message` option.
func (v *EmailValidator) CustomMessage() string { return v.options.Message }

// Options returns a copy of the validator's options.
func (v *EmailValidator) Options() EmailOptions {
	return v.options
}

// Validate checks the field under validation satisfies this validator's criteria.
// Resolver failures are reported with `Context.AddError()`.
func (v *EmailValidator) Validate(ctx *Context) bool {
	logger := ctx.logger()
	if logger == nil {
		logger = v.options.Logger
	}
	reason, err := v.check(ctx.Context(), ctx.Value, logger)
	if err != nil {
		ctx.AddError(err)
		return false
	}
	return reason == EmailValid
}

// Check validates the given value and returns the reason why it was
// rejected, or `EmailValid`.
//
// Rejected values are never errors. A non-nil error is only returned
// if the DNS check could not be performed (resolver failure), in which case
// the returned reason is `EmailDomainUnreachable`.
func (v *EmailValidator) Check(ctx context.Context, value any) (EmailReason, error) {
	return v.check(ctx, value, v.options.Logger)
}

func (v *EmailValidator) check(ctx context.Context, value any, logger *slog.Logger) (EmailReason, error) {
	str, ok := value.(string)
	if !ok {
		return EmailInvalidType, nil
	}

	opts := mailaddr.Options{AllowName: v.options.AllowName}
	if v.options.EnableIDN {
		opts.IDN = v.options.Converter
	}
	addr, err := mailaddr.Parse(str, opts)
	if err != nil {
		switch {
		case stderrors.Is(err, mailaddr.ErrTooLong):
			return EmailTooLong, nil
		case stderrors.Is(err, mailaddr.ErrIDNConversion):
			return EmailIDNConversionFailed, nil
		default:
			return EmailSyntaxError, nil
		}
	}

	if !v.options.CheckDNS {
		return EmailValid, nil
	}
	return v.checkDNS(ctx, addr.ASCIIDomain, logger)
}

// checkDNS looks for a MX record, falling back to A and AAAA records if there is none.
// A domain publishing only a null MX (RFC 7505) doesn't accept email.
// Timeouts are treated as unreachable domains.
func (v *EmailValidator) checkDNS(ctx context.Context, domain string, logger *slog.Logger) (EmailReason, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if v.options.DNSTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.options.DNSTimeout)
		defer cancel()
	}

	mx, err := v.options.Resolver.LookupMX(ctx, domain)
	switch {
	case err == nil:
		if isNullMX(mx.Records) {
			return EmailDomainUnreachable, nil
		}
		return EmailValid, nil
	case dns.IsTimeout(err):
		logTimeout(ctx, logger, "MX", domain)
		return EmailDomainUnreachable, nil
	case !dns.IsNotFound(err):
		return EmailDomainUnreachable, errors.Errorf("email validator: MX lookup failed: %w", err)
	}

	ips, err := v.options.Resolver.LookupIP(ctx, domain)
	switch {
	case err == nil:
		if len(ips.Records) == 0 {
			return EmailDomainUnreachable, nil
		}
		return EmailValid, nil
	case dns.IsNotFound(err):
		return EmailDomainUnreachable, nil
	case dns.IsTimeout(err):
		logTimeout(ctx, logger, "A/AAAA", domain)
		return EmailDomainUnreachable, nil
	default:
		return EmailDomainUnreachable, errors.Errorf("email validator: A/AAAA lookup failed: %w", err)
	}
}

func isNullMX(records []*net.MX) bool {
	if len(records) == 0 {
		return false
	}
	for _, mx := range records {
		if mx.Host != "." && mx.Host != "" {
			return false
		}
	}
	return true
}

func logTimeout(ctx context.Context, logger *slog.Logger, query, domain string) {
	if logger == nil {
		return
	}
	logger.WarnContext(ctx, "DNS lookup timed out, domain considered unreachable", "query", query, "domain", domain)
}
