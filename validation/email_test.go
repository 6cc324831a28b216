package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"goyave.dev/mailcheck/config"
	"goyave.dev/mailcheck/dns"
	"goyave.dev/mailcheck/lang"
	"goyave.dev/mailcheck/mailaddr"
	"goyave.dev/mailcheck/slog"
)

func testResolver() dns.MockResolver {
	return dns.MockResolver{
		MX: map[string][]*net.MX{
			"gmail.com.":           {{Host: "gmail-smtp-in.l.google.com.", Pref: 5}},
			"example.com.":         {{Host: "mail.example.com.", Pref: 10}},
			"xn--rtliches-m4a.de.": {{Host: "mx.xn--rtliches-m4a.de.", Pref: 10}},
			"nullmx.example.org.":  {{Host: ".", Pref: 0}},
		},
		A: map[string][]string{
			"a-only.example.org.": {"192.0.2.1"},
		},
		AAAA: map[string][]string{
			"aaaa-only.example.org.": {"2001:db8::1"},
		},
		Fail:    []string{"mx servfail.example.org.", "a mx-missing-a-fail.example.org."},
		Timeout: []string{"mx slow.example.org.", "aaaa slow-ip.example.org."},
	}
}

func TestEmailValidator(t *testing.T) {
	t.Run("Constructor", func(t *testing.T) {
		v := Email()
		assert.NotNil(t, v)
		assert.Equal(t, "email", v.Name())
		assert.False(t, v.IsType())
		assert.False(t, v.IsTypeDependent())
		assert.Empty(t, v.MessagePlaceholders(&Context{}))
		assert.True(t, v.SkipOnEmpty())
		assert.Empty(t, v.CustomMessage())

		opts := v.Options()
		assert.False(t, opts.AllowName)
		assert.False(t, opts.EnableIDN)
		assert.False(t, opts.CheckDNS)
		assert.True(t, opts.SkipOnEmpty)
		assert.Equal(t, DefaultDNSTimeout, opts.DNSTimeout)
		assert.Nil(t, opts.Converter)
	})

	t.Run("Options_are_a_copy", func(t *testing.T) {
		v := Email()
		opts := v.Options()
		opts.AllowName = true
		assert.False(t, v.Options().AllowName)
	})

	t.Run("EnableIDN_default_converter", func(t *testing.T) {
		v := Email(EnableIDN())
		assert.NotNil(t, v.Options().Converter)
	})

	t.Run("CheckDNS_without_resolver", func(t *testing.T) {
		assert.Panics(t, func() {
			Email(CheckDNS(nil))
		})
	})

	cases := []struct {
		value any
		want  bool
	}{
		{value: "sam@rmcreative.ru", want: true},
		{value: "5011@gmail.com", want: true},
		{value: "Abc.123@example.com", want: true},
		{value: "user+mailbox/department=shipping@example.com", want: true},
		{value: "!#$%&'*+-/=?^_`.{|}~@example.com", want: true},
		{value: "firstName.x.lastName.-nd@example.com", want: true},
		{value: "rmcreative.ru", want: false},
		{value: "Carsten Brandt <mail@cebe.cc>", want: false},
		{value: `"Carsten Brandt" <mail@cebe.cc>`, want: false},
		{value: "<mail@cebe.cc>", want: false},
		{value: "info@örtliches.de", want: false},
		{value: "sam@рмкреатиф.ru", want: false},
		{value: "ex..ample@example.com", want: false},
		{value: []string{"developer@yiiframework.com"}, want: false},
		{value: []any{"developer@yiiframework.com"}, want: false},
		{value: &mail{"developer@yiiframework.com"}, want: false},
		{value: 2, want: false},
		{value: true, want: false},
		{value: nil, want: false},
	}

	for _, c := range cases {
		t.Run(fmt.Sprintf("Validate_%v_%t", c.value, c.want), func(t *testing.T) {
			v := Email()
			ctx := &Context{
				Value: c.value,
			}
			assert.Equal(t, c.want, v.Validate(ctx))
			assert.Equal(t, c.value, ctx.Value)
			assert.Empty(t, ctx.Errors())
		})
	}
}

type mail struct {
	address string
}

func (m *mail) String() string {
	return m.address
}

type checkCase struct {
	value any
	want  EmailReason
}

func runCheckCases(t *testing.T, v *EmailValidator, cases []checkCase) {
	for _, c := range cases {
		t.Run(fmt.Sprintf("Check_%v_%s", c.value, c.want), func(t *testing.T) {
			reason, err := v.Check(context.Background(), c.value)
			require.NoError(t, err)
			assert.Equal(t, c.want, reason)
		})
	}
}

func TestEmailValidatorCheck(t *testing.T) {
	t.Run("AllowName", func(t *testing.T) {
		runCheckCases(t, Email(AllowName()), []checkCase{
			{value: "sam@rmcreative.ru", want: EmailValid},
			{value: "rmcreative.ru", want: EmailSyntaxError},
			{value: "Carsten Brandt <mail@cebe.cc>", want: EmailValid},
			{value: `"Carsten Brandt" <mail@cebe.cc>`, want: EmailValid},
			{value: "<mail@cebe.cc>", want: EmailValid},
			{value: `"FirstName LastName" <firstName.x.lastName.-nd@example.com>`, want: EmailValid},
			{value: "info@örtliches.de", want: EmailSyntaxError},
			{value: "üñîçøðé@üñîçøðé.com", want: EmailSyntaxError},
			{value: "Informtation info@oertliches.de", want: EmailSyntaxError},
			{value: "John Smith <john.smith@example.com>", want: EmailValid},
			{value: `"This name is longer than 64 characters. Blah blah blah blah blah" <shortmail@example.com>`, want: EmailValid},
			{value: "John Smith <example.com>", want: EmailSyntaxError},
			{value: "Short Name <localPartMoreThan64Characters-blah-blah-blah-blah-blah-blah-blah-blah@example.com>", want: EmailTooLong},
			{value: []string{"developer@yiiframework.com"}, want: EmailInvalidType},
		})
	})

	t.Run("EnableIDN", func(t *testing.T) {
		runCheckCases(t, Email(EnableIDN()), []checkCase{
			{value: "5011@example.com", want: EmailValid},
			{value: "example@äüößìà.de", want: EmailValid},
			{value: "example@xn--zcack7ayc9a.de", want: EmailValid},
			{value: "info@örtliches.de", want: EmailValid},
			{value: "sam@рмкреатиф.ru", want: EmailValid},
			{value: "üñîçøðé@üñîçøðé.com", want: EmailValid},
			{value: "rmcreative.ru", want: EmailSyntaxError},
			{value: "Carsten Brandt <mail@cebe.cc>", want: EmailSyntaxError},
			{value: "<mail@cebe.cc>", want: EmailSyntaxError},
			{value: "a\u0085b@example.com", want: EmailSyntaxError},
			{value: "a\u202eb@example.com", want: EmailSyntaxError},
			{value: "a\u2028b@example.com", want: EmailSyntaxError},
			{value: "a\u00a0b@example.com", want: EmailSyntaxError},
			{value: "a\u3000b@example.com", want: EmailSyntaxError},
			{value: "\U0001F600@example.com", want: EmailSyntaxError},
		})

		runCheckCases(t, Email(EnableIDN(), AllowName()), []checkCase{
			{value: "Informtation <info@örtliches.de>", want: EmailValid},
			{value: "Informtation info@örtliches.de", want: EmailSyntaxError},
			{value: "üñîçøðé 日本国 <üñîçøðé@üñîçøðé.com>", want: EmailValid},
			{value: `"Такое имя достаточно длинное, но оно все равно может пройти валидацию" <shortmail@example.com>`, want: EmailValid},
			{value: "Короткое имя <после-преобразования-в-idn-тут-будет-больше-чем-64-символа@пример.com>", want: EmailTooLong},
		})
	})

	t.Run("IDN_conversion_failure", func(t *testing.T) {
		v := Email(EnableIDN(), WithConverter(failingConverter{}))
		runCheckCases(t, v, []checkCase{
			{value: "info@örtliches.de", want: EmailIDNConversionFailed},
			{value: "info@oertliches.de", want: EmailValid},
		})
	})

	t.Run("Length", func(t *testing.T) {
		v := Email()
		local := strings.Repeat("a", 64)
		runCheckCases(t, v, []checkCase{
			{value: local + "@example.com", want: EmailValid},
			{value: local + "a@example.com", want: EmailTooLong},
			{value: local + "@" + strings.Repeat("a", 63) + "." + strings.Repeat("b", 63) + "." + strings.Repeat("c", 57) + ".com", want: EmailValid},
			{value: local + "@" + strings.Repeat("a", 63) + "." + strings.Repeat("b", 63) + "." + strings.Repeat("c", 58) + ".com", want: EmailTooLong},
		})
	})

	t.Run("Case_insensitive", func(t *testing.T) {
		v := Email()
		for _, value := range []string{"USER@EXAMPLE.COM", "User@Example.Com", "user@example.com"} {
			reason, err := v.Check(context.Background(), value)
			require.NoError(t, err)
			assert.Equal(t, EmailValid, reason, value)
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		v := Email(AllowName(), EnableIDN())
		for _, value := range []string{"John <john@example.com>", "info@örtliches.de", "ex..ample@example.com"} {
			first, err := v.Check(context.Background(), value)
			require.NoError(t, err)
			second, err := v.Check(context.Background(), value)
			require.NoError(t, err)
			assert.Equal(t, first, second)
		}
	})
}

func TestEmailValidatorMalformed(t *testing.T) {
	malformed := []string{
		`"attacker\" -oQ/tmp/ -X/var/www/cache/phpcode.php "@email.com`,
		`"Attacker -Param2 -Param3"@test.com`,
		`'Attacker -Param2 -Param3'@test.com`,
		`"Attacker \" -Param2 -Param3"@test.com`,
		`'Attacker \' -Param2 -Param3'@test.com`,
		`"attacker\"\ -oQ/tmp/\ -X/var/www/cache/phpcode.php"@email.com`,
		"\"attacker\\\"\x00-oQ/tmp/\x00-X/var/www/cache/phpcode.php\"@email.com",
		`"attacker@cebe.cc\"-Xbeep"@email.com`,
		`'attacker\' -oQ/tmp/ -X/var/www/cache/phpcode.php'@email.com`,
		`'attacker\\' -oQ/tmp/ -X/var/www/cache/phpcode.php'@email.com`,
		`'attacker\\'\ -oQ/tmp/ -X/var/www/cache/phpcode.php'@email.com`,
		`'attacker\';touch /tmp/hackme'@email.com`,
		`'attacker\\';touch /tmp/hackme'@email.com`,
		`'attacker\';touch/tmp/hackme'@email.com`,
		`'attacker\\';touch/tmp/hackme'@email.com`,
	}

	for _, v := range []*EmailValidator{Email(), Email(EnableIDN())} {
		for _, value := range malformed {
			t.Run(fmt.Sprintf("%s_idn_%t", value, v.Options().EnableIDN), func(t *testing.T) {
				reason, err := v.Check(context.Background(), value)
				require.NoError(t, err)
				assert.Equal(t, EmailSyntaxError, reason)
			})
		}
	}
}

type failingConverter struct{}

func (failingConverter) ToASCII(_ string) (string, error) {
	return "", fmt.Errorf("malformed")
}

func (failingConverter) LocalToASCII(_ string) (string, error) {
	return "", fmt.Errorf("malformed")
}

var _ mailaddr.Converter = failingConverter{}

func TestEmailValidatorDNS(t *testing.T) {
	resolver := testResolver()

	t.Run("reasons", func(t *testing.T) {
		runCheckCases(t, Email(CheckDNS(resolver), AllowName()), []checkCase{
			{value: "5011@gmail.com", want: EmailValid},
			{value: "ipetrov@gmail.com", want: EmailValid},
			{value: "Ivan Petrov <ipetrov@gmail.com>", want: EmailValid},
			{value: "test@nonexistingsubdomain.example.com", want: EmailDomainUnreachable},
			{value: "test@a-only.example.org", want: EmailValid},
			{value: "test@aaaa-only.example.org", want: EmailValid},
			{value: "test@nullmx.example.org", want: EmailDomainUnreachable},
			{value: "test@slow.example.org", want: EmailDomainUnreachable},
			{value: "test@slow-ip.example.org", want: EmailDomainUnreachable},
			{value: "not an address", want: EmailSyntaxError},
		})
	})

	t.Run("without_check", func(t *testing.T) {
		reason, err := Email().Check(context.Background(), "test@nonexistingsubdomain.example.com")
		require.NoError(t, err)
		assert.Equal(t, EmailValid, reason)
	})

	t.Run("idn_domain_is_queried_in_ascii", func(t *testing.T) {
		reason, err := Email(CheckDNS(resolver), EnableIDN()).Check(context.Background(), "info@örtliches.de")
		require.NoError(t, err)
		assert.Equal(t, EmailValid, reason)
	})

	t.Run("resolver_failure", func(t *testing.T) {
		v := Email(CheckDNS(resolver))
		reason, err := v.Check(context.Background(), "test@servfail.example.org")
		require.Error(t, err)
		assert.True(t, dns.IsServFail(err))
		assert.Equal(t, EmailDomainUnreachable, reason)

		_, err = v.Check(context.Background(), "test@mx-missing-a-fail.example.org")
		require.Error(t, err)
		assert.True(t, dns.IsServFail(err))
	})

	t.Run("resolver_failure_in_validate", func(t *testing.T) {
		v := Email(CheckDNS(resolver))
		ctx := &Context{Value: "test@servfail.example.org"}
		assert.False(t, v.Validate(ctx))
		require.Len(t, ctx.Errors(), 1)
		assert.True(t, dns.IsServFail(ctx.Errors()[0]))
	})

	t.Run("timeout_is_logged", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := slog.New(slog.NewHandler(false, buf))
		v := Email(CheckDNS(resolver), WithLogger(logger))
		reason, err := v.Check(context.Background(), "test@slow.example.org")
		require.NoError(t, err)
		assert.Equal(t, EmailDomainUnreachable, reason)
		assert.Contains(t, buf.String(), "DNS lookup timed out")
		assert.Contains(t, buf.String(), `"domain":"slow.example.org"`)
	})

	t.Run("deadline", func(t *testing.T) {
		v := Email(CheckDNS(slowResolver{}), DNSTimeout(10*time.Millisecond))
		reason, err := v.Check(context.Background(), "test@example.com")
		require.NoError(t, err)
		assert.Equal(t, EmailDomainUnreachable, reason)
	})
}

// slowResolver blocks until the context is done.
type slowResolver struct{}

func (slowResolver) LookupMX(ctx context.Context, _ string) (dns.Result[*net.MX], error) {
	<-ctx.Done()
	return dns.Result[*net.MX]{}, dns.ErrDNSTimeout
}

func (slowResolver) LookupIP(ctx context.Context, _ string) (dns.Result[net.IP], error) {
	<-ctx.Done()
	return dns.Result[net.IP]{}, dns.ErrDNSTimeout
}

func TestEmailValidatorConcurrency(t *testing.T) {
	v := Email(AllowName(), EnableIDN(), CheckDNS(testResolver()))
	values := map[string]EmailReason{
		"5011@gmail.com":                     EmailValid,
		"Informtation <info@örtliches.de>":   EmailValid,
		"test@nullmx.example.org":            EmailDomainUnreachable,
		"ex..ample@example.com":              EmailSyntaxError,
		strings.Repeat("a", 65) + "@x.com":   EmailTooLong,
		"test@nonexistingsubdomain.test.com": EmailDomainUnreachable,
	}

	wg := sync.WaitGroup{}
	for i := 0; i < 20; i++ {
		for value, want := range values {
			wg.Add(1)
			go func() {
				defer wg.Done()
				reason, err := v.Check(context.Background(), value)
				assert.NoError(t, err)
				assert.Equal(t, want, reason, value)
			}()
		}
	}
	wg.Wait()
}

func TestEmailReason(t *testing.T) {
	cases := []struct {
		reason    EmailReason
		str       string
		langEntry string
	}{
		{reason: EmailValid, str: "valid", langEntry: "validation.rules.email"},
		{reason: EmailInvalidType, str: "invalid_type", langEntry: "validation.rules.email.invalid_type"},
		{reason: EmailSyntaxError, str: "syntax", langEntry: "validation.rules.email.syntax"},
		{reason: EmailTooLong, str: "too_long", langEntry: "validation.rules.email.too_long"},
		{reason: EmailDomainUnreachable, str: "domain_unreachable", langEntry: "validation.rules.email.domain_unreachable"},
		{reason: EmailIDNConversionFailed, str: "idn_conversion", langEntry: "validation.rules.email.idn_conversion"},
	}

	language := lang.New().GetDefault()
	for _, c := range cases {
		t.Run(c.str, func(t *testing.T) {
			assert.Equal(t, c.str, c.reason.String())
			assert.Equal(t, c.langEntry, c.reason.LangEntry())
			assert.NotEqual(t, c.langEntry, language.Get(c.langEntry))

			text, err := c.reason.MarshalText()
			require.NoError(t, err)
			assert.Equal(t, c.str, string(text))
		})
	}
	assert.Equal(t, "unknown", EmailReason(-1).String())
}

func TestEmailClientOptions(t *testing.T) {
	language := lang.New().GetDefault()

	t.Run("default", func(t *testing.T) {
		opts := Email().ClientOptions(language, "email")
		assert.Equal(t, ClientOptions{
			Pattern:     mailaddr.Pattern,
			FullPattern: mailaddr.FullPattern,
			Message:     "The email address must be a valid email address.",
			AllowName:   false,
			EnableIDN:   false,
			SkipOnEmpty: true,
		}, opts)

		raw, err := json.Marshal(opts)
		require.NoError(t, err)
		var payload map[string]any
		require.NoError(t, json.Unmarshal(raw, &payload))
		for _, key := range []string{"pattern", "fullPattern", "allowName", "enableIDN", "message", "skipOnEmpty"} {
			assert.Contains(t, payload, key)
		}
		assert.NotContains(t, payload, "idnPattern")
		assert.Equal(t, false, payload["allowName"])
		assert.Equal(t, false, payload["enableIDN"])
	})

	t.Run("without_skip_on_empty", func(t *testing.T) {
		opts := Email(SkipOnEmpty(false)).ClientOptions(language, "email")
		assert.False(t, opts.SkipOnEmpty)

		raw, err := json.Marshal(opts)
		require.NoError(t, err)
		var payload map[string]any
		require.NoError(t, json.Unmarshal(raw, &payload))
		assert.NotContains(t, payload, "skipOnEmpty")
	})

	t.Run("idn", func(t *testing.T) {
		opts := Email(EnableIDN(), AllowName()).ClientOptions(language, "email")
		assert.True(t, opts.EnableIDN)
		assert.True(t, opts.AllowName)
		assert.Equal(t, mailaddr.IDNPattern, opts.IDNPattern)
	})

	t.Run("flags", func(t *testing.T) {
		for _, allowName := range []bool{false, true} {
			for _, enableIDN := range []bool{false, true} {
				for _, skipOnEmpty := range []bool{false, true} {
					options := []EmailOption{SkipOnEmpty(skipOnEmpty), Message("Invalid :field.")}
					if allowName {
						options = append(options, AllowName())
					}
					if enableIDN {
						options = append(options, EnableIDN())
					}
					opts := Email(options...).ClientOptions(language, "email")
					assert.Equal(t, allowName, opts.AllowName)
					assert.Equal(t, enableIDN, opts.EnableIDN)
					assert.Equal(t, skipOnEmpty, opts.SkipOnEmpty)
					assert.Equal(t, "Invalid email address.", opts.Message)
				}
			}
		}
	})

	t.Run("custom_message", func(t *testing.T) {
		opts := Email(Message(":field is not a valid email address.")).ClientOptions(nil, "contact")
		assert.Equal(t, "contact is not a valid email address.", opts.Message)
	})

	t.Run("default_message_is_set", func(t *testing.T) {
		assert.NotEmpty(t, Email().ClientOptions(nil, "attr_email").Message)
		assert.NotEmpty(t, Email().Message(language, "attr_email"))
	})
}

func TestEmailFromConfig(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		v, err := EmailFromConfig(config.LoadDefault(), nil)
		require.NoError(t, err)
		opts := v.Options()
		assert.False(t, opts.AllowName)
		assert.False(t, opts.EnableIDN)
		assert.False(t, opts.CheckDNS)
		assert.True(t, opts.SkipOnEmpty)
		assert.Empty(t, opts.Message)
		assert.Equal(t, 5*time.Second, opts.DNSTimeout)
	})

	t.Run("configured", func(t *testing.T) {
		cfg, err := config.LoadJSON(`{"validation": {"email": {
			"allowName": true,
			"enableIDN": true,
			"checkDNS": true,
			"skipOnEmpty": false,
			"message": "Invalid :field",
			"dnsTimeout": 2
		}}}`)
		require.NoError(t, err)

		resolver := testResolver()
		v, err := EmailFromConfig(cfg, resolver)
		require.NoError(t, err)
		opts := v.Options()
		assert.True(t, opts.AllowName)
		assert.True(t, opts.EnableIDN)
		assert.True(t, opts.CheckDNS)
		assert.False(t, opts.SkipOnEmpty)
		assert.Equal(t, "Invalid :field", opts.Message)
		assert.Equal(t, 2*time.Second, opts.DNSTimeout)
		assert.NotNil(t, opts.Converter)
		assert.Equal(t, resolver, opts.Resolver)
	})

	t.Run("resolver_from_config", func(t *testing.T) {
		cfg := config.LoadDefault()
		cfg.Set("validation.email.checkDNS", true)
		cfg.Set("dns.driver", "std")
		v, err := EmailFromConfig(cfg, nil)
		require.NoError(t, err)
		assert.IsType(t, &dns.StdResolver{}, v.Options().Resolver)
	})

	t.Run("invalid_dns_config", func(t *testing.T) {
		cfg := config.LoadDefault()
		cfg.Set("validation.email.checkDNS", true)
		cfg.Set("dns.timeout", -1)
		_, err := EmailFromConfig(cfg, nil)
		assert.Error(t, err)
	})

	t.Run("extra_options", func(t *testing.T) {
		v, err := EmailFromConfig(config.LoadDefault(), nil, AllowName())
		require.NoError(t, err)
		assert.True(t, v.Options().AllowName)
	})
}
