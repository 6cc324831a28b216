// Package idn converts internationalized addresses to their ASCII-compatible
// encoding.
package idn

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/idna"
	"golang.org/x/text/unicode/norm"
	"goyave.dev/mailcheck/util/errors"
)

// Profile converts internationalized domains and local parts to ASCII.
// A Profile is safe for concurrent use.
type Profile struct {
	domain *idna.Profile
	local  *idna.Profile
}

// Default profile using UTS #46 non-transitional lookup processing with the
// Bidi rule for domains.
var Default = New()

// New create a new Profile.
func New() *Profile {
	return &Profile{
		domain: idna.New(
			idna.MapForLookup(),
			idna.BidiRule(),
			idna.Transitional(false),
		),
		local: idna.Punycode,
	}
}

// ToASCII converts the given domain to its A-label form.
// An error is returned if the domain is not a valid IDN.
func (p *Profile) ToASCII(domain string) (string, error) {
	ascii, err := p.domain.ToASCII(domain)
	if err != nil {
		return "", errors.New(err)
	}
	return ascii, nil
}

// LocalToASCII normalizes the given local part to NFC and encodes each
// dot-separated label containing non-ASCII characters with punycode. ASCII
// labels are left untouched so the result can still be checked against
// the dot-atom grammar.
//
// Non-ASCII labels may only contain letters, numbers, combining marks and
// ASCII characters. Controls, spaces, separators, bidi overrides and
// symbols are rejected.
func (p *Profile) LocalToASCII(local string) (string, error) {
	labels := strings.Split(norm.NFC.String(local), ".")
	for i, label := range labels {
		if isASCII(label) {
			continue
		}
		if j := strings.IndexFunc(label, isDisallowedLocalRune); j != -1 {
			r, _ := utf8.DecodeRuneInString(label[j:])
			return "", errors.Errorf("idna: disallowed rune %U in local part", r)
		}
		encoded, err := p.local.ToASCII(label)
		if err != nil {
			return "", errors.New(err)
		}
		labels[i] = encoded
	}
	return strings.Join(labels, "."), nil
}

func isDisallowedLocalRune(r rune) bool {
	if r < utf8.RuneSelf {
		return unicode.IsControl(r) || r == ' '
	}
	return !unicode.In(r, unicode.L, unicode.N, unicode.M)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
