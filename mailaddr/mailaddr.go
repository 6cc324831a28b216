// Package mailaddr implements the address grammar used by the email validator.
//
// Addresses are parsed by hand instead of with regular expressions so every
// rule that matters for header-injection defenses is an explicit check:
//
//   - the display name wrapper ("Name <local@domain>", "\"Name\" <local@domain>", "<local@domain>"),
//   - the split on the single "@" found outside double quotes,
//   - the local part, either a dot-atom or a restricted quoted string,
//   - the domain, with optional IDN conversion to its ASCII form,
//   - the octet length limits of RFC 5321.
//
// The package does no I/O. IDN conversion is delegated to a `Converter`.
package mailaddr

import (
	"unicode/utf8"
)

// Length limits, in octets.
const (
	MaxLocalPartLength = 64
	MaxAddressLength   = 254
	MaxDomainLength    = 255
	MaxLabelLength     = 63
)

// Converter transforms internationalized parts of an address to their
// ASCII-compatible encoding.
type Converter interface {
	// ToASCII converts a domain to its ASCII form (punycode A-labels).
	ToASCII(domain string) (string, error)

	// LocalToASCII encodes a non-ASCII local part so it can be checked
	// against the dot-atom grammar.
	LocalToASCII(local string) (string, error)
}

// Options of the parser. The zero value only accepts bare ASCII addresses.
type Options struct {
	// IDN enables internationalized domains and local parts. Nil disables them.
	IDN Converter

	// AllowName accepts the "Name <local@domain>" forms.
	AllowName bool
}

// Address the decomposed view of a valid address.
type Address struct {
	// DisplayName the decoded display name, empty if there was none.
	DisplayName string

	// LocalPart as written in the input.
	LocalPart string

	// Domain as written in the input.
	Domain string

	// ASCIIDomain the domain after IDN conversion. Equal to Domain
	// if the domain was already ASCII.
	ASCIIDomain string
}

// String returns the bare address, using the ASCII form of the domain.
func (a *Address) String() string {
	return a.LocalPart + "@" + a.ASCIIDomain
}

// Parse checks the given string and returns its decomposition if it is a
// valid address. The returned error is always a `*Error` describing why the
// input was rejected.
func Parse(s string, opts Options) (*Address, error) {
	if !utf8.ValidString(s) {
		return nil, syntaxError(PartAddress, "invalid UTF-8")
	}

	addrSpec := s
	name := ""
	if opts.AllowName {
		n, inner, matched, err := splitDisplayName(s)
		if err != nil {
			return nil, err
		}
		if matched {
			name, addrSpec = n, inner
		}
	}

	local, domain, err := splitAddrSpec(addrSpec)
	if err != nil {
		return nil, err
	}

	if err := checkLocalPart(local, opts.IDN); err != nil {
		return nil, err
	}

	asciiDomain, err := checkDomain(domain, opts.IDN)
	if err != nil {
		return nil, err
	}

	if len(local) > MaxLocalPartLength {
		return nil, &Error{Kind: KindTooLong, Part: PartLocal, Message: "local part exceeds 64 octets"}
	}
	if len(local)+1+len(asciiDomain) > MaxAddressLength {
		return nil, &Error{Kind: KindTooLong, Part: PartAddress, Message: "address exceeds 254 octets"}
	}

	return &Address{
		DisplayName: name,
		LocalPart:   local,
		Domain:      domain,
		ASCIIDomain: asciiDomain,
	}, nil
}

// splitAddrSpec splits the address on the only "@" outside double quotes.
func splitAddrSpec(s string) (string, string, error) {
	at := -1
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case inQuote && c == '\\':
			i++
		case c == '"':
			inQuote = !inQuote
		case !inQuote && c == '@':
			if at != -1 {
				return "", "", syntaxError(PartAddress, "more than one \"@\"")
			}
			at = i
		}
	}
	if inQuote {
		return "", "", syntaxError(PartAddress, "unterminated quoted string")
	}
	if at == -1 {
		return "", "", syntaxError(PartAddress, "missing \"@\"")
	}
	return s[:at], s[at+1:], nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
