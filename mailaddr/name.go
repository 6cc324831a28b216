package mailaddr

import (
	"strings"
	"unicode"

	"github.com/Code-Hex/uniseg"
)

// Punctuation accepted in unquoted display names, in addition to letters,
// digits and spaces.
const namePunctuation = ".,'-_!#$%&*+/=?^`{|}~"

// splitDisplayName recognizes the name-addr forms:
//
//	<local@domain>
//	Name <local@domain>
//	"Quoted Name" <local@domain>
//
// matched is false when the input is not in one of these forms, in which case
// the caller checks it as a bare address. An error is returned when the input
// is in a name-addr form but the name itself is rejected.
func splitDisplayName(s string) (name string, addrSpec string, matched bool, err error) {
	if !strings.HasSuffix(s, ">") {
		return "", "", false, nil
	}

	var open int
	switch {
	case strings.HasPrefix(s, "<"):
		open = 0
	case strings.HasPrefix(s, `"`):
		end, decoded, err := scanQuotedName(s)
		if err != nil {
			return "", "", false, err
		}
		open = end + len(s[end:]) - len(strings.TrimLeft(s[end:], " "))
		if open >= len(s) || s[open] != '<' {
			return "", "", false, nil
		}
		name = decoded
	default:
		open = strings.IndexByte(s, '<')
		if open == -1 {
			return "", "", false, nil
		}
		name = strings.TrimRight(s[:open], " ")
		if err := checkUnquotedName(name); err != nil {
			return "", "", false, err
		}
	}

	addrSpec = s[open+1 : len(s)-1]
	if strings.ContainsAny(addrSpec, "<>") {
		return "", "", false, syntaxError(PartAddress, "unexpected angle bracket")
	}
	return name, addrSpec, true, nil
}

// scanQuotedName reads the quoted display name starting at s[0].
// It returns the index following the closing quote and the decoded name.
//
// A name whose decoded content ends with a backslash is rejected: a parser
// that ignores escapes would see the closing quote one character earlier.
// Names cannot contain "@", "<" or ">", escaped or not, so a parser truncating
// the name at an escaped quote never finds another address in it.
func scanQuotedName(s string) (int, string, error) {
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\':
			if i+1 >= len(s) {
				return 0, "", syntaxError(PartName, "unterminated quoted name")
			}
			next := s[i+1]
			if isControl(next) {
				return 0, "", syntaxError(PartName, "escaped control character")
			}
			b.WriteByte(next)
			i++
		case c == '"':
			decoded := b.String()
			if strings.HasSuffix(decoded, `\`) {
				return 0, "", syntaxError(PartName, "quoted name ends with a backslash")
			}
			if strings.ContainsAny(decoded, "@<>") {
				return 0, "", syntaxError(PartName, "quoted name contains an address delimiter")
			}
			return i + 1, decoded, nil
		case isControl(c):
			return 0, "", syntaxError(PartName, "control character")
		default:
			b.WriteByte(c)
		}
	}
	return 0, "", syntaxError(PartName, "unterminated quoted name")
}

// checkUnquotedName accepts letters, digits, spaces and a limited set of
// punctuation. Every character of a grapheme cluster must be accepted, so
// decomposed forms of accented letters and conjoining jamo pass while a
// letter followed by a joiner or a variation selector does not.
func checkUnquotedName(name string) error {
	if name == "" {
		return syntaxError(PartName, "empty display name")
	}
	if name[0] == ' ' {
		return syntaxError(PartName, "leading space")
	}

	g := uniseg.NewGraphemes(name)
	for g.Next() {
		runes := g.Runes()
		if !isNameRune(runes[0]) {
			return syntaxError(PartName, "character not allowed in unquoted name")
		}
		for _, r := range runes[1:] {
			if r == ' ' || !isNameRune(r) {
				return syntaxError(PartName, "character not allowed in unquoted name")
			}
		}
	}
	return nil
}

func isNameRune(r rune) bool {
	return r == ' ' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.M, r) ||
		(r < 0x80 && strings.ContainsRune(namePunctuation, r))
}

func isControl(c byte) bool {
	return c < 0x20 || c == 0x7f
}
