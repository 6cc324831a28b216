package mailaddr

import "unicode"

func checkLocalPart(local string, idn Converter) error {
	if local == "" {
		return syntaxError(PartLocal, "empty local part")
	}
	if local[0] == '"' {
		return checkQuotedLocalPart(local)
	}

	ascii := local
	if !isASCII(local) {
		if idn == nil {
			return syntaxError(PartLocal, "non-ASCII characters")
		}
		for _, r := range local {
			if !isIDNLocalRune(r) {
				return syntaxError(PartLocal, "character not allowed in internationalized local part")
			}
		}
		encoded, err := idn.LocalToASCII(local)
		if err != nil {
			return &Error{Kind: KindIDNConversion, Part: PartLocal, Message: "cannot encode local part", Err: err}
		}
		ascii = encoded
	}
	return checkDotAtom(ascii)
}

// checkDotAtom atoms separated by single dots, no leading or trailing dot.
func checkDotAtom(s string) error {
	atomLen := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '.' {
			if atomLen == 0 {
				return syntaxError(PartLocal, "misplaced dot")
			}
			atomLen = 0
			continue
		}
		if !isAtext(c) {
			return syntaxError(PartLocal, "character not allowed in local part")
		}
		atomLen++
	}
	if atomLen == 0 {
		return syntaxError(PartLocal, "misplaced dot")
	}
	return nil
}

// checkQuotedLocalPart only accepts quoted strings made of printable ASCII
// without space, quote or backslash. Escapes are refused entirely so the
// closing quote is always the first quote after the opening one, whatever
// the parser reading the address later.
func checkQuotedLocalPart(local string) error {
	if len(local) < 3 || local[len(local)-1] != '"' {
		return syntaxError(PartLocal, "malformed quoted string")
	}
	for i := 1; i < len(local)-1; i++ {
		c := local[i]
		if c <= ' ' || c == '"' || c == '\\' || c >= 0x7f {
			return syntaxError(PartLocal, "character not allowed in quoted local part")
		}
	}
	return nil
}

func isAtext(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '/', '=', '?', '^', '_', '`', '{', '|', '}', '~':
		return true
	}
	return false
}

// isIDNLocalRune reports whether r may appear in an internationalized
// dot-atom: ASCII atext, dots, and Unicode letters, numbers and marks.
// Spaces, separators, format characters (bidi controls) and symbols are
// rejected before the local part is encoded.
func isIDNLocalRune(r rune) bool {
	if r < 0x80 {
		return r == '.' || isAtext(byte(r))
	}
	return unicode.In(r, unicode.L, unicode.N, unicode.M)
}
