package mailaddr

// Regular expressions mirroring the grammar, for client-side implementations
// (they are valid in both RE2 and ECMAScript with the "u" flag). They do not
// enforce the length limits: the server-side `Parse` remains authoritative.
const (
	atext         = "a-zA-Z0-9!#$%&'*+/=?^_`{|}~-"
	localPattern  = "(?:[" + atext + "]+(?:\\.[" + atext + "]+)*|\"[\\x21\\x23-\\x5b\\x5d-\\x7e]+\")"
	labelPattern  = `[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?`
	tldPattern    = `(?:[a-zA-Z]{1,63}|[xX][nN]--[a-zA-Z0-9-]{1,59})`
	domainPattern = `(?:` + labelPattern + `\.)+` + tldPattern

	// Unquoted names: letters, decimal digits, marks and the name
	// punctuation, with inner spaces.
	nameChars       = "\\p{L}\\p{Nd}\\p{M}.,'\\-_!#$%&*+/=?^`{|}~"
	unquotedPattern = "[" + nameChars + "][ " + nameChars + "]*"
	// Quoted names: no control character nor address delimiter, escaped or
	// not, and no escaped backslash right before the closing quote.
	quotedChar    = `[^"\\@<>\x00-\x1f\x7f]`
	quotedEscape  = `\\[^@<>\x00-\x1f\x7f]`
	quotedPattern = `"(?:(?:` + quotedChar + `|` + quotedEscape + `)*(?:` + quotedChar + `|\\[^\\@<>\x00-\x1f\x7f]))?"`
	namePattern   = `(?:` + unquotedPattern + `|` + quotedPattern + `)`

	idnLocalPattern  = "[\\p{L}\\p{N}\\p{M}" + atext + "]+(?:\\.[\\p{L}\\p{N}\\p{M}" + atext + "]+)*"
	idnLabelPattern  = `[\p{L}\p{N}](?:[\p{L}\p{N}\p{M}-]{0,61}[\p{L}\p{N}\p{M}])?`
	idnDomainPattern = `(?:` + idnLabelPattern + `\.)+` + idnLabelPattern

	// Pattern matches a bare ASCII address.
	Pattern = `^` + localPattern + `@` + domainPattern + `$`

	// FullPattern matches an ASCII address wrapped in angle brackets,
	// optionally preceded by a display name.
	FullPattern = `^(?:` + namePattern + ` *)?<` + localPattern + `@` + domainPattern + `>$`

	// IDNPattern matches a bare address whose local part and domain labels
	// may contain Unicode letters. ECMAScript requires the "u" flag.
	IDNPattern = `^` + idnLocalPattern + `@` + idnDomainPattern + `$`
)
