package mailaddr

import (
	"strings"
)

// checkDomain validates the domain and returns its ASCII form.
// The raw length limit applies before IDN conversion, the label grammar after.
func checkDomain(domain string, idn Converter) (string, error) {
	if domain == "" {
		return "", syntaxError(PartDomain, "empty domain")
	}
	if len(domain) > MaxDomainLength {
		return "", syntaxError(PartDomain, "domain exceeds 255 octets")
	}

	ascii := domain
	if !isASCII(domain) {
		if idn == nil {
			return "", syntaxError(PartDomain, "non-ASCII characters")
		}
		converted, err := idn.ToASCII(domain)
		if err != nil {
			return "", &Error{Kind: KindIDNConversion, Part: PartDomain, Message: "malformed internationalized domain", Err: err}
		}
		ascii = converted
	}

	labels := strings.Split(ascii, ".")
	if len(labels) < 2 {
		return "", syntaxError(PartDomain, "domain must have at least two labels")
	}
	for _, label := range labels {
		if err := checkLabel(label); err != nil {
			return "", err
		}
	}
	if !isTLD(labels[len(labels)-1]) {
		return "", syntaxError(PartDomain, "invalid top-level label")
	}
	return ascii, nil
}

func checkLabel(label string) error {
	switch {
	case label == "":
		return syntaxError(PartDomain, "empty label")
	case len(label) > MaxLabelLength:
		return syntaxError(PartDomain, "label exceeds 63 octets")
	case label[0] == '-' || label[len(label)-1] == '-':
		return syntaxError(PartDomain, "label starts or ends with a hyphen")
	}
	for i := 0; i < len(label); i++ {
		if !isLetterDigit(label[i]) && label[i] != '-' {
			return syntaxError(PartDomain, "character not allowed in label")
		}
	}
	return nil
}

// isTLD the last label is alphabetic or an IDN A-label.
func isTLD(label string) bool {
	if len(label) > 4 && strings.EqualFold(label[:4], "xn--") {
		return true
	}
	for i := 0; i < len(label); i++ {
		if !isLetter(label[i]) {
			return false
		}
	}
	return true
}

func isLetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isLetterDigit(c byte) bool {
	return isLetter(c) || '0' <= c && c <= '9'
}
