package lang

var enUS = &Language{
	name: "en-US",
	lines: map[string]string{
		"malformed-request": "Malformed request",
		"check.valid":       "valid",
		"check.invalid":     "invalid",
	},
	validation: validationLines{
		rules: map[string]string{
			"required":                 "The :field is required.",
			"email":                    "The :field must be a valid email address.",
			"email.invalid_type":       "The :field must be a single text value.",
			"email.syntax":             "The :field must be a valid email address.",
			"email.too_long":           "The :field is too long to be an email address.",
			"email.domain_unreachable": "The :field domain does not accept email.",
			"email.idn_conversion":     "The :field domain name is malformed.",
		},
		fields: map[string]string{
			"email": "email address",
		},
	},
}
