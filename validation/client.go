package validation

import (
	"goyave.dev/copier"
	"goyave.dev/mailcheck/lang"
	"goyave.dev/mailcheck/mailaddr"
	"goyave.dev/mailcheck/util/errors"
)

// ClientOptions the description of an `EmailValidator` needed to
// implement the same check in another runtime, such as a browser.
//
// The flags are copied from the `EmailOptions`. The patterns and the
// translated message are computed.
type ClientOptions struct {
	Pattern     string `json:"pattern" copier:"-"`
	FullPattern string `json:"fullPattern" copier:"-"`
	IDNPattern  string `json:"idnPattern,omitempty" copier:"-"`
	Message     string `json:"message" copier:"-"`
	AllowName   bool   `json:"allowName"`
	EnableIDN   bool   `json:"enableIDN"`
	SkipOnEmpty bool   `json:"skipOnEmpty,omitempty"`
}

// ClientOptions returns the client-side description of this validator for
// the given field. The message is translated in the given language, or
// in the default language if nil.
//
// "idnPattern" is only set if IDN is enabled. "skipOnEmpty" is omitted
// from the JSON representation if false.
func (v *EmailValidator) ClientOptions(language *lang.Language, field string) ClientOptions {
	var opts ClientOptions
	if err := copier.Copy(&opts, &v.options); err != nil {
		panic(errors.New(err))
	}
	opts.Pattern = mailaddr.Pattern
	opts.FullPattern = mailaddr.FullPattern
	if v.options.EnableIDN {
		opts.IDNPattern = mailaddr.IDNPattern
	}
	opts.Message = v.Message(language, field)
	return opts
}

// Message returns the validation message for the given field, using the
// template given with the `Message` option or the "validation.rules.email"
// language line. The default language is used if nil.
func (v *EmailValidator) Message(language *lang.Language, field string) string {
	if language == nil {
		language = lang.New().GetDefault()
	}
	fieldName := translateFieldName(language, field)
	if v.options.Message != "" {
		return lang.ProcessPlaceholders(v.options.Message, ":field", fieldName)
	}
	return language.Get("validation.rules.email", ":field", fieldName)
}
