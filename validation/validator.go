package validation

import (
	"context"
	"slices"
	"strings"

	"github.com/samber/lo"
	"goyave.dev/mailcheck/config"
	"goyave.dev/mailcheck/lang"
	"goyave.dev/mailcheck/slog"
	"goyave.dev/mailcheck/util/errors"
)

// Composable the accessors available to validators during a validation run.
// They give access to the Config, Language and Logger given through
// the validation `Options`.
type Composable interface {
	Config() *config.Config
	Lang() *lang.Language
	Logger() *slog.Logger
}

// Options all the parameters required by `Validate()`.
//
// Only `Data` and `Rules` are mandatory. The default language is used if
// `Language` is nil.
type Options struct {
	Data  map[string]any
	Rules RuleSet

	// Context of the validation run, passed to validators performing I/O.
	// `context.Background()` is used if nil.
	Context context.Context

	// Extra can be used to store any extra information. It is passed to each `Validator`
	// via the validation `Context`.
	//
	// The keys must be comparable and should not be of type
	// string or any other built-in type to avoid collisions.
	Extra    map[any]any
	Language *lang.Language
	Config   *config.Config
	Logger   *slog.Logger
}

// Context is a structure unique per `Validator.Validate()` execution containing
// all the data required by a validator.
type Context struct {
	Data map[string]any

	// Extra the map of Extra from the validation Options.
	Extra   map[any]any
	Value   any
	options *Options

	// The name of the field under validation
	Name string

	errors []error

	// Invalid is true if at least one validator prior to the current one didn't pass
	// on the field under validation. This field is readonly.
	Invalid bool
}

var _ Composable = (*Context)(nil)

// Context returns the context of the validation run.
func (c *Context) Context() context.Context {
	if c.options == nil || c.options.Context == nil {
		return context.Background()
	}
	return c.options.Context
}

// Config get the configuration given through the validation Options.
// Panics if there is none.
func (c *Context) Config() *config.Config {
	if c.options == nil || c.options.Config == nil {
		panic(errors.NewSkip("Config is not set in validation options", 3))
	}
	return c.options.Config
}

// Lang get the language given through the validation Options.
// Panics if there is none.
func (c *Context) Lang() *lang.Language {
	if c.options == nil || c.options.Language == nil {
		panic(errors.NewSkip("Language is not set in validation options", 3))
	}
	return c.options.Language
}

// Logger get the Logger given through the validation Options.
// Panics if there is none.
func (c *Context) Logger() *slog.Logger {
	if c.options == nil || c.options.Logger == nil {
		panic(errors.NewSkip("Logger is not set in validation options", 3))
	}
	return c.options.Logger
}

func (c *Context) logger() *slog.Logger {
	if c.options == nil {
		return nil
	}
	return c.options.Logger
}

// AddError adds an error to the validation context. This is NOT supposed
// to be used when the field under validation doesn't match the rule, but rather
// when there has been an operation error (such as a DNS resolver outage).
func (c *Context) AddError(err ...error) {
	for _, e := range err {
		c.errors = append(c.errors, errors.NewSkip(e, 3)) // Skipped: runtime.Callers, NewSkip, this func
	}
}

// Errors returns this validation context's errors.
// The errors returned are NOT validation errors but operation errors.
// Because each rule on each field has its own Context, the returned slice will only contain
// errors related to the current field and the current rule.
func (c *Context) Errors() []error {
	return c.errors
}

// Validate the given data using the given `Options`.
// If all validation rules pass and no error occurred, the first returned value will be `nil`.
//
// The second returned value is a slice of error that occurred during validation. These
// errors are not validation errors but error raised when a validator could not be executed correctly.
// For example if the DNS resolver used by a validator is unreachable.
//
// Fields are validated in lexical order. Empty fields (absent, nil, empty string or
// empty slice) are skipped by validators, unless the validator is `Required` or
// implements `EmptySkipper` and returns false.
//
// The `Options.Data` may be modified thanks to type rules.
func Validate(options *Options) (Errors, []error) {
	if options.Extra == nil {
		options.Extra = map[any]any{}
	}
	language := options.Language
	if language == nil {
		language = lang.New().GetDefault()
	}

	validationErrors := Errors{}
	faults := []error{}

	fields := lo.Keys(options.Rules)
	slices.Sort(fields)
	for _, field := range fields {
		value, found := options.Data[field]
		empty := isEmpty(value)
		valid := true
		for _, validator := range options.Rules[field] {
			if empty && skipsOnEmpty(validator) {
				continue
			}

			ctx := &Context{
				Data:    options.Data,
				Extra:   options.Extra,
				Value:   value,
				Name:    field,
				Invalid: !valid,
				options: options,
			}
			ok := validator.Validate(ctx)
			if len(ctx.errors) > 0 {
				valid = false
				faults = append(faults, ctx.errors...)
				continue
			}
			if !ok {
				valid = false
				validationErrors.Add(field, getMessage(language, ctx, validator))
				continue
			}
			value = ctx.Value
		}

		// Value may be modified (converting rule), replace it in the data
		if found {
			options.Data[field] = value
		}
	}

	if len(faults) != 0 {
		return nil, faults
	}
	if len(validationErrors) != 0 {
		return validationErrors, nil
	}
	return nil, nil
}

func skipsOnEmpty(validator Validator) bool {
	if _, ok := validator.(*RequiredValidator); ok {
		return false
	}
	if skipper, ok := validator.(EmptySkipper); ok {
		return skipper.SkipOnEmpty()
	}
	return true
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	}
	return false
}

func getMessage(language *lang.Language, ctx *Context, validator Validator) string {
	placeholders := append([]string{":field", translateFieldName(language, ctx.Name)}, validator.MessagePlaceholders(ctx)...)
	if custom, ok := validator.(CustomMessager); ok {
		if template := custom.CustomMessage(); template != "" {
			return lang.ProcessPlaceholders(template, placeholders...)
		}
	}
	langEntry := "validation.rules." + validator.Name()
	if validator.IsTypeDependent() {
		langEntry += "." + GetFieldType(ctx.Value)
	}
	return language.Get(langEntry, placeholders...)
}

// GetFieldName returns the localized name of the given field.
func GetFieldName(language *lang.Language, field string) string {
	return translateFieldName(language, field)
}

func translateFieldName(language *lang.Language, fieldName string) string {
	if i := strings.LastIndex(fieldName, "."); i != -1 {
		fieldName = fieldName[i+1:]
	}
	entry := "validation.fields." + fieldName
	name := language.Get(entry)
	if name == entry {
		return fieldName
	}
	return name
}
