package config

import (
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"goyave.dev/mailcheck/util/errors"
)

// Entry is the internal representation of a config entry.
// It contains the entry value, its expected type and the values
// it is allowed to take. An empty `AuthorizedValues` accepts any value
// of the correct type.
//
// For slice entries (`IsSlice`), `Type` is the kind of the elements and
// the authorized values apply to each element.
type Entry struct {
	Value            any
	AuthorizedValues []any // Leave empty for "any"
	Type             reflect.Kind
	IsSlice          bool
}

// envParsers convert the value of an environment variable referenced
// by an entry ("${VAR}") to the entry's type.
var envParsers = map[reflect.Kind]func(string) (any, error){
	reflect.Int: func(s string) (any, error) {
		return strconv.Atoi(strings.TrimSpace(s))
	},
	reflect.Float64: func(s string) (any, error) {
		return strconv.ParseFloat(strings.TrimSpace(s), 64)
	},
	reflect.Bool: func(s string) (any, error) {
		return strconv.ParseBool(strings.TrimSpace(s))
	},
}

func makeEntryFromValue(value any) *Entry {
	entry := &Entry{Value: value, AuthorizedValues: []any{}}
	t := reflect.TypeOf(value)
	if t == nil {
		return entry
	}
	entry.Type = t.Kind()
	if entry.Type == reflect.Slice {
		entry.Type = t.Elem().Kind()
		entry.IsSlice = true
	}
	return entry
}

func (e *Entry) validate(key string) error {
	if err := e.substituteEnv(key); err != nil {
		return err
	}

	t := reflect.TypeOf(e.Value)
	if t == nil || e.Type == reflect.Invalid {
		return nil // Unset or untyped entry
	}
	kind := t.Kind()
	if e.IsSlice && kind == reflect.Slice {
		kind = t.Elem().Kind()
	}
	if kind != e.Type && !e.convert(kind) {
		if e.IsSlice {
			return errors.Errorf("%q must be a slice of %s", key, e.Type)
		}
		return errors.Errorf("%q type must be %s", key, e.Type)
	}

	if len(e.AuthorizedValues) == 0 {
		return nil
	}
	values := []any{e.Value}
	if e.IsSlice {
		list := reflect.ValueOf(e.Value)
		values = make([]any, 0, list.Len())
		for i := range list.Len() {
			values = append(values, list.Index(i).Interface())
		}
	}
	if _, unauthorized := lo.Find(values, func(v any) bool { return !lo.Contains(e.AuthorizedValues, v) }); unauthorized {
		if e.IsSlice {
			return errors.Errorf("%q elements must have one of the following values: %v", key, e.AuthorizedValues)
		}
		return errors.Errorf("%q must have one of the following values: %v", key, e.AuthorizedValues)
	}
	return nil
}

// convert the values decoded from JSON to the entry type: numbers are
// decoded as float64 and arrays as []any.
func (e *Entry) convert(kind reflect.Kind) bool {
	if !e.IsSlice {
		if kind != reflect.Float64 || e.Type != reflect.Int {
			return false
		}
		i, ok := toInt(e.Value)
		if ok {
			e.Value = i
		}
		return ok
	}

	list, isList := e.Value.([]any)
	if !isList {
		return false
	}
	var converted any
	ok := false
	switch e.Type {
	case reflect.Int:
		converted, ok = convertSlice(list, toInt)
	case reflect.Float64:
		converted, ok = convertSlice(list, assertType[float64])
	case reflect.String:
		converted, ok = convertSlice(list, assertType[string])
	case reflect.Bool:
		converted, ok = convertSlice(list, assertType[bool])
	}
	if ok {
		e.Value = converted
	}
	return ok
}

func assertType[T any](value any) (T, bool) {
	v, ok := value.(T)
	return v, ok
}

func convertSlice[T any](slice []any, convert func(any) (T, bool)) ([]T, bool) {
	result := make([]T, 0, len(slice))
	for _, v := range slice {
		value, ok := convert(v)
		if !ok {
			return nil, false
		}
		result = append(result, value)
	}
	return result, true
}

func toInt(value any) (int, bool) {
	switch val := value.(type) {
	case int:
		return val, true
	case float64:
		if i := int(val); val == float64(i) {
			return i, true
		}
	}
	return 0, false
}

// substituteEnv replaces a "${VAR}" value with the content of the
// environment variable VAR converted to the entry type.
// Slice entries are read as a comma-separated list, so a list of
// nameservers can be given as "${DNS_NAMESERVERS}".
func (e *Entry) substituteEnv(key string) error {
	str, ok := e.Value.(string)
	if !ok || !strings.HasPrefix(str, "${") || !strings.HasSuffix(str, "}") {
		return nil
	}

	varName := str[2 : len(str)-1]
	value, set := os.LookupEnv(varName)
	if !set {
		return errors.Errorf("%q: %q environment variable is not set", key, varName)
	}

	if !e.IsSlice {
		v, err := e.parseEnv(value)
		if err != nil {
			return errors.Errorf("%q could not be converted to %s from environment variable %q of value %q", key, e.Type, varName, value)
		}
		e.Value = v
		return nil
	}

	elements := lo.Compact(lo.Map(strings.Split(value, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))
	list := make([]any, 0, len(elements))
	for _, element := range elements {
		v, err := e.parseEnv(element)
		if err != nil {
			return errors.Errorf("%q elements could not be converted to %s from environment variable %q of value %q", key, e.Type, varName, value)
		}
		list = append(list, v)
	}
	e.Value = list
	return nil
}

func (e *Entry) parseEnv(value string) (any, error) {
	parse, ok := envParsers[e.Type]
	if !ok {
		// Keep value as string if type is not supported and let validation do its job
		return value, nil
	}
	return parse(value)
}
