package config

import (
	"fmt"
	"reflect"
	"slices"

	"goyave.dev/mailcheck/util/errors"
)

var configDefaults = object{
	"app": object{
		"name":            &Entry{Value: "mailcheck", AuthorizedValues: []any{}, Type: reflect.String},
		"environment":     &Entry{Value: "localhost", AuthorizedValues: []any{}, Type: reflect.String},
		"debug":           &Entry{Value: false, AuthorizedValues: []any{}, Type: reflect.Bool},
		"defaultLanguage": &Entry{Value: "en-US", AuthorizedValues: []any{}, Type: reflect.String},
	},
}

// Register a new config entry and its validation.
//
// Each module should register its config entries in an "init()"
// function, even if they don't have a default value, in order to
// ensure they will be validated.
// Each module should use its own category and use a name both expressive
// and unique to avoid collisions.
// For example, the "dns" package registers, among others, "dns.timeout"
// and "dns.nameservers".
//
// Panics if the entry conflicts with an existing entry or category.
func Register(key string, entry Entry) {
	category, entryKey, exists := walk(configDefaults, key)
	if exists {
		panic(errors.NewSkip(fmt.Errorf("config entry %q is already registered", key), 3))
	}
	category[entryKey] = &entry
}

func loadDefaults(src object, dst object) {
	for k, v := range src {
		if obj, ok := v.(object); ok {
			sub := make(object, len(obj))
			loadDefaults(obj, sub)
			dst[k] = sub
			continue
		}
		entry := v.(*Entry)
		value := entry.Value
		if t := reflect.TypeOf(value); t != nil && t.Kind() == reflect.Slice {
			value = cloneSlice(value)
		}
		dst[k] = &Entry{
			Value:            value,
			AuthorizedValues: slices.Clone(entry.AuthorizedValues),
			Type:             entry.Type,
			IsSlice:          entry.IsSlice,
		}
	}
}

func cloneSlice(value any) any {
	list := reflect.ValueOf(value)
	clone := reflect.MakeSlice(list.Type(), list.Len(), list.Len())
	reflect.Copy(clone, list)
	return clone.Interface()
}
