package config

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"goyave.dev/mailcheck/util/errors"
)

type object map[string]any

type readFunc func(string) (object, error)

// Config structure holding a configuration that should be used for a single
// validation context (a CLI run, a service instance).
//
// This structure is not protected for safe concurrent access. Never use
// `Set()` while the configuration is read by running validators.
type Config struct {
	config object
}

// Error returned when the configuration could not
// be loaded or is invalid.
// Can be unwraped to get the original error.
type Error struct {
	err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("Config error: %s", e.err.Error())
}

func (e *Error) Unwrap() error {
	return e.err
}

// LoadDefault loads default config. Only the defaults registered with
// `Register()` and the built-in entries are used.
func LoadDefault() *Config {
	cfg := make(object, len(configDefaults))
	loadDefaults(configDefaults, cfg)
	return &Config{config: cfg}
}

// Load loads the config.json file in the current working directory.
// If the "GOYAVE_ENV" env variable is set, the config file will be picked like so:
//   - "production": "config.production.json"
//   - "test": "config.test.json"
//   - By default: "config.json"
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom loads a config file from the given path.
func LoadFrom(path string) (*Config, error) {
	return load(readConfigFile, path)
}

// LoadJSON load a configuration file from raw JSON. Can be used in combination with
// Go's embed directive.
//
//	//go:embed config.json
//	var cfgJSON string
//
//	cfg, err := config.LoadJSON(cfgJSON)
func LoadJSON(cfg string) (*Config, error) {
	return load(readString, cfg)
}

func load(readFunc readFunc, source string) (*Config, error) {
	config := make(object, len(configDefaults))
	loadDefaults(configDefaults, config)

	conf, err := readFunc(source)
	if err != nil {
		return nil, &Error{err}
	}

	if err := override(conf, config); err != nil {
		return nil, &Error{err}
	}

	if err := config.validate(""); err != nil {
		return nil, &Error{err}
	}

	return &Config{config: config}, nil
}

// Get a config entry. Panics if the entry doesn't exist.
func (c *Config) Get(key string) any {
	if val, ok := c.get(key); ok {
		return val
	}

	panic(errors.NewSkip(fmt.Errorf("config entry \"%s\" doesn't exist", key), 3))
}

func (c *Config) get(key string) (any, bool) {
	current := c.config
	parts := strings.Split(key, ".")
	for i, part := range parts {
		entry, ok := current[part]
		if !ok {
			return nil, false
		}
		if category, isCategory := entry.(object); isCategory {
			current = category
			continue
		}
		if i != len(parts)-1 {
			return nil, false
		}
		val := entry.(*Entry).Value
		return val, val != nil // nil means unset
	}
	return nil, false
}

// GetString a config entry as string.
// Panics if entry is not a string or if it doesn't exist.
func (c *Config) GetString(key string) string {
	return getTyped[string](c, key, "a string")
}

// GetBool a config entry as bool.
// Panics if entry is not a bool or if it doesn't exist.
func (c *Config) GetBool(key string) bool {
	return getTyped[bool](c, key, "a bool")
}

// GetInt a config entry as int.
// Panics if entry is not an int or if it doesn't exist.
func (c *Config) GetInt(key string) int {
	return getTyped[int](c, key, "an int")
}

// GetFloat a config entry as float64.
// Panics if entry is not a float64 or if it doesn't exist.
func (c *Config) GetFloat(key string) float64 {
	return getTyped[float64](c, key, "a float64")
}

// GetStringSlice a config entry as []string.
// Panics if entry is not a string slice or if it doesn't exist.
func (c *Config) GetStringSlice(key string) []string {
	return getTyped[[]string](c, key, "a string slice")
}

func getTyped[T any](c *Config, key string, typeName string) T {
	val, ok := c.Get(key).(T)
	if !ok {
		panic(errors.NewSkip(fmt.Errorf("config entry \"%s\" is not %s", key, typeName), 4))
	}
	return val
}

// Has check if a config entry exists.
func (c *Config) Has(key string) bool {
	_, ok := c.get(key)
	return ok
}

// Set a config entry.
// The change is temporary and will not be saved for next load.
// Use "nil" to unset a value.
//
//   - A category cannot be replaced with an entry.
//   - An entry cannot be replaced with a category.
//   - New categories can be created with they don't already exist.
//   - New entries can be created if they don't already exist. This new entry
//     will be subsequently validated using the type of its initial value and
//     have an empty slice as authorized values (meaning it can have any value of its type)
//
// Panics and revert changes in case of error.
func (c *Config) Set(key string, value any) {
	category, entryKey, exists := walk(c.config, key)
	if exists {
		entry := category[entryKey].(*Entry)
		previous := entry.Value
		entry.Value = value
		if err := entry.validate(key); err != nil {
			entry.Value = previous
			panic(err)
		}
		category[entryKey] = entry
	} else {
		category[entryKey] = makeEntryFromValue(value)
	}
}

// walk the config using the key. Returns the deepest category, the entry key
// with its path stripped ("app.name" -> "name") and true if the entry already
// exists, false if it's not.
//
// Creates categories if they don't exist.
//
// Panics if an entry is converted to a category or a category to an entry.
func walk(currentCategory object, key string) (object, string, bool) {
	if key == "" {
		panic(errors.NewSkip(fmt.Errorf("empty key is not allowed"), 3))
	}

	if key[len(key)-1:] == "." {
		panic(errors.NewSkip(fmt.Errorf("keys ending with a dot are not allowed"), 3))
	}

	parts := strings.Split(key, ".")
	for _, part := range parts[:len(parts)-1] {
		entry, exists := currentCategory[part]
		if !exists {
			category := make(object)
			currentCategory[part] = category
			currentCategory = category
			continue
		}
		category, ok := entry.(object)
		if !ok {
			panic(errors.NewSkip(fmt.Errorf("attempted to add an entry to non-category %q", part), 3))
		}
		currentCategory = category
	}

	last := parts[len(parts)-1]
	entry, exists := currentCategory[last]
	if exists {
		if _, ok := entry.(object); ok {
			panic(errors.NewSkip(fmt.Errorf("attempted to replace the %q category with an entry", key), 3))
		}
	}
	return currentCategory, last, exists
}

func override(src object, dst object) error {
	for key, value := range src {
		if obj, ok := value.(map[string]any); ok {
			value = object(obj)
		}
		if obj, ok := value.(object); ok {
			if existing, exists := dst[key]; !exists {
				dst[key] = make(object, len(obj))
			} else if _, isCategory := existing.(object); !isCategory {
				return errors.Errorf("invalid config:\n\t- cannot override entry %q with a category", key)
			}
			if err := override(obj, dst[key].(object)); err != nil {
				return err
			}
			continue
		}

		switch existing := dst[key].(type) {
		case object:
			return errors.Errorf("invalid config:\n\t- cannot override category %q with an entry", key)
		case *Entry:
			existing.Value = value
		default:
			dst[key] = makeEntryFromValue(value)
		}
	}
	return nil
}

func (o object) validate(prefix string) error {
	messages := o.collectErrors(prefix)
	if len(messages) == 0 {
		return nil
	}
	slices.Sort(messages)
	return errors.New("invalid config:\n\t- " + strings.Join(messages, "\n\t- "))
}

func (o object) collectErrors(prefix string) []string {
	messages := []string{}
	for key, entry := range o {
		switch v := entry.(type) {
		case *Entry:
			if err := v.validate(prefix + key); err != nil {
				messages = append(messages, err.Error())
			}
		case object:
			messages = append(messages, v.collectErrors(prefix+key+".")...)
		}
	}
	return messages
}

func readConfigFile(file string) (object, error) {
	conf := object{}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.New(err)
	}
	if err := json.Unmarshal(data, &conf); err != nil {
		return nil, errors.New(err)
	}
	return conf, nil
}

func readString(str string) (object, error) {
	conf := object{}
	if err := json.Unmarshal([]byte(str), &conf); err != nil {
		return nil, errors.New(err)
	}
	return conf, nil
}

func getConfigFilePath() string {
	env := strings.ToLower(os.Getenv("GOYAVE_ENV"))
	if env == "local" || env == "localhost" || env == "" {
		return "config.json"
	}
	return "config." + env + ".json"
}
