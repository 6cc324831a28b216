package lang

import (
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"path"
	"slices"

	"github.com/samber/lo"
	"goyave.dev/mailcheck/util/errors"
)

// Languages container for all loaded languages.
//
// This structure is not protected for concurrent usage. Therefore, don't load
// more languages when this instance is expected to receive reads.
type Languages struct {
	languages map[string]*Language
	Default   string
}

// New create a `Languages` with preloaded default language "en-US".
//
// The default language can be replaced by modifying the `Default` field
// in the returned struct.
func New() *Languages {
	l := &Languages{
		languages: make(map[string]*Language, 1),
		Default:   enUS.name,
	}
	l.languages[enUS.name] = enUS.clone()
	return l
}

// LoadDirectory loads every language directory
// in the given directory if it exists.
func (l *Languages) LoadDirectory(fsys fs.FS, directory string) error {
	info, err := fs.Stat(fsys, directory)
	if err != nil || !info.IsDir() {
		return nil
	}

	files, err := fs.ReadDir(fsys, directory)
	if err != nil {
		return errors.New(err)
	}

	for _, f := range files {
		if f.IsDir() {
			p := lo.Ternary(directory == ".", f.Name(), path.Join(directory, f.Name()))
			if err := l.load(fsys, f.Name(), p); err != nil {
				return err
			}
		}
	}
	return nil
}

// Load a language directory.
//
// Directory structure of a language directory:
//
//	en-UK
//	  ├─ locale.json     (contains the normal language lines)
//	  ├─ rules.json      (contains the validation messages)
//	  └─ fields.json     (contains the field names)
//
// Each file is optional.
func (l *Languages) Load(fsys fs.FS, language, directory string) error {
	info, err := fs.Stat(fsys, directory)
	if err != nil || !info.IsDir() {
		return errors.Errorf("failed loading language %q, directory %q doesn't exist or is not readable", language, directory)
	}
	return l.load(fsys, language, directory)
}

func (l *Languages) load(fsys fs.FS, name string, directory string) error {
	language := &Language{
		name:  name,
		lines: map[string]string{},
		validation: validationLines{
			rules:  map[string]string{},
			fields: map[string]string{},
		},
	}
	if err := readLangFile(fsys, path.Join(directory, "locale.json"), &language.lines); err != nil {
		return err
	}
	if err := readLangFile(fsys, path.Join(directory, "rules.json"), &language.validation.rules); err != nil {
		return err
	}
	if err := readLangFile(fsys, path.Join(directory, "fields.json"), &language.validation.fields); err != nil {
		return err
	}

	if existing, exists := l.languages[name]; exists {
		mergeLang(existing, language)
	} else {
		l.languages[name] = language
	}
	return nil
}

func readLangFile(fsys fs.FS, file string, dst *map[string]string) error {
	data, err := fs.ReadFile(fsys, file)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return errors.New(err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return errors.Errorf("invalid language file %q: %w", file, err)
	}
	return nil
}

// GetLanguage returns a language by its name.
// If the language is not available, returns a dummy language
// that will always return the entry name.
func (l *Languages) GetLanguage(lang string) *Language {
	if language, ok := l.languages[lang]; ok {
		return language
	}
	return &Language{
		name:       lang,
		lines:      map[string]string{},
		validation: validationLines{rules: map[string]string{}, fields: map[string]string{}},
	}
}

// GetDefault returns the default language.
func (l *Languages) GetDefault() *Language {
	return l.GetLanguage(l.Default)
}

// IsAvailable returns true if the language is available.
func (l *Languages) IsAvailable(lang string) bool {
	_, exists := l.languages[lang]
	return exists
}

// GetAvailableLanguages returns a sorted slice of all loaded languages.
func (l *Languages) GetAvailableLanguages() []string {
	langs := lo.Keys(l.languages)
	slices.Sort(langs)
	return langs
}

// Get a language line from the given language.
// See `Language.Get()` for more details.
func (l *Languages) Get(lang string, line string, placeholders ...string) string {
	if !l.IsAvailable(lang) {
		return line
	}
	return l.languages[lang].Get(line, placeholders...)
}
