// Package language defines the closed set of languages a translation
// project can use, together with display metadata (native name and
// emoji flag) for CLI output.
//
// The set is deliberately closed: adding a language means adding a
// constant here and extending the tables below, so every switch over
// Language stays exhaustive and compile-checked.
package language

import (
	"fmt"
	"strings"
)

// Language identifies one supported natural language.
type Language string

const (
	English    Language = "english"
	French     Language = "french"
	German     Language = "german"
	Spanish    Language = "spanish"
	Italian    Language = "italian"
	Portuguese Language = "portuguese"
	Russian    Language = "russian"
	Ukrainian  Language = "ukrainian"
	Chinese    Language = "chinese"
	Japanese   Language = "japanese"
)

// All returns every supported language in stable order.
func All() []Language {
	return []Language{
		English, French, German, Spanish, Italian,
		Portuguese, Russian, Ukrainian, Chinese, Japanese,
	}
}

// ErrUnknown is returned by Parse for strings outside the supported set.
var ErrUnknown = fmt.Errorf("unknown language")

// Parse resolves a user-supplied string to a Language. It accepts the
// language name ("french", case-insensitive) or its ISO 639-1 code ("fr").
func Parse(s string) (Language, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	for _, lang := range All() {
		if normalized == string(lang) || normalized == lang.Code() {
			return lang, nil
		}
	}
	return "", fmt.Errorf("%w: %q (supported: %s)", ErrUnknown, s, supportedList())
}

func supportedList() string {
	names := make([]string, 0, len(All()))
	for _, lang := range All() {
		names = append(names, string(lang))
	}
	return strings.Join(names, ", ")
}

// Code returns the ISO 639-1 code for the language.
func (l Language) Code() string {
	switch l {
	case English:
		return "en"
	case French:
		return "fr"
	case German:
		return "de"
	case Spanish:
		return "es"
	case Italian:
		return "it"
	case Portuguese:
		return "pt"
	case Russian:
		return "ru"
	case Ukrainian:
		return "uk"
	case Chinese:
		return "zh"
	case Japanese:
		return "ja"
	}
	return string(l)
}

// Meta describes language display metadata.
type Meta struct {
	Name string
	Flag string
}

// registry contains the native display name and flag per language.
var registry = map[Language]Meta{
	English:    {Name: "English", Flag: "🇺🇸"},
	French:     {Name: "Français", Flag: "🇫🇷"},
	German:     {Name: "Deutsch", Flag: "🇩🇪"},
	Spanish:    {Name: "Español", Flag: "🇪🇸"},
	Italian:    {Name: "Italiano", Flag: "🇮🇹"},
	Portuguese: {Name: "Português", Flag: "🇵🇹"},
	Russian:    {Name: "Русский", Flag: "🇷🇺"},
	Ukrainian:  {Name: "Українська", Flag: "🇺🇦"},
	Chinese:    {Name: "中文", Flag: "🇨🇳"},
	Japanese:   {Name: "日本語", Flag: "🇯🇵"},
}

// NativeName returns the language's name in that language itself,
// used when prompting the translation provider.
func (l Language) NativeName() string {
	if m, ok := registry[l]; ok {
		return m.Name
	}
	return string(l)
}

// Display returns a human-readable label for CLI output, e.g. "french (fr) 🇫🇷".
func (l Language) Display() string {
	m := registry[l]
	if m.Flag == "" {
		return fmt.Sprintf("%s (%s)", string(l), l.Code())
	}
	return fmt.Sprintf("%s (%s) %s", string(l), l.Code(), m.Flag)
}

// Valid reports whether l is one of the supported languages.
func (l Language) Valid() bool {
	_, ok := registry[l]
	return ok
}

func (l Language) String() string {
	return string(l)
}
