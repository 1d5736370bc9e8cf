// Package locale holds the supported site languages, their text direction and
// the translation catalog used by the templates.
package locale

import (
	"golang.org/x/text/language"
)

// Locale is a supported site language, used as the first URL path segment
// and as the lang query parameter sent to the content API.
type Locale string

const (
	English Locale = "en"
	Arabic  Locale = "ar"

	Default = English
)

// Supported lists the site locales, default first.
var Supported = []Locale{English, Arabic}

var matcher = language.NewMatcher([]language.Tag{language.English, language.Arabic})

// Parse returns the locale for s and whether it is supported.
func Parse(s string) (Locale, bool) {
	switch Locale(s) {
	case English, Arabic:
		return Locale(s), true
	}
	return Default, false
}

// Negotiate picks the best supported locale for an Accept-Language header.
func Negotiate(acceptLanguage string) Locale {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default
	}

	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	return Supported[idx]
}

// IsLanguageCode reports whether s is a known two-letter language code such
// as "fr", supported or not.
func IsLanguageCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	_, err := language.ParseBase(s)
	return err == nil
}

func (l Locale) String() string {
	return string(l)
}

// IsRTL reports whether the locale is written right to left.
func (l Locale) IsRTL() bool {
	return l == Arabic
}

// Dir is the value of the html dir attribute.
func (l Locale) Dir() string {
	if l.IsRTL() {
		return "rtl"
	}
	return "ltr"
}

// Other returns the locale the language switcher points to.
func (l Locale) Other() Locale {
	if l == Arabic {
		return English
	}
	return Arabic
}
