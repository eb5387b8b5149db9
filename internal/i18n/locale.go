// Package i18n selects the response locale for a request and renders
// message keys through a compiled x/text catalog.
package i18n

import (
	"context"
	"strings"

	"golang.org/x/text/language"
)

// Locale is a supported response language code.
type Locale string

const (
	English           Locale = "en"
	SimplifiedChinese Locale = "zh-hans"
)

// DefaultLocale is used when a request carries no recognisable preference.
const DefaultLocale = English

// Supported lists every locale the catalog carries messages for.
var Supported = []Locale{English, SimplifiedChinese}

var localeTags = map[Locale]language.Tag{
	English:           language.English,
	SimplifiedChinese: language.SimplifiedChinese,
}

// Tag returns the language tag backing the locale.
func (l Locale) Tag() language.Tag {
	if tag, ok := localeTags[l]; ok {
		return tag
	}
	return language.English
}

// Match maps an Accept-Language style hint to a supported locale. Only the
// first entry of the header is considered; quality values are ignored.
func Match(header string) Locale {
	primary := strings.TrimSpace(strings.Split(strings.Split(header, ",")[0], ";")[0])
	if primary == "" {
		return DefaultLocale
	}

	tag, err := language.Parse(primary)
	if err != nil {
		return DefaultLocale
	}

	base, _ := tag.Base()
	switch base.String() {
	case "en":
		return English
	case "zh":
		if isSimplifiedChinese(tag) {
			return SimplifiedChinese
		}
	}

	return DefaultLocale
}

// isSimplifiedChinese accepts bare "zh", an explicit Hans script, and the
// mainland/Singapore regions. Traditional variants are not supported.
func isSimplifiedChinese(tag language.Tag) bool {
	if script, conf := tag.Script(); conf == language.Exact {
		return script.String() == "Hans"
	}

	region, conf := tag.Region()
	if conf != language.Exact {
		return true
	}

	switch region.String() {
	case "CN", "SG":
		return true
	default:
		return false
	}
}

type localeKey struct{}

// WithLocale returns a copy of ctx carrying the request locale.
func WithLocale(ctx context.Context, locale Locale) context.Context {
	return context.WithValue(ctx, localeKey{}, locale)
}

// FromContext returns the request locale, or DefaultLocale when none is set.
func FromContext(ctx context.Context) Locale {
	if ctx == nil {
		return DefaultLocale
	}
	if locale, ok := ctx.Value(localeKey{}).(Locale); ok && locale != "" {
		return locale
	}
	return DefaultLocale
}
