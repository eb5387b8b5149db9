package i18n

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// NonFieldErrors is the field key for errors not bound to a single field.
const NonFieldErrors = "non_field_errors"

// Message is a message key plus its format arguments.
type Message struct {
	Key  Key
	Args []any
}

// Msg builds a Message.
func Msg(key Key, args ...any) Message {
	return Message{Key: key, Args: args}
}

var messageCatalog = buildCatalog()

func buildCatalog() catalog.Catalog {
	builder := catalog.NewBuilder(catalog.Fallback(language.English))
	for locale, entries := range translations {
		tag := locale.Tag()
		for key, text := range entries {
			if err := builder.SetString(tag, string(key), text); err != nil {
				panic("i18n: register " + string(key) + ": " + err.Error())
			}
		}
	}
	return builder
}

// Translate renders m in the given locale. Unknown keys render as the key itself.
func Translate(locale Locale, m Message) string {
	printer := message.NewPrinter(locale.Tag(), message.Catalog(messageCatalog))
	return printer.Sprintf(string(m.Key), m.Args...)
}

// T is shorthand for Translate(locale, Msg(key, args...)).
func T(locale Locale, key Key, args ...any) string {
	return Translate(locale, Msg(key, args...))
}

// FieldLabel returns the human readable label for a request field.
func FieldLabel(locale Locale, field string) string {
	if key, ok := fieldLabels[field]; ok {
		return T(locale, key)
	}
	return cases.Title(language.English).String(strings.ReplaceAll(field, "_", " "))
}
