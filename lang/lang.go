// Package lang carries the ambient current language of a request through
// context.Context. The rest of the library never stores the active language
// anywhere else: every read or write of a translated attribute and every
// query rewrite consults the context it was handed.
package lang

import (
	"context"
	"strings"

	xlang "golang.org/x/text/language"
)

// Code identifies a configured language, e.g. "en", "sw" or "pt-br".
type Code string

type contextKey string

func (c contextKey) String() string {
	return "kamusi/lang/" + string(c)
}

const ctxKeyLanguage = contextKey("languageKey")

// ToContext adds the active language to the current supplied context.
func ToContext(ctx context.Context, code Code) context.Context {
	return context.WithValue(ctx, ctxKeyLanguage, code)
}

// FromContext extracts the active language from the supplied context if any
// exists. The zero Code means "no language activated"; callers treat that as
// the configured default language.
func FromContext(ctx context.Context) Code {
	code, ok := ctx.Value(ctxKeyLanguage).(Code)
	if !ok {
		return ""
	}

	return code
}

// ToMap serializes the active language into string-map metadata so it can
// travel on queue messages or similar transports.
func ToMap(m map[string]string, code Code) map[string]string {
	m["lang"] = string(code)
	return m
}

// FromMap extracts a language previously stored with ToMap.
func FromMap(m map[string]string) Code {
	code, ok := m["lang"]
	if !ok {
		return ""
	}
	return Code(code)
}

// Normalize validates the supplied code against BCP 47 and returns it in
// canonical lowercase form. Configuration uses it once at startup; runtime
// paths trust configured codes as-is.
func Normalize(code Code) (Code, error) {
	tag, err := xlang.Parse(string(code))
	if err != nil {
		return "", err
	}
	return Code(strings.ToLower(tag.String())), nil
}

// ColumnSuffix derives the database column suffix for a language code.
// Region subtags keep codes like "pt-br" from being valid identifiers, so
// dashes become underscores: title + "pt-br" -> title_pt_br.
func ColumnSuffix(code Code) string {
	return strings.ReplaceAll(strings.ToLower(string(code)), "-", "_")
}
