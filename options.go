package kamusi

import (
	"fmt"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"gorm.io/gorm/schema"

	"github.com/kamusihq/kamusi/lang"
)

// Fallback is the value returned when a non-default language slot is empty
// and values should not be borrowed from the default slot. It is either a
// literal string (possibly empty) or a message identifier resolved through
// the translator's i18n bundle for the active language.
type Fallback struct {
	Value     string
	MessageID string
}

// Resolve returns the fallback value for the given language. A MessageID is
// localized through the bundle when one is available; localization failures
// fall back to the literal value.
func (f *Fallback) Resolve(bundle *i18n.Bundle, code lang.Code) string {
	if f.MessageID == "" || bundle == nil {
		return f.Value
	}

	msg, err := i18n.NewLocalizer(bundle, string(code)).Localize(&i18n.LocalizeConfig{MessageID: f.MessageID})
	if msg == "" && err != nil {
		return f.Value
	}
	return msg
}

// TranslationOptions captures everything the library knows about one
// registered model: which attributes are translatable, their per-field
// fallback values, the synthesized shadow fields and the bidirectional
// mapping between logical and physical field names.
type TranslationOptions struct {
	// Fields lists the translatable attributes by struct field name, in
	// registration order.
	Fields []string

	// LocalizedFieldnames maps each logical attribute to its physical
	// column names, one per configured language in configured order.
	LocalizedFieldnames map[string][]string

	// LocalizedFieldnamesRev is the inverse of LocalizedFieldnames.
	LocalizedFieldnamesRev map[string]string

	schema    *schema.Schema
	shadows   map[string]map[lang.Code]*ShadowField
	fallbacks map[string]*Fallback

	// ephemeral options are derived from registered parents for an
	// unregistered subtype; they never live in the registry.
	ephemeral bool

	// seq orders registrations so parent unions can apply
	// first-registered-wins deterministically.
	seq uint64
}

// Schema returns the parsed gorm schema the options were built from.
func (o *TranslationOptions) Schema() *schema.Schema {
	return o.schema
}

// Translates reports whether the named attribute (by struct field name or
// column name) is registered for translation.
func (o *TranslationOptions) Translates(name string) bool {
	_, ok := o.shadows[name]
	if ok {
		return true
	}
	_, ok = o.fieldByDBName(name)
	return ok
}

// Logical resolves any reference to a translatable attribute, by struct
// field name or by original column name, to the struct field name. Shadow
// column names are not logical references and do not resolve.
func (o *TranslationOptions) Logical(name string) (string, bool) {
	if _, ok := o.shadows[name]; ok {
		return name, true
	}
	return o.fieldByDBName(name)
}

// IsShadowColumn reports whether the name is a synthesized shadow column.
func (o *TranslationOptions) IsShadowColumn(name string) bool {
	_, ok := o.LocalizedFieldnamesRev[name]
	return ok
}

func (o *TranslationOptions) fieldByDBName(dbName string) (string, bool) {
	for logical, perLang := range o.shadows {
		for _, sf := range perLang {
			if sf.source.DBName == dbName {
				return logical, true
			}
		}
	}
	return "", false
}

// Shadow returns the shadow field for (attribute, language), or nil when the
// attribute is not translatable.
func (o *TranslationOptions) Shadow(name string, code lang.Code) *ShadowField {
	perLang, ok := o.shadows[name]
	if !ok {
		return nil
	}
	return perLang[code]
}

// ShadowFields returns every synthesized shadow field of the model in
// (registration order × configured language order).
func (o *TranslationOptions) ShadowFields() []*ShadowField {
	fields := make([]*ShadowField, 0, len(o.LocalizedFieldnamesRev))
	for _, logical := range o.Fields {
		for _, code := range o.languages() {
			if sf := o.shadows[logical][code]; sf != nil {
				fields = append(fields, sf)
			}
		}
	}
	return fields
}

func (o *TranslationOptions) languages() []lang.Code {
	if len(o.Fields) == 0 {
		return nil
	}
	// shadow maps are keyed by code; configured order lives in the
	// localized fieldname slices, so recover it from there.
	logical := o.Fields[0]
	perLang := o.shadows[logical]
	ordered := make([]lang.Code, 0, len(perLang))
	for _, dbName := range o.LocalizedFieldnames[logical] {
		for code, sf := range perLang {
			if sf.DBName == dbName {
				ordered = append(ordered, code)
				break
			}
		}
	}
	return ordered
}

// fallbackFor returns the configured fallback for an attribute, or nil.
func (o *TranslationOptions) fallbackFor(name string) *Fallback {
	return o.fallbacks[name]
}

// checkConsistency verifies the forward and reverse fieldname mappings agree
// with each other; violated only by a registration bug, so it fails loudly.
func (o *TranslationOptions) checkConsistency() error {
	count := 0
	for logical, physicals := range o.LocalizedFieldnames {
		for _, physical := range physicals {
			count++
			if rev, ok := o.LocalizedFieldnamesRev[physical]; !ok || rev != logical {
				return fmt.Errorf("translation options for %s: reverse mapping of %q is %q, want %q",
					o.schema.Name, physical, rev, logical)
			}
		}
	}
	if count != len(o.LocalizedFieldnamesRev) {
		return fmt.Errorf("translation options for %s: %d forward mappings but %d reverse",
			o.schema.Name, count, len(o.LocalizedFieldnamesRev))
	}
	return nil
}

// Option configures the registration of one model.
type Option func(*registerOptions)

type registerOptions struct {
	fields      []string
	fallbackAll *Fallback
	fallbacks   map[string]*Fallback
}

// WithFields returns an Option naming the translatable attributes of the
// model by struct field name.
func WithFields(names ...string) Option {
	return func(o *registerOptions) {
		o.fields = append(o.fields, names...)
	}
}

// WithFallback returns an Option configuring a single fallback value applied
// to every translatable attribute of the model. The empty string is a valid
// fallback and is distinct from configuring none.
func WithFallback(value string) Option {
	return func(o *registerOptions) {
		o.fallbackAll = &Fallback{Value: value}
	}
}

// WithFallbackFor returns an Option configuring a fallback value for one
// attribute; attributes without one borrow the default-language value.
func WithFallbackFor(field, value string) Option {
	return func(o *registerOptions) {
		if o.fallbacks == nil {
			o.fallbacks = make(map[string]*Fallback)
		}
		o.fallbacks[field] = &Fallback{Value: value}
	}
}

// WithLocalizedFallbackFor returns an Option configuring a fallback resolved
// through the translator's message bundle for the active language, so the
// "translation unavailable" notice itself can be translated.
func WithLocalizedFallbackFor(field, messageID string) Option {
	return func(o *registerOptions) {
		if o.fallbacks == nil {
			o.fallbacks = make(map[string]*Fallback)
		}
		o.fallbacks[field] = &Fallback{MessageID: messageID}
	}
}
