// Package forms expands translatable attributes for form and admin layers:
// field lists grow per-language entries and fields are tagged with CSS
// classes so a frontend can group and style the language variants of one
// attribute together.
package forms

import (
	"strings"

	"github.com/kamusihq/kamusi"
	"github.com/kamusihq/kamusi/lang"
)

// Fieldset is one labeled group of form fields.
type Fieldset struct {
	Label  string
	Fields []string
}

// ExpandFields expands a form field list: each translatable attribute is
// replaced by itself followed by its shadow columns for the non-default
// languages, in configured language order. The attribute itself keeps
// carrying the default language, so the default-language shadow column is
// not shown separately. Untranslated names pass through unchanged.
func ExpandFields(tr *kamusi.Translator, model any, fields []string) ([]string, error) {
	options, err := tr.OptionsFor(model)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(fields))
	for _, name := range fields {
		logical, ok := options.Logical(name)
		if !ok {
			out = append(out, name)
			continue
		}
		out = append(out, name)
		for _, code := range tr.Languages() {
			if code == tr.DefaultLanguage() {
				continue
			}
			if sf := options.Shadow(logical, code); sf != nil {
				out = append(out, sf.DBName)
			}
		}
	}
	return out, nil
}

// ExpandExclude expands an exclusion list the same way as ExpandFields, so
// excluding a translatable attribute also hides every language variant.
func ExpandExclude(tr *kamusi.Translator, model any, exclude []string) ([]string, error) {
	return ExpandFields(tr, model, exclude)
}

// ExpandFieldsets applies ExpandFields to each fieldset's field list,
// keeping labels and order.
func ExpandFieldsets(tr *kamusi.Translator, model any, fieldsets []Fieldset) ([]Fieldset, error) {
	out := make([]Fieldset, 0, len(fieldsets))
	for _, fs := range fieldsets {
		fields, err := ExpandFields(tr, model, fs.Fields)
		if err != nil {
			return nil, err
		}
		out = append(out, Fieldset{Label: fs.Label, Fields: fields})
	}
	return out, nil
}

// ExpandPrepopulated expands a prepopulation map, e.g. {"slug": ["title"]}:
// each translatable target becomes one entry per configured language, with
// the source fields shifted to the same language, so "slug_sw" prepopulates
// from "title_sw" rather than from the default-language title. The default
// language keeps the original names on both sides.
func ExpandPrepopulated(tr *kamusi.Translator, model any, prepopulated map[string][]string) (map[string][]string, error) {
	options, err := tr.OptionsFor(model)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]string, len(prepopulated))
	for target, sources := range prepopulated {
		logical, ok := options.Logical(target)
		if !ok {
			out[target] = sources
			continue
		}

		for _, code := range tr.Languages() {
			name := target
			if code != tr.DefaultLanguage() {
				sf := options.Shadow(logical, code)
				if sf == nil {
					continue
				}
				name = sf.DBName
			}
			out[name] = shiftSources(options, sources, tr, code)
		}
	}
	return out, nil
}

func shiftSources(options *kamusi.TranslationOptions, sources []string, tr *kamusi.Translator, code lang.Code) []string {
	out := make([]string, 0, len(sources))
	for _, source := range sources {
		logical, ok := options.Logical(source)
		if !ok || code == tr.DefaultLanguage() {
			out = append(out, source)
			continue
		}
		if sf := options.Shadow(logical, code); sf != nil {
			out = append(out, sf.DBName)
		} else {
			out = append(out, source)
		}
	}
	return out
}

// CSSClasses returns the styling classes of one form field: the "mt" marker
// on every field the translation layer owns, "mt-field-<name>" identifying
// the attribute-language pair, and "mt-original-field" on the logical
// field. The logical field is classed as its default-language shadow so a
// frontend groups it with its siblings. Untranslated fields get no classes.
func CSSClasses(tr *kamusi.Translator, model any, fieldName string) ([]string, error) {
	options, err := tr.OptionsFor(model)
	if err != nil {
		return nil, err
	}

	if options.IsShadowColumn(fieldName) {
		return []string{"mt", "mt-field-" + cssName(fieldName)}, nil
	}

	if logical, ok := options.Logical(fieldName); ok {
		sf := options.Shadow(logical, tr.DefaultLanguage())
		if sf == nil {
			return nil, nil
		}
		return []string{"mt", "mt-field-" + cssName(sf.DBName), "mt-original-field"}, nil
	}
	return nil, nil
}

func cssName(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}
