package kamusi

import (
	"context"
	"fmt"
	"reflect"

	"github.com/spf13/cast"
)

// Accessor reads and writes one translatable attribute of one model type,
// routing every access through the language carried by the context.
//
// Reads resolve in order: the original struct field when the active language
// is the default, otherwise the active language's shadow slot when it holds
// a non-empty value, otherwise the attribute's configured fallback when one
// exists (the empty string is a valid configured fallback), otherwise the
// default-language value from the original field.
//
// Writes touch exactly one slot: the original field under the default
// language, the active language's shadow slot under any other. A write in
// one language never leaks into another language's slot.
type Accessor struct {
	tr       *Translator
	options  *TranslationOptions
	field    string
	source   *schemaFieldRef
	kind     FieldKind
	fallback *Fallback
}

// schemaFieldRef pins the parsed field so accessors survive re-registration.
type schemaFieldRef struct {
	options *TranslationOptions
	name    string
}

func (r *schemaFieldRef) valueOf(ctx context.Context, rv reflect.Value) (string, error) {
	field := r.options.schema.LookUpField(r.name)
	if field == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownField, r.name)
	}
	v, zero := field.ValueOf(ctx, rv)
	if zero || v == nil {
		return "", nil
	}
	// named string types (FilePath, URL, custom kinds) are not plain
	// strings, so go through reflection before generic coercion
	if sv := reflect.ValueOf(v); sv.Kind() == reflect.String {
		return sv.String(), nil
	}
	return cast.ToString(v), nil
}

func (r *schemaFieldRef) set(ctx context.Context, rv reflect.Value, value string) error {
	field := r.options.schema.LookUpField(r.name)
	if field == nil {
		return fmt.Errorf("%w: %s", ErrUnknownField, r.name)
	}
	return field.Set(ctx, rv, value)
}

// Accessor returns the accessor for one attribute of a model. The model must
// be registered, directly or through a registered embedded ancestor.
func (t *Translator) Accessor(model any, field string) (*Accessor, error) {
	options, err := t.OptionsFor(model)
	if err != nil {
		return nil, err
	}

	perLang, ok := options.shadows[field]
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", options.schema.Name, field, ErrUnknownField)
	}

	return &Accessor{
		tr:       t,
		options:  options,
		field:    field,
		source:   &schemaFieldRef{options: options, name: field},
		kind:     perLang[t.cfg.Default].Kind,
		fallback: options.fallbackFor(field),
	}, nil
}

// Get returns the attribute value for the language carried by ctx.
func (a *Accessor) Get(ctx context.Context, instance any) (string, error) {
	tr, rv, err := a.instance(instance)
	if err != nil {
		return "", err
	}

	active := a.tr.Active(ctx)
	if active == a.tr.cfg.Default {
		return a.source.valueOf(ctx, rv)
	}

	if value, ok := tr.Translation(a.field, active); ok && value != "" {
		return value, nil
	}
	if a.fallback != nil {
		return a.fallback.Resolve(a.tr.bundle, active), nil
	}
	return a.source.valueOf(ctx, rv)
}

// Set writes the attribute value for the language carried by ctx.
func (a *Accessor) Set(ctx context.Context, instance any, value string) error {
	tr, rv, err := a.instance(instance)
	if err != nil {
		return err
	}

	active := a.tr.Active(ctx)
	if active == a.tr.cfg.Default {
		if err = a.source.set(ctx, rv, value); err != nil {
			return err
		}
		tr.invalidateFile(a.field, active)
		return nil
	}
	tr.SetTranslation(a.field, active, value)
	return nil
}

// File returns the attribute as a lazily wrapped file handle. Only file and
// image attributes support it. Handles are cached on the instance per
// language, so two reads under the same language return the same handle.
func (a *Accessor) File(ctx context.Context, instance any) (*File, error) {
	if !a.kind.IsFileLike() {
		return nil, fmt.Errorf("%s.%s is %s, not a file attribute: %w",
			a.options.schema.Name, a.field, a.kind, ErrInvalidAccess)
	}

	tr, _, err := a.instance(instance)
	if err != nil {
		return nil, err
	}

	active := a.tr.Active(ctx)
	if f := tr.cachedFile(a.field, active); f != nil {
		return f, nil
	}

	value, err := a.Get(ctx, instance)
	if err != nil {
		return nil, err
	}

	f := NewFile(value, a.tr.storage)
	tr.cacheFile(a.field, active, f)
	return f, nil
}

func (a *Accessor) instance(instance any) (*Translatable, reflect.Value, error) {
	tr, err := translatableOf(instance)
	if err != nil {
		return nil, reflect.Value{}, fmt.Errorf("%s.%s: %w", a.options.schema.Name, a.field, err)
	}
	return tr, reflect.ValueOf(instance), nil
}

// Get is the convenience form of Accessor.Get for one-off reads.
func (t *Translator) Get(ctx context.Context, instance any, field string) (string, error) {
	a, err := t.Accessor(instance, field)
	if err != nil {
		return "", err
	}
	return a.Get(ctx, instance)
}

// Set is the convenience form of Accessor.Set for one-off writes.
func (t *Translator) Set(ctx context.Context, instance any, field, value string) error {
	a, err := t.Accessor(instance, field)
	if err != nil {
		return err
	}
	return a.Set(ctx, instance, value)
}

// FileOf is the convenience form of Accessor.File for one-off reads.
func (t *Translator) FileOf(ctx context.Context, instance any, field string) (*File, error) {
	a, err := t.Accessor(instance, field)
	if err != nil {
		return nil, err
	}
	return a.File(ctx, instance)
}
