package kamusi

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pitabwire/util"
	"gorm.io/gorm/schema"

	"github.com/kamusihq/kamusi/lang"
)

// Translator owns the registry of translatable models. One Translator is
// created at startup, models are registered against it, and its plugin is
// installed into the gorm session that serves requests.
type Translator struct {
	cfg     Config
	bundle  *i18n.Bundle
	namer   schema.Namer
	storage Storage

	schemaCache sync.Map

	mu       sync.RWMutex
	registry map[reflect.Type]*TranslationOptions
	seq      uint64
}

// TranslatorOption configures a Translator at construction time.
type TranslatorOption func(*Translator)

// WithBundle supplies the message bundle used to resolve localized fallback
// values registered with WithLocalizedFallbackFor.
func WithBundle(bundle *i18n.Bundle) TranslatorOption {
	return func(t *Translator) {
		t.bundle = bundle
	}
}

// WithStorage supplies the storage that backs translated file and image
// attributes. File handles read through the translator open their contents
// from it. Defaults to DirStorage rooted at the working directory.
func WithStorage(storage Storage) TranslatorOption {
	return func(t *Translator) {
		t.storage = storage
	}
}

// WithNamingStrategy overrides the naming strategy used when parsing model
// schemas. It must match the strategy of the gorm session the translator's
// plugin is installed into.
func WithNamingStrategy(namer schema.Namer) TranslatorOption {
	return func(t *Translator) {
		t.namer = namer
	}
}

// New validates the supplied configuration and creates a Translator.
func New(cfg Config, opts ...TranslatorOption) (*Translator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t := &Translator{
		cfg:      cfg,
		namer:    schema.NamingStrategy{IdentifierMaxLength: 64},
		storage:  DirStorage{Root: "."},
		registry: make(map[reflect.Type]*TranslationOptions),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Config returns a copy of the translator's configuration.
func (t *Translator) Config() Config {
	return t.cfg
}

// DefaultLanguage returns the configured default language.
func (t *Translator) DefaultLanguage() lang.Code {
	return t.cfg.Default
}

// Languages returns the configured languages in configured order.
func (t *Translator) Languages() []lang.Code {
	return t.cfg.Languages
}

// Active resolves the language the supplied context operates under.
func (t *Translator) Active(ctx context.Context) lang.Code {
	return t.cfg.Active(lang.FromContext(ctx))
}

func modelType(model any) reflect.Type {
	rt := reflect.TypeOf(model)
	for rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	return rt
}

// Register declares the translatable attributes of a model. The model must
// embed Translatable and each attribute must be of a supported field kind.
//
// Registration is not transactional: attributes synthesized before a failure
// stay registered, matching the fact that columns already added to the
// database cannot be unadded either. A model that fails registration midway
// should be treated as misconfigured and the configuration fixed, not
// re-registered around the error.
func (t *Translator) Register(ctx context.Context, model any, opts ...Option) error {
	regOpts := &registerOptions{}
	for _, opt := range opts {
		opt(regOpts)
	}
	if len(regOpts.fields) == 0 {
		return fmt.Errorf("register %T: no translatable fields supplied", model)
	}

	sch, err := schema.Parse(model, &t.schemaCache, t.namer)
	if err != nil {
		return fmt.Errorf("register %T: %w", model, err)
	}

	if !embedsTranslatable(sch.ModelType) {
		return fmt.Errorf("register %s: %w", sch.Name, ErrNotTranslatable)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.registry[sch.ModelType]; ok {
		return fmt.Errorf("register %s: %w", sch.Name, ErrAlreadyRegistered)
	}

	t.seq++
	options := &TranslationOptions{
		LocalizedFieldnames:    make(map[string][]string),
		LocalizedFieldnamesRev: make(map[string]string),
		schema:                 sch,
		shadows:                make(map[string]map[lang.Code]*ShadowField),
		fallbacks:              make(map[string]*Fallback),
		seq:                    t.seq,
	}
	t.registry[sch.ModelType] = options

	for _, name := range regOpts.fields {
		if err = t.registerField(options, name, regOpts); err != nil {
			return err
		}
	}

	if err = options.checkConsistency(); err != nil {
		return err
	}

	util.Log(ctx).
		WithField("model", sch.Name).
		WithField("fields", options.Fields).
		Debug("registered model for translation")
	return nil
}

func (t *Translator) registerField(options *TranslationOptions, name string, regOpts *registerOptions) error {
	sch := options.schema

	if _, ok := options.shadows[name]; ok {
		return fmt.Errorf("register %s.%s: %w", sch.Name, name, ErrDuplicateField)
	}

	perLang := make(map[lang.Code]*ShadowField, len(t.cfg.Languages))
	physicals := make([]string, 0, len(t.cfg.Languages))
	for _, code := range t.cfg.Languages {
		sf, err := synthesizeField(sch, name, code, &t.cfg)
		if err != nil {
			return err
		}

		if existing := sch.LookUpField(sf.DBName); existing != nil && existing.Name != sf.source.Name {
			return fmt.Errorf("register %s.%s: column %s: %w", sch.Name, name, sf.DBName, ErrDuplicateField)
		}
		if _, taken := options.LocalizedFieldnamesRev[sf.DBName]; taken {
			return fmt.Errorf("register %s.%s: column %s: %w", sch.Name, name, sf.DBName, ErrDuplicateField)
		}

		perLang[code] = sf
		physicals = append(physicals, sf.DBName)
		options.LocalizedFieldnamesRev[sf.DBName] = sf.LogicalName
	}

	logical := perLang[t.cfg.Default].LogicalName
	options.Fields = append(options.Fields, logical)
	options.LocalizedFieldnames[logical] = physicals
	options.shadows[logical] = perLang

	if fb, ok := regOpts.fallbacks[name]; ok {
		options.fallbacks[logical] = fb
	} else if regOpts.fallbackAll != nil {
		options.fallbacks[logical] = regOpts.fallbackAll
	}
	return nil
}

// Unregister removes a model from the registry. It does not undo anything
// else: shadow columns already migrated stay in the database.
func (t *Translator) Unregister(model any) error {
	rt := modelType(model)

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.registry[rt]; !ok {
		return fmt.Errorf("unregister %s: %w", rt.Name(), ErrNotRegistered)
	}
	delete(t.registry, rt)
	return nil
}

// Registered reports whether the exact model type is in the registry.
func (t *Translator) Registered(model any) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.registry[modelType(model)]
	return ok
}

// OptionsFor returns the translation options of a model. An exact registry
// entry wins; otherwise the model's embedded types are walked and the options
// of every registered ancestor are combined into an ephemeral result, without
// registering the model itself. When several ancestors declare the same
// attribute, the one registered first wins.
func (t *Translator) OptionsFor(model any) (*TranslationOptions, error) {
	if model == nil {
		return nil, ErrInvalidAccess
	}
	return t.optionsForType(modelType(model))
}

func (t *Translator) optionsForType(rt reflect.Type) (*TranslationOptions, error) {
	t.mu.RLock()
	if options, ok := t.registry[rt]; ok {
		t.mu.RUnlock()
		return options, nil
	}

	parents := t.collectParents(rt, nil)
	t.mu.RUnlock()

	if len(parents) == 0 {
		return nil, fmt.Errorf("%s: %w", rt.Name(), ErrNotRegistered)
	}
	return t.inheritOptions(rt, parents)
}

// collectParents gathers the registered ancestors reachable through anonymous
// embedding, ordered by registration. Must hold at least a read lock.
func (t *Translator) collectParents(rt reflect.Type, acc []*TranslationOptions) []*TranslationOptions {
	if rt.Kind() != reflect.Struct {
		return acc
	}
	for i := 0; i < rt.NumField(); i++ {
		ft := rt.Field(i)
		if !ft.Anonymous {
			continue
		}
		embedded := ft.Type
		if embedded.Kind() == reflect.Ptr {
			embedded = embedded.Elem()
		}
		if options, ok := t.registry[embedded]; ok {
			acc = append(acc, options)
			continue
		}
		acc = t.collectParents(embedded, acc)
	}

	// registration order, not embedding order
	for i := 1; i < len(acc); i++ {
		for j := i; j > 0 && acc[j].seq < acc[j-1].seq; j-- {
			acc[j], acc[j-1] = acc[j-1], acc[j]
		}
	}
	return acc
}

// inheritOptions builds ephemeral options for an unregistered subtype from
// its registered ancestors. The subtype's own schema is parsed so shadow
// definitions resolve against its promoted fields.
func (t *Translator) inheritOptions(rt reflect.Type, parents []*TranslationOptions) (*TranslationOptions, error) {
	sch, err := schema.Parse(reflect.New(rt).Interface(), &t.schemaCache, t.namer)
	if err != nil {
		return nil, fmt.Errorf("options for %s: %w", rt.Name(), err)
	}

	options := &TranslationOptions{
		LocalizedFieldnames:    make(map[string][]string),
		LocalizedFieldnamesRev: make(map[string]string),
		schema:                 sch,
		shadows:                make(map[string]map[lang.Code]*ShadowField),
		fallbacks:              make(map[string]*Fallback),
		ephemeral:              true,
	}

	for _, parent := range parents {
		for _, name := range parent.Fields {
			if _, seen := options.shadows[name]; seen {
				continue
			}

			perLang := make(map[lang.Code]*ShadowField, len(t.cfg.Languages))
			physicals := make([]string, 0, len(t.cfg.Languages))
			for _, code := range t.cfg.Languages {
				sf, sErr := synthesizeField(sch, name, code, &t.cfg)
				if sErr != nil {
					return nil, fmt.Errorf("options for %s: %w", rt.Name(), sErr)
				}
				perLang[code] = sf
				physicals = append(physicals, sf.DBName)
				options.LocalizedFieldnamesRev[sf.DBName] = sf.LogicalName
			}

			options.Fields = append(options.Fields, name)
			options.LocalizedFieldnames[name] = physicals
			options.shadows[name] = perLang
			if fb, ok := parent.fallbacks[name]; ok {
				options.fallbacks[name] = fb
			}
		}
	}
	return options, nil
}
