package kamusi

import (
	"reflect"
	"sync"

	"github.com/kamusihq/kamusi/lang"
)

// Translatable is embedded into every model registered for translation. It
// carries the per-language values of the model's translatable attributes
// alongside the struct fields gorm maps, so the model type itself never
// needs a field per (attribute, language) pair.
//
//	type Article struct {
//	    kamusi.Translatable
//	    ID    string
//	    Title string `gorm:"size:255"`
//	}
//
// All fields are unexported; models gain no extra columns from the embed.
type Translatable struct {
	mu sync.Mutex

	// translations holds the physical per-language slots keyed by logical
	// struct field name then language code. The default language never
	// lives here: its slot is the original struct field.
	translations map[string]map[lang.Code]string

	// dirty marks slots written since the last load or store, keyed the
	// same way, so persistence only touches columns that changed.
	dirty map[string]map[lang.Code]bool

	// files caches lazily wrapped *File handles per (field, language) so
	// repeated reads of a file attribute return the same handle.
	files map[string]map[lang.Code]*File
}

// Translation returns the raw value stored in the physical slot for
// (attribute, language) without any fallback or default-language
// indirection. The second result reports whether the slot holds a value.
func (t *Translatable) Translation(field string, code lang.Code) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	perLang, ok := t.translations[field]
	if !ok {
		return "", false
	}
	value, ok := perLang[code]
	return value, ok
}

// SetTranslation writes the physical slot for (attribute, language)
// directly, bypassing the active-language indirection. The slot is marked
// dirty so the next save persists it.
func (t *Translatable) SetTranslation(field string, code lang.Code, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.storeLocked(field, code, value)
	t.markDirtyLocked(field, code)
}

// loadTranslation fills a slot from the database without marking it dirty.
func (t *Translatable) loadTranslation(field string, code lang.Code, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.storeLocked(field, code, value)
}

func (t *Translatable) storeLocked(field string, code lang.Code, value string) {
	if t.translations == nil {
		t.translations = make(map[string]map[lang.Code]string)
	}
	perLang, ok := t.translations[field]
	if !ok {
		perLang = make(map[lang.Code]string)
		t.translations[field] = perLang
	}
	perLang[code] = value

	if t.files != nil {
		delete(t.files[field], code)
	}
}

func (t *Translatable) markDirtyLocked(field string, code lang.Code) {
	if t.dirty == nil {
		t.dirty = make(map[string]map[lang.Code]bool)
	}
	perLang, ok := t.dirty[field]
	if !ok {
		perLang = make(map[lang.Code]bool)
		t.dirty[field] = perLang
	}
	perLang[code] = true
}

// dirtySlots returns the (field, language) pairs written since the last
// load or store, with their current values.
func (t *Translatable) dirtySlots() map[string]map[lang.Code]string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]map[lang.Code]string, len(t.dirty))
	for field, perLang := range t.dirty {
		for code := range perLang {
			if out[field] == nil {
				out[field] = make(map[lang.Code]string)
			}
			out[field][code] = t.translations[field][code]
		}
	}
	return out
}

// clearDirty forgets dirty marks after a successful store.
func (t *Translatable) clearDirty() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.dirty = nil
}

// invalidateFile drops the memoized handle for a slot whose backing value
// changed outside the shadow store, such as a default-language write to
// the original struct field.
func (t *Translatable) invalidateFile(field string, code lang.Code) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.files != nil {
		delete(t.files[field], code)
	}
}

// cachedFile returns the memoized file handle for a slot, if any.
func (t *Translatable) cachedFile(field string, code lang.Code) *File {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.files[field][code]
}

// cacheFile memoizes a wrapped file handle for a slot.
func (t *Translatable) cacheFile(field string, code lang.Code, f *File) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.files == nil {
		t.files = make(map[string]map[lang.Code]*File)
	}
	perLang, ok := t.files[field]
	if !ok {
		perLang = make(map[lang.Code]*File)
		t.files[field] = perLang
	}
	perLang[code] = f
}

var translatableType = reflect.TypeOf(Translatable{})

// translatableOf returns the Translatable embedded in the supplied model
// instance, which must be a non-nil pointer to a struct embedding it.
func translatableOf(instance any) (*Translatable, error) {
	rv := reflect.ValueOf(instance)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return nil, ErrInvalidAccess
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return nil, ErrInvalidAccess
	}

	fv, err := findTranslatable(rv)
	if err != nil {
		return nil, err
	}
	return fv.Addr().Interface().(*Translatable), nil
}

func findTranslatable(rv reflect.Value) (reflect.Value, error) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		ft := rt.Field(i)
		if !ft.Anonymous {
			continue
		}
		if ft.Type == translatableType {
			return rv.Field(i), nil
		}
		if ft.Type.Kind() == reflect.Struct {
			if fv, err := findTranslatable(rv.Field(i)); err == nil {
				return fv, nil
			}
		}
	}
	return reflect.Value{}, ErrNotTranslatable
}

// embedsTranslatable reports whether the model type embeds Translatable,
// directly or through a chain of anonymous structs.
func embedsTranslatable(rt reflect.Type) bool {
	if rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	if rt.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < rt.NumField(); i++ {
		ft := rt.Field(i)
		if !ft.Anonymous {
			continue
		}
		if ft.Type == translatableType {
			return true
		}
		if ft.Type.Kind() == reflect.Struct && embedsTranslatable(ft.Type) {
			return true
		}
	}
	return false
}
