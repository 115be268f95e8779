package kamusi

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"gorm.io/gorm/schema"

	"github.com/kamusihq/kamusi/lang"
)

// URL marks a string field as holding a URI, mirroring the dedicated URL
// field kind of the storage layer. Translation treats it like any other
// string kind; form layers may render it differently.
type URL string

// FilePath marks a string field as a reference into file storage. Reads
// through a translated FilePath attribute return a lazily wrapped *File.
type FilePath string

// ImagePath is a FilePath that references an image.
type ImagePath string

// FieldKind categorizes the storage contract of a translatable attribute.
type FieldKind int

const (
	KindChar FieldKind = iota
	KindText
	KindURL
	KindFile
	KindImage
	KindCustom
)

func (k FieldKind) String() string {
	switch k {
	case KindChar:
		return "char"
	case KindText:
		return "text"
	case KindURL:
		return "url"
	case KindFile:
		return "file"
	case KindImage:
		return "image"
	case KindCustom:
		return "custom"
	}
	return "unknown"
}

// IsFileLike reports whether values of this kind are wrapped into *File
// handles on read.
func (k FieldKind) IsFileLike() bool {
	return k == KindFile || k == KindImage
}

// ShadowField describes one synthesized per-language storage column. It is a
// clone of the source field's storage contract with optionality forced and a
// deterministic name derived from (logical attribute, language code).
type ShadowField struct {
	// LogicalName is the attribute the column shadows, by struct field name.
	LogicalName string
	// Language is the configured language this column stores.
	Language lang.Code
	// DBName is the physical column name, "<source column>_<suffix>".
	DBName string
	// Kind matches the source field's kind.
	Kind FieldKind
	// Label is the source field's display label with a " [code]" suffix,
	// for form and admin consumers.
	Label string

	// source is the parsed gorm field the column was cloned from.
	source *schema.Field
}

// Definition returns a gorm schema field describing the shadow column so
// the migrator can derive its full column type. The clone keeps the source
// field's data type, size and precision but is always nullable and never
// unique, primary or auto-incrementing: translations are optional by
// definition.
func (sf *ShadowField) Definition() *schema.Field {
	clone := *sf.source
	clone.Name = sf.LogicalName + "_" + strings.ToUpper(lang.ColumnSuffix(sf.Language))
	clone.DBName = sf.DBName
	clone.NotNull = false
	clone.Unique = false
	clone.PrimaryKey = false
	clone.AutoIncrement = false
	clone.HasDefaultValue = false
	clone.DefaultValue = ""
	clone.Comment = sf.Label
	return &clone
}

var fileKinds = map[reflect.Type]FieldKind{
	reflect.TypeOf(URL("")):       KindURL,
	reflect.TypeOf(FilePath("")):  KindFile,
	reflect.TypeOf(ImagePath("")): KindImage,
}

// fieldKind classifies a parsed model field, honoring the configured custom
// kind whitelist. Anything that is not string-backed is unsupported: the
// translation layer stores text, paths and URIs, nothing else.
func fieldKind(field *schema.Field, cfg *Config) (FieldKind, error) {
	ft := field.IndirectFieldType

	if kind, ok := fileKinds[ft]; ok {
		return kind, nil
	}

	if ft.Kind() == reflect.String {
		if ft != reflect.TypeOf("") {
			if slices.Contains(cfg.CustomKinds, ft.String()) {
				return KindCustom, nil
			}
			return 0, fmt.Errorf("%w: %s (%s)", ErrUnsupportedFieldKind, field.Name, ft.String())
		}
		if strings.EqualFold(string(field.DataType), "text") || field.Size == 0 {
			return KindText, nil
		}
		return KindChar, nil
	}

	return 0, fmt.Errorf("%w: %s (%s)", ErrUnsupportedFieldKind, field.Name, ft.String())
}

// fieldLabel derives the human-readable label of a field: the gorm column
// comment when present, otherwise the lowercased field name.
func fieldLabel(field *schema.Field) string {
	if field.Comment != "" {
		return field.Comment
	}
	return strings.ToLower(field.Name)
}

// synthesizeField clones the definition of the named attribute into a shadow
// field for one language. The attribute must exist on the model and be of a
// supported kind. Collision checks are the caller's responsibility; the
// synthesizer itself is a pure derivation.
func synthesizeField(sch *schema.Schema, name string, code lang.Code, cfg *Config) (*ShadowField, error) {
	field := sch.LookUpField(name)
	if field == nil {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, sch.Name, name)
	}

	kind, err := fieldKind(field, cfg)
	if err != nil {
		return nil, err
	}

	return &ShadowField{
		LogicalName: field.Name,
		Language:    code,
		DBName:      field.DBName + "_" + lang.ColumnSuffix(code),
		Kind:        kind,
		Label:       fmt.Sprintf("%s [%s]", fieldLabel(field), code),
		source:      field,
	}, nil
}
