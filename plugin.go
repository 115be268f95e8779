package kamusi

import (
	"reflect"

	"github.com/pitabwire/util"
	"github.com/spf13/cast"
	"gorm.io/gorm"
)

// Plugin wires the translator into a gorm session: query/update/delete
// statements get their translatable column references rewritten for the
// ambient language, found instances get their shadow columns bulk-loaded
// into the side channel, and dirty shadow slots get written back after
// create and update.
type Plugin struct {
	tr *Translator
}

// NewPlugin returns the gorm plugin for a translator. Install it with
// db.Use.
func NewPlugin(tr *Translator) *Plugin {
	return &Plugin{tr: tr}
}

func (p *Plugin) Name() string {
	return "kamusi:translation"
}

// Initialize registers the plugin's callbacks. Rewriting runs before the
// language pin so filters resolve against the caller's language; the shadow
// writeback runs before the restore so it observes the pinned default.
func (p *Plugin) Initialize(db *gorm.DB) error {
	queryCallback := db.Callback().Query()
	if err := queryCallback.Before("gorm:query").
		Register("kamusi:rewrite_query", p.rewriteWhere); err != nil {
		return err
	}
	if err := queryCallback.After("gorm:query").
		Register("kamusi:load_shadow", p.loadShadow); err != nil {
		return err
	}

	// The pin must precede gorm:before_create, where BeforeSave and
	// BeforeCreate hooks run, and the restore must follow the hooks in
	// gorm:after_create. The shadow writeback sits between the insert and
	// the restore so it runs under the pinned default language.
	createCallback := db.Callback().Create()
	if err := createCallback.Before("gorm:before_create").
		Register("kamusi:pin_language", p.pinLanguage); err != nil {
		return err
	}
	if err := createCallback.After("gorm:create").
		Register("kamusi:store_shadow", p.storeShadow); err != nil {
		return err
	}
	if err := createCallback.After("gorm:after_create").
		Register("kamusi:restore_language", p.restoreLanguage); err != nil {
		return err
	}

	// Rewriting resolves columns against the caller's language, so it runs
	// before the pin.
	updateCallback := db.Callback().Update()
	if err := updateCallback.Before("gorm:before_update").
		Register("kamusi:rewrite_update", p.rewriteUpdate); err != nil {
		return err
	}
	if err := updateCallback.Before("gorm:before_update").After("kamusi:rewrite_update").
		Register("kamusi:pin_language", p.pinLanguage); err != nil {
		return err
	}
	if err := updateCallback.After("gorm:update").
		Register("kamusi:store_shadow", p.storeShadow); err != nil {
		return err
	}
	if err := updateCallback.After("gorm:after_update").
		Register("kamusi:restore_language", p.restoreLanguage); err != nil {
		return err
	}

	if err := db.Callback().Delete().Before("gorm:delete").
		Register("kamusi:rewrite_delete", p.rewriteWhere); err != nil {
		return err
	}
	return db.Callback().Row().Before("gorm:row").
		Register("kamusi:rewrite_row", p.rewriteWhere)
}

// optionsOf resolves the translation options behind a statement, or nil
// when the statement is not subject to translation: no parsed schema (raw
// table statements, including the plugin's own auxiliary ones), an
// unregistered model, or the ignore marker set.
func (p *Plugin) optionsOf(db *gorm.DB) *TranslationOptions {
	stmt := db.Statement
	if stmt == nil || stmt.Schema == nil {
		return nil
	}
	if _, ignored := stmt.Settings.Load(settingIgnore); ignored {
		return nil
	}

	options, err := p.tr.optionsForType(stmt.Schema.ModelType)
	if err != nil {
		return nil
	}
	return options
}

func (p *Plugin) rewriteWhere(db *gorm.DB) {
	options := p.optionsOf(db)
	if options == nil {
		return
	}
	if r := p.tr.rewriterFor(db.Statement.Context, options); r != nil {
		r.statement(db.Statement)
	}
}

func (p *Plugin) rewriteUpdate(db *gorm.DB) {
	options := p.optionsOf(db)
	if options == nil {
		return
	}
	if r := p.tr.rewriterFor(db.Statement.Context, options); r != nil {
		r.statement(db.Statement)
		r.updateDest(db.Statement)
	}
}

// loadShadow fills the side channel of every found instance from the shadow
// columns, with one auxiliary SELECT per query keyed by primary key.
func (p *Plugin) loadShadow(db *gorm.DB) {
	options := p.optionsOf(db)
	if options == nil || db.Error != nil {
		return
	}

	stmt := db.Statement
	pk := stmt.Schema.PrioritizedPrimaryField
	if pk == nil {
		return
	}

	instances := statementInstances(stmt)
	if len(instances) == 0 {
		return
	}

	keys := make([]interface{}, 0, len(instances))
	byKey := make(map[string]reflect.Value, len(instances))
	for _, rv := range instances {
		value, zero := pk.ValueOf(stmt.Context, rv)
		if zero {
			continue
		}
		keys = append(keys, value)
		byKey[cast.ToString(value)] = rv
	}
	if len(keys) == 0 {
		return
	}

	shadows := options.ShadowFields()
	columns := make([]string, 0, len(shadows)+1)
	columns = append(columns, pk.DBName)
	for _, sf := range shadows {
		columns = append(columns, sf.DBName)
	}

	var rows []map[string]interface{}
	err := db.Session(&gorm.Session{NewDB: true}).
		Set(settingIgnore, true).
		Table(stmt.Table).
		Select(columns).
		Where(pk.DBName+" IN ?", keys).
		Find(&rows).Error
	if err != nil {
		util.Log(stmt.Context).WithError(err).
			WithField("table", stmt.Table).
			Error("loading translation columns failed")
		_ = db.AddError(err)
		return
	}

	for _, row := range rows {
		rv, ok := byKey[cast.ToString(row[pk.DBName])]
		if !ok || !rv.CanAddr() {
			continue
		}
		side, tErr := translatableOf(rv.Addr().Interface())
		if tErr != nil {
			continue
		}
		for _, sf := range shadows {
			side.loadTranslation(sf.LogicalName, sf.Language, cast.ToString(row[sf.DBName]))
		}
		side.clearDirty()
	}
}

// storeShadow persists dirty shadow slots after a create or update, one
// auxiliary UPDATE per instance that has any.
func (p *Plugin) storeShadow(db *gorm.DB) {
	options := p.optionsOf(db)
	if options == nil || db.Error != nil {
		return
	}

	stmt := db.Statement
	pk := stmt.Schema.PrioritizedPrimaryField
	if pk == nil {
		return
	}

	for _, rv := range statementInstances(stmt) {
		if !rv.CanAddr() {
			continue
		}
		side, err := translatableOf(rv.Addr().Interface())
		if err != nil {
			continue
		}
		dirty := side.dirtySlots()
		if len(dirty) == 0 {
			continue
		}

		key, zero := pk.ValueOf(stmt.Context, rv)
		if zero {
			continue
		}

		updates := make(map[string]interface{})
		for field, perLang := range dirty {
			for code, value := range perLang {
				if sf := options.Shadow(field, code); sf != nil {
					updates[sf.DBName] = value
				}
			}
		}
		if len(updates) == 0 {
			continue
		}

		err = db.Session(&gorm.Session{NewDB: true}).
			Set(settingIgnore, true).
			Table(stmt.Table).
			Where(pk.DBName+" = ?", key).
			UpdateColumns(updates).Error
		if err != nil {
			util.Log(stmt.Context).WithError(err).
				WithField("table", stmt.Table).
				Error("storing translation columns failed")
			_ = db.AddError(err)
			return
		}
		side.clearDirty()
	}
}

// statementInstances collects the struct values of a statement destination,
// one per model instance for both single and slice destinations.
func statementInstances(stmt *gorm.Statement) []reflect.Value {
	switch stmt.ReflectValue.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]reflect.Value, 0, stmt.ReflectValue.Len())
		for i := 0; i < stmt.ReflectValue.Len(); i++ {
			rv := stmt.ReflectValue.Index(i)
			for rv.Kind() == reflect.Ptr && !rv.IsNil() {
				rv = rv.Elem()
			}
			if rv.Kind() == reflect.Struct {
				out = append(out, rv)
			}
		}
		return out
	case reflect.Struct:
		return []reflect.Value{stmt.ReflectValue}
	}
	return nil
}
