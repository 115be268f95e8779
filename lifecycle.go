package kamusi

import (
	"gorm.io/gorm"

	"github.com/kamusihq/kamusi/lang"
)

// statement settings keys; Settings rather than context so nested gorm
// sessions sharing one context cannot see each other's state.
const (
	// settingIgnore marks auxiliary shadow-column statements so the
	// plugin's own callbacks skip them.
	settingIgnore = "kamusi:ignore"

	// settingPinnedLanguage remembers the caller's language across a
	// persistence operation while the statement runs pinned to the
	// default language.
	settingPinnedLanguage = "kamusi:pinned_language"
)

// pinLanguage pins the statement context to the default language for the
// duration of a create or update. Model hooks and the shadow writeback then
// observe the default language, so a request running under "sw" cannot make
// a hook's attribute write land in the Swahili slot of a column that must
// hold the default-language value. The caller's own context is not touched.
func (p *Plugin) pinLanguage(db *gorm.DB) {
	stmt := db.Statement
	if p.optionsOf(db) == nil {
		return
	}

	stmt.Settings.Store(settingPinnedLanguage, lang.FromContext(stmt.Context))
	stmt.Context = lang.ToContext(stmt.Context, p.tr.cfg.Default)
}

// restoreLanguage undoes pinLanguage. It is registered as an after-callback
// and gorm runs after-callbacks even when the operation failed, so the
// statement never escapes with the pinned language.
func (p *Plugin) restoreLanguage(db *gorm.DB) {
	stmt := db.Statement

	prior, ok := stmt.Settings.Load(settingPinnedLanguage)
	if !ok {
		return
	}
	stmt.Settings.Delete(settingPinnedLanguage)
	stmt.Context = lang.ToContext(stmt.Context, prior.(lang.Code))
}
