package kamusi

import (
	"context"
	"fmt"

	"github.com/pitabwire/util"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Migrate brings the schema of the supplied registered models up to date:
// gorm's AutoMigrate for the base tables, then one ALTER TABLE ADD per
// missing shadow column. Existing columns are never altered, dropped or
// reused, so unregistering a model leaves its translation data in place.
func (t *Translator) Migrate(ctx context.Context, db *gorm.DB, models ...any) error {
	log := util.Log(ctx)

	for _, model := range models {
		options, err := t.OptionsFor(model)
		if err != nil {
			return fmt.Errorf("migrate %T: %w", model, err)
		}

		if err = db.WithContext(ctx).AutoMigrate(model); err != nil {
			return fmt.Errorf("migrate %T: %w", model, err)
		}

		migrator := db.WithContext(ctx).Migrator()
		table := options.schema.Table

		for _, sf := range options.ShadowFields() {
			if migrator.HasColumn(model, sf.DBName) {
				continue
			}

			err = db.WithContext(ctx).Exec(
				"ALTER TABLE ? ADD ? ?",
				clause.Table{Name: table},
				clause.Column{Name: sf.DBName},
				migrator.FullDataTypeOf(sf.Definition()),
			).Error
			if err != nil {
				return fmt.Errorf("migrate %s: add column %s: %w", table, sf.DBName, err)
			}

			log.WithField("table", table).
				WithField("column", sf.DBName).
				WithField("language", string(sf.Language)).
				Info("added translation column")
		}
	}
	return nil
}
