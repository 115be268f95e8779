// Package kamusi makes a chosen set of gorm model attributes transparently
// multilingual. Each registered attribute gets one shadow column per
// configured language; reads and writes of the logical attribute are routed
// to the slot of the language carried by the context, with the configured
// default language living in the original column. A gorm plugin rewrites
// queries so filters, ordering and map-form updates naming a logical
// attribute address the active language's column.
//
// Usage follows three steps. Configure and register at startup:
//
//	tr, err := kamusi.New(kamusi.Config{
//	    Languages: []lang.Code{"en", "sw", "de"},
//	    Default:   "en",
//	})
//	err = tr.Register(ctx, &Article{},
//	    kamusi.WithFields("Title", "Body"),
//	    kamusi.WithFallbackFor("Body", ""))
//
// Install the plugin and migrate:
//
//	err = db.Use(kamusi.NewPlugin(tr))
//	err = tr.Migrate(ctx, db, &Article{})
//
// Then put the language on the context and use the database as usual:
//
//	ctx = lang.ToContext(ctx, "sw")
//	db.WithContext(ctx).Where("title = ?", "Habari").First(&article)
//	title, err := tr.Get(ctx, &article, "Title")
package kamusi
