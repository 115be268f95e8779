package kamusi_test

import (
	"context"

	"github.com/rs/xid"
	"gorm.io/gorm"

	"github.com/kamusihq/kamusi"
	"github.com/kamusihq/kamusi/lang"
)

// Article is the basic translatable fixture: a sized string, an unsized
// text column and an untranslatable numeric column.
type Article struct {
	kamusi.Translatable
	ID    string `gorm:"primaryKey;type:varchar(20)"`
	Title string `gorm:"size:255;comment:title"`
	Body  string
	Views int64
}

func (a *Article) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = xid.New().String()
	}
	return nil
}

// lastHookLanguage records the language the most recent BeforeSave hook
// observed, for asserting the lifecycle pin.
var lastHookLanguage lang.Code

func (a *Article) BeforeSave(tx *gorm.DB) error {
	lastHookLanguage = lang.FromContext(tx.Statement.Context)
	return nil
}

// Press embeds Article without being registered itself; translation options
// are inherited through the embed.
type Press struct {
	Article
	Outlet string `gorm:"size:100"`
}

// Document exercises the file, image and URL field kinds.
type Document struct {
	kamusi.Translatable
	ID         string           `gorm:"primaryKey;type:varchar(20)"`
	Name       string           `gorm:"size:100"`
	Attachment kamusi.FilePath  `gorm:"size:255"`
	Cover      kamusi.ImagePath `gorm:"size:255"`
	Homepage   kamusi.URL       `gorm:"size:200"`
}

func (d *Document) BeforeCreate(_ *gorm.DB) error {
	if d.ID == "" {
		d.ID = xid.New().String()
	}
	return nil
}

// Clash declares its own column where a shadow column would go.
type Clash struct {
	kamusi.Translatable
	ID      string `gorm:"primaryKey;type:varchar(20)"`
	Title   string `gorm:"size:255"`
	TitleSw string `gorm:"size:255"`
}

// SKU is a string-backed domain type used to exercise the custom kind
// whitelist.
type SKU string

type Product struct {
	kamusi.Translatable
	ID   string `gorm:"primaryKey;type:varchar(20)"`
	Code SKU    `gorm:"size:64"`
}

// Plain has no Translatable embed.
type Plain struct {
	ID    string `gorm:"primaryKey;type:varchar(20)"`
	Title string `gorm:"size:255"`
}

func testConfig() kamusi.Config {
	return kamusi.Config{
		Languages: []lang.Code{"en", "sw", "de"},
		Default:   "en",
	}
}

func newTestTranslator(ctx context.Context, opts ...kamusi.TranslatorOption) (*kamusi.Translator, error) {
	tr, err := kamusi.New(testConfig(), opts...)
	if err != nil {
		return nil, err
	}
	if err = tr.Register(ctx, &Article{}, kamusi.WithFields("Title", "Body")); err != nil {
		return nil, err
	}
	return tr, nil
}
