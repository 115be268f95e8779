package kamusi_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/kamusihq/kamusi"
	"github.com/kamusihq/kamusi/lang"
)

type TranslatorTestSuite struct {
	suite.Suite
}

func TestTranslatorSuite(t *testing.T) {
	suite.Run(t, &TranslatorTestSuite{})
}

func (s *TranslatorTestSuite) TestRegisterBuildsFieldMappings() {
	ctx := context.Background()
	tr, err := newTestTranslator(ctx)
	require.NoError(s.T(), err)

	options, err := tr.OptionsFor(&Article{})
	require.NoError(s.T(), err)

	require.Equal(s.T(), []string{"Title", "Body"}, options.Fields, "fields should keep registration order")
	require.Equal(s.T(), []string{"title_en", "title_sw", "title_de"}, options.LocalizedFieldnames["Title"],
		"physical columns should follow configured language order")
	require.Equal(s.T(), "Title", options.LocalizedFieldnamesRev["title_sw"], "reverse mapping should invert forward")

	require.True(s.T(), options.Translates("Title"))
	require.True(s.T(), options.Translates("title"), "original column name should resolve too")
	require.False(s.T(), options.Translates("Views"))
	require.True(s.T(), options.IsShadowColumn("body_de"))

	sf := options.Shadow("Title", "sw")
	require.NotNil(s.T(), sf)
	require.Equal(s.T(), "title_sw", sf.DBName)
	require.Equal(s.T(), "title [sw]", sf.Label, "label should carry the language code")
}

func (s *TranslatorTestSuite) TestRegisterErrors() {
	testCases := []struct {
		name    string
		model   any
		opts    []kamusi.Option
		wantErr error
	}{
		{
			name:    "missing embed",
			model:   &Plain{},
			opts:    []kamusi.Option{kamusi.WithFields("Title")},
			wantErr: kamusi.ErrNotTranslatable,
		},
		{
			name:    "unknown field",
			model:   &Document{},
			opts:    []kamusi.Option{kamusi.WithFields("Missing")},
			wantErr: kamusi.ErrUnknownField,
		},
		{
			name:    "unsupported kind",
			model:   &Article{},
			opts:    []kamusi.Option{kamusi.WithFields("Views")},
			wantErr: kamusi.ErrUnsupportedFieldKind,
		},
		{
			name:    "shadow column collides with declared column",
			model:   &Clash{},
			opts:    []kamusi.Option{kamusi.WithFields("Title")},
			wantErr: kamusi.ErrDuplicateField,
		},
	}

	for _, tc := range testCases {
		s.T().Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			tr, err := kamusi.New(testConfig())
			require.NoError(t, err)

			err = tr.Register(ctx, tc.model, tc.opts...)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func (s *TranslatorTestSuite) TestRegisterTwice() {
	ctx := context.Background()
	tr, err := newTestTranslator(ctx)
	require.NoError(s.T(), err)

	err = tr.Register(ctx, &Article{}, kamusi.WithFields("Title"))
	require.ErrorIs(s.T(), err, kamusi.ErrAlreadyRegistered)
}

func (s *TranslatorTestSuite) TestRegisterWithoutFields() {
	ctx := context.Background()
	tr, err := kamusi.New(testConfig())
	require.NoError(s.T(), err)

	err = tr.Register(ctx, &Article{})
	require.Error(s.T(), err, "registration without fields should fail")
}

func (s *TranslatorTestSuite) TestUnregister() {
	ctx := context.Background()
	tr, err := newTestTranslator(ctx)
	require.NoError(s.T(), err)

	require.True(s.T(), tr.Registered(&Article{}))
	require.NoError(s.T(), tr.Unregister(&Article{}))
	require.False(s.T(), tr.Registered(&Article{}))

	_, err = tr.OptionsFor(&Article{})
	require.ErrorIs(s.T(), err, kamusi.ErrNotRegistered)

	err = tr.Unregister(&Article{})
	require.ErrorIs(s.T(), err, kamusi.ErrNotRegistered)
}

func (s *TranslatorTestSuite) TestInheritedOptions() {
	ctx := context.Background()
	tr, err := newTestTranslator(ctx)
	require.NoError(s.T(), err)

	options, err := tr.OptionsFor(&Press{})
	require.NoError(s.T(), err)

	require.Equal(s.T(), []string{"Title", "Body"}, options.Fields, "embedded parent's fields should be inherited")
	require.True(s.T(), options.Translates("Title"))
	require.False(s.T(), options.Translates("Outlet"), "subtype's own fields are not translated")

	require.False(s.T(), tr.Registered(&Press{}), "lookup through embedding must not register the subtype")
}

func (s *TranslatorTestSuite) TestFieldKinds() {
	ctx := context.Background()
	tr, err := kamusi.New(testConfig())
	require.NoError(s.T(), err)

	err = tr.Register(ctx, &Document{}, kamusi.WithFields("Name", "Attachment", "Cover", "Homepage"))
	require.NoError(s.T(), err)

	options, err := tr.OptionsFor(&Document{})
	require.NoError(s.T(), err)

	testCases := []struct {
		field string
		want  kamusi.FieldKind
	}{
		{field: "Name", want: kamusi.KindChar},
		{field: "Attachment", want: kamusi.KindFile},
		{field: "Cover", want: kamusi.KindImage},
		{field: "Homepage", want: kamusi.KindURL},
	}
	for _, tc := range testCases {
		sf := options.Shadow(tc.field, "sw")
		require.NotNil(s.T(), sf, tc.field)
		require.Equal(s.T(), tc.want, sf.Kind, tc.field)
	}

	require.True(s.T(), kamusi.KindFile.IsFileLike())
	require.True(s.T(), kamusi.KindImage.IsFileLike())
	require.False(s.T(), kamusi.KindChar.IsFileLike())
}

func (s *TranslatorTestSuite) TestCustomKindWhitelist() {
	ctx := context.Background()

	tr, err := kamusi.New(testConfig())
	require.NoError(s.T(), err)
	err = tr.Register(ctx, &Product{}, kamusi.WithFields("Code"))
	require.ErrorIs(s.T(), err, kamusi.ErrUnsupportedFieldKind,
		"unlisted named types are rejected")

	cfg := testConfig()
	cfg.CustomKinds = []string{"kamusi_test.SKU"}
	tr, err = kamusi.New(cfg)
	require.NoError(s.T(), err)
	require.NoError(s.T(), tr.Register(ctx, &Product{}, kamusi.WithFields("Code")))

	options, err := tr.OptionsFor(&Product{})
	require.NoError(s.T(), err)
	require.Equal(s.T(), kamusi.KindCustom, options.Shadow("Code", "sw").Kind)
}

func (s *TranslatorTestSuite) TestTextVersusChar() {
	ctx := context.Background()
	tr, err := newTestTranslator(ctx)
	require.NoError(s.T(), err)

	options, err := tr.OptionsFor(&Article{})
	require.NoError(s.T(), err)

	require.Equal(s.T(), kamusi.KindChar, options.Shadow("Title", "sw").Kind, "sized string should be char")
	require.Equal(s.T(), kamusi.KindText, options.Shadow("Body", "sw").Kind, "unsized string should be text")
}

func (s *TranslatorTestSuite) TestShadowDefinition() {
	ctx := context.Background()
	tr, err := newTestTranslator(ctx)
	require.NoError(s.T(), err)

	options, err := tr.OptionsFor(&Article{})
	require.NoError(s.T(), err)

	def := options.Shadow("Title", "sw").Definition()
	require.Equal(s.T(), "title_sw", def.DBName)
	require.False(s.T(), def.NotNull, "shadow columns are always nullable")
	require.False(s.T(), def.PrimaryKey)
	require.False(s.T(), def.Unique)
	require.EqualValues(s.T(), 255, def.Size, "size is cloned from the source column")
}

func (s *TranslatorTestSuite) TestShadowFieldsOrder() {
	ctx := context.Background()
	tr, err := newTestTranslator(ctx)
	require.NoError(s.T(), err)

	options, err := tr.OptionsFor(&Article{})
	require.NoError(s.T(), err)

	names := make([]string, 0)
	for _, sf := range options.ShadowFields() {
		names = append(names, sf.DBName)
	}
	require.Equal(s.T(),
		[]string{"title_en", "title_sw", "title_de", "body_en", "body_sw", "body_de"},
		names, "shadow fields should follow field then language order")
}

func (s *TranslatorTestSuite) TestActiveLanguage() {
	ctx := context.Background()
	tr, err := newTestTranslator(ctx)
	require.NoError(s.T(), err)

	require.Equal(s.T(), lang.Code("en"), tr.Active(ctx), "no ambient language resolves to the default")
	require.Equal(s.T(), lang.Code("sw"), tr.Active(lang.ToContext(ctx, "sw")))
	require.Equal(s.T(), lang.Code("en"), tr.Active(lang.ToContext(ctx, "fr")),
		"unconfigured languages resolve to the default")
}
