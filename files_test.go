package kamusi_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kamusihq/kamusi"
	"github.com/kamusihq/kamusi/lang"
)

func newDocumentTranslator(t *testing.T, ctx context.Context, opts ...kamusi.TranslatorOption) *kamusi.Translator {
	t.Helper()

	tr, err := kamusi.New(testConfig(), opts...)
	require.NoError(t, err)
	err = tr.Register(ctx, &Document{}, kamusi.WithFields("Attachment", "Cover"))
	require.NoError(t, err)
	return tr
}

func TestFileLazyWrapAndCache(t *testing.T) {
	ctx := context.Background()
	tr := newDocumentTranslator(t, ctx)

	doc := &Document{Attachment: kamusi.FilePath("manuals/en.pdf")}
	swCtx := lang.ToContext(ctx, "sw")
	require.NoError(t, tr.Set(swCtx, doc, "Attachment", "manuals/sw.pdf"))

	file, err := tr.FileOf(swCtx, doc, "Attachment")
	require.NoError(t, err)
	require.Equal(t, "manuals/sw.pdf", file.Name())

	again, err := tr.FileOf(swCtx, doc, "Attachment")
	require.NoError(t, err)
	require.Same(t, file, again, "repeated reads under one language should reuse the handle")

	enFile, err := tr.FileOf(ctx, doc, "Attachment")
	require.NoError(t, err)
	require.Equal(t, "manuals/en.pdf", enFile.Name(), "default language wraps the struct field value")
	require.NotSame(t, file, enFile, "each language caches its own handle")
}

func TestFileCacheInvalidatedByWrite(t *testing.T) {
	ctx := context.Background()
	tr := newDocumentTranslator(t, ctx)

	doc := &Document{}
	swCtx := lang.ToContext(ctx, "sw")
	require.NoError(t, tr.Set(swCtx, doc, "Attachment", "one.pdf"))

	file, err := tr.FileOf(swCtx, doc, "Attachment")
	require.NoError(t, err)
	require.Equal(t, "one.pdf", file.Name())

	require.NoError(t, tr.Set(swCtx, doc, "Attachment", "two.pdf"))

	file, err = tr.FileOf(swCtx, doc, "Attachment")
	require.NoError(t, err)
	require.Equal(t, "two.pdf", file.Name(), "writing the slot should drop the stale handle")

	enFile, err := tr.FileOf(ctx, doc, "Attachment")
	require.NoError(t, err)
	require.Empty(t, enFile.Name())

	require.NoError(t, tr.Set(ctx, doc, "Attachment", "base.pdf"))

	enFile, err = tr.FileOf(ctx, doc, "Attachment")
	require.NoError(t, err)
	require.Equal(t, "base.pdf", enFile.Name(),
		"a default-language write should drop the stale handle too")
	require.EqualValues(t, "base.pdf", doc.Attachment)
}

func TestFileBorrowsDefaultValue(t *testing.T) {
	ctx := context.Background()
	tr := newDocumentTranslator(t, ctx)

	doc := &Document{Cover: kamusi.ImagePath("covers/base.png")}

	file, err := tr.FileOf(lang.ToContext(ctx, "de"), doc, "Cover")
	require.NoError(t, err)
	require.Equal(t, "covers/base.png", file.Name(), "untranslated file slots borrow the default path")
}

func TestFileOnNonFileField(t *testing.T) {
	ctx := context.Background()
	tr, err := newTestTranslator(ctx)
	require.NoError(t, err)

	_, err = tr.FileOf(ctx, &Article{}, "Title")
	require.ErrorIs(t, err, kamusi.ErrInvalidAccess)
}

func TestFileURLAndZero(t *testing.T) {
	file := kamusi.NewFile("covers/base.png", kamusi.DirStorage{Root: "."})
	require.False(t, file.IsZero())
	require.Equal(t, "https://cdn.example.com/covers/base.png", file.URL("https://cdn.example.com/"))
	require.Equal(t, "https://cdn.example.com/covers/base.png", file.URL("https://cdn.example.com"))

	empty := kamusi.NewFile("", kamusi.DirStorage{Root: "."})
	require.True(t, empty.IsZero())
	require.Empty(t, empty.URL("https://cdn.example.com"))
	_, err := empty.Open(context.Background())
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestDirStorageOpen(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "manuals"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "manuals", "sw.pdf"), []byte("yaliyomo"), 0o644))

	tr := newDocumentTranslator(t, ctx, kamusi.WithStorage(kamusi.DirStorage{Root: root}))

	doc := &Document{}
	swCtx := lang.ToContext(ctx, "sw")
	require.NoError(t, tr.Set(swCtx, doc, "Attachment", "manuals/sw.pdf"))

	file, err := tr.FileOf(swCtx, doc, "Attachment")
	require.NoError(t, err)

	reader, err := file.Open(swCtx)
	require.NoError(t, err)
	defer reader.Close()

	content, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.Equal(t, "yaliyomo", string(content))
}
