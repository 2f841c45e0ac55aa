package fb2

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var coverBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46}

func testFB2() string {
	return `<?xml version="1.0" encoding="utf-8"?>
<FictionBook xmlns="http://www.gribuser.ru/xml/fictionbook/2.0" xmlns:l="http://www.w3.org/1999/xlink">
<description>
  <title-info>
    <genre>sf</genre>
    <genre>sf_social</genre>
    <author>
      <first-name>Аркадий</first-name>
      <last-name>Стругацкий</last-name>
    </author>
    <author>
      <first-name>Борис</first-name>
      <last-name>Стругацкий</last-name>
    </author>
    <book-title>Пикник на обочине</book-title>
    <annotation>
      <p>Сталкеры ходят в Зону.</p>
      <p>За артефактами.</p>
    </annotation>
    <lang>ru</lang>
    <sequence name="Миры братьев Стругацких" number="7"/>
    <coverpage><image l:href="#cover.jpg"/></coverpage>
  </title-info>
  <document-info>
    <date>2008-01-15</date>
  </document-info>
</description>
<body><section><p>Текст книги.</p></section></body>
<binary id="cover.jpg" content-type="image/jpeg">` + base64.StdEncoding.EncodeToString(coverBytes) + `</binary>
</FictionBook>`
}

func TestParse(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "picnic.fb2")
	require.NoError(t, os.WriteFile(path, []byte(testFB2()), 0o644))

	meta, err := Parse(path)
	require.NoError(t, err)

	assert.Equal(t, "Пикник на обочине", meta.Title)
	assert.Equal(t, []string{"Аркадий Стругацкий", "Борис Стругацкий"}, meta.Authors)
	assert.Equal(t, []string{"sf", "sf_social"}, meta.Genres)
	assert.Equal(t, "ru", meta.Lang)
	assert.Equal(t, "Миры братьев Стругацких", meta.Series)
	require.NotNil(t, meta.SeriesNumber)
	assert.Equal(t, 7, *meta.SeriesNumber)
	assert.Equal(t, "Сталкеры ходят в Зону. За артефактами.", meta.Annotation)
	assert.Equal(t, "2008-01-15", meta.DocDate)
	assert.Equal(t, "image/jpeg", meta.CoverMimeType)
	assert.Equal(t, coverBytes, meta.CoverData)
}

func TestParse_MissingDescription(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.fb2")
	require.NoError(t, os.WriteFile(path, []byte(`<?xml version="1.0"?><FictionBook><body/></FictionBook>`), 0o644))

	_, err := Parse(path)
	require.Error(t, err)
}

func TestParse_SrcTitleInfoIgnored(t *testing.T) {
	t.Parallel()

	doc := `<?xml version="1.0"?>
<FictionBook>
<description>
  <title-info>
    <book-title>Translation</book-title>
  </title-info>
  <src-title-info>
    <book-title>Original</book-title>
    <author><first-name>Source</first-name><last-name>Author</last-name></author>
  </src-title-info>
</description>
</FictionBook>`

	meta, err := parse(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "Translation", meta.Title)
	assert.Empty(t, meta.Authors)
}

func TestParse_Windows1251(t *testing.T) {
	t.Parallel()

	// "Тест" encoded as windows-1251 bytes.
	title := []byte{0xD2, 0xE5, 0xF1, 0xF2}
	doc := append([]byte(`<?xml version="1.0" encoding="windows-1251"?><FictionBook><description><title-info><book-title>`), title...)
	doc = append(doc, []byte(`</book-title></title-info></description></FictionBook>`)...)

	path := filepath.Join(t.TempDir(), "cp1251.fb2")
	require.NoError(t, os.WriteFile(path, doc, 0o644))

	meta, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, "Тест", meta.Title)
}
