package epub

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOPF = `<?xml version="1.0" encoding="utf-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="uid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>The Left Hand of Darkness</dc:title>
    <dc:creator id="author">Ursula K. Le Guin</dc:creator>
    <dc:subject>Science Fiction</dc:subject>
    <dc:subject>  </dc:subject>
    <dc:description>A story of the planet Gethen.</dc:description>
    <dc:date>1969-03-01</dc:date>
    <dc:language>en</dc:language>
    <meta refines="#author" property="role">aut</meta>
    <meta name="calibre:series" content="Hainish Cycle"/>
    <meta name="calibre:series_index" content="4.0"/>
    <meta name="cover" content="cover-img"/>
  </metadata>
  <manifest>
    <item id="cover-img" href="images/cover.jpg" media-type="image/jpeg"/>
    <item id="text" href="text/ch1.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
</package>`

func TestParseOPF(t *testing.T) {
	t.Parallel()

	opf, err := ParseOPF("OEBPS/content.opf", strings.NewReader(testOPF))
	require.NoError(t, err)

	assert.Equal(t, "The Left Hand of Darkness", opf.Title)
	assert.Equal(t, []string{"Ursula K. Le Guin"}, opf.Authors)
	assert.Equal(t, "Hainish Cycle", opf.Series)
	require.NotNil(t, opf.SeriesNumber)
	assert.Equal(t, 4, *opf.SeriesNumber)
	assert.Equal(t, []string{"Science Fiction"}, opf.Genres)
	assert.Equal(t, "A story of the planet Gethen.", opf.Description)
	assert.Equal(t, "1969-03-01", opf.Date)
	assert.Equal(t, "en", opf.Language)
	assert.Equal(t, "OEBPS/images/cover.jpg", opf.CoverFilepath)
	assert.Equal(t, "image/jpeg", opf.CoverMimeType)
}

func TestParseOPF_CoverImageProperty(t *testing.T) {
	t.Parallel()

	doc := `<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Untitled</dc:title>
  </metadata>
  <manifest>
    <item id="c" href="cover.png" media-type="image/png" properties="cover-image"/>
  </manifest>
</package>`

	opf, err := ParseOPF("content.opf", strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "cover.png", opf.CoverFilepath)
	assert.Equal(t, "image/png", opf.CoverMimeType)
}

func writeTestEPUB(t *testing.T, path string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)

	container := `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`
	cw, err := w.Create("META-INF/container.xml")
	require.NoError(t, err)
	_, err = cw.Write([]byte(container))
	require.NoError(t, err)

	ow, err := w.Create("OEBPS/content.opf")
	require.NoError(t, err)
	_, err = ow.Write([]byte(testOPF))
	require.NoError(t, err)

	iw, err := w.Create("OEBPS/images/cover.jpg")
	require.NoError(t, err)
	_, err = iw.Write([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10})
	require.NoError(t, err)

	require.NoError(t, w.Close())
}

func TestParse(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "book.epub")
	writeTestEPUB(t, path)

	meta, err := Parse(path)
	require.NoError(t, err)

	assert.Equal(t, "The Left Hand of Darkness", meta.Title)
	assert.Equal(t, []string{"Ursula K. Le Guin"}, meta.Authors)
	assert.Equal(t, "Hainish Cycle", meta.Series)
	assert.Equal(t, "en", meta.Lang)
	assert.Equal(t, "image/jpeg", meta.CoverMimeType)
	assert.NotEmpty(t, meta.CoverData)
}

func TestParse_NotAZip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.epub")
	require.NoError(t, os.WriteFile(path, []byte("not a zip archive"), 0o644))

	_, err := Parse(path)
	require.Error(t, err)
}
