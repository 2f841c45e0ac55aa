package mobi

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46, 0x00, 0x01}

func exthRecord(recType uint32, value []byte) []byte {
	rec := make([]byte, 8+len(value))
	binary.BigEndian.PutUint32(rec[0:4], recType)
	binary.BigEndian.PutUint32(rec[4:8], uint32(len(rec)))
	copy(rec[8:], value)
	return rec
}

func buildTestMOBI(t *testing.T, exthRecords [][]byte, withImage bool) []byte {
	t.Helper()

	exthBody := []byte{}
	for _, rec := range exthRecords {
		exthBody = append(exthBody, rec...)
	}
	exth := make([]byte, 12)
	copy(exth[0:4], "EXTH")
	binary.BigEndian.PutUint32(exth[4:8], uint32(12+len(exthBody)))
	binary.BigEndian.PutUint32(exth[8:12], uint32(len(exthRecords)))
	exth = append(exth, exthBody...)

	const headerLength = 232
	rec0 := make([]byte, 16+headerLength)
	copy(rec0[16:20], "MOBI")
	binary.BigEndian.PutUint32(rec0[20:24], headerLength)
	binary.BigEndian.PutUint32(rec0[108:112], 1) // first image record
	if len(exthRecords) > 0 {
		binary.BigEndian.PutUint32(rec0[128:132], 0x40)
		rec0 = append(rec0, exth...)
	}

	fullName := []byte("Fledgling")
	binary.BigEndian.PutUint32(rec0[84:88], uint32(len(rec0)))
	binary.BigEndian.PutUint32(rec0[88:92], uint32(len(fullName)))
	rec0 = append(rec0, fullName...)

	numRecords := 1
	if withImage {
		numRecords = 2
	}

	header := make([]byte, 78+numRecords*8)
	copy(header[60:68], "BOOKMOBI")
	binary.BigEndian.PutUint16(header[76:78], uint16(numRecords))
	binary.BigEndian.PutUint32(header[78:82], uint32(len(header)))
	if withImage {
		binary.BigEndian.PutUint32(header[86:90], uint32(len(header)+len(rec0)))
	}

	data := append(header, rec0...)
	if withImage {
		data = append(data, jpegBytes...)
	}
	return data
}

func TestParse(t *testing.T) {
	t.Parallel()

	coverOffset := make([]byte, 4)
	data := buildTestMOBI(t, [][]byte{
		exthRecord(exthAuthor, []byte("Octavia E. Butler")),
		exthRecord(exthDescription, []byte("A vampire novel.")),
		exthRecord(exthSubject, []byte("Fantasy")),
		exthRecord(exthPublishDate, []byte("2005-07-05T00:00:00")),
		exthRecord(exthLanguage, []byte("en")),
		exthRecord(exthCoverOffset, coverOffset),
	}, true)

	path := filepath.Join(t.TempDir(), "fledgling.mobi")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	meta, err := Parse(path)
	require.NoError(t, err)

	assert.Equal(t, "Fledgling", meta.Title)
	assert.Equal(t, []string{"Octavia E. Butler"}, meta.Authors)
	assert.Equal(t, "A vampire novel.", meta.Annotation)
	assert.Equal(t, []string{"Fantasy"}, meta.Genres)
	assert.Equal(t, "2005-07-05", meta.DocDate)
	assert.Equal(t, "en", meta.Lang)
	assert.Equal(t, "image/jpeg", meta.CoverMimeType)
	assert.Equal(t, jpegBytes, meta.CoverData)
}

func TestParse_NoEXTH(t *testing.T) {
	t.Parallel()

	data := buildTestMOBI(t, nil, false)
	path := filepath.Join(t.TempDir(), "bare.mobi")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	meta, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, "Fledgling", meta.Title)
	assert.Empty(t, meta.Authors)
	assert.Empty(t, meta.CoverData)
}

func TestParse_NotMOBI(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.mobi")
	require.NoError(t, os.WriteFile(path, []byte("this is not a mobi file at all, just text"), 0o644))

	_, err := Parse(path)
	require.Error(t, err)
}

func TestParse_NameOffsetWraps(t *testing.T) {
	t.Parallel()

	data := buildTestMOBI(t, nil, false)
	rec0 := 78 + 8
	binary.BigEndian.PutUint32(data[rec0+84:rec0+88], 0xFFFFFFF0)
	binary.BigEndian.PutUint32(data[rec0+88:rec0+92], 0x20)
	path := filepath.Join(t.TempDir(), "wrapname.mobi")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	meta, err := Parse(path)
	require.NoError(t, err)
	assert.Empty(t, meta.Title)
}

func TestParse_HeaderLengthPastRecord(t *testing.T) {
	t.Parallel()

	data := buildTestMOBI(t, nil, false)
	rec0 := 78 + 8
	binary.BigEndian.PutUint32(data[rec0+20:rec0+24], 0xFFFFFFF0)
	binary.BigEndian.PutUint32(data[rec0+128:rec0+132], 0x40)
	path := filepath.Join(t.TempDir(), "badlen.mobi")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err := Parse(path)
	require.Error(t, err)
}

func TestParse_NonMonotonicOffsets(t *testing.T) {
	t.Parallel()

	data := buildTestMOBI(t, nil, true)
	binary.BigEndian.PutUint32(data[86:90], 10)
	path := filepath.Join(t.TempDir(), "badoffsets.mobi")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err := Parse(path)
	require.Error(t, err)
}
