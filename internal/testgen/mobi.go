package testgen

import (
	"encoding/binary"
	"testing"
)

var mobiJPEG = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46, 0x00, 0x01}

// GenerateMOBI creates a minimal MOBI file at the specified path. The file
// carries a PalmDB header, a MOBI record zero with the full name, an optional
// EXTH author record, and an optional image record referenced as the cover.
func GenerateMOBI(t *testing.T, dir, filename string, opts MOBIOptions) string {
	t.Helper()

	var exthRecords [][]byte
	if opts.Author != "" {
		rec := make([]byte, 8+len(opts.Author))
		binary.BigEndian.PutUint32(rec[0:4], 100) // author
		binary.BigEndian.PutUint32(rec[4:8], uint32(len(rec)))
		copy(rec[8:], opts.Author)
		exthRecords = append(exthRecords, rec)
	}
	if opts.HasCover {
		rec := make([]byte, 12)
		binary.BigEndian.PutUint32(rec[0:4], 201) // cover offset
		binary.BigEndian.PutUint32(rec[4:8], 12)
		exthRecords = append(exthRecords, rec)
	}

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

	fullName := []byte(opts.Title)
	binary.BigEndian.PutUint32(rec0[84:88], uint32(len(rec0)))
	binary.BigEndian.PutUint32(rec0[88:92], uint32(len(fullName)))
	rec0 = append(rec0, fullName...)

	numRecords := 1
	if opts.HasCover {
		numRecords = 2
	}

	header := make([]byte, 78+numRecords*8)
	copy(header[60:68], "BOOKMOBI")
	binary.BigEndian.PutUint16(header[76:78], uint16(numRecords))
	binary.BigEndian.PutUint32(header[78:82], uint32(len(header)))
	if opts.HasCover {
		binary.BigEndian.PutUint32(header[86:90], uint32(len(header)+len(rec0)))
	}

	data := append(header, rec0...)
	if opts.HasCover {
		data = append(data, mobiJPEG...)
	}

	return WriteFile(t, dir, filename, data)
}
