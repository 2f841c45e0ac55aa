// Package mobi extracts catalog metadata from MOBI files. It reads the PDB
// record table, the MOBI header in record zero, and the EXTH metadata block;
// the cover image is pulled from the record the EXTH cover offset points at.
package mobi

import (
	"encoding/binary"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/shelfdex/shelfdex/pkg/mediafile"
)

// EXTH record types.
const (
	exthAuthor      = 100
	exthPublisher   = 101
	exthDescription = 103
	exthSubject     = 105
	exthPublishDate = 106
	exthCoverOffset = 201
	exthLanguage    = 524
)

const noImageIndex = 0xFFFFFFFF

func Parse(path string) (*mediafile.ParsedMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, mediafile.Unreadable(path, err)
	}

	meta, err := parse(data)
	if err != nil {
		return nil, mediafile.Corrupt(path, err)
	}
	return meta, nil
}

func parse(data []byte) (*mediafile.ParsedMetadata, error) {
	offsets, err := recordOffsets(data)
	if err != nil {
		return nil, err
	}

	record0 := data[offsets[0]:]
	if len(offsets) > 1 {
		record0 = data[offsets[0]:offsets[1]]
	}
	if len(record0) < 132 || string(record0[16:20]) != "MOBI" {
		return nil, errors.New("missing MOBI header")
	}

	headerLength := binary.BigEndian.Uint32(record0[20:24])
	firstImageIndex := binary.BigEndian.Uint32(record0[108:112])
	exthFlags := binary.BigEndian.Uint32(record0[128:132])

	meta := &mediafile.ParsedMetadata{}

	// The full book name lives in record zero past the MOBI header. The
	// offsets are untrusted, so the sum is computed in int to rule out
	// uint32 wraparound.
	nameOffset := int(binary.BigEndian.Uint32(record0[84:88]))
	nameLength := int(binary.BigEndian.Uint32(record0[88:92]))
	if end := nameOffset + nameLength; end <= len(record0) {
		meta.Title = strings.TrimSpace(string(record0[nameOffset:end]))
	}

	var coverOffset = uint32(noImageIndex)
	if exthFlags&0x40 != 0 {
		exthStart := 16 + int(headerLength)
		if exthStart > len(record0) {
			return nil, errors.New("MOBI header length past end of record")
		}
		exth := record0[exthStart:]
		if err := parseEXTH(exth, meta, &coverOffset); err != nil {
			return nil, err
		}
	}

	if coverOffset != noImageIndex && firstImageIndex != noImageIndex {
		idx := int(firstImageIndex + coverOffset)
		if idx > 0 && idx < len(offsets) {
			end := len(data)
			if idx+1 < len(offsets) {
				end = int(offsets[idx+1])
			}
			img := data[offsets[idx]:end]
			if len(img) > 0 {
				mime := mimetype.Detect(img)
				if strings.HasPrefix(mime.String(), "image/") {
					meta.CoverData = img
					meta.CoverMimeType = mime.String()
				}
			}
		}
	}

	return meta, nil
}

// recordOffsets validates the PDB container and returns the start offset of
// every record.
func recordOffsets(data []byte) ([]uint32, error) {
	if len(data) < 78 {
		return nil, errors.New("file too short for PDB header")
	}
	if string(data[60:68]) != "BOOKMOBI" {
		return nil, errors.New("not a MOBI file")
	}

	numRecords := int(binary.BigEndian.Uint16(data[76:78]))
	if numRecords == 0 || len(data) < 78+numRecords*8 {
		return nil, errors.New("truncated PDB record table")
	}

	offsets := make([]uint32, numRecords)
	for i := 0; i < numRecords; i++ {
		off := binary.BigEndian.Uint32(data[78+i*8 : 82+i*8])
		if int(off) > len(data) {
			return nil, errors.New("record offset past end of file")
		}
		if i > 0 && off < offsets[i-1] {
			return nil, errors.New("record offsets not monotonic")
		}
		offsets[i] = off
	}
	return offsets, nil
}

func parseEXTH(exth []byte, meta *mediafile.ParsedMetadata, coverOffset *uint32) error {
	if len(exth) < 12 || string(exth[0:4]) != "EXTH" {
		return errors.New("missing EXTH header")
	}

	count := binary.BigEndian.Uint32(exth[8:12])
	pos := 12
	for i := uint32(0); i < count; i++ {
		if pos+8 > len(exth) {
			return errors.New("truncated EXTH record")
		}
		recType := binary.BigEndian.Uint32(exth[pos : pos+4])
		recLen := int(binary.BigEndian.Uint32(exth[pos+4 : pos+8]))
		if recLen < 8 || pos+recLen > len(exth) {
			return errors.New("truncated EXTH record")
		}
		value := exth[pos+8 : pos+recLen]

		switch recType {
		case exthAuthor:
			if name := strings.TrimSpace(string(value)); name != "" {
				meta.Authors = append(meta.Authors, name)
			}
		case exthDescription:
			meta.Annotation = strings.TrimSpace(string(value))
		case exthSubject:
			if subject := strings.TrimSpace(string(value)); subject != "" {
				meta.Genres = append(meta.Genres, subject)
			}
		case exthPublishDate:
			date := strings.TrimSpace(string(value))
			// Timestamps keep only the date part.
			if idx := strings.IndexByte(date, 'T'); idx > 0 {
				date = date[:idx]
			}
			meta.DocDate = date
		case exthLanguage:
			meta.Lang = strings.TrimSpace(string(value))
		case exthCoverOffset:
			if len(value) == 4 {
				*coverOffset = binary.BigEndian.Uint32(value)
			}
		}

		pos += recLen
	}
	return nil
}
