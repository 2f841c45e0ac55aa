// Package fb2 extracts catalog metadata from FictionBook 2 files. The parser
// streams the XML tolerantly: unknown elements are ignored, the body is
// skipped entirely, and only the description block and the cover binary are
// decoded.
package fb2

import (
	"encoding/base64"
	"encoding/xml"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/shelfdex/shelfdex/pkg/mediafile"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

func Parse(path string) (*mediafile.ParsedMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, mediafile.Unreadable(path, err)
	}
	defer f.Close()

	meta, err := parse(f)
	if err != nil {
		return nil, mediafile.Corrupt(path, err)
	}
	return meta, nil
}

// charsetReader handles the single-byte encodings older FB2 files declare,
// windows-1251 in particular.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil || enc == nil {
		return nil, errors.Errorf("unsupported charset %q", charset)
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}

type author struct {
	first  string
	middle string
	last   string
}

func (a author) String() string {
	parts := []string{}
	for _, p := range []string{a.first, a.middle, a.last} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func parse(r io.Reader) (*mediafile.ParsedMetadata, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.CharsetReader = charsetReader

	meta := &mediafile.ParsedMetadata{}
	var (
		path        []string
		cur         author
		annotation  []string
		coverHref   string
		coverB64    strings.Builder
		coverMime   string
		inCoverData bool
	)

	at := func(suffix ...string) bool {
		if len(path) < len(suffix) {
			return false
		}
		tail := path[len(path)-len(suffix):]
		for i := range suffix {
			if tail[i] != suffix[i] {
				return false
			}
		}
		return true
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A malformed trailer after the description has been read is
			// tolerated; nothing useful follows the cover binary.
			if meta.Title != "" {
				break
			}
			return nil, errors.WithStack(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := strings.ToLower(t.Name.Local)
			path = append(path, name)

			switch {
			case name == "body":
				// Body holds the book text; nothing in it feeds the index.
				if err := dec.Skip(); err != nil {
					return nil, errors.WithStack(err)
				}
				path = path[:len(path)-1]
			case at("title-info", "author"):
				cur = author{}
			case at("title-info", "sequence"):
				for _, attr := range t.Attr {
					switch strings.ToLower(attr.Name.Local) {
					case "name":
						meta.Series = strings.TrimSpace(attr.Value)
					case "number":
						if n, err := strconv.Atoi(strings.TrimSpace(attr.Value)); err == nil {
							meta.SeriesNumber = &n
						}
					}
				}
			case at("coverpage", "image"):
				for _, attr := range t.Attr {
					if strings.ToLower(attr.Name.Local) == "href" {
						coverHref = strings.TrimPrefix(attr.Value, "#")
					}
				}
			case name == "binary":
				id := ""
				ctype := ""
				for _, attr := range t.Attr {
					switch strings.ToLower(attr.Name.Local) {
					case "id":
						id = attr.Value
					case "content-type":
						ctype = attr.Value
					}
				}
				if coverHref != "" && id == coverHref {
					inCoverData = true
					coverMime = ctype
				}
			}
		case xml.EndElement:
			name := strings.ToLower(t.Name.Local)
			if at("title-info", "author") && name == "author" {
				if display := cur.String(); display != "" {
					meta.Authors = append(meta.Authors, display)
				}
			}
			if name == "binary" {
				inCoverData = false
			}
			if len(path) > 0 {
				path = path[:len(path)-1]
			}
		case xml.CharData:
			text := string(t)
			switch {
			case inCoverData:
				coverB64.WriteString(strings.Join(strings.Fields(text), ""))
			case at("title-info", "book-title"):
				meta.Title = strings.TrimSpace(text)
			case at("title-info", "genre"):
				if genre := strings.TrimSpace(text); genre != "" {
					meta.Genres = append(meta.Genres, genre)
				}
			case at("title-info", "lang"):
				meta.Lang = strings.TrimSpace(text)
			case at("title-info", "author", "first-name"):
				cur.first = strings.TrimSpace(text)
			case at("title-info", "author", "middle-name"):
				cur.middle = strings.TrimSpace(text)
			case at("title-info", "author", "last-name"):
				cur.last = strings.TrimSpace(text)
			case at("document-info", "date"):
				if date := strings.TrimSpace(text); date != "" {
					meta.DocDate = date
				}
			default:
				if containsAnnotation(path) {
					if s := strings.TrimSpace(text); s != "" {
						annotation = append(annotation, s)
					}
				}
			}
		}
	}

	if meta.Title == "" && len(meta.Authors) == 0 {
		return nil, errors.New("no title-info found")
	}

	meta.Annotation = strings.Join(annotation, " ")

	if coverB64.Len() > 0 {
		data, err := base64.StdEncoding.DecodeString(coverB64.String())
		if err == nil && len(data) > 0 {
			meta.CoverData = data
			if coverMime == "" {
				coverMime = mimetype.Detect(data).String()
			}
			meta.CoverMimeType = coverMime
		}
	}

	return meta, nil
}

func containsAnnotation(path []string) bool {
	inTitleInfo := false
	for _, name := range path {
		if name == "title-info" {
			inTitleInfo = true
		}
		if inTitleInfo && name == "annotation" {
			return true
		}
	}
	return false
}
