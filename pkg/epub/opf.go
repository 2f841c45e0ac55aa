// Package epub extracts catalog metadata from EPUB files by locating and
// parsing the OPF package document.
package epub

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shelfdex/shelfdex/pkg/mediafile"
)

type OPF struct {
	Title         string
	Authors       []string
	Series        string
	SeriesNumber  *int
	Genres        []string
	Description   string
	Date          string
	Language      string
	CoverFilepath string
	CoverMimeType string
	CoverData     []byte
}

type Package struct {
	XMLName          xml.Name `xml:"package"`
	Text             string   `xml:",chardata"`
	Xmlns            string   `xml:"xmlns,attr"`
	Version          string   `xml:"version,attr"`
	UniqueIdentifier string   `xml:"unique-identifier,attr"`
	Metadata         struct {
		Text    string `xml:",chardata"`
		Opf     string `xml:"opf,attr"`
		Dc      string `xml:"dc,attr"`
		Dcterms string `xml:"dcterms,attr"`
		Xsi     string `xml:"xsi,attr"`
		Calibre string `xml:"calibre,attr"`
		Title   []struct {
			Text string `xml:",chardata"`
			ID   string `xml:"id,attr"`
		} `xml:"title"`
		Creator []struct {
			Text   string `xml:",chardata"`
			ID     string `xml:"id,attr"`
			Role   string `xml:"role,attr"`
			FileAs string `xml:"file-as,attr"`
		} `xml:"creator"`
		Subject     []string `xml:"subject"`
		Description string   `xml:"description"`
		Publisher   string   `xml:"publisher"`
		Date        string   `xml:"date"`
		Rights      string   `xml:"rights"`
		Language    string   `xml:"language"`
		Meta        []struct {
			Text     string `xml:",chardata"`
			Name     string `xml:"name,attr"`
			Content  string `xml:"content,attr"`
			Refines  string `xml:"refines,attr"`
			Property string `xml:"property,attr"`
		} `xml:"meta"`
	} `xml:"metadata"`
	Manifest struct {
		Text string `xml:",chardata"`
		Item []struct {
			Text       string `xml:",chardata"`
			ID         string `xml:"id,attr"`
			Href       string `xml:"href,attr"`
			MediaType  string `xml:"media-type,attr"`
			Properties string `xml:"properties,attr"`
		} `xml:"item"`
	} `xml:"manifest"`
}

type container struct {
	XMLName   xml.Name `xml:"container"`
	Rootfiles struct {
		Rootfile []struct {
			FullPath  string `xml:"full-path,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"rootfile"`
	} `xml:"rootfiles"`
}

func Parse(path string) (*mediafile.ParsedMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, mediafile.Unreadable(path, err)
	}
	defer f.Close()

	stats, err := f.Stat()
	if err != nil {
		return nil, mediafile.Unreadable(path, err)
	}
	size := stats.Size()

	zipReader, err := zip.NewReader(f, size)
	if err != nil {
		return nil, mediafile.Corrupt(path, err)
	}

	// META-INF/container.xml names the OPF; fall back to scanning for any
	// .opf entry when the container is missing or malformed.
	opfPath := rootfilePath(zipReader)
	var opf *OPF
	for _, file := range zipReader.File {
		if file.Name == opfPath || (opfPath == "" && filepath.Ext(file.Name) == ".opf") {
			r, err := file.Open()
			if err != nil {
				return nil, mediafile.Corrupt(path, err)
			}
			opf, err = ParseOPF(file.Name, r)
			_ = r.Close()
			if err != nil {
				return nil, mediafile.Corrupt(path, err)
			}
			break
		}
	}

	if opf == nil {
		return nil, mediafile.Corrupt(path, errors.New("no opf file found"))
	}

	if opf.CoverFilepath != "" {
		for _, file := range zipReader.File {
			if file.Name == opf.CoverFilepath {
				r, err := file.Open()
				if err != nil {
					return nil, mediafile.Corrupt(path, err)
				}
				b, err := io.ReadAll(r)
				_ = r.Close()
				if err != nil {
					return nil, mediafile.Corrupt(path, err)
				}
				opf.CoverData = b
				break
			}
		}
	}

	return &mediafile.ParsedMetadata{
		Title:         opf.Title,
		Authors:       opf.Authors,
		Series:        opf.Series,
		SeriesNumber:  opf.SeriesNumber,
		Genres:        opf.Genres,
		Annotation:    opf.Description,
		DocDate:       opf.Date,
		Lang:          opf.Language,
		CoverMimeType: opf.CoverMimeType,
		CoverData:     opf.CoverData,
	}, nil
}

func rootfilePath(zipReader *zip.Reader) string {
	for _, file := range zipReader.File {
		if file.Name != "META-INF/container.xml" {
			continue
		}
		r, err := file.Open()
		if err != nil {
			return ""
		}
		b, err := io.ReadAll(r)
		_ = r.Close()
		if err != nil {
			return ""
		}
		c := &container{}
		if err := xml.Unmarshal(b, c); err != nil {
			return ""
		}
		for _, rf := range c.Rootfiles.Rootfile {
			if rf.MediaType == "" || rf.MediaType == "application/oebps-package+xml" {
				return rf.FullPath
			}
		}
	}
	return ""
}

// ParseOPF parses an OPF package document. The caller owns the reader.
func ParseOPF(filename string, r io.Reader) (*OPF, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	pkg := &Package{}
	err = xml.Unmarshal(b, pkg)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// Determine the base path because all files are referenced from the location of the OPF file. If basePath is `.`,
	// that means it's at the root of the EPUB and should not be included. But if it's something else, we need to tack
	// on a `/` since we'll be adding it as a prefix to all file paths.
	basePath := filepath.Dir(filename)
	if basePath == "." {
		basePath = ""
	} else {
		basePath += "/"
	}

	// Parse out metadata into a more lookup-friendly structure.
	metaProperties := map[string]map[string]string{}
	metaContent := map[string]string{}
	for _, m := range pkg.Metadata.Meta {
		if m.Refines != "" {
			key := strings.ReplaceAll(m.Refines, "#", "")
			if _, ok := metaProperties[key]; !ok {
				metaProperties[key] = map[string]string{}
			}
			metaProperties[key][m.Property] = m.Text
		} else if m.Content != "" {
			metaContent[m.Name] = m.Content
		}
	}

	// Parse out the main title of the book.
	title := ""
	if len(pkg.Metadata.Title) == 1 {
		title = pkg.Metadata.Title[0].Text
	} else if len(pkg.Metadata.Title) > 1 {
		for _, t := range pkg.Metadata.Title {
			if t.ID != "" && metaProperties[t.ID] != nil && metaProperties[t.ID]["title-type"] == "main" {
				title = t.Text
				break
			}
		}
	}

	authors := []string{}
	for _, creator := range pkg.Metadata.Creator {
		role := creator.Role
		if role == "" && creator.ID != "" && metaProperties[creator.ID] != nil {
			role = metaProperties[creator.ID]["role"]
		}
		if role == "aut" || role == "" || len(pkg.Metadata.Creator) == 1 {
			authors = append(authors, creator.Text)
		}
	}

	// Cover strategies in preference order: an EPUB3 cover-image manifest
	// property, the EPUB2 meta name="cover" manifest reference, then a
	// manifest item literally called "cover".
	coverFilepath := ""
	coverMimeType := ""
	for _, item := range pkg.Manifest.Item {
		if strings.Contains(item.Properties, "cover-image") {
			coverFilepath = basePath + item.Href
			coverMimeType = item.MediaType
			break
		}
	}
	if coverFilepath == "" && metaContent["cover"] != "" {
		for _, item := range pkg.Manifest.Item {
			if item.ID == metaContent["cover"] {
				coverFilepath = basePath + item.Href
				coverMimeType = item.MediaType
			}
		}
	}
	if coverFilepath == "" {
		for _, item := range pkg.Manifest.Item {
			if item.ID == "cover" && strings.HasPrefix(item.MediaType, "image/") {
				coverFilepath = basePath + item.Href
				coverMimeType = item.MediaType
			}
		}
	}

	// Series information comes from calibre meta tags.
	series := metaContent["calibre:series"]
	var seriesNumber *int
	if seriesIndexStr := metaContent["calibre:series_index"]; seriesIndexStr != "" {
		if num, err := strconv.ParseFloat(seriesIndexStr, 64); err == nil {
			n := int(num)
			seriesNumber = &n
		}
	}

	genres := []string{}
	for _, subject := range pkg.Metadata.Subject {
		subject = strings.TrimSpace(subject)
		if subject != "" {
			genres = append(genres, subject)
		}
	}

	return &OPF{
		Title:         title,
		Authors:       authors,
		Series:        series,
		SeriesNumber:  seriesNumber,
		Genres:        genres,
		Description:   strings.TrimSpace(pkg.Metadata.Description),
		Date:          strings.TrimSpace(pkg.Metadata.Date),
		Language:      strings.TrimSpace(pkg.Metadata.Language),
		CoverFilepath: coverFilepath,
		CoverMimeType: coverMimeType,
	}, nil
}
