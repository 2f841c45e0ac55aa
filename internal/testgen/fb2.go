package testgen

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
	"testing"
)

// GenerateFB2 creates a valid FB2 file at the specified path with the given
// options. Author names are split on the last space into first and last name
// elements.
func GenerateFB2(t *testing.T, dir, filename string, opts FB2Options) string {
	t.Helper()

	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<FictionBook xmlns="http://www.gribuser.ru/xml/fictionbook/2.0" xmlns:l="http://www.w3.org/1999/xlink">
  <description>
    <title-info>
`)

	for _, genre := range opts.Genres {
		fmt.Fprintf(&buf, "      <genre>%s</genre>\n", escapeXML(genre))
	}

	for _, author := range opts.Authors {
		first, last := splitName(author)
		buf.WriteString("      <author>\n")
		if first != "" {
			fmt.Fprintf(&buf, "        <first-name>%s</first-name>\n", escapeXML(first))
		}
		fmt.Fprintf(&buf, "        <last-name>%s</last-name>\n", escapeXML(last))
		buf.WriteString("      </author>\n")
	}

	if opts.Title != "" {
		fmt.Fprintf(&buf, "      <book-title>%s</book-title>\n", escapeXML(opts.Title))
	}

	if opts.Annotation != "" {
		fmt.Fprintf(&buf, "      <annotation><p>%s</p></annotation>\n", escapeXML(opts.Annotation))
	}

	if opts.Lang != "" {
		fmt.Fprintf(&buf, "      <lang>%s</lang>\n", escapeXML(opts.Lang))
	}

	if opts.Series != "" {
		if opts.SeriesNumber != nil {
			fmt.Fprintf(&buf, "      <sequence name=%q number=\"%d\"/>\n", escapeXML(opts.Series), *opts.SeriesNumber)
		} else {
			fmt.Fprintf(&buf, "      <sequence name=%q/>\n", escapeXML(opts.Series))
		}
	}

	if opts.HasCover {
		buf.WriteString("      <coverpage><image l:href=\"#cover.jpg\"/></coverpage>\n")
	}

	buf.WriteString("    </title-info>\n")

	if opts.Date != "" {
		fmt.Fprintf(&buf, "    <document-info><date>%s</date></document-info>\n", escapeXML(opts.Date))
	}

	buf.WriteString(`  </description>
  <body>
    <section><p>Test chapter text.</p></section>
  </body>
`)

	if opts.HasCover {
		cover := generateImage(t, "image/jpeg")
		fmt.Fprintf(&buf, "  <binary id=\"cover.jpg\" content-type=\"image/jpeg\">%s</binary>\n",
			base64.StdEncoding.EncodeToString(cover))
	}

	buf.WriteString("</FictionBook>\n")

	return WriteFile(t, dir, filename, buf.Bytes())
}

func splitName(full string) (first, last string) {
	idx := strings.LastIndex(full, " ")
	if idx < 0 {
		return "", full
	}
	return full[:idx], full[idx+1:]
}
