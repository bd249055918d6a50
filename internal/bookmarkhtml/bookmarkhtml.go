// Package bookmarkhtml reads and writes the Netscape bookmark file format
// that browsers use for bookmark import and export.
package bookmarkhtml

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pkt.systems/tabula/schema"
)

const header = `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
`

// Parse returns every link in document order. Folders are flattened and
// links without an http(s) target are skipped.
func Parse(r io.Reader) ([]schema.Bookmark, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse bookmark file: %w", err)
	}
	out := []schema.Bookmark{}
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if !schema.HasTransferScheme(href) {
			return
		}
		title := strings.Join(strings.Fields(sel.Text()), " ")
		if title == "" {
			title = href
		}
		out = append(out, schema.Bookmark{URL: href, Title: title})
	})
	return out, nil
}

// Write renders list as a flat bookmark file.
func Write(w io.Writer, list []schema.Bookmark) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(header); err != nil {
		return err
	}
	for _, b := range list {
		if _, err := fmt.Fprintf(bw, "    <DT><A HREF=\"%s\">%s</A>\n", html.EscapeString(b.URL), html.EscapeString(b.Title)); err != nil {
			return err
		}
	}
	if _, err := bw.WriteString("</DL><p>\n"); err != nil {
		return err
	}
	return bw.Flush()
}
