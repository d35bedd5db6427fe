// Package content holds the content checkers and post-processors that can be
// plugged into download.Options.
package content

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"io"
	"net/http"
	"strings"
)

// sniffLen is how much of a file the signature checkers look at.
const sniffLen = 512

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func readHead(r io.Reader) []byte {
	head := make([]byte, sniffLen)
	n, _ := io.ReadFull(r, head)
	return head[:n]
}

// Image accepts PNG, JPEG, GIF, WebP and BMP data. Tile servers tend to
// answer failures with an HTML or XML page and a 200 status; those are
// rejected here.
func Image(r io.Reader) bool {
	head := readHead(r)
	if len(head) == 0 {
		return false
	}
	return strings.HasPrefix(http.DetectContentType(head), "image/")
}

// HTML accepts documents starting with an HTML doctype or <html> element.
func HTML(r io.Reader) bool {
	head := bytes.TrimPrefix(readHead(r), utf8BOM)
	head = bytes.ToLower(bytes.TrimLeft(head, " \t\r\n"))
	return bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html"))
}

// KML accepts XML documents whose root element is kml.
func KML(r io.Reader) bool {
	dec := xml.NewDecoder(bufio.NewReader(r))
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if err != nil {
			return false
		}
		if se, ok := tok.(xml.StartElement); ok {
			return strings.EqualFold(se.Name.Local, "kml")
		}
	}
}
