package recent

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"
)

const (
	declaration = "<?xml version=\"1.0\"?>\n"
	rootElement = "RecentFiles"
	itemElement = "RecentItem"
)

var errNoElement = errors.New("document has no root element")

// xmlItem mirrors a RecentItem element. Elements it does not name are ignored
// by the decoder.
type xmlItem struct {
	URI       string    `xml:"URI"`
	MimeType  string    `xml:"Mime-Type"`
	Timestamp string    `xml:"Timestamp"`
	Private   *struct{} `xml:"Private"`
	Groups    []string  `xml:"Groups>Group"`
}

func (it xmlItem) entry() (Entry, bool) {
	if it.URI == "" {
		return Entry{}, false
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(it.Timestamp), 10, 64)
	if err != nil {
		ts = 0
	}
	return Entry{
		URI:       it.URI,
		MimeType:  it.MimeType,
		Timestamp: ts,
		Private:   it.Private != nil,
		Groups:    it.Groups,
	}, true
}

// Decode reads a recent files document and returns its entries in document
// order. Syntax errors anywhere in the document are returned as is, as are
// text outside the root element and a second root element. Items without a
// URI are dropped, and a root other than RecentFiles yields no entries.
func Decode(r io.Reader) ([]Entry, error) {
	dec := xml.NewDecoder(r)

	var (
		entries []Entry
		sawRoot bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return nil, syntaxError(dec, "text outside the root element")
			}
		case xml.StartElement:
			if sawRoot {
				return nil, syntaxError(dec, "more than one root element")
			}
			sawRoot = true

			if t.Name.Local != rootElement {
				if err := dec.Skip(); err != nil {
					return nil, err
				}
				continue
			}

			items, err := decodeItems(dec)
			if err != nil {
				return nil, err
			}
			entries = append(entries, items...)
		}
	}

	if !sawRoot {
		return nil, errNoElement
	}
	return entries, nil
}

func syntaxError(dec *xml.Decoder, msg string) error {
	line, _ := dec.InputPos()
	return &xml.SyntaxError{Msg: msg, Line: line}
}

// decodeItems consumes the children of RecentFiles up to its end tag.
func decodeItems(dec *xml.Decoder) ([]Entry, error) {
	var entries []Entry
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.EndElement:
			return entries, nil
		case xml.StartElement:
			if t.Name.Local != itemElement {
				if err := dec.Skip(); err != nil {
					return nil, err
				}
				continue
			}
			var item xmlItem
			if err := dec.DecodeElement(&item, &t); err != nil {
				return nil, err
			}
			if e, ok := item.entry(); ok {
				entries = append(entries, e)
			}
		}
	}
}

var uriEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Encode writes entries as a recent files document in the given order.
//
// Only the URI is escaped. Mime types and group names go out verbatim, which
// is what other writers of this format do.
func Encode(w io.Writer, entries []Entry) error {
	var buf bytes.Buffer

	buf.WriteString(declaration)
	buf.WriteString("<" + rootElement + ">\n")
	for _, e := range entries {
		buf.WriteString("  <" + itemElement + ">\n")
		buf.WriteString("    <URI>" + uriEscaper.Replace(e.URI) + "</URI>\n")
		buf.WriteString("    <Mime-Type>" + e.MimeType + "</Mime-Type>\n")
		buf.WriteString("    <Timestamp>" + strconv.FormatInt(e.Timestamp, 10) + "</Timestamp>\n")
		if e.Private {
			buf.WriteString("    <Private/>\n")
		}
		if len(e.Groups) > 0 {
			buf.WriteString("    <Groups>\n")
			for _, g := range e.Groups {
				buf.WriteString("      <Group>" + g + "</Group>\n")
			}
			buf.WriteString("    </Groups>\n")
		}
		buf.WriteString("  </" + itemElement + ">\n")
	}
	buf.WriteString("</" + rootElement + ">\n")

	_, err := w.Write(buf.Bytes())
	return err
}
