package document

import (
	_ "embed"
	"fmt"
	"io"

	"github.com/beevik/etree"
)

//go:embed default.css
var defaultStylesheet []byte

const (
	doctype = `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">` + "\n" +
		`<html xmlns="http://www.w3.org/1999/xhtml" xml:lang="en" lang="en">` + "\n"
	footer = "</body>\n</html>\n"
)

// DefaultStylesheet returns copy of the stylesheet used when none is configured.
func DefaultStylesheet() []byte {
	return append([]byte(nil), defaultStylesheet...)
}

func newHead(title, charset string, css []byte) *etree.Document {
	doc := etree.NewDocument()
	doc.WriteSettings = etree.WriteSettings{
		CanonicalText:    true,
		CanonicalAttrVal: true,
	}

	head := doc.CreateElement("head")
	head.CreateElement("title").SetText(title)
	meta := head.CreateElement("meta")
	meta.CreateAttr("http-equiv", "Content-Type")
	meta.CreateAttr("content", "text/html; charset="+charset)
	style := head.CreateElement("style")
	style.CreateAttr("type", "text/css")
	style.SetText("\n" + string(css))
	return doc
}

func writeHeader(w io.Writer, title, charset string, css []byte) error {
	if _, err := io.WriteString(w, doctype); err != nil {
		return err
	}
	if _, err := newHead(title, charset, css).WriteTo(w); err != nil {
		return err
	}
	_, err := fmt.Fprint(w, "\n<body>\n")
	return err
}

var styleClasses = []string{
	"h2a", "rmn", "pagenum", "fnref", "footnote", "sidenote", "nowrap", "figure", "caption",
	"smcap", "allsmcap", "fraktur", "gesperrt", "underline", "size1", "size2", "comment", "handwriting",
}

// StyleClasses lists classes generated documents refer to, custom stylesheet
// is expected to define them.
func StyleClasses() []string {
	return append([]string(nil), styleClasses...)
}
