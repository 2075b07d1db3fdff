package document

import (
	"fmt"

	"dphtml/common"
)

// numbering maps physical page sequence to printed page numbers. With
// anchored numbering pages fall into zones: front matter (no number),
// preface (own sequence), body (offset applied) and the same zones again
// for the second volume with "_2_" in anchor names.
type numbering struct {
	mode    common.PageNumbering
	front   int
	preface int
	volume  int
	offset  int
}

func (n numbering) marker(page int) string {
	if n.mode != common.PageNumberingAnchored {
		return fmt.Sprintf("<!-- Page %d -->\n", page)
	}

	prefix, offset := "", n.offset
	if n.volume > 0 && page > n.volume {
		prefix, offset = "_2_", 0
		page -= n.volume
	}

	switch {
	case page <= n.front:
		return ""
	case page <= n.front+n.preface:
		return anchoredMarker("preface"+prefix, page-n.front)
	default:
		return anchoredMarker("page"+prefix, page-n.front-n.preface+offset)
	}
}

func anchoredMarker(name string, num int) string {
	return fmt.Sprintf("<a name=\"%s%d\"></a><span class=\"pagenum\">[Pg&nbsp;%d]</span>\n", name, num, num)
}
