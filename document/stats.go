package document

import (
	"fmt"

	"go.uber.org/zap"

	"dphtml/utils/debug"
)

// OutlineEntry is a chapter (level 1) or section (level 2) heading.
type OutlineEntry struct {
	Level  int
	Anchor string // empty when sections are not numbered
	Page   int
	Line   int
	Text   string // first source line of the heading
}

// Stats describes processed document.
type Stats struct {
	Lines         int
	Pages         int
	Paragraphs    int
	Chapters      int
	Sections      int
	Footnotes     int
	Illustrations int
	Diagnostics   map[string]int // per kind, see markup.DiagKind
	Outline       []OutlineEntry
}

// Problems returns total number of diagnostics.
func (s *Stats) Problems() int {
	total := 0
	for _, n := range s.Diagnostics {
		total += n
	}
	return total
}

func (s *Stats) Fields() []zap.Field {
	return []zap.Field{
		zap.Int("lines", s.Lines),
		zap.Int("pages", s.Pages),
		zap.Int("paragraphs", s.Paragraphs),
		zap.Int("chapters", s.Chapters),
		zap.Int("sections", s.Sections),
		zap.Int("footnotes", s.Footnotes),
		zap.Int("illustrations", s.Illustrations),
		zap.Int("problems", s.Problems()),
	}
}

// Dump renders statistics and document outline for the debug report.
func (s *Stats) Dump(name string) string {
	tw := debug.NewTreeWriter()
	tw.TextBlock(0, "Document", name)
	tw.Line(1, "lines: %d", s.Lines)
	tw.Line(1, "pages: %d", s.Pages)
	tw.Line(1, "paragraphs: %d", s.Paragraphs)
	tw.Line(1, "chapters: %d", s.Chapters)
	tw.Line(1, "sections: %d", s.Sections)
	tw.Line(1, "footnotes: %d", s.Footnotes)
	tw.Line(1, "illustrations: %d", s.Illustrations)
	tw.Line(1, "problems: %d", s.Problems())
	tw.Counters(2, s.Diagnostics)
	if len(s.Outline) == 0 {
		return tw.String()
	}
	tw.Line(1, "outline")
	for _, o := range s.Outline {
		label := o.Anchor
		if label == "" {
			label = "section"
		}
		tw.TextBlock(1+o.Level, fmt.Sprintf("%s (page %d, line %d)", label, o.Page, o.Line), o.Text)
	}
	return tw.String()
}
