// Package document turns a stream of proofread text lines into a complete
// XHTML document. It recognizes block structure (paragraphs, headings, poetry,
// block quotations, footnote blocks and page breaks) and delegates inline
// markup to markup.Renderer.
package document

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"dphtml/common"
	"dphtml/markup"
)

// ErrNilWriter is returned when Process is called without output.
var ErrNilWriter = errors.New("nil output writer")

// Longest input line rendered, the rest of longer line is dropped.
const maxLineSize = 1024 * 1024

// Options controls document structure and numbering.
type Options struct {
	Markup markup.Options

	PageNumbers             common.PageNumbering
	FrontPages              int
	PrefacePages            int
	VolumePages             int // 0 - single volume
	PageOffset              int
	ChapterOffset           int
	NumberSections          bool
	UnnumberedIllustrations bool // illustration plates do not consume page numbers

	Title      string
	Charset    string // declared in head, defaults to UTF-8
	Stylesheet []byte // nil - built in stylesheet
}

type paraType int

const (
	paraNone paraType = iota
	paraNormal
	paraSection
	paraChapterA
	paraChapter
	paraRule
)

// isParagraph reports whether block is written as p element.
func (p paraType) isParagraph() bool {
	return p == paraNormal || p == paraChapterA
}

func (p paraType) closer() string {
	switch p {
	case paraNormal, paraChapterA:
		return "</p>\n"
	case paraSection:
		return "</h3>\n"
	case paraChapter:
		return "</h2>\n"
	}
	return ""
}

type region int

const (
	regionClosed region = iota
	regionOpen
	regionPendingClose // closed by marker, end tag goes out with next paragraph
)

// Engine renders one document at a time. It is not safe for concurrent use,
// independent documents may be processed by independent engines in parallel.
type Engine struct {
	opts      Options
	log       *zap.Logger
	numbering numbering

	diag *markup.Diagnostics
	r    *markup.Renderer
	w    *bufio.Writer
	err  error

	page     int
	lineNo   int
	blanks   int
	chapter  int
	section  int
	para     paraType
	paraOpen bool
	poetry   region
	quote    region

	footnoteDiv bool
	sidenoteDiv bool

	stats Stats
}

func NewEngine(opts Options, log *zap.Logger) *Engine {
	if opts.Charset == "" {
		opts.Charset = "UTF-8"
	}
	return &Engine{
		opts: opts,
		log:  log.Named("document"),
		numbering: numbering{
			mode:    opts.PageNumbers,
			front:   opts.FrontPages,
			preface: opts.PrefacePages,
			volume:  opts.VolumePages,
			offset:  opts.PageOffset,
		},
	}
}

// Process reads markup from in and writes complete document to out. Markup
// problems are reported to the log and never stop processing, only failure to
// read input or write output does.
func (e *Engine) Process(ctx context.Context, in io.Reader, out io.Writer) (*Stats, error) {
	if out == nil {
		return nil, ErrNilWriter
	}
	e.reset(out)

	if err := writeHeader(e.w, e.opts.Title, e.opts.Charset, e.stylesheet()); err != nil {
		return nil, fmt.Errorf("unable to write document header: %w", err)
	}

	ls := lineSplitter{limit: maxLineSize}
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize+1)
	sc.Split(ls.split)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.line(sc.Text())
		if ls.cut {
			e.diag.Report(markup.DiagMalformed, "Line is too long, rest of it is dropped", zap.Int("limit", maxLineSize))
		}
		if e.err != nil {
			return nil, fmt.Errorf("unable to write document: %w", e.err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("unable to read input at line %d: %w", e.lineNo+1, err)
	}

	e.end()
	if e.err == nil {
		e.err = e.w.Flush()
	}
	if e.err != nil {
		return nil, fmt.Errorf("unable to write document: %w", e.err)
	}

	stats := e.stats
	stats.Lines = e.lineNo
	stats.Footnotes = e.r.Footnotes()
	stats.Illustrations = e.r.Illustrations()
	stats.Diagnostics = e.diag.Counts()
	return &stats, nil
}

func (e *Engine) reset(out io.Writer) {
	e.diag = markup.NewDiagnostics(e.log)
	e.r = markup.NewRenderer(e.opts.Markup, e.diag, e.log.Named("markup"))
	e.w = bufio.NewWriter(out)
	e.err = nil
	e.page, e.lineNo, e.blanks = 0, 0, 0
	e.chapter, e.section = 0, 0
	e.para, e.paraOpen = paraNone, false
	e.poetry, e.quote = regionClosed, regionClosed
	e.footnoteDiv, e.sidenoteDiv = false, false
	e.stats = Stats{}
}

func (e *Engine) stylesheet() []byte {
	if e.opts.Stylesheet != nil {
		return e.opts.Stylesheet
	}
	return defaultStylesheet
}

func (e *Engine) write(s string) {
	if e.err != nil || len(s) == 0 {
		return
	}
	_, e.err = e.w.WriteString(s)
}

func (e *Engine) line(raw string) {
	e.lineNo++
	line := strings.TrimRight(raw, " \r\n")
	e.diag.SetPosition(e.page, e.lineNo, line)
	e.checkControl(line)

	switch {
	case len(line) == 0:
		e.blanks++
		return
	case strings.HasPrefix(line, "-----"):
		e.pageBreak()
		return
	case line == "[Blank Page]":
		return
	}

	if e.blanks > 0 {
		e.endBlock()
	}
	if e.toggle(line) {
		return
	}
	if e.blanks > 0 || !e.paraOpen {
		e.endBlock()
		e.openNotes(line)
		e.startParagraph(line, max(e.blanks, 1))
		e.blanks = 0
	}
	e.render(line)
}

// checkControl reports C1 control characters, usually a sign of text decoded
// with wrong code page.
func (e *Engine) checkControl(line string) {
	for _, c := range line {
		if c >= 0x80 && c <= 0x9f {
			e.diag.Report(markup.DiagUnrecognized, "Unexpected control character", zap.String("char", fmt.Sprintf("%U", c)))
			return
		}
	}
}

func (e *Engine) render(line string) {
	before := e.r.Illustrations()
	if e.poetry == regionOpen {
		e.write(e.r.PoetryLine(line))
	} else {
		e.write(e.r.Line(line))
	}
	e.write("\n")
	if e.opts.UnnumberedIllustrations {
		e.page -= 2 * (e.r.Illustrations() - before)
	}
}

// toggle handles poetry and block quotation markers.
func (e *Engine) toggle(line string) bool {
	switch line {
	case "/*":
		if e.poetry == regionOpen {
			e.diag.Report(markup.DiagMalformed, "Poetry markers already open")
			break
		}
		e.poetry = regionOpen
	case "*/":
		if e.poetry != regionOpen {
			e.diag.Report(markup.DiagMismatch, "Poetry markers not open")
			break
		}
		e.poetry = regionClosed
	case "/#":
		switch e.quote {
		case regionClosed:
			e.closeParagraph()
			e.write("<blockquote>\n")
			e.quote = regionOpen
		case regionOpen:
			e.diag.Report(markup.DiagMalformed, "Blockquote markers already open")
		case regionPendingClose:
			e.quote = regionOpen
		}
	case "#/":
		if e.quote != regionOpen {
			e.diag.Report(markup.DiagMismatch, "Blockquote markers not open")
			break
		}
		e.quote = regionPendingClose
	default:
		return false
	}
	return true
}

func (e *Engine) closeParagraph() {
	if !e.paraOpen {
		return
	}
	e.r.FinishDramaBracket()
	e.write(e.para.closer())
	e.paraOpen = false
}

// endBlock finishes previous paragraph together with anything that was
// waiting for it to end.
func (e *Engine) endBlock() {
	e.closeParagraph()
	if e.quote == regionPendingClose {
		e.write("</blockquote>\n")
		e.quote = regionClosed
	}
	if e.footnoteDiv && !e.r.InFootnote() {
		e.write("</div>\n")
		e.footnoteDiv = false
	}
	if e.sidenoteDiv && !e.r.InSidenote() {
		e.write("</div>\n")
		e.sidenoteDiv = false
	}
}

var (
	footnotePrefixes = []string{"[Footnote:", "*[Footnote:", "[Footnote ", "*[Footnote "}
	sidenotePrefixes = []string{"[Sidenote:", "*[Sidenote:"}
)

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func (e *Engine) openNotes(line string) {
	if !e.footnoteDiv && hasAnyPrefix(line, footnotePrefixes) {
		e.write("<div class=\"footnote\">\n")
		e.footnoteDiv = true
	}
	if !e.sidenoteDiv && hasAnyPrefix(line, sidenotePrefixes) {
		e.write("<div class=\"sidenote\">\n")
		e.sidenoteDiv = true
	}
}

// startParagraph opens block according to number of blank lines preceding it.
func (e *Engine) startParagraph(line string, blanks int) {
	afterChapter := e.para == paraChapter || e.para == paraChapterA

	switch blanks {
	case 1:
		switch {
		case afterChapter:
			e.write("<p class=\"h2a\">\n")
			e.para = paraChapterA
		case strings.HasPrefix(line, "[Illustration"):
			e.write("<p class=\"figure\">\n")
			e.para = paraNormal
		case line == "<tb>":
			e.write("<hr />")
			e.para = paraRule
		case e.poetry == regionOpen:
			e.write("<p class=\"nowrap\">\n")
			e.para = paraNormal
		default:
			e.write("<p>\n")
			e.para = paraNormal
		}
	case 2:
		if afterChapter {
			if e.poetry == regionOpen {
				e.write("<p class=\"nowrap\">\n")
			} else {
				e.write("<p>\n")
			}
			e.para = paraNormal
			break
		}
		e.section++
		e.stats.Sections++
		e.write("<h3>\n")
		anchor := ""
		if e.opts.NumberSections {
			anchor = fmt.Sprintf("section%d_%d", e.chapter, e.section)
			e.write(fmt.Sprintf("<a name=\"%s\"></a>\n", anchor))
		}
		e.stats.Outline = append(e.stats.Outline, OutlineEntry{Level: 2, Anchor: anchor, Page: e.page, Line: e.lineNo, Text: line})
		e.para = paraSection
	case 4:
		e.chapter++
		e.section = 1
		e.stats.Chapters++
		anchor := fmt.Sprintf("chapter%d", e.chapter-e.opts.ChapterOffset)
		e.write(fmt.Sprintf("<h2>\n<a name=\"%s\"></a>\n", anchor))
		e.stats.Outline = append(e.stats.Outline, OutlineEntry{Level: 1, Anchor: anchor, Page: e.page, Line: e.lineNo, Text: line})
		e.para = paraChapter
	default:
		e.diag.Report(markup.DiagMalformed, "Unexpected number of blank lines", zap.Int("blank_lines", blanks))
		e.write("<p>\n")
		e.para = paraNormal
	}
	e.paraOpen = true
	e.r.SetParagraph(e.para.isParagraph())
	e.stats.Paragraphs++
}

// pageBreak closes everything that may not continue on the next page and
// writes page marker. Paragraph continues across the break unless blank
// lines precede it.
func (e *Engine) pageBreak() {
	e.write(e.r.Flush())
	if e.blanks > 0 {
		e.closeParagraph()
	}
	if e.poetry == regionOpen {
		e.diag.Report(markup.DiagUnbalanced, "Poetry markers not closed at end of page")
		e.poetry = regionClosed
	}
	if e.quote == regionOpen {
		e.diag.Report(markup.DiagUnbalanced, "Blockquote markers not closed at end of page")
		e.closeParagraph()
		e.write("</blockquote>\n")
		e.quote = regionClosed
	}

	e.page++
	e.stats.Pages++
	e.write(e.numbering.marker(e.page))
	e.blanks = 0
}

func (e *Engine) end() {
	e.diag.SetPosition(e.page, e.lineNo, "")
	e.write(e.r.Flush())
	e.closeParagraph()

	if e.poetry == regionOpen {
		e.diag.Report(markup.DiagUnbalanced, "Poetry markers not closed at end of document")
		e.poetry = regionClosed
	}
	switch e.quote {
	case regionOpen:
		e.diag.Report(markup.DiagUnbalanced, "Blockquote markers not closed at end of document")
		fallthrough
	case regionPendingClose:
		e.write("</blockquote>\n")
		e.quote = regionClosed
	}
	if e.footnoteDiv {
		e.write("</div>\n")
		e.footnoteDiv = false
	}
	if e.sidenoteDiv {
		e.write("</div>\n")
		e.sidenoteDiv = false
	}
	e.write(footer)
}

// scanLines is bufio.ScanLines which also accepts lone carriage return as
// line terminator.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		// '\r' - need one more byte to see if it is CRLF
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// lineSplitter is scanLines which cuts lines longer than limit instead of
// failing, the rest of such line is skipped. Scanner buffer must hold at
// least limit+1 bytes.
type lineSplitter struct {
	limit    int
	skipping bool
	cut      bool // last token was shortened
}

func (s *lineSplitter) split(data []byte, atEOF bool) (int, []byte, error) {
	if s.skipping {
		i := bytes.IndexAny(data, "\r\n")
		if i < 0 {
			return len(data), nil, nil
		}
		if i > 0 {
			return i, nil, nil
		}
		adv, _, err := scanLines(data, atEOF)
		if adv > 0 {
			s.skipping = false
		}
		return adv, nil, err
	}

	s.cut = false
	adv, token, err := scanLines(data, atEOF)
	if adv == 0 && err == nil && len(data) > s.limit {
		n := runeBoundary(data, s.limit)
		s.skipping, s.cut = true, true
		return n, data[:n], nil
	}
	return adv, token, err
}

// runeBoundary returns n or less so that data[:n] does not end in the
// middle of UTF-8 sequence.
func runeBoundary(data []byte, n int) int {
	i := n - 1
	for i > 0 && !utf8.RuneStart(data[i]) {
		i--
	}
	if i > 0 && !utf8.FullRune(data[i:n]) {
		return i
	}
	return n
}
