// Package markup renders single lines of Distributed Proofreaders markup to
// HTML fragments. Inline spans may cross line boundaries, so the renderer
// keeps state (open spans, Greek transliteration, footnote numbering) between
// calls and the caller is expected to Flush it at page boundaries.
package markup

import (
	"fmt"
	"html"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"dphtml/common"
)

// Options controls inline rendering.
type Options struct {
	Drama       bool // single unclosed bracket per page is allowed
	Yogh        bool // [3] is yogh rather than footnote reference
	LongS       bool // [f] is long s
	Entities    common.EntityMode
	HTMLQuotes  bool // curly quotes as named entities
	MaxTagDepth int
}

// Renderer converts lines of markup to HTML. It is not safe for concurrent
// use, every document gets its own instance.
type Renderer struct {
	opts  Options
	log   *zap.Logger
	diag  *Diagnostics
	stack *TagStack
	greek Transliterator
	out   strings.Builder

	inGreek     bool
	inFootnote  bool
	inSidenote  bool
	inParagraph bool // block being rendered is p element
	bareSup    bool // ^x superscript is open

	// footnote anchors are footnote_<section>_<counter>, section restarts
	// whenever footnote numbering restarts from 1
	footnoteSection int
	footnoteCounter int
	awaitingNote    bool // reference [1] started a section, its note not seen yet

	footnotes     int
	illustrations int
}

func NewRenderer(opts Options, diag *Diagnostics, log *zap.Logger) *Renderer {
	return &Renderer{
		opts:  opts,
		log:   log,
		diag:  diag,
		stack: NewTagStack(opts.MaxTagDepth),

		inParagraph: true,
	}
}

// SetParagraph tells whether following lines belong to p element. Inside
// headings illustration captions cannot start their own paragraph.
func (r *Renderer) SetParagraph(p bool) {
	r.inParagraph = p
}

// Line renders a single line of regular text.
func (r *Renderer) Line(line string) string {
	r.render([]rune(line))
	r.endOfLine()
	return r.take()
}

// PoetryLine renders a single line of poetry: leading spaces are preserved
// and text separated by six or more spaces goes to the right margin (line
// numbers).
func (r *Renderer) PoetryLine(line string) string {
	text := []rune(line)

	indent := 0
	for indent < len(text) && text[indent] == ' ' {
		indent++
	}
	r.out.WriteString(strings.Repeat("&nbsp;&nbsp;", indent))
	text = text[indent:]

	if at := indexSpaceRun(text, 6); at >= 0 {
		margin := text[at:]
		for len(margin) > 0 && margin[0] == ' ' {
			margin = margin[1:]
		}
		r.render(text[:at])
		r.out.WriteString(` <span class="rmn">`)
		r.render(margin)
		r.out.WriteString(`</span>`)
	} else {
		r.render(text)
	}
	r.endOfLine()
	r.FinishDramaBracket()
	r.out.WriteString("<br />")
	return r.take()
}

// Flush force closes all open spans, normally at page boundary. Spans left
// open are reported, except a single unclosed bracket in drama mode.
func (r *Renderer) Flush() string {
	var open []string
	discarded := r.stack.Flush(r.opts.Drama, func(k TagKind) {
		open = append(open, k.String())
		switch k {
		case TagGreek:
			r.out.WriteString(r.greek.Flush())
			r.inGreek = false
		case TagFootnote:
			r.inFootnote = false
		case TagSidenote:
			r.inSidenote = false
		case TagSuperscript1:
			r.bareSup = false
		}
		r.out.WriteString(k.Closer())
	})
	if discarded {
		r.log.Debug("Unclosed drama bracket discarded")
	}
	if len(open) > 0 {
		r.diag.Report(DiagUnbalanced, "Tags not closed at end of page", zap.Strings("open", open))
	}
	return r.take()
}

// FinishDramaBracket drops unclosed bracket (stage direction) at the end of
// paragraph or poetry line in drama mode.
func (r *Renderer) FinishDramaBracket() {
	if r.opts.Drama && r.stack.Top() == TagUnknown {
		r.stack.Pop()
	}
}

// InFootnote reports whether footnote body is still open.
func (r *Renderer) InFootnote() bool {
	return r.inFootnote
}

// InSidenote reports whether sidenote is still open.
func (r *Renderer) InSidenote() bool {
	return r.inSidenote
}

// Depth returns number of open spans.
func (r *Renderer) Depth() int {
	return r.stack.Len()
}

// Footnotes returns number of footnote bodies seen so far.
func (r *Renderer) Footnotes() int {
	return r.footnotes
}

// Illustrations returns number of illustrations seen so far.
func (r *Renderer) Illustrations() int {
	return r.illustrations
}

func (r *Renderer) render(line []rune) {
	for i := 0; i < len(line); {
		rest := line[i:]
		n := 0
		if rule, ok := charRules[rest[0]]; ok {
			if r.inGreek && r.greek.Pending() && endsGreekWord(rest[0]) {
				r.out.WriteString(r.greek.Boundary())
			}
			n = rule(r, rest)
		}
		if n == 0 {
			r.plain(rest[0])
			n = 1
		}
		i += n
	}
}

// endsGreekWord reports whether markup starting with c follows the last
// letter of a Greek word. Closing bracket ends the span instead, pending
// letter is flushed by the span end rules.
func endsGreekWord(c rune) bool {
	return c != ']' && (isWordEnd(c) || c == '<' || c == '>')
}

func (r *Renderer) endOfLine() {
	if r.bareSup {
		r.closeBareSup()
	}
}

func (r *Renderer) take() string {
	s := r.out.String()
	r.out.Reset()
	return s
}

// text writes markup making sure Greek letter held back goes out first.
func (r *Renderer) text(s string) {
	if r.greek.Pending() {
		r.out.WriteString(r.greek.Flush())
	}
	r.out.WriteString(s)
}

func (r *Renderer) plain(c rune) {
	if r.bareSup && (unicode.IsSpace(c) || strings.ContainsRune(".,?!", c)) {
		r.closeBareSup()
	}
	if !r.inGreek {
		r.out.WriteRune(c)
		return
	}
	out, err := r.greek.Consume(c)
	if err != nil {
		r.diag.Report(DiagUnrecognized, "Unexpected character in Greek transliteration", zap.Error(err))
	}
	r.out.WriteString(out)
}

// open pushes span and writes its opening markup. When nesting ceiling is
// reached nothing is written so output stays balanced.
func (r *Renderer) open(k TagKind, markup string) bool {
	if !r.stack.Push(k) {
		r.diag.Report(DiagCapacity, "Too many nested tags", zap.Stringer("tag", k), zap.Int("limit", r.stack.Cap()))
		return false
	}
	r.text(markup)
	return true
}

func (r *Renderer) closeBareSup() {
	r.bareSup = false
	if r.stack.Top() != TagSuperscript1 {
		r.diag.Report(DiagMismatch, "Superscript closed while other tag is open", zap.Stringer("open", r.stack.Top()))
		return
	}
	r.stack.Pop()
	r.text("</sup>")
}

// char writes code point according to requested entity mode.
func (r *Renderer) char(cp rune, named string) {
	switch r.opts.Entities {
	case common.EntityModeNamed:
		if len(named) > 0 {
			r.text(named)
			return
		}
	case common.EntityModeUnicode:
		r.text(html.EscapeString(string(cp)))
		return
	}
	r.text(numericReference(cp))
}

func (r *Renderer) entity(e Entity) {
	if r.opts.Entities == common.EntityModeLatin1 && len(e.Latin1) > 0 {
		r.text(html.EscapeString(e.Latin1))
		return
	}
	r.char(e.CodePoint, e.HTML)
}

// footnoteRef renders reference [N] to the footnote body.
func (r *Renderer) footnoteRef(label string) {
	if label == "1" {
		r.footnoteSection++
		r.footnoteCounter = 0
		r.awaitingNote = true
	}
	r.text(fmt.Sprintf(`<a name="ref_%d_%s"></a><a href="#footnote_%d_%s" class="fnref">[%s]</a>`,
		r.footnoteSection, label, r.footnoteSection, label, label))
}

// footnoteAnchor starts footnote body, labelled bodies link back to their
// reference.
func (r *Renderer) footnoteAnchor(label string, labelled bool) {
	if labelled && label == "1" {
		if r.awaitingNote {
			r.awaitingNote = false
		} else {
			r.footnoteSection++
			r.footnoteCounter = 0
		}
	}
	r.footnoteCounter++
	r.footnotes++
	r.text(fmt.Sprintf(`<a name="footnote_%d_%d"></a>`, r.footnoteSection, r.footnoteCounter))
	if labelled {
		r.text(fmt.Sprintf(`<a href="#ref_%d_%d">%s</a>`, r.footnoteSection, r.footnoteCounter, html.EscapeString(label)))
	}
}

func indexSpaceRun(text []rune, n int) int {
	run := 0
	for i, c := range text {
		if c != ' ' {
			run = 0
			continue
		}
		run++
		if run == n {
			return i - n + 1
		}
	}
	return -1
}
