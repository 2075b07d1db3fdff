package markup

import (
	"slices"
	"strings"

	"go.uber.org/zap"

	"dphtml/common"
)

// rule tries to handle markup at the beginning of rest. It returns number of
// runes consumed, 0 means rule does not apply.
type rule func(r *Renderer, rest []rune) int

var charRules map[rune]rule

func init() {
	charRules = map[rune]rule{
		'"': literal("&quot;"),
		'&': literal("&amp;"),
		'>': literal("&gt;"),
		'‘': curlyQuote("&lsquo;"),
		'’': curlyQuote("&rsquo;"),
		'“': curlyQuote("&ldquo;"),
		'”': curlyQuote("&rdquo;"),
		'^': superscript,
		'_': subscript,
		'}': closeBrace,
		'-': dashes,
		'<': firstOf(angleRules),
		'[': firstOf(bracketRules),
		']': closeBracket,
	}
}

func firstOf(rules []rule) rule {
	return func(r *Renderer, rest []rune) int {
		for _, try := range rules {
			if n := try(r, rest); n > 0 {
				return n
			}
		}
		return 0
	}
}

func hasPrefix(rest []rune, prefix string) bool {
	p := []rune(prefix)
	return len(rest) >= len(p) && slices.Equal(rest[:len(p)], p)
}

// skipSpaces returns n advanced past spaces following first n runes.
func skipSpaces(rest []rune, n int) int {
	for n < len(rest) && rest[n] == ' ' {
		n++
	}
	return n
}

func literal(s string) rule {
	return func(r *Renderer, rest []rune) int {
		r.text(s)
		return 1
	}
}

func curlyQuote(named string) rule {
	return func(r *Renderer, rest []rune) int {
		if !r.opts.HTMLQuotes {
			return 0
		}
		r.text(named)
		return 1
	}
}

func superscript(r *Renderer, rest []rune) int {
	if hasPrefix(rest, "^{") {
		r.open(TagSuperscript, "<sup>")
		return 2
	}
	if r.open(TagSuperscript1, "<sup>") {
		r.bareSup = true
	}
	return 1
}

func subscript(r *Renderer, rest []rune) int {
	if !hasPrefix(rest, "_{") {
		return 0
	}
	r.open(TagSubscript, "<sub>")
	return 2
}

func closeBrace(r *Renderer, rest []rune) int {
	switch r.stack.Top() {
	case TagSuperscript:
		r.stack.Pop()
		r.text("</sup>")
		return 1
	case TagSubscript:
		r.stack.Pop()
		r.text("</sub>")
		return 1
	}
	return 0
}

func dashes(r *Renderer, rest []rune) int {
	n := 0
	for n < len(rest) && rest[n] == '-' {
		n++
	}
	dash := "&mdash;"
	if r.opts.Entities == common.EntityModeUnicode {
		dash = "—"
	}
	switch {
	case n == 2:
		r.text(dash)
	case n >= 4:
		r.text(dash + dash)
	default:
		r.text(strings.Repeat("-", n))
	}
	return n
}

// Angle bracket tags.

type angleTag struct {
	token  string
	kind   TagKind
	markup string
	close  bool
}

var angleTags = []angleTag{
	{token: "<i>", kind: TagItalic, markup: "<i>"},
	{token: "<b>", kind: TagBold, markup: "<b>"},
	{token: "<g>", kind: TagGesperrt, markup: `<span class="gesperrt">`},
	{token: "<f>", kind: TagFraktur, markup: `<span class="fraktur">`},
	{token: "<sc>", kind: TagSmallCaps, markup: `<span class="smcap">`},
	{token: "<asc>", kind: TagAllSmallCaps, markup: `<span class="allsmcap">`},
	{token: "<u>", kind: TagUnderline, markup: `<span class="underline">`},
	{token: "<size 1>", kind: TagSize, markup: `<span class="size1">`},
	{token: "<size 2>", kind: TagSize, markup: `<span class="size2">`},
	{token: "</i>", kind: TagItalic, markup: "</i>", close: true},
	{token: "</b>", kind: TagBold, markup: "</b>", close: true},
	{token: "</g>", kind: TagGesperrt, markup: "</span>", close: true},
	{token: "</f>", kind: TagFraktur, markup: "</span>", close: true},
	{token: "</sc>", kind: TagSmallCaps, markup: "</span>", close: true},
	{token: "</asc>", kind: TagAllSmallCaps, markup: "</span>", close: true},
	{token: "</u>", kind: TagUnderline, markup: "</span>", close: true},
	{token: "</size>", kind: TagSize, markup: "</span>", close: true},
}

var angleRules = func() []rule {
	rules := make([]rule, 0, len(angleTags)+2)
	for _, t := range angleTags {
		rules = append(rules, func(r *Renderer, rest []rune) int {
			if !hasPrefix(rest, t.token) {
				return 0
			}
			if !t.close {
				r.open(t.kind, t.markup)
			} else if top := r.stack.Top(); top == t.kind {
				r.stack.Pop()
				r.text(t.markup)
			} else {
				r.diag.Report(DiagMismatch, "Tags don't match", zap.String("closing", t.token), zap.Stringer("open", top))
			}
			return len([]rune(t.token))
		})
	}
	return append(rules,
		// thought break is rendered by paragraph, nothing inline
		func(r *Renderer, rest []rune) int {
			if hasPrefix(rest, "<tb>") {
				return 4
			}
			return 0
		},
		literal("&lt;"),
	)
}()

// Square bracket sequences, order is priority.

var bracketRules = []rule{
	longS,
	yogh,
	footnoteReference,
	letterReference,
	greekLiterals,
	fixedSequences,
	entityReference,
	illustration,
	openGreek,
	openSymbol,
	openSidenote,
	openFootnote,
	openLabelledFootnote,
	openComment,
	openHandwriting,
	unknownBracket,
}

func longS(r *Renderer, rest []rune) int {
	if !r.opts.LongS || !hasPrefix(rest, "[f]") {
		return 0
	}
	r.text("s")
	return 3
}

func yogh(r *Renderer, rest []rune) int {
	if !r.opts.Yogh || !hasPrefix(rest, "[3]") {
		return 0
	}
	r.char(0x21d, "")
	return 3
}

const maxFootnoteDigits = 20

func footnoteReference(r *Renderer, rest []rune) int {
	n := 1
	for n < len(rest) && n <= maxFootnoteDigits && rest[n] >= '0' && rest[n] <= '9' {
		n++
	}
	if n == 1 || n >= len(rest) || rest[n] != ']' {
		return 0
	}
	r.footnoteRef(string(rest[1:n]))
	return n + 1
}

func letterReference(r *Renderer, rest []rune) int {
	if len(rest) < 3 || rest[1] < 'A' || rest[1] > 'Z' || rest[2] != ']' {
		return 0
	}
	r.text(`<span class="fnref">[` + string(rest[1]) + `]</span>`)
	return 3
}

// Greek numeral sign and stigma are written as characters even outside of
// Greek spans.
func greekLiterals(r *Renderer, rest []rune) int {
	for _, l := range []struct {
		token string
		cp    rune
	}{
		{"[']", 0x374},
		{"[st]", 0x3db},
		{"[ST]", 0x3da},
	} {
		if hasPrefix(rest, l.token) {
			r.text(string(l.cp))
			return len([]rune(l.token))
		}
	}
	return 0
}

func fixedSequences(r *Renderer, rest []rune) int {
	switch {
	case hasPrefix(rest, "[*]"):
		r.text(`<span class="fnref">*</span>`)
		return 3
	case hasPrefix(rest, "[3*]"):
		r.char(0x21c, "")
		return 4
	case hasPrefix(rest, "[Blank Page]"):
		return len("[Blank Page]")
	}
	return 0
}

func entityReference(r *Renderer, rest []rune) int {
	e, ok := LookupEntity(rest)
	if !ok {
		return 0
	}
	r.entity(e)
	return e.Len()
}

const missingImage = `<img src="images/missing.jpg" alt="Missing image" />` + "\n"

func illustration(r *Renderer, rest []rune) int {
	switch {
	case hasPrefix(rest, "[Illustration]"):
		r.illustrations++
		r.text(missingImage)
		return len("[Illustration]")
	case hasPrefix(rest, "[Illustration:"):
		r.illustrations++
		n := skipSpaces(rest, len("[Illustration:"))
		r.text(missingImage)
		if r.inParagraph {
			r.open(TagIllustration, "</p>\n"+`<p class="caption">`+"\n")
		} else {
			r.open(TagCaption, `<br />`+"\n"+`<span class="caption">`)
		}
		return n
	}
	return 0
}

func openGreek(r *Renderer, rest []rune) int {
	if !hasPrefix(rest, "[Greek:") {
		return 0
	}
	if r.open(TagGreek, "") {
		r.inGreek = true
	}
	return skipSpaces(rest, len("[Greek:"))
}

func openSymbol(r *Renderer, rest []rune) int {
	if !hasPrefix(rest, "[Symbol:") {
		return 0
	}
	r.open(TagSymbol, "[Symbol:")
	return len("[Symbol:")
}

func openSidenote(r *Renderer, rest []rune) int {
	if !hasPrefix(rest, "[Sidenote:") {
		return 0
	}
	if r.open(TagSidenote, "") {
		r.inSidenote = true
	}
	return skipSpaces(rest, len("[Sidenote:"))
}

func openFootnote(r *Renderer, rest []rune) int {
	if !hasPrefix(rest, "[Footnote:") {
		return 0
	}
	if r.open(TagFootnote, "") {
		r.inFootnote = true
	}
	r.footnoteAnchor("", false)
	return skipSpaces(rest, len("[Footnote:"))
}

// openLabelledFootnote handles "[Footnote N: text", label is written as link
// back to the reference and colon stays in the text.
func openLabelledFootnote(r *Renderer, rest []rune) int {
	if !hasPrefix(rest, "[Footnote ") {
		return 0
	}
	n := skipSpaces(rest, len("[Footnote "))
	end := n
	for end < len(rest) && rest[end] != ':' {
		end++
	}
	if end == len(rest) {
		r.diag.Report(DiagMalformed, "Footnote label is not terminated by colon")
	}
	if r.open(TagFootnote, "") {
		r.inFootnote = true
	}
	r.footnoteAnchor(string(rest[n:end]), true)
	return end
}

func openComment(r *Renderer, rest []rune) int {
	if !hasPrefix(rest, "[**") {
		return 0
	}
	r.open(TagComment, `<span class="comment">[**`)
	return 3
}

func openHandwriting(r *Renderer, rest []rune) int {
	if !hasPrefix(rest, "[HW:") {
		return 0
	}
	r.open(TagHandwriting, `<span class="handwriting">`)
	return skipSpaces(rest, len("[HW:"))
}

func unknownBracket(r *Renderer, rest []rune) int {
	r.text("[")
	r.open(TagUnknown, "")
	if !r.opts.Drama {
		r.diag.Report(DiagUnrecognized, "Unrecognized sequence", zap.String("sequence", sequence(rest)))
	}
	return 1
}

// sequence returns bracketed text for diagnostics.
func sequence(rest []rune) string {
	if end := slices.Index(rest, ']'); end >= 0 {
		return string(rest[:end+1])
	}
	const limit = 20
	if len(rest) > limit {
		return string(rest[:limit]) + "..."
	}
	return string(rest)
}

// bracketKinds are spans terminated by ']'.
var bracketKinds = []TagKind{
	TagGreek, TagSymbol, TagComment, TagSidenote, TagFootnote,
	TagHandwriting, TagIllustration, TagCaption, TagUnknown,
}

func closeBracket(r *Renderer, rest []rune) int {
	if r.bareSup {
		r.closeBareSup()
	}

	// spans opened inside the bracket and never closed are closed here
	for top := r.stack.Top(); top != TagNone && !slices.Contains(bracketKinds, top); top = r.stack.Top() {
		if !r.stack.containsAny(bracketKinds) {
			r.strayBracket(top)
			return 1
		}
		r.diag.Report(DiagMismatch, "Tags don't match", zap.String("closing", "]"), zap.Stringer("open", top))
		r.stack.Pop()
		r.text(top.Closer())
	}

	switch k := r.stack.Pop(); k {
	case TagComment:
		r.text("]</span>")
	case TagHandwriting, TagCaption:
		r.text("</span>")
	case TagSidenote:
		r.inSidenote = false
	case TagFootnote:
		r.inFootnote = false
	case TagGreek:
		r.text("") // held back letter
		r.inGreek = false
	case TagIllustration:
	case TagNone:
		r.strayBracket(TagNone)
	default:
		// symbol or unknown
		r.text("]")
	}
	return 1
}

// strayBracket keeps closing bracket nothing has opened as literal text.
func (r *Renderer) strayBracket(top TagKind) {
	r.diag.Report(DiagMismatch, "Closing bracket without opening one", zap.String("closing", "]"), zap.Stringer("open", top))
	r.text("]")
}
