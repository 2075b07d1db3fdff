package markup

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"dphtml/common"
)

func newTestRenderer(t *testing.T, opts Options) (*Renderer, *Diagnostics) {
	t.Helper()

	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	diag := NewDiagnostics(log)
	return NewRenderer(opts, diag, log), diag
}

func TestRenderer_Line(t *testing.T) {
	tests := []struct {
		name  string
		opts  Options
		in    string
		want  string
		diags map[DiagKind]int
	}{
		{name: "italic", in: "This is <i>emphasis</i>.", want: "This is <i>emphasis</i>."},
		{name: "escapes", in: `"a" & b > c`, want: "&quot;a&quot; &amp; b &gt; c"},
		{name: "stray less than", in: "a < b", want: "a &lt; b"},
		{name: "em dash", in: "x--y", want: "x&mdash;y"},
		{name: "double em dash", in: "x----y", want: "x&mdash;&mdash;y"},
		{name: "long dash run", in: "x------y", want: "x&mdash;&mdash;y"},
		{name: "three hyphens", in: "x---y", want: "x---y"},
		{name: "hyphen", in: "well-known", want: "well-known"},
		{name: "unicode dash", opts: Options{Entities: common.EntityModeUnicode}, in: "x--y", want: "x—y"},
		{name: "small caps", in: "<sc>Title</sc>", want: `<span class="smcap">Title</span>`},
		{
			name: "span tags",
			in:   "<g>a</g><f>b</f><u>c</u><asc>d</asc><size 2>e</size>",
			want: `<span class="gesperrt">a</span><span class="fraktur">b</span><span class="underline">c</span><span class="allsmcap">d</span><span class="size2">e</span>`,
		},
		{name: "bold", in: "<b>strong</b>", want: "<b>strong</b>"},
		{name: "thought break inline", in: "<tb>", want: ""},
		{name: "subscript", in: "H_{2}O", want: "H<sub>2</sub>O"},
		{name: "underscore", in: "snake_case", want: "snake_case"},
		{name: "braced superscript", in: "x^{2}", want: "x<sup>2</sup>"},
		{name: "bare superscript space", in: "1^st time", want: "1<sup>st</sup> time"},
		{name: "bare superscript end of line", in: "end^a", want: "end<sup>a</sup>"},
		{name: "bare superscript period", in: "Bare^x.", want: "Bare<sup>x</sup>."},
		{name: "bare superscript exclamation", in: "mc^2!", want: "mc<sup>2</sup>!"},
		{
			name: "footnote reference",
			in:   "text[1]",
			want: `text<a name="ref_1_1"></a><a href="#footnote_1_1" class="fnref">[1]</a>`,
		},
		{
			name: "footnote reference no restart",
			in:   "text[12]",
			want: `text<a name="ref_0_12"></a><a href="#footnote_0_12" class="fnref">[12]</a>`,
		},
		{name: "letter reference", in: "[A]", want: `<span class="fnref">[A]</span>`},
		{name: "asterisk reference", in: "[*]", want: `<span class="fnref">*</span>`},
		{name: "entity numeric", in: "[=a]", want: "&#x0101;"},
		{name: "entity named", opts: Options{Entities: common.EntityModeNamed}, in: "[oe]", want: "&oelig;"},
		{name: "entity named fallback", opts: Options{Entities: common.EntityModeNamed}, in: "[=a]", want: "&#x0101;"},
		{name: "entity unicode", opts: Options{Entities: common.EntityModeUnicode}, in: "[=a]", want: "ā"},
		{name: "entity unicode bracket", opts: Options{Entities: common.EntityModeUnicode}, in: "[osb]", want: "["},
		{name: "entity latin1", opts: Options{Entities: common.EntityModeLatin1}, in: "[oe]", want: "oe"},
		{name: "entity latin1 quote", opts: Options{Entities: common.EntityModeLatin1}, in: "[ldquo]", want: "&#34;"},
		{name: "entity latin1 fallback", opts: Options{Entities: common.EntityModeLatin1}, in: "[=a]", want: "&#x0101;"},
		{name: "stigma", in: "[st]", want: "ϛ"},
		{name: "greek", in: "[Greek: logos kai]", want: "λογος και"},
		{name: "greek span end sigma", in: "See [Greek: ho logos] here", want: "See ὁ λογοσ here"},
		{name: "greek sigma before dash", in: "[Greek: logos--kai]", want: "λογος&mdash;και"},
		{name: "greek sigma before quote", in: `[Greek: logos"]`, want: "λογος&quot;"},
		{name: "greek sigma before ampersand", in: "[Greek: theos & logos]", want: "θεος &amp; λογοσ"},
		{name: "greek sigma before italic", in: "[Greek: <i>logos</i> kai]", want: "<i>λογος</i> και"},
		{name: "greek sigma before entity", in: "[Greek: logos[oe]]", want: "λογος&#x0153;"},
		{name: "greek sigma before superscript", in: "[Greek: logos^{2}]", want: "λογοσ<sup>2</sup>"},
		{name: "unknown bracket", in: "[Foo] bar", want: "[Foo] bar", diags: map[DiagKind]int{DiagUnrecognized: 1}},
		{name: "unknown bracket drama", opts: Options{Drama: true}, in: "[Foo] bar", want: "[Foo] bar"},
		{name: "mismatch", in: "<i>a</b>", want: "<i>a", diags: map[DiagKind]int{DiagMismatch: 1}},
		{name: "comment", in: "[**note]", want: `<span class="comment">[**note]</span>`},
		{name: "handwriting", in: "[HW: Signed]", want: `<span class="handwriting">Signed</span>`},
		{name: "symbol", in: "[Symbol: x]", want: "[Symbol: x]"},
		{name: "unlabelled footnote", in: "[Footnote: a]", want: `<a name="footnote_0_1"></a>a`},
		{name: "sidenote", in: "[Sidenote: Note]", want: "Note"},
		{
			name: "illustration caption",
			in:   "[Illustration: A cat]",
			want: missingImage + "</p>\n" + `<p class="caption">` + "\nA cat",
		},
		{name: "illustration", in: "[Illustration]", want: missingImage},
		{name: "blank page", in: "[Blank Page]", want: ""},
		{name: "curly quotes", in: "“Hi”", want: "“Hi”"},
		{name: "curly quotes named", opts: Options{HTMLQuotes: true}, in: "“Hi” ‘x’", want: "&ldquo;Hi&rdquo; &lsquo;x&rsquo;"},
		{name: "yogh", opts: Options{Yogh: true}, in: "[3]", want: "&#x021d;"},
		{name: "capital yogh", in: "[3*]", want: "&#x021c;"},
		{name: "long s", opts: Options{LongS: true}, in: "[f]", want: "s"},
		{name: "no long s", in: "[f]", want: "[f]", diags: map[DiagKind]int{DiagUnrecognized: 1}},
		{
			name:  "bracket closes inner span",
			in:    "[Footnote: <i>text]",
			want:  `<a name="footnote_0_1"></a><i>text</i>`,
			diags: map[DiagKind]int{DiagMismatch: 1},
		},
		{name: "stray closing bracket", in: "a]b", want: "a]b", diags: map[DiagKind]int{DiagMismatch: 1}},
		{
			name:  "closing bracket inside italic",
			in:    "<i>a]b</i>",
			want:  "<i>a]b</i>",
			diags: map[DiagKind]int{DiagMismatch: 1},
		},
		{
			name:  "closing bracket inside small caps",
			in:    "<b><sc>x]</sc></b>",
			want:  `<b><span class="smcap">x]</span></b>`,
			diags: map[DiagKind]int{DiagMismatch: 1},
		},
		{name: "open span left for next line", in: "<i>unclosed", want: "<i>unclosed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, diag := newTestRenderer(t, tt.opts)
			if got := r.Line(tt.in); got != tt.want {
				t.Errorf("Line(%q) = %q, want %q", tt.in, got, tt.want)
			}
			total := 0
			for kind, want := range tt.diags {
				total += want
				if got := diag.Count(kind); got != want {
					t.Errorf("%s diagnostics = %d, want %d", kind, got, want)
				}
			}
			if diag.Total() != total {
				t.Errorf("total diagnostics = %d, want %d", diag.Total(), total)
			}
		})
	}
}

func TestRenderer_CaptionOutsideParagraph(t *testing.T) {
	r, diag := newTestRenderer(t, Options{})
	r.SetParagraph(false)

	want := missingImage + "<br />\n" + `<span class="caption">A map</span>`
	if got := r.Line("[Illustration: A map]"); got != want {
		t.Errorf("Line() = %q, want %q", got, want)
	}

	// caption continued on the next page is still closed
	if got := r.Line("[Illustration: Long"); got != missingImage+"<br />\n"+`<span class="caption">Long` {
		t.Errorf("Line() = %q", got)
	}
	if got := r.Flush(); got != "</span>" {
		t.Errorf("Flush() = %q, want %q", got, "</span>")
	}
	if diag.Count(DiagUnbalanced) != 1 || diag.Total() != 1 {
		t.Errorf("diagnostics = %v, want single unbalanced", diag.Counts())
	}

	r.SetParagraph(true)
	want = missingImage + "</p>\n" + `<p class="caption">` + "\nA cat"
	if got := r.Line("[Illustration: A cat]"); got != want {
		t.Errorf("Line() = %q, want %q", got, want)
	}
}

func TestRenderer_SpansCrossLines(t *testing.T) {
	r, diag := newTestRenderer(t, Options{})

	if got := r.Line("<i>start"); got != "<i>start" {
		t.Errorf("first line = %q", got)
	}
	if r.Depth() != 1 {
		t.Errorf("Depth() = %d, want 1", r.Depth())
	}
	if got := r.Line("end</i>"); got != "end</i>" {
		t.Errorf("second line = %q", got)
	}
	if r.Depth() != 0 || diag.Total() != 0 {
		t.Errorf("Depth() = %d, diagnostics = %d", r.Depth(), diag.Total())
	}
}

func TestRenderer_Flush(t *testing.T) {
	tests := []struct {
		name       string
		drama      bool
		lines      []string
		want       string
		unbalanced int
		total      int
	}{
		{name: "italic", lines: []string{"<i>unclosed"}, want: "</i>", unbalanced: 1, total: 1},
		{name: "nested", lines: []string{"<i><b>x"}, want: "</b></i>", unbalanced: 1, total: 1},
		{name: "greek pending letter", lines: []string{"[Greek: los"}, want: "σ", unbalanced: 1, total: 1},
		{name: "balanced", lines: []string{"<i>x</i>"}, want: ""},
		{name: "drama bracket", drama: true, lines: []string{"[Exit Tom"}, want: ""},
		{name: "bracket without drama", lines: []string{"[Exit Tom"}, want: "", unbalanced: 1, total: 2},
		{name: "drama tolerates one bracket", drama: true, lines: []string{"[a [b"}, want: "", unbalanced: 1, total: 1},
		{name: "sidenote", lines: []string{"[Sidenote: across"}, want: "", unbalanced: 1, total: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, diag := newTestRenderer(t, Options{Drama: tt.drama})
			for _, l := range tt.lines {
				r.Line(l)
			}
			if got := r.Flush(); got != tt.want {
				t.Errorf("Flush() = %q, want %q", got, tt.want)
			}
			if r.Depth() != 0 {
				t.Errorf("Depth() after flush = %d", r.Depth())
			}
			if r.InSidenote() || r.InFootnote() {
				t.Error("modes must be cleared by flush")
			}
			if got := diag.Count(DiagUnbalanced); got != tt.unbalanced {
				t.Errorf("unbalanced diagnostics = %d, want %d", got, tt.unbalanced)
			}
			if diag.Total() != tt.total {
				t.Errorf("total diagnostics = %d, want %d", diag.Total(), tt.total)
			}
		})
	}
}

func TestRenderer_Capacity(t *testing.T) {
	r, diag := newTestRenderer(t, Options{MaxTagDepth: 2})

	if got := r.Line("<i><b><sc>x</sc></b></i>"); got != "<i><b>x</b></i>" {
		t.Errorf("Line() = %q", got)
	}
	if diag.Count(DiagCapacity) != 1 {
		t.Errorf("capacity diagnostics = %d, want 1", diag.Count(DiagCapacity))
	}
	if diag.Count(DiagMismatch) != 1 {
		t.Errorf("mismatch diagnostics = %d, want 1", diag.Count(DiagMismatch))
	}
}

func TestRenderer_FootnoteNumbering(t *testing.T) {
	t.Run("references and bodies", func(t *testing.T) {
		r, _ := newTestRenderer(t, Options{})

		steps := []struct{ in, want string }{
			{"See[1].", `See<a name="ref_1_1"></a><a href="#footnote_1_1" class="fnref">[1]</a>.`},
			{"[Footnote 1: Note.]", `<a name="footnote_1_1"></a><a href="#ref_1_1">1</a>: Note.`},
			{"More[1].", `More<a name="ref_2_1"></a><a href="#footnote_2_1" class="fnref">[1]</a>.`},
			{"[Footnote 1: Again.]", `<a name="footnote_2_1"></a><a href="#ref_2_1">1</a>: Again.`},
		}
		for _, s := range steps {
			if got := r.Line(s.in); got != s.want {
				t.Errorf("Line(%q) = %q, want %q", s.in, got, s.want)
			}
		}
		if r.Footnotes() != 2 {
			t.Errorf("Footnotes() = %d, want 2", r.Footnotes())
		}
	})

	t.Run("bodies restart numbering", func(t *testing.T) {
		r, _ := newTestRenderer(t, Options{})

		steps := []struct{ in, want string }{
			{"[Footnote 1: a]", `<a name="footnote_1_1"></a><a href="#ref_1_1">1</a>: a`},
			{"[Footnote 1: b]", `<a name="footnote_2_1"></a><a href="#ref_2_1">1</a>: b`},
			{"[Footnote 2: c]", `<a name="footnote_2_2"></a><a href="#ref_2_2">2</a>: c`},
		}
		for _, s := range steps {
			if got := r.Line(s.in); got != s.want {
				t.Errorf("Line(%q) = %q, want %q", s.in, got, s.want)
			}
		}
	})

	t.Run("body across lines", func(t *testing.T) {
		r, diag := newTestRenderer(t, Options{})

		r.Line("[Footnote 1: starts")
		if !r.InFootnote() {
			t.Error("InFootnote() = false inside footnote body")
		}
		r.Line("ends.]")
		if r.InFootnote() {
			t.Error("InFootnote() = true after footnote body closed")
		}
		if diag.Total() != 0 {
			t.Errorf("unexpected diagnostics: %d", diag.Total())
		}
	})

	t.Run("label without colon", func(t *testing.T) {
		r, diag := newTestRenderer(t, Options{})

		r.Line("[Footnote 7")
		if diag.Count(DiagMalformed) != 1 {
			t.Errorf("malformed diagnostics = %d, want 1", diag.Count(DiagMalformed))
		}
	})
}

func TestRenderer_Illustrations(t *testing.T) {
	r, _ := newTestRenderer(t, Options{})

	r.Line("[Illustration]")
	r.Line("[Illustration: Caption]")
	if r.Illustrations() != 2 {
		t.Errorf("Illustrations() = %d, want 2", r.Illustrations())
	}
	if r.Depth() != 0 {
		t.Errorf("Depth() = %d, caption span should be closed", r.Depth())
	}
}

func TestRenderer_PoetryLine(t *testing.T) {
	tests := []struct {
		name  string
		drama bool
		in    string
		want  string
	}{
		{name: "plain", in: "Plain verse", want: "Plain verse<br />"},
		{name: "indent", in: "  Indented", want: "&nbsp;&nbsp;&nbsp;&nbsp;Indented<br />"},
		{
			name: "line number",
			in:   "  Line of verse      12",
			want: `&nbsp;&nbsp;&nbsp;&nbsp;Line of verse <span class="rmn">12</span><br />`,
		},
		{name: "markup", in: "<i>Sing</i>, O Muse", want: "<i>Sing</i>, O Muse<br />"},
		{name: "stage direction", drama: true, in: "[Aside to Tom", want: "[Aside to Tom<br />"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRenderer(t, Options{Drama: tt.drama})
			if got := r.PoetryLine(tt.in); got != tt.want {
				t.Errorf("PoetryLine(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if r.Depth() != 0 {
				t.Errorf("Depth() = %d, want 0", r.Depth())
			}
		})
	}
}

func TestDiagnostics_Report(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	diag := NewDiagnostics(zap.New(core))

	diag.SetPosition(3, 42, "bad <i>line</b>")
	diag.Report(DiagMismatch, "Tags don't match")

	if logs.Len() != 1 {
		t.Fatalf("logged %d entries, want 1", logs.Len())
	}
	fields := logs.All()[0].ContextMap()
	if fields["kind"] != "mismatch" {
		t.Errorf("kind = %v, want mismatch", fields["kind"])
	}
	if fields["page"] != int64(3) {
		t.Errorf("page = %v, want 3", fields["page"])
	}
	if fields["line"] != int64(42) {
		t.Errorf("line = %v, want 42", fields["line"])
	}
	if fields["context"] != "bad <i>line</b>" {
		t.Errorf("context = %v", fields["context"])
	}
	if got := diag.Counts(); got["mismatch"] != 1 || len(got) != 1 {
		t.Errorf("Counts() = %v", got)
	}
}
