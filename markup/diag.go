package markup

import (
	"go.uber.org/zap"
)

// DiagKind classifies markup problems. None of them stops rendering.
type DiagKind int

const (
	DiagMismatch     DiagKind = iota // closing tag does not match innermost open span
	DiagUnbalanced                   // spans left open at page or document boundary
	DiagMalformed                    // construct missing its terminator, unexpected structure
	DiagCapacity                     // nesting ceiling reached
	DiagUnrecognized                 // unknown bracket sequence or unexpected input character
	diagKinds
)

func (k DiagKind) String() string {
	switch k {
	case DiagMismatch:
		return "mismatch"
	case DiagUnbalanced:
		return "unbalanced"
	case DiagMalformed:
		return "malformed"
	case DiagCapacity:
		return "capacity"
	case DiagUnrecognized:
		return "unrecognized"
	}
	return "invalid"
}

// Diagnostics reports markup problems to the log together with position in
// the source and keeps per kind counters.
type Diagnostics struct {
	log    *zap.Logger
	page   int
	lineNo int
	line   string
	counts [diagKinds]int
}

func NewDiagnostics(log *zap.Logger) *Diagnostics {
	return &Diagnostics{log: log}
}

// SetPosition records where in the source subsequent reports originate.
func (d *Diagnostics) SetPosition(page, lineNo int, line string) {
	d.page, d.lineNo, d.line = page, lineNo, line
}

func (d *Diagnostics) Report(kind DiagKind, msg string, fields ...zap.Field) {
	if kind >= 0 && kind < diagKinds {
		d.counts[kind]++
	}
	d.log.Warn(msg, append([]zap.Field{
		zap.Stringer("kind", kind),
		zap.Int("page", d.page),
		zap.Int("line", d.lineNo),
		zap.String("context", d.line),
	}, fields...)...)
}

func (d *Diagnostics) Count(kind DiagKind) int {
	if kind < 0 || kind >= diagKinds {
		return 0
	}
	return d.counts[kind]
}

func (d *Diagnostics) Total() int {
	total := 0
	for _, c := range d.counts {
		total += c
	}
	return total
}

// Counts returns number of reports per kind name, kinds never reported are
// omitted.
func (d *Diagnostics) Counts() map[string]int {
	m := make(map[string]int)
	for k, c := range d.counts {
		if c > 0 {
			m[DiagKind(k).String()] = c
		}
	}
	return m
}
