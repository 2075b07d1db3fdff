package markup

import (
	"fmt"
	"strings"
	"unicode"
)

// greekState is the letter the transliterator holds back until the next
// character decides which Greek letter it stands for.
type greekState int

const (
	greekIdle greekState = iota
	greekN
	greekUpperN
	greekNC // "nc" seen, "nch" is gamma chi
	greekUpperNC
	greekP
	greekUpperP
	greekR
	greekUpperR
	greekS
	greekT
	greekUpperT
	greekH
	greekUpperH
	greekC
	greekUpperC
)

// letters which cannot be transliterated without lookahead
var greekPrefixes = map[rune]greekState{
	'n': greekN, 'N': greekUpperN,
	'p': greekP, 'P': greekUpperP,
	'r': greekR, 'R': greekUpperR,
	's': greekS,
	't': greekT, 'T': greekUpperT,
	'h': greekH, 'H': greekUpperH,
	'c': greekC, 'C': greekUpperC,
}

// greekLetters maps single Latin letters to Greek ones, anything absent
// passes through unchanged.
var greekLetters = map[rune]rune{
	'h': '\'', 'H': '\'',
	'a': 'α', 'b': 'β', 'g': 'γ', 'd': 'δ', 'e': 'ε', 'z': 'ζ',
	'ê': 'η', 'ē': 'η', 'i': 'ι', 'k': 'κ', 'l': 'λ', 'm': 'μ',
	'n': 'ν', 'x': 'ξ', 'o': 'ο', 'p': 'π', 'r': 'ρ', 's': 'ς',
	't': 'τ', 'u': 'υ', 'y': 'υ', 'w': 'ϝ', 'ô': 'ω', 'ō': 'ω',
	'A': 'Α', 'B': 'Β', 'G': 'Γ', 'D': 'Δ', 'E': 'Ε', 'Z': 'Ζ',
	'Ê': 'Η', 'Ē': 'Η', 'I': 'Ι', 'K': 'Κ', 'L': 'Λ', 'M': 'Μ',
	'N': 'Ν', 'X': 'Ξ', 'O': 'Ο', 'P': 'Π', 'R': 'Ρ', 'S': 'Σ',
	'T': 'Τ', 'U': 'Υ', 'Y': 'Υ', 'W': 'Ϝ', 'Ô': 'Ω', 'Ō': 'Ω',
	'?': 0x37e, // Greek question mark
	';': 0x387, // ano teleia
	'Ï': 'Ϊ', 'Ü': 'Ϋ', 'ï': 'ϊ', 'ü': 'ϋ',
}

// greekDigraphs lists characters completing a pending letter.
var greekDigraphs = map[greekState]map[rune]rune{
	greekP:      {'h': 'φ', 'H': 'φ', 's': 'ψ', 'S': 'ψ'},
	greekUpperP: {'h': 'Φ', 'H': 'Φ', 's': 'Ψ', 'S': 'Ψ'},
	greekR:      {'h': 'ῥ', 'H': 'ῥ'},
	greekUpperR: {'h': 'Ῥ', 'H': 'Ῥ'},
	greekT:      {'h': 'θ', 'H': 'θ'},
	greekUpperT: {'h': 'Θ', 'H': 'Θ'},
	greekC:      {'h': 'χ', 'H': 'χ'},
	greekUpperC: {'h': 'Χ', 'H': 'Χ'},
	greekH:      roughBreathing('ἁ', 'ἑ', 'ἡ', 'ἱ', 'ὁ', 'ὑ', 'ὡ'),
	greekUpperH: roughBreathing('Ἁ', 'Ἑ', 'Ἡ', 'Ἱ', 'Ὁ', 'Ὑ', 'Ὡ'),
}

func roughBreathing(a, e, ee, i, o, u, oo rune) map[rune]rune {
	m := make(map[rune]rune)
	for _, p := range []struct {
		keys string
		val  rune
	}{
		{"aA", a}, {"eE", e}, {"êÊēĒ", ee}, {"iI", i}, {"oO", o}, {"uUyY", u}, {"ôÔōŌ", oo},
	} {
		for _, k := range p.keys {
			m[k] = p.val
		}
	}
	return m
}

// greekPending is what a pending state stands for when no digraph follows.
var greekPending = map[greekState]string{
	greekN:       "ν",
	greekUpperN:  "Ν",
	greekNC:      "νc",
	greekUpperNC: "ΝC",
	greekP:       "π",
	greekUpperP:  "Π",
	greekR:       "ρ",
	greekUpperR:  "Ρ",
	greekS:       "σ",
	greekT:       "τ",
	greekUpperT:  "Τ",
	greekH:       "'",
	greekUpperH:  "'",
	greekC:       "c",
	greekUpperC:  "C",
}

func greekLetter(c rune) rune {
	if g, ok := greekLetters[c]; ok {
		return g
	}
	return c
}

func isWordEnd(c rune) bool {
	return unicode.IsSpace(c) || unicode.IsPunct(c)
}

// transition consumes one character in state s. It returns text to emit and
// the next state. Error is returned when c cannot follow the pending letter,
// emitted text is still usable in this case.
func transition(s greekState, c rune) (string, greekState, error) {
	switch s {
	case greekIdle:
		if next, ok := greekPrefixes[c]; ok {
			return "", next, nil
		}
		return string(greekLetter(c)), greekIdle, nil

	case greekN, greekUpperN:
		switch {
		case strings.ContainsRune("gGxXkK", c):
			// nasal gamma, letter itself is processed normally
			gamma := "γ"
			if s == greekUpperN {
				gamma = "Γ"
			}
			out, next, err := transition(greekIdle, c)
			return gamma + out, next, err
		case s == greekN && c == 'c':
			return "", greekNC, nil
		case s == greekUpperN && c == 'C':
			return "", greekUpperNC, nil
		}

	case greekNC, greekUpperNC:
		lower := s == greekNC
		prefix, chi := "ν", greekC
		if !lower {
			prefix, chi = "Ν", greekUpperC
		}
		if (lower && c == 'h') || (!lower && c == 'H') {
			prefix = "γ"
			if !lower {
				prefix = "Γ"
			}
		}
		out, next, err := transition(chi, c)
		return prefix + out, next, err

	case greekS:
		if isWordEnd(c) {
			out, next, err := transition(greekIdle, c)
			return "ς" + out, next, err
		}
	}

	if m, ok := greekDigraphs[s]; ok {
		if g, ok := m[c]; ok {
			return string(g), greekIdle, nil
		}
	}

	var err error
	if s == greekC || s == greekUpperC || s == greekH || s == greekUpperH {
		err = fmt.Errorf("unexpected character %q after %q in Greek transliteration", c, greekPending[s])
	}
	out, next, nerr := transition(greekIdle, c)
	if err == nil {
		err = nerr
	}
	return greekPending[s] + out, next, err
}

// Transliterator converts Latin transliteration of Greek (as used in
// [Greek: ...] spans) to Greek letters. It holds back at most one letter.
type Transliterator struct {
	state greekState
}

// Consume processes next character and returns text ready for output.
func (t *Transliterator) Consume(c rune) (string, error) {
	out, next, err := transition(t.state, c)
	t.state = next
	return out, err
}

// Pending reports whether a letter is held back.
func (t *Transliterator) Pending() bool {
	return t.state != greekIdle
}

// Flush emits the held back letter, if any, and resets the state. Pending
// sigma at the end of span always becomes non-final form.
func (t *Transliterator) Flush() string {
	out := greekPending[t.state]
	t.state = greekIdle
	return out
}

// Boundary emits the held back letter as the last letter of a word and
// resets the state, pending s becomes final sigma.
func (t *Transliterator) Boundary() string {
	if t.state == greekS {
		t.state = greekIdle
		return "ς"
	}
	return t.Flush()
}
