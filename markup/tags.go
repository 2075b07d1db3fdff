package markup

import "slices"

// TagKind identifies inline markup span currently open.
type TagKind int

const (
	TagNone TagKind = iota
	TagItalic
	TagBold
	TagSmallCaps
	TagAllSmallCaps
	TagGesperrt
	TagFraktur
	TagUnderline
	TagSize
	TagSuperscript  // ^{...}
	TagSuperscript1 // ^x, closed by whitespace or punctuation
	TagSubscript
	TagGreek
	TagSymbol
	TagComment
	TagSidenote
	TagFootnote
	TagHandwriting
	TagIllustration
	TagCaption // illustration caption outside of paragraph
	TagUnknown // unrecognized [ sequence
)

var tagNames = map[TagKind]string{
	TagNone:         "none",
	TagItalic:       "italic",
	TagBold:         "bold",
	TagSmallCaps:    "small caps",
	TagAllSmallCaps: "all small caps",
	TagGesperrt:     "gesperrt",
	TagFraktur:      "fraktur",
	TagUnderline:    "underline",
	TagSize:         "size",
	TagSuperscript:  "superscript",
	TagSuperscript1: "superscript",
	TagSubscript:    "subscript",
	TagGreek:        "Greek",
	TagSymbol:       "symbol",
	TagComment:      "comment",
	TagSidenote:     "sidenote",
	TagFootnote:     "footnote",
	TagHandwriting:  "handwriting",
	TagIllustration: "illustration",
	TagCaption:      "caption",
	TagUnknown:      "unknown",
}

func (k TagKind) String() string {
	if n, ok := tagNames[k]; ok {
		return n
	}
	return "invalid"
}

// Closer returns HTML closing span of this kind when it is force closed.
func (k TagKind) Closer() string {
	switch k {
	case TagItalic:
		return "</i>"
	case TagBold:
		return "</b>"
	case TagSmallCaps, TagAllSmallCaps, TagGesperrt, TagFraktur, TagUnderline,
		TagSize, TagComment, TagHandwriting, TagCaption:
		return "</span>"
	case TagSuperscript, TagSuperscript1:
		return "</sup>"
	case TagSubscript:
		return "</sub>"
	}
	return ""
}

// DefaultMaxTagDepth is nesting ceiling of inline markup.
const DefaultMaxTagDepth = 50

// TagStack keeps open inline spans. Pushing beyond capacity is refused,
// popping or peeking an empty stack yields TagNone.
type TagStack struct {
	tags []TagKind
	max  int
}

func NewTagStack(max int) *TagStack {
	if max <= 0 {
		max = DefaultMaxTagDepth
	}
	return &TagStack{tags: make([]TagKind, 0, max), max: max}
}

// Push returns false when stack is full, kind is not recorded then.
func (s *TagStack) Push(k TagKind) bool {
	if len(s.tags) >= s.max {
		return false
	}
	s.tags = append(s.tags, k)
	return true
}

func (s *TagStack) Pop() TagKind {
	if len(s.tags) == 0 {
		return TagNone
	}
	k := s.tags[len(s.tags)-1]
	s.tags = s.tags[:len(s.tags)-1]
	return k
}

func (s *TagStack) Top() TagKind {
	if len(s.tags) == 0 {
		return TagNone
	}
	return s.tags[len(s.tags)-1]
}

func (s *TagStack) Len() int {
	return len(s.tags)
}

func (s *TagStack) Cap() int {
	return s.max
}

// Flush empties the stack calling fn for every open kind, innermost first.
// When lenient is set a single Unknown on top is discarded silently first,
// this is the only tolerated imbalance. Returns whether the discard happened.
func (s *TagStack) Flush(lenient bool, fn func(TagKind)) bool {
	discarded := false
	if lenient && s.Top() == TagUnknown {
		s.Pop()
		discarded = true
	}
	for len(s.tags) > 0 {
		k := s.Pop()
		if fn != nil {
			fn(k)
		}
	}
	return discarded
}

func (s *TagStack) containsAny(kinds []TagKind) bool {
	for _, k := range s.tags {
		if slices.Contains(kinds, k) {
			return true
		}
	}
	return false
}
