package markup

import (
	"fmt"
	"slices"
)

// Entity describes bracket notation proofreaders use for characters which
// cannot be typed directly, like [=a] for a with macron.
type Entity struct {
	Name      string // full bracketed token, e.g. "[=a]"
	CodePoint rune
	Latin1    string // representation using ISO-8859-1 only, may be empty
	HTML      string // named HTML entity, may be empty
}

var entities = []Entity{
	{Name: "[=a]", CodePoint: 0x101},
	{Name: "[=E]", CodePoint: 0x112},
	{Name: "[=e]", CodePoint: 0x113},
	{Name: "[e,]", CodePoint: 0x119},
	{Name: "[=i]", CodePoint: 0x12b},
	{Name: "[=o]", CodePoint: 0x14d},
	{Name: "[OE]", CodePoint: 0x152, Latin1: "OE", HTML: "&OElig;"},
	{Name: "[oe]", CodePoint: 0x153, Latin1: "oe", HTML: "&oelig;"},
	{Name: "[=u]", CodePoint: 0x16b},
	{Name: "[)U]", CodePoint: 0x16c},
	{Name: "[)u]", CodePoint: 0x16d},
	{Name: "[Gh]", CodePoint: 0x21c},
	{Name: "[gh]", CodePoint: 0x21d},
	// literal square brackets
	{Name: "[osb]", CodePoint: '[', Latin1: "[", HTML: "["},
	{Name: "[csb]", CodePoint: ']', Latin1: "]", HTML: "]"},
	{Name: "[ldquo]", CodePoint: 0x201c, Latin1: `"`, HTML: "&ldquo;"},
	{Name: "[rdquo]", CodePoint: 0x201d, Latin1: `"`, HTML: "&rdquo;"},
	{Name: "[lsquo]", CodePoint: 0x2018, Latin1: "'", HTML: "&lsquo;"},
	{Name: "[rsquo]", CodePoint: 0x2019, Latin1: "'", HTML: "&rsquo;"},
	// Greek iota subscripts
	{Name: "[a_i]", CodePoint: 0x1fb3, Latin1: "âi"},
	{Name: "[ê_i]", CodePoint: 0x1fc3, Latin1: "êi"},
	{Name: "[ô_i]", CodePoint: 0x1ff3, Latin1: "ôi"},
	// Greek numeral sign, stigma
	{Name: "[']", CodePoint: 0x374, Latin1: "'"},
	{Name: "[st]", CodePoint: 0x3db},
	{Name: "[ST]", CodePoint: 0x3da},
}

var entityIndex = func() map[string]int {
	m := make(map[string]int, len(entities))
	for i, e := range entities {
		m[e.Name] = i
	}
	return m
}()

// Entities returns copy of the known entity table.
func Entities() []Entity {
	return slices.Clone(entities)
}

// Len returns number of runes entity token occupies in the source text.
func (e Entity) Len() int {
	return len([]rune(e.Name))
}

// Numeric returns hexadecimal character reference, at least four digits wide.
func (e Entity) Numeric() string {
	return numericReference(e.CodePoint)
}

func numericReference(cp rune) string {
	return fmt.Sprintf("&#x%04x;", cp)
}

// LookupEntity matches the token starting at text[0] (which must be '[') up to
// and including the first ']' against the entity table. Only whole tokens
// match, text without ']' never does.
func LookupEntity(text []rune) (Entity, bool) {
	if len(text) == 0 || text[0] != '[' {
		return Entity{}, false
	}
	end := slices.Index(text, ']')
	if end < 0 {
		return Entity{}, false
	}
	i, ok := entityIndex[string(text[:end+1])]
	if !ok {
		return Entity{}, false
	}
	return entities[i], true
}
