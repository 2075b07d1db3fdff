package css

import (
	"slices"
)

// Rule is a single ruleset. Grouped selectors stay together.
type Rule struct {
	Selectors  []string
	Properties map[string]string
	Media      string // enclosing @media query, empty at top level
}

// GetProperty returns raw value of the property.
func (r Rule) GetProperty(name string) (string, bool) {
	v, ok := r.Properties[name]
	return v, ok
}

// Stylesheet keeps what is necessary to check stylesheet against generated
// documents: rules with their selectors, imports and problems found while
// parsing.
type Stylesheet struct {
	Rules    []Rule
	Imports  []string
	Warnings []string
}

// RulesBySelector returns all rules having the selector in their group.
func (s *Stylesheet) RulesBySelector(selector string) []Rule {
	var rules []Rule
	for _, r := range s.Rules {
		if slices.Contains(r.Selectors, selector) {
			rules = append(rules, r)
		}
	}
	return rules
}

// Classes returns sorted list of class names mentioned by selectors.
func (s *Stylesheet) Classes() []string {
	seen := make(map[string]struct{})
	for _, r := range s.Rules {
		for _, sel := range r.Selectors {
			for _, c := range selectorClasses(sel) {
				seen[c] = struct{}{}
			}
		}
	}
	classes := make([]string, 0, len(seen))
	for c := range seen {
		classes = append(classes, c)
	}
	slices.Sort(classes)
	return classes
}

// Missing returns classes from the list no selector mentions.
func (s *Stylesheet) Missing(classes []string) []string {
	have := s.Classes()
	var missing []string
	for _, c := range classes {
		if _, found := slices.BinarySearch(have, c); !found {
			missing = append(missing, c)
		}
	}
	return missing
}

func isNameChar(c byte) bool {
	return c == '-' || c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80
}

// selectorClasses extracts class names from compound selector.
func selectorClasses(sel string) []string {
	var classes []string
	for i := 0; i < len(sel); i++ {
		if sel[i] != '.' {
			continue
		}
		j := i + 1
		for j < len(sel) && isNameChar(sel[j]) {
			j++
		}
		if j > i+1 {
			classes = append(classes, sel[i+1:j])
		}
		i = j - 1
	}
	return classes
}
