package document

import (
	"testing"

	"dphtml/common"
)

func TestNumbering_Marker(t *testing.T) {
	anchored := common.PageNumberingAnchored

	tests := []struct {
		name string
		n    numbering
		page int
		want string
	}{
		{"comment", numbering{}, 3, "<!-- Page 3 -->\n"},
		{"comment ignores zones", numbering{front: 5}, 2, "<!-- Page 2 -->\n"},
		{"front matter", numbering{mode: anchored, front: 2, preface: 3}, 2, ""},
		{"first preface page", numbering{mode: anchored, front: 2, preface: 3}, 3, anchoredMarker("preface", 1)},
		{"last preface page", numbering{mode: anchored, front: 2, preface: 3}, 5, anchoredMarker("preface", 3)},
		{"first body page", numbering{mode: anchored, front: 2, preface: 3}, 6, anchoredMarker("page", 1)},
		{"body page offset", numbering{mode: anchored, front: 2, preface: 3, offset: 10}, 6, anchoredMarker("page", 11)},
		{"no zones", numbering{mode: anchored}, 1, anchoredMarker("page", 1)},
		{"last page of first volume", numbering{mode: anchored, front: 1, preface: 1, volume: 10, offset: 5}, 10, anchoredMarker("page", 13)},
		{"second volume front matter", numbering{mode: anchored, front: 1, preface: 1, volume: 10, offset: 5}, 11, ""},
		{"second volume preface", numbering{mode: anchored, front: 1, preface: 1, volume: 10, offset: 5}, 12, anchoredMarker("preface_2_", 1)},
		{"second volume body", numbering{mode: anchored, front: 1, preface: 1, volume: 10, offset: 5}, 13, anchoredMarker("page_2_", 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.n.marker(tt.page); got != tt.want {
				t.Errorf("marker(%d) = %q, want %q", tt.page, got, tt.want)
			}
		})
	}
}

func TestAnchoredMarker(t *testing.T) {
	want := "<a name=\"page_2_7\"></a><span class=\"pagenum\">[Pg&nbsp;7]</span>\n"
	if got := anchoredMarker("page_2_", 7); got != want {
		t.Errorf("anchoredMarker() = %q, want %q", got, want)
	}
}

func TestStyleClasses(t *testing.T) {
	css := string(DefaultStylesheet())
	for _, class := range StyleClasses() {
		if !containsSelector(css, "."+class) {
			t.Errorf("default stylesheet does not define %q", class)
		}
	}
}

func containsSelector(css, sel string) bool {
	for i := 0; i+len(sel) <= len(css); i++ {
		if css[i:i+len(sel)] != sel {
			continue
		}
		if end := i + len(sel); end == len(css) || css[end] == ' ' || css[end] == '{' {
			return true
		}
	}
	return false
}
