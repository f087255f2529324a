package layout

import (
	"testing"

	"github.com/inkleaf/reflow/cssvalue"
)

func TestMarkerPrefix(t *testing.T) {
	cases := []struct {
		kind  cssvalue.ListStyleType
		index int
		want  string
	}{
		{cssvalue.ListDisc, 1, "• "},
		{cssvalue.ListDecimal, 3, "3. "},
		{cssvalue.ListLowerRoman, 4, "iv. "},
		{cssvalue.ListUpperRoman, 9, "IX. "},
		{cssvalue.ListLowerAlpha, 1, "a. "},
		{cssvalue.ListLowerAlpha, 27, "aa. "},
		{cssvalue.ListUpperAlpha, 2, "B. "},
		{cssvalue.ListLowerGreek, 1, "α. "},
		{cssvalue.ListNone, 1, ""},
	}
	for _, c := range cases {
		if got := MarkerPrefix(c.kind, c.index); got != c.want {
			t.Errorf("MarkerPrefix(%v, %d) = %q, want %q", c.kind, c.index, got, c.want)
		}
	}
}
