package cssvalue

import (
	"strconv"
	"strings"
)

// GenKind discriminates one item of a parsed generated-content DSL value.
type GenKind int

const (
	// GenGlue is "glue W S s": width, stretch, shrink.
	GenGlue GenKind = iota
	// GenPenalty is "penalty P F W": penalty cost, flagged (0/1), width.
	GenPenalty
	// GenBox is "box W": a fixed, unbreakable width.
	GenBox
)

// GenItem is one parsed term of a -plato-insert-before/after value. The
// layout package converts a []GenItem into its own InlineMaterial vector;
// cssvalue stays free of any layout import so this conversion is the
// caller's job, not this package's.
type GenItem struct {
	Kind    GenKind
	Width   float64
	Stretch float64
	Shrink  float64
	Penalty int
	Flagged bool
}

// ParseGeneratedContent parses the comma-separated "glue W S s" /
// "penalty P F W" / "box W" DSL from spec §9 into an ordered []GenItem.
// Unrecognized terms are skipped; this parser never fails outright,
// matching the rest of this module's total-function parsing style.
func ParseGeneratedContent(raw string) []GenItem {
	var items []GenItem
	for _, term := range strings.Split(raw, ",") {
		fields := strings.Fields(strings.TrimSpace(term))
		if len(fields) == 0 {
			continue
		}
		switch strings.ToLower(fields[0]) {
		case "glue":
			if len(fields) < 4 {
				continue
			}
			items = append(items, GenItem{
				Kind:    GenGlue,
				Width:   num(fields[1]),
				Stretch: num(fields[2]),
				Shrink:  num(fields[3]),
			})
		case "penalty":
			if len(fields) < 4 {
				continue
			}
			items = append(items, GenItem{
				Kind:    GenPenalty,
				Penalty: int(num(fields[1])),
				Flagged: num(fields[2]) != 0,
				Width:   num(fields[3]),
			})
		case "box":
			if len(fields) < 2 {
				continue
			}
			items = append(items, GenItem{Kind: GenBox, Width: num(fields[1])})
		}
	}
	return items
}

func num(s string) float64 {
	n, _ := strconv.ParseFloat(s, 64)
	return n
}
