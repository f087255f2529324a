package layout

import (
	"strconv"
	"strings"

	"github.com/inkleaf/reflow/cssvalue"
)

var lowerGreekLetters = []string{
	"α", "β", "γ", "δ", "ε", "ζ", "η", "θ", "ι", "κ", "λ", "μ",
	"ν", "ξ", "ο", "π", "ρ", "σ", "τ", "υ", "φ", "χ", "ψ", "ω",
}

// MarkerPrefix generates the "• "-style prefix string for list item index
// (1-based) under the given list-style-type, per spec §4.4.3.
func MarkerPrefix(t cssvalue.ListStyleType, index int) string {
	switch t {
	case cssvalue.ListDisc:
		return "• "
	case cssvalue.ListCircle:
		return "◦ "
	case cssvalue.ListSquare:
		return "▪ "
	case cssvalue.ListDecimal:
		return strconv.Itoa(index) + ". "
	case cssvalue.ListLowerRoman:
		return strings.ToLower(toRoman(index)) + ". "
	case cssvalue.ListUpperRoman:
		return toRoman(index) + ". "
	case cssvalue.ListLowerAlpha:
		return toAlpha(index, false) + ". "
	case cssvalue.ListUpperAlpha:
		return toAlpha(index, true) + ". "
	case cssvalue.ListLowerGreek:
		return toGreek(index) + ". "
	case cssvalue.ListNone:
		return ""
	default:
		return "• "
	}
}

var romanTable = []struct {
	value  int
	symbol string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

func toRoman(n int) string {
	if n <= 0 {
		return strconv.Itoa(n)
	}
	var sb strings.Builder
	for _, r := range romanTable {
		for n >= r.value {
			sb.WriteString(r.symbol)
			n -= r.value
		}
	}
	return sb.String()
}

func toAlpha(n int, upper bool) string {
	if n <= 0 {
		return strconv.Itoa(n)
	}
	var letters []byte
	for n > 0 {
		n--
		letters = append([]byte{byte('a' + n%26)}, letters...)
		n /= 26
	}
	s := string(letters)
	if upper {
		s = strings.ToUpper(s)
	}
	return s
}

func toGreek(n int) string {
	if n <= 0 || n > len(lowerGreekLetters) {
		return strconv.Itoa(n)
	}
	return lowerGreekLetters[n-1]
}
