package cssvalue

// Display enumerates the display keyword property values the layout
// engine distinguishes; anything else (e.g. "flex", "grid") folds to
// DisplayInline, matching the engine's deliberately narrow box model.
type Display int

const (
	DisplayInline Display = iota
	DisplayBlock
	DisplayInlineTable
	DisplayNone
)

func ParseDisplay(kw string, fallback Display) Display {
	switch kw {
	case "block", "list-item", "table":
		return DisplayBlock
	case "inline", "inline-block":
		return DisplayInline
	case "inline-table":
		return DisplayInlineTable
	case "none":
		return DisplayNone
	case "":
		return fallback
	default:
		return fallback
	}
}

// FontKind enumerates the broad font families the renderer's shaper
// collaborator can be asked for.
type FontKind int

const (
	FontSerif FontKind = iota
	FontSansSerif
	FontMonospace
	FontCursive
	FontFantasy
)

func ParseFontKind(kw string, fallback FontKind) FontKind {
	switch kw {
	case "serif":
		return FontSerif
	case "sans-serif":
		return FontSansSerif
	case "monospace":
		return FontMonospace
	case "cursive":
		return FontCursive
	case "fantasy":
		return FontFantasy
	default:
		return fallback
	}
}

type TextAlign int

const (
	AlignLeft TextAlign = iota
	AlignRight
	AlignCenter
	AlignJustify
)

func ParseTextAlign(kw string, fallback TextAlign) TextAlign {
	switch kw {
	case "left", "start":
		return AlignLeft
	case "right", "end":
		return AlignRight
	case "center":
		return AlignCenter
	case "justify":
		return AlignJustify
	default:
		return fallback
	}
}

type VerticalAlign int

const (
	VAlignBaseline VerticalAlign = iota
	VAlignSub
	VAlignSuper
	VAlignTop
	VAlignBottom
	VAlignMiddle
)

func ParseVerticalAlign(kw string, fallback VerticalAlign) VerticalAlign {
	switch kw {
	case "baseline":
		return VAlignBaseline
	case "sub":
		return VAlignSub
	case "super":
		return VAlignSuper
	case "top":
		return VAlignTop
	case "bottom":
		return VAlignBottom
	case "middle":
		return VAlignMiddle
	default:
		return fallback
	}
}

// FloatSide enumerates the float property.
type FloatSide int

const (
	FloatNone FloatSide = iota
	FloatLeft
	FloatRight
)

func ParseFloatSide(kw string) FloatSide {
	switch kw {
	case "left":
		return FloatLeft
	case "right":
		return FloatRight
	default:
		return FloatNone
	}
}

// ListStyleType enumerates the marker glyph schemes §4.4.3 generates
// prefixes for.
type ListStyleType int

const (
	ListDisc ListStyleType = iota
	ListCircle
	ListSquare
	ListDecimal
	ListLowerRoman
	ListUpperRoman
	ListLowerAlpha
	ListUpperAlpha
	ListLowerGreek
	ListNone
)

func ParseListStyleType(kw string, fallback ListStyleType) ListStyleType {
	switch kw {
	case "disc":
		return ListDisc
	case "circle":
		return ListCircle
	case "square":
		return ListSquare
	case "decimal":
		return ListDecimal
	case "lower-roman":
		return ListLowerRoman
	case "upper-roman":
		return ListUpperRoman
	case "lower-alpha", "lower-latin":
		return ListLowerAlpha
	case "upper-alpha", "upper-latin":
		return ListUpperAlpha
	case "lower-greek":
		return ListLowerGreek
	case "none":
		return ListNone
	case "":
		return fallback
	default:
		return fallback
	}
}

// WordSpacingKind distinguishes the word-spacing computed-value shape:
// Normal (no extra spacing), an absolute Length, or a Ratio of the
// current word-spacing glue width.
type WordSpacingKind int

const (
	WordSpacingNormal WordSpacingKind = iota
	WordSpacingLength
	WordSpacingRatio
)
