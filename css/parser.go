// Package css parses stylesheets into the Stylesheet/Rule/Selector model
// that the style resolver cascades against the DOM. Tokenizing is done by
// github.com/tdewolff/parse/v2/css; everything above the token stream
// (selector grammar, specificity, cascade ordering) is this package's own.
package css

import (
	"bytes"
	"maps"
	"strconv"
	"strings"
	"unicode"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses CSS stylesheets into structured rules.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet, tagging every rule with origin.
// The optional source parameter identifies what's being parsed (for debug
// logging).
func (p *Parser) Parse(data []byte, origin Origin, source ...string) *Stylesheet {
	sheet := &Stylesheet{}

	if len(source) > 0 && source[0] != "" {
		p.log.Debug("parsing stylesheet", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	input := parse.NewInput(bytes.NewReader(data))
	parser := css.NewParser(input, false)

	order := 0
	next := func() int { o := order; order++; return o }

	var currentSelectors []string

	for {
		gt, _, tdata := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if parser.Err() != nil && parser.Err().Error() != "EOF" {
				p.log.Debug("parse error", zap.Error(parser.Err()))
			}
			return sheet

		case css.BeginAtRuleGrammar:
			atRule := string(tdata)
			switch atRule {
			case "@media":
				mq := p.parseMediaQueryFromTokens(parser.Values())
				rules := p.parseMediaBlockRules(parser, sheet, origin, next)
				sheet.Items = append(sheet.Items, StylesheetItem{
					MediaBlock: &MediaBlock{Query: mq, Rules: rules},
				})
			case "@font-face":
				ff := p.parseFontFace(parser)
				sheet.Items = append(sheet.Items, StylesheetItem{FontFace: &ff})
				if ff.Family != "" {
					sheet.FontFaces = append(sheet.FontFaces, ff)
				}
			default:
				p.skipAtRuleBlock(parser)
				p.log.Debug("skipping at-rule", zap.String("rule", atRule))
			}

		case css.AtRuleGrammar:
			atRule := string(tdata)
			if atRule == "@import" {
				url := extractImportURL(parser.Values())
				if url != "" {
					sheet.Items = append(sheet.Items, StylesheetItem{Import: &url})
					sheet.Imports = append(sheet.Imports, url)
				}
			}

		case css.BeginRulesetGrammar, css.QualifiedRuleGrammar:
			currentSelectors = p.parseSelectors(tdata, parser.Values())
		}

		if gt == css.BeginRulesetGrammar {
			important, props := p.parseDeclarations(parser)

			for _, selStr := range currentSelectors {
				sel := p.parseSelector(selStr, sheet)
				if sel.IsSimple() {
					propsCopy := make(map[string]Value, len(props))
					maps.Copy(propsCopy, props)
					rule := Rule{
						Selector:    sel,
						Properties:  propsCopy,
						Origin:      origin,
						Important:   important,
						SourceOrder: next(),
					}
					sheet.Items = append(sheet.Items, StylesheetItem{Rule: &rule})
				}
			}
			currentSelectors = nil
		}
	}
}

// extractImportURL extracts the URL from @import tokens.
func extractImportURL(tokens []css.Token) string {
	for _, t := range tokens {
		switch t.TokenType {
		case css.StringToken:
			return unquote(string(t.Data))
		case css.URLToken:
			s := string(t.Data)
			s = strings.TrimPrefix(s, "url(")
			s = strings.TrimSuffix(s, ")")
			return unquote(strings.TrimSpace(s))
		}
	}
	return ""
}

// parseSelectors extracts selector strings from token data, splitting
// grouped selectors ("h2, h3, h4") on top-level commas.
func (p *Parser) parseSelectors(data []byte, values []css.Token) []string {
	var sb strings.Builder
	sb.Write(data)
	for _, v := range values {
		sb.Write(v.Data)
	}

	var selectors []string
	for s := range strings.SplitSeq(sb.String(), ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			selectors = append(selectors, s)
		}
	}
	return selectors
}

// parseDeclarations parses property declarations until EndRulesetGrammar,
// reporting whether any declaration carried !important (applied at the
// rule level, matching the engine's per-rule — not per-declaration —
// importance model).
func (p *Parser) parseDeclarations(parser *css.Parser) (important bool, props map[string]Value) {
	props = make(map[string]Value)

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar, css.EndRulesetGrammar:
			return important, props

		case css.DeclarationGrammar:
			propName := string(data)
			values := parser.Values()
			if bangImportant(values) {
				important = true
				values = stripImportant(values)
			}
			if len(values) > 0 {
				props[propName] = p.parsePropertyValue(values)
			}

		case css.CustomPropertyGrammar:
			continue
		}
	}
}

func bangImportant(tokens []css.Token) bool {
	for i := len(tokens) - 1; i >= 0; i-- {
		t := tokens[i]
		if t.TokenType == css.WhitespaceToken {
			continue
		}
		return t.TokenType == css.IdentToken && strings.EqualFold(string(t.Data), "important")
	}
	return false
}

func stripImportant(tokens []css.Token) []css.Token {
	end := len(tokens)
	for end > 0 {
		t := tokens[end-1]
		if t.TokenType == css.WhitespaceToken || t.TokenType == css.DelimToken ||
			(t.TokenType == css.IdentToken && strings.EqualFold(string(t.Data), "important")) {
			end--
			continue
		}
		break
	}
	return tokens[:end]
}

// parsePropertyValue converts CSS tokens to a Value.
func (p *Parser) parsePropertyValue(tokens []css.Token) Value {
	if len(tokens) == 0 {
		return Value{}
	}

	var rawParts []string
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			rawParts = append(rawParts, string(t.Data))
		} else if len(rawParts) > 0 {
			rawParts = append(rawParts, " ")
		}
	}
	raw := strings.TrimSpace(strings.Join(rawParts, ""))

	val := Value{Raw: raw}

	if len(tokens) == 1 || (len(tokens) == 2 && tokens[1].TokenType == css.WhitespaceToken) {
		t := tokens[0]
		switch t.TokenType {
		case css.DimensionToken:
			val.Value, val.Unit = parseDimension(string(t.Data))
		case css.PercentageToken:
			val.Value, _ = strconv.ParseFloat(strings.TrimSuffix(string(t.Data), "%"), 64)
			val.Unit = "%"
		case css.NumberToken:
			val.Value, _ = strconv.ParseFloat(string(t.Data), 64)
		case css.IdentToken:
			val.Keyword = strings.ToLower(string(t.Data))
		case css.StringToken:
			val.Keyword = unquote(string(t.Data))
		case css.HashToken:
			val.Keyword = string(t.Data)
		}
		return val
	}

	if tokens[0].TokenType == css.FunctionToken {
		val.Keyword = raw
		return val
	}

	val.Keyword = raw
	return val
}

func parseDimension(s string) (float64, string) {
	numEnd := 0
	for i, r := range s {
		if unicode.IsDigit(r) || r == '.' || r == '-' || r == '+' {
			numEnd = i + 1
		} else {
			break
		}
	}
	if numEnd == 0 {
		return 0, ""
	}
	num, _ := strconv.ParseFloat(s[:numEnd], 64)
	unit := strings.ToLower(s[numEnd:])
	return num, unit
}

// parseSelector parses one (already comma-split) selector string into the
// full compound-chain model: descendant/child/adjacent combinators, and
// id/class/attribute conditions on each compound.
func (p *Parser) parseSelector(selStr string, sheet *Stylesheet) Selector {
	raw := strings.TrimSpace(selStr)
	sel := Selector{Raw: raw}

	body, pseudo, ok := splitPseudoElement(raw)
	if !ok {
		sheet.Warnings = append(sheet.Warnings, "unsupported pseudo-class or pseudo-element: "+raw)
		p.log.Debug("skipping selector with unsupported pseudo", zap.String("selector", raw))
		return sel
	}
	sel.Pseudo = pseudo

	compounds, combs := splitCompounds(body)
	if len(compounds) == 0 {
		sheet.Warnings = append(sheet.Warnings, "empty selector: "+raw)
		return sel
	}

	sel.Compounds = make([]SimpleSelector, len(compounds))
	for i, c := range compounds {
		ss, err := parseSimpleSelector(c)
		if err != "" {
			sheet.Warnings = append(sheet.Warnings, err+" in selector: "+raw)
			p.log.Debug("skipping unsupported selector term", zap.String("selector", raw), zap.String("reason", err))
			return Selector{Raw: raw}
		}
		sel.Compounds[i] = ss
	}
	sel.Combinators = combs
	return sel
}

// splitPseudoElement strips a trailing ::before/::after (or legacy single
// colon form) from the subject compound. Any other pseudo-class or
// pseudo-element is reported as unsupported, matching the engine's
// decision not to model element state (:hover, :first-child, ...).
func splitPseudoElement(s string) (body string, pseudo PseudoElement, ok bool) {
	if before, name, found := strings.Cut(s, "::"); found {
		switch strings.ToLower(name) {
		case "before":
			return before, PseudoBefore, true
		case "after":
			return before, PseudoAfter, true
		default:
			return "", PseudoNone, false
		}
	}
	// Legacy single-colon ::before/::after, but only at the very end of the
	// selector and only for those two names — anything else is a
	// pseudo-class, which this engine does not support.
	if idx := strings.LastIndexByte(s, ':'); idx >= 0 && !strings.Contains(s[idx:], "]") {
		name := s[idx+1:]
		switch strings.ToLower(name) {
		case "before":
			return s[:idx], PseudoBefore, true
		case "after":
			return s[:idx], PseudoAfter, true
		default:
			return "", PseudoNone, false
		}
	}
	return s, PseudoNone, true
}

// splitCompounds splits a selector body into its compound terms and the
// combinators connecting them, respecting bracketed attribute selectors
// (which may themselves contain spaces in quoted values).
func splitCompounds(s string) (compounds []string, combs []Combinator) {
	var cur strings.Builder
	i, n := 0, len(s)
	flush := func() {
		t := strings.TrimSpace(cur.String())
		if t != "" {
			compounds = append(compounds, t)
		}
		cur.Reset()
	}
	for i < n {
		c := s[i]
		switch {
		case c == '[':
			depth := 1
			cur.WriteByte(c)
			i++
			for i < n && depth > 0 {
				if s[i] == '[' {
					depth++
				} else if s[i] == ']' {
					depth--
				}
				cur.WriteByte(s[i])
				i++
			}
		case c == '>' || c == '+':
			flush()
			if c == '>' {
				combs = append(combs, CombChild)
			} else {
				combs = append(combs, CombAdjacent)
			}
			i++
		case unicode.IsSpace(rune(c)):
			j := i
			for j < n && unicode.IsSpace(rune(s[j])) {
				j++
			}
			if j < n && (s[j] == '>' || s[j] == '+') {
				i = j
				continue
			}
			if strings.TrimSpace(cur.String()) != "" {
				flush()
				combs = append(combs, CombDescendant)
			}
			i = j
		default:
			cur.WriteByte(c)
			i++
		}
	}
	flush()
	return compounds, combs
}

// parseSimpleSelector parses one compound term: an optional tag name (or
// "*"), then any run of .class, #id, and [attr...] conditions.
func parseSimpleSelector(s string) (SimpleSelector, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return SimpleSelector{}, "empty selector term"
	}

	var ss SimpleSelector
	i := 0
	if s[0] == '*' {
		ss.Universal = true
		i = 1
	} else {
		for i < len(s) && s[i] != '.' && s[i] != '#' && s[i] != '[' {
			i++
		}
		if i > 0 {
			ss.Tag = s[:i]
		}
	}

	for i < len(s) {
		switch s[i] {
		case '.':
			j := i + 1
			for j < len(s) && s[j] != '.' && s[j] != '#' && s[j] != '[' {
				j++
			}
			if j == i+1 {
				return SimpleSelector{}, "empty class name"
			}
			ss.Classes = append(ss.Classes, s[i+1:j])
			i = j
		case '#':
			j := i + 1
			for j < len(s) && s[j] != '.' && s[j] != '#' && s[j] != '[' {
				j++
			}
			if j == i+1 {
				return SimpleSelector{}, "empty id name"
			}
			ss.IDs = append(ss.IDs, s[i+1:j])
			i = j
		case '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return SimpleSelector{}, "unterminated attribute selector"
			}
			expr := s[i+1 : i+end]
			ss.Attrs = append(ss.Attrs, parseAttrSelector(expr))
			i = i + end + 1
		default:
			return SimpleSelector{}, "unexpected character in selector"
		}
	}
	return ss, ""
}

// parseAttrSelector parses the contents of a bracketed attribute
// selector: "attr", `attr="v"`, or `attr~="v"`.
func parseAttrSelector(expr string) AttrSelector {
	expr = strings.TrimSpace(expr)
	if idx := strings.Index(expr, "~="); idx >= 0 {
		return AttrSelector{Name: strings.TrimSpace(expr[:idx]), Op: AttrIncludes, Value: unquote(strings.TrimSpace(expr[idx+2:]))}
	}
	if idx := strings.Index(expr, "="); idx >= 0 {
		return AttrSelector{Name: strings.TrimSpace(expr[:idx]), Op: AttrEquals, Value: unquote(strings.TrimSpace(expr[idx+1:]))}
	}
	return AttrSelector{Name: expr, Op: AttrPresent}
}

// skipAtRuleBlock skips tokens until the matching end of an @-rule block.
func (p *Parser) skipAtRuleBlock(parser *css.Parser) {
	depth := 1
	for depth > 0 {
		gt, _, _ := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}

// parseFontFace parses an @font-face block.
func (p *Parser) parseFontFace(parser *css.Parser) FontFace {
	ff := FontFace{}

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar, css.EndAtRuleGrammar:
			return ff

		case css.DeclarationGrammar:
			propName := string(data)
			values := parser.Values()
			if len(values) == 0 {
				continue
			}

			var parts []string
			for _, v := range values {
				if v.TokenType != css.WhitespaceToken {
					parts = append(parts, string(v.Data))
				}
			}
			valStr := strings.Join(parts, " ")

			switch propName {
			case "font-family":
				ff.Family = unquote(valStr)
			case "src":
				ff.Src = valStr
			case "font-style":
				ff.Style = valStr
			case "font-weight":
				ff.Weight = valStr
			}
		}
	}
}

// parseMediaQueryFromTokens parses a media query from CSS tokens. Format:
// [not] type [and [not] feature]...
func (p *Parser) parseMediaQueryFromTokens(tokens []css.Token) MediaQuery {
	mq := MediaQuery{}

	var rawParts []string
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			rawParts = append(rawParts, string(t.Data))
		} else if len(rawParts) > 0 {
			rawParts = append(rawParts, " ")
		}
	}
	mq.Raw = strings.TrimSpace(strings.Join(rawParts, ""))

	var idents []string
	for _, t := range tokens {
		if t.TokenType == css.IdentToken {
			idents = append(idents, strings.ToLower(string(t.Data)))
		}
	}
	if len(idents) == 0 {
		return mq
	}

	i := 0
	if idents[i] == "not" {
		mq.Negated = true
		i++
	}
	if i < len(idents) {
		mq.Type = idents[i]
		i++
	}
	for i < len(idents) {
		if idents[i] == "and" {
			i++
			if i >= len(idents) {
				break
			}
			feature := MediaFeature{}
			if idents[i] == "not" {
				feature.Negated = true
				i++
				if i >= len(idents) {
					break
				}
			}
			feature.Name = idents[i]
			mq.Features = append(mq.Features, feature)
			i++
		} else {
			i++
		}
	}
	return mq
}

// parseMediaBlockRules parses rules inside an @media block and returns them.
func (p *Parser) parseMediaBlockRules(parser *css.Parser, sheet *Stylesheet, origin Origin, next func() int) []Rule {
	var rules []Rule
	var currentSelectors []string

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar, css.EndAtRuleGrammar:
			return rules

		case css.BeginRulesetGrammar:
			currentSelectors = p.parseSelectors(data, parser.Values())
			important, props := p.parseDeclarations(parser)

			for _, selStr := range currentSelectors {
				sel := p.parseSelector(selStr, sheet)
				if sel.IsSimple() {
					propsCopy := make(map[string]Value, len(props))
					maps.Copy(propsCopy, props)
					rules = append(rules, Rule{
						Selector:    sel,
						Properties:  propsCopy,
						Origin:      origin,
						Important:   important,
						SourceOrder: next(),
					})
				}
			}
			currentSelectors = nil
		}
	}
}

// unquote removes surrounding quotes from a string.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') ||
		(s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
