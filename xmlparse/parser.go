// Package xmlparse implements the permissive, non-validating XML/HTML
// tokenizer that feeds domtree. The parser never fails: malformed input is
// repaired in place rather than rejected, following the same "total
// function" philosophy the rest of this engine's parsers use for FB2/CSS
// input — recovery is encoded explicitly instead of raised as an error.
//
// golang.org/x/net/html is deliberately not used here even though it is
// otherwise part of this module's dependency graph (see charset handling
// in package document): it is a conforming HTML5 tokenizer that rejects or
// silently restructures malformed markup according to the HTML5 parsing
// algorithm, and it does not expose the byte offset of each token, which
// every layout invariant in this engine depends on. Implementing the
// offset-preserving recovery tokenizer directly on the standard library is
// the only option available from the dependency graph surveyed.
package xmlparse

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/inkleaf/reflow/domtree"
)

// Parse tokenizes src and returns the resulting DOM, rooted at a
// synthetic "#root" element. Parse never returns an error: mismatched or
// stray end tags, unclosed elements, tags and comments running to EOF, and
// unknown entities are all recovered from in place.
func Parse(src []byte) *domtree.Arena {
	arena := domtree.NewArena()
	p := &parser{src: src, arena: arena}
	p.run()
	return arena
}

type stackFrame struct {
	id  domtree.ID
	tag string
}

type parser struct {
	src   []byte
	pos   int
	arena *domtree.Arena
}

func (p *parser) run() {
	stack := []stackFrame{{id: p.arena.Root(), tag: "#root"}}
	textStart := 0

	emitText := func(end int) {
		if end <= textStart {
			return
		}
		raw := string(p.src[textStart:end])
		decoded := decodeEntities(raw)
		top := stack[len(stack)-1].id
		if isAllWhitespace(decoded) {
			p.arena.AppendChild(top, p.arena.NewWhitespace(decoded, textStart))
		} else {
			p.arena.AppendChild(top, p.arena.NewText(decoded, textStart))
		}
	}

	n := len(p.src)
	for p.pos < n {
		if p.src[p.pos] != '<' {
			p.pos++
			continue
		}

		emitText(p.pos)
		start := p.pos

		switch {
		case hasPrefixAt(p.src, p.pos, "<!--"):
			end := indexFrom(p.src, "-->", p.pos+4)
			if end < 0 {
				p.pos = n
			} else {
				p.pos = end + 3
			}

		case hasPrefixAt(p.src, p.pos, "<![CDATA["):
			end := indexFrom(p.src, "]]>", p.pos+9)
			var content []byte
			if end < 0 {
				content = p.src[p.pos+9:]
				p.pos = n
			} else {
				content = p.src[p.pos+9 : end]
				p.pos = end + 3
			}
			top := stack[len(stack)-1].id
			p.arena.AppendChild(top, p.arena.NewText(string(content), start))

		case hasPrefixAt(p.src, p.pos, "<?"):
			end := indexFrom(p.src, "?>", p.pos+2)
			if end < 0 {
				p.pos = n
			} else {
				p.pos = end + 2
			}

		case hasPrefixAt(p.src, p.pos, "</"):
			tagEnd := indexByteFrom(p.src, '>', p.pos+2)
			var name string
			if tagEnd < 0 {
				name = string(p.src[p.pos+2:])
				p.pos = n
			} else {
				name = string(p.src[p.pos+2 : tagEnd])
				p.pos = tagEnd + 1
			}
			name = strings.TrimSpace(name)
			stack = closeToMatching(stack, name)

		default:
			tagEnd := findTagEnd(p.src, p.pos+1)
			var raw []byte
			if tagEnd < 0 {
				raw = p.src[p.pos+1:]
				p.pos = n
			} else {
				raw = p.src[p.pos+1 : tagEnd]
				p.pos = tagEnd + 1
			}
			tag, attrs, selfClosing := parseTag(raw)
			if tag == "" {
				break
			}
			id := p.arena.NewElement(tag, attrs, start)
			p.arena.AppendChild(stack[len(stack)-1].id, id)
			if !selfClosing && !isVoidElement(tag) {
				stack = append(stack, stackFrame{id: id, tag: tag})
			}
		}

		textStart = p.pos
	}
	emitText(n)
}

// closeToMatching closes the nearest open ancestor named name, discarding
// any intermediate unclosed elements. If no ancestor matches, the stack is
// returned unchanged (the stray end tag is ignored).
func closeToMatching(stack []stackFrame, name string) []stackFrame {
	for i := len(stack) - 1; i >= 1; i-- {
		if stack[i].tag == name {
			return stack[:i]
		}
	}
	return stack
}

// findTagEnd locates the '>' terminating a start/self-closing tag,
// skipping over '>' characters that occur inside quoted attribute values.
// Returns -1 if the tag runs to EOF (the tag is then terminated at EOF per
// the parser's error policy).
func findTagEnd(src []byte, from int) int {
	var quote byte
	for i := from; i < len(src); i++ {
		c := src[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '>':
			return i
		}
	}
	return -1
}

// parseTag splits the bytes between '<' and '>' (exclusive) of a
// start/self-closing tag into its name, ordered attribute list, and
// whether it was self-closing ("/>").
func parseTag(raw []byte) (tag string, attrs []domtree.Attr, selfClosing bool) {
	s := string(raw)
	s = strings.TrimRight(s, " \t\r\n")
	if strings.HasSuffix(s, "/") {
		selfClosing = true
		s = s[:len(s)-1]
	}

	i := 0
	for i < len(s) && !isNameBoundary(s[i]) {
		i++
	}
	tag = s[:i]
	if tag == "" {
		return "", nil, selfClosing
	}

	rest := s[i:]
	attrs = parseAttrs(rest)
	return tag, attrs, selfClosing
}

func isNameBoundary(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func parseAttrs(s string) []domtree.Attr {
	var attrs []domtree.Attr
	i := 0
	n := len(s)
	for i < n {
		for i < n && isSpaceByte(s[i]) {
			i++
		}
		if i >= n {
			break
		}
		nameStart := i
		for i < n && s[i] != '=' && !isSpaceByte(s[i]) {
			i++
		}
		name := s[nameStart:i]
		for i < n && isSpaceByte(s[i]) {
			i++
		}
		if name == "" {
			i++
			continue
		}
		var value string
		if i < n && s[i] == '=' {
			i++
			for i < n && isSpaceByte(s[i]) {
				i++
			}
			if i < n && (s[i] == '"' || s[i] == '\'') {
				q := s[i]
				i++
				valStart := i
				for i < n && s[i] != q {
					i++
				}
				value = s[valStart:i]
				if i < n {
					i++ // closing quote
				}
			} else {
				valStart := i
				for i < n && !isSpaceByte(s[i]) {
					i++
				}
				value = s[valStart:i]
			}
		}
		attrs = append(attrs, domtree.Attr{Name: name, Value: decodeEntities(value)})
	}
	return attrs
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func hasPrefixAt(src []byte, pos int, prefix string) bool {
	if pos+len(prefix) > len(src) {
		return false
	}
	return string(src[pos:pos+len(prefix)]) == prefix
}

func indexFrom(src []byte, sub string, from int) int {
	if from > len(src) {
		return -1
	}
	i := strings.Index(string(src[from:]), sub)
	if i < 0 {
		return -1
	}
	return from + i
}

func indexByteFrom(src []byte, b byte, from int) int {
	if from > len(src) {
		return -1
	}
	i := strings.IndexByte(string(src[from:]), b)
	if i < 0 {
		return -1
	}
	return from + i
}

func isAllWhitespace(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// isVoidElement reports whether tag is a known HTML void element that
// never owns children, even without an explicit "/>" — content commonly
// carries <br>, <img>, <hr> unclosed in the XHTML-flavored style the
// engine must still accept.
func isVoidElement(tag string) bool {
	switch strings.ToLower(tag) {
	case "br", "img", "hr", "meta", "link", "input", "base", "area", "col", "embed", "source", "track", "wbr":
		return true
	default:
		return false
	}
}

// namedEntities is a practical subset of the XML/HTML named character
// references likely to appear in reflowable book markup. Entities outside
// this table, and malformed references, are preserved verbatim per the
// parser's error policy.
var namedEntities = map[string]rune{
	"amp": '&', "lt": '<', "gt": '>', "quot": '"', "apos": '\'',
	"nbsp": ' ', "mdash": '—', "ndash": '–',
	"hellip": '…', "copy": '©', "reg": '®', "trade": '™',
	"laquo": '«', "raquo": '»', "ldquo": '“', "rdquo": '”',
	"lsquo": '‘', "rsquo": '’', "times": '×', "divide": '÷',
	"deg": '°', "plusmn": '±', "micro": 'µ', "sect": '§',
	"para": '¶', "middot": '·', "bull": '•', "dagger": '†',
	"Dagger": '‡', "permil": '‰', "euro": '€', "pound": '£',
	"yen": '¥', "cent": '¢', "curren": '¤',
}

// decodeEntities replaces &name;, &#NNN;, and &#xHHHH; references with
// their decoded rune. Unknown or malformed references (no terminating
// ';', unknown name) are left exactly as written.
func decodeEntities(s string) string {
	if !strings.ContainsRune(s, '&') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '&' {
			r, size := utf8.DecodeRuneInString(s[i:])
			b.WriteRune(r)
			i += size
			continue
		}
		semi := strings.IndexByte(s[i:], ';')
		if semi < 0 {
			b.WriteByte('&')
			i++
			continue
		}
		ref := s[i+1 : i+semi]
		if r, ok := decodeOneEntity(ref); ok {
			b.WriteRune(r)
			i += semi + 1
			continue
		}
		b.WriteByte('&')
		i++
	}
	return b.String()
}

func decodeOneEntity(ref string) (rune, bool) {
	if ref == "" {
		return 0, false
	}
	if ref[0] == '#' {
		body := ref[1:]
		base := 10
		if len(body) > 0 && (body[0] == 'x' || body[0] == 'X') {
			base = 16
			body = body[1:]
		}
		v, err := strconv.ParseInt(body, base, 32)
		if err != nil {
			return 0, false
		}
		return rune(v), true
	}
	if r, ok := namedEntities[ref]; ok {
		return r, true
	}
	return 0, false
}
