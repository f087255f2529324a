// Package hyphen implements TeX-style pattern-trie hyphenation behind a
// DictionaryProvider collaborator interface: this package owns the trie
// algorithm and language-tag resolution/fallback only, not any shipped
// pattern data, which the host application supplies.
package hyphen

import (
	"bufio"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// DictionaryProvider supplies the raw pattern and exception dictionary
// text for a resolved language name (e.g. "en-us", "de-1901"). Returning
// ok=false means no dictionary is available under that name; Hyphenator
// then tries the next fallback name in the resolution chain.
type DictionaryProvider interface {
	Dictionary(name string) (patterns io.Reader, exceptions io.Reader, ok bool)
}

// langMap maps a bare or regional language tag to the specific pattern
// dictionary name it should load, mirroring the dialect table of
// standard TeX hyphenation pattern distributions.
var langMap = map[string]string{
	"de":    "de-1901",
	"de-de": "de-1901",
	"de-at": "de-1996",
	"de-ch": "de-ch-1901",
	"el":    "el-monoton",
	"el-gr": "el-monoton",
	"en":    "en-us",
	"mn":    "mn-cyrl",
	"sh":    "sh-latn",
	"sr":    "sr-cyrl",
	"zh":    "zh-latn-pinyin",
}

type dict struct {
	patterns   *trie
	exceptions map[string]string
}

// Hyphenator resolves a language tag to a dictionary via its
// DictionaryProvider, lazily loading and caching each resolved
// dictionary process-wide for the lifetime of the Hyphenator.
type Hyphenator struct {
	provider DictionaryProvider
	log      *zap.Logger

	mu    sync.Mutex
	cache map[string]*dict // keyed by resolved dictionary name; nil entry means "no dictionary"
}

// New creates a Hyphenator backed by provider. log may be nil.
func New(provider DictionaryProvider, log *zap.Logger) *Hyphenator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hyphenator{
		provider: provider,
		log:      log.Named("hyphen"),
		cache:    make(map[string]*dict),
	}
}

// resolveName walks the same fallback chain as the original language
// dictionaries this package is grounded on: exact tag, mapped tag, base
// language, mapped base language.
func (h *Hyphenator) resolveName(tag language.Tag) (string, *dict) {
	try := func(name string) (string, *dict) {
		if d := h.load(name); d != nil {
			return name, d
		}
		return "", nil
	}

	name := strings.ToLower(tag.String())
	if n, d := try(name); d != nil {
		return n, d
	}
	if mapped, ok := langMap[name]; ok {
		if n, d := try(mapped); d != nil {
			return n, d
		}
	}
	base, confidence := tag.Base()
	if confidence != language.No {
		baseName := strings.ToLower(base.String())
		if n, d := try(baseName); d != nil {
			return n, d
		}
		if mapped, ok := langMap[baseName]; ok {
			if n, d := try(mapped); d != nil {
				return n, d
			}
		}
	} else {
		h.log.Debug("unable to determine language base", zap.Stringer("tag", tag))
	}
	return "", nil
}

func (h *Hyphenator) load(name string) *dict {
	h.mu.Lock()
	if d, ok := h.cache[name]; ok {
		h.mu.Unlock()
		return d
	}
	h.mu.Unlock()

	patterns, exceptions, ok := h.provider.Dictionary(name)
	var d *dict
	if ok {
		d = &dict{patterns: newTrie(), exceptions: make(map[string]string)}
		if err := loadPatterns(d.patterns, patterns); err != nil {
			h.log.Warn("unable to load hyphenation patterns", zap.String("dictionary", name), zap.Error(err))
			d = nil
		} else if exceptions != nil {
			loadExceptions(d.exceptions, exceptions)
		}
	}

	h.mu.Lock()
	h.cache[name] = d
	h.mu.Unlock()
	return d
}

func loadPatterns(t *trie, r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}
		t.addPatternString(line)
	}
	return sc.Err()
}

func loadExceptions(m map[string]string, r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		m[strings.ReplaceAll(line, "-", "")] = line
	}
}

// Hyphenate returns word split into the segments that may be joined by a
// soft hyphen at a break, per the loaded dictionary for tag. If no
// dictionary resolves for tag, or word is too short to hyphenate, it
// returns []string{word} unchanged.
func (h *Hyphenator) Hyphenate(tag language.Tag, word string) []string {
	_, d := h.resolveName(tag)
	if d == nil {
		return []string{word}
	}

	if exc, ok := d.exceptions[word]; ok {
		return strings.Split(exc, "-")
	}

	return hyphenateWord(d.patterns, word)
}

func hyphenateWord(patterns *trie, s string) []string {
	runeCount := runeLen(s)
	if runeCount < 4 {
		return []string{s}
	}

	testStr := "." + s + "."
	v := make([]int, runeLen(testStr))

	vIndex := 0
	for pos := range testStr {
		t := testStr[pos:]
		strs, values := patterns.allSubstringsAndValues(t)
		for i, val := range values {
			diff := len(val) - runeLen(strs[i])
			vs := v[vIndex-diff:]
			for j := range val {
				if val[j] > vs[j] {
					vs[j] = val[j]
				}
			}
		}
		vIndex++
	}

	markers := v[1 : len(v)-1]

	var segments []string
	var cur strings.Builder
	mIndex := 0
	for _, ch := range s {
		cur.WriteRune(ch)
		if 1 <= mIndex && mIndex < len(markers)-2 && markers[mIndex]%2 != 0 {
			segments = append(segments, cur.String())
			cur.Reset()
		}
		mIndex++
	}
	segments = append(segments, cur.String())
	return segments
}

func runeLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}

// Tag parses a BCP-47 language string into a language.Tag, falling back
// to the undetermined tag ("und") on malformed input rather than erroring
// — hyphenation is best-effort and never blocks layout.
func Tag(lang string) language.Tag {
	if lang == "" {
		return language.Und
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return language.Und
	}
	return tag
}
