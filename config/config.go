// Package config loads the reflow engine's on-disk configuration: the
// layout parameters a reader application exposes as user preferences
// (page size, font, margins, hyphenation) plus logging setup. It keeps
// the teacher's strict-YAML-decode and zap-logger-construction idiom,
// dropping the FB2-to-EPUB/KFX conversion options that have no
// equivalent in a reading engine.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/inkleaf/reflow/cssvalue"
	"github.com/inkleaf/reflow/layout"
)

// LayoutConfig mirrors layout.Params in on-disk form; zero fields fall
// back to layout.DefaultParams() values in Resolve.
type LayoutConfig struct {
	WidthPx           float64 `yaml:"width_px,omitempty"`
	HeightPx          float64 `yaml:"height_px,omitempty"`
	MarginPx          float64 `yaml:"margin_px,omitempty"`
	FontSizePx        float64 `yaml:"font_size_px,omitempty"`
	LineHeightEm      float64 `yaml:"line_height_em,omitempty"`
	DPI               float64 `yaml:"dpi,omitempty"`
	TextAlign         string  `yaml:"text_align,omitempty"`
	HyphenPenalty     int     `yaml:"hyphen_penalty,omitempty"`
	StretchTolerance  float64 `yaml:"stretch_tolerance,omitempty"`
	IgnoreDocumentCSS bool    `yaml:"ignore_document_css,omitempty"`
	FontFamily        string  `yaml:"font_family,omitempty"`
}

// HyphenationConfig maps a resolved hyphenation dictionary name (e.g.
// "en-us", "de-1901" — the names hyphen.Hyphenator.resolveName produces)
// to the directory holding its "<name>.pat.txt"/"<name>.exc.txt" files.
type HyphenationConfig struct {
	Dictionaries map[string]string `yaml:"dictionaries,omitempty"`
}

// Config is the engine's top-level on-disk configuration.
type Config struct {
	Layout      LayoutConfig      `yaml:"layout"`
	Hyphenation HyphenationConfig `yaml:"hyphenation,omitempty"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoadConfiguration reads and strictly decodes path: unknown keys are
// an error, the same discipline the teacher's loader applies, catching
// a misspelled field instead of silently ignoring it.
func LoadConfiguration(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve turns the on-disk layout config into layout.Params, starting
// from layout.DefaultParams() and overriding only the fields the user
// actually set.
func (l LayoutConfig) Resolve() layout.Params {
	p := layout.DefaultParams()
	if l.WidthPx > 0 {
		p.WidthPx = l.WidthPx
	}
	if l.HeightPx > 0 {
		p.HeightPx = l.HeightPx
	}
	if l.MarginPx > 0 {
		p.MarginPx = l.MarginPx
	}
	if l.FontSizePx > 0 {
		p.FontSizePx = l.FontSizePx
	}
	if l.LineHeightEm > 0 {
		p.LineHeightEm = l.LineHeightEm
	}
	if l.DPI > 0 {
		p.DPI = l.DPI
	}
	if l.HyphenPenalty > 0 {
		p.HyphenPenalty = l.HyphenPenalty
	}
	if l.StretchTolerance > 0 {
		p.StretchTolerance = l.StretchTolerance
	}
	if l.FontFamily != "" {
		p.FontFamily = l.FontFamily
	}
	p.TextAlign = cssvalue.ParseTextAlign(l.TextAlign, cssvalue.AlignLeft)
	p.IgnoreDocumentCSS = l.IgnoreDocumentCSS
	return p
}
