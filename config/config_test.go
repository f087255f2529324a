package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/inkleaf/reflow/cssvalue"
)

func TestLoadConfiguration_WithFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `layout:
  width_px: 1200
  height_px: 1600
  text_align: justify
hyphenation:
  dictionaries:
    en-us: /usr/share/hyphen
logging:
  console:
    level: normal
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfiguration(configPath)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if cfg.Layout.WidthPx != 1200 {
		t.Errorf("Layout.WidthPx = %v, want 1200", cfg.Layout.WidthPx)
	}
	if cfg.Hyphenation.Dictionaries["en-us"] != "/usr/share/hyphen" {
		t.Errorf("Hyphenation.Dictionaries[en-us] = %q, want /usr/share/hyphen", cfg.Hyphenation.Dictionaries["en-us"])
	}
	if cfg.Logging.Console.Level != "normal" {
		t.Errorf("Logging.Console.Level = %q, want normal", cfg.Logging.Console.Level)
	}
}

func TestLoadConfiguration_UnknownField(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("layout:\n  bogus_field: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfiguration(configPath); err == nil {
		t.Fatal("LoadConfiguration() with unknown field: want error, got nil")
	}
}

func TestLayoutConfigResolveDefaults(t *testing.T) {
	var l LayoutConfig
	p := l.Resolve()
	if p.WidthPx != 1404 || p.HeightPx != 1872 {
		t.Errorf("Resolve() with zero-value config did not fall back to defaults: got %vx%v", p.WidthPx, p.HeightPx)
	}
	if p.TextAlign != cssvalue.AlignLeft {
		t.Errorf("Resolve() default TextAlign = %v, want AlignLeft", p.TextAlign)
	}
}

func TestLayoutConfigResolveOverrides(t *testing.T) {
	l := LayoutConfig{WidthPx: 900, TextAlign: "center"}
	p := l.Resolve()
	if p.WidthPx != 900 {
		t.Errorf("Resolve() WidthPx = %v, want 900", p.WidthPx)
	}
	if p.TextAlign != cssvalue.AlignCenter {
		t.Errorf("Resolve() TextAlign = %v, want AlignCenter", p.TextAlign)
	}
}
