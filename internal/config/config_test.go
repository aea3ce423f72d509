package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg == nil {
		t.Fatal("DefaultConfig() = nil")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}
	if cfg.Template != "" || cfg.Workers != 0 || cfg.Strict {
		t.Errorf("default config is not neutral: %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name: "valid full config",
			cfg: Config{
				Template: "invoice.html",
				Assets: []AssetConfig{
					{Path: "style.css", Kind: KindStyle},
					{Path: "app.js", Kind: KindScript},
					{Path: "extra.css"},
				},
				Workers: 4,
				Timeout: "45s",
			},
		},
		{
			name: "negative workers",
			cfg: Config{
				Workers: -1,
			},
			wantErr: ErrConfigInvalid,
		},
		{
			name: "malformed timeout",
			cfg: Config{
				Timeout: "soon",
			},
			wantErr: ErrConfigInvalid,
		},
		{
			name: "asset without path",
			cfg: Config{
				Assets: []AssetConfig{{Kind: KindStyle}},
			},
			wantErr: ErrConfigInvalid,
		},
		{
			name: "asset with unknown kind",
			cfg: Config{
				Assets: []AssetConfig{{Path: "style.css", Kind: "font"}},
			},
			wantErr: ErrConfigInvalid,
		},
		{
			name: "asset kind is case-insensitive",
			cfg: Config{
				Assets: []AssetConfig{{Path: "style.css", Kind: "Style"}},
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("loads a valid config file", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, `
template: invoice.html
output:
  defaultDir: out
assets:
  - path: style.css
    kind: style
print:
  landscape: true
  paperWidth: 210
  paperHeight: 297
  pageRanges: 1-3
workers: 2
timeout: 30s
strict: true
`)

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Template != "invoice.html" {
			t.Errorf("Template = %q, want invoice.html", cfg.Template)
		}
		if cfg.Output.DefaultDir != "out" {
			t.Errorf("Output.DefaultDir = %q, want out", cfg.Output.DefaultDir)
		}
		if !cfg.Print.Landscape {
			t.Error("Print.Landscape = false, want true")
		}
		if cfg.Print.PaperWidth == nil || *cfg.Print.PaperWidth != 210 {
			t.Errorf("Print.PaperWidth = %v, want 210", cfg.Print.PaperWidth)
		}
		if cfg.Print.MarginTop != nil {
			t.Errorf("Print.MarginTop = %v, want nil (engine default)", cfg.Print.MarginTop)
		}
		if cfg.Workers != 2 || cfg.Timeout != "30s" || !cfg.Strict {
			t.Errorf("unexpected execution settings: %+v", cfg)
		}
	})

	t.Run("empty name", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfig("")
		if !errors.Is(err, ErrEmptyConfigName) {
			t.Errorf("LoadConfig(\"\") error = %v, want ErrEmptyConfigName", err)
		}
	})

	t.Run("missing file path", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("LoadConfig() error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "template: x.html\nfont: comic-sans\n")
		_, err := LoadConfig(path)
		if !errors.Is(err, ErrConfigParse) {
			t.Errorf("LoadConfig() error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "workers: -3\n")
		_, err := LoadConfig(path)
		if !errors.Is(err, ErrConfigInvalid) {
			t.Errorf("LoadConfig() error = %v, want ErrConfigInvalid", err)
		}
	})

	t.Run("malformed YAML", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "template: [unclosed\n")
		_, err := LoadConfig(path)
		if !errors.Is(err, ErrConfigParse) {
			t.Errorf("LoadConfig() error = %v, want ErrConfigParse", err)
		}
	})
}

func TestResolveConfigPath(t *testing.T) {
	// Changes working directory; cannot run in parallel.
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}

	content := []byte("template: local.html\n")
	if err := os.WriteFile(filepath.Join(dir, "myconf.yml"), content, 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	cfg, err := LoadConfig("myconf")
	if err != nil {
		t.Fatalf("LoadConfig(name) error = %v", err)
	}
	if cfg.Template != "local.html" {
		t.Errorf("Template = %q, want local.html", cfg.Template)
	}

	if _, err := LoadConfig("no-such-config"); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("LoadConfig(unknown name) error = %v, want ErrConfigNotFound", err)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return path
}
