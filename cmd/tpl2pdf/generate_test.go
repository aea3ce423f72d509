package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	flag "github.com/spf13/pflag"

	tpl2pdf "github.com/alnah/go-tpl2pdf"
	"github.com/alnah/go-tpl2pdf/internal/config"
)

// Test doubles.

type fakeRenderer struct {
	mu     sync.Mutex
	calls  int
	inputs []tpl2pdf.Input
	result *tpl2pdf.Result
	err    error
}

func (f *fakeRenderer) Generate(ctx context.Context, in tpl2pdf.Input) (*tpl2pdf.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &tpl2pdf.Result{PDF: []byte("%PDF-1.4 fake"), HTML: []byte("<p>fake</p>")}, nil
}

type fakePool struct {
	renderer   *fakeRenderer
	size       int
	acquireErr error
	closed     bool
}

func (p *fakePool) Acquire() (Renderer, error) {
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}
	return p.renderer, nil
}

func (p *fakePool) Release(Renderer) {}
func (p *fakePool) Close() error     { p.closed = true; return nil }
func (p *fakePool) Size() int        { return p.size }

func testEnv() (*Environment, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Environment{
		Now:    time.Now,
		Stdout: &buf,
		Stderr: &buf,
		Logger: newLogger(&buf, log.DebugLevel),
	}, &buf
}

func mustParse(t *testing.T, args ...string) (*generateFlags, *flag.FlagSet) {
	t.Helper()
	f, fs, err := parseFlags(args)
	if err != nil {
		t.Fatalf("parseFlags(%v) error = %v", args, err)
	}
	return f, fs
}

func TestResolveSettings(t *testing.T) {
	t.Parallel()

	t.Run("flags win over config", func(t *testing.T) {
		t.Parallel()
		f, fs := mustParse(t, "--template", "flag.html", "--workers", "4", "--timeout", "10s")
		cfg := &config.Config{Template: "cfg.html", Workers: 2, Timeout: "99s"}

		s, err := resolveSettings(f, fs, cfg)
		if err != nil {
			t.Fatalf("resolveSettings() error = %v", err)
		}
		if s.template != "flag.html" || s.workers != 4 || s.timeout != 10*time.Second {
			t.Errorf("flags did not win: %+v", s)
		}
	})

	t.Run("config fills unset flags", func(t *testing.T) {
		t.Parallel()
		f, fs := mustParse(t)
		cfg := &config.Config{
			Template: "cfg.html",
			Output:   config.OutputConfig{DefaultDir: "out"},
			Workers:  3,
			Timeout:  "20s",
			Strict:   true,
		}

		s, err := resolveSettings(f, fs, cfg)
		if err != nil {
			t.Fatalf("resolveSettings() error = %v", err)
		}
		if s.template != "cfg.html" || s.outputDir != "out" || s.workers != 3 {
			t.Errorf("config not applied: %+v", s)
		}
		if s.timeout != 20*time.Second || !s.strict {
			t.Errorf("config not applied: %+v", s)
		}
	})

	t.Run("missing template", func(t *testing.T) {
		t.Parallel()
		f, fs := mustParse(t)
		_, err := resolveSettings(f, fs, config.DefaultConfig())
		if !errors.Is(err, ErrNoTemplate) {
			t.Errorf("error = %v, want ErrNoTemplate", err)
		}
	})

	t.Run("negative workers", func(t *testing.T) {
		t.Parallel()
		f, fs := mustParse(t, "--template", "t.html", "--workers", "-2")
		_, err := resolveSettings(f, fs, config.DefaultConfig())
		if !errors.Is(err, ErrInvalidWorkerCount) {
			t.Errorf("error = %v, want ErrInvalidWorkerCount", err)
		}
	})

	t.Run("bad timeout", func(t *testing.T) {
		t.Parallel()
		f, fs := mustParse(t, "--template", "t.html", "--timeout", "soon")
		_, err := resolveSettings(f, fs, config.DefaultConfig())
		if !errors.Is(err, ErrInvalidTimeout) {
			t.Errorf("error = %v, want ErrInvalidTimeout", err)
		}
	})
}

func TestResolveAssets(t *testing.T) {
	t.Parallel()

	t.Run("config assets come first, kinds detected", func(t *testing.T) {
		t.Parallel()
		got, err := resolveAssets(
			[]config.AssetConfig{
				{Path: "theme.css"},
				{Path: "weird.txt", Kind: "script"},
			},
			[]string{"app.js", "print.css"},
		)
		if err != nil {
			t.Fatalf("resolveAssets() error = %v", err)
		}

		want := []tpl2pdf.Asset{
			{Path: "theme.css", Kind: tpl2pdf.AssetStyle},
			{Path: "weird.txt", Kind: tpl2pdf.AssetScript},
			{Path: "app.js", Kind: tpl2pdf.AssetScript},
			{Path: "print.css", Kind: tpl2pdf.AssetStyle},
		}
		if len(got) != len(want) {
			t.Fatalf("got %d assets, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("assets[%d] = %+v, want %+v", i, got[i], want[i])
			}
		}
	})

	t.Run("undetectable extension", func(t *testing.T) {
		t.Parallel()
		_, err := resolveAssets(nil, []string{"mystery.bin"})
		if !errors.Is(err, ErrUnknownAssetKind) {
			t.Errorf("error = %v, want ErrUnknownAssetKind", err)
		}
	})
}

func TestBuildPrintOptions(t *testing.T) {
	t.Parallel()

	cfg := &config.PrintConfig{
		Landscape:  true,
		PaperWidth: tpl2pdf.Mm(100),
		PageRanges: "1-2",
	}

	t.Run("config only", func(t *testing.T) {
		t.Parallel()
		f, fs := mustParse(t)
		p := buildPrintOptions(cfg, &f.print, fs)
		if !p.Landscape || *p.PaperWidth != 100 || p.PageRanges != "1-2" {
			t.Errorf("config not carried: %+v", p)
		}
		if p.PaperHeight != nil {
			t.Errorf("unset dimension must stay nil: %+v", p)
		}
	})

	t.Run("changed flags override config", func(t *testing.T) {
		t.Parallel()
		f, fs := mustParse(t, "--landscape=false", "--paper-width", "210", "--margin-top", "0")
		p := buildPrintOptions(cfg, &f.print, fs)
		if p.Landscape {
			t.Error("explicit --landscape=false should override config")
		}
		if *p.PaperWidth != 210 {
			t.Errorf("PaperWidth = %v, want 210", *p.PaperWidth)
		}
		if p.MarginTop == nil || *p.MarginTop != 0 {
			t.Errorf("explicit zero margin must be set: %+v", p.MarginTop)
		}
		if p.PageRanges != "1-2" {
			t.Errorf("untouched config value lost: %+v", p)
		}
	})
}

func TestBuildJobs(t *testing.T) {
	t.Parallel()

	t.Run("one job per data file, named after it", func(t *testing.T) {
		t.Parallel()
		s := &settings{template: "tpl/invoice.html"}
		jobs, err := buildJobs([]string{"data/a.yaml", "data/b.yml"}, s)
		if err != nil {
			t.Fatalf("buildJobs() error = %v", err)
		}
		if len(jobs) != 2 {
			t.Fatalf("got %d jobs", len(jobs))
		}
		if jobs[0].OutputPath != filepath.Join("data", "a.pdf") {
			t.Errorf("jobs[0].OutputPath = %q", jobs[0].OutputPath)
		}
		if jobs[1].OutputPath != filepath.Join("data", "b.pdf") {
			t.Errorf("jobs[1].OutputPath = %q", jobs[1].OutputPath)
		}
	})

	t.Run("output dir overrides data file location", func(t *testing.T) {
		t.Parallel()
		s := &settings{template: "t.html", outputDir: "out"}
		jobs, err := buildJobs([]string{"data/a.yaml"}, s)
		if err != nil {
			t.Fatalf("buildJobs() error = %v", err)
		}
		if jobs[0].OutputPath != filepath.Join("out", "a.pdf") {
			t.Errorf("OutputPath = %q", jobs[0].OutputPath)
		}
	})

	t.Run("no data renders template once", func(t *testing.T) {
		t.Parallel()
		s := &settings{template: "tpl/invoice.html"}
		jobs, err := buildJobs(nil, s)
		if err != nil {
			t.Fatalf("buildJobs() error = %v", err)
		}
		if len(jobs) != 1 || jobs[0].DataPath != "" {
			t.Fatalf("jobs = %+v", jobs)
		}
		if jobs[0].OutputPath != filepath.Join("tpl", "invoice.pdf") {
			t.Errorf("OutputPath = %q", jobs[0].OutputPath)
		}
	})
}

func TestHTMLOutputPath(t *testing.T) {
	t.Parallel()

	if got := htmlOutputPath("out/a.pdf"); got != "out/a.html" {
		t.Errorf("htmlOutputPath() = %q", got)
	}
}

func TestGenerateBatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("renders every job and writes outputs", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		tplPath := filepath.Join(dir, "t.html")
		if err := os.WriteFile(tplPath, []byte("<p>x</p>"), 0o644); err != nil {
			t.Fatalf("setup: %v", err)
		}

		renderer := &fakeRenderer{}
		pool := &fakePool{renderer: renderer, size: 2}
		env, _ := testEnv()

		jobs := []Job{
			{OutputPath: filepath.Join(dir, "one.pdf")},
			{OutputPath: filepath.Join(dir, "two.pdf")},
		}
		params := &jobParams{template: tplPath}

		results := generateBatch(ctx, pool, jobs, params, env)
		if len(results) != 2 {
			t.Fatalf("got %d results", len(results))
		}
		for _, r := range results {
			if r.Err != nil {
				t.Errorf("job %s failed: %v", r.Job.OutputPath, r.Err)
			}
			if _, err := os.Stat(r.Job.OutputPath); err != nil {
				t.Errorf("output missing: %v", err)
			}
		}
		if renderer.calls != 2 {
			t.Errorf("renderer called %d times, want 2", renderer.calls)
		}
	})

	t.Run("html only writes html next to the pdf path", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		renderer := &fakeRenderer{}
		pool := &fakePool{renderer: renderer, size: 1}
		env, _ := testEnv()

		jobs := []Job{{OutputPath: filepath.Join(dir, "a.pdf")}}
		results := generateBatch(ctx, pool, jobs, &jobParams{template: "t.html", htmlOnly: true}, env)

		wantPath := filepath.Join(dir, "a.html")
		if results[0].Err != nil {
			t.Fatalf("job failed: %v", results[0].Err)
		}
		if results[0].Job.OutputPath != wantPath {
			t.Errorf("OutputPath = %q, want %q", results[0].Job.OutputPath, wantPath)
		}
		content, err := os.ReadFile(wantPath)
		if err != nil {
			t.Fatalf("reading output: %v", err)
		}
		if string(content) != "<p>fake</p>" {
			t.Errorf("content = %q", content)
		}
	})

	t.Run("data file is loaded into the record", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		dataPath := filepath.Join(dir, "rec.yaml")
		if err := os.WriteFile(dataPath, []byte("customer: ACME\n"), 0o644); err != nil {
			t.Fatalf("setup: %v", err)
		}

		renderer := &fakeRenderer{}
		pool := &fakePool{renderer: renderer, size: 1}
		env, _ := testEnv()

		jobs := []Job{{DataPath: dataPath, OutputPath: filepath.Join(dir, "rec.pdf")}}
		results := generateBatch(ctx, pool, jobs, &jobParams{template: "t.html"}, env)
		if results[0].Err != nil {
			t.Fatalf("job failed: %v", results[0].Err)
		}

		in := renderer.inputs[0]
		if v, ok := in.Record.Scalar("customer"); !ok || v != "ACME" {
			t.Errorf("record not loaded: %q, %v", v, ok)
		}
	})

	t.Run("render failure recorded per job", func(t *testing.T) {
		t.Parallel()
		renderer := &fakeRenderer{err: tpl2pdf.ErrRenderFailed}
		pool := &fakePool{renderer: renderer, size: 1}
		env, _ := testEnv()

		jobs := []Job{{OutputPath: filepath.Join(t.TempDir(), "a.pdf")}}
		results := generateBatch(ctx, pool, jobs, &jobParams{template: "t.html"}, env)
		if !errors.Is(results[0].Err, tpl2pdf.ErrRenderFailed) {
			t.Errorf("Err = %v, want ErrRenderFailed", results[0].Err)
		}
	})

	t.Run("acquire failure marks all jobs failed", func(t *testing.T) {
		t.Parallel()
		pool := &fakePool{acquireErr: tpl2pdf.ErrEngineUnavailable, size: 1}
		env, _ := testEnv()

		jobs := []Job{
			{OutputPath: "a.pdf"},
			{OutputPath: "b.pdf"},
		}
		results := generateBatch(ctx, pool, jobs, &jobParams{template: "t.html"}, env)
		for _, r := range results {
			if !errors.Is(r.Err, ErrGeneratorInit) {
				t.Errorf("Err = %v, want ErrGeneratorInit", r.Err)
			}
		}
	})
}

func TestReportResults(t *testing.T) {
	t.Parallel()

	t.Run("all succeeded", func(t *testing.T) {
		t.Parallel()
		env, buf := testEnv()
		err := reportResults([]JobResult{
			{Job: Job{OutputPath: "a.pdf"}},
			{Job: Job{OutputPath: "b.pdf"}},
		}, false, env)
		if err != nil {
			t.Errorf("reportResults() = %v", err)
		}
		if !strings.Contains(buf.String(), "a.pdf") {
			t.Errorf("success not logged: %s", buf.String())
		}
	})

	t.Run("failure returns first error", func(t *testing.T) {
		t.Parallel()
		env, _ := testEnv()
		err := reportResults([]JobResult{
			{Job: Job{OutputPath: "a.pdf"}},
			{Job: Job{DataPath: "b.yaml"}, Err: tpl2pdf.ErrRenderFailed},
		}, false, env)
		if !errors.Is(err, tpl2pdf.ErrRenderFailed) {
			t.Errorf("reportResults() = %v, want ErrRenderFailed", err)
		}
	})

	t.Run("diagnostics pass in lenient mode", func(t *testing.T) {
		t.Parallel()
		env, buf := testEnv()
		err := reportResults([]JobResult{
			{
				Job:         Job{OutputPath: "a.pdf"},
				Diagnostics: []tpl2pdf.Diagnostic{{Kind: tpl2pdf.DiagUnresolvedPlaceholder, Name: "x"}},
			},
		}, false, env)
		if err != nil {
			t.Errorf("reportResults() = %v", err)
		}
		if !strings.Contains(buf.String(), "unresolved_placeholder") {
			t.Errorf("diagnostic not logged: %s", buf.String())
		}
	})

	t.Run("diagnostics fail in strict mode", func(t *testing.T) {
		t.Parallel()
		env, _ := testEnv()
		err := reportResults([]JobResult{
			{
				Job:         Job{OutputPath: "a.pdf"},
				Diagnostics: []tpl2pdf.Diagnostic{{Kind: tpl2pdf.DiagUnresolvedPlaceholder, Name: "x"}},
			},
		}, true, env)
		if !errors.Is(err, ErrStrictDiagnostics) {
			t.Errorf("reportResults() = %v, want ErrStrictDiagnostics", err)
		}
	})
}

func TestRunGenerate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("end to end with fake pool", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		tplPath := filepath.Join(dir, "t.html")
		dataPath := filepath.Join(dir, "rec.yaml")
		if err := os.WriteFile(tplPath, []byte("<p>%%customer%%</p>"), 0o644); err != nil {
			t.Fatalf("setup: %v", err)
		}
		if err := os.WriteFile(dataPath, []byte("customer: ACME\n"), 0o644); err != nil {
			t.Fatalf("setup: %v", err)
		}

		renderer := &fakeRenderer{}
		pool := &fakePool{renderer: renderer, size: 1}
		factory := func(size int, opts ...tpl2pdf.Option) Pool { return pool }

		f, fs := mustParse(t, "--template", tplPath, "--data", dataPath, "--output", dir)
		env, _ := testEnv()

		if err := runGenerate(ctx, f, fs, env, factory); err != nil {
			t.Fatalf("runGenerate() error = %v", err)
		}
		if renderer.calls != 1 {
			t.Errorf("renderer called %d times", renderer.calls)
		}
		if !pool.closed {
			t.Error("pool not closed")
		}
		if _, err := os.Stat(filepath.Join(dir, "rec.pdf")); err != nil {
			t.Errorf("output missing: %v", err)
		}
	})

	t.Run("missing template is a usage error", func(t *testing.T) {
		t.Parallel()
		f, fs := mustParse(t)
		env, _ := testEnv()
		factory := func(size int, opts ...tpl2pdf.Option) Pool { return &fakePool{size: 1} }

		err := runGenerate(ctx, f, fs, env, factory)
		if !errors.Is(err, ErrNoTemplate) {
			t.Errorf("runGenerate() = %v, want ErrNoTemplate", err)
		}
	})
}
