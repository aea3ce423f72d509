package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	flag "github.com/spf13/pflag"

	tpl2pdf "github.com/alnah/go-tpl2pdf"
	"github.com/alnah/go-tpl2pdf/internal/config"
)

// Sentinel errors for CLI operations.
var (
	ErrNoTemplate         = errors.New("no template specified")
	ErrUnknownAssetKind   = errors.New("cannot determine asset kind")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrInvalidTimeout     = errors.New("invalid timeout")
	ErrWriteOutput        = errors.New("failed to write output file")
	ErrGeneratorInit      = errors.New("failed to initialize generator")
	ErrStrictDiagnostics  = errors.New("diagnostics reported in strict mode")
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// Renderer is the slice of the library the CLI drives.
type Renderer interface {
	Generate(ctx context.Context, in tpl2pdf.Input) (*tpl2pdf.Result, error)
}

// Compile-time interface implementation check.
var _ Renderer = (*tpl2pdf.Generator)(nil)

// Pool abstracts generator pool operations for testability.
type Pool interface {
	Acquire() (Renderer, error)
	Release(Renderer)
	Close() error
	Size() int
}

// PoolFactory builds a Pool of the given size. Production uses the
// library's GeneratorPool; tests substitute fakes.
type PoolFactory func(size int, opts ...tpl2pdf.Option) Pool

// generatorPool adapts tpl2pdf.GeneratorPool to the Pool interface.
type generatorPool struct {
	inner *tpl2pdf.GeneratorPool
}

func newGeneratorPool(size int, opts ...tpl2pdf.Option) Pool {
	return &generatorPool{inner: tpl2pdf.NewGeneratorPool(size, opts...)}
}

func (p *generatorPool) Acquire() (Renderer, error) {
	g, err := p.inner.Acquire()
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (p *generatorPool) Release(r Renderer) {
	if g, ok := r.(*tpl2pdf.Generator); ok {
		p.inner.Release(g)
	}
}

func (p *generatorPool) Close() error { return p.inner.Close() }
func (p *generatorPool) Size() int    { return p.inner.Size() }

// Job is one render unit: a data file (or none) and its output path.
type Job struct {
	DataPath   string // empty = render with an empty record
	OutputPath string
}

// JobResult holds the outcome of a single render.
type JobResult struct {
	Job         Job
	Diagnostics []tpl2pdf.Diagnostic
	Err         error
	Duration    time.Duration
}

// jobParams groups the settings shared by every job in a batch.
type jobParams struct {
	template string
	assets   []tpl2pdf.Asset
	print    *tpl2pdf.PrintOptions
	htmlOnly bool
}

// runGenerate orchestrates one CLI invocation: resolve configuration, build
// the job list, render the batch through a generator pool, and report.
func runGenerate(ctx context.Context, f *generateFlags, fs *flag.FlagSet, env *Environment, newPool PoolFactory) error {
	cfg := config.DefaultConfig()
	var err error
	if f.config != "" {
		cfg, err = config.LoadConfig(f.config)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}

	settings, err := resolveSettings(f, fs, cfg)
	if err != nil {
		return err
	}

	jobs, err := buildJobs(f.data, settings)
	if err != nil {
		return err
	}

	var opts []tpl2pdf.Option
	if settings.timeout > 0 {
		opts = append(opts, tpl2pdf.WithTimeout(settings.timeout))
	}

	poolSize := tpl2pdf.ResolvePoolSize(settings.workers)
	env.Logger.Debug("resolved pool size", "workers", settings.workers, "size", poolSize)
	pool := newPool(poolSize, opts...)
	defer func() { _ = pool.Close() }()

	params := &jobParams{
		template: settings.template,
		assets:   settings.assets,
		print:    settings.print,
		htmlOnly: f.htmlOnly,
	}
	results := generateBatch(ctx, pool, jobs, params, env)

	return reportResults(results, settings.strict, env)
}

// settings is the merged flag/config view. Flags win over config values.
type settings struct {
	template  string
	assets    []tpl2pdf.Asset
	print     *tpl2pdf.PrintOptions
	outputDir string
	workers   int
	timeout   time.Duration
	strict    bool
}

// resolveSettings merges flags and config into one settings value and
// validates it.
func resolveSettings(f *generateFlags, fs *flag.FlagSet, cfg *config.Config) (*settings, error) {
	s := &settings{
		template:  f.template,
		outputDir: f.output,
		strict:    f.strict || cfg.Strict,
	}

	if s.template == "" {
		s.template = cfg.Template
	}
	if s.template == "" {
		return nil, fmt.Errorf("%w: pass --template or set template in the config", ErrNoTemplate)
	}
	if s.outputDir == "" {
		s.outputDir = cfg.Output.DefaultDir
	}

	s.workers = cfg.Workers
	if fs.Changed("workers") {
		s.workers = f.workers
	}
	if s.workers < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWorkerCount, s.workers)
	}

	timeoutStr := cfg.Timeout
	if fs.Changed("timeout") {
		timeoutStr = f.timeout
	}
	if timeoutStr != "" {
		d, err := time.ParseDuration(timeoutStr)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTimeout, timeoutStr)
		}
		s.timeout = d
	}

	assets, err := resolveAssets(cfg.Assets, f.assets)
	if err != nil {
		return nil, err
	}
	s.assets = assets

	s.print = buildPrintOptions(&cfg.Print, &f.print, fs)
	return s, nil
}

// resolveAssets combines config assets with --asset flags, config first.
// Flag assets and config entries without an explicit kind are classified by
// file extension.
func resolveAssets(fromConfig []config.AssetConfig, fromFlags []string) ([]tpl2pdf.Asset, error) {
	out := make([]tpl2pdf.Asset, 0, len(fromConfig)+len(fromFlags))

	for _, a := range fromConfig {
		kind, err := assetKind(a.Path, a.Kind)
		if err != nil {
			return nil, err
		}
		out = append(out, tpl2pdf.Asset{Path: a.Path, Kind: kind})
	}
	for _, path := range fromFlags {
		kind, err := assetKind(path, "")
		if err != nil {
			return nil, err
		}
		out = append(out, tpl2pdf.Asset{Path: path, Kind: kind})
	}
	return out, nil
}

func assetKind(path, explicit string) (tpl2pdf.AssetKind, error) {
	switch strings.ToLower(explicit) {
	case config.KindStyle:
		return tpl2pdf.AssetStyle, nil
	case config.KindScript:
		return tpl2pdf.AssetScript, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".css":
		return tpl2pdf.AssetStyle, nil
	case ".js", ".mjs":
		return tpl2pdf.AssetScript, nil
	}
	return 0, fmt.Errorf("%w: %s (expected .css or .js, or an explicit kind)", ErrUnknownAssetKind, path)
}

// buildPrintOptions starts from the config print section and overrides each
// field a flag was explicitly set for.
func buildPrintOptions(cfg *config.PrintConfig, f *printFlags, fs *flag.FlagSet) *tpl2pdf.PrintOptions {
	p := &tpl2pdf.PrintOptions{
		Landscape:         cfg.Landscape,
		PrintBackground:   cfg.PrintBackground,
		PreferCSSPageSize: cfg.PreferCSSPageSize,
		PaperWidth:        cfg.PaperWidth,
		PaperHeight:       cfg.PaperHeight,
		MarginTop:         cfg.MarginTop,
		MarginBottom:      cfg.MarginBottom,
		MarginLeft:        cfg.MarginLeft,
		MarginRight:       cfg.MarginRight,
		PageRanges:        cfg.PageRanges,
	}

	if fs.Changed("landscape") {
		p.Landscape = f.landscape
	}
	if fs.Changed("print-background") {
		p.PrintBackground = f.printBackground
	}
	if fs.Changed("prefer-css-page-size") {
		p.PreferCSSPageSize = f.preferCSSPageSize
	}
	if fs.Changed("paper-width") {
		p.PaperWidth = tpl2pdf.Mm(f.paperWidth)
	}
	if fs.Changed("paper-height") {
		p.PaperHeight = tpl2pdf.Mm(f.paperHeight)
	}
	if fs.Changed("margin-top") {
		p.MarginTop = tpl2pdf.Mm(f.marginTop)
	}
	if fs.Changed("margin-bottom") {
		p.MarginBottom = tpl2pdf.Mm(f.marginBottom)
	}
	if fs.Changed("margin-left") {
		p.MarginLeft = tpl2pdf.Mm(f.marginLeft)
	}
	if fs.Changed("margin-right") {
		p.MarginRight = tpl2pdf.Mm(f.marginRight)
	}
	if fs.Changed("page-ranges") {
		p.PageRanges = f.pageRanges
	}
	return p
}

// buildJobs maps data files to jobs. Without data files the template renders
// once with an empty record, named after the template.
func buildJobs(dataFiles []string, s *settings) ([]Job, error) {
	ext := ".pdf"

	if len(dataFiles) == 0 {
		dir := s.outputDir
		if dir == "" {
			dir = filepath.Dir(s.template)
		}
		return []Job{{OutputPath: filepath.Join(dir, stemOf(s.template)+ext)}}, nil
	}

	jobs := make([]Job, 0, len(dataFiles))
	for _, data := range dataFiles {
		dir := s.outputDir
		if dir == "" {
			dir = filepath.Dir(data)
		}
		jobs = append(jobs, Job{
			DataPath:   data,
			OutputPath: filepath.Join(dir, stemOf(data)+ext),
		})
	}
	return jobs, nil
}

// stemOf returns the file name without directory and extension.
func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// htmlOutputPath swaps the output extension for .html.
func htmlOutputPath(pdfPath string) string {
	return strings.TrimSuffix(pdfPath, filepath.Ext(pdfPath)) + ".html"
}

// generateBatch processes jobs concurrently using the generator pool.
func generateBatch(ctx context.Context, pool Pool, jobs []Job, params *jobParams, env *Environment) []JobResult {
	if len(jobs) == 0 {
		return nil
	}

	concurrency := min(pool.Size(), len(jobs))
	results := make([]JobResult, len(jobs))
	var wg sync.WaitGroup
	queue := make(chan int, len(jobs))

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			g, err := pool.Acquire()
			if err != nil {
				// Generator creation failed, mark remaining jobs as failed
				for idx := range queue {
					results[idx] = JobResult{
						Job: jobs[idx],
						Err: fmt.Errorf("%w: %v", ErrGeneratorInit, err),
					}
				}
				return
			}
			defer pool.Release(g)

			for idx := range queue {
				if ctx.Err() != nil {
					results[idx] = JobResult{Job: jobs[idx], Err: ctx.Err()}
					continue
				}
				results[idx] = generateOne(ctx, g, jobs[idx], params)
			}
		}()
	}

	for i := range jobs {
		queue <- i
	}
	close(queue)

	wg.Wait()
	return results
}

// generateOne renders a single job and writes its output file.
func generateOne(ctx context.Context, g Renderer, job Job, params *jobParams) JobResult {
	start := time.Now()
	result := JobResult{Job: job}
	finish := func() JobResult {
		result.Duration = time.Since(start)
		return result
	}

	rec := tpl2pdf.NewRecord()
	if job.DataPath != "" {
		var err error
		rec, err = loadRecord(job.DataPath)
		if err != nil {
			result.Err = err
			return finish()
		}
	}

	res, err := g.Generate(ctx, tpl2pdf.Input{
		TemplatePath: params.template,
		Record:       rec,
		Assets:       params.assets,
		Print:        params.print,
		HTMLOnly:     params.htmlOnly,
	})
	if err != nil {
		result.Err = err
		return finish()
	}
	result.Diagnostics = res.Diagnostics

	outPath := job.OutputPath
	content := res.PDF
	if params.htmlOnly {
		outPath = htmlOutputPath(outPath)
		result.Job.OutputPath = outPath
		content = res.HTML
	}

	if err := os.MkdirAll(filepath.Dir(outPath), dirPermissions); err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrWriteOutput, err)
		return finish()
	}
	// #nosec G306 -- outputs are meant to be readable
	if err := os.WriteFile(outPath, content, filePermissions); err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrWriteOutput, err)
		return finish()
	}

	return finish()
}

// reportResults logs each result, then returns an error describing the
// first failure so main can map it to an exit code. In strict mode a render
// with diagnostics counts as failed.
func reportResults(results []JobResult, strict bool, env *Environment) error {
	var firstErr error
	failed := 0

	for _, r := range results {
		for _, d := range r.Diagnostics {
			env.Logger.Warn("diagnostic",
				"kind", string(d.Kind), "name", d.Name, "detail", d.Detail, "output", r.Job.OutputPath)
		}

		switch {
		case r.Err != nil:
			env.Logger.Error("generation failed", "data", r.Job.DataPath, "err", r.Err)
			failed++
			if firstErr == nil {
				firstErr = r.Err
			}
		case strict && len(r.Diagnostics) > 0:
			env.Logger.Error("diagnostics in strict mode",
				"output", r.Job.OutputPath, "count", len(r.Diagnostics))
			failed++
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: %s", ErrStrictDiagnostics, r.Job.OutputPath)
			}
		default:
			env.Logger.Info("created",
				"output", r.Job.OutputPath, "took", r.Duration.Round(time.Millisecond))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d renders failed: %w", failed, len(results), firstErr)
	}
	return nil
}
