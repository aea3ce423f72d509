package tpl2pdf

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alnah/go-tpl2pdf/internal/assets"
	"github.com/alnah/go-tpl2pdf/internal/pipeline"
)

// engine renders assembled HTML to PDF bytes. The production implementation
// drives headless Chrome; tests substitute a fake.
type engine interface {
	Render(ctx context.Context, html string, opts *PrintOptions) ([]byte, error)
	Close() error
}

// Generator turns templates and records into PDFs. It owns one browser
// connection, created lazily on the first render. A Generator is safe for
// concurrent use; renders on the same Generator share the browser and run as
// separate pages.
type Generator struct {
	cfg    generatorConfig
	engine engine
}

// NewGenerator creates a Generator with the given options.
func NewGenerator(opts ...Option) (*Generator, error) {
	g := &Generator{
		cfg: generatorConfig{timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.engine == nil {
		g.engine = newRodEngine(g.cfg.timeout, g.cfg.noSandbox)
	}
	return g, nil
}

// Generate runs the full pipeline for one input: load the template, expand
// table markers, resolve placeholders, inline images, inject assets, then
// print to PDF. Mismatches between template and record surface as
// Diagnostics on the Result; only malformed templates, unreadable files,
// invalid options, and engine failures are errors.
func (g *Generator) Generate(ctx context.Context, in Input) (*Result, error) {
	// Validation runs before any engine interaction.
	if err := in.Print.Validate(); err != nil {
		return nil, err
	}
	if in.Record != nil {
		if err := in.Record.Validate(); err != nil {
			return nil, err
		}
	}

	doc, baseDir, err := loadTemplate(in)
	if err != nil {
		return nil, err
	}

	html, diags, err := assemble(doc, baseDir, in)
	if err != nil {
		return nil, err
	}

	res := &Result{
		HTML:        []byte(html),
		Diagnostics: diags,
	}
	if in.HTMLOnly {
		return res, nil
	}

	pdf, err := g.engine.Render(ctx, html, in.Print)
	if err != nil {
		return nil, err
	}
	res.PDF = pdf
	return res, nil
}

// Close releases the browser. The Generator cannot be reused afterwards.
func (g *Generator) Close() error {
	return g.engine.Close()
}

// loadTemplate resolves the template content and the base directory for
// relative image paths.
func loadTemplate(in Input) (doc, baseDir string, err error) {
	switch {
	case in.HTML != "" && in.TemplatePath != "":
		return "", "", fmt.Errorf("%w: HTML and TemplatePath are mutually exclusive", ErrInvalidInput)
	case in.HTML != "":
		doc = in.HTML
		baseDir = "."
	case in.TemplatePath != "":
		doc, err = assets.ReadTemplate(in.TemplatePath)
		if err != nil {
			return "", "", err
		}
		baseDir = filepath.Dir(in.TemplatePath)
	default:
		return "", "", fmt.Errorf("%w: either HTML or TemplatePath must be set", ErrInvalidInput)
	}

	if strings.TrimSpace(doc) == "" {
		return "", "", ErrEmptyTemplate
	}
	if in.BaseDir != "" {
		baseDir = in.BaseDir
	}
	return doc, baseDir, nil
}

// assemble runs the pure document transformations in their fixed order:
// table expansion, placeholder resolution, image inlining, asset injection.
// Tables expand first and report the ranges they generated; the resolver
// skips those ranges, so row data containing %% syntax can never pull other
// record fields into the output. The order is part of the contract, not
// incidental.
func assemble(doc, baseDir string, in Input) (string, []Diagnostic, error) {
	rec := recordView(in.Record)
	var diags []Diagnostic

	doc, generated, tableDiags, err := pipeline.ExpandTables(doc, rec)
	if err != nil {
		return "", nil, err
	}
	diags = appendDiags(diags, tableDiags)

	doc, resolveDiags := pipeline.ResolvePlaceholders(doc, rec, generated)
	diags = appendDiags(diags, resolveDiags)

	doc, imageDiags := pipeline.InlineImages(doc, baseDir)
	diags = appendDiags(diags, imageDiags)

	loaded, err := loadAssets(in.Assets)
	if err != nil {
		return "", nil, err
	}
	doc, injectDiags := pipeline.InjectAssets(doc, loaded)
	diags = appendDiags(diags, injectDiags)

	return doc, diags, nil
}

// recordView adapts a possibly-nil Record for the pipeline. A nil Record
// behaves like an empty one: nothing resolves, everything is diagnosed.
func recordView(rec *Record) pipeline.Record {
	if rec == nil {
		return NewRecord()
	}
	return rec
}

// loadAssets reads asset files in declaration order.
func loadAssets(list []Asset) ([]pipeline.LoadedAsset, error) {
	if len(list) == 0 {
		return nil, nil
	}
	loaded := make([]pipeline.LoadedAsset, 0, len(list))
	for _, a := range list {
		content, err := assets.ReadAsset(a.Path)
		if err != nil {
			return nil, err
		}
		kind := pipeline.AssetStyle
		if a.Kind == AssetScript {
			kind = pipeline.AssetScript
		}
		loaded = append(loaded, pipeline.LoadedAsset{
			Name:    filepath.Base(a.Path),
			Kind:    kind,
			Content: content,
		})
	}
	return loaded, nil
}

// appendDiags converts pipeline diagnostics to the public type.
func appendDiags(dst []Diagnostic, src []pipeline.Diagnostic) []Diagnostic {
	for _, d := range src {
		dst = append(dst, Diagnostic{
			Kind:   DiagnosticKind(d.Kind),
			Name:   d.Name,
			Detail: d.Detail,
		})
	}
	return dst
}
