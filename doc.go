// Package tpl2pdf renders typed template records into PDFs with headless
// Chrome. An HTML template carrying %%name%% placeholders and
// <inject-table> markers is combined with a Record, sanitized, enriched
// with inlined images and assets, and printed to PDF bytes.
//
// Basic usage:
//
//	g, err := tpl2pdf.NewGenerator()
//	if err != nil { ... }
//	defer g.Close()
//
//	rec := tpl2pdf.NewRecord().
//		SetString("customer", "ACME & Co").
//		SetInt("invoice_number", 42)
//
//	res, err := g.Generate(ctx, tpl2pdf.Input{
//		TemplatePath: "invoice.html",
//		Record:       rec,
//		Assets:       []tpl2pdf.Asset{{Path: "style.css", Kind: tpl2pdf.AssetStyle}},
//	})
//
// The transformation pipeline is pure and deterministic; only the render
// step talks to the browser. Unresolved placeholders, missing table fields,
// and similar mismatches are returned as Diagnostics next to the result
// instead of failing the render.
package tpl2pdf
