package main

import (
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// printFlags holds PDF print option flags. Dimensions are millimetres.
// Zero values are indistinguishable from "not set", so callers must check
// fs.Changed before applying one.
type printFlags struct {
	landscape         bool
	printBackground   bool
	preferCSSPageSize bool
	paperWidth        float64
	paperHeight       float64
	marginTop         float64
	marginBottom      float64
	marginLeft        float64
	marginRight       float64
	pageRanges        string
}

// generateFlags holds all CLI flags.
type generateFlags struct {
	template string
	data     []string
	assets   []string
	output   string
	workers  int
	timeout  string
	htmlOnly bool
	strict   bool
	config   string
	quiet    bool
	verbose  bool
	version  bool
	print    printFlags
}

// parseFlags parses the command line. The returned FlagSet is kept so
// callers can distinguish explicitly set flags from defaults via Changed.
func parseFlags(args []string) (*generateFlags, *flag.FlagSet, error) {
	fs := flag.NewFlagSet("tpl2pdf", flag.ContinueOnError)
	f := &generateFlags{}

	fs.StringVarP(&f.template, "template", "T", "", "HTML template file")
	fs.StringArrayVarP(&f.data, "data", "d", nil, "YAML record file (repeatable; one PDF each)")
	fs.StringArrayVarP(&f.assets, "asset", "a", nil, "CSS or JS file to inject (repeatable)")
	fs.StringVarP(&f.output, "output", "o", "", "output directory (default: next to the data file)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-render timeout (e.g. 30s, 2m)")
	fs.BoolVar(&f.htmlOnly, "html-only", false, "write assembled HTML instead of PDF")
	fs.BoolVar(&f.strict, "strict", false, "treat diagnostics as failures")
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug output")
	fs.BoolVar(&f.version, "version", false, "show version and exit")

	fs.BoolVar(&f.print.landscape, "landscape", false, "landscape orientation")
	fs.BoolVar(&f.print.printBackground, "print-background", false, "print background graphics")
	fs.BoolVar(&f.print.preferCSSPageSize, "prefer-css-page-size", false, "let CSS @page rules win over paper size")
	fs.Float64Var(&f.print.paperWidth, "paper-width", 0, "paper width in mm")
	fs.Float64Var(&f.print.paperHeight, "paper-height", 0, "paper height in mm")
	fs.Float64Var(&f.print.marginTop, "margin-top", 0, "top margin in mm")
	fs.Float64Var(&f.print.marginBottom, "margin-bottom", 0, "bottom margin in mm")
	fs.Float64Var(&f.print.marginLeft, "margin-left", 0, "left margin in mm")
	fs.Float64Var(&f.print.marginRight, "margin-right", 0, "right margin in mm")
	fs.StringVar(&f.print.pageRanges, "page-ranges", "", "pages to print, e.g. 1-3,5")

	fs.Usage = func() { printUsage(fs.Output()) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs, nil
}

// printUsage prints the usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: tpl2pdf --template <file.html> [--data <record.yaml>]... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render HTML templates with YAML records into PDFs.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Each --data file produces one PDF named after it. Without --data the")
	fmt.Fprintln(w, "template renders once with an empty record, named after the template.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -T, --template <path>     HTML template file")
	fmt.Fprintln(w, "  -d, --data <path>         YAML record file (repeatable)")
	fmt.Fprintln(w, "  -a, --asset <path>        CSS or JS file to inject (repeatable)")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "      --html-only           Write assembled HTML, skip the browser")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print:")
	fmt.Fprintln(w, "      --landscape           Landscape orientation")
	fmt.Fprintln(w, "      --print-background    Print background graphics")
	fmt.Fprintln(w, "      --paper-width <mm>    Paper width")
	fmt.Fprintln(w, "      --paper-height <mm>   Paper height")
	fmt.Fprintln(w, "      --margin-top <mm>     Top margin (same for bottom/left/right)")
	fmt.Fprintln(w, "      --page-ranges <s>     Pages to print, e.g. 1-3,5")
	fmt.Fprintln(w, "      --prefer-css-page-size  Let CSS @page rules win")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Execution:")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w, "  -t, --timeout <dur>       Per-render timeout (e.g. 30s)")
	fmt.Fprintln(w, "      --strict              Treat diagnostics as failures")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug output")
	fmt.Fprintln(w, "      --version             Show version and exit")
}
