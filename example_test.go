package tpl2pdf_test

import (
	"context"
	"fmt"
	"strings"

	tpl2pdf "github.com/alnah/go-tpl2pdf"
)

// Example demonstrates resolving placeholders into a template.
// For PDF output, set HTMLOnly to false (requires Chrome).
func Example() {
	g, err := tpl2pdf.NewGenerator()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer g.Close()

	rec := tpl2pdf.NewRecord().
		SetString("customer", "ACME & Co").
		SetInt("invoice_number", 42)

	res, err := g.Generate(context.Background(), tpl2pdf.Input{
		HTML:     "<p>Invoice %%invoice_number%% for %%customer%%</p>",
		Record:   rec,
		HTMLOnly: true, // Skip PDF generation for this example
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(string(res.HTML))
	// Output: <p>Invoice 42 for ACME &amp; Co</p>
}

// Example_table demonstrates expanding a table marker from record rows.
func Example_table() {
	g, err := tpl2pdf.NewGenerator()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer g.Close()

	rec := tpl2pdf.NewRecord().AddTable("lines",
		tpl2pdf.NewRow().SetString("desc", "Widgets").SetInt("qty", 3),
		tpl2pdf.NewRow().SetString("desc", "Shipping").SetInt("qty", 1),
	)

	res, err := g.Generate(context.Background(), tpl2pdf.Input{
		HTML: `<inject-table items="lines">` +
			`<inject-column prop="desc" label="Description"/>` +
			`<inject-column prop="qty" label="Qty"/>` +
			`</inject-table>`,
		Record:   rec,
		HTMLOnly: true,
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	if strings.Contains(string(res.HTML), "<td>Widgets</td><td>3</td>") {
		fmt.Println("table expanded")
	}
	// Output: table expanded
}

// Example_fromStruct demonstrates deriving a record from a struct.
func Example_fromStruct() {
	type line struct {
		Desc string
		Qty  int
	}
	type invoice struct {
		Customer string `pdf:"customer"`
		Lines    []line
	}

	rec, err := tpl2pdf.RecordFromStruct(invoice{
		Customer: "ACME",
		Lines:    []line{{Desc: "Widgets", Qty: 3}},
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(rec.FieldNames(), rec.TableNames())
	// Output: [customer] [lines]
}

// Example_diagnostics demonstrates the non-fatal diagnostic contract.
func Example_diagnostics() {
	g, err := tpl2pdf.NewGenerator()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer g.Close()

	res, err := g.Generate(context.Background(), tpl2pdf.Input{
		HTML:     "<p>%%missing%%</p>",
		HTMLOnly: true,
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	for _, d := range res.Diagnostics {
		fmt.Println(d.Kind, d.Name)
	}
	// Output: unresolved_placeholder missing
}
