// Package pipeline implements the text transformations that turn an HTML
// template into a render-ready document: placeholder resolution, table
// expansion, image inlining, and asset injection.
//
// The transformations operate on the document as plain text with an explicit
// tokenizer; they deliberately do not parse HTML. Every record value written
// into the document passes through Sanitize exactly once, and no substituted
// output is ever rescanned for further tokens. The table markup the expander
// generates is excluded from the placeholder scan entirely, so row data with
// %% syntax cannot reference other record fields.
package pipeline
