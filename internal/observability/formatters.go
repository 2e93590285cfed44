// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jonathan/deal-poster/internal/extract"
	"github.com/jonathan/deal-poster/internal/fetch"
	"github.com/jonathan/deal-poster/internal/types"
)

// boxWidth is the default width for formatted output boxes
const boxWidth = 60

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", runewidth.FillRight(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	// Widths are display cells so emoji and CJK titles keep the border aligned.
	for _, line := range strings.Split(content, "\n") {
		line = runewidth.Truncate(line, boxWidth-4, "...")
		fmt.Fprintf(p.out, "│ %s │\n", runewidth.FillRight(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintProduct outputs the resolved product fields.
func (p *Printer) PrintProduct(prod *types.ProductRecord) {
	if prod == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title:    %s\n", prod.Title))
	sb.WriteString(fmt.Sprintf("ASIN:     %s\n", orDash(prod.ASIN)))
	sb.WriteString(fmt.Sprintf("Image:    %s\n", orDash(prod.ImageURL)))
	sb.WriteString(fmt.Sprintf("Price:    %s\n", orDash(money(prod.CurrentPrice.Valid, prod.CurrentPrice.Decimal.StringFixed(2), prod.Currency))))
	sb.WriteString(fmt.Sprintf("List:     %s\n", orDash(money(prod.ListPrice.Valid, prod.ListPrice.Decimal.StringFixed(2), prod.Currency))))
	if prod.DiscountPercent != nil {
		sb.WriteString(fmt.Sprintf("Discount: %d%%", *prod.DiscountPercent))
	} else {
		sb.WriteString("Discount: -")
	}

	p.printBox("PRODUCT", sb.String())
}

// PrintExtraction outputs which source produced each scraped field.
func (p *Printer) PrintExtraction(res *fetch.Result, md *extract.Metadata) {
	if res == nil || md == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("URL:      %s\n", res.URL))
	switch {
	case res.ViaBrowser:
		sb.WriteString("Fetch:    headless browser\n")
	case res.Fetched:
		sb.WriteString(fmt.Sprintf("Fetch:    HTTP %d after %d attempt(s)\n", res.StatusCode, res.Attempts))
	default:
		sb.WriteString(fmt.Sprintf("Fetch:    failed after %d attempt(s)\n", res.Attempts))
	}
	sb.WriteString(fmt.Sprintf("Title:    %s\n", orDash(md.TitleSource)))
	sb.WriteString(fmt.Sprintf("Price:    %s\n", orDash(md.PriceSource)))
	sb.WriteString(fmt.Sprintf("Skipped:  %d structured-data block(s)", md.SkippedBlocks))

	p.printBox("EXTRACTION", sb.String())
}

func money(valid bool, amount, currency string) string {
	if !valid {
		return ""
	}
	return strings.TrimSpace(amount + " " + currency)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
