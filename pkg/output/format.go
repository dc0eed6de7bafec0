// Package output renders analysis results for the terminal (pretty), for
// spreadsheets (csv) or for other programs (json).
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iwvelando/brrrr-analyzer/pkg/constants"
	"github.com/iwvelando/brrrr-analyzer/pkg/format"
	"github.com/iwvelando/brrrr-analyzer/pkg/validation"
)

// cell carries a value both as displayed and as written to CSV.
type cell struct {
	display string
	raw     string
}

type row struct {
	label string
	value cell
}

// section is a titled list of labelled values.
type section struct {
	title string
	rows  []row
}

// table is a titled grid with a header line.
type table struct {
	title  string
	header []string
	rows   [][]cell
}

// document is everything rendered for one result.
type document struct {
	sections []section
	tables   []table
	notes    []string
}

func money(v float64) cell {
	return cell{display: format.Currency(v), raw: strconv.FormatFloat(v, 'f', constants.DecimalPlaces, 64)}
}

func percent(v float64) cell {
	return cell{display: format.Percent(v), raw: strconv.FormatFloat(v, 'f', constants.ReturnDecimalPlaces, 64)}
}

func optionalPercent(v *float64) cell {
	if v == nil {
		return cell{display: format.OptionalPercent(nil), raw: "inf"}
	}
	return percent(*v)
}

func ratio(v float64) cell {
	return cell{display: format.Ratio(v), raw: strconv.FormatFloat(v, 'f', constants.RatioDecimalPlaces, 64)}
}

func wholePercent(v float64) cell {
	return cell{display: strconv.FormatFloat(v, 'f', -1, 64) + "%", raw: strconv.FormatFloat(v, 'f', -1, 64)}
}

func integer(v int) cell {
	s := strconv.Itoa(v)
	return cell{display: s, raw: s}
}

func text(s string) cell {
	return cell{display: s, raw: s}
}

func yesNo(b bool) cell {
	if b {
		return cell{display: "yes", raw: "true"}
	}
	return cell{display: "no", raw: "false"}
}

// Render writes v in the given format. Types without a pretty or csv
// rendering are written as JSON.
func Render(w io.Writer, outputFormat string, v any) error {
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}
	if outputFormat == constants.OutputFormatJSON {
		return JSON(w, v)
	}

	doc, ok := documentFor(v)
	if !ok {
		return JSON(w, v)
	}
	if outputFormat == constants.OutputFormatCSV {
		return writeCSV(w, doc)
	}
	return writePretty(w, doc)
}

// JSON writes v as indented JSON.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writePretty outputs a human-readable rather than machine-readable table.
func writePretty(w io.Writer, doc document) error {
	var b strings.Builder
	for i, s := range doc.sections {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "--- %s ---\n", s.title)
		width := 0
		for _, r := range s.rows {
			width = max(width, len(r.label))
		}
		for _, r := range s.rows {
			fmt.Fprintf(&b, "%-*s | %s\n", width, r.label, r.value.display)
		}
	}

	for _, t := range doc.tables {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "--- %s ---\n", t.title)
		widths := make([]int, len(t.header))
		for j, h := range t.header {
			widths[j] = len(h)
		}
		for _, r := range t.rows {
			for j, c := range r {
				widths[j] = max(widths[j], len([]rune(c.display)))
			}
		}
		writeLine := func(values []string) {
			padded := make([]string, len(values))
			for j, v := range values {
				padded[j] = v + strings.Repeat(" ", widths[j]-len([]rune(v)))
			}
			b.WriteString(strings.TrimRight(strings.Join(padded, " | "), " ") + "\n")
		}
		writeLine(t.header)
		rule := make([]string, len(t.header))
		for j := range t.header {
			rule[j] = strings.Repeat("_", widths[j])
		}
		writeLine(rule)
		for _, r := range t.rows {
			values := make([]string, len(r))
			for j, c := range r {
				values[j] = c.display
			}
			writeLine(values)
		}
	}

	if len(doc.notes) > 0 {
		b.WriteString("\n")
		for _, n := range doc.notes {
			b.WriteString("* " + n + "\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// writeCSV outputs in comma-separated value format. Sections are written as
// section,label,value lines; each table follows with its own header.
func writeCSV(w io.Writer, doc document) error {
	cw := csv.NewWriter(w)
	if len(doc.sections) > 0 {
		if err := cw.Write([]string{"section", "label", "value"}); err != nil {
			return err
		}
	}
	for _, s := range doc.sections {
		for _, r := range s.rows {
			if err := cw.Write([]string{s.title, r.label, r.value.raw}); err != nil {
				return err
			}
		}
	}
	for _, n := range doc.notes {
		if err := cw.Write([]string{"Notes", "", n}); err != nil {
			return err
		}
	}

	for i, t := range doc.tables {
		if i > 0 || len(doc.sections) > 0 {
			if err := cw.Write(nil); err != nil {
				return err
			}
		}
		if err := cw.Write(t.header); err != nil {
			return err
		}
		for _, r := range t.rows {
			values := make([]string, len(r))
			for j, c := range r {
				values[j] = c.raw
			}
			if err := cw.Write(values); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
