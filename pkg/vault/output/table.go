package output

import (
	"bytes"
	"encoding/csv"
	"strings"
)

// tableColumns head every delimited listing.
var tableColumns = []string{"NAME", "CATEGORY", "VERSION", "SIZE", "PATH"}

func tableRow(p Package) []string {
	return []string{p.Name, p.Category, p.Version, p.SizeHuman, p.RelativeExportPath}
}

// writeDelimited writes the header and one row per package, passing every
// cell through escape.
func writeDelimited(w *bytes.Buffer, r *Result, open, sep, close string, escape func(string) string) {
	line := func(cells []string) {
		for i, c := range cells {
			cells[i] = escape(c)
		}
		w.WriteString(open + strings.Join(cells, sep) + close + "\n")
	}

	line(append([]string(nil), tableColumns...))
	if open != "" {
		w.WriteString("|" + strings.Repeat(" --- |", len(tableColumns)) + "\n")
	}
	for _, p := range r.Packages {
		line(tableRow(p))
	}
}

// TSVFormatter writes tab separated values. Tabs and newlines inside cells
// become spaces.
type TSVFormatter struct{}

func (f *TSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	writeDelimited(w, r, "", "\t", "", strings.NewReplacer("\t", " ", "\n", " ").Replace)
	return nil
}

// CSVFormatter writes RFC 4180 comma separated values.
type CSVFormatter struct{}

func (f *CSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tableColumns); err != nil {
		return err
	}
	for _, p := range r.Packages {
		if err := cw.Write(tableRow(p)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarkdownFormatter writes a GitHub flavored Markdown table.
type MarkdownFormatter struct{}

func (f *MarkdownFormatter) Format(w *bytes.Buffer, r *Result) error {
	writeDelimited(w, r, "| ", " | ", " |", strings.NewReplacer("|", `\|`).Replace)
	return nil
}
