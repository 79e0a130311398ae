package output

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/dustin/go-humanize"
)

// DefaultTemplate prints the name, version and relative export path of each
// package, tab separated.
const DefaultTemplate = "{{range .Packages}}{{.Name}}\t{{.Version}}\t{{.RelativeExportPath}}\n{{end}}"

// TemplateFormatter renders a Result through a user supplied text/template.
// The template sees the Result itself, so {{.TotalSize}} and {{.Packages}}
// are available alongside the helpers below:
//
//	bytes  int64 -> "1.5 MiB"
//	join   []string, sep -> string
//	pad    string, width -> right padded string
//	quote  string -> Go quoted string
type TemplateFormatter struct {
	text string

	once sync.Once
	tmpl *template.Template
	err  error
}

// NewTemplateFormatter returns a formatter for text. Parse errors surface on
// the first Format call.
func NewTemplateFormatter(text string) *TemplateFormatter {
	return &TemplateFormatter{text: text}
}

var templateFuncs = template.FuncMap{
	"bytes": func(size int64) string { return humanize.IBytes(uint64(max(size, 0))) },
	"join":  strings.Join,
	"pad":   padRight,
	"quote": func(s string) string { return fmt.Sprintf("%q", s) },
}

// Format executes the template against r.
func (f *TemplateFormatter) Format(w *bytes.Buffer, r *Result) error {
	f.once.Do(func() {
		f.tmpl, f.err = template.New("catalog").Funcs(templateFuncs).Parse(f.text)
	})
	if f.err != nil {
		return fmt.Errorf("invalid template: %w", f.err)
	}
	return f.tmpl.Execute(w, r)
}
