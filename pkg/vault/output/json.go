package output

import (
	"bytes"
	"encoding/json"
)

// document is the structured form written by the json and yaml formatters.
type document struct {
	Packages []Package `json:"packages" yaml:"packages"`
	Meta     meta      `json:"meta" yaml:"meta"`
}

type meta struct {
	Source        string   `json:"source" yaml:"source"`
	Category      string   `json:"category" yaml:"category"`
	TotalPackages int      `json:"total_packages" yaml:"total_packages"`
	TotalSize     int64    `json:"total_size" yaml:"total_size"`
	Warnings      []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Watching      bool     `json:"watching" yaml:"watching"`
}

// newDocument converts r. Packages is never nil so empty listings encode as
// an empty list.
func newDocument(r *Result) document {
	packages := r.Packages
	if packages == nil {
		packages = []Package{}
	}
	return document{
		Packages: packages,
		Meta: meta{
			Source:        r.Source,
			Category:      r.Category,
			TotalPackages: len(r.Packages),
			TotalSize:     r.TotalSize(),
			Warnings:      r.Warnings,
			Watching:      r.Watching,
		},
	}
}

// JSONFormatter writes the listing as one indented JSON document.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(newDocument(r))
}

// JSONLFormatter writes one compact JSON object per package for streaming
// through tools like jq.
type JSONLFormatter struct{}

func (f *JSONLFormatter) Format(w *bytes.Buffer, r *Result) error {
	enc := json.NewEncoder(w)
	for _, p := range r.Packages {
		if err := enc.Encode(p); err != nil {
			return err
		}
	}
	return nil
}
