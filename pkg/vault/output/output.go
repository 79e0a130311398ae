// Package output provides formatters for displaying the package catalog
// in various output formats (pretty, json, yaml, tsv, etc.).
//
// The package uses a registry pattern to allow registration of multiple
// formatter implementations that can be selected at runtime.
//
// Basic usage:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, result); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jamesainslie/vault/pkg/vault/catalog"
	"github.com/jamesainslie/vault/pkg/vault/fsutil"
	"github.com/jamesainslie/vault/pkg/vault/logging"
	"github.com/jamesainslie/vault/pkg/vault/types"
)

// logger is the package-level logger for output operations.
var logger = logging.Get("output")

// Package is one catalog entry prepared for display.
type Package struct {
	Name               string   `json:"name" yaml:"name"`
	Category           string   `json:"category" yaml:"category"`
	Version            string   `json:"version" yaml:"version"`
	VersionComment     string   `json:"version_comment,omitempty" yaml:"version_comment,omitempty"`
	EngineVersion      string   `json:"engine_version,omitempty" yaml:"engine_version,omitempty"`
	Description        string   `json:"description,omitempty" yaml:"description,omitempty"`
	CustomFolder       string   `json:"custom_folder,omitempty" yaml:"custom_folder,omitempty"`
	RelativeExportPath string   `json:"relative_export_path" yaml:"relative_export_path"`
	Tags               []string `json:"tags" yaml:"tags"`
	Assets             []string `json:"assets" yaml:"assets"`

	// Path is the package root on disk.
	Path string `json:"path" yaml:"path"`

	// Size is the total size of the package root in bytes.
	Size int64 `json:"size" yaml:"size"`

	// SizeHuman is the human-readable package size (e.g., "1.5 GiB").
	SizeHuman string `json:"size_human" yaml:"size_human"`
}

// Result contains the complete output data for formatting.
type Result struct {
	// Packages is the catalog listing, sorted by name.
	Packages []Package `json:"packages" yaml:"packages"`

	// Source is the storage root that was scanned.
	Source string `json:"source" yaml:"source"`

	// Category is the display name of the category filter.
	Category string `json:"category" yaml:"category"`

	// Warnings lists descriptors that could not be read.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	// Watching indicates the listing refreshes on changes.
	Watching bool `json:"watching" yaml:"watching"`
}

// TotalSize returns the sum of all package sizes in the result.
func (r *Result) TotalSize() int64 {
	var total int64
	for _, p := range r.Packages {
		total += p.Size
	}
	return total
}

// NewResult builds a Result from catalog records, which are expected to be
// filtered and sorted already. Package sizes are measured on disk.
func NewResult(ctx context.Context, source string, category types.Category, records []catalog.Record, scanErrs []catalog.ScanError) *Result {
	r := &Result{
		Packages: make([]Package, 0, len(records)),
		Source:   source,
		Category: category.DisplayName(),
	}

	for _, rec := range records {
		d := rec.Descriptor
		size, err := fsutil.DirSize(ctx, rec.PackageRoot)
		if err != nil {
			logger.Debug("failed to measure package", "path", rec.PackageRoot, "error", err)
		}
		r.Packages = append(r.Packages, Package{
			Name:               d.Name,
			Category:           d.Category.DisplayName(),
			Version:            d.Version,
			VersionComment:     d.VersionComment,
			EngineVersion:      d.EngineVersion,
			Description:        d.Description,
			CustomFolder:       d.CustomFolder,
			RelativeExportPath: d.RelativeExportPath,
			Tags:               nonNil(d.Tags),
			Assets:             nonNil(d.ExportedItemNames),
			Path:               rec.PackageRoot,
			Size:               size,
			SizeHuman:          types.FormatSize(size),
		})
	}

	for _, se := range scanErrs {
		r.Warnings = append(r.Warnings, fmt.Sprintf("%s: %s", se.Path, se.Error))
	}
	return r
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	// It returns an error if formatting fails.
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory to the registry.
// It will replace any existing formatter with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
// It returns an error if the formatter is not found.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// builtin holds the formatters every registry lookup can reach.
var builtin = map[string]FormatterFactory{
	"pretty":   func() Formatter { return &PrettyFormatter{} },
	"json":     func() Formatter { return &JSONFormatter{} },
	"jsonl":    func() Formatter { return &JSONLFormatter{} },
	"yaml":     func() Formatter { return &YAMLFormatter{} },
	"tsv":      func() Formatter { return &TSVFormatter{} },
	"csv":      func() Formatter { return &CSVFormatter{} },
	"markdown": func() Formatter { return &MarkdownFormatter{} },
	"paths":    func() Formatter { return &PathsFormatter{} },
	"template": func() Formatter { return NewTemplateFormatter(DefaultTemplate) },
}

func init() {
	for name, factory := range builtin {
		Register(name, factory)
	}
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
