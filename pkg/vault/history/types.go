// Package history keeps a log of export, import and delete operations as
// one JSON file per operation.
package history

import "time"

// Operation is the kind of recorded operation.
type Operation string

const (
	// OpExport records an export.
	OpExport Operation = "export"
	// OpImport records an import.
	OpImport Operation = "import"
	// OpDelete records a package deletion.
	OpDelete Operation = "delete"
)

// Entry is one recorded operation.
type Entry struct {
	ID                 string       `json:"id"`
	Timestamp          time.Time    `json:"timestamp"`
	Operation          Operation    `json:"operation"`
	Package            string       `json:"package,omitempty"`
	Category           string       `json:"category,omitempty"`
	Version            string       `json:"version,omitempty"`
	RelativeExportPath string       `json:"relative_export_path,omitempty"`
	Source             string       `json:"source,omitempty"`
	Target             string       `json:"target,omitempty"`
	Success            bool         `json:"success"`
	Message            string       `json:"message,omitempty"`
	Files              []FileRecord `json:"files,omitempty"`
	Summary            Summary      `json:"summary"`
}

// FileRecord is a file written or removed by an operation.
type FileRecord struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Summary totals the files of an entry.
type Summary struct {
	TotalFiles int64 `json:"total_files"`
	TotalBytes int64 `json:"total_bytes"`
	Skipped    int64 `json:"skipped,omitempty"`
	Failed     int64 `json:"failed,omitempty"`
}
