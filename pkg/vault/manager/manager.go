// Package manager orchestrates exporting project items into a package
// storage root and importing packages back into a project.
package manager

import (
	"errors"
	"os"
	"time"

	"github.com/jamesainslie/vault/pkg/vault/history"
	"github.com/jamesainslie/vault/pkg/vault/logging"
	"github.com/jamesainslie/vault/pkg/vault/resolver"
	"github.com/jamesainslie/vault/pkg/vault/transfer"
	"github.com/jamesainslie/vault/pkg/vault/trash"
	"github.com/jamesainslie/vault/pkg/vault/types"
)

var logger = logging.Get("manager")

var (
	// ErrNoFilesCopied is returned by Import when nothing was copied.
	ErrNoFilesCopied = errors.New("no files copied")

	// ErrInvalidOptions is returned for unusable export options or inputs.
	ErrInvalidOptions = errors.New("invalid options")

	// ErrSourceNotFound is returned when a package folder does not exist.
	ErrSourceNotFound = errors.New("source folder not found")

	// ErrItemNotFound is returned by Export when a requested item has no
	// payload inside the project mount.
	ErrItemNotFound = errors.New("item not found")
)

// Host is the project the manager exports from and imports into.
type Host interface {
	// ProjectContentRoot returns the directory that holds project payloads.
	ProjectContentRoot() string

	// NotifyReplaced is called before an existing project item is overwritten.
	NotifyReplaced(path string)

	// RescanPaths asks the host to re-index directories that received files.
	RescanPaths(paths []string)
}

// Notifier receives user-facing results. Delivery is best effort.
type Notifier interface {
	Notify(message string, success bool)
}

// Recorder persists a record of each operation.
type Recorder interface {
	Log(entry *history.Entry) error
}

// Config holds the settings shared by every operation.
type Config struct {
	// Mount is the project namespace mapped onto the content root.
	Mount types.Mount

	// FileSet is the payload naming convention.
	FileSet types.FileSet

	// EngineVersion is recorded when export options carry none.
	EngineVersion string
}

// Manager runs export, import and catalog operations. It keeps no state
// between calls.
type Manager struct {
	cfg      Config
	registry resolver.Registry
	host     Host
	notifier Notifier
	engine   *transfer.Engine
	recorder Recorder
	remove   trash.Remover
	now      func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithEngine sets the transfer engine.
func WithEngine(e *transfer.Engine) Option {
	return func(m *Manager) {
		m.engine = e
	}
}

// WithRecorder records every operation to r.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) {
		m.recorder = r
	}
}

// WithRemover sets how Delete removes a package directory.
func WithRemover(fn trash.Remover) Option {
	return func(m *Manager) {
		m.remove = fn
	}
}

// WithClock sets the time source used for descriptor names.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// New returns a Manager. Empty config fields take their defaults.
func New(cfg Config, registry resolver.Registry, host Host, notifier Notifier, opts ...Option) *Manager {
	if cfg.Mount == "" {
		cfg.Mount = types.DefaultMount
	}
	if cfg.FileSet.Primary == "" {
		cfg.FileSet = types.DefaultFileSet()
	}

	m := &Manager{
		cfg:      cfg,
		registry: registry,
		host:     host,
		notifier: notifier,
		engine:   transfer.NewEngine(),
		remove: func(path string) error {
			return trash.Remove(path, true)
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) notify(message string, success bool) {
	if m.notifier != nil {
		m.notifier.Notify(message, success)
	}
}

func (m *Manager) record(entry *history.Entry) {
	if m.recorder == nil {
		return
	}
	if err := m.recorder.Log(entry); err != nil {
		logger.Warn("failed to record history", "operation", entry.Operation, "error", err)
	}
}

// fileRecords stats each path for the history log. Files that vanished are
// recorded with size zero.
func fileRecords(paths []string) []history.FileRecord {
	records := make([]history.FileRecord, 0, len(paths))
	for _, p := range paths {
		var size int64
		if info, err := os.Stat(p); err == nil {
			size = info.Size()
		}
		records = append(records, history.FileRecord{Path: p, Size: size})
	}
	return records
}
