package main

import (
	"fmt"
	"os"

	"github.com/jamesainslie/vault/pkg/vault/config"
	"github.com/jamesainslie/vault/pkg/vault/history"
	"github.com/jamesainslie/vault/pkg/vault/manager"
	"github.com/jamesainslie/vault/pkg/vault/notify"
	"github.com/jamesainslie/vault/pkg/vault/registry"
	"github.com/jamesainslie/vault/pkg/vault/resolver"
	"github.com/jamesainslie/vault/pkg/vault/trash"
	"github.com/jamesainslie/vault/pkg/vault/types"
)

// session bundles what a command needs to run manager operations.
type session struct {
	cfg     *config.Config
	store   *registry.Store
	host    *localHost
	manager *manager.Manager
}

// sessionOptions adjusts how a session is opened.
type sessionOptions struct {
	// noIndex skips opening the dependency index.
	noIndex bool

	// permanent deletes packages instead of moving them to the trash.
	permanent bool

	// notifier receives operation results instead of the console.
	notifier manager.Notifier
}

// openSession loads the configuration, opens the dependency index and builds
// a manager wired to the local project.
func openSession(opts sessionOptions) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg}
	if !opts.noIndex {
		if s.store, err = registry.Open(cfg.Registry.Path); err != nil {
			return nil, fmt.Errorf("failed to open dependency index: %w", err)
		}
	}

	mount := types.Mount(cfg.Mount)
	s.host = &localHost{
		contentRoot: cfg.ContentRoot,
		mount:       mount,
		fileSet:     cfg.FileSet(),
		store:       s.store,
	}

	notifier := opts.notifier
	switch {
	case notifier != nil:
	case getQuiet():
		notifier = &notify.Memory{}
	default:
		notifier = notify.NewConsole(os.Stdout)
	}

	permanent := opts.permanent || cfg.Trash.Permanent
	mopts := []manager.Option{
		manager.WithRemover(func(path string) error {
			return trash.Remove(path, permanent)
		}),
	}
	if cfg.History.Enabled {
		h, err := history.New(cfg.History.Path)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to initialize history: %w", err)
		}
		mopts = append(mopts, manager.WithRecorder(h))
	}

	mcfg := manager.Config{
		Mount:         mount,
		FileSet:       cfg.FileSet(),
		EngineVersion: cfg.EngineVersion,
	}
	s.manager = manager.New(mcfg, s.index(), s.host, notifier, mopts...)
	return s, nil
}

// index returns the dependency index, or an empty graph when the session
// was opened without one.
func (s *session) index() resolver.Registry {
	if s.store == nil {
		return resolver.NewGraph()
	}
	return s.store
}

// Close releases the dependency index.
func (s *session) Close() {
	if s.store != nil {
		_ = s.store.Close()
	}
}
