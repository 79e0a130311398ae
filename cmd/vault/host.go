package main

import (
	"context"

	"github.com/jamesainslie/vault/pkg/vault/fsutil"
	"github.com/jamesainslie/vault/pkg/vault/layout"
	"github.com/jamesainslie/vault/pkg/vault/logging"
	"github.com/jamesainslie/vault/pkg/vault/manager"
	"github.com/jamesainslie/vault/pkg/vault/registry"
	"github.com/jamesainslie/vault/pkg/vault/types"
)

// localHost is a project laid out on disk. Imported items are registered
// in the dependency index so they can be exported again.
type localHost struct {
	contentRoot string
	mount       types.Mount
	fileSet     types.FileSet
	store       *registry.Store
}

var _ manager.Host = (*localHost)(nil)

func (h *localHost) ProjectContentRoot() string {
	return h.contentRoot
}

func (h *localHost) NotifyReplaced(path string) {
	logging.Get("manager").Info("replacing project item", "path", path)
	printVerbose("Replacing %s", path)
}

// RescanPaths registers every primary payload below paths as an index node.
// Existing dependency records are left alone.
func (h *localHost) RescanPaths(paths []string) {
	log := logging.Get("registry")
	if h.store == nil {
		return
	}

	var ids []types.PackageID
	for _, dir := range paths {
		files, _, err := fsutil.FindFiles(context.Background(), dir, h.fileSet.IsPrimary)
		if err != nil {
			log.Warn("failed to rescan directory", "path", dir, "error", err)
			continue
		}
		for _, f := range files {
			if id, ok := layout.PackageIDFor(h.contentRoot, h.mount, f); ok {
				ids = append(ids, id)
			}
		}
	}

	if len(ids) == 0 {
		return
	}
	if err := h.store.RegisterNodes(ids); err != nil {
		log.Warn("failed to register imported items", "count", len(ids), "error", err)
		return
	}
	log.Debug("registered imported items", "count", len(ids))
}
