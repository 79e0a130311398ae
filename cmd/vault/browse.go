package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/vault/cmd/vault/tui"
	"github.com/jamesainslie/vault/pkg/vault/catalog"
	"github.com/jamesainslie/vault/pkg/vault/notify"
	"github.com/jamesainslie/vault/pkg/vault/types"
	"github.com/jamesainslie/vault/pkg/vault/watcher"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse, import and delete packages interactively",
	Long: `Open an interactive browser over the packages in the storage root.

Packages are grouped by category; Tab cycles through the categories.
Imports go to the target subfolder, which can be changed with 't'.
The listing refreshes when packages change on disk.`,
	Args: cobra.NoArgs,
	RunE: runBrowse,
}

var (
	browseCategory string
	browseInto     string
	browseNoWatch  bool
)

func init() {
	browseCmd.Flags().StringVar(&browseCategory, "category", types.CategoryAll.String(), "initial category filter")
	browseCmd.Flags().StringVarP(&browseInto, "into", "i", "", "initial import subfolder of the content root")
	browseCmd.Flags().BoolVar(&browseNoWatch, "no-watch", false, "do not refresh when packages change on disk")

	rootCmd.AddCommand(browseCmd)
}

// browseBackend runs browser operations through a session manager.
type browseBackend struct {
	s        *session
	messages *notify.Memory
}

var _ tui.Backend = (*browseBackend)(nil)

func (b *browseBackend) Scan(ctx context.Context) ([]catalog.Record, []catalog.ScanError, error) {
	return b.s.manager.ScanCatalog(ctx, b.s.cfg.StorageRoot)
}

func (b *browseBackend) CheckImport(ctx context.Context, relativePath, subfolder string) ([]string, error) {
	_, names, err := b.s.manager.CheckImportConflict(ctx, b.s.cfg.StorageRoot, relativePath, subfolder)
	return names, err
}

func (b *browseBackend) Import(ctx context.Context, relativePath, subfolder string, force bool) (string, error) {
	_, err := b.s.manager.Import(ctx, b.s.cfg.StorageRoot, relativePath, subfolder, force)
	msg, _ := b.messages.Last()
	return msg.Text, err
}

func (b *browseBackend) Delete(packageRoot string) error {
	return b.s.manager.Delete(packageRoot)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	category, err := types.ParseCategoryStrict(browseCategory)
	if err != nil {
		return fmt.Errorf("invalid category %q: %w", browseCategory, err)
	}

	messages := &notify.Memory{}
	s, err := openSession(sessionOptions{notifier: messages})
	if err != nil {
		return err
	}
	defer s.Close()

	opts := tui.Options{
		Root:      s.cfg.StorageRoot,
		Category:  category,
		Subfolder: browseInto,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !browseNoWatch {
		changes, stop, err := startWatcher(ctx, s.cfg.StorageRoot)
		if err != nil {
			printVerbose("Live refresh disabled: %v", err)
		} else {
			defer stop()
			opts.Changes = changes
		}
	}

	model := tui.NewModel(&browseBackend{s: s, messages: messages}, opts)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("browser failed: %w", err)
	}
	return nil
}

// startWatcher watches root and forwards change batches on the returned
// channel until stop is called or ctx ends.
func startWatcher(ctx context.Context, root string) (<-chan []string, func(), error) {
	w, err := watcher.New()
	if err != nil {
		return nil, nil, err
	}
	if err := w.Watch(root); err != nil {
		_ = w.Close()
		return nil, nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	changes := make(chan []string, 1)
	go w.Run(ctx, func(paths []string) {
		select {
		case changes <- paths:
		default:
			// A reload is already pending.
		}
	})

	stop := func() {
		cancel()
		_ = w.Close()
	}
	return changes, stop, nil
}
