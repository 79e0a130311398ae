package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenk/backoff"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/vault/pkg/vault/logging"
	"github.com/jamesainslie/vault/pkg/vault/manager"
	"github.com/jamesainslie/vault/pkg/vault/registry"
	"github.com/jamesainslie/vault/pkg/vault/resolver"
	"github.com/jamesainslie/vault/pkg/vault/types"
)

var exportCmd = &cobra.Command{
	Use:   "export <item> [item...]",
	Short: "Export project items into a package",
	Long: `Export one or more project items, and every item they hard-depend on,
into a package under the storage root. The package folder is

  <root>/<category>/[<custom-folder>/]<name>/[<version>/]

and holds the copied payload files plus a JSON descriptor.

Items are package ids below the project mount, e.g. /Game/Chars/Hero.
With several items, ones that cannot be resolved are skipped.

Exporting over an existing package replaces it. Use --force to do so
without the conflict check failing the command.`,
	Example: `  vault export /Game/Chars/Hero --name Hero --category StaticMesh
  vault export /Game/Props/Crate /Game/Props/Barrel --name Props --category StaticMesh --version 2.0
  vault export /Game/Mat/M_Rock --name Rock --category Material --custom-folder Nature/Stone --tag rock --tag nature`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExport,
}

// exportOptionFlags holds the descriptor metadata given on the command line.
type exportOptionFlags struct {
	name           string
	category       string
	customFolder   string
	version        string
	versionComment string
	description    string
	engineVersion  string
	tags           []string
}

var (
	exportFlags     exportOptionFlags
	exportForce     bool
	exportWaitIndex time.Duration
)

func init() {
	addExportOptionFlags(exportCmd, &exportFlags)
	exportCmd.Flags().BoolVarP(&exportForce, "force", "f", false, "replace an existing package without failing")
	exportCmd.Flags().DurationVar(&exportWaitIndex, "wait-index", 0, "wait up to this long for the dependency index to become ready")

	rootCmd.AddCommand(exportCmd)
}

// addExportOptionFlags registers the package metadata flags on cmd.
func addExportOptionFlags(cmd *cobra.Command, o *exportOptionFlags) {
	f := cmd.Flags()
	f.StringVar(&o.name, "name", "", "package name (required)")
	f.StringVar(&o.category, "category", "", "package category (required, see 'vault categories')")
	f.StringVar(&o.customFolder, "custom-folder", "", "optional folder between category and name, may contain '/'")
	f.StringVar(&o.version, "version", "", "package version folder")
	f.StringVar(&o.versionComment, "version-comment", "", "note stored with the version")
	f.StringVar(&o.description, "description", "", "package description")
	f.StringVar(&o.engineVersion, "engine-version", "", "engine version recorded in the descriptor (default from config)")
	f.StringArrayVarP(&o.tags, "tag", "t", nil, "tag (can be specified multiple times)")

	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("category")
}

// options builds export options from the flags.
func (o *exportOptionFlags) options() (types.ExportOptions, error) {
	category, err := types.ParseCategoryStrict(o.category)
	if err != nil {
		return types.ExportOptions{}, fmt.Errorf("invalid category %q: %w", o.category, err)
	}
	if !category.Storable() {
		return types.ExportOptions{}, fmt.Errorf("category %q cannot be exported", category)
	}

	return types.ExportOptions{
		Name:           o.name,
		Category:       category,
		Description:    o.description,
		EngineVersion:  o.engineVersion,
		Version:        o.version,
		VersionComment: o.versionComment,
		CustomFolder:   o.customFolder,
		Tags:           o.tags,
	}, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	opts, err := exportFlags.options()
	if err != nil {
		return err
	}

	ctx, cancel := interruptContext()
	defer cancel()

	if exportWaitIndex > 0 {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := waitForIndex(ctx, indexReadyAt(cfg.Registry.Path), exportWaitIndex); err != nil {
			return err
		}
	}

	s, err := openSession(sessionOptions{})
	if err != nil {
		return err
	}
	defer s.Close()

	exists, target, err := s.manager.CheckExportConflict(ctx, s.cfg.StorageRoot, opts)
	if err != nil {
		return err
	}
	if exists {
		if !exportForce {
			return fmt.Errorf("a package already exists at %s (use --force to replace it)", target)
		}
		printVerbose("Replacing existing package at %s", target)
	}

	items := make([]types.PackageID, len(args))
	for i, a := range args {
		items[i] = types.PackageID(a)
	}

	start := time.Now()
	if len(items) == 1 {
		report, err := s.manager.Export(ctx, items[0], s.cfg.StorageRoot, opts)
		if err != nil {
			return err
		}
		printExportReport(report, time.Since(start))
		return nil
	}

	report, err := s.manager.ExportMany(ctx, items, s.cfg.StorageRoot, opts)
	if err != nil {
		return err
	}
	printExportReport(report, time.Since(start))
	return nil
}

// readyFunc reports whether the dependency index is ready. An error means
// the state could not be read this time and is retried.
type readyFunc func() (bool, error)

// indexReadyAt checks the index at path without keeping it open, so a
// loader in another process can take it between checks.
func indexReadyAt(path string) readyFunc {
	return func() (bool, error) {
		return registry.ReadyAt(path)
	}
}

// waitForIndex polls the dependency index until it is ready or wait elapses.
// A zero wait checks once.
func waitForIndex(ctx context.Context, ready readyFunc, wait time.Duration) error {
	check := func() error {
		ok, err := ready()
		if err != nil {
			return fmt.Errorf("%w: %w", resolver.ErrIndexNotReady, err)
		}
		if !ok {
			return resolver.ErrIndexNotReady
		}
		return nil
	}

	err := check()
	if err == nil || wait <= 0 {
		return err
	}

	printInfo("Waiting for the dependency index...")

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = wait
	b.Reset()

	err = backoff.Retry(func() error {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		err := check()
		if err != nil {
			logging.Get("export").Debug("dependency index not ready", "error", err)
		}
		return err
	}, backoff.WithContext(b, ctx))
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, resolver.ErrIndexNotReady) {
		return fmt.Errorf("%w: %w", resolver.ErrIndexNotReady, err)
	}
	return err
}

// printExportReport prints the details behind the export notification.
func printExportReport(r *manager.ExportReport, elapsed time.Duration) {
	printVerbose("Resolved %d items in %s", len(r.Resolved), elapsed.Round(time.Millisecond))
	for _, id := range r.Resolved {
		printVerbose("  %s", id)
	}
	for _, skip := range r.Skipped {
		printInfo("  skipped %s: %s", skip.ID, skip.Reason)
	}
	if r.Transfer != nil {
		for _, f := range r.Transfer.Failures {
			printError("failed to copy %s: %v", f.Source, f.Err)
		}
		printInfo("  %d files, %s", len(r.Transfer.Copied), types.FormatSize(r.Transfer.Bytes))
	}
	printInfo("  descriptor: %s", r.SidecarPath)
}
