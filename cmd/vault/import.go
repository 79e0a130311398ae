package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/vault/pkg/vault/conflict"
	"github.com/jamesainslie/vault/pkg/vault/types"
)

var importCmd = &cobra.Command{
	Use:   "import <package>",
	Short: "Import a package into the project",
	Long: `Copy the payload files of a package into the project content folder.

The package is given by its relative export path (as shown by
'vault catalog') or by its name when that is unique.

Files that already exist in the project are left alone unless --force
is given. The import succeeds when at least one file was copied.`,
	Example: `  vault import StaticMesh/Hero/1.0
  vault import Hero --into Characters/Heroes
  vault import Material/Nature/Rock --into Env --force`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var (
	importInto  string
	importForce bool
)

func init() {
	importCmd.Flags().StringVarP(&importInto, "into", "i", "", "subfolder of the content root to import into")
	importCmd.Flags().BoolVarP(&importForce, "force", "f", false, "overwrite items that already exist in the project")

	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	s, err := openSession(sessionOptions{})
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := interruptContext()
	defer cancel()

	rel, err := resolvePackage(ctx, s, args[0])
	if err != nil {
		return err
	}

	if !importForce {
		exists, names, err := s.manager.CheckImportConflict(ctx, s.cfg.StorageRoot, rel, importInto)
		switch {
		case errors.Is(err, conflict.ErrCannotDetermine):
			printVerbose("Could not check for existing items: %v", err)
		case err != nil:
			printVerbose("Conflict check failed: %v", err)
		case exists:
			printInfo("%d items already exist and will be skipped (use --force to overwrite):", len(names))
			for _, n := range names {
				printInfo("  %s", n)
			}
		}
	}

	report, err := s.manager.Import(ctx, s.cfg.StorageRoot, rel, importInto, importForce)
	if report != nil {
		for _, f := range report.Failures {
			printError("failed to copy %s: %v", filepath.Base(f.Source), f.Err)
		}
		printVerbose("Copied %d, skipped %d, replaced %d (%s)",
			len(report.Copied), len(report.Skipped), len(report.Replaced), types.FormatSize(report.Bytes))
	}
	if err != nil {
		return fmt.Errorf("import of %s failed: %w", rel, err)
	}
	return nil
}
