package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/vault/pkg/vault/conflict"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether an export or import would overwrite anything",
	Long: `Report existing files that an export or import would replace.

Both subcommands exit with status 0 whether or not a conflict exists;
the answer is printed. Use --quiet to print only "conflict" or "clear".`,
}

var checkExportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Check whether a package folder already holds items",
	Example: `  vault check export --name Hero --category StaticMesh --version 1.0`,
	Args:    cobra.NoArgs,
	RunE:    runCheckExport,
}

var checkImportCmd = &cobra.Command{
	Use:     "import <package>",
	Short:   "List package items that already exist in the project",
	Example: `  vault check import StaticMesh/Hero/1.0 --into Characters`,
	Args:    cobra.ExactArgs(1),
	RunE:    runCheckImport,
}

var (
	checkExportFlags exportOptionFlags
	checkInto        string
)

func init() {
	addExportOptionFlags(checkExportCmd, &checkExportFlags)
	checkImportCmd.Flags().StringVarP(&checkInto, "into", "i", "", "subfolder of the content root to import into")

	checkCmd.AddCommand(checkExportCmd)
	checkCmd.AddCommand(checkImportCmd)
	rootCmd.AddCommand(checkCmd)
}

func runCheckExport(cmd *cobra.Command, args []string) error {
	opts, err := checkExportFlags.options()
	if err != nil {
		return err
	}

	s, err := openSession(sessionOptions{noIndex: true})
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := interruptContext()
	defer cancel()

	exists, target, err := s.manager.CheckExportConflict(ctx, s.cfg.StorageRoot, opts)
	if err != nil {
		return err
	}
	printCheckResult(exists)
	if exists {
		printInfo("%s already holds an exported package and would be replaced.", target)
	} else {
		printInfo("%s is free.", target)
	}
	return nil
}

func runCheckImport(cmd *cobra.Command, args []string) error {
	s, err := openSession(sessionOptions{noIndex: true})
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

	exists, names, err := s.manager.CheckImportConflict(ctx, s.cfg.StorageRoot, rel, checkInto)
	if errors.Is(err, conflict.ErrCannotDetermine) {
		return fmt.Errorf("cannot check %s: the package or target folder does not exist", rel)
	}
	if err != nil {
		return err
	}

	printCheckResult(exists)
	if !exists {
		printInfo("No items of %s exist in the target folder.", rel)
		return nil
	}
	printInfo("%d items already exist in the target folder:", len(names))
	for _, n := range names {
		printInfo("  %s", n)
	}
	return nil
}

// printCheckResult prints the bare answer in quiet mode.
func printCheckResult(exists bool) {
	if !getQuiet() {
		return
	}
	if exists {
		fmt.Println("conflict")
	} else {
		fmt.Println("clear")
	}
}
