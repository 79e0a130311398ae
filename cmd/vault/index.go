package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/vault/pkg/vault/layout"
	"github.com/jamesainslie/vault/pkg/vault/resolver"
	"github.com/jamesainslie/vault/pkg/vault/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the dependency index",
	Long: `Manage the index of hard dependencies between project items.

Exports copy every item reachable from the exported items through hard
dependencies. The index is loaded from a YAML document mapping each
package id to the ids it hard-depends on:

  /Game/Chars/Hero:
    - /Game/Materials/M_Skin
  /Game/Materials/M_Skin:
    - /Game/Textures/T_Skin`,
}

var indexLoadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Replace the index with a YAML dependency map",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexLoad,
}

var indexAddCmd = &cobra.Command{
	Use:   "add <item> [dependency...]",
	Short: "Add an item and its hard dependencies",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIndexAdd,
}

var indexShowCmd = &cobra.Command{
	Use:   "show <item>",
	Short: "Show the direct dependencies and dependents of an item",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexShow,
}

var indexDepsCmd = &cobra.Command{
	Use:   "deps <item>",
	Short: "List everything an export of the item would include",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexDeps,
}

var indexListCmd = &cobra.Command{
	Use:   "list [prefix]",
	Short: "List indexed items",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndexList,
}

var indexScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Register every item found in the content root",
	Long: `Walk the project content root and add each primary payload file to
the index as an item. Items already in the index keep their dependencies.`,
	Args: cobra.NoArgs,
	RunE: runIndexScan,
}

var indexClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every item from the index",
	Args:  cobra.NoArgs,
	RunE:  runIndexClear,
}

func init() {
	indexCmd.AddCommand(indexLoadCmd)
	indexCmd.AddCommand(indexAddCmd)
	indexCmd.AddCommand(indexShowCmd)
	indexCmd.AddCommand(indexDepsCmd)
	indexCmd.AddCommand(indexListCmd)
	indexCmd.AddCommand(indexScanCmd)
	indexCmd.AddCommand(indexClearCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexLoad(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open dependency map: %w", err)
	}
	defer f.Close()

	s, err := openSession(sessionOptions{})
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := s.store.LoadYAML(f)
	if err != nil {
		return err
	}
	printInfo("Loaded %d items into the dependency index.", n)
	return nil
}

func runIndexAdd(cmd *cobra.Command, args []string) error {
	s, err := openSession(sessionOptions{})
	if err != nil {
		return err
	}
	defer s.Close()

	id := types.PackageID(args[0])
	deps := make([]types.PackageID, 0, len(args)-1)
	for _, a := range args[1:] {
		deps = append(deps, types.PackageID(a))
	}

	if err := s.store.AddDependencies(id, deps...); err != nil {
		return fmt.Errorf("failed to update %s: %w", id, err)
	}
	if err := s.store.RegisterNodes(deps); err != nil {
		return fmt.Errorf("failed to register dependencies: %w", err)
	}
	printInfo("%s: %d dependencies added", id, len(deps))
	return nil
}

func runIndexShow(cmd *cobra.Command, args []string) error {
	s, err := openSession(sessionOptions{})
	if err != nil {
		return err
	}
	defer s.Close()

	id := types.PackageID(args[0])
	deps, err := s.store.Get(id)
	if err != nil {
		return fmt.Errorf("failed to look up %s: %w", id, err)
	}
	dependents, err := s.store.Dependents(id)
	if err != nil {
		return fmt.Errorf("failed to find dependents of %s: %w", id, err)
	}

	fmt.Printf("\n%s\n", id)
	fmt.Println(strings.Repeat("=", 60))
	printIDList("Depends on", deps)
	printIDList("Used by", dependents)
	return nil
}

func printIDList(title string, ids []types.PackageID) {
	fmt.Printf("\n%s (%d):\n", title, len(ids))
	for _, id := range ids {
		fmt.Printf("  %s\n", id)
	}
}

func runIndexDeps(cmd *cobra.Command, args []string) error {
	s, err := openSession(sessionOptions{})
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := interruptContext()
	defer cancel()

	set, err := resolver.Resolve(ctx, s.store, types.PackageID(args[0]))
	if err != nil {
		return err
	}

	fileSet := s.cfg.FileSet()
	mount := types.Mount(s.cfg.Mount)

	fmt.Printf("\n%-8s  %s\n", "PAYLOAD", "ITEM")
	fmt.Println(strings.Repeat("-", 60))
	missing := 0
	for _, id := range set.Sorted() {
		status := "missing"
		if p, ok := layout.PayloadPath(s.cfg.ContentRoot, mount, id, fileSet.Primary); !ok {
			status = "outside"
		} else if _, err := os.Stat(p); err == nil {
			status = "ok"
		}
		if status != "ok" {
			missing++
		}
		fmt.Printf("%-8s  %s\n", status, id)
	}
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("%d items, %d without a payload in %s\n", len(set), missing, s.cfg.ContentRoot)
	return nil
}

func runIndexList(cmd *cobra.Command, args []string) error {
	s, err := openSession(sessionOptions{})
	if err != nil {
		return err
	}
	defer s.Close()

	prefix := ""
	if len(args) == 1 {
		prefix = args[0]
	}
	ids, err := s.store.List(prefix)
	if err != nil {
		return fmt.Errorf("failed to list index: %w", err)
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	if !s.store.IsIndexReady() {
		printError("the index is incomplete; reload it with 'vault index load'")
	}
	return nil
}

func runIndexScan(cmd *cobra.Command, args []string) error {
	s, err := openSession(sessionOptions{})
	if err != nil {
		return err
	}
	defer s.Close()

	before, err := s.store.List("")
	if err != nil {
		return fmt.Errorf("failed to list index: %w", err)
	}

	s.host.RescanPaths([]string{s.cfg.ContentRoot})

	after, err := s.store.List("")
	if err != nil {
		return fmt.Errorf("failed to list index: %w", err)
	}
	printInfo("Registered %d new items from %s (%d total).", len(after)-len(before), s.cfg.ContentRoot, len(after))
	return nil
}

func runIndexClear(cmd *cobra.Command, args []string) error {
	s, err := openSession(sessionOptions{})
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}
	printInfo("Dependency index cleared.")
	return nil
}
