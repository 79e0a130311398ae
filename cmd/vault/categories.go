package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/vault/pkg/vault/catalog"
	"github.com/jamesainslie/vault/pkg/vault/output"
	"github.com/jamesainslie/vault/pkg/vault/types"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List package categories",
	Long: `List the categories a package can be exported under, with the
number of packages of each category in the storage root.`,
	Args: cobra.NoArgs,
	RunE: runCategories,
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}

func runCategories(cmd *cobra.Command, args []string) error {
	s, err := openSession(sessionOptions{noIndex: true})
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := interruptContext()
	defer cancel()

	records, _, err := s.manager.ScanCatalog(ctx, s.cfg.StorageRoot)
	if err != nil {
		return fmt.Errorf("failed to scan catalog: %w", err)
	}
	counts := catalog.Counts(records)

	fmt.Printf("\n%-12s  %-14s  %s\n", "NAME", "DISPLAY", "PACKAGES")
	fmt.Println(strings.Repeat("-", 40))
	for _, c := range types.AllCategories() {
		if !c.Storable() {
			continue
		}
		display := output.CategoryStyle(c.DisplayName()).Render(fmt.Sprintf("%-14s", c.DisplayName()))
		fmt.Printf("%-12s  %s  %d\n", c.String(), display, counts[c])
	}
	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("%-12s  %-14s  %d\n\n", "", "Total", len(records))
	return nil
}
