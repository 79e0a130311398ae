package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/vault/pkg/vault/catalog"
	"github.com/jamesainslie/vault/pkg/vault/output"
	"github.com/jamesainslie/vault/pkg/vault/types"
)

var catalogCmd = &cobra.Command{
	Use:     "catalog",
	Aliases: []string{"ls", "list"},
	Short:   "List exported packages",
	Long: `List the packages below the storage root, sorted by name.

Every descriptor file is read on each run. Descriptors that cannot be
parsed are reported as warnings and left out of the listing.

Output formats: pretty, json, jsonl, yaml, tsv, csv, markdown, paths,
template. With --watch the listing is printed again whenever a package
is added, changed or removed.`,
	Example: `  vault catalog
  vault catalog --category Material
  vault catalog -o json
  vault catalog -o template --template '{{range .Packages}}{{.Name}} {{.SizeHuman}}{{"\n"}}{{end}}'
  vault catalog --watch`,
	Args: cobra.NoArgs,
	RunE: runCatalog,
}

var (
	catalogCategory string
	catalogFormat   string
	catalogTemplate string
	catalogWatch    bool
)

func init() {
	catalogCmd.Flags().StringVar(&catalogCategory, "category", types.CategoryAll.String(), "only list packages of this category")
	catalogCmd.Flags().StringVarP(&catalogFormat, "output", "o", "pretty", "output format")
	catalogCmd.Flags().StringVar(&catalogTemplate, "template", "", "Go template for -o template")
	catalogCmd.Flags().BoolVarP(&catalogWatch, "watch", "w", false, "print the listing again when packages change")

	rootCmd.AddCommand(catalogCmd)
}

// catalogFormatter returns the formatter selected by the flags.
func catalogFormatter() (output.Formatter, error) {
	if catalogTemplate != "" {
		return output.NewTemplateFormatter(catalogTemplate), nil
	}
	f, err := output.Get(catalogFormat)
	if err != nil {
		return nil, fmt.Errorf("unknown output format %q: available formats are %v", catalogFormat, output.Available())
	}
	return f, nil
}

func runCatalog(cmd *cobra.Command, args []string) error {
	category, err := types.ParseCategoryStrict(catalogCategory)
	if err != nil {
		return fmt.Errorf("invalid category %q: %w", catalogCategory, err)
	}

	formatter, err := catalogFormatter()
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

	render := func() error {
		records, scanErrs, err := s.manager.ScanCatalog(ctx, s.cfg.StorageRoot)
		if err != nil {
			return fmt.Errorf("failed to scan catalog: %w", err)
		}
		result := output.NewResult(ctx, s.cfg.StorageRoot, category, catalog.FilterAndSort(records, category), scanErrs)
		result.Watching = catalogWatch

		var buf bytes.Buffer
		if err := formatter.Format(&buf, result); err != nil {
			return fmt.Errorf("failed to format catalog: %w", err)
		}
		_, err = os.Stdout.Write(buf.Bytes())
		return err
	}

	if err := render(); err != nil {
		return err
	}
	if !catalogWatch {
		return nil
	}
	return watchCatalog(ctx, s.cfg.StorageRoot, render)
}

// watchCatalog calls render after every batch of changes below root until
// ctx is cancelled.
func watchCatalog(ctx context.Context, root string, render func() error) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("failed to create storage root: %w", err)
	}

	changes, stop, err := startWatcher(ctx, root)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}
	defer stop()
	printVerbose("Watching %s for changes", root)

	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-changes:
			printVerbose("%d changes detected", len(paths))
			if err := render(); err != nil {
				printError("%v", err)
			}
		}
	}
}
