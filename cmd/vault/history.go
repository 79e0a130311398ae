package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/vault/pkg/vault/config"
	"github.com/jamesainslie/vault/pkg/vault/history"
	"github.com/jamesainslie/vault/pkg/vault/output"
	"github.com/jamesainslie/vault/pkg/vault/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded export, import and delete operations",
	Long: `List recorded export, import and delete operations, newest first.

Each operation is kept as a JSON file in the history directory together with
the files it wrote or removed.`,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one operation and its files",
	Long:  `Show one operation and its files. A unique ID prefix is enough.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove entries older than history.retention_days",
	RunE:  runHistoryClean,
}

var (
	historyLimit     int
	historyOperation string
	historyFailed    bool
)

// historyFileLimit caps the file list printed by history show.
const historyFileLimit = 50

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of entries to show (0 for all)")
	historyCmd.Flags().StringVar(&historyOperation, "operation", "", "only show export, import or delete operations")
	historyCmd.Flags().BoolVar(&historyFailed, "failed", false, "only show failed operations")

	historyCmd.AddCommand(historyShowCmd, historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// openHistory returns the history store for the loaded configuration.
func openHistory() (*history.History, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	h, err := history.New(cfg.History.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize history: %w", err)
	}
	return h, cfg, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	op := history.Operation(strings.ToLower(historyOperation))
	if op != "" && !slices.Contains([]history.Operation{history.OpExport, history.OpImport, history.OpDelete}, op) {
		return fmt.Errorf("unknown operation %q: use export, import or delete", historyOperation)
	}

	h, _, err := openHistory()
	if err != nil {
		return err
	}

	// Filters apply before the limit.
	entries, err := h.List(0)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}
	entries = filterHistory(entries, op, historyFailed)
	if historyLimit > 0 && len(entries) > historyLimit {
		entries = entries[:historyLimit]
	}

	if len(entries) == 0 {
		printInfo("No history entries found.")
		return nil
	}

	writeHistoryTable(os.Stdout, entries, time.Now())
	if !getQuiet() {
		fmt.Println()
		fmt.Println(output.MutedStyle.Render("Use 'vault history show <id>' for the files of an operation."))
	}
	return nil
}

// filterHistory keeps entries of operation op (any when empty) and, when
// failedOnly is set, only unsuccessful ones.
func filterHistory(entries []history.Entry, op history.Operation, failedOnly bool) []history.Entry {
	return slices.DeleteFunc(entries, func(e history.Entry) bool {
		return (op != "" && e.Operation != op) || (failedOnly && e.Success)
	})
}

func writeHistoryTable(w io.Writer, entries []history.Entry, now time.Time) {
	header := fmt.Sprintf("%-8s  %-14s  %-6s  %-3s  %5s  %s", "ID", "WHEN", "OP", "OK", "FILES", "PACKAGE")
	fmt.Fprintln(w, output.TableHeaderStyle.Render(header))

	for _, e := range entries {
		mark := output.SuccessStyle.Render(fmt.Sprintf("%-3s", okMark(e.Success)))
		if !e.Success {
			mark = output.ErrorStyle.Render(fmt.Sprintf("%-3s", okMark(e.Success)))
		}
		fmt.Fprintf(w, "%-8s  %-14s  %-6s  %s  %5d  %s\n",
			truncateString(e.ID, 8),
			truncateString(humanize.RelTime(e.Timestamp, now, "ago", "from now"), 14),
			e.Operation,
			mark,
			e.Summary.TotalFiles,
			truncateString(entryLabel(e), 60),
		)
	}
}

// entryLabel names what an entry operated on.
func entryLabel(e history.Entry) string {
	switch {
	case e.RelativeExportPath != "":
		return e.RelativeExportPath
	case e.Package != "":
		return e.Package
	default:
		return e.Target
	}
}

func okMark(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	h, _, err := openHistory()
	if err != nil {
		return err
	}

	entry, err := h.Get(args[0])
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}

	writeHistoryEntry(os.Stdout, entry)
	return nil
}

func writeHistoryEntry(w io.Writer, e *history.Entry) {
	field := func(label, value string) {
		if value != "" {
			fmt.Fprintf(w, "%s %s\n", output.LabelStyle.Render(fmt.Sprintf("%-10s", label+":")), value)
		}
	}

	field("ID", e.ID)
	field("Time", e.Timestamp.Format("2006-01-02 15:04:05 MST"))
	field("Operation", string(e.Operation))
	field("Success", okMark(e.Success))
	if e.Package != "" {
		field("Package", fmt.Sprintf("%s (%s %s)", e.Package, e.Category, e.Version))
	}
	field("Path", e.RelativeExportPath)
	field("Source", e.Source)
	field("Target", e.Target)
	field("Message", e.Message)
	field("Files", fmt.Sprintf("%d written, %d skipped, %d failed, %s",
		e.Summary.TotalFiles, e.Summary.Skipped, e.Summary.Failed, types.FormatSize(e.Summary.TotalBytes)))

	if len(e.Files) == 0 {
		return
	}
	fmt.Fprintln(w)
	shown := e.Files[:min(len(e.Files), historyFileLimit)]
	for _, f := range shown {
		fmt.Fprintf(w, "  %10s  %s\n", types.FormatSize(f.Size), f.Path)
	}
	if rest := len(e.Files) - len(shown); rest > 0 {
		fmt.Fprintln(w, output.MutedStyle.Render(fmt.Sprintf("  ... and %d more files", rest)))
	}
}

func runHistoryClean(cmd *cobra.Command, args []string) error {
	h, cfg, err := openHistory()
	if err != nil {
		return err
	}

	days := cfg.History.RetentionDays
	if days <= 0 {
		days = config.DefaultRetentionDays
	}

	removed, err := h.Cleanup(days)
	if err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}
	printInfo("Removed %d history entries older than %d days.", removed, days)
	return nil
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
