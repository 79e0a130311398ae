package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/vault/pkg/vault/fsutil"
	"github.com/jamesainslie/vault/pkg/vault/layout"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <package>",
	Aliases: []string{"rm"},
	Short:   "Delete a package from the storage root",
	Long: `Delete a package folder and everything in it.

By default the folder is moved to the system trash. Use --permanent (or
trash.permanent in the config file) to remove it outright.`,
	Example: `  vault delete StaticMesh/Hero/1.0
  vault delete Hero --yes --permanent`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

var (
	deletePermanent bool
	deleteYes       bool
)

func init() {
	deleteCmd.Flags().BoolVar(&deletePermanent, "permanent", false, "delete instead of moving to the trash")
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "do not ask for confirmation")

	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	s, err := openSession(sessionOptions{noIndex: true, permanent: deletePermanent})
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
	root, err := layout.ResolveRecorded(s.cfg.StorageRoot, rel)
	if err != nil {
		return fmt.Errorf("invalid package path %q: %w", rel, err)
	}
	if !fsutil.Exists(root) {
		printInfo("%s does not exist, nothing to delete.", rel)
		return nil
	}

	if !deleteYes && !confirm(fmt.Sprintf("Delete %s?", root)) {
		printInfo("Cancelled.")
		return nil
	}

	if err := s.manager.Delete(root); err != nil {
		return fmt.Errorf("failed to delete %s: %w", rel, err)
	}

	if deletePermanent || s.cfg.Trash.Permanent {
		printInfo("Deleted %s", rel)
	} else {
		printInfo("Moved %s to the trash", rel)
	}
	return nil
}

// confirm asks a yes/no question on stdin. Anything but y or yes is no.
func confirm(question string) bool {
	fmt.Printf("%s [y/N] ", question)
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	return isYes(answer)
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
