package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/vault/pkg/vault/config"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "vault",
		Short: "Package project assets into a shared library",
		Long: `Vault exports project items, together with everything they depend on,
into versioned packages under a storage root, and imports packages back
into a project's content folder.

Examples:
  vault export /Game/Chars/Hero --name Hero --category StaticMesh
  vault catalog --category Material
  vault import StaticMesh/Hero/1.0 --into Chars
  vault check import StaticMesh/Hero/1.0 --into Chars
  vault index load deps.yaml
  vault history`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: initializeLogging,
		PersistentPostRun: func(*cobra.Command, []string) {
			closeLogging()
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/vault/config.yaml)")
	rootCmd.PersistentFlags().StringP("root", "r", "", "package storage root (overrides storage_root)")
	rootCmd.PersistentFlags().StringP("content-root", "c", "", "project content folder (overrides content_root)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")

	// Bind flags to viper
	_ = viper.BindPFlag("storage_root", rootCmd.PersistentFlags().Lookup("root"))
	_ = viper.BindPFlag("content_root", rootCmd.PersistentFlags().Lookup("content-root"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig wires the environment into the flag layer. The persisted
// settings themselves are read by loadConfig.
func initConfig() {
	viper.SetEnvPrefix("VAULT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		return err
	}
	return nil
}

// loadConfig reads the configuration and applies command line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFile(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if root := viper.GetString("storage_root"); root != "" && rootCmd.PersistentFlags().Changed("root") {
		if cfg.StorageRoot, err = config.ExpandPath(root); err != nil {
			return nil, err
		}
	}
	if content := viper.GetString("content_root"); content != "" && rootCmd.PersistentFlags().Changed("content-root") {
		if cfg.ContentRoot, err = config.ExpandPath(content); err != nil {
			return nil, err
		}
	}

	if cfg.StorageRoot, err = filepath.Abs(cfg.StorageRoot); err != nil {
		return nil, fmt.Errorf("failed to resolve storage root: %w", err)
	}
	if cfg.ContentRoot, err = filepath.Abs(cfg.ContentRoot); err != nil {
		return nil, fmt.Errorf("failed to resolve content root: %w", err)
	}
	return cfg, nil
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// interruptContext returns a context cancelled on SIGINT or SIGTERM.
func interruptContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			printInfo("\nInterrupted, stopping...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
