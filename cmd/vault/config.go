package main

import (
	"cmp"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/vault/pkg/vault/config"
	"github.com/jamesainslie/vault/pkg/vault/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage vault configuration settings.

Configuration is loaded from:
  1. the file given with --config
  2. $XDG_CONFIG_HOME/vault/config.yaml (if set)
  3. ~/.config/vault/config.yaml

Environment variables can override config file settings using the VAULT_ prefix:
  VAULT_STORAGE_ROOT=/srv/vault
  VAULT_CONTENT_ROOT=~/Projects/Game/Content
  VAULT_HISTORY_RETENTION_DAYS=7`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  `Show the configuration after file, environment and flag overrides.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the configuration file in $VISUAL or $EDITOR",
	Long: `Open the configuration file in $VISUAL, $EDITOR or vi, creating a
default file first when none exists. The file is checked after the editor
exits.`,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented default configuration file",
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	RunE:  runConfigPath,
}

var configShowFormat string

func init() {
	configShowCmd.Flags().StringVarP(&configShowFormat, "output", "o", "yaml", "output format (yaml or json)")

	configCmd.AddCommand(configShowCmd, configEditCmd, configInitCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// envPrefix marks environment variables read by the configuration.
const envPrefix = "VAULT_"

// envOverrides returns the VAULT_ variables set in environ, sorted.
func envOverrides(environ []string) []string {
	var out []string
	for _, kv := range environ {
		if name, value, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(name, envPrefix) && value != "" {
			out = append(out, kv)
		}
	}
	slices.Sort(out)
	return out
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var out []byte
	switch configShowFormat {
	case "yaml":
		out, err = yaml.Marshal(configView(cfg))
	case "json":
		out, err = json.MarshalIndent(configView(cfg), "", "  ")
		out = append(out, '\n')
	default:
		return fmt.Errorf("unknown output format %q: use yaml or json", configShowFormat)
	}
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}

	if getQuiet() || configShowFormat == "json" {
		fmt.Print(string(out))
		return nil
	}

	path, err := configFilePath()
	if err != nil {
		return err
	}
	source := path
	if _, statErr := os.Stat(path); statErr != nil {
		source = "(defaults, no file found)"
	}
	fmt.Printf("%s %s\n\n", output.LabelStyle.Render("Config file:"), source)
	fmt.Print(string(out))

	if env := envOverrides(os.Environ()); len(env) > 0 {
		fmt.Println()
		fmt.Println(output.LabelStyle.Render("Environment overrides:"))
		for _, kv := range env {
			fmt.Println("  " + kv)
		}
	}
	return nil
}

// configView mirrors the config file layout for display.
func configView(cfg *config.Config) map[string]any {
	return map[string]any{
		"storage_root":   cfg.StorageRoot,
		"content_root":   cfg.ContentRoot,
		"mount":          cfg.Mount,
		"engine_version": cfg.EngineVersion,
		"payload": map[string]any{
			"primary":   cfg.Payload.Primary,
			"auxiliary": cfg.Payload.Auxiliary,
		},
		"registry": map[string]any{
			"path": cfg.Registry.Path,
		},
		"history": map[string]any{
			"enabled":        cfg.History.Enabled,
			"path":           cfg.History.Path,
			"retention_days": cfg.History.RetentionDays,
		},
		"trash": map[string]any{
			"permanent": cfg.Trash.Permanent,
		},
		"logging": map[string]any{
			"level":      cfg.Logging.Level,
			"path":       cfg.Logging.Path,
			"components": cfg.Logging.Components,
			"rotation": map[string]any{
				"max_size":    cfg.Logging.Rotation.MaxSize,
				"max_age":     cfg.Logging.Rotation.MaxAge,
				"max_backups": cfg.Logging.Rotation.MaxBackups,
				"daily":       cfg.Logging.Rotation.Daily,
			},
		},
	}
}

// configFilePath returns the file given with --config or the default location.
func configFilePath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	path, err := config.ConfigFile()
	if err != nil {
		return "", fmt.Errorf("failed to get config file path: %w", err)
	}
	return path, nil
}

// editorCommand builds the command that edits path. Editors may carry
// arguments, e.g. "code --wait".
func editorCommand(path string, getenv func(string) string) *exec.Cmd {
	editor := cmp.Or(getenv("VISUAL"), getenv("EDITOR"), "vi")
	parts := strings.Fields(editor)
	c := exec.Command(parts[0], append(parts[1:], path)...)
	c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
	return c
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	if cfgFile == "" {
		if err := config.WriteDefault(); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
	}

	path, err := configFilePath()
	if err != nil {
		return err
	}

	editor := editorCommand(path, os.Getenv)
	printVerbose("Opening %s with %s", path, editor.Path)
	if err := editor.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}

	if _, err := config.LoadFile(path); err != nil {
		return fmt.Errorf("configuration has errors, run 'vault config edit' again: %w", err)
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath, err := config.ConfigFile()
	if err != nil {
		return fmt.Errorf("failed to get config file path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		printInfo("Config file already exists: %s", configPath)
		printInfo("Use 'vault config edit' to modify it.")
		return nil
	}

	if err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	printInfo("Created default config file: %s", configPath)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path, err := configFilePath()
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}
