// Package config provides configuration management for the vault package tool.
package config

// Default configuration values for vault.
const (
	// DefaultStorageRoot is the export root used when none is given.
	DefaultStorageRoot = "~/Vault"

	// DefaultContentRoot is the project content directory.
	DefaultContentRoot = "./Content"

	// DefaultMount is the project namespace mapped onto the content root.
	DefaultMount = "/Game/"

	// DefaultEngineVersion is recorded in descriptors when an export gives none.
	DefaultEngineVersion = "5.3"

	// DefaultPrimaryExtension is the extension of the file that defines an item.
	DefaultPrimaryExtension = ".uasset"

	// DefaultRetentionDays is the default number of days to keep history entries.
	DefaultRetentionDays = 30

	// DefaultLogMaxSize is the log size that triggers rotation.
	DefaultLogMaxSize = "10MiB"
)

// DefaultAuxiliaryExtensions lists the companion files copied with a primary.
var DefaultAuxiliaryExtensions = []string{".uexp", ".ubulk", ".umap"}
