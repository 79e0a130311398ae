// Package descriptor reads and writes the JSON sidecar that records the
// metadata of an exported package.
package descriptor

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/jamesainslie/vault/pkg/vault/layout"
	"github.com/jamesainslie/vault/pkg/vault/types"
)

// ErrMalformed is returned for sidecars that are not valid JSON objects or
// lack a name.
var ErrMalformed = errors.New("malformed descriptor")

// Extension is the file extension of descriptor sidecars.
const Extension = ".json"

// document is the on-disk JSON layout.
type document struct {
	Name               string   `json:"Name"`
	AssetType          string   `json:"AssetType"`
	Description        string   `json:"Description"`
	EngineVersion      string   `json:"EngineVersion"`
	Version            string   `json:"Version"`
	VersionComment     string   `json:"VersionComment"`
	CustomFolder       string   `json:"CustomFolder"`
	RelativeExportPath string   `json:"RelativeExportPath"`
	Tags               []string `json:"Tags"`
	Assets             []string `json:"Assets"`
}

// lenientDocument defers every field so a value of the wrong type can fall
// back to its default instead of failing the whole sidecar.
type lenientDocument struct {
	Name               json.RawMessage `json:"Name"`
	AssetType          json.RawMessage `json:"AssetType"`
	Description        json.RawMessage `json:"Description"`
	EngineVersion      json.RawMessage `json:"EngineVersion"`
	Version            json.RawMessage `json:"Version"`
	VersionComment     json.RawMessage `json:"VersionComment"`
	CustomFolder       json.RawMessage `json:"CustomFolder"`
	RelativeExportPath json.RawMessage `json:"RelativeExportPath"`
	Tags               json.RawMessage `json:"Tags"`
	Assets             json.RawMessage `json:"Assets"`
}

// FileName returns the sidecar file name for d written at now:
// {name}_{category}_{HASH}.json, with HASH the uppercase hex xxhash64 of
// name, category and timestamp.
func FileName(d types.Descriptor, now time.Time) string {
	category := d.Category.String()
	sum := xxhash.Sum64String(d.Name + category + now.UTC().Format(time.RFC3339Nano))
	return layout.SanitizeFileName(fmt.Sprintf("%s_%s_%X", d.Name, category, sum)) + Extension
}

// Write stores d as a sidecar inside packageRoot and returns its path. The
// file is written to a temporary name and renamed into place.
func Write(d types.Descriptor, packageRoot string, now time.Time) (string, error) {
	if d.Name == "" {
		return "", fmt.Errorf("%w: name is required", ErrMalformed)
	}

	data, err := Marshal(d)
	if err != nil {
		return "", err
	}

	path := filepath.Join(packageRoot, FileName(d, now))
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to rename temp file: %w", err)
	}
	return path, nil
}

// Marshal encodes d as indented JSON. Exported item names are written sorted
// and de-duplicated.
func Marshal(d types.Descriptor) ([]byte, error) {
	doc := document{
		Name:               d.Name,
		AssetType:          d.Category.String(),
		Description:        d.Description,
		EngineVersion:      d.EngineVersion,
		Version:            d.Version,
		VersionComment:     d.VersionComment,
		CustomFolder:       d.CustomFolder,
		RelativeExportPath: d.RelativeExportPath,
		Tags:               nonNil(d.Tags),
		Assets:             NormalizeNames(d.ExportedItemNames),
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal descriptor: %w", err)
	}
	return append(data, '\n'), nil
}

// Read loads the sidecar at path.
func Read(path string) (types.Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.Descriptor{}, fmt.Errorf("failed to open descriptor: %w", err)
	}
	defer f.Close()

	d, err := Decode(f)
	if err != nil {
		return types.Descriptor{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return d, nil
}

// Decode parses a sidecar document. Unknown fields, optional fields of the
// wrong type and non-string list members are ignored; a missing or empty
// Version becomes "1.0". Name must be a non-empty string.
func Decode(r io.Reader) (types.Descriptor, error) {
	var doc lenientDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return types.Descriptor{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	name := stringOnly(doc.Name)
	if name == "" {
		return types.Descriptor{}, fmt.Errorf("%w: missing Name", ErrMalformed)
	}

	version := stringOnly(doc.Version)
	if version == "" {
		version = types.DefaultVersion
	}

	category := types.ParseCategory(stringOnly(doc.AssetType))
	if !category.Storable() {
		category = types.CategoryOther
	}

	return types.Descriptor{
		Name:               name,
		Category:           category,
		Description:        stringOnly(doc.Description),
		EngineVersion:      stringOnly(doc.EngineVersion),
		Version:            version,
		VersionComment:     stringOnly(doc.VersionComment),
		CustomFolder:       stringOnly(doc.CustomFolder),
		RelativeExportPath: stringOnly(doc.RelativeExportPath),
		Tags:               stringsOnly(doc.Tags),
		ExportedItemNames:  stringsOnly(doc.Assets),
	}, nil
}

// IsSidecar reports whether name looks like a descriptor file.
func IsSidecar(name string) bool {
	return strings.EqualFold(filepath.Ext(name), Extension)
}

// NormalizeNames returns names sorted with duplicates removed.
func NormalizeNames(names []string) []string {
	out := slices.Clone(nonNil(names))
	slices.Sort(out)
	return slices.Compact(out)
}

// stringOnly decodes a JSON string. Anything else yields "".
func stringOnly(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// stringsOnly decodes a JSON array keeping only its string members. Anything
// other than an array yields an empty list.
func stringsOnly(raw json.RawMessage) []string {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(string(item)) == "null" {
			continue
		}
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			continue
		}
		out = append(out, s)
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
