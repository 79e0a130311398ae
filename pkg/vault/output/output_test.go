package output

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/vault/pkg/vault/catalog"
	"github.com/jamesainslie/vault/pkg/vault/types"
)

func sampleResult() *Result {
	return &Result{
		Source:   "/srv/vault",
		Category: "All",
		Packages: []Package{
			{
				Name: "Hero", Category: "Static Mesh", Version: "1.0",
				RelativeExportPath: "StaticMesh/Hero/1.0", Path: "/srv/vault/StaticMesh/Hero/1.0",
				Tags: []string{"character"}, Assets: []string{"Hero"},
				Size: 2048, SizeHuman: "2.0 KiB",
			},
			{
				Name: "Door|Wood", Category: "Blueprint", Version: "2.1",
				RelativeExportPath: "Blueprint/Door|Wood/2.1", Path: "/srv/vault/Blueprint/Door|Wood/2.1",
				Tags: []string{}, Assets: []string{"BP_Door"},
				Size: 1024, SizeHuman: "1.0 KiB",
			},
		},
	}
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register("paths", func() Formatter { return &PathsFormatter{} })

	f, err := r.Get("paths")
	require.NoError(t, err)
	assert.IsType(t, &PathsFormatter{}, f)

	_, err = r.Get("nope")
	assert.Error(t, err)
	assert.Equal(t, []string{"paths"}, r.Available())
}

func TestDefaultRegistry(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"pretty", "json", "jsonl", "yaml", "tsv", "csv", "markdown", "paths", "template"} {
		_, err := Get(name)
		assert.NoError(t, err, name)
	}
	assert.Contains(t, Available(), "pretty")
}

func TestResult_TotalSize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(3072), sampleResult().TotalSize())
	assert.Equal(t, int64(0), (&Result{}).TotalSize())
}

func TestNewResult(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	pkgRoot := filepath.Join(root, "StaticMesh", "Hero", "1.0")
	require.NoError(t, os.MkdirAll(pkgRoot, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pkgRoot, "Hero.uasset"), make([]byte, 100), 0o644))

	records := []catalog.Record{{
		Descriptor: types.Descriptor{
			Name:               "Hero",
			Category:           types.CategoryStaticMesh,
			Version:            "1.0",
			RelativeExportPath: "StaticMesh/Hero/1.0",
		},
		PackageRoot: pkgRoot,
	}}
	scanErrs := []catalog.ScanError{{Path: "/bad.json", Error: "malformed"}}

	r := NewResult(context.Background(), root, types.CategoryAll, records, scanErrs)
	require.Len(t, r.Packages, 1)

	p := r.Packages[0]
	assert.Equal(t, "Static Mesh", p.Category)
	assert.Equal(t, int64(100), p.Size)
	assert.Equal(t, "100 B", p.SizeHuman)
	assert.NotNil(t, p.Tags)
	assert.NotNil(t, p.Assets)
	assert.Equal(t, "All", r.Category)
	assert.Equal(t, []string{"/bad.json: malformed"}, r.Warnings)
}

func TestPrettyFormatter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := sampleResult()
	r.Warnings = []string{"/srv/vault/x.json: malformed"}
	require.NoError(t, (&PrettyFormatter{}).Format(&buf, r))

	out := buf.String()
	for _, want := range []string{"/srv/vault", "NAME", "VERSION", "Hero", "StaticMesh/Hero/1.0", "2.0 KiB", "Packages:", "x.json"} {
		assert.Contains(t, out, want)
	}
}

func TestPrettyFormatter_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, (&PrettyFormatter{}).Format(&buf, &Result{Source: "/v", Category: "Sound"}))
	assert.Contains(t, buf.String(), "No packages found")
}

func TestJSONFormatter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(&buf, sampleResult()))

	var got document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got.Packages, 2)
	assert.Equal(t, "Hero", got.Packages[0].Name)
	assert.Equal(t, 2, got.Meta.TotalPackages)
	assert.Equal(t, int64(3072), got.Meta.TotalSize)
}

func TestJSONFormatter_EmptyIsArray(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(&buf, &Result{}))
	assert.Contains(t, buf.String(), `"packages": []`)
}

func TestJSONLFormatter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, (&JSONLFormatter{}).Format(&buf, sampleResult()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var p Package
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &p))
	assert.Equal(t, "Door|Wood", p.Name)
}

func TestYAMLFormatter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, (&YAMLFormatter{}).Format(&buf, sampleResult()))

	var got document
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got.Packages, 2)
	assert.Equal(t, "/srv/vault", got.Meta.Source)
	assert.Equal(t, []string{"character"}, got.Packages[0].Tags)
}

func TestTSVFormatter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, (&TSVFormatter{}).Format(&buf, sampleResult()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "NAME\tCATEGORY\tVERSION\tSIZE\tPATH", lines[0])
	assert.Equal(t, "Hero\tStatic Mesh\t1.0\t2.0 KiB\tStaticMesh/Hero/1.0", lines[1])
}

func TestCSVFormatter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, (&CSVFormatter{}).Format(&buf, sampleResult()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, tableColumns, rows[0])
	assert.Equal(t, "Door|Wood", rows[2][0])
}

func TestMarkdownFormatter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, (&MarkdownFormatter{}).Format(&buf, sampleResult()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "| NAME | CATEGORY | VERSION | SIZE | PATH |\n"))
	assert.Contains(t, out, `Door\|Wood`)
}

func TestPathsFormatter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, (&PathsFormatter{}).Format(&buf, sampleResult()))
	assert.Equal(t, "/srv/vault/StaticMesh/Hero/1.0\n/srv/vault/Blueprint/Door|Wood/2.1\n", buf.String())
}

func TestTemplateFormatter(t *testing.T) {
	t.Parallel()

	f := NewTemplateFormatter(`{{range .Packages}}{{.Name}}:{{join .Assets ","}} {{end}}{{bytes .TotalSize}}`)
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, sampleResult()))
	assert.Equal(t, "Hero:Hero Door|Wood:BP_Door 3.0 KiB", buf.String())

	buf.Reset()
	require.NoError(t, f.Format(&buf, &Result{}), "parsed template is reused")
	assert.Equal(t, "0 B", buf.String())
}

func TestTemplateFormatter_Helpers(t *testing.T) {
	t.Parallel()

	f := NewTemplateFormatter(`{{range .Packages}}[{{pad .Version 4}}]{{quote .Name}}{{end}}`)
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, sampleResult()))
	assert.Equal(t, `[1.0 ]"Hero"[2.1 ]"Door|Wood"`, buf.String())
}

func TestTemplateFormatter_Invalid(t *testing.T) {
	t.Parallel()

	f := NewTemplateFormatter("{{.Missing")
	var buf bytes.Buffer
	assert.ErrorContains(t, f.Format(&buf, sampleResult()), "invalid template")
	assert.Error(t, f.Format(&buf, sampleResult()))
}

func TestDefaultTemplate(t *testing.T) {
	t.Parallel()

	f, err := Get("template")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, sampleResult()))
	assert.Equal(t, "Hero\t1.0\tStaticMesh/Hero/1.0\nDoor|Wood\t2.1\tBlueprint/Door|Wood/2.1\n", buf.String())
}

func TestCategoryStyle(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		CategoryStyle("Static Mesh").Render("x")
		CategoryStyle("unknown").Render("x")
	})
}
