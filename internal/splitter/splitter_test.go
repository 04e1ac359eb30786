package splitter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/natedelduca/json-splitter/internal/config"
	"github.com/natedelduca/json-splitter/internal/console"
	"github.com/natedelduca/json-splitter/internal/pathresolve"
)

func newTestSplitter() (*Splitter, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(console.NewWithProfile(&buf, termenv.Ascii), nil), &buf
}

func writeInput(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "input.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRunSeparatorScenario(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	input := writeInput(t, dir, `{"items":[{"name":"a/b"}]}`)

	s, out := newTestSplitter()
	res, err := s.Run(config.Config{
		InputPath:    input,
		ArrayKey:     "items",
		JSONPath:     "name",
		Separator:    "/",
		ManifestPath: "out.txt",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Written)
	assert.Equal(t, "{\n  \"name\": \"a/b\"\n}\n", readFile(t, "a/b.json"))
	assert.Equal(t, "%file:a/b.json%\n", readFile(t, "out.txt"))
	assert.Equal(t, "out.txt", res.Manifest)
	assert.Contains(t, out.String(), "Loading file: "+input)
	assert.Contains(t, out.String(), "a/b.json\n")
}

func TestRunTopLevelArrayWithoutJSONPath(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	input := writeInput(t, dir, `[{"id":"x"}, {"id":"y"}, "named"]`)

	s, _ := newTestSplitter()
	res, err := s.Run(config.Config{InputPath: input, OutputDir: outDir})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Written)
	assert.Equal(t, "{\n  \"id\": \"x\"\n}\n", readFile(t, filepath.Join(outDir, "0.json")))
	assert.Equal(t, "{\n  \"id\": \"y\"\n}\n", readFile(t, filepath.Join(outDir, "1.json")))
	assert.Equal(t, "\"named\"\n", readFile(t, filepath.Join(outDir, "named.json")))
}

func TestRunManifestSortedOnePerElement(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	manifest := filepath.Join(dir, "sections.txt")
	input := writeInput(t, dir, `{"data":[
		{"meta":{"key":"zeta-one"}},
		{"meta":{"key":"alpha-two"}},
		{"meta":{"key":"plain"}},
		{"meta":{"key":"alpha-one"}}
	]}`)

	s, _ := newTestSplitter()
	res, err := s.Run(config.Config{
		InputPath:    input,
		ArrayKey:     "data",
		OutputDir:    outDir,
		JSONPath:     "meta/key",
		Separator:    "-",
		ManifestPath: manifest,
	})
	require.NoError(t, err)

	want := []string{
		"%file:" + outDir + "/alpha/one.json%",
		"%file:" + outDir + "/alpha/two.json%",
		"%file:" + outDir + "/plain.json%",
		"%file:" + outDir + "/zeta/one.json%",
	}
	assert.Equal(t, strings.Join(want, "\n")+"\n", readFile(t, manifest))
	assert.Len(t, res.Entries, 4)
	assert.Equal(t, "%file:"+outDir+"/zeta/one.json%", res.Entries[0], "entries keep array order")
	assert.FileExists(t, filepath.Join(outDir, "zeta", "one.json"))
}

func TestRunTwiceIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	input := writeInput(t, dir, `{"items":[{"name":"a/b"},{"name":"a/c"}]}`)
	cfg := config.Config{InputPath: input, ArrayKey: "items", OutputDir: outDir, JSONPath: "name", Separator: "/"}

	s, _ := newTestSplitter()
	_, err := s.Run(cfg)
	require.NoError(t, err)
	res, err := s.Run(cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Written)
}

func TestRunWriteFailureContinues(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(outDir, 0o755))
	// A regular file where a directory is needed makes the first element fail.
	require.NoError(t, os.WriteFile(filepath.Join(outDir, "blocked"), []byte("x"), 0o644))
	manifest := filepath.Join(dir, "m.txt")
	input := writeInput(t, dir, `[{"n":"blocked/a"},{"n":"ok/b"}]`)

	s, out := newTestSplitter()
	res, err := s.Run(config.Config{
		InputPath:    input,
		OutputDir:    outDir,
		JSONPath:     "n",
		Separator:    "/",
		ManifestPath: manifest,
	})
	require.ErrorIs(t, err, ErrWrite)

	assert.Equal(t, 1, res.Written)
	assert.Equal(t, 1, res.Failed)
	assert.Len(t, res.Entries, 2)
	assert.FileExists(t, filepath.Join(outDir, "ok", "b.json"))
	assert.Contains(t, out.String(), "Error: ")
	assert.Equal(t, 2, strings.Count(readFile(t, manifest), "\n"))
}

func TestRunAbortsOnLookupError(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	manifest := filepath.Join(dir, "m.txt")
	input := writeInput(t, dir, `[{"n":"first"},{"other":"x"},{"n":"third"}]`)

	s, _ := newTestSplitter()
	res, err := s.Run(config.Config{InputPath: input, OutputDir: outDir, JSONPath: "n", ManifestPath: manifest})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "element 1")

	assert.Equal(t, 1, res.Written)
	assert.FileExists(t, filepath.Join(outDir, "first.json"))
	assert.NoFileExists(t, filepath.Join(outDir, "third.json"))
	assert.NoFileExists(t, manifest)
}

func TestRunAbortsOnUnsafePath(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	escaped := filepath.Join(dir, "elsewhere", "escaped")
	input := writeInput(t, dir, `[{"n":"kept"},{"n":"`+escaped+`"},{"n":"never"}]`)

	s, out := newTestSplitter()
	res, err := s.Run(config.Config{InputPath: input, JSONPath: "n", ManifestPath: "m.txt"})
	require.ErrorIs(t, err, pathresolve.ErrUnsafePath)
	assert.Contains(t, err.Error(), "element 1")

	assert.Equal(t, 1, res.Written)
	assert.FileExists(t, "kept.json")
	assert.NoFileExists(t, escaped+".json")
	assert.NoFileExists(t, "never.json")
	assert.NoFileExists(t, "m.txt")
	assert.Contains(t, out.String(), "unsafe output path")
}

func TestRunLoadErrors(t *testing.T) {
	dir := t.TempDir()
	s, _ := newTestSplitter()

	_, err := s.Run(config.Config{InputPath: filepath.Join(dir, "missing.json")})
	require.ErrorIs(t, err, ErrLoad)
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := writeInput(t, dir, `{"items": [`)
	_, err = s.Run(config.Config{InputPath: bad, ArrayKey: "items"})
	require.ErrorIs(t, err, ErrLoad)
}

func TestExtractArray(t *testing.T) {
	obj := map[string]any{"items": []any{"a"}, "scalar": "x"}

	got, err := extractArray(obj, "items")
	require.NoError(t, err)
	assert.Equal(t, []any{"a"}, got)

	got, err = extractArray([]any{1.0}, "")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	for _, tc := range []struct {
		doc any
		key string
	}{
		{obj, "missing"},
		{obj, "scalar"},
		{obj, ""},
		{[]any{}, "items"},
	} {
		_, err := extractArray(tc.doc, tc.key)
		assert.ErrorIs(t, err, ErrArray, "key %q", tc.key)
	}
}
