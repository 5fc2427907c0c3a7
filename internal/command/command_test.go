package command

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBuildFile = `
log_level: error
banner: false
history:
  enabled: true
  path: history.sqlite
builds:
  - name: scripts
    version: "1.0"
    input: [src/a.js, src/b.js]
    output: dist/app.min.js
    minify: true
  - name: notes
    input: src/notes.txt
    output: dist/notes.txt
    modifiers:
      - {action: replace, match: TODO, contents: DONE}
`

func TestBuildCommand(t *testing.T) {
	t.Parallel()

	dir := setupProject(t)
	out, err := execute(t, "-c", filepath.Join(dir, "forge.yaml"), "build")
	require.NoError(t, err)
	assert.Contains(t, out, "scripts - V1.0")
	assert.Contains(t, out, "SUCCEEDED")

	notes, err := os.ReadFile(filepath.Join(dir, "dist", "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "DONE: ship", string(notes))
	assert.FileExists(t, filepath.Join(dir, "dist", "app.min.js"))

	out, err = execute(t, "-c", filepath.Join(dir, "forge.yaml"), "history")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "STATUS")
	assert.Contains(t, out, "scripts")
	assert.Contains(t, out, "notes")

	out, err = execute(t, "-c", filepath.Join(dir, "forge.yaml"), "history", "--name", "notes")
	require.NoError(t, err)
	assert.NotContains(t, out, "scripts")
}

func TestBuildCommand_Filter(t *testing.T) {
	t.Parallel()

	dir := setupProject(t)
	_, err := execute(t, "-c", filepath.Join(dir, "forge.yaml"), "build", "--filter", `kind == "plain"`)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "dist", "notes.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "dist", "app.min.js"))

	_, err = execute(t, "-c", filepath.Join(dir, "forge.yaml"), "build", "--filter", `kind ==`)
	require.ErrorContains(t, err, "failed to compile filter")
}

func TestBuildCommand_Failure(t *testing.T) {
	t.Parallel()

	dir := setupProject(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "src", "a.js")))
	out, err := execute(t, "-c", filepath.Join(dir, "forge.yaml"), "build")
	require.ErrorContains(t, err, `build "scripts" failed`)
	assert.Contains(t, out, "FAILED")
	assert.NoFileExists(t, filepath.Join(dir, "dist", "notes.txt"))
}

func TestValidateCommand(t *testing.T) {
	t.Parallel()

	dir := setupProject(t)
	out, err := execute(t, "-c", filepath.Join(dir, "forge.yaml"), "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "ok   scripts (js, 2 inputs)")
	assert.Contains(t, out, "ok   notes (plain, 1 inputs)")
	assert.NoDirExists(t, filepath.Join(dir, "dist"))

	require.NoError(t, os.Remove(filepath.Join(dir, "src", "notes.txt")))
	out, err = execute(t, "-c", filepath.Join(dir, "forge.yaml"), "validate")
	require.Error(t, err)
	assert.Contains(t, out, "ok   scripts")
	assert.Contains(t, out, "FAIL notes")
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "forge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("builds: []"), 0o600))
	_, err := execute(t, "-c", path, "validate")
	require.ErrorContains(t, err, "failed to load configuration file")
}

func TestReadLine(t *testing.T) {
	t.Parallel()

	line, err := readLine(strings.NewReader("abx\bc\nrest"))
	require.NoError(t, err)
	assert.Equal(t, "abc", string(line))

	line, err = readLine(strings.NewReader("eof"))
	require.NoError(t, err)
	assert.Equal(t, "eof", string(line))
}

func setupProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"forge.yaml":    testBuildFile,
		"src/a.js":      "const a=1;",
		"src/b.js":      "const b=2;",
		"src/notes.txt": "TODO: ship",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := RootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}
