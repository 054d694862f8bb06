package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fileProfile writes a file-backend profile and returns its path.
func fileProfile(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	profile := fmt.Sprintf(`
key: settings
backend: file
path: %s
delay: 500ms
`, filepath.Join(dir, "state.yaml"))
	path := filepath.Join(dir, "autosave.yaml")
	require.NoError(t, os.WriteFile(path, []byte(profile), 0o644))
	return path
}

// sqliteProfile writes a sqlite-backend profile and returns its path.
func sqliteProfile(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	profile := fmt.Sprintf(`
key: settings
backend: sqlite
path: %s
delay: 500ms
`, filepath.Join(dir, "state.db"))
	path := filepath.Join(dir, "autosave.yaml")
	require.NoError(t, os.WriteFile(path, []byte(profile), 0o644))
	return path
}

func TestSetThenGet_RoundTrip(t *testing.T) {
	profile := fileProfile(t)

	out, err := execute(t, "--profile", profile, "set", "theme=dark", "font=14")
	require.NoError(t, err)
	assert.Contains(t, out, "saved 2 field(s)")

	out, err = execute(t, "--profile", profile, "get", "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark\n", out)

	out, err = execute(t, "--profile", profile, "--format", "json", "get")
	require.NoError(t, err)
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	doc, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "dark", doc["theme"])
	assert.Equal(t, float64(14), doc["font"], "numeric values survive as numbers")
}

func TestGet_MissingFieldFails(t *testing.T) {
	profile := fileProfile(t)

	_, err := execute(t, "--profile", profile, "get", "theme")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestSet_MalformedAssignment(t *testing.T) {
	profile := fileProfile(t)

	_, err := execute(t, "--profile", profile, "set", "no-equals-sign")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSet_InvalidProfileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autosave.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: memory\n"), 0o644))

	_, err := execute(t, "--profile", path, "set", "theme=dark")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestHistory_SqliteListsSnapshots(t *testing.T) {
	profile := sqliteProfile(t)

	_, err := execute(t, "--profile", profile, "set", "theme=dark")
	require.NoError(t, err)
	_, err = execute(t, "--profile", profile, "set", "theme=light")
	require.NoError(t, err)

	out, err := execute(t, "--profile", profile, "--format", "json", "history", "--limit", "5")
	require.NoError(t, err)
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	entries, ok := resp.Data.([]any)
	require.True(t, ok)
	assert.Len(t, entries, 2)
}

func TestHistory_FileBackendUnsupported(t *testing.T) {
	profile := fileProfile(t)

	_, err := execute(t, "--profile", profile, "history")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNoHistory)
}

func TestValidate_ValidProfile(t *testing.T) {
	profile := fileProfile(t)

	out, err := execute(t, "validate", profile)
	require.NoError(t, err)
	assert.Contains(t, out, "profile valid")
}

func TestValidate_InvalidProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autosave.yaml")
	require.NoError(t, os.WriteFile(path, []byte("key: settings\nbackend: dynamo\n"), 0o644))

	_, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestValidate_MissingFile(t *testing.T) {
	_, err := execute(t, "validate", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
