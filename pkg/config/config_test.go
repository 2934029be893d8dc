package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type sample struct {
	Settings struct {
		NotesPath string `yaml:"notes_path"`
	} `yaml:"settings"`
	Name string `yaml:"name"`
}

type strict struct {
	Name string `yaml:"name"`
}

func (s *strict) Validate() error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("PINNOTE_TEST_DIR", "/tmp/notes")
	file := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(file, []byte("settings:\n  notes_path: ${PINNOTE_TEST_DIR}\nunknown: 1\n"), 0o644))

	var cfg sample
	require.NoError(t, Load(file, &cfg))
	assert.Equal(t, "/tmp/notes", cfg.Settings.NotesPath)
}

func TestLoadValidates(t *testing.T) {
	file := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(file, []byte("name: \"\"\n"), 0o644))

	var cfg strict
	err := Load(file, &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestLoadOptionalMissingKeepsDefaults(t *testing.T) {
	cfg := strict{Name: "default"}
	require.NoError(t, LoadOptional(filepath.Join(t.TempDir(), "missing.yaml"), &cfg))
	assert.Equal(t, "default", cfg.Name)

	empty := strict{}
	assert.Error(t, LoadOptional(filepath.Join(t.TempDir(), "missing.yaml"), &empty))
}

func TestSetValuePreservesOtherKeys(t *testing.T) {
	file := filepath.Join(t.TempDir(), "c.yaml")
	original := "# my config\nname: keep\nsettings:\n  notes_path: /old\n  theme: dark\nextra:\n  a: 1\n"
	require.NoError(t, os.WriteFile(file, []byte(original), 0o644))

	require.NoError(t, SetValue(file, "settings", "notes_path", "/new"))

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, yaml.Unmarshal(data, &got))

	assert.Equal(t, "keep", got["name"])
	settings := got["settings"].(map[string]any)
	assert.Equal(t, "/new", settings["notes_path"])
	assert.Equal(t, "dark", settings["theme"])
	assert.Equal(t, map[string]any{"a": 1}, got["extra"])
	assert.Contains(t, string(data), "# my config")
}

func TestSetValueCreatesFileAndSection(t *testing.T) {
	file := filepath.Join(t.TempDir(), "sub", "c.yaml")
	require.NoError(t, SetValue(file, "settings", "notes_path", "/notes"))

	var cfg sample
	require.NoError(t, Load(file, &cfg))
	assert.Equal(t, "/notes", cfg.Settings.NotesPath)
}

func TestSetValueReplacesFileCleanly(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "c.yaml")
	require.NoError(t, SetValue(file, "settings", "notes_path", "/one"))
	require.NoError(t, SetValue(file, "settings", "notes_path", "/two"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "c.yaml", entries[0].Name())

	info, err := os.Stat(file)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	var cfg sample
	require.NoError(t, Load(file, &cfg))
	assert.Equal(t, "/two", cfg.Settings.NotesPath)
}
