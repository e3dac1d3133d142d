package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "ph_ceiling.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "ph_ceiling", s.Name)
	assert.Len(t, s.Steps, 4)
	assert.Len(t, s.Assertions, 4)

	cfg, err := s.ResolveConfig()
	require.NoError(t, err)
	assert.Equal(t, "tank", cfg.Group)
	assert.Len(t, cfg.Devices, 2)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadScenario_MissingName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("description: nameless\n"), 0o644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing name")
}

func TestLoadScenario_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: [unclosed\n"), 0o644))

	_, err := LoadScenario(path)
	assert.Error(t, err)
}
