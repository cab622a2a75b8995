package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearDictEnv(t *testing.T) {
	t.Helper()
	for _, e := range os.Environ() {
		if len(e) > 5 && e[:5] == "DICT_" {
			key := e[:indexOfEquals(e)]
			os.Unsetenv(key)
			t.Cleanup(func() { os.Unsetenv(key) })
		}
	}
}

func indexOfEquals(s string) int {
	for i, c := range s {
		if c == '=' {
			return i
		}
	}
	return len(s)
}

func TestLoadFromEnvDefaults(t *testing.T) {
	clearDictEnv(t)

	cfg := LoadFromEnv()
	assert.Equal(t, "terms", cfg.Naming.CollectionTerm)
	assert.Equal(t, "edges", cfg.Naming.CollectionEdge)
	assert.Equal(t, "_lid", cfg.Naming.LocalIdentifier)
	assert.Equal(t, "enum-of", cfg.Naming.PredicateEnumeration)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, 10, cfg.Validation.MaxDepth)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnvOverrides(t *testing.T) {
	clearDictEnv(t)
	t.Setenv("DICT_COLLECTION_TERM", "definitions")
	t.Setenv("DICT_STORAGE_BACKEND", "badger")
	t.Setenv("DICT_STORAGE_DATA_DIR", "/tmp/dict-data")
	t.Setenv("DICT_VALIDATION_MAX_DEPTH", "5")
	t.Setenv("DICT_VALIDATION_TRAVERSAL_TIMEOUT", "2s")

	cfg := LoadFromEnv()
	assert.Equal(t, "definitions", cfg.Naming.CollectionTerm)
	assert.Equal(t, "badger", cfg.Storage.Backend)
	assert.Equal(t, "/tmp/dict-data", cfg.Storage.DataDir)
	assert.Equal(t, 5, cfg.Validation.MaxDepth)
	assert.Equal(t, 2*time.Second, cfg.Validation.TraversalTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	clearDictEnv(t)
	cfg := LoadFromEnv()
	cfg.Storage.Backend = "mongo"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsEmptyCollectionNames(t *testing.T) {
	clearDictEnv(t)
	cfg := LoadFromEnv()
	cfg.Naming.CollectionTerm = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadgerWithoutDataDir(t *testing.T) {
	clearDictEnv(t)
	cfg := LoadFromEnv()
	cfg.Storage.Backend = "badger"
	cfg.Storage.DataDir = ""
	assert.Error(t, cfg.Validate())
}

func TestLoadFromFileOverlaysEnvDefaults(t *testing.T) {
	clearDictEnv(t)
	dir := t.TempDir()
	path := dir + "/config.yaml"
	require.NoError(t, os.WriteFile(path, []byte(`
naming:
  collectionterm: custom-terms
validation:
  maxdepth: 3
`), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "custom-terms", cfg.Naming.CollectionTerm)
	assert.Equal(t, 3, cfg.Validation.MaxDepth)
	assert.Equal(t, "edges", cfg.Naming.CollectionEdge, "unset keys keep their env-derived default")
}

func TestConfigStringOmitsNothingSensitive(t *testing.T) {
	clearDictEnv(t)
	cfg := LoadFromEnv()
	s := cfg.String()
	assert.Contains(t, s, "memory")
	assert.Contains(t, s, "default")
}
