// Package config loads dictionary engine configuration from environment
// variables, in the same style as the teacher's pkg/config: a flat
// Config struct, a LoadFromEnv constructor, a Validate pass, and a
// handful of getEnv* helpers rather than a generic reflection-based
// binder.
//
// Every naming key of §6.4 (collection names, section names, predicate
// names) is independently overridable via DICT_* environment variables,
// so a deployment can run the same engine over a differently-named
// schema without a code change.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full set of naming and behavior knobs the dictionary
// core reads from, organized the way the teacher groups Auth/Database/
// Server/Memory: one section per concern.
type Config struct {
	// Naming controls the configurable vocabulary: collection names,
	// section keys, and predicate names.
	Naming NamingConfig

	// Storage selects and tunes the backing store.
	Storage StorageConfig

	// Validation tunes the validator's default behavior.
	Validation ValidationConfig

	// Logging holds an internal/dictlog level name; no code in this
	// module applies it to dictlog.
	Logging LoggingConfig
}

// NamingConfig is the configurable vocabulary terms and graphs are
// written in.
type NamingConfig struct {
	Language             string
	CollectionTerm       string
	CollectionEdge       string
	CollectionLink       string
	SectionData          string
	SectionPath          string
	SectionPathData      string
	Predicate            string
	PredicateEnumeration string
	PredicateField       string
	PredicateProperty    string
	PredicateSection     string
	PredicateBridge      string
	PredicateRequired    string
	PredicateReqMetadata string
	LocalIdentifier      string
	DefaultNamespace     string
}

// StorageConfig selects between the in-memory and Badger-backed stores.
type StorageConfig struct {
	// Backend is "memory" or "badger".
	Backend string
	// DataDir is the Badger data directory, ignored for "memory".
	DataDir string
	// SyncWrites forces fsync on every Badger transaction.
	SyncWrites bool
}

// ValidationConfig carries the validator's option defaults.
type ValidationConfig struct {
	UseCache          bool
	CacheMissed       bool
	ExpectTerms       bool
	ExpectTypes       bool
	AllowDefaultNS    bool
	MaxDepth          int
	RequiredCacheSize int
	TraversalTimeout  time.Duration
}

// LoggingConfig names an internal/dictlog level; nothing in this module
// reads it.
type LoggingConfig struct {
	Level string
}

// LoadFromEnv builds a Config from DICT_* environment variables, falling
// back to the defaults below for anything unset.
func LoadFromEnv() *Config {
	cfg := &Config{}

	cfg.Naming.Language = getEnv("DICT_LANGUAGE", "en")
	cfg.Naming.CollectionTerm = getEnv("DICT_COLLECTION_TERM", "terms")
	cfg.Naming.CollectionEdge = getEnv("DICT_COLLECTION_EDGE", "edges")
	cfg.Naming.CollectionLink = getEnv("DICT_COLLECTION_LINK", "links")
	cfg.Naming.SectionData = getEnv("DICT_SECTION_DATA", "_data")
	cfg.Naming.SectionPath = getEnv("DICT_SECTION_PATH", "_path")
	cfg.Naming.SectionPathData = getEnv("DICT_SECTION_PATH_DATA", "_path_data")
	cfg.Naming.Predicate = getEnv("DICT_PREDICATE", "_predicate")
	cfg.Naming.PredicateEnumeration = getEnv("DICT_PREDICATE_ENUMERATION", "enum-of")
	cfg.Naming.PredicateField = getEnv("DICT_PREDICATE_FIELD", "field-of")
	cfg.Naming.PredicateProperty = getEnv("DICT_PREDICATE_PROPERTY", "property-of")
	cfg.Naming.PredicateSection = getEnv("DICT_PREDICATE_SECTION", "section-of")
	cfg.Naming.PredicateBridge = getEnv("DICT_PREDICATE_BRIDGE", "bridge-of")
	cfg.Naming.PredicateRequired = getEnv("DICT_PREDICATE_REQUIRED_INDICATOR", "required-indicator")
	cfg.Naming.PredicateReqMetadata = getEnv("DICT_PREDICATE_REQUIRED_METADATA", "required-metadata")
	cfg.Naming.LocalIdentifier = getEnv("DICT_LOCAL_IDENTIFIER", "_lid")
	cfg.Naming.DefaultNamespace = getEnv("DICT_DEFAULT_NAMESPACE", "default")

	cfg.Storage.Backend = getEnv("DICT_STORAGE_BACKEND", "memory")
	cfg.Storage.DataDir = getEnv("DICT_STORAGE_DATA_DIR", "./data")
	cfg.Storage.SyncWrites = getEnvBool("DICT_STORAGE_SYNC_WRITES", false)

	cfg.Validation.UseCache = getEnvBool("DICT_VALIDATION_USE_CACHE", true)
	cfg.Validation.CacheMissed = getEnvBool("DICT_VALIDATION_CACHE_MISSED", true)
	cfg.Validation.ExpectTerms = getEnvBool("DICT_VALIDATION_EXPECT_TERMS", true)
	cfg.Validation.ExpectTypes = getEnvBool("DICT_VALIDATION_EXPECT_TYPES", false)
	cfg.Validation.AllowDefaultNS = getEnvBool("DICT_VALIDATION_ALLOW_DEFAULT_NAMESPACE", false)
	cfg.Validation.MaxDepth = getEnvInt("DICT_VALIDATION_MAX_DEPTH", 10)
	cfg.Validation.RequiredCacheSize = getEnvInt("DICT_VALIDATION_REQUIRED_CACHE_SIZE", 1000)
	cfg.Validation.TraversalTimeout = getEnvDuration("DICT_VALIDATION_TRAVERSAL_TIMEOUT", 5*time.Second)

	cfg.Logging.Level = getEnv("DICT_LOG_LEVEL", "info")

	return cfg
}

// LoadFromFile reads a YAML config file and overlays it onto the
// environment-derived defaults, so a file can override a subset of
// keys without repeating the rest.
func LoadFromFile(path string) (*Config, error) {
	cfg := LoadFromEnv()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects a Config with an unusable combination of settings
// before the engine starts.
func (c *Config) Validate() error {
	if c.Naming.CollectionTerm == "" {
		return fmt.Errorf("collection term name must not be empty")
	}
	if c.Naming.CollectionEdge == "" {
		return fmt.Errorf("collection edge name must not be empty")
	}
	if c.Naming.LocalIdentifier == "" {
		return fmt.Errorf("local identifier field name must not be empty")
	}
	if c.Storage.Backend != "memory" && c.Storage.Backend != "badger" {
		return fmt.Errorf("unknown storage backend: %q", c.Storage.Backend)
	}
	if c.Storage.Backend == "badger" && c.Storage.DataDir == "" {
		return fmt.Errorf("badger backend requires a data directory")
	}
	if c.Validation.MaxDepth <= 0 {
		return fmt.Errorf("invalid max depth: %d", c.Validation.MaxDepth)
	}
	return nil
}

// String returns a log-safe summary of c.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Backend: %s, DataDir: %s, MaxDepth: %d, DefaultNamespace: %s}",
		c.Storage.Backend, c.Storage.DataDir, c.Validation.MaxDepth, c.Naming.DefaultNamespace,
	)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(val)
		return val == "true" || val == "1" || val == "yes" || val == "on"
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(val); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultVal
}
