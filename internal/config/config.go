// Package config loads pipeline configuration from a CUE file.
//
// Every field has a default, so a missing config file is not an error: the
// pipeline runs against ./data with a local SQLite database out of the box.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// Error code constants for configuration loading.
const (
	ErrCodeNotFound    = "C001" // Config path not found
	ErrCodeLoadFailed  = "C002" // CUE load failed
	ErrCodeBuildFailed = "C003" // CUE build failed
	ErrCodeDecodeError = "C004" // CUE value did not decode into Config
	ErrCodeInvalid     = "C005" // Decoded config failed validation
)

// LoadError represents an error that occurred during config loading.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Backend kinds accepted by Storage.Backend.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Sources holds the five CSV input paths, relative to DataDir unless
// absolute.
type Sources struct {
	Contacts string `json:"contacts"`
	Places   string `json:"places"`
	Tags     string `json:"tags"`
	SFDC     string `json:"sfdc"`
	HubSpot  string `json:"hubspot"`
}

// Storage selects and parameterizes the storage backend.
type Storage struct {
	Backend string `json:"backend"` // "sqlite" or "postgres"
	Path    string `json:"path"`    // SQLite database file
	DSN     string `json:"dsn"`     // Postgres connection string
}

// Query holds execution bounds for the shorthand query layer.
type Query struct {
	PreviewLimit int `json:"previewLimit"`
	TimeoutMS    int `json:"timeoutMS"` // 0 means no deadline
}

// Config is the full pipeline configuration.
type Config struct {
	DataDir string  `json:"dataDir"`
	Sources Sources `json:"sources"`
	Storage Storage `json:"storage"`
	Query   Query   `json:"query"`
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	return &Config{
		DataDir: "data",
		Sources: Sources{
			Contacts: "contacts.csv",
			Places:   "places.csv",
			Tags:     "techstacks.csv",
			SFDC:     "customerA_mapping.csv",
			HubSpot:  "customerB_mapping.csv",
		},
		Storage: Storage{
			Backend: BackendSQLite,
			Path:    "flatdata.db",
		},
		Query: Query{
			PreviewLimit: 10,
			TimeoutMS:    0,
		},
	}
}

// Load reads a CUE config file and unifies it over the defaults. An empty
// path returns Default() unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("config file not found: %s", path)}
	}

	dir := filepath.Dir(path)
	instances := load.Instances([]string{filepath.Base(path)}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading %s: %v", path, inst.Err)}
	}

	ctx := cuecontext.New()
	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}
	if err := value.Decode(cfg); err != nil {
		return nil, &LoadError{Code: ErrCodeDecodeError, Message: fmt.Sprintf("decoding config: %v", err)}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case BackendSQLite, BackendPostgres:
	default:
		return &LoadError{Code: ErrCodeInvalid,
			Message: fmt.Sprintf("unknown storage backend %q (want %q or %q)",
				c.Storage.Backend, BackendSQLite, BackendPostgres)}
	}
	if c.Storage.Backend == BackendPostgres && c.Storage.DSN == "" {
		return &LoadError{Code: ErrCodeInvalid, Message: "postgres backend requires storage.dsn"}
	}
	if c.Query.PreviewLimit < 0 {
		return &LoadError{Code: ErrCodeInvalid, Message: "query.previewLimit must not be negative"}
	}
	if c.Query.TimeoutMS < 0 {
		return &LoadError{Code: ErrCodeInvalid, Message: "query.timeoutMS must not be negative"}
	}
	return nil
}

// SourcePath resolves a source file name against DataDir. Absolute names
// are used as-is.
func (c *Config) SourcePath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// QueryTimeout returns the configured per-query deadline, zero for none.
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.Query.TimeoutMS) * time.Millisecond
}
