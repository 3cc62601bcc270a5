// Package config loads the daemon's configuration from a gcfg-style
// INI file (the same library and [Section] convention the ingest
// daemon uses) and fills values the file leaves unset from environment
// variables, with the ingest daemon's "_FILE" suffix convention for
// secrets/values that operators would rather not put directly in the
// environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/gravwell/gcfg"
	"github.com/inhies/go-bytesize"
)

const (
	DefaultBind            = "0.0.0.0:8080"
	DefaultSessionTTLHours = 72
	DefaultSweepPeriod     = 15 * time.Minute
	DefaultMaxUploadSize   = 256 * bytesize.MB
	DefaultLogLevel        = "INFO"
)

var (
	ErrMissingDataDirectory = errors.New("Data-Directory value missing")
	ErrInvalidLogLevel      = errors.New("invalid Log-Level value")
)

// fileConfig mirrors the on-disk [Global] section exactly; field names
// use underscores where the file uses hyphens, matching gcfg's
// hyphen-folding key matching.
type fileConfig struct {
	Global struct {
		Data_Directory       string
		Bind                 string
		Session_TTL_Hours    uint64
		Sweep_Period         string
		Max_Upload_Size      string
		Log_File             string
		Log_Level            string
		CORS_Allowed_Origins []string
	}
}

// Config is the fully resolved, validated configuration the daemon
// runs with.
type Config struct {
	DataDirectory      string
	Bind               string
	SessionTTL         time.Duration
	SweepPeriod        time.Duration
	MaxUploadSize      int64
	LogFile            string
	LogLevel           string
	CORSAllowedOrigins []string
}

// Load reads path as a gcfg file, fills values the file leaves unset
// from environment variables, fills in defaults, and validates the
// result.
func Load(path string) (*Config, error) {
	var fc fileConfig
	if err := gcfg.ReadFileInto(&fc, path); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return resolve(fc)
}

// LoadBytes is the same as Load but reads an already-in-memory file,
// used by tests.
func LoadBytes(b []byte) (*Config, error) {
	var fc fileConfig
	if err := gcfg.ReadStringInto(&fc, string(b)); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return resolve(fc)
}

func resolve(fc fileConfig) (*Config, error) {
	g := fc.Global

	if err := LoadEnvVar(&g.Data_Directory, "SECSTRACE_DATA_DIR", g.Data_Directory); err != nil {
		return nil, fmt.Errorf("SECSTRACE_DATA_DIR: %w", err)
	}
	if err := LoadEnvVar(&g.Bind, "SECSTRACE_BIND", orDefault(g.Bind, DefaultBind)); err != nil {
		return nil, fmt.Errorf("SECSTRACE_BIND: %w", err)
	}
	if err := LoadEnvVar(&g.Log_Level, "SECSTRACE_LOG_LEVEL", orDefault(g.Log_Level, DefaultLogLevel)); err != nil {
		return nil, fmt.Errorf("SECSTRACE_LOG_LEVEL: %w", err)
	}

	if g.Data_Directory == "" {
		return nil, ErrMissingDataDirectory
	}

	ttlHours := g.Session_TTL_Hours
	if ttlHours == 0 {
		ttlHours = DefaultSessionTTLHours
	}

	sweep := DefaultSweepPeriod
	if g.Sweep_Period != "" {
		d, err := time.ParseDuration(g.Sweep_Period)
		if err != nil {
			return nil, fmt.Errorf("Sweep-Period: %w", err)
		}
		sweep = d
	}

	maxUpload := DefaultMaxUploadSize
	if g.Max_Upload_Size != "" {
		sz, err := bytesize.Parse(g.Max_Upload_Size)
		if err != nil {
			return nil, fmt.Errorf("Max-Upload-Size: %w", err)
		}
		maxUpload = sz
	}

	if !validLogLevel(g.Log_Level) {
		return nil, ErrInvalidLogLevel
	}

	origins := g.CORS_Allowed_Origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return &Config{
		DataDirectory:      g.Data_Directory,
		Bind:               g.Bind,
		SessionTTL:         time.Duration(ttlHours) * time.Hour,
		SweepPeriod:        sweep,
		MaxUploadSize:      int64(maxUpload),
		LogFile:            g.Log_File,
		LogLevel:           g.Log_Level,
		CORSAllowedOrigins: origins,
	}, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func validLogLevel(s string) bool {
	switch s {
	case "OFF", "DEBUG", "INFO", "WARN", "ERROR":
		return true
	default:
		return false
	}
}
