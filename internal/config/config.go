package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// Fixed pipeline parameters.
const (
	// XComponents is the horizontal component count passed to the encoder.
	XComponents = 4

	// YComponents is the vertical component count passed to the encoder.
	YComponents = 3

	// ManifestFileName is the name of the manifest written inside the source directory.
	ManifestFileName = "cards.json"

	// AppName is the application name used for XDG directory paths.
	AppName = "cardhash"
)

// AllowedExtensions is the extension allow-list for source images.
// Matching is case-insensitive.
var AllowedExtensions = []string{".jpg", ".png"}

// Default configuration values.
const (
	// DefaultWorkers keeps processing strictly sequential.
	DefaultWorkers = 1

	// MaxWorkers bounds --workers. Decoding holds a full bitmap per worker,
	// so very high values only trade memory for nothing.
	MaxWorkers = 64
)

// Config holds all configuration options for one manifest generation run.
// It is populated from the config file and CLI flags, then passed down
// explicitly rather than kept in global state.
type Config struct {
	// Directory is the source directory to scan.
	Directory string

	// Workers is the number of files processed concurrently.
	// 1 means strictly sequential processing.
	Workers int

	// KeepGoing collects per-file failures instead of aborting the run.
	// When false, the first failing file aborts the run and no manifest is written.
	KeepGoing bool

	// ExcludePatterns are glob patterns (path.Match syntax) matched against
	// file base names; matching files are skipped before encoding.
	ExcludePatterns []string

	// UseCache enables the hash cache in the run store.
	UseCache bool

	// RecordHistory records the run in the run store.
	RecordHistory bool

	// DBDir is the directory holding the SQLite run store.
	DBDir string

	// LockDir is the directory holding per-directory lock files.
	LockDir string

	// ReportFile is an optional Markdown run report path.
	ReportFile string

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the path to the configuration file, if any.
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Workers:       DefaultWorkers,
		UseCache:      true,
		RecordHistory: true,
		DBDir:         XDGDataDir(),
		LockDir:       filepath.Join(XDGCacheDir(), "locks"),
	}
}

// Apply merges a directory configuration from the config file into c.
// Only values that are set in dc are applied. Out-of-range values are
// applied as well so Validate reports them.
func (c *Config) Apply(dc DirectoryConfig) {
	if dc.Workers != 0 {
		c.Workers = dc.Workers
	}
	if dc.KeepGoing != nil {
		c.KeepGoing = *dc.KeepGoing
	}
	if len(dc.ExcludePatterns) > 0 {
		c.ExcludePatterns = dc.ExcludePatterns
	}
	if dc.Cache != nil {
		c.UseCache = *dc.Cache
	}
	if dc.History != nil {
		c.RecordHistory = *dc.History
	}
}

// XDGDataDir returns the XDG data directory for cardhash.
// On Linux: ~/.local/share/cardhash
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for cardhash.
// On Linux: ~/.config/cardhash
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for cardhash.
// On Linux: ~/.cache/cardhash
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found.
func (c *Config) Validate() error {
	if c.Directory == "" {
		return ErrNoDirectory
	}
	if c.Workers <= 0 || c.Workers > MaxWorkers {
		return ErrInvalidWorkers
	}
	for _, p := range c.ExcludePatterns {
		if !validPattern(p) {
			return ErrInvalidPattern
		}
	}
	if c.UseCache || c.RecordHistory {
		if c.DBDir == "" {
			return ErrNoDBDir
		}
	}
	return nil
}
