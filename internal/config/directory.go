package config

import "path"

// DirectoryConfig holds overrides for one source directory.
// Pointer fields distinguish "unset" from an explicit false.
type DirectoryConfig struct {
	// Workers overrides the number of concurrent workers.
	Workers int `yaml:"workers,omitempty"`

	// KeepGoing overrides the failure policy.
	KeepGoing *bool `yaml:"keepGoing,omitempty"`

	// ExcludePatterns are base-name globs to skip.
	ExcludePatterns []string `yaml:"excludePatterns,omitempty"`

	// Cache enables or disables the hash cache.
	Cache *bool `yaml:"cache,omitempty"`

	// History enables or disables run history.
	History *bool `yaml:"history,omitempty"`
}

// File represents the structure of the .cardhash configuration file.
type File struct {
	// Directories maps directory paths to their overrides.
	Directories map[string]DirectoryConfig `yaml:"directories,omitempty"`

	// Defaults apply to every directory unless overridden.
	Defaults DirectoryConfig `yaml:"defaults,omitempty"`
}

// GetDirectoryConfig returns the configuration for dir, merging the
// directory-specific entry over the defaults.
func (cf *File) GetDirectoryConfig(dir string) DirectoryConfig {
	result := cf.Defaults

	dc, ok := cf.Directories[dir]
	if !ok {
		dc, ok = cf.Directories[path.Clean(dir)]
	}
	if !ok {
		return result
	}

	if dc.Workers != 0 {
		result.Workers = dc.Workers
	}
	if dc.KeepGoing != nil {
		result.KeepGoing = dc.KeepGoing
	}
	if len(dc.ExcludePatterns) > 0 {
		result.ExcludePatterns = dc.ExcludePatterns
	}
	if dc.Cache != nil {
		result.Cache = dc.Cache
	}
	if dc.History != nil {
		result.History = dc.History
	}
	return result
}

// validPattern reports whether p is a well-formed path.Match pattern.
func validPattern(p string) bool {
	if p == "" {
		return false
	}
	_, err := path.Match(p, "")
	return err == nil
}
