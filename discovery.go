// FILE: okube-ai/settus/discovery.go
package settus

import (
	"os"
	"path/filepath"
	"strings"
)

// EnvFileDiscoveryOptions configures automatic .env file discovery
type EnvFileDiscoveryOptions struct {
	// File names to try in each directory (in order)
	Names []string

	// Custom search paths (in addition to defaults)
	Paths []string

	// Environment variable to check for explicit path
	EnvVar string

	// CLI flag to check (e.g., "--env-file")
	CLIFlag string

	// Whether to search in XDG config directories
	UseXDG bool

	// Whether to search in current directory and its parents
	UseCurrentDir bool

	// AppName is the XDG subdirectory
	AppName string
}

// DefaultEnvFileDiscoveryOptions returns sensible defaults
func DefaultEnvFileDiscoveryOptions(appName string) EnvFileDiscoveryOptions {
	return EnvFileDiscoveryOptions{
		Names:         []string{".env"},
		EnvVar:        strings.ToUpper(appName) + "_ENV_FILE",
		CLIFlag:       "--env-file",
		UseXDG:        true,
		UseCurrentDir: true,
		AppName:       appName,
	}
}

// DiscoverEnvFile locates a .env file. The CLI flag wins, then the
// environment variable, then the first existing file along the search paths.
// It returns "" when nothing is found.
func DiscoverEnvFile(opts EnvFileDiscoveryOptions, args []string) string {
	// Check CLI args first (highest priority)
	if opts.CLIFlag != "" {
		for i, arg := range args {
			if arg == opts.CLIFlag && i+1 < len(args) {
				return args[i+1]
			}
			if path, found := strings.CutPrefix(arg, opts.CLIFlag+"="); found {
				return path
			}
		}
	}

	// Check environment variable
	if opts.EnvVar != "" {
		if path := os.Getenv(opts.EnvVar); path != "" {
			return path
		}
	}

	var searchPaths []string
	searchPaths = append(searchPaths, opts.Paths...)

	// Current directory, then its parents up to the filesystem root
	if opts.UseCurrentDir {
		if cwd, err := os.Getwd(); err == nil {
			for dir := cwd; ; dir = filepath.Dir(dir) {
				searchPaths = append(searchPaths, dir)
				if filepath.Dir(dir) == dir {
					break
				}
			}
		}
	}

	if opts.UseXDG && opts.AppName != "" {
		searchPaths = append(searchPaths, getXDGConfigPaths(opts.AppName)...)
	}

	for _, dir := range searchPaths {
		for _, name := range opts.Names {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path
			}
		}
	}

	// No file found is not an error, the dotenv source stays empty
	return ""
}

// WithEnvFileDiscovery appends the discovered .env file, if any, to the env
// files read by the dotenv source
func (b *Builder) WithEnvFileDiscovery(opts EnvFileDiscoveryOptions) *Builder {
	if path := DiscoverEnvFile(opts, b.args); path != "" {
		b.logger.Debug("env file discovered", "path", path)
		return b.WithEnvFile(path)
	}
	return b
}

// getXDGConfigPaths returns XDG-compliant config search paths
func getXDGConfigPaths(appName string) []string {
	var paths []string

	// XDG_CONFIG_HOME
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		paths = append(paths, filepath.Join(xdgHome, appName))
	} else if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", appName))
	}

	// XDG_CONFIG_DIRS
	if xdgDirs := os.Getenv("XDG_CONFIG_DIRS"); xdgDirs != "" {
		for _, dir := range filepath.SplitList(xdgDirs) {
			paths = append(paths, filepath.Join(dir, appName))
		}
	} else {
		paths = append(paths, filepath.Join("/etc/xdg", appName))
	}

	return paths
}
