package config

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/asynciter/logger"
)

// FileSystem is the file access the loader needs. Tests substitute it.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem reads the local disk.
type RealFileSystem struct{}

// Exists reports whether path can be stat'ed.
func (RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadEnv loads a .env file into the process environment without
// overriding variables that are already set.
func (RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// Resolver locates the config.yml and .env files of a binary.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles holds the files a load will read. Empty means none found.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// upLevels are the relative prefixes tried for every search directory, so
// a binary or test run from a nested package still finds the repo files.
var upLevels = []string{"./", "../", "../../"}

// ResolveFiles returns the explicit paths in opts, searching for whichever
// is missing.
//
// Directories are tried in order: cmd/<name>, cmd/<short>, config/<name>,
// config and the working directory, each also one and two levels up.
// <short> is the part of the name after its last dash, so "async-drain"
// also finds cmd/drain. Env files named .env.<name> win over plain .env.
func (r *Resolver) ResolveFiles(serviceName string, opts LoaderConfig) ResolvedFiles {
	files := ResolvedFiles{ConfigFile: opts.ConfigFile, EnvFile: opts.EnvFile}
	dirs := searchDirs(serviceName)

	if files.ConfigFile == "" {
		files.ConfigFile = r.first(candidates(dirs, "config.yml"))
	}
	if files.EnvFile == "" {
		envCandidates := candidates(dirs, ".env."+serviceName)
		envCandidates = append(envCandidates, candidates(dirs, ".env")...)
		files.EnvFile = r.first(envCandidates)
	}
	return files
}

func (r *Resolver) first(paths []string) string {
	for _, p := range paths {
		if r.FileSystem.Exists(p) {
			return p
		}
	}
	return ""
}

func searchDirs(serviceName string) []string {
	dirs := []string{"cmd/" + serviceName}
	short := serviceName
	if i := strings.LastIndex(serviceName, "-"); i != -1 {
		short = serviceName[i+1:]
		dirs = append(dirs, "cmd/"+short)
	}
	return append(dirs, "config/"+serviceName, "config", "")
}

func candidates(dirs []string, file string) []string {
	out := make([]string, 0, len(dirs)*len(upLevels))
	for _, dir := range dirs {
		for _, up := range upLevels {
			out = append(out, up+path.Join(dir, file))
		}
	}
	return out
}

// LoaderConfig holds the loader's file system and optional explicit paths.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
}

// LoaderOption configures LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem replaces the file system used for lookups.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile skips the search and reads path instead.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile skips the search and loads path instead.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// Defaulter is implemented by configs that fill in defaults and check
// themselves once loaded. ServiceConfig satisfies it and so does any struct
// embedding it.
type Defaulter interface {
	ApplyDefaults()
	Validate() error
}

// Load loads configuration for serviceName into cfg, then applies defaults
// and validates the result.
func Load(serviceName string, cfg Defaulter, opts ...LoaderOption) error {
	if err := LoadConfig(serviceName, cfg, opts...); err != nil {
		return err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config for service %s: %w", serviceName, err)
	}
	return nil
}

// LoadConfig unmarshals configuration for serviceName into cfg without
// defaulting or validating it.
//
// Sources, lowest precedence first: config.yml, the .env file, the process
// environment. An unreadable file is logged and skipped. Environment keys
// map onto nested fields, so ITERATOR_CHECK_TIMEOUT sets iterator.check_timeout.
func LoadConfig(serviceName string, cfg interface{}, opts ...LoaderOption) error {
	lc := LoaderConfig{FileSystem: RealFileSystem{}}
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = RealFileSystem{}
	}

	files := (&Resolver{FileSystem: lc.FileSystem}).ResolveFiles(serviceName, lc)
	v := viper.New()

	if files.ConfigFile != "" && lc.FileSystem.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			logger.Warn("failed to load config file", logger.MergeWithError(
				logger.Fields("file", files.ConfigFile), err))
		}
	}

	// The .env file only adds variables, so it is loaded before binding.
	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			logger.Warn("failed to load env file", logger.MergeWithError(
				logger.Fields("file", files.EnvFile), err))
		}
	}
	v.AutomaticEnv()
	bindEnv(v, os.Environ())

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config for service %s: %w", serviceName, err)
	}
	return nil
}

// bindEnv sets every KEY=value pair under each nested key it could name.
func bindEnv(v *viper.Viper, environ []string) {
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		for _, variant := range generateEnvKeyVariants(key) {
			v.Set(variant, value)
		}
	}
}

// generateEnvKeyVariants lists the viper keys an environment variable may
// address. Underscores are ambiguous between nesting and field names, so
// every split is produced:
//
//	ITERATOR_SETTLE_TIMEOUT -> iterator_settle_timeout, iterator.settle.timeout,
//	                           iterator.settle_timeout, iterator_settle.timeout
func generateEnvKeyVariants(envKey string) []string {
	lower := strings.ToLower(envKey)
	parts := strings.Split(lower, "_")
	if len(parts) == 1 {
		return []string{lower}
	}

	seen := map[string]bool{}
	var variants []string
	add := func(k string) {
		if !seen[k] {
			seen[k] = true
			variants = append(variants, k)
		}
	}

	add(lower)
	add(strings.Join(parts, "."))
	for i := 1; i < len(parts); i++ {
		add(strings.Join(parts[:i], ".") + "." + strings.Join(parts[i:], "_"))
	}
	for i := len(parts) - 1; i > 0; i-- {
		add(strings.Join(parts[:i], "_") + "." + strings.Join(parts[i:], "."))
	}
	return variants
}
