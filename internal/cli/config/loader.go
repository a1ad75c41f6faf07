package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store logger in context.
// This key is shared with root.go via both using the same type.
type loggerKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "ATHCONF_"

// configNames are the config file names looked up in the project root.
var configNames = []string{"athconf.yaml", "athconf.yml"}

// pathFlags maps path flags to the config keys they set.
var pathFlags = map[string]string{
	"makefile-template": "makefile_template",
	"makefile-output":   "makefile_output",
	"defs-template":     "defs_template",
	"defs-output":       "defs_output",
	"pgen-dir":          "pgen_dir",
}

// configKeys are the top-level keys a flag may set.
var configKeys = map[string]bool{
	"project_dir":       true,
	"makefile_template": true,
	"makefile_output":   true,
	"defs_template":     true,
	"defs_output":       true,
	"pgen_dir":          true,
	"verbose":           true,
	"output":            true,
}

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config // Stores the loaded config for access by commands
)

// configExistsIn reports the athconf config file in dir, if any.
func configExistsIn(dir string) string {
	for _, name := range configNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findProjectRootUpward searches upward from startDir for an athconf config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findProjectRootUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if configExistsIn(dir) != "" {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}
	return ""
}

func absOrClean(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// inferProjectRoot determines the project root.
// Priority:
//  1. Explicit --project-dir flag
//  2. ATHCONF_PROJECT_DIR
//  3. Directory of an explicit --config file
//  4. Search upward from CWD for athconf.yaml
//  5. Current working directory
func inferProjectRoot(cfgFile string, flags *pflag.FlagSet) string {
	if flags != nil && flags.Changed("project-dir") {
		if projectDir, _ := flags.GetString("project-dir"); projectDir != "" {
			return absOrClean(projectDir)
		}
	}

	if projectDir := os.Getenv(EnvPrefix + "PROJECT_DIR"); projectDir != "" {
		return absOrClean(projectDir)
	}

	if cfgFile != "" {
		return filepath.Dir(absOrClean(cfgFile))
	}

	cwd, err := os.Getwd()
	if err != nil || cwd == "" {
		return "."
	}
	if root := findProjectRootUpward(cwd); root != "" {
		return root
	}
	return cwd
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// envKey maps ATHCONF_MAKEFILE_OUTPUT to makefile_output and
// ATHCONF_OPTIONS_EOS to options.eos.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if name, ok := strings.CutPrefix(key, "options_"); ok {
		return "options." + name
	}
	return key
}

// flagKey maps a changed flag to its config key. Selection flags carry
// OptionFlagAnnotation and land under "options"; their raw text is kept so the
// selection resolver sees exactly what the user typed.
func flagKey(flags *pflag.FlagSet, f *pflag.Flag) (string, interface{}) {
	// Only load flags that were explicitly set
	if !f.Changed {
		return "", nil
	}
	if _, ok := f.Annotations[OptionFlagAnnotation]; ok {
		return "options." + f.Name, f.Value.String()
	}
	// Transform kebab-case to snake_case for config keys
	key := strings.ReplaceAll(f.Name, "-", "_")
	if !configKeys[key] {
		return "", nil
	}
	return key, posflag.FlagVal(flags, f)
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
	unusedKeys = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")
	configFileUsed = ""

	projectRoot := inferProjectRoot(cfgFile, flags)

	// Paths given as flags are relative to the CWD, not the project root.
	flagPaths := make(map[string]string)
	if flags != nil {
		for name, key := range pathFlags {
			if !flags.Changed(name) {
				continue
			}
			if v, _ := flags.GetString(name); v != "" {
				flagPaths[key] = absOrClean(v)
			}
		}
	}

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"makefile_template": DefaultMakefileTemplate,
		"makefile_output":   DefaultMakefileOutput,
		"defs_template":     DefaultDefsTemplate,
		"defs_output":       DefaultDefsOutput,
		"pgen_dir":          DefaultPgenDir,
		"verbose":           false,
		"output":            DefaultOutput,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	if cfgFile == "" {
		cfgFile = configExistsIn(projectRoot)
	}
	configFileUsed = cfgFile
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables (ATHCONF_ prefix)
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			return flagKey(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct. Env values are strings and YAML
	// selections may be bools or ints, so decode weakly.
	var cfg Config
	var meta mapstructure.Metadata
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
			Metadata:         &meta,
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 6. Set project root and resolve relative paths
	cfg.ProjectRoot = projectRoot
	for key, field := range map[string]*string{
		"makefile_template": &cfg.MakefileTemplate,
		"makefile_output":   &cfg.MakefileOutput,
		"defs_template":     &cfg.DefsTemplate,
		"defs_output":       &cfg.DefsOutput,
		"pgen_dir":          &cfg.PgenDir,
	} {
		if v, ok := flagPaths[key]; ok {
			*field = v
			continue
		}
		*field = resolvePathRelativeTo(*field, projectRoot)
	}
	if cfg.Options == nil {
		cfg.Options = map[string]string{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Store config for access by commands
	currentConfig = &cfg
	unusedKeys = meta.Unused

	return &cfg, nil
}

// unusedKeys are config keys the last load did not recognize.
var unusedKeys []string

// UnusedKeys returns keys from the last load that matched no config field,
// typically misspelled entries in athconf.yaml.
func UnusedKeys() []string {
	return unusedKeys
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}
