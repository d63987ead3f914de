package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Alphabet modes for alias generation
const (
	AlphabetInvisible = "invisible"
	AlphabetVisible   = "visible"
	AlphabetCustom    = "custom"
)

// EnvPrefix is the prefix of environment variables that override config keys
// (e.g. BLEACH_ALIAS_ALPHABET=visible).
const EnvPrefix = "BLEACH"

// DefaultConfigFile is looked up in the working directory when no path is given.
const DefaultConfigFile = "bleach.yaml"

// --- Nested Configuration Structs ---

// AliasConfig defines how aliases are spelled.
type AliasConfig struct {
	Alphabet string   `yaml:"alphabet" mapstructure:"alphabet"` // 'invisible', 'visible' or 'custom'
	Symbols  []string `yaml:"symbols,omitempty" mapstructure:"symbols"`
	Prefix   string   `yaml:"prefix,omitempty" mapstructure:"prefix"`
}

// RewriteConfig tunes the rewrite engine.
type RewriteConfig struct {
	// KeepPunctuation leaves operators other than ( ) , unaliased.
	KeepPunctuation bool `yaml:"keep_punctuation" mapstructure:"keep_punctuation"`
	// ExemptDirectives lists directives besides #define whose following name
	// is emitted literally.
	ExemptDirectives []string `yaml:"exempt_directives" mapstructure:"exempt_directives"`
}

// PreserveConfig lists identifiers that are never aliased.
type PreserveConfig struct {
	Identifiers []string `yaml:"identifiers" mapstructure:"identifiers"`
	Prefixes    []string `yaml:"prefixes" mapstructure:"prefixes"`
}

// MappingConfig controls the optional alias mapping file.
type MappingConfig struct {
	File string `yaml:"file,omitempty" mapstructure:"file"`
	// Key is a hex encoded 32 byte key; when set the mapping file is sealed.
	Key string `yaml:"key,omitempty" mapstructure:"key"`
}

// Config holds all configuration settings for the bleacher.
type Config struct {
	Silent       bool `yaml:"silent" mapstructure:"silent"`                 // Suppress informational messages
	DebugMode    bool `yaml:"debug_mode" mapstructure:"debug_mode"`         // Log every consumed token
	AbortOnError bool `yaml:"abort_on_error" mapstructure:"abort_on_error"` // Stop a directory run on the first failing file

	// Directory mode
	Extensions []string `yaml:"extensions" mapstructure:"extensions"` // File extensions to bleach, without the dot
	SkipPaths  []string `yaml:"skip" mapstructure:"skip"`             // Glob patterns of paths to ignore entirely

	Alias    AliasConfig    `yaml:"alias" mapstructure:"alias"`
	Rewrite  RewriteConfig  `yaml:"rewrite" mapstructure:"rewrite"`
	Preserve PreserveConfig `yaml:"preserve" mapstructure:"preserve"`
	Mapping  MappingConfig  `yaml:"mapping" mapstructure:"mapping"`
}

var (
	// Testing controls whether output is suppressed for testing purposes
	Testing bool
)

// PrintInfo prints informational output unless running under tests.
func PrintInfo(format string, args ...interface{}) {
	if !Testing {
		fmt.Printf(format, args...)
	}
}

// DefaultConfig returns a configuration with default settings.
func DefaultConfig() *Config {
	return &Config{
		Silent:       false,
		DebugMode:    false,
		AbortOnError: true,
		Extensions:   []string{"c", "h", "cc", "cpp", "cxx", "hh", "hpp", "hxx", "inl"},
		SkipPaths:    []string{".git", ".svn", "*.o", "*.a", "*.so"},
		Alias: AliasConfig{
			Alphabet: AlphabetInvisible,
		},
		Rewrite: RewriteConfig{
			KeepPunctuation:  false,
			ExemptDirectives: []string{"undef", "ifdef", "ifndef"},
		},
		Preserve: PreserveConfig{
			Identifiers: []string{"__VA_ARGS__", "__VA_OPT__"},
			Prefixes:    []string{},
		},
	}
}

// LoadConfig reads configuration from a YAML file and applies BLEACH_*
// environment overrides on top of it.
//
// An empty path looks for bleach.yaml in the working directory; a missing
// default file is not an error, a missing explicit file is.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := configPath != ""
	if !explicit {
		configPath = DefaultConfigFile
	}

	if _, err := os.Stat(configPath); err == nil {
		yamlFile, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configPath, err)
		}
		if err := yaml.Unmarshal(yamlFile, cfg); err != nil {
			return nil, fmt.Errorf("error unmarshalling config file %s: %w", configPath, err)
		}
		if !cfg.Silent {
			PrintInfo("Info: Loaded configuration from %s\n", configPath)
		}
	} else if os.IsNotExist(err) {
		if explicit {
			return nil, fmt.Errorf("specified config file not found: %s", configPath)
		}
	} else {
		return nil, fmt.Errorf("error checking config file %s: %w", configPath, err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig saves the default configuration to a file.
func SaveConfig(configPath string) error {
	cfg := DefaultConfig()
	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshalling default config: %w", err)
	}
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating directory for config file %s: %w", configPath, err)
	}
	if err := os.WriteFile(configPath, yamlData, 0644); err != nil {
		return fmt.Errorf("error writing config file %s: %w", configPath, err)
	}
	PrintInfo("Info: Saved default configuration to %s\n", configPath)
	return nil
}

// envKeys are the config keys that may be overridden from the environment.
var envKeys = []string{
	"silent",
	"debug_mode",
	"abort_on_error",
	"extensions",
	"skip",
	"alias.alphabet",
	"alias.symbols",
	"alias.prefix",
	"rewrite.keep_punctuation",
	"rewrite.exempt_directives",
	"preserve.identifiers",
	"preserve.prefixes",
	"mapping.file",
	"mapping.key",
}

// Helper to explicitly bind environment variables, handling potential key mismatches
func bindEnv(v *viper.Viper, key string) {
	envKey := strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
	_ = v.BindEnv(key, EnvPrefix+"_"+envKey)
}

// applyEnv overrides cfg fields with BLEACH_* environment variables. Only
// variables that are actually set replace the file/default values.
func applyEnv(cfg *Config) error {
	v := viper.New()
	for _, key := range envKeys {
		bindEnv(v, key)
	}

	if v.IsSet("silent") {
		cfg.Silent = v.GetBool("silent")
	}
	if v.IsSet("debug_mode") {
		cfg.DebugMode = v.GetBool("debug_mode")
	}
	if v.IsSet("abort_on_error") {
		cfg.AbortOnError = v.GetBool("abort_on_error")
	}
	if v.IsSet("extensions") {
		cfg.Extensions = splitList(v.GetString("extensions"))
	}
	if v.IsSet("skip") {
		cfg.SkipPaths = splitList(v.GetString("skip"))
	}
	if v.IsSet("alias.alphabet") {
		cfg.Alias.Alphabet = v.GetString("alias.alphabet")
	}
	if v.IsSet("alias.symbols") {
		cfg.Alias.Symbols = splitList(v.GetString("alias.symbols"))
	}
	if v.IsSet("alias.prefix") {
		cfg.Alias.Prefix = v.GetString("alias.prefix")
	}
	if v.IsSet("rewrite.keep_punctuation") {
		cfg.Rewrite.KeepPunctuation = v.GetBool("rewrite.keep_punctuation")
	}
	if v.IsSet("rewrite.exempt_directives") {
		cfg.Rewrite.ExemptDirectives = splitList(v.GetString("rewrite.exempt_directives"))
	}
	if v.IsSet("preserve.identifiers") {
		cfg.Preserve.Identifiers = splitList(v.GetString("preserve.identifiers"))
	}
	if v.IsSet("preserve.prefixes") {
		cfg.Preserve.Prefixes = splitList(v.GetString("preserve.prefixes"))
	}
	if v.IsSet("mapping.file") {
		cfg.Mapping.File = v.GetString("mapping.file")
	}
	if v.IsSet("mapping.key") {
		cfg.Mapping.Key = v.GetString("mapping.key")
	}

	switch strings.ToLower(cfg.Alias.Alphabet) {
	case "", AlphabetInvisible, AlphabetVisible, AlphabetCustom:
	default:
		return fmt.Errorf("invalid alias alphabet %q (want %s, %s or %s)",
			cfg.Alias.Alphabet, AlphabetInvisible, AlphabetVisible, AlphabetCustom)
	}
	return nil
}

// splitList splits a comma or space separated environment value.
func splitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
