package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix of every setting.
const envPrefix = "POSLIST"

// Sentinel errors wrapped by Load.
var (
	ErrConfigFileNotFound = stderrors.New("config file not found")
	ErrConfigParseError   = stderrors.New("config file could not be parsed")
	ErrConfigValidation   = stderrors.New("config validation failed")
)

type loadOptions struct {
	path        string
	searchPaths []string
	overrides   map[string]interface{}
}

// LoadOption customises Load.
type LoadOption func(*loadOptions)

// WithConfigPath reads exactly this file; a missing file is an error.
func WithConfigPath(path string) LoadOption {
	return func(o *loadOptions) { o.path = path }
}

// WithSearchPaths replaces the directories searched for poslist.yaml.
func WithSearchPaths(dirs ...string) LoadOption {
	return func(o *loadOptions) { o.searchPaths = dirs }
}

// WithOverrides sets keys above file and environment values.  Command-line
// flags that were explicitly given arrive here.
func WithOverrides(kv map[string]interface{}) LoadOption {
	return func(o *loadOptions) {
		if o.overrides == nil {
			o.overrides = make(map[string]interface{})
		}
		for k, v := range kv {
			o.overrides[k] = v
		}
	}
}

// DefaultSearchPaths are the current directory and $HOME/.poslist.
func DefaultSearchPaths() []string {
	dirs := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".poslist"))
	}
	return dirs
}

// newViper builds a Viper with YAML files, the POSLIST_ env prefix and a
// "." to "_" key replacer, so "output.format" resolves to
// POSLIST_OUTPUT_FORMAT.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for k, val := range defaultValues {
		v.SetDefault(k, val)
	}
	return v
}

// Load resolves the configuration.  Precedence, lowest first: defaults, the
// YAML file, POSLIST_* variables, overrides.  Without WithConfigPath the
// search paths are checked for poslist.yaml (or config.yaml under
// $HOME/.poslist) and a missing file is not an error.
func Load(opts ...LoadOption) (*Config, error) {
	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}

	v := newViper()
	if o.path != "" {
		if _, err := os.Stat(o.path); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrConfigFileNotFound, o.path)
		}
		v.SetConfigFile(o.path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrConfigParseError, o.path, err)
		}
	} else if path := search(o.searchPaths); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrConfigParseError, path, err)
		}
	}

	for k, val := range o.overrides {
		v.Set(k, val)
	}
	return unmarshalAndFinalize(v)
}

// ConfigFileUsed reports which file Load would read with the given options.
func ConfigFileUsed(opts ...LoadOption) string {
	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.path != "" {
		return o.path
	}
	return search(o.searchPaths)
}

func search(dirs []string) string {
	if dirs == nil {
		dirs = DefaultSearchPaths()
	}
	for _, dir := range dirs {
		for _, name := range []string{"poslist.yaml", "config.yaml"} {
			if name == "config.yaml" && filepath.Base(dir) != ".poslist" {
				continue
			}
			p := filepath.Join(dir, name)
			if st, err := os.Stat(p); err == nil && !st.IsDir() {
				return p
			}
		}
	}
	return ""
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParseError, err)
	}
	ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigValidation, err)
	}
	return cfg, nil
}
