package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/arthur-debert/stager/pkg/errors"
	"github.com/arthur-debert/stager/pkg/logging"
)

// EnvPrefix starts every environment variable read by Load.
const EnvPrefix = "STAGER_"

// LoadOptions adjusts where Load reads from.
type LoadOptions struct {
	// Path is an explicit config file, which must exist. Empty means the
	// user file under $XDG_CONFIG_HOME, skipped when absent.
	Path string
	// Overrides are dotted keys applied last, e.g. "staging.work_root".
	Overrides map[string]interface{}
	// SkipUserFile ignores the default user file. An explicit Path is
	// still read.
	SkipUserFile bool
	// SkipEnv ignores STAGER_ environment variables.
	SkipEnv bool
}

// UserConfigPath returns the default location of the user config file.
func UserConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "stager", "config.toml")
}

// DefaultWorkRoot is used when staging.work_root is left empty.
func DefaultWorkRoot() string {
	return filepath.Join(xdg.CacheHome, "stager", "work")
}

// Default returns the embedded defaults, fully resolved.
func Default() *Config {
	cfg, err := Load(LoadOptions{SkipUserFile: true, SkipEnv: true})
	if err != nil {
		// The embedded file is part of the binary; failing to decode it is a
		// build defect.
		panic(err)
	}
	return cfg
}

// Load merges every configuration layer, decodes and validates the result.
func Load(opts LoadOptions) (*Config, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load defaults")
	}

	// 2. User file
	if path, required := opts.userFile(); path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to load config from %s", path).
					WithDetail("path", path)
			}
			logger.Debug().Str("path", path).Msg("Loaded config file")
		} else if required {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "config file %s is not readable", path).
				WithDetail("path", path)
		}
	}

	// 3. Environment
	if !opts.SkipEnv {
		if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load env vars")
		}
	}

	// 4. Explicit overrides
	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load overrides")
		}
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to unmarshal configuration")
	}

	postProcess(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// userFile returns the file to read and whether it must exist.
func (o LoadOptions) userFile() (string, bool) {
	switch {
	case o.Path != "":
		return o.Path, true
	case o.SkipUserFile:
		return "", false
	default:
		return UserConfigPath(), false
	}
}

// envKey maps STAGER_SECTION_SOME_KEY to section.some_key. Substitution
// variables are addressed as STAGER_SUBSTITUTION_VARIABLES_<NAME>.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, rest, found := strings.Cut(key, "_")
	if !found {
		return key
	}
	if section == "substitution" {
		if name, ok := strings.CutPrefix(rest, "variables_"); ok {
			return "substitution.variables." + name
		}
	}
	return section + "." + rest
}

func postProcess(cfg *Config) {
	if cfg.Staging.WorkRoot == "" {
		cfg.Staging.WorkRoot = DefaultWorkRoot()
	}
	if cfg.Substitution.Variables == nil {
		cfg.Substitution.Variables = map[string]string{}
	}
	lowered := make(map[string]string, len(cfg.Substitution.Variables))
	for name, value := range cfg.Substitution.Variables {
		lowered[strings.ToLower(name)] = value
	}
	cfg.Substitution.Variables = lowered
}
