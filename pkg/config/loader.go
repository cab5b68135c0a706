package config

import (
	_ "embed"
	stderrors "errors"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/dopatch/pkg/errors"
	"github.com/arthur-debert/dopatch/pkg/logging"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

//go:embed embedded/defaults.toml
var defaultConfig []byte

// ProjectFile is the per-directory config file name
const ProjectFile = ".dopatch.toml"

// EnvPrefix prefixes environment overrides
const EnvPrefix = "DOPATCH_"

type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, stderrors.New("not implemented")
}

// LoadOptions selects the configuration layers
type LoadOptions struct {
	// Path is an explicit config file; it must exist when set
	Path string
	// Dir is searched for ProjectFile; defaults to the working directory
	Dir string

	SkipUser    bool
	SkipProject bool
	SkipEnv     bool

	// Overrides are dotted keys applied after every other layer
	Overrides map[string]interface{}
}

// ParseOverrides turns "section.key=value" assignments into Overrides
func ParseOverrides(assignments []string) (map[string]interface{}, error) {
	overrides := make(map[string]interface{}, len(assignments))
	for _, a := range assignments {
		key, value, ok := strings.Cut(a, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" || !strings.Contains(key, ".") {
			return nil, errors.Newf(errors.ErrInvalidInput, "invalid config override %q, expected section.key=value", a).
				WithDetail("override", a)
		}
		overrides[key] = strings.TrimSpace(value)
	}
	return overrides, nil
}

// UserConfigPath returns the per-user config file location
func UserConfigPath() string {
	return filepath.Join(xdg.ConfigHome, logging.AppName, "config.toml")
}

// Load resolves the configuration layers in order: embedded defaults, user
// file, project file, explicit file, environment, overrides.
func Load(opts LoadOptions) (*Config, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to load embedded defaults")
	}

	var files []string
	if !opts.SkipUser {
		files = append(files, UserConfigPath())
	}
	if !opts.SkipProject {
		files = append(files, filepath.Join(opts.Dir, ProjectFile))
	}
	for _, path := range files {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := loadFile(k, path); err != nil {
			return nil, err
		}
		logger.Debug().Str("path", path).Msg("Loaded config file")
	}

	if opts.Path != "" {
		if _, err := os.Stat(opts.Path); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "config file %s not found", opts.Path).
				WithDetail("path", opts.Path)
		}
		if err := loadFile(k, opts.Path); err != nil {
			return nil, err
		}
		logger.Debug().Str("path", opts.Path).Msg("Loaded explicit config file")
	}

	if !opts.SkipEnv {
		if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment")
		}
	}

	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to apply overrides")
		}
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				fileModeHookFunc(),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to decode configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "invalid configuration")
	}

	logger.Trace().
		Str("halt", cfg.Run.Halt).
		Str("format", cfg.Output.Format).
		Dur("regex_timeout", cfg.Matcher.RegexTimeout).
		Msg("Configuration resolved")
	return &cfg, nil
}

func loadFile(k *koanf.Koanf, path string) error {
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return errors.Wrapf(err, errors.ErrConfigParse, "failed to load config from %s", path).
			WithDetail("path", path)
	}
	return nil
}

// envKey maps DOPATCH_STORE_BACKUP_SUFFIX to store.backup_suffix: the first
// segment names the section, the rest is the key.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, rest, found := strings.Cut(key, "_")
	if !found {
		return key
	}
	return section + "." + rest
}

// fileModeHookFunc decodes octal strings such as "0644" into os.FileMode
func fileModeHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if t != reflect.TypeOf(os.FileMode(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			mode, err := strconv.ParseUint(strings.TrimPrefix(v, "0o"), 8, 32)
			if err != nil {
				return nil, errors.Newf(errors.ErrConfigParse, "invalid file mode %q", v)
			}
			return os.FileMode(mode), nil
		case int64:
			return os.FileMode(v), nil
		}
		return data, nil
	}
}
