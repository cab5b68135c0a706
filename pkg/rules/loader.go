package rules

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	dperrors "github.com/arthur-debert/dopatch/pkg/errors"
	"github.com/arthur-debert/dopatch/pkg/logging"
	"github.com/go-viper/mapstructure/v2"
	koanftoml "github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/v2"
	gotoml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

// Format is a rules file encoding
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from a file extension
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", dperrors.Newf(dperrors.ErrRulesLoad,
			"cannot tell the format of %s: use a .toml, .yaml or .yml file", path).
			WithDetail("path", path)
	}
}

type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("not implemented")
}

// Loader reads rules files from a filesystem
type Loader struct {
	fs afero.Fs
}

// NewLoader creates a loader over fs
func NewLoader(fs afero.Fs) *Loader {
	return &Loader{fs: fs}
}

// Load reads and decodes a rules file
func (l *Loader) Load(path string) (*File, error) {
	logger := logging.GetLogger("rules.loader")

	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, dperrors.Wrapf(err, dperrors.ErrFileNotFound, "rules file %s does not exist", path).
				WithDetail("path", path)
		}
		return nil, dperrors.Wrapf(err, dperrors.ErrRulesLoad, "failed to read rules file %s", path).
			WithDetail("path", path)
	}

	file, err := Parse(data, format)
	if err != nil {
		if de, ok := err.(*dperrors.DopatchError); ok {
			return nil, de.WithDetail("path", path)
		}
		return nil, err
	}

	logger.Debug().
		Str("path", path).
		Str("format", string(format)).
		Int("rules", len(file.Rules)).
		Msg("Rules file loaded")
	return file, nil
}

// Parse decodes a rules file. Unknown keys are rejected so a misspelled
// field does not silently change what a rule does.
func Parse(data []byte, format Format) (*File, error) {
	var parser koanf.Parser
	switch format {
	case FormatTOML:
		parser = koanftoml.Parser()
	case FormatYAML:
		parser = yaml.Parser()
	default:
		return nil, dperrors.Newf(dperrors.ErrRulesLoad, "unsupported rules format %q", format)
	}

	k := koanf.New(".")
	if err := k.Load(&rawBytesProvider{bytes: data}, parser); err != nil {
		return nil, dperrors.Wrapf(err, dperrors.ErrRulesParse, "invalid %s", format)
	}

	var file File
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &file,
			ErrorUnused:      true,
			WeaklyTypedInput: true,
			DecodeHook:       mapstructure.StringToSliceHookFunc(","),
		},
	}
	if err := k.UnmarshalWithConf("", &file, unmarshalConf); err != nil {
		return nil, dperrors.Wrap(err, dperrors.ErrRulesParse, "rules file does not match the expected shape")
	}
	if len(file.Rules) == 0 {
		return nil, dperrors.New(dperrors.ErrRulesParse, "rules file defines no rules")
	}
	return &file, nil
}

// Encode renders a rules file as TOML
func Encode(file *File) ([]byte, error) {
	data, err := gotoml.Marshal(file)
	if err != nil {
		return nil, dperrors.Wrap(err, dperrors.ErrInternal, "failed to encode rules file")
	}
	return data, nil
}

// Starter returns the example written by `dopatch init`
func Starter() *File {
	return &File{
		Halt: "stop",
		Rules: []Definition{
			{
				ID:          "insert-banner",
				Description: "Insert a banner right after the opening main tag",
				Policy:      RequireExactlyOne.String(),
				Find:        "<main>\n",
				Replace:     "<main>\n  <Banner />\n",
				Verify: &VerifierDefinition{
					Kind:  "pairs",
					Open:  "<main",
					Close: "</main",
				},
			},
			{
				ID:          "rename-handler",
				Description: "Rename every onSave handler, keeping its argument",
				Policy:      ReplaceAll.String(),
				Pattern:     `onSave\((\w+)\)`,
				Replace:     "onPersist(${1})",
			},
			{
				ID:          "drop-legacy-footer",
				Description: "Remove the legacy footer if it is still there",
				Policy:      OptionalSkipIfAbsent.String(),
				Match: []MatchDefinition{
					{Find: "<LegacyFooter />\n"},
					{Pattern: `<LegacyFooter\s*/>\s*`, Flags: []string{"dotall"}},
				},
				Replace: "",
			},
		},
	}
}
