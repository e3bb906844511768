package cli

import (
	stderrors "errors"
	"strings"

	"github.com/spf13/viper"

	"github.com/toyz/kiln/internal/annotations"
	"github.com/toyz/kiln/internal/errors"
	"github.com/toyz/kiln/internal/utils"
)

// ConfigName is the base name of the configuration file looked up in the
// working directory (kiln.yaml, kiln.toml or kiln.json).
const ConfigName = "kiln"

// EnvPrefix prefixes every environment override, e.g. KILN_OUTPUT.
const EnvPrefix = "KILN"

// Config holds the settings of one kiln invocation.
type Config struct {
	// Dir is the directory patterns are resolved from.
	Dir      string   `mapstructure:"dir"`
	Patterns []string `mapstructure:"patterns"`
	// Output is the root generated files are written under. Empty writes
	// next to the package sources.
	Output  string `mapstructure:"output"`
	DryRun  bool   `mapstructure:"dry_run"`
	Verbose bool   `mapstructure:"verbose"`
	Quiet   bool   `mapstructure:"quiet"`
	// Families switches families on or off. A missing or empty entry is
	// autodetected.
	Families map[string]*bool `mapstructure:"families"`
}

// NewViper prepares a viper instance with kiln's defaults, environment
// bindings and configuration file. An explicit configFile must exist; the
// default kiln.* file is optional.
func NewViper(configFile, dir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault("dir", ".")
	v.SetDefault("patterns", []string{"./..."})
	v.SetDefault("output", "")
	v.SetDefault("dry_run", false)
	v.SetDefault("verbose", false)
	v.SetDefault("quiet", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, f := range annotations.Families() {
		if err := v.BindEnv("families." + f.String()); err != nil {
			return nil, errors.WrapConfigurationError("environment", "bind", err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if dir == "" {
			dir = "."
		}
		v.SetConfigName(ConfigName)
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !stderrors.As(err, &notFound) {
			return nil, errors.WrapConfigurationError(v.ConfigFileUsed(), "read", err)
		}
	}
	return v, nil
}

// LoadConfig decodes and validates the settings held by v.
func LoadConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.WrapConfigurationError(v.ConfigFileUsed(), "decode", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks option combinations and family names.
func (c *Config) Validate() error {
	if c.Verbose && c.Quiet {
		return errors.New(errors.ConfigurationErrorCode, "--verbose and --quiet cannot be combined")
	}
	if len(c.Patterns) == 0 {
		return errors.New(errors.ConfigurationErrorCode, "no package patterns given").
			WithSuggestions("pass patterns such as ./... or set 'patterns' in kiln.yaml")
	}
	if _, err := c.FamilyOverrides(); err != nil {
		return err
	}
	return nil
}

// FamilyOverrides returns the families explicitly switched on or off.
func (c *Config) FamilyOverrides() (map[annotations.Family]bool, error) {
	out := make(map[annotations.Family]bool)
	for name, enabled := range c.Families {
		f, err := annotations.ParseFamily(name)
		if err != nil {
			return nil, errors.Wrap(errors.ConfigurationErrorCode, "invalid families entry", err).
				WithSuggestions("valid families: " + strings.Join(familyNames(), ", "))
		}
		if enabled != nil {
			out[f] = *enabled
		}
	}
	return out, nil
}

// Level maps the output flags to a diagnostic level.
func (c *Config) Level() utils.DiagnosticLevel {
	switch {
	case c.Quiet:
		return utils.DiagnosticError
	case c.Verbose:
		return utils.DiagnosticDebug
	}
	return utils.DiagnosticInfo
}

func familyNames() []string {
	families := annotations.Families()
	names := make([]string, len(families))
	for i, f := range families {
		names[i] = f.String()
	}
	return names
}
