// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/xkilldash9x/notefill/internal/domain"
)

// Interface is the read side of the configuration consumed by components.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	Fill() FillConfig
	Bank() string
	Quantity() int
	Identities() []domain.Identity
	Profile() (domain.BankProfile, error)
	Location() (domain.LocationSpec, bool)
}

// Config holds the entire application configuration. Fields are exported for
// viper; components read them through Interface.
type Config struct {
	LoggerCfg   LoggerConfig          `mapstructure:"logger" yaml:"logger"`
	BrowserCfg  BrowserConfig         `mapstructure:"browser" yaml:"browser"`
	FillCfg     FillConfig            `mapstructure:"fill" yaml:"fill"`
	BankName    string                `mapstructure:"bank" yaml:"bank"`
	QuantityCfg int                   `mapstructure:"quantity" yaml:"quantity"`
	Banks       map[string]BankConfig `mapstructure:"bank_configs" yaml:"bank_configs"`
	Users       []domain.Identity     `mapstructure:"user_infos" yaml:"user_infos"`
	LocationCfg LocationConfig        `mapstructure:"exchange_location" yaml:"exchange_location"`
}

var _ Interface = (*Config)(nil)

func (c *Config) Logger() LoggerConfig   { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig { return c.BrowserCfg }
func (c *Config) Fill() FillConfig       { return c.FillCfg }
func (c *Config) Bank() string           { return c.BankName }
func (c *Config) Quantity() int          { return c.QuantityCfg }

// Identities returns a copy of the configured roster.
func (c *Config) Identities() []domain.Identity {
	return append([]domain.Identity(nil), c.Users...)
}

// LoggerConfig configures the zap logger and its rotating file sink.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the ANSI color codes for each log level.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig locates the already-running browsers. Identity i is served by
// the debug endpoint on BasePort+i.
type BrowserConfig struct {
	Host           string        `mapstructure:"host" yaml:"host"`
	BasePort       int           `mapstructure:"base_port" yaml:"base_port"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
	ConnectStagger time.Duration `mapstructure:"connect_stagger" yaml:"connect_stagger"`
	// TargetURL, when set, is compared against the attached page and a
	// mismatch is logged.
	TargetURL string `mapstructure:"target_url" yaml:"target_url"`
}

// Endpoint returns the debug endpoint and port for a roster index.
func (b BrowserConfig) Endpoint(index int) (string, int) {
	port := b.BasePort + index
	return fmt.Sprintf("http://%s:%d", b.Host, port), port
}

// FillConfig holds the timing and matching knobs of a fill run.
type FillConfig struct {
	SettleDelay time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
	PanelWait   time.Duration `mapstructure:"panel_wait" yaml:"panel_wait"`
	OptionWait  time.Duration `mapstructure:"option_wait" yaml:"option_wait"`
	LevelPause  time.Duration `mapstructure:"level_pause" yaml:"level_pause"`
	MatchPolicy string        `mapstructure:"match_policy" yaml:"match_policy"`
}

// Match policies accepted in fill.match_policy.
const (
	MatchStrictThenContains = "strict_then_contains"
	MatchStrict             = "strict"
	MatchContains           = "contains"
)

// BankConfig overrides parts of a built-in bank profile, or defines a new one.
type BankConfig struct {
	FieldIndices  map[string]int `mapstructure:"field_indices" yaml:"field_indices"`
	UseCascader   *bool          `mapstructure:"use_cascader" yaml:"use_cascader"`
	CascadeOffset *int           `mapstructure:"cascade_offset" yaml:"cascade_offset"`
}

// LocationConfig is the persisted exchange location. Which half is used
// depends on the active bank profile.
type LocationConfig struct {
	Name        string                   `mapstructure:"name" yaml:"name"`
	CascadePath []string                 `mapstructure:"cascade_path" yaml:"cascade_path"`
	Independent domain.IndependentFields `mapstructure:"icbc_location" yaml:"icbc_location"`
}

// Profiles returns the built-in profiles with configured overrides applied.
func (c *Config) Profiles() map[string]domain.BankProfile {
	out := domain.DefaultBankProfiles()
	for name, bc := range c.Banks {
		base, ok := out[name]
		if !ok {
			base = domain.BankProfile{Name: name, CascadeOffset: domain.DefaultCascadeOffset}
		}
		merged := base.Merge(domain.BankProfile{FieldIndices: bc.FieldIndices})
		if bc.UseCascader != nil {
			merged.UsesCascadingSelector = *bc.UseCascader
		}
		if bc.CascadeOffset != nil {
			merged.CascadeOffset = *bc.CascadeOffset
		}
		out[name] = merged
	}
	return out
}

// Profile returns the profile of the active bank.
func (c *Config) Profile() (domain.BankProfile, error) {
	p, ok := c.Profiles()[c.BankName]
	if !ok {
		return domain.BankProfile{}, fmt.Errorf("unknown bank %q", c.BankName)
	}
	return p, nil
}

// Location builds the location spec for the active bank. It reports false
// when no location has been configured for that bank's selector kind.
func (c *Config) Location() (domain.LocationSpec, bool) {
	p, err := c.Profile()
	if err != nil {
		return domain.LocationSpec{}, false
	}
	var (
		spec domain.LocationSpec
	)
	if p.UsesCascadingSelector {
		spec, err = domain.NewCascadePath(c.LocationCfg.CascadePath...)
	} else {
		spec, err = domain.NewIndependentFields(c.LocationCfg.Independent)
	}
	return spec, err == nil
}

// NewDefaultConfig returns a Config populated only with defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults registers every default value.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "notefill")
	v.SetDefault("logger.log_file", "~/.notefill/notefill.log")
	v.SetDefault("logger.max_size", 20)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.host", "localhost")
	v.SetDefault("browser.base_port", 9222)
	v.SetDefault("browser.connect_timeout", "10s")
	v.SetDefault("browser.connect_stagger", "500ms")
	v.SetDefault("browser.target_url", "")

	// -- Fill --
	v.SetDefault("fill.settle_delay", "500ms")
	v.SetDefault("fill.panel_wait", "300ms")
	v.SetDefault("fill.option_wait", "500ms")
	v.SetDefault("fill.level_pause", "300ms")
	v.SetDefault("fill.match_policy", MatchStrictThenContains)

	// -- Reservation --
	v.SetDefault("bank", domain.BankABC)
	v.SetDefault("quantity", 20)
}

// NewConfigFromViper unmarshals and validates a viper instance. Identities
// without a stable ID receive one here.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	for i := range cfg.Users {
		cfg.Users[i] = cfg.Users[i].WithID()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration once at load.
func (c *Config) Validate() error {
	if c.BrowserCfg.Host == "" {
		return fmt.Errorf("browser.host must not be empty")
	}
	if c.BrowserCfg.BasePort <= 0 || c.BrowserCfg.BasePort > 65535 {
		return fmt.Errorf("browser.base_port must be a valid TCP port")
	}
	if c.BrowserCfg.ConnectStagger < 0 {
		return fmt.Errorf("browser.connect_stagger must not be negative")
	}
	if c.QuantityCfg <= 0 {
		return fmt.Errorf("quantity must be a positive integer")
	}
	if _, err := ParseMatchPolicy(c.FillCfg.MatchPolicy); err != nil {
		return err
	}
	for name, p := range c.Profiles() {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("bank_configs.%s invalid: %w", name, err)
		}
	}
	if _, err := c.Profile(); err != nil {
		return fmt.Errorf("bank: %w", err)
	}

	seen := make(map[string]bool, len(c.Users))
	for i, u := range c.Users {
		if err := u.Validate(); err != nil {
			return fmt.Errorf("user_infos[%d] invalid: %w", i, err)
		}
		if seen[u.ID] {
			return fmt.Errorf("user_infos[%d]: duplicate id %q", i, u.ID)
		}
		seen[u.ID] = true
	}
	return nil
}

// ParseMatchPolicy normalizes a fill.match_policy value.
func ParseMatchPolicy(s string) (string, error) {
	switch p := strings.ToLower(strings.TrimSpace(s)); p {
	case "", MatchStrictThenContains:
		return MatchStrictThenContains, nil
	case MatchStrict, MatchContains:
		return p, nil
	}
	return "", fmt.Errorf("fill.match_policy %q is not one of %s, %s, %s", s, MatchStrictThenContains, MatchStrict, MatchContains)
}
