package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/educationmalaysia/seo-server/internal/common/configtypes"
	"github.com/educationmalaysia/seo-server/internal/common/yamlutil"
	"github.com/educationmalaysia/seo-server/internal/edge/validate"
)

type (
	SeoConfig    = configtypes.SeoConfig
	ServerConfig = configtypes.ServerConfig
	SiteConfig   = configtypes.SiteConfig
	LogConfig    = configtypes.LogConfig
	RedisConfig  = configtypes.RedisConfig
)

// Environment variables recognised on top of the YAML file
const (
	EnvPort       = "PORT"
	EnvSiteURL    = "VITE_SITE_URL"
	EnvAPIBaseURL = "VITE_API_BASE_URL"
	EnvAPIKey     = "VITE_API_KEY"
)

// LookupFunc resolves environment variables. os.LookupEnv in production.
type LookupFunc func(key string) (string, bool)

// ConfigManager loads and holds the server configuration.
// The configuration is read once at startup and is read-only afterwards.
type ConfigManager struct {
	config       *SeoConfig
	configPath   string
	optional     bool
	lookup       LookupFunc
	warnings     []validate.ValidationError
	usedDefaults bool
	logger       *zap.Logger
}

// NewConfigManager loads configPath, applies environment overrides and
// defaults, then validates the result. When optional is true a missing file
// is not an error and the built-in defaults are used instead.
func NewConfigManager(configPath string, optional bool, logger *zap.Logger) (*ConfigManager, error) {
	return NewConfigManagerWithEnv(configPath, optional, os.LookupEnv, logger)
}

// NewConfigManagerWithEnv is NewConfigManager with an explicit environment
func NewConfigManagerWithEnv(configPath string, optional bool, lookup LookupFunc, logger *zap.Logger) (*ConfigManager, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	cm := &ConfigManager{
		configPath: configPath,
		optional:   optional,
		lookup:     lookup,
		logger:     logger,
	}

	if err := cm.LoadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load initial config: %w", err)
	}

	return cm, nil
}

// LoadConfig reads, resolves and validates the configuration
func (cm *ConfigManager) LoadConfig() error {
	cfg, result, usedDefaults, err := load(cm.configPath, cm.optional, cm.lookup)
	if err != nil {
		return err
	}
	if err := result.AsError(); err != nil {
		return err
	}

	cm.config = cfg
	cm.usedDefaults = usedDefaults
	cm.warnings = result.Warnings
	cm.emitConfigWarnings()

	return nil
}

// ValidateConfiguration resolves configPath like NewConfigManager but
// returns every validation finding instead of failing on the first.
// The error is non-nil only when the file cannot be read or parsed.
func ValidateConfiguration(configPath string, optional bool, lookup LookupFunc) (*validate.ValidationResult, *SeoConfig, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	cfg, result, _, err := load(configPath, optional, lookup)
	if err != nil {
		return nil, nil, err
	}
	return result, cfg, nil
}

func load(configPath string, optional bool, lookup LookupFunc) (*SeoConfig, *validate.ValidationResult, bool, error) {
	cfg := &SeoConfig{}
	var lt *validate.LineTracker
	filename := "<defaults>"
	usedDefaults := false

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		filename = filepath.Base(configPath)
		if err := yamlutil.UnmarshalStrictEnv(data, cfg, lookup); err != nil {
			return nil, nil, false, fmt.Errorf("%s: YAML syntax error: %w", filename, err)
		}
		if tracker, lerr := validate.NewLineTracker(data); lerr == nil {
			lt = tracker
		}
	case errors.Is(err, os.ErrNotExist) && optional:
		usedDefaults = true
	case errors.Is(err, os.ErrNotExist):
		return nil, nil, false, fmt.Errorf("config file not found: %s", configPath)
	default:
		return nil, nil, false, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := applyEnvOverrides(cfg, lookup); err != nil {
		return nil, nil, false, err
	}
	ApplyDefaults(cfg)

	return cfg, validate.Validate(cfg, filename, lt), usedDefaults, nil
}

// GetConfig returns the loaded configuration (read-only)
func (cm *ConfigManager) GetConfig() *SeoConfig {
	return cm.config
}

// Warnings returns the non-fatal validation findings of the last load
func (cm *ConfigManager) Warnings() []validate.ValidationError {
	return cm.warnings
}

// UsedDefaults reports whether the config file was absent and built-in defaults were used
func (cm *ConfigManager) UsedDefaults() bool {
	return cm.usedDefaults
}

// ConfigPath returns the path the configuration was loaded from
func (cm *ConfigManager) ConfigPath() string {
	return cm.configPath
}

// SetConfig sets the configuration (for testing)
func (cm *ConfigManager) SetConfig(cfg *SeoConfig) {
	cm.config = cfg
}

// applyEnvOverrides maps the deployment environment onto the config.
// Overrides win over the file; unset or empty variables are ignored.
func applyEnvOverrides(cfg *SeoConfig, lookup LookupFunc) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if port, ok := get(EnvPort); ok {
		listen, err := configtypes.ListenFromPort(port)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		cfg.Server.Listen = listen
	}
	if v, ok := get(EnvSiteURL); ok {
		cfg.Site.URL = v
	}
	if v, ok := get(EnvAPIBaseURL); ok {
		cfg.Upstream.BaseURL = v
	}
	if v, ok := get(EnvAPIKey); ok {
		cfg.Upstream.APIKey = v
	}
	return nil
}

// Defaults returns a configuration with every default applied
func Defaults() *SeoConfig {
	cfg := &SeoConfig{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills unset fields. Base URLs are normalised without a trailing slash.
func ApplyDefaults(cfg *SeoConfig) {
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = fmt.Sprintf(":%d", configtypes.DefaultPort)
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = configtypes.DefaultServerTimeout
	}
	if cfg.Server.DistDir == "" {
		cfg.Server.DistDir = configtypes.DefaultDistDir
	}
	if cfg.Server.IndexFile == "" {
		cfg.Server.IndexFile = configtypes.DefaultIndexFile
	}
	if cfg.Server.StaticMaxAge == 0 {
		cfg.Server.StaticMaxAge = configtypes.DefaultStaticMaxAge
	}
	if cfg.Server.HeadAPIPath == "" {
		cfg.Server.HeadAPIPath = configtypes.DefaultHeadAPIPath
	}

	applySiteDefaults(&cfg.Site)

	cfg.Upstream.BaseURL = strings.TrimRight(cfg.Upstream.BaseURL, "/")
	if cfg.Upstream.Timeout == 0 {
		cfg.Upstream.Timeout = configtypes.DefaultUpstreamTimeout
	}
	if cfg.Upstream.UserAgent == "" {
		cfg.Upstream.UserAgent = configtypes.DefaultUpstreamUserAgent
	}

	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = configtypes.DefaultPayloadCacheTTL
	}
	if cfg.Cache.Compression == "" {
		cfg.Cache.Compression = configtypes.CompressionSnappy
	}

	// If both outputs are disabled (zero values), enable console by default
	if !cfg.Log.Console.Enabled && !cfg.Log.File.Enabled {
		cfg.Log.Console.Enabled = true
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = configtypes.LogLevelInfo
	}
	if cfg.Log.Console.Format == "" {
		cfg.Log.Console.Format = configtypes.LogFormatConsole
	}
	if cfg.Log.File.Format == "" {
		cfg.Log.File.Format = configtypes.LogFormatText
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = configtypes.DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = configtypes.DefaultMetricsNamespace
	}
}

func applySiteDefaults(site *configtypes.SiteConfig) {
	if site.URL == "" {
		site.URL = configtypes.DefaultSiteURL
	}
	site.URL = strings.TrimRight(site.URL, "/")

	if site.Name == "" {
		site.Name = configtypes.DefaultSiteName
	}
	if site.DefaultDescription == "" {
		site.DefaultDescription = configtypes.DefaultDescription
	}
	if site.DefaultImage == "" {
		site.DefaultImage = site.URL + "/favicon.png"
	}
	if site.Locale == "" {
		site.Locale = configtypes.DefaultLocale
	}
	if site.TwitterSite == "" {
		site.TwitterSite = configtypes.DefaultTwitterSite
	}

	org := &site.Organization
	if org.Name == "" {
		org.Name = configtypes.DefaultOrganizationName
	}
	if org.Logo == "" {
		org.Logo = configtypes.DefaultOrganizationLogo
	}
	if org.LogoWidth == 0 {
		org.LogoWidth = configtypes.DefaultOrganizationLogoWidth
	}
	if org.LogoHeight == 0 {
		org.LogoHeight = configtypes.DefaultOrganizationLogoHeight
	}
	if org.SameAs == nil {
		org.SameAs = append([]string(nil), configtypes.DefaultOrganizationSameAs...)
	}
	if org.Telephone == "" {
		org.Telephone = configtypes.DefaultOrganizationTelephone
	}
	if org.ContactType == "" {
		org.ContactType = configtypes.DefaultOrganizationContactType
	}
	if org.Language == "" {
		org.Language = configtypes.DefaultOrganizationLanguage
	}
}

// emitConfigWarnings logs validation warnings and runtime notes
func (cm *ConfigManager) emitConfigWarnings() {
	if cm.logger == nil {
		return
	}
	if cm.usedDefaults {
		cm.logger.Info("Config file not found, using built-in defaults",
			zap.String("config_path", cm.configPath))
	}
	for _, w := range cm.warnings {
		cm.logger.Warn("Configuration warning", zap.String("detail", w.String()))
	}
}
