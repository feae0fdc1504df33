package configtypes

import (
	"time"

	"github.com/educationmalaysia/seo-server/pkg/types"
)

// Log level constants
const (
	LogLevelDebug  = "debug"
	LogLevelInfo   = "info"
	LogLevelWarn   = "warn"
	LogLevelError  = "error"
	LogLevelDPanic = "dpanic"
	LogLevelPanic  = "panic"
	LogLevelFatal  = "fatal"
)

// Log format constants
const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
	LogFormatText    = "text"
)

// Payload cache compression algorithms
const (
	CompressionNone   = "none"
	CompressionSnappy = "snappy"
	CompressionLZ4    = "lz4"
)

// Built-in defaults. Environment overrides are applied on top of the file.
const (
	DefaultPort              = 4173
	DefaultSiteURL           = "https://www.educationmalaysia.in"
	DefaultSiteName          = "Education Malaysia"
	DefaultDescription       = "Study in Malaysia - Find top universities, courses, fees, visa requirements, and scholarships."
	DefaultLocale            = "en_US"
	DefaultTwitterSite       = "@educatemalaysia"
	DefaultDistDir           = "dist"
	DefaultIndexFile         = "index.html"
	DefaultHeadAPIPath       = "/__seo/head"
	DefaultServerTimeout     = types.Duration(30 * time.Second)
	DefaultStaticMaxAge      = types.Duration(7 * 24 * time.Hour)
	DefaultUpstreamTimeout   = types.Duration(10 * time.Second)
	DefaultUpstreamUserAgent = "EducationMalaysia-SEO/1.0"
	DefaultPayloadCacheTTL   = types.Duration(10 * time.Minute)
	DefaultMetricsPath       = "/metrics"
	DefaultMetricsNamespace  = "seo_server"
)

// Organization defaults for JSON-LD
const (
	DefaultOrganizationName        = "EducationMalaysia"
	DefaultOrganizationLogo        = "https://www.educationmalaysia.in/assets/web/images/education-malaysia-new-logo.png"
	DefaultOrganizationLogoWidth   = 230
	DefaultOrganizationLogoHeight  = 55
	DefaultOrganizationTelephone   = "+91 9818560331"
	DefaultOrganizationContactType = "customer support"
	DefaultOrganizationLanguage    = "English"
)

// DefaultOrganizationSameAs lists the official social profiles
var DefaultOrganizationSameAs = []string{
	"https://www.facebook.com/educationmalaysia.in",
	"https://in.pinterest.com/educationmalaysiain/",
	"https://twitter.com/educatemalaysia/",
	"https://www.instagram.com/educationmalaysia.in/",
	"https://www.quora.com/profile/Education-Malaysia-3",
	"https://www.linkedin.com/company/educationmalaysia/",
	"https://www.youtube.com/channel/UCK7S9yvQnx08CgcDMMfYAyg",
}

// SeoConfig is the SEO server application configuration
type SeoConfig struct {
	Server       ServerConfig        `yaml:"server"`
	Site         SiteConfig          `yaml:"site"`
	Upstream     UpstreamConfig      `yaml:"upstream"`
	Cache        PayloadCacheConfig  `yaml:"cache"`
	Redis        RedisConfig         `yaml:"redis"`
	Robots       RobotsConfig        `yaml:"robots"`
	Log          LogConfig           `yaml:"log"`
	Metrics      MetricsConfig       `yaml:"metrics"`
	EventLogging *EventLoggingConfig `yaml:"event_logging,omitempty"`
}

type ServerConfig struct {
	Listen       string         `yaml:"listen"`
	Timeout      types.Duration `yaml:"timeout"`
	DistDir      string         `yaml:"dist_dir"`
	IndexFile    string         `yaml:"index_file"`
	StaticMaxAge types.Duration `yaml:"static_max_age"`
	HeadAPIPath  string         `yaml:"head_api_path"`

	// ClientIPHeaders are checked in order before RemoteAddr, e.g. X-Forwarded-For
	ClientIPHeaders []string  `yaml:"client_ip_headers,omitempty"`
	Crawlers        []string  `yaml:"crawlers,omitempty"` // User-Agent patterns, empty = built-in list
	TLS             TLSConfig `yaml:"tls"`
}

// TLSConfig enables an additional HTTPS listener serving the same handler
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Listen   string `yaml:"listen"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// SiteConfig holds the site-wide constants used for tag synthesis
type SiteConfig struct {
	URL                string             `yaml:"url"`
	Name               string             `yaml:"name"`
	DefaultDescription string             `yaml:"default_description"`
	DefaultImage       string             `yaml:"default_image"` // empty = {url}/favicon.png
	Locale             string             `yaml:"locale"`
	TwitterSite        string             `yaml:"twitter_site"`
	Organization       OrganizationConfig `yaml:"organization"`
}

// OrganizationConfig feeds the Organization and WebPage publisher JSON-LD
type OrganizationConfig struct {
	Name        string   `yaml:"name"`
	Logo        string   `yaml:"logo"`
	LogoWidth   int      `yaml:"logo_width"`
	LogoHeight  int      `yaml:"logo_height"`
	SameAs      []string `yaml:"same_as"`
	Telephone   string   `yaml:"telephone"`
	ContactType string   `yaml:"contact_type"`
	Language    string   `yaml:"language"`
}

// UpstreamConfig describes the content API. An empty BaseURL disables fetching.
type UpstreamConfig struct {
	BaseURL   string         `yaml:"base_url"`
	APIKey    string         `yaml:"api_key"`
	Timeout   types.Duration `yaml:"timeout"`
	UserAgent string         `yaml:"user_agent"`
}

// PayloadCacheConfig configures the Redis-backed SEO payload cache
type PayloadCacheConfig struct {
	Enabled     bool           `yaml:"enabled"`
	TTL         types.Duration `yaml:"ttl"`
	Compression string         `yaml:"compression,omitempty"` // none, snappy, lz4
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RobotsConfig lists path rules (see pkg/pattern) that render noindex
type RobotsConfig struct {
	NoIndex []string `yaml:"noindex"`
}

type LogConfig struct {
	Level   string           `yaml:"level"`
	Console ConsoleLogConfig `yaml:"console"`
	File    FileLogConfig    `yaml:"file"`
}

type ConsoleLogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Format  string `yaml:"format"`
	Level   string `yaml:"level,omitempty"`
}

type FileLogConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Path     string         `yaml:"path"`
	Format   string         `yaml:"format"`
	Level    string         `yaml:"level,omitempty"`
	Rotation RotationConfig `yaml:"rotation"`
}

type RotationConfig struct {
	MaxSize    int  `yaml:"max_size"`
	MaxAge     int  `yaml:"max_age"`
	MaxBackups int  `yaml:"max_backups"`
	Compress   bool `yaml:"compress"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Listen    string `yaml:"listen"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

// EventLoggingConfig configures request event logging
type EventLoggingConfig struct {
	File EventFileConfig `yaml:"file"`
}

// EventFileConfig configures file-based event logging.
// An empty Template writes one JSON object per line.
type EventFileConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Path     string         `yaml:"path"`
	Template string         `yaml:"template"`
	Rotation RotationConfig `yaml:"rotation"`
}
