package validate

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/educationmalaysia/seo-server/internal/common/configtypes"
	"github.com/educationmalaysia/seo-server/internal/edge/events"
	"github.com/educationmalaysia/seo-server/pkg/pattern"
)

const (
	suspiciousDurationThreshold = 1 * time.Millisecond
	maxRecommendedUpstreamWait  = 30 * time.Second
	minRecommendedCacheTTL      = 5 * time.Second
)

var namespacePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidationResult contains the result of configuration validation
type ValidationResult struct {
	Valid      bool
	Errors     []ValidationError
	Warnings   []ValidationError
	ConfigPath string
}

// Validate checks a fully resolved configuration (file, environment
// overrides and defaults already applied). lt may be nil.
func Validate(cfg *configtypes.SeoConfig, filename string, lt *LineTracker) *ValidationResult {
	collector := NewErrorCollector()

	validateServerConfig(cfg, filename, lt, collector)
	validateSiteConfig(cfg, filename, lt, collector)
	validateUpstreamConfig(cfg, filename, lt, collector)
	validateCacheConfig(cfg, filename, lt, collector)
	validateRobotsConfig(cfg, filename, lt, collector)
	validateLogConfig(cfg, filename, collector)
	validateMetricsConfig(cfg, filename, lt, collector)
	validateEventLoggingConfig(cfg, filename, collector)

	return &ValidationResult{
		Valid:      !collector.HasErrors(),
		Errors:     collector.Errors(),
		Warnings:   collector.Warnings(),
		ConfigPath: filename,
	}
}

// validateDurationUnit checks if a duration value is suspiciously small, indicating missing unit suffix
func validateDurationUnit(value time.Duration, fieldName string, filename string, collector *ErrorCollector) {
	if value > 0 && value < suspiciousDurationThreshold {
		collector.AddWarning(filename, 0,
			"%s value %s is suspiciously small. Did you forget the unit suffix (s, ms, m, h)?",
			fieldName, value)
	}
}

func validateServerConfig(cfg *configtypes.SeoConfig, filename string, lt *LineTracker, collector *ErrorCollector) {
	if cfg.Server.Listen == "" {
		collector.Add(filename, lt.GetLine("server.listen"), "server.listen is required")
	} else if err := configtypes.ValidateListenAddress(cfg.Server.Listen); err != nil {
		collector.Add(filename, lt.GetLine("server.listen"), "invalid server.listen: %v", err)
	}

	if cfg.Server.Timeout <= 0 {
		collector.Add(filename, lt.GetLine("server.timeout"), "server.timeout must be positive, got %s", cfg.Server.Timeout)
	}
	validateDurationUnit(time.Duration(cfg.Server.Timeout), "server.timeout", filename, collector)

	if cfg.Server.DistDir == "" {
		collector.Add(filename, lt.GetLine("server.dist_dir"), "server.dist_dir is required")
	}

	if cfg.Server.IndexFile == "" {
		collector.Add(filename, lt.GetLine("server.index_file"), "server.index_file is required")
	} else if strings.ContainsAny(cfg.Server.IndexFile, `/\`) {
		collector.Add(filename, lt.GetLine("server.index_file"), "server.index_file must be a file name inside dist_dir, got '%s'", cfg.Server.IndexFile)
	}

	if cfg.Server.StaticMaxAge < 0 {
		collector.Add(filename, lt.GetLine("server.static_max_age"), "server.static_max_age cannot be negative")
	}

	if !strings.HasPrefix(cfg.Server.HeadAPIPath, "/") {
		collector.Add(filename, lt.GetLine("server.head_api_path"), "invalid server.head_api_path '%s' (must start with /)", cfg.Server.HeadAPIPath)
	} else if cfg.Server.HeadAPIPath == "/" {
		collector.Add(filename, lt.GetLine("server.head_api_path"), "server.head_api_path cannot be the site root")
	}

	for i, h := range cfg.Server.ClientIPHeaders {
		if strings.TrimSpace(h) == "" {
			collector.Add(filename, lt.GetLine("server.client_ip_headers"), "server.client_ip_headers[%d] is empty", i)
		}
	}

	for i, rule := range cfg.Server.Crawlers {
		if _, err := pattern.Compile(rule); err != nil {
			collector.Add(filename, lt.GetLine("server.crawlers"), "server.crawlers[%d]: %v", i, err)
		}
	}

	tls := cfg.Server.TLS
	if !tls.Enabled {
		return
	}
	if tls.Listen == "" {
		collector.Add(filename, lt.GetLine("server.tls.listen"), "server.tls.listen is required when TLS is enabled")
	} else if err := configtypes.ValidateListenAddress(tls.Listen); err != nil {
		collector.Add(filename, lt.GetLine("server.tls.listen"), "invalid server.tls.listen: %v", err)
	} else if tls.Listen == cfg.Server.Listen {
		collector.Add(filename, lt.GetLine("server.tls.listen"), "server.tls.listen must differ from server.listen")
	}
	if tls.CertFile == "" {
		collector.Add(filename, lt.GetLine("server.tls.cert_file"), "server.tls.cert_file is required when TLS is enabled")
	}
	if tls.KeyFile == "" {
		collector.Add(filename, lt.GetLine("server.tls.key_file"), "server.tls.key_file is required when TLS is enabled")
	}
}

func validateSiteConfig(cfg *configtypes.SeoConfig, filename string, lt *LineTracker, collector *ErrorCollector) {
	if err := validateHTTPURL(cfg.Site.URL); err != nil {
		collector.Add(filename, lt.GetLine("site.url"), "invalid site.url: %s", err)
	} else if u, _ := url.Parse(cfg.Site.URL); u.Path != "" && u.Path != "/" {
		collector.AddWarning(filename, lt.GetLine("site.url"), "site.url has a path (%s); canonical URLs are built from the origin plus the request path", u.Path)
	}

	if strings.TrimSpace(cfg.Site.Name) == "" {
		collector.Add(filename, lt.GetLine("site.name"), "site.name is required")
	}

	if strings.TrimSpace(cfg.Site.DefaultDescription) == "" {
		collector.Add(filename, lt.GetLine("site.default_description"), "site.default_description is required")
	}

	if cfg.Site.DefaultImage != "" {
		if err := validateHTTPURL(cfg.Site.DefaultImage); err != nil {
			collector.Add(filename, lt.GetLine("site.default_image"), "invalid site.default_image: %s", err)
		}
	}

	if cfg.Site.TwitterSite != "" && !strings.HasPrefix(cfg.Site.TwitterSite, "@") {
		collector.AddWarning(filename, lt.GetLine("site.twitter_site"), "site.twitter_site '%s' should start with @", cfg.Site.TwitterSite)
	}

	org := cfg.Site.Organization
	if org.Logo != "" {
		if err := validateHTTPURL(org.Logo); err != nil {
			collector.Add(filename, lt.GetLine("site.organization.logo"), "invalid site.organization.logo: %s", err)
		}
	}
	if org.LogoWidth < 0 || org.LogoHeight < 0 {
		collector.Add(filename, lt.GetLine("site.organization"), "site.organization logo dimensions cannot be negative")
	}
	for i, link := range org.SameAs {
		if err := validateHTTPURL(link); err != nil {
			collector.Add(filename, lt.GetLine("site.organization.same_as"), "invalid site.organization.same_as[%d]: %s", i, err)
		}
	}
}

func validateUpstreamConfig(cfg *configtypes.SeoConfig, filename string, lt *LineTracker, collector *ErrorCollector) {
	if cfg.Upstream.BaseURL == "" {
		collector.AddWarning(filename, lt.GetLine("upstream.base_url"),
			"upstream.base_url is empty: no SEO payloads will be fetched, all pages use path-derived tags")
	} else if err := validateHTTPURL(cfg.Upstream.BaseURL); err != nil {
		collector.Add(filename, lt.GetLine("upstream.base_url"), "invalid upstream.base_url: %s", err)
	}

	timeout := time.Duration(cfg.Upstream.Timeout)
	if timeout <= 0 {
		collector.Add(filename, lt.GetLine("upstream.timeout"), "upstream.timeout must be positive, got %s", cfg.Upstream.Timeout)
	} else if timeout > maxRecommendedUpstreamWait {
		collector.AddWarning(filename, lt.GetLine("upstream.timeout"),
			"upstream.timeout %s is long: a slow content API delays every page response by up to this much", timeout)
	}
	validateDurationUnit(timeout, "upstream.timeout", filename, collector)

	if cfg.Server.Timeout > 0 && timeout >= time.Duration(cfg.Server.Timeout) {
		collector.AddWarning(filename, lt.GetLine("upstream.timeout"),
			"upstream.timeout (%s) should be shorter than server.timeout (%s)", timeout, cfg.Server.Timeout)
	}
}

func validateCacheConfig(cfg *configtypes.SeoConfig, filename string, lt *LineTracker, collector *ErrorCollector) {
	switch cfg.Cache.Compression {
	case "", configtypes.CompressionNone, configtypes.CompressionSnappy, configtypes.CompressionLZ4:
	default:
		collector.Add(filename, lt.GetLine("cache.compression"),
			"invalid cache.compression '%s' (must be none, snappy, or lz4)", cfg.Cache.Compression)
	}

	if !cfg.Cache.Enabled {
		return
	}

	if cfg.Redis.Addr == "" {
		collector.Add(filename, lt.GetLine("redis.addr"), "redis.addr is required when cache is enabled")
	}
	if cfg.Redis.DB < 0 {
		collector.Add(filename, lt.GetLine("redis.db"), "redis.db must be >= 0, got %d", cfg.Redis.DB)
	}

	ttl := time.Duration(cfg.Cache.TTL)
	if ttl <= 0 {
		collector.Add(filename, lt.GetLine("cache.ttl"), "cache.ttl must be positive when cache is enabled, got %s", cfg.Cache.TTL)
	} else if ttl < minRecommendedCacheTTL {
		collector.AddWarning(filename, lt.GetLine("cache.ttl"), "cache.ttl %s is very short, most lookups will miss", ttl)
	}
	validateDurationUnit(ttl, "cache.ttl", filename, collector)

	if cfg.Upstream.BaseURL == "" {
		collector.AddWarning(filename, lt.GetLine("cache.enabled"), "cache.enabled has no effect without upstream.base_url")
	}
}

func validateRobotsConfig(cfg *configtypes.SeoConfig, filename string, lt *LineTracker, collector *ErrorCollector) {
	for i, rule := range cfg.Robots.NoIndex {
		if _, err := pattern.Compile(rule); err != nil {
			collector.Add(filename, lt.GetLine("robots.noindex"), "robots.noindex[%d]: %v", i, err)
		}
	}
}

// validateLogConfig validates log configuration
func validateLogConfig(cfg *configtypes.SeoConfig, filename string, collector *ErrorCollector) {
	validLogLevels := map[string]bool{
		configtypes.LogLevelDebug:  true,
		configtypes.LogLevelInfo:   true,
		configtypes.LogLevelWarn:   true,
		configtypes.LogLevelError:  true,
		configtypes.LogLevelDPanic: true,
		configtypes.LogLevelPanic:  true,
		configtypes.LogLevelFatal:  true,
	}
	levels := map[string]string{
		"log.level":         cfg.Log.Level,
		"log.console.level": cfg.Log.Console.Level,
		"log.file.level":    cfg.Log.File.Level,
	}
	for _, field := range []string{"log.level", "log.console.level", "log.file.level"} {
		if lvl := levels[field]; lvl != "" && !validLogLevels[lvl] {
			collector.Add(filename, 0, "invalid %s '%s' (must be debug, info, warn, error, dpanic, panic, or fatal)", field, lvl)
		}
	}

	if cfg.Log.Console.Enabled && cfg.Log.Console.Format != "" &&
		cfg.Log.Console.Format != configtypes.LogFormatJSON && cfg.Log.Console.Format != configtypes.LogFormatConsole {
		collector.Add(filename, 0, "invalid log.console.format '%s' (must be json or console)", cfg.Log.Console.Format)
	}

	if !cfg.Log.File.Enabled {
		return
	}
	if cfg.Log.File.Path == "" {
		collector.Add(filename, 0, "log.file.path must be specified when file logging is enabled")
	}
	if cfg.Log.File.Format != "" && cfg.Log.File.Format != configtypes.LogFormatJSON && cfg.Log.File.Format != configtypes.LogFormatText {
		collector.Add(filename, 0, "invalid log.file.format '%s' (must be json or text)", cfg.Log.File.Format)
	}
	validateRotation(cfg.Log.File.Rotation, "log.file.rotation", filename, collector)
}

// validateMetricsConfig validates metrics configuration
func validateMetricsConfig(cfg *configtypes.SeoConfig, filename string, lt *LineTracker, collector *ErrorCollector) {
	if !cfg.Metrics.Enabled {
		return
	}

	if cfg.Metrics.Listen == "" {
		collector.Add(filename, lt.GetLine("metrics.listen"), "metrics.listen is required when metrics enabled")
	} else if err := configtypes.ValidateListenAddress(cfg.Metrics.Listen); err != nil {
		collector.Add(filename, lt.GetLine("metrics.listen"), "invalid metrics.listen: %v", err)
	} else if cfg.Server.Listen != "" {
		metricsPort, err1 := configtypes.GetPortFromListen(cfg.Metrics.Listen)
		serverPort, err2 := configtypes.GetPortFromListen(cfg.Server.Listen)
		if err1 == nil && err2 == nil && metricsPort == serverPort {
			collector.Add(filename, lt.GetLine("metrics.listen"),
				"metrics.listen port (%d) must differ from server.listen port (%d) - metrics always run on separate port", metricsPort, serverPort)
		}
	}

	if cfg.Metrics.Path != "" && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		collector.Add(filename, lt.GetLine("metrics.path"), "invalid metrics.path '%s' (must start with /)", cfg.Metrics.Path)
	}

	if cfg.Metrics.Namespace != "" && !namespacePattern.MatchString(cfg.Metrics.Namespace) {
		collector.Add(filename, lt.GetLine("metrics.namespace"), "invalid metrics.namespace '%s' (must match [a-zA-Z_][a-zA-Z0-9_]*)", cfg.Metrics.Namespace)
	}
}

func validateEventLoggingConfig(cfg *configtypes.SeoConfig, filename string, collector *ErrorCollector) {
	if cfg.EventLogging == nil || !cfg.EventLogging.File.Enabled {
		return
	}

	if cfg.EventLogging.File.Path == "" {
		collector.Add(filename, 0, "event_logging.file.path is required when event logging is enabled")
	}
	if tmpl := cfg.EventLogging.File.Template; tmpl != "" {
		if err := events.ValidateTemplate(tmpl); err != nil {
			collector.Add(filename, 0, "invalid event_logging.file.template: %v", err)
		}
	}
	validateRotation(cfg.EventLogging.File.Rotation, "event_logging.file.rotation", filename, collector)
}

func validateRotation(r configtypes.RotationConfig, prefix, filename string, collector *ErrorCollector) {
	if r.MaxSize < 0 {
		collector.Add(filename, 0, "%s.max_size must be >= 0, got %d", prefix, r.MaxSize)
	}
	if r.MaxAge < 0 {
		collector.Add(filename, 0, "%s.max_age must be >= 0, got %d", prefix, r.MaxAge)
	}
	if r.MaxBackups < 0 {
		collector.Add(filename, 0, "%s.max_backups must be >= 0, got %d", prefix, r.MaxBackups)
	}
}

func validateHTTPURL(raw string) error {
	if raw == "" {
		return errEmptyURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errURLScheme
	}
	if u.Host == "" {
		return errURLHost
	}
	return nil
}
