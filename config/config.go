package config

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

// CacheType selects the backing store for the event cache.
type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeRedis  CacheType = "redis"
)

// Config holds the configuration for the campusevents server and its dependencies.
type Config struct {
	// Listen is the address the server will listen on.
	Listen string `yaml:"listen" mapstructure:"listen"`
	// ServerURL is the externally reachable base URL of the server. It is
	// used to build the CAS service URL.
	ServerURL string `yaml:"server_url" mapstructure:"server_url"`
	// LogLevel sets the log verbosity (debug, info, warn, error).
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
	// SessionKey is the key used to encrypt session data.
	SessionKey string `yaml:"session_key" mapstructure:"session_key"`
	// SessionMaxAge is the absolute session lifetime in seconds.
	SessionMaxAge int `yaml:"session_max_age" mapstructure:"session_max_age"`
	// SessionRenewal is the active-renewal interval in seconds. A request
	// arriving later than this after the last renewal refreshes the cookie.
	SessionRenewal int `yaml:"session_renewal" mapstructure:"session_renewal"`
	// Auth holds the authentication configuration.
	Auth *AuthConfig `yaml:"auth" mapstructure:"auth"`
	// Database holds the database configuration.
	Database *DatabaseConfig `yaml:"database" mapstructure:"database"`
	// Cache holds the event cache configuration.
	Cache *CacheConfig `yaml:"cache" mapstructure:"cache"`
	// Gravatar holds the configuration for Gravatar profile pictures.
	Gravatar *GravatarConfig `yaml:"gravatar" mapstructure:"gravatar"`
}

// AuthConfig holds the authentication configuration.
type AuthConfig struct {
	// CAS holds the campus single-sign-on configuration.
	CAS *CASConfig `yaml:"cas" mapstructure:"cas"`
	// OIDC holds the OpenID Connect configuration.
	OIDC *OIDCConfig `yaml:"oidc" mapstructure:"oidc"`
}

// CASConfig holds the campus single-sign-on configuration.
type CASConfig struct {
	// Enabled indicates whether CAS authentication is enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// ServerURL is the base URL of the CAS server, e.g. https://login.example.edu/cas.
	ServerURL string `yaml:"server_url" mapstructure:"server_url"`
	// EmailDomain derives a user's email from the CAS username on first
	// login ({username}@{domain}). Empty means the email must come from the
	// submitted profile form instead.
	EmailDomain string `yaml:"email_domain" mapstructure:"email_domain"`
}

// OIDCConfig holds the OpenID Connect configuration.
type OIDCConfig struct {
	// Enabled indicates whether OIDC authentication is enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Issuer is the OIDC issuer URL.
	Issuer string `yaml:"issuer" mapstructure:"issuer"`
	// ClientID is the OIDC client ID.
	ClientID string `yaml:"client_id" mapstructure:"client_id"`
	// ClientSecret is the OIDC client secret.
	ClientSecret string `yaml:"client_secret" mapstructure:"client_secret"`
	// RedirectURL is the redirect URL for the oidc flow.
	RedirectURL string `yaml:"redirect_url" mapstructure:"redirect_url"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	// Path is the path to the sqlite database file.
	Path string `yaml:"path" mapstructure:"path"`
}

// CacheConfig holds the event cache configuration.
type CacheConfig struct {
	// Type selects the cache backend ("memory" or "redis").
	Type CacheType `yaml:"type" mapstructure:"type"`
	// RedisURL is the redis address, required when type is "redis".
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
	// TTL is the cache entry lifetime in seconds.
	TTL int `yaml:"ttl" mapstructure:"ttl"`
}

// GravatarConfig holds the configuration for Gravatar profile pictures.
type GravatarConfig struct {
	// Enabled indicates whether Gravatar support is enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// DefaultImage is the default image to use when no Gravatar is found.
	DefaultImage string `yaml:"default_image" mapstructure:"default_image"`
	// Size is the size of the Gravatar image in pixels.
	Size int `yaml:"size" mapstructure:"size"`
}

// Load reads the configuration from the specified path and returns a Config
// struct. If path is empty, common locations are searched. Environment
// variables with the CAMPUSEVENTS_ prefix override file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix("CAMPUSEVENTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.campusevents")
		v.AddConfigPath("/etc/campusevents")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", "0.0.0.0:3000")
	v.SetDefault("server_url", "http://localhost:3000")
	v.SetDefault("log_level", "info")
	v.SetDefault("session_max_age", 1800) // 30 minutes
	v.SetDefault("session_renewal", 300)  // 5 minutes

	v.SetDefault("auth.cas.enabled", true)
	v.SetDefault("auth.cas.server_url", "")
	v.SetDefault("auth.cas.email_domain", "")
	v.SetDefault("auth.oidc.enabled", false)

	v.SetDefault("database.path", "./data/campusevents.db")

	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", 300)

	v.SetDefault("gravatar.enabled", true)
	v.SetDefault("gravatar.default_image", "retro")
	v.SetDefault("gravatar.size", 200)
}

func validateConfig(c *Config) error {
	if c.SessionKey == "" {
		return fmt.Errorf("session_key is required")
	}
	if c.Auth == nil || ((c.Auth.CAS == nil || !c.Auth.CAS.Enabled) && (c.Auth.OIDC == nil || !c.Auth.OIDC.Enabled)) {
		return fmt.Errorf("no authentication provider is enabled")
	}
	if c.Auth.CAS != nil && c.Auth.CAS.Enabled && c.Auth.CAS.ServerURL == "" {
		return fmt.Errorf("auth.cas.server_url is required when CAS is enabled")
	}
	if c.Auth.OIDC != nil && c.Auth.OIDC.Enabled {
		if c.Auth.OIDC.Issuer == "" || c.Auth.OIDC.ClientID == "" {
			return fmt.Errorf("auth.oidc.issuer and auth.oidc.client_id are required when OIDC is enabled")
		}
	}
	if c.Cache != nil && c.Cache.Type == CacheTypeRedis && c.Cache.RedisURL == "" {
		return fmt.Errorf("cache.redis_url is required when cache type is redis")
	}
	return nil
}
