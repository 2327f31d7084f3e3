package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"duckdns6/common"
	"duckdns6/log"

	"github.com/goccy/go-json"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	DefaultCron         = "*/5 * * * *"
	DefaultMethod       = "external"
	DefaultIPServiceURL = "https://6.ipw.cn"
)

// Config is loaded once at startup and treated as immutable afterwards.
// Every update cycle receives it by value.
type Config struct {
	Cron         string `toml:"cron" json:"cron" yaml:"cron"`
	IPv6Method   string `toml:"ipv6_method" json:"ipv6_method" yaml:"ipv6_method"`
	IPServiceURL string `toml:"ip_service_url" json:"ip_service_url" yaml:"ip_service_url"`
	Domain       string `toml:"domain" json:"domain" yaml:"domain"`
	Token        string `toml:"token" json:"token" yaml:"token"`
	Interface    string `toml:"interface,omitempty" json:"interface,omitempty" yaml:"interface,omitempty"`

	Resolver  map[string]any `toml:"resolver,omitempty" json:"resolver,omitempty" yaml:"resolver,omitempty"`
	Publisher map[string]any `toml:"publisher,omitempty" json:"publisher,omitempty" yaml:"publisher,omitempty"`

	Log Log `toml:"log" json:"log" yaml:"log"`
}

type Log struct {
	Level     *zapcore.Level `toml:"level" json:"level" yaml:"level"`
	Encoding  *string        `toml:"encoding" json:"encoding" yaml:"encoding"`
	InfoPath  *[]string      `toml:"info_path" json:"info_path" yaml:"info_path"`
	ErrorPath *[]string      `toml:"error_path" json:"error_path" yaml:"error_path"`
}

// ResolverOptions is decoded from the free-form [resolver] map.
type ResolverOptions struct {
	Timeout common.Duration `mapstructure:"timeout"`
}

// PublisherOptions is decoded from the free-form [publisher] map. Endpoint
// exists so tests can point the publisher at a stub server.
type PublisherOptions struct {
	Endpoint string          `mapstructure:"endpoint"`
	Timeout  common.Duration `mapstructure:"timeout"`
}

// FromEnv reads configuration from the environment. Only presence is
// checked here; Validate decides whether the result is usable.
func FromEnv() Config {
	return Config{
		Cron:         os.Getenv("CRON"),
		IPv6Method:   os.Getenv("IPV6_METHOD"),
		IPServiceURL: os.Getenv("IP_SERVICE_URL"),
		Domain:       os.Getenv("DUCKDNS_DOMAIN"),
		Token:        os.Getenv("DUCKDNS_TOKEN"),
		Interface:    os.Getenv("HOSTS_INTERFACE"),
	}
}

func fromFile(path string) (conf Config, err error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	switch {
	case strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml"):
		err = yaml.NewDecoder(f).Decode(&conf)
	case strings.HasSuffix(path, ".json"):
		err = json.NewDecoder(f).Decode(&conf)
	default:
		err = toml.NewDecoder(f).Decode(&conf)
	}

	if err != nil {
		return Config{}, err
	}

	return conf, nil
}

func (c *Config) applyDefaults() {
	if c.Cron == "" {
		c.Cron = DefaultCron
	}
	if c.IPv6Method == "" {
		c.IPv6Method = DefaultMethod
	}
	if c.IPServiceURL == "" {
		c.IPServiceURL = DefaultIPServiceURL
	}
}

// Validate reports missing mandatory fields. A failure here is fatal at
// startup; nothing is retried per cycle.
func (c *Config) Validate() error {
	var missing []string
	if c.Domain == "" {
		missing = append(missing, "domain")
	}
	if c.Token == "" {
		missing = append(missing, "token")
	}

	if len(missing) != 0 {
		return fmt.Errorf("missing mandatory configuration: %s", strings.Join(missing, ", "))
	}

	return nil
}

// Load reads the config file at path if it exists and parses, and falls
// back to environment variables otherwise.
func Load(ctx context.Context, path string) (Config, error) {
	conf, err := fromFile(path)
	if err != nil {
		log.S(ctx).Infow("config file not usable, reading environment", "path", path, zap.Error(err))
		conf = FromEnv()
	} else {
		log.S(ctx).Infow("loaded config file", "path", path)
	}

	conf.applyDefaults()
	if err := conf.Validate(); err != nil {
		return Config{}, err
	}

	return conf, nil
}
