package config

import (
	"bytes"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"

	"julclient/internal/logging"
)

// FileName is the profile file looked up in the workspace directory.
const FileName = "jul.yml"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = goerr.New("invalid config")

// Config models jul.yml.
type Config struct {
	Server struct {
		BaseURL string `yaml:"base_url"`
		Token   string `yaml:"token" masq:"secret"`
	} `yaml:"server"`
	Repo      string `yaml:"repo"`
	RateLimit struct {
		PerSecond float64 `yaml:"per_second"`
		Burst     int     `yaml:"burst"`
	} `yaml:"rate_limit"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(err, "config not found; create one with jul config init", goerr.V("path", path))
		}
		return nil, goerr.Wrap(err, "failed to read config", goerr.V("path", path))
	}
	return FromYAML(data)
}

// LoadOptional returns the defaults if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, goerr.Wrap(err, "failed to read config", goerr.V("path", path))
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Server.BaseURL != "" {
		u, err := url.Parse(c.Server.BaseURL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return goerr.Wrap(ErrInvalid, "server.base_url must be an absolute http(s) URL", goerr.V("value", c.Server.BaseURL))
		}
	}
	if c.Repo != "" && strings.ContainsAny(c.Repo, "/ ") {
		return goerr.Wrap(ErrInvalid, "repo must be a bare repository name", goerr.V("value", c.Repo))
	}
	if c.RateLimit.PerSecond < 0 {
		return goerr.Wrap(ErrInvalid, "rate_limit.per_second must not be negative", goerr.V("value", c.RateLimit.PerSecond))
	}
	if c.RateLimit.Burst < 0 {
		return goerr.Wrap(ErrInvalid, "rate_limit.burst must not be negative", goerr.V("value", c.RateLimit.Burst))
	}
	if _, ok := logging.Levels[c.Log.Level]; c.Log.Level != "" && !ok {
		return goerr.Wrap(ErrInvalid, "log.level must be one of debug, info, warn, error", goerr.V("value", c.Log.Level))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return goerr.Wrap(ErrInvalid, "log.format must be 'text' or 'json'", goerr.V("value", c.Log.Format))
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, FileName)
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// Default returns the default Config.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes. Fields missing
// from data keep their default values.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, goerr.Wrap(err, "invalid config yaml")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal renders cfg as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode config")
	}
	return data, nil
}

const defaultTemplate = `server:
  base_url: http://localhost:8000
  token: ""

# Default repository for commands that take --repo.
repo: ""

rate_limit:
  per_second: 0
  burst: 1

log:
  level: info
  format: text
  output: stderr
`
