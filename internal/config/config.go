package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	RepositoryPostgres = "postgres"
	RepositoryInMemory = "inmemory"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Logging    LoggingConfig    `yaml:"logging"`
	Repository RepositoryConfig `yaml:"repository"`
}

type ServerConfig struct {
	Port              string        `yaml:"port"`
	Host              string        `yaml:"host"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	RateLimit         int           `yaml:"rate_limit"`
	CORSOrigins       []string      `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	URL            string        `yaml:"url"`
	User           string        `yaml:"user"`
	Password       string        `yaml:"password"`
	MaxConnections int           `yaml:"max_connections"`
	MinConnections int           `yaml:"min_connections"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	Migrate        bool          `yaml:"migrate"`
}

type LoggingConfig struct {
	Development bool `yaml:"development"`
}

type RepositoryConfig struct {
	Type string `yaml:"type"` // "postgres" or "inmemory"
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              "8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			RateLimit:         100,
		},
		Database: DatabaseConfig{
			MaxConnections: 10,
			MinConnections: 2,
			IdleTimeout:    5 * time.Minute,
			Migrate:        true,
		},
		Repository: RepositoryConfig{
			Type: RepositoryPostgres,
		},
	}
}

// Load starts from Default, applies the YAML file at path when it exists and
// then the environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

var envBindings = map[string][]string{
	"server.host":                {"TODOS_SERVER_HOST"},
	"server.port":                {"TODOS_SERVER_PORT", "PORT"},
	"server.read_header_timeout": {"TODOS_SERVER_READ_HEADER_TIMEOUT"},
	"server.shutdown_timeout":    {"TODOS_SERVER_SHUTDOWN_TIMEOUT"},
	"server.rate_limit":          {"TODOS_SERVER_RATE_LIMIT"},
	"server.cors_origins":        {"TODOS_SERVER_CORS_ORIGINS"},
	"database.url":               {"TODOS_DATABASE_URL", "DATABASE_URL"},
	"database.user":              {"TODOS_DATABASE_USER"},
	"database.password":          {"TODOS_DATABASE_PASSWORD"},
	"database.max_connections":   {"TODOS_DATABASE_MAX_CONNECTIONS"},
	"database.min_connections":   {"TODOS_DATABASE_MIN_CONNECTIONS"},
	"database.idle_timeout":      {"TODOS_DATABASE_IDLE_TIMEOUT"},
	"database.migrate":           {"TODOS_DATABASE_MIGRATE"},
	"logging.development":        {"TODOS_LOGGING_DEVELOPMENT"},
	"repository.type":            {"TODOS_REPOSITORY_TYPE"},
}

func (c *Config) loadEnv() error {
	v := viper.New()
	for key, names := range envBindings {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	setString := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	setInt := func(key string, dst *int) {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v.IsSet(key) {
			*dst = v.GetDuration(key)
		}
	}
	setBool := func(key string, dst *bool) {
		if v.IsSet(key) {
			*dst = v.GetBool(key)
		}
	}

	setString("server.host", &c.Server.Host)
	setString("server.port", &c.Server.Port)
	setDuration("server.read_header_timeout", &c.Server.ReadHeaderTimeout)
	setDuration("server.shutdown_timeout", &c.Server.ShutdownTimeout)
	setInt("server.rate_limit", &c.Server.RateLimit)
	if v.IsSet("server.cors_origins") {
		c.Server.CORSOrigins = splitList(v.GetString("server.cors_origins"))
	}

	setString("database.url", &c.Database.URL)
	setString("database.user", &c.Database.User)
	setString("database.password", &c.Database.Password)
	setInt("database.max_connections", &c.Database.MaxConnections)
	setInt("database.min_connections", &c.Database.MinConnections)
	setDuration("database.idle_timeout", &c.Database.IdleTimeout)
	setBool("database.migrate", &c.Database.Migrate)

	setBool("logging.development", &c.Logging.Development)
	setString("repository.type", &c.Repository.Type)

	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (c *Config) Validate() error {
	switch c.Repository.Type {
	case RepositoryPostgres:
		if c.Database.URL == "" {
			return errors.New("database url is required for the postgres repository")
		}
		if _, err := c.Database.DSN(); err != nil {
			return err
		}
	case RepositoryInMemory:
	default:
		return fmt.Errorf("unknown repository type %q", c.Repository.Type)
	}

	if c.Server.Port == "" {
		return errors.New("server port is required")
	}
	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min_connections %d exceeds max_connections %d",
			c.Database.MinConnections, c.Database.MaxConnections)
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}

// DSN returns the connection URL with User and Password applied.
func (d DatabaseConfig) DSN() (string, error) {
	if d.User == "" && d.Password == "" {
		return d.URL, nil
	}

	u, err := url.Parse(d.URL)
	if err != nil || u.Scheme == "" {
		return "", fmt.Errorf("database url must be a postgres:// URL when user or password is set")
	}

	user := d.User
	if user == "" && u.User != nil {
		user = u.User.Username()
	}
	if d.Password != "" {
		u.User = url.UserPassword(user, d.Password)
	} else if existing, ok := u.User.Password(); ok {
		u.User = url.UserPassword(user, existing)
	} else {
		u.User = url.User(user)
	}
	return u.String(), nil
}
