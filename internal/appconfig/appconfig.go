package appconfig

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// defaultConfig is used when no config file is given. It exposes the same
// environment variables the service has always been configured with.
const defaultConfig = `
host: {{ quote .HOST }}
port: {{ or .PORT "0" }}
debug: {{ or .DEBUG "false" }}
storage:
  driver: {{ quote .STORAGE_DRIVER }}
  dataDir: {{ quote .DATA_DIR }}
  usersFile: {{ quote .USERS_FILE }}
  groupsFile: {{ quote .GROUPS_FILE }}
  sqlitePath: {{ quote .SQLITE_PATH }}
database:
  source: {{ quote .DATABASE_URL }}
auth:
  token: {{ quote .SCIM_TOKEN }}
  secretId: {{ quote .SCIM_TOKEN_SECRET_ID }}
pulsar:
  url: {{ quote .PULSAR_URL }}
aws:
  region: {{ quote .AWS_REGION }}
`

// Config holds all configuration details
type Config struct {
	Host     string         `yaml:"host"`
	Port     int            `yaml:"port"`
	Debug    bool           `yaml:"debug"`
	DocsPath string         `yaml:"docsPath"`
	HTTP     HTTPConfig     `yaml:"http"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Pulsar   PulsarConfig   `yaml:"pulsar"`
	AWS      AWSConfig      `yaml:"aws"`
	Backup   BackupConfig   `yaml:"backup"`
	Tunnel   TunnelConfig   `yaml:"tunnel"`
}

// HTTPConfig tunes the HTTP server
type HTTPConfig struct {
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// StorageConfig selects where the User and Group collections are persisted
type StorageConfig struct {
	Driver     string `yaml:"driver"`
	DataDir    string `yaml:"dataDir"`
	UsersFile  string `yaml:"usersFile"`
	GroupsFile string `yaml:"groupsFile"`
	SQLitePath string `yaml:"sqlitePath"`
}

// DatabaseConfig defines the database connection details
type DatabaseConfig struct {
	Source string `yaml:"source"`
}

// AuthConfig defines where the shared bearer secret comes from
type AuthConfig struct {
	Token     string `yaml:"token"`
	SecretID  string `yaml:"secretId"`
	SecretKey string `yaml:"secretKey"`
}

// PulsarConfig defines the messaging system connection details
type PulsarConfig struct {
	URL           string `yaml:"url"`
	TopicProducer string `yaml:"topicProducer"`
	TopicConsumer string `yaml:"topicConsumer"`
	Subscription  string `yaml:"subscription"`
}

type AWSConfig struct {
	Region string `yaml:"region"`
}

// BackupConfig is the S3 destination for collection snapshots
type BackupConfig struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

// TunnelConfig describes an SSH tunnel to a database that is not directly reachable
type TunnelConfig struct {
	SSHUser        string `yaml:"sshUser"`
	SSHHost        string `yaml:"sshHost"`
	SSHPort        string `yaml:"sshPort"`
	RemoteHost     string `yaml:"remoteHost"`
	RemotePort     string `yaml:"remotePort"`
	LocalPort      string `yaml:"localPort"`
	PrivateKeyPath string `yaml:"privateKeyPath"`
}

// Addr is the host:port the server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadDotEnv loads variables from a dotenv file into the environment. A missing
// file is not an error. Variables already set are left alone.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// LoadConfig loads and parses the configuration from a given file path. The file is
// rendered as a template over the environment first, so it can reference e.g.
// {{ .SCIM_TOKEN }}. An empty path uses the built-in environment-driven config.
func LoadConfig(path string) (*Config, error) {
	name := "default"
	text := defaultConfig
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		name = filepath.Base(path)
		text = string(raw)
	}

	tmpl, err := template.New(name).
		Option("missingkey=zero").
		Funcs(template.FuncMap{"quote": strconv.Quote}).
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("error parsing config file template: %w", err)
	}

	// Execute the template with environment variables
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, loadEnvVars()); err != nil {
		return nil, fmt.Errorf("error executing config file template: %w", err)
	}

	// Load and unmarshal the YAML
	var config Config
	if err := yaml.Unmarshal(buf.Bytes(), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8000
	}
	if c.DocsPath == "" {
		c.DocsPath = "/docs"
	}
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = 15 * time.Second
	}
	if c.HTTP.ShutdownTimeout == 0 {
		c.HTTP.ShutdownTimeout = 20 * time.Second
	}

	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverFile
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data"
	}
	if c.Storage.UsersFile == "" {
		c.Storage.UsersFile = filepath.Join(c.Storage.DataDir, "users.json")
	}
	if c.Storage.GroupsFile == "" {
		c.Storage.GroupsFile = filepath.Join(c.Storage.DataDir, "groups.json")
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = filepath.Join(c.Storage.DataDir, "scim.db")
	}

	if c.Pulsar.TopicProducer == "" {
		c.Pulsar.TopicProducer = "scim-provisioning"
	}
	if c.Pulsar.TopicConsumer == "" {
		c.Pulsar.TopicConsumer = c.Pulsar.TopicProducer
	}
	if c.Pulsar.Subscription == "" {
		c.Pulsar.Subscription = "scim-services"
	}

	if c.Tunnel.SSHPort == "" {
		c.Tunnel.SSHPort = "22"
	}
}

// Validate checks the settings that can't be defaulted.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	switch c.Storage.Driver {
	case DriverFile, DriverSQLite:
	case DriverPostgres:
		if c.Database.Source == "" {
			return errors.New("database.source is required for the postgres storage driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

// loadEnvVars loads environment variables into a map
func loadEnvVars() map[string]string {
	envVars := make(map[string]string)
	for _, env := range os.Environ() {
		kv := strings.SplitN(env, "=", 2)
		if len(kv) == 2 {
			envVars[kv[0]] = kv[1]
		}
	}
	return envVars
}
