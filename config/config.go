// Package config loads the permitkv process configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/dogmatiq/permitkv/capability"
	"gopkg.in/yaml.v3"
)

// EnvVar is the environment variable that names the configuration file when
// no path is given explicitly.
const EnvVar = "PERMITKV_CONFIG"

// Config is the process configuration.
type Config struct {
	// SocketPath is the path of the Unix socket that the server listens on.
	SocketPath string `yaml:"socket_path"`

	// RevocationKey is the name of the set that holds revoked permits.
	RevocationKey string `yaml:"revocation_key"`

	// Telemetry enables export of traces, metrics and logs to the globally
	// registered OpenTelemetry providers.
	Telemetry bool `yaml:"telemetry"`

	// Storage configures persistence.
	Storage StorageConfig `yaml:"storage"`
}

// StorageConfig configures the storage backends.
type StorageConfig struct {
	// Records is the backend that stores records and the deployment
	// configuration.
	Records Backend `yaml:"records"`

	// Sets is the backend that stores the revocation registry.
	Sets Backend `yaml:"sets"`

	// Prefix is prepended to every keyspace and set name.
	Prefix string `yaml:"prefix"`

	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
	DynamoDB DynamoDBConfig `yaml:"dynamodb"`
	S3       S3Config       `yaml:"s3"`
}

// SQLiteConfig configures the SQLite backend.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// PostgresConfig configures the PostgreSQL backend.
type PostgresConfig struct {
	// DSN is a pgx connection string.
	DSN string `yaml:"dsn"`
}

// DynamoDBConfig configures the DynamoDB backend.
type DynamoDBConfig struct {
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
	KVTable  string `yaml:"kv_table"`
	SetTable string `yaml:"set_table"`
}

// S3Config configures the S3 backend.
type S3Config struct {
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
	Bucket   string `yaml:"bucket"`

	// PathStyle forces path-style addressing, as required by most
	// S3-compatible servers.
	PathStyle bool `yaml:"path_style"`
}

// Default returns the configuration used for any value that the file does not
// set.
func Default() *Config {
	return &Config{
		SocketPath:    "/run/permitkv/permitkv.sock",
		RevocationKey: capability.DefaultRevocationKey,
		Storage: StorageConfig{
			Records: Memory,
			Sets:    Memory,
			SQLite: SQLiteConfig{
				Path: "permitkv.db",
			},
			DynamoDB: DynamoDBConfig{
				KVTable:  "permitkv",
				SetTable: "permitkv_set",
			},
		},
	}
}

// Load loads the configuration file named by [EnvVar].
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return nil, fmt.Errorf("%s environment variable not set; set it to the path of your permitkv.yaml file, or use --config", EnvVar)
	}

	return LoadFile(path)
}

// LoadFile loads the configuration file at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	return Parse(data)
}

// Parse parses YAML configuration, applying defaults for unset values.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unable to parse config file: %w", err)
	}

	return cfg, cfg.Validate()
}

// Validate returns an error if the configuration is incomplete or
// inconsistent.
func (c *Config) Validate() error {
	var errs []error

	if c.SocketPath == "" {
		errs = append(errs, errors.New("socket_path is required"))
	}

	if c.RevocationKey == "" {
		errs = append(errs, errors.New("revocation_key must not be empty"))
	}

	if c.Storage.Sets == S3 {
		errs = append(errs, errors.New("storage.sets does not support the s3 backend"))
	}

	for _, b := range []Backend{c.Storage.Records, c.Storage.Sets} {
		if err := b.validate(); err != nil {
			errs = append(errs, err)
		}
	}

	uses := func(b Backend) bool {
		return slices.Contains([]Backend{c.Storage.Records, c.Storage.Sets}, b)
	}

	if uses(SQLite) && c.Storage.SQLite.Path == "" {
		errs = append(errs, errors.New("storage.sqlite.path is required"))
	}

	if uses(Postgres) && c.Storage.Postgres.DSN == "" {
		errs = append(errs, errors.New("storage.postgres.dsn is required"))
	}

	if c.Storage.Records == DynamoDB && c.Storage.DynamoDB.KVTable == "" {
		errs = append(errs, errors.New("storage.dynamodb.kv_table is required"))
	}

	if c.Storage.Sets == DynamoDB && c.Storage.DynamoDB.SetTable == "" {
		errs = append(errs, errors.New("storage.dynamodb.set_table is required"))
	}

	if uses(S3) && c.Storage.S3.Bucket == "" {
		errs = append(errs, errors.New("storage.s3.bucket is required"))
	}

	return errors.Join(errs...)
}
