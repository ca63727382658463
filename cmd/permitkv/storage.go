package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dogmatiq/permitkv/config"
	"github.com/dogmatiq/permitkv/driver/aws/dynamokv"
	"github.com/dogmatiq/permitkv/driver/aws/dynamoset"
	"github.com/dogmatiq/permitkv/driver/aws/s3kv"
	"github.com/dogmatiq/permitkv/driver/memory/memorykv"
	"github.com/dogmatiq/permitkv/driver/memory/memoryset"
	"github.com/dogmatiq/permitkv/driver/sql/postgres/pgkv"
	"github.com/dogmatiq/permitkv/driver/sql/postgres/pgset"
	"github.com/dogmatiq/permitkv/driver/sql/sqlite"
	"github.com/dogmatiq/permitkv/driver/sql/sqlite/sqlitekv"
	"github.com/dogmatiq/permitkv/driver/sql/sqlite/sqliteset"
	"github.com/dogmatiq/permitkv/internal/telemetry"
	"github.com/dogmatiq/permitkv/kv"
	"github.com/dogmatiq/permitkv/set"
	_ "github.com/jackc/pgx/v4/stdlib" // pgx driver for database/sql
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log/global"
)

// storage is the set of stores opened from the configuration.
type storage struct {
	KV        kv.BinaryStore
	Sets      set.BinaryStore
	Telemetry *telemetry.Provider

	closers []func() error
}

// openStorage opens the backends named by cfg.
func openStorage(
	ctx context.Context,
	cfg *config.Config,
	logger logrus.FieldLogger,
) (_ *storage, err error) {
	s := &storage{
		Telemetry: &telemetry.Provider{},
	}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	var (
		sqliteDB *sql.DB
		pgDB     *sql.DB
		awsCfg   *aws.Config
	)

	openSQLite := func() (*sql.DB, error) {
		if sqliteDB == nil {
			db, err := sqlite.Open(ctx, cfg.Storage.SQLite.Path)
			if err != nil {
				return nil, err
			}
			s.closers = append(s.closers, db.Close)
			sqliteDB = db
		}
		return sqliteDB, nil
	}

	openPostgres := func() (*sql.DB, error) {
		if pgDB == nil {
			db, err := sql.Open("pgx", cfg.Storage.Postgres.DSN)
			if err != nil {
				return nil, fmt.Errorf("unable to open postgres database: %w", err)
			}
			s.closers = append(s.closers, db.Close)
			pgDB = db
		}
		return pgDB, nil
	}

	loadAWS := func(region string) (aws.Config, error) {
		if awsCfg == nil {
			var options []func(*awsconfig.LoadOptions) error
			if region != "" {
				options = append(options, awsconfig.WithRegion(region))
			}

			c, err := awsconfig.LoadDefaultConfig(ctx, options...)
			if err != nil {
				return aws.Config{}, fmt.Errorf("unable to load AWS configuration: %w", err)
			}
			awsCfg = &c
		}
		return *awsCfg, nil
	}

	switch cfg.Storage.Records {
	case config.Memory:
		s.KV = &memorykv.BinaryStore{}
	case config.SQLite:
		db, err := openSQLite()
		if err != nil {
			return nil, err
		}
		s.KV = &sqlitekv.BinaryStore{DB: db}
	case config.Postgres:
		db, err := openPostgres()
		if err != nil {
			return nil, err
		}
		s.KV = &pgkv.BinaryStore{DB: db}
	case config.DynamoDB:
		c, err := loadAWS(cfg.Storage.DynamoDB.Region)
		if err != nil {
			return nil, err
		}
		s.KV = dynamokv.NewBinaryStore(newDynamoClient(c, cfg.Storage.DynamoDB), cfg.Storage.DynamoDB.KVTable)
	case config.S3:
		c, err := loadAWS(cfg.Storage.S3.Region)
		if err != nil {
			return nil, err
		}
		s.KV = s3kv.NewBinaryStore(newS3Client(c, cfg.Storage.S3), cfg.Storage.S3.Bucket)
	default:
		return nil, fmt.Errorf("unsupported records backend %q", cfg.Storage.Records)
	}

	switch cfg.Storage.Sets {
	case config.Memory:
		s.Sets = &memoryset.BinaryStore{}
	case config.SQLite:
		db, err := openSQLite()
		if err != nil {
			return nil, err
		}
		s.Sets = &sqliteset.BinaryStore{DB: db}
	case config.Postgres:
		db, err := openPostgres()
		if err != nil {
			return nil, err
		}
		s.Sets = &pgset.BinaryStore{DB: db}
	case config.DynamoDB:
		c, err := loadAWS(cfg.Storage.DynamoDB.Region)
		if err != nil {
			return nil, err
		}
		s.Sets = dynamoset.NewBinaryStore(newDynamoClient(c, cfg.Storage.DynamoDB), cfg.Storage.DynamoDB.SetTable)
	default:
		return nil, fmt.Errorf("unsupported sets backend %q", cfg.Storage.Sets)
	}

	if cfg.Telemetry {
		s.Telemetry = &telemetry.Provider{
			TracerProvider: otel.GetTracerProvider(),
			MeterProvider:  otel.GetMeterProvider(),
			LoggerProvider: global.GetLoggerProvider(),
		}

		s.KV = kv.WithTelemetry(s.KV, s.Telemetry.TracerProvider, s.Telemetry.MeterProvider, s.Telemetry.LoggerProvider)
		s.Sets = set.WithTelemetry(s.Sets, s.Telemetry.TracerProvider, s.Telemetry.MeterProvider, s.Telemetry.LoggerProvider)
	}

	s.KV = kv.WithNamePrefix(s.KV, cfg.Storage.Prefix)
	s.Sets = set.WithNamePrefix(s.Sets, cfg.Storage.Prefix)

	logger.WithFields(logrus.Fields{
		"records":   cfg.Storage.Records,
		"sets":      cfg.Storage.Sets,
		"prefix":    cfg.Storage.Prefix,
		"telemetry": cfg.Telemetry,
	}).Debug("storage opened")

	return s, nil
}

// Close releases any resources held by the stores.
func (s *storage) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	s.closers = nil
	return errors.Join(errs...)
}

func newDynamoClient(c aws.Config, cfg config.DynamoDBConfig) *dynamodb.Client {
	return dynamodb.NewFromConfig(c, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
}

func newS3Client(c aws.Config, cfg config.S3Config) *s3.Client {
	return s3.NewFromConfig(c, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})
}
