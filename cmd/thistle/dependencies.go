package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/thistle/config"
	"github.com/Ramsey-B/thistle/pkg/database"
	"github.com/Ramsey-B/thistle/pkg/kafka"
	"github.com/Ramsey-B/thistle/pkg/redis"
	"github.com/Ramsey-B/thistle/pkg/tracing"
	"github.com/Ramsey-B/thistle/pkg/tracing/exporters"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	dependencyTracing    = "tracing"
	dependencyPostgres   = "postgres"
	dependencyMigrations = "migrations"
	dependencyRedis      = "redis"
	dependencyKafka      = "kafka"
)

type tracingDependency struct {
	cfg      *config.Config
	logger   ectologger.Logger
	provider *sdktrace.TracerProvider
}

func (d *tracingDependency) GetName() string     { return dependencyTracing }
func (d *tracingDependency) DependsOn() []string { return nil }

func (d *tracingDependency) Start(ctx context.Context) error {
	exporter, err := exporters.New(ctx, exporters.Config{
		Protocol: d.cfg.TracingProtocol,
		Endpoint: d.cfg.TracingEndpoint,
		Insecure: d.cfg.TracingInsecure,
		Headers:  d.cfg.TracingHeaders,
		Timeout:  d.cfg.TracingTimeout,
		Logger:   d.logger,
	})
	if err != nil {
		return err
	}

	resource, err := sdkresource.New(ctx,
		sdkresource.WithTelemetrySDK(),
		sdkresource.WithAttributes(
			semconv.ServiceName(d.cfg.AppName),
			semconv.ServiceVersion(d.cfg.Version),
		),
	)
	if err != nil {
		return err
	}

	d.provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource),
	)
	otel.SetTracerProvider(d.provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	tracing.SetTracer(d.provider.Tracer(d.cfg.AppName))
	return nil
}

func (d *tracingDependency) Stop(ctx context.Context) error {
	if d.provider == nil {
		return nil
	}
	return d.provider.Shutdown(ctx)
}

type postgresDependency struct {
	cfg    *config.Config
	logger ectologger.Logger
	sqlxDB *sqlx.DB
	db     database.DB
}

func (d *postgresDependency) GetName() string     { return dependencyPostgres }
func (d *postgresDependency) DependsOn() []string { return nil }

func (d *postgresDependency) Start(ctx context.Context) error {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.cfg.DatabaseHost,
		d.cfg.DatabasePort,
		d.cfg.DatabaseUserName,
		d.cfg.DatabasePassword,
		d.cfg.DatabaseName,
		d.cfg.DatabaseSSLMode,
	)

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(d.cfg.DatabaseMaxOpenConns)
	db.SetMaxIdleConns(d.cfg.DatabaseMaxIdleConns)
	db.SetConnMaxLifetime(d.cfg.DatabaseConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to connect to postgres at %s:%s: %w", d.cfg.DatabaseHost, d.cfg.DatabasePort, err)
	}

	d.sqlxDB = db
	d.db = database.NewDatabaseInstance(db, d.logger)
	d.logger.Infof("Connected to postgres at %s:%s", d.cfg.DatabaseHost, d.cfg.DatabasePort)
	return nil
}

func (d *postgresDependency) Stop(_ context.Context) error {
	if d.sqlxDB == nil {
		return nil
	}
	return d.sqlxDB.Close()
}

type migrationDependency struct {
	cfg      *config.Config
	logger   ectologger.Logger
	postgres *postgresDependency
}

func (d *migrationDependency) GetName() string     { return dependencyMigrations }
func (d *migrationDependency) DependsOn() []string { return []string{dependencyPostgres} }

func (d *migrationDependency) Start(_ context.Context) error {
	service := database.NewMigrationService(d.logger, &database.MigrationConfig{
		MigrationFolderPath: d.cfg.DatabaseMigrationFolderPath,
		Version:             uint(d.cfg.DatabaseMigrationVersion),
		Force:               d.cfg.DatabaseMigrationForce,
		AutoRollback:        d.cfg.DatabaseMigrationAutoRollback,
	})
	return service.Migrate(d.cfg.DatabaseName, d.postgres.sqlxDB.DB)
}

func (d *migrationDependency) Stop(_ context.Context) error { return nil }

type redisDependency struct {
	cfg    *config.Config
	logger ectologger.Logger
	client *redis.Client
}

func (d *redisDependency) GetName() string     { return dependencyRedis }
func (d *redisDependency) DependsOn() []string { return nil }

func (d *redisDependency) Start(_ context.Context) error {
	client, err := redis.NewClient(redis.Config{
		Host:      d.cfg.RedisHost,
		Port:      d.cfg.RedisPort,
		Password:  d.cfg.RedisPassword,
		DB:        d.cfg.RedisDB,
		KeyPrefix: d.cfg.RedisKeyPrefix,
	}, d.logger)
	if err != nil {
		return err
	}
	d.client = client
	return nil
}

func (d *redisDependency) Stop(_ context.Context) error {
	if d.client == nil {
		return nil
	}
	return d.client.Close()
}

type kafkaDependency struct {
	cfg      *config.Config
	logger   ectologger.Logger
	producer *kafka.Producer
}

func (d *kafkaDependency) GetName() string     { return dependencyKafka }
func (d *kafkaDependency) DependsOn() []string { return nil }

func (d *kafkaDependency) Start(_ context.Context) error {
	d.producer = kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      d.cfg.KafkaBrokers,
		Topic:        d.cfg.KafkaOutputTopic,
		BatchSize:    d.cfg.KafkaBatchSize,
		BatchTimeout: time.Duration(d.cfg.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: d.cfg.KafkaRequiredAcks,
		Compression:  d.cfg.KafkaCompression,
	}, d.logger)
	return nil
}

func (d *kafkaDependency) Stop(_ context.Context) error {
	if d.producer == nil {
		return nil
	}
	return d.producer.Close()
}
