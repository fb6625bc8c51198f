// Package app wires configuration into a running set of services.
package app

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/elektroprotokolle/pruefprotokoll/internal/cloud"
	"github.com/elektroprotokolle/pruefprotokoll/internal/config"
	"github.com/elektroprotokolle/pruefprotokoll/internal/database"
	"github.com/elektroprotokolle/pruefprotokoll/internal/events"
	"github.com/elektroprotokolle/pruefprotokoll/internal/repository"
	"github.com/elektroprotokolle/pruefprotokoll/internal/service"
)

// ConfigureLogging applies LOG_LEVEL to the global zerolog logger.
func ConfigureLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level, err := zerolog.ParseLevel(config.LogLevel())
	if err != nil {
		log.Warn().Str("level", config.LogLevel()).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

type App struct {
	Services *service.Services
	// MQTT is nil when no broker is configured.
	MQTT mqtt.Client

	closers []func()
}

// Build opens the configured archive and cloud clients and restores the
// collection from the archive. The broker is dialed only with withBroker;
// read-only clients leave it to the API process.
func Build(ctx context.Context, withBroker bool) (*App, error) {
	a := &App{}
	var opts []service.Option

	archive, err := a.openArchive(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	if archive != nil {
		opts = append(opts, service.WithArchive(archive))
	}

	if config.UseCloudServices() {
		s3, err := cloud.NewS3Client(ctx, config.AWSRegion(), config.S3Bucket())
		if err != nil {
			a.Close()
			return nil, err
		}
		opts = append(opts, service.WithUploader(s3), service.WithNotifiers(s3))
		if arn := config.SNSTopicArn(); arn != "" {
			sns, err := cloud.NewSNSClient(ctx, config.AWSRegion(), arn)
			if err != nil {
				a.Close()
				return nil, err
			}
			opts = append(opts, service.WithNotifiers(sns), service.WithAlerter(sns))
		}
		log.Info().Str("bucket", config.S3Bucket()).Bool("alerts", config.SNSTopicArn() != "").Msg("cloud services enabled")
	}

	if broker := config.MQTTBroker(); withBroker && broker != "" {
		client, err := events.Connect(broker, config.MQTTClientID())
		if err != nil {
			a.Close()
			return nil, err
		}
		a.MQTT = client
		a.closers = append(a.closers, func() { client.Disconnect(250) })
		opts = append(opts, service.WithNotifiers(events.NewPublisher(client, config.MQTTEventTopic(), time.Now)))
		log.Info().Str("broker", broker).Msg("mqtt connected")
	}

	a.Services = service.New(opts...)
	n, err := a.Services.Protocols.Restore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	log.Info().Str("archive", config.ArchiveBackend()).Int("protocols", n).Msg("protocols restored")
	return a, nil
}

func (a *App) openArchive(ctx context.Context) (service.Archive, error) {
	switch config.ArchiveBackend() {
	case config.ArchivePostgres:
		db, err := database.Connect()
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		a.closers = append(a.closers, func() { db.Close() })
		archive := repository.NewSQLArchive(db)
		if err := archive.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return archive, nil
	case config.ArchiveDynamoDB:
		archive, err := cloud.NewDynamoDBArchive(ctx, config.AWSRegion(), config.DynamoDBTable())
		if err != nil {
			return nil, err
		}
		return archive, nil
	}
	return nil, nil
}

// Close releases connections in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
