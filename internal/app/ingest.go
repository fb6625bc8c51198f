package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/elektroprotokolle/pruefprotokoll/internal/config"
	"github.com/elektroprotokolle/pruefprotokoll/internal/events"
	"github.com/elektroprotokolle/pruefprotokoll/internal/service"
)

var errNoBroker = errors.New("MQTT_BROKER is not set")

// Ingest subscribes to field device submissions and feeds them into the same
// services the API serves, so there is a single owner of the collection.
func (a *App) Ingest(ctx context.Context) error {
	if a.MQTT == nil {
		return errNoBroker
	}
	topic := config.MQTTSubmissionTopic()
	onError := func(topic string, err error) {
		log.Error().Err(err).Str("topic", topic).Msg("submission rejected")
	}
	if err := events.Subscribe(a.MQTT, topic, submissionHandler(ctx, a.Services.Protocols), onError); err != nil {
		return err
	}
	log.Info().Str("topic", topic).Msg("ingesting submissions")
	return nil
}

// submissionHandler creates a protocol for submissions without id and
// patches the stored protocol otherwise.
func submissionHandler(ctx context.Context, protocols *service.ProtocolService) func(events.Submission) error {
	return func(s events.Submission) error {
		if s.ProtocolID == "" {
			p, err := protocols.Create(ctx, s.Patch)
			if err == nil {
				log.Debug().Str("protocol", p.ID()).Msg("submission created protocol")
			}
			return err
		}
		_, err := protocols.Update(ctx, s.ProtocolID, s.Patch)
		return err
	}
}
