package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/elektroprotokolle/pruefprotokoll/internal/cloud"
	"github.com/elektroprotokolle/pruefprotokoll/internal/export"
)

var ErrPublishingDisabled = errors.New("export publishing not configured")

// Uploader stores an export document and returns a URL to fetch it.
type Uploader interface {
	UploadExport(ctx context.Context, key string, data []byte) (string, error)
}

type ExportService struct {
	protocols *ProtocolService
	uploader  Uploader
}

// Document is a rendered export ready to be served or stored.
type Document struct {
	Filename string
	Data     []byte
}

func (s *ExportService) Export(id string) (Document, error) {
	p, err := s.protocols.Get(id)
	if err != nil {
		return Document{}, err
	}
	data, err := export.JSON(p)
	if err != nil {
		return Document{}, fmt.Errorf("render export %s: %w", id, err)
	}
	return Document{Filename: export.Filename(p), Data: data}, nil
}

// Publication tells where a published export can be downloaded.
type Publication struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

func (s *ExportService) Publish(ctx context.Context, id string) (Publication, error) {
	if s.uploader == nil {
		return Publication{}, ErrPublishingDisabled
	}
	p, err := s.protocols.Get(id)
	if err != nil {
		return Publication{}, err
	}
	data, err := export.JSON(p)
	if err != nil {
		return Publication{}, fmt.Errorf("render export %s: %w", id, err)
	}
	key := cloud.ExportKey(p)
	url, err := s.uploader.UploadExport(ctx, key, data)
	if err != nil {
		return Publication{}, fmt.Errorf("publish export %s: %w", id, err)
	}
	log.Info().Str("protocol", id).Str("key", key).Msg("export published")
	return Publication{Key: key, URL: url}, nil
}
