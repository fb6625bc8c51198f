package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/elektroprotokolle/pruefprotokoll/internal/app"
	"github.com/elektroprotokolle/pruefprotokoll/internal/config"
	httpHandlers "github.com/elektroprotokolle/pruefprotokoll/internal/http"
	"github.com/elektroprotokolle/pruefprotokoll/internal/metrics"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	app.ConfigureLogging()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, true)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer a.Close()

	server := fiber.New(fiber.Config{DisableStartupMessage: true, Immutable: true})
	server.Use(metrics.Middleware())

	server.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	server.Get("/metrics", metrics.Handler())

	httpHandlers.Register(server, a.Services)

	if a.MQTT != nil {
		if err := a.Ingest(ctx); err != nil {
			log.Fatal().Err(err).Msg("subscribe failed")
		}
	}

	go func() {
		<-ctx.Done()
		if err := server.Shutdown(); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	addr := config.APIAddr()
	log.Info().Str("addr", addr).Msg("api listening")
	if err := server.Listen(addr); err != nil {
		log.Error().Err(err).Msg("server exit")
	}
}
