package app

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/elektroprotokolle/pruefprotokoll/internal/config"
)

func TestBuild_InMemory(t *testing.T) {
	t.Setenv("ARCHIVE_BACKEND", "none")
	t.Setenv("MQTT_BROKER", "")
	t.Setenv("USE_CLOUD_SERVICES", "false")
	if err := config.Load(); err != nil {
		t.Fatal(err)
	}

	a, err := Build(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	if a.MQTT != nil || a.Services == nil || len(a.Services.Protocols.List()) != 0 {
		t.Errorf("in-memory app = %+v", a)
	}
}

func TestConfigureLogging(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	t.Setenv("LOG_LEVEL", "debug")
	if err := config.Load(); err != nil {
		t.Fatal(err)
	}
	ConfigureLogging()
	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Errorf("level = %v", zerolog.GlobalLevel())
	}

	t.Setenv("LOG_LEVEL", "chatty")
	ConfigureLogging()
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("fallback level = %v", zerolog.GlobalLevel())
	}
}
