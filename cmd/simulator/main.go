package main

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/elektroprotokolle/pruefprotokoll/internal/config"
	"github.com/elektroprotokolle/pruefprotokoll/internal/domain"
	"github.com/elektroprotokolle/pruefprotokoll/internal/events"
)

var auftraggeber = []string{"Volkswagen AG", "Stadtwerke Braunschweig", "Klinikum Wolfsburg"}

// submission fakes a completed inspection form with a few circuits.
func submission(i int) events.Submission {
	next := time.Now().AddDate(0, rand.IntN(24)-6, 0).Format(domain.DateLayout)
	patch := domain.Patch{
		Fields: map[string]string{
			"auftraggeber":     auftraggeber[rand.IntN(len(auftraggeber))],
			"auftragNr":        fmt.Sprintf("%d", 1400+i),
			"anlage":           fmt.Sprintf("LVUM-%03d", i),
			"ort":              "Wolfsburg",
			"naechstePruefung": next,
		},
		BesichtigungItems: map[string]domain.InspectionStatus{},
		Messgeraet:        map[string]string{"fabrikat": "Benning", "typ": "IT 130", "kalibrierung": "2027-01-31"},
	}
	for _, k := range domain.InspectionKeys() {
		status := domain.StatusIO
		if rand.Float64() < 0.05 {
			status = domain.StatusNIO
			patch.Fields["ergebnis"] = string(domain.ErgebnisMaengel)
		}
		patch.BesichtigungItems[k.String()] = status
	}
	circuits := 1 + rand.IntN(4)
	for pos := 1; pos <= circuits; pos++ {
		patch.Measurements = append(patch.Measurements, map[string]string{
			"posNr":                fmt.Sprintf("%d", pos),
			"zielbezeichnung":      fmt.Sprintf("Stromkreis %d", pos),
			"schutzCharakteristik": "B",
			"schutzIn":             "16",
			"zsOhm":                fmt.Sprintf("%.2f", 0.2+rand.Float64()),
			"risoOhne":             ">999",
		})
	}
	return events.Submission{Patch: patch}
}

func main() {
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	client, err := events.Connect(config.MQTTBroker(), config.MQTTClientID()+"-simulator")
	if err != nil {
		log.Fatal().Err(err).Msg("mqtt connect")
	}
	defer client.Disconnect(250)

	topic := config.MQTTSubmissionTopic()
	for i := 1; i <= 20; i++ {
		payload, err := json.Marshal(submission(i))
		if err != nil {
			log.Fatal().Err(err).Msg("marshal submission")
		}
		token := client.Publish(topic, 1, false, payload)
		token.Wait()
		if err := token.Error(); err != nil {
			log.Error().Err(err).Int("n", i).Msg("publish failed")
		}
		time.Sleep(500 * time.Millisecond)
	}
	log.Info().Msg("simulation done")
}
