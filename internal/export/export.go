// Package export renders committed protocols into downloadable documents.
package export

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/elektroprotokolle/pruefprotokoll/internal/domain"
)

const ContentType = "application/json"

// JSON renders p as an indented JSON document carrying every field.
func JSON(p domain.Protocol) ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export protocol %s: %w", p.ID(), err)
	}
	return append(data, '\n'), nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

var umlauts = strings.NewReplacer("ä", "ae", "ö", "oe", "ü", "ue", "Ä", "Ae", "Ö", "Oe", "Ü", "Ue", "ß", "ss")

// Filename names the download after the installation and creation date,
// e.g. pruefprotokoll_LVUM-123_2026-05-06.json.
func Filename(p domain.Protocol) string {
	anlage := strings.Trim(unsafeChars.ReplaceAllString(umlauts.Replace(p.Anlage()), "-"), "-")
	if anlage == "" {
		anlage = p.ID()
	}
	return fmt.Sprintf("pruefprotokoll_%s_%s.json", anlage, p.CreatedAt().Format(domain.DateLayout))
}
