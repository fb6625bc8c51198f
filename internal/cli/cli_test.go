package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/elektroprotokolle/pruefprotokoll/internal/domain"
	"github.com/elektroprotokolle/pruefprotokoll/internal/service"
)

func seeded(t *testing.T) Opener {
	t.Helper()
	n := 0
	svcs := service.New(
		service.WithClock(func() time.Time { return time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC) }),
		service.WithIDGenerator(func() string { n++; return fmt.Sprintf("id-%d", n) }),
	)
	for _, f := range []map[string]string{
		{"auftraggeber": "Volkswagen AG", "auftragNr": "1406", "anlage": "LVUM-1", "naechstePruefung": "2026-03-01"},
		{"auftraggeber": "Stadtwerke", "auftragNr": "77", "anlage": "Trafo Nord", "ergebnis": "maengel"},
	} {
		if _, err := svcs.Protocols.Create(context.Background(), domain.Patch{Fields: f}); err != nil {
			t.Fatal(err)
		}
	}
	return func(context.Context) (*service.Services, func(), error) {
		return svcs, func() {}, nil
	}
}

func run(t *testing.T, open Opener, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd(open)
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestList(t *testing.T) {
	open := seeded(t)

	out, err := run(t, open, "list")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "id-2\t2026-04-01\tTrafo Nord") {
		t.Errorf("list:\n%s", out)
	}

	out, err = run(t, open, "list", "lvum")
	if err != nil || strings.Count(out, "\n") != 1 || !strings.Contains(out, "LVUM-1") {
		t.Errorf("filtered list: %v\n%s", err, out)
	}

	out, err = run(t, open, "list", "--json", "nichts")
	if err != nil || strings.TrimSpace(out) != "[]" {
		t.Errorf("empty json list: %v %q", err, out)
	}
}

func TestSummary(t *testing.T) {
	out, err := run(t, seeded(t), "summary", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var s struct{ Total, KeineMaengel, Maengel int }
	if err := json.Unmarshal([]byte(out), &s); err != nil || s.Total != 2 || s.Maengel != 1 {
		t.Errorf("summary = %+v (%v)", s, err)
	}
}

func TestDue(t *testing.T) {
	open := seeded(t)
	out, err := run(t, open, "due")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "2026-03-01\tid-1\tLVUM-1\tVolkswagen AG (überfällig)" {
		t.Errorf("due:\n%s", out)
	}
	if _, err := run(t, open, "due", "--before", "morgen"); err == nil {
		t.Error("bad date must fail")
	}
	if _, err := run(t, open, "due", "--notify"); err == nil {
		t.Error("notify without alerter must fail")
	}
}

func TestExport(t *testing.T) {
	open := seeded(t)

	out, err := run(t, open, "export", "id-1")
	if err != nil || !strings.Contains(out, `"anlage": "LVUM-1"`) {
		t.Fatalf("export: %v\n%s", err, out)
	}

	path := filepath.Join(t.TempDir(), "p.json")
	if _, err := run(t, open, "export", "id-1", "-o", path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != out {
		t.Errorf("file differs from stdout export: %v", err)
	}

	if _, err := run(t, open, "export", "missing"); err == nil {
		t.Error("missing id must fail")
	}
}

func TestOpenFailure(t *testing.T) {
	open := func(context.Context) (*service.Services, func(), error) {
		return nil, nil, fmt.Errorf("archive unreachable")
	}
	if _, err := run(t, open, "summary"); err == nil || !strings.Contains(err.Error(), "unreachable") {
		t.Errorf("got %v", err)
	}
}
