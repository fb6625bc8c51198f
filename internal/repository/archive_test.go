package repository

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/elektroprotokolle/pruefprotokoll/internal/domain"
)

func openArchive(t *testing.T) *SQLArchive {
	t.Helper()
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	a := NewSQLArchive(db)
	if err := a.EnsureSchema(context.Background()); err != nil {
		t.Fatal(err)
	}
	return a
}

func TestSQLArchive_SaveLoad(t *testing.T) {
	ctx := context.Background()
	a := openArchive(t)

	older := newProtocol(t, "1", "LVUM-1", domain.ErgebnisKeineMaengel)
	newer := newProtocol(t, "2", "LVUM-2", domain.ErgebnisMaengel).
		WithIdentity("2", t0.Add(time.Hour), t0.Add(time.Hour))

	for _, p := range []domain.Protocol{older, newer} {
		if err := a.Save(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	got, err := a.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID() != "2" || got[1].ID() != "1" {
		t.Fatalf("loaded %d protocols, want 2 newest first", len(got))
	}
	if !reflect.DeepEqual(got[1].Draft(), older.Draft()) {
		t.Errorf("content changed:\n%+v\n%+v", got[1].Draft(), older.Draft())
	}
}

func TestSQLArchive_Upsert(t *testing.T) {
	ctx := context.Background()
	a := openArchive(t)

	p := newProtocol(t, "1", "LVUM-1", domain.ErgebnisKeineMaengel)
	if err := a.Save(ctx, p); err != nil {
		t.Fatal(err)
	}
	edited := newProtocol(t, "1", "LVUM-1 neu", domain.ErgebnisMaengel).
		WithIdentity("1", p.CreatedAt(), p.UpdatedAt().Add(time.Minute))
	if err := a.Save(ctx, edited); err != nil {
		t.Fatal(err)
	}

	got, err := a.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Anlage() != "LVUM-1 neu" || !got[0].UpdatedAt().Equal(edited.UpdatedAt()) {
		t.Errorf("upsert result = %+v", got)
	}
}

func TestSQLArchive_Delete(t *testing.T) {
	ctx := context.Background()
	a := openArchive(t)

	if err := a.Save(ctx, newProtocol(t, "1", "LVUM-1", domain.ErgebnisKeineMaengel)); err != nil {
		t.Fatal(err)
	}
	if err := a.Delete(ctx, "1"); err != nil {
		t.Fatal(err)
	}
	if err := a.Delete(ctx, "1"); err != nil {
		t.Errorf("deleting a missing row: %v", err)
	}
	got, err := a.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("%d protocols left", len(got))
	}
}
