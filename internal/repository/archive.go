package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/elektroprotokolle/pruefprotokoll/internal/domain"
)

const schema = `CREATE TABLE IF NOT EXISTS protocols (
	id           TEXT PRIMARY KEY,
	anlage       TEXT NOT NULL,
	auftraggeber TEXT NOT NULL,
	auftrag_nr   TEXT NOT NULL,
	ergebnis     TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL,
	document     TEXT NOT NULL
)`

// SQLArchive mirrors committed protocols into a SQL table, one row per
// protocol with the full JSON document embedded.
type SQLArchive struct {
	db *sqlx.DB
}

func NewSQLArchive(db *sqlx.DB) *SQLArchive { return &SQLArchive{db: db} }

type protocolRow struct {
	ID       string `db:"id"`
	Document string `db:"document"`
}

func (a *SQLArchive) EnsureSchema(ctx context.Context) error {
	if _, err := a.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create protocols table: %w", err)
	}
	return nil
}

func (a *SQLArchive) Save(ctx context.Context, p domain.Protocol) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal protocol %s: %w", p.ID(), err)
	}
	q := a.db.Rebind(`INSERT INTO protocols (id, anlage, auftraggeber, auftrag_nr, ergebnis, created_at, updated_at, document)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			anlage = excluded.anlage,
			auftraggeber = excluded.auftraggeber,
			auftrag_nr = excluded.auftrag_nr,
			ergebnis = excluded.ergebnis,
			updated_at = excluded.updated_at,
			document = excluded.document`)
	_, err = a.db.ExecContext(ctx, q,
		p.ID(), p.Anlage(), p.Auftraggeber(), p.AuftragNr(), string(p.Ergebnis()),
		p.CreatedAt().UTC().Format(time.RFC3339Nano), p.UpdatedAt().UTC().Format(time.RFC3339Nano), string(doc))
	if err != nil {
		return fmt.Errorf("save protocol %s: %w", p.ID(), err)
	}
	return nil
}

func (a *SQLArchive) Delete(ctx context.Context, id string) error {
	if _, err := a.db.ExecContext(ctx, a.db.Rebind(`DELETE FROM protocols WHERE id = ?`), id); err != nil {
		return fmt.Errorf("delete protocol %s: %w", id, err)
	}
	return nil
}

// Load returns every archived protocol, newest first.
func (a *SQLArchive) Load(ctx context.Context) ([]domain.Protocol, error) {
	var rows []protocolRow
	if err := a.db.SelectContext(ctx, &rows, `SELECT id, document FROM protocols`); err != nil {
		return nil, fmt.Errorf("load protocols: %w", err)
	}
	out := make([]domain.Protocol, 0, len(rows))
	for _, r := range rows {
		var p domain.Protocol
		if err := json.Unmarshal([]byte(r.Document), &p); err != nil {
			return nil, fmt.Errorf("decode protocol %s: %w", r.ID, err)
		}
		out = append(out, p)
	}
	domain.SortNewestFirst(out)
	return out, nil
}
