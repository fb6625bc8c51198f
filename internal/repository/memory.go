package repository

import (
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/elektroprotokolle/pruefprotokoll/internal/domain"
)

// Memory is the authoritative, newest-first list of committed protocols.
// Every mutation swaps in a fresh slice, so sequences returned by Search keep
// iterating the collection as it was when they were created. Memory is not
// safe for concurrent writers; callers serialize access.
type Memory struct {
	items []domain.Protocol
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

// NewMemoryWithClock is NewMemory with a custom clock for updatedAt.
func NewMemoryWithClock(now func() time.Time) *Memory {
	return &Memory{now: now}
}

// Summary holds the verdict counters shown above the protocol list.
type Summary struct {
	Total        int `json:"total"`
	KeineMaengel int `json:"keineMaengel"`
	Maengel      int `json:"maengel"`
}

// Insert puts p at the front of the collection. Ids must be unique; Insert
// does not check.
func (m *Memory) Insert(p domain.Protocol) {
	items := make([]domain.Protocol, 0, len(m.items)+1)
	items = append(items, p)
	m.items = append(items, m.items...)
}

// Replace swaps the content of the protocol with the given id for the content
// of updated, keeping id, createdAt and list position, and stamps updatedAt.
// It reports whether a record was found.
func (m *Memory) Replace(id string, updated domain.Protocol) bool {
	i := m.index(id)
	if i < 0 {
		return false
	}
	old := m.items[i]
	at := m.now()
	if at.Before(old.UpdatedAt()) {
		at = old.UpdatedAt()
	}
	items := slices.Clone(m.items)
	items[i] = updated.WithIdentity(old.ID(), old.CreatedAt(), at)
	m.items = items
	return true
}

// Remove deletes the protocol with the given id and reports whether it existed.
func (m *Memory) Remove(id string) bool {
	i := m.index(id)
	if i < 0 {
		return false
	}
	m.items = slices.Delete(slices.Clone(m.items), i, i+1)
	return true
}

func (m *Memory) Get(id string) (domain.Protocol, bool) {
	if i := m.index(id); i >= 0 {
		return m.items[i], true
	}
	return domain.Protocol{}, false
}

// List returns a copy of the collection in display order.
func (m *Memory) List() []domain.Protocol {
	return slices.Clone(m.items)
}

func (m *Memory) Len() int { return len(m.items) }

// Load replaces the whole collection, e.g. when restoring from an archive.
// ps must already be in newest-first order.
func (m *Memory) Load(ps []domain.Protocol) {
	m.items = slices.Clone(ps)
}

// Search yields, in stored order, every protocol whose anlage, auftraggeber
// or auftragNr contains query, ignoring case. An empty query yields all.
func (m *Memory) Search(query string) iter.Seq[domain.Protocol] {
	items := m.items
	q := strings.ToLower(query)
	return func(yield func(domain.Protocol) bool) {
		for _, p := range items {
			if !matches(p, q) {
				continue
			}
			if !yield(p) {
				return
			}
		}
	}
}

func matches(p domain.Protocol, q string) bool {
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Anlage()), q) ||
		strings.Contains(strings.ToLower(p.Auftraggeber()), q) ||
		strings.Contains(strings.ToLower(p.AuftragNr()), q)
}

func (m *Memory) Summary() Summary {
	s := Summary{Total: len(m.items)}
	for _, p := range m.items {
		switch p.Ergebnis() {
		case domain.ErgebnisKeineMaengel:
			s.KeineMaengel++
		case domain.ErgebnisMaengel:
			s.Maengel++
		}
	}
	return s
}

func (m *Memory) index(id string) int {
	return slices.IndexFunc(m.items, func(p domain.Protocol) bool { return p.ID() == id })
}
