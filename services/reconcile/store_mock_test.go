package reconcile

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// --- In-memory store ---

type memRow struct {
	id        int64
	key       Key
	attrs     Attrs
	links     Links
	addedAt   time.Time
	removedAt *time.Time
}

type memStore struct {
	nextID int64
	rows   map[Kind]map[Key]*memRow

	findErr error // simulates a store outage
}

func newMemStore() *memStore {
	return &memStore{
		rows: map[Kind]map[Key]*memRow{
			KindParent: {},
			KindChild:  {},
			KindLeaf:   {},
		},
	}
}

func (m *memStore) FindByKey(_ context.Context, kind Kind, key Key) (*Row, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	r, ok := m.rows[kind][key]
	if !ok {
		return nil, nil
	}
	return &Row{ID: r.id, Removed: r.removedAt != nil}, nil
}

func (m *memStore) Insert(_ context.Context, kind Kind, key Key, attrs Attrs, links Links, at time.Time) (int64, error) {
	if _, ok := m.rows[kind][key]; ok {
		return 0, errors.Wrapf(ErrDuplicateKey, "%s %s", kind, key)
	}
	m.nextID++
	m.rows[kind][key] = &memRow{
		id:      m.nextID,
		key:     key,
		attrs:   attrs,
		links:   links,
		addedAt: at,
	}
	return m.nextID, nil
}

func (m *memStore) ListActiveLeaves(_ context.Context) (map[Key]int64, error) {
	active := map[Key]int64{}
	for k, r := range m.rows[KindLeaf] {
		if r.removedAt == nil {
			active[k] = r.id
		}
	}
	return active, nil
}

func (m *memStore) MarkRemoved(_ context.Context, id int64, at time.Time) error {
	r := m.leafByID(id)
	if r == nil {
		return errors.Errorf("no leaf %d", id)
	}
	t := at
	r.removedAt = &t
	return nil
}

func (m *memStore) ClearRemoved(_ context.Context, id int64) error {
	r := m.leafByID(id)
	if r == nil {
		return errors.Errorf("no leaf %d", id)
	}
	r.removedAt = nil
	return nil
}

func (m *memStore) leafByID(id int64) *memRow {
	for _, r := range m.rows[KindLeaf] {
		if r.id == id {
			return r
		}
	}
	return nil
}

func (m *memStore) leaf(key Key) *memRow {
	return m.rows[KindLeaf][key]
}

// --- Observation source over a slice ---

type sliceSource struct {
	obs []Observation
	err error // delivered before any observation
}

func (s *sliceSource) Each(_ context.Context, fn func(Observation) error) error {
	if s.err != nil {
		return s.err
	}
	for _, o := range s.obs {
		if err := fn(o); err != nil {
			return err
		}
	}
	return nil
}
