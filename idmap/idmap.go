// Package idmap implements the ID Map (§4.3): the durable source of truth
// for (key, vector, metadata, aliveness), replaced wholesale on each build.
package idmap

import (
	"bytes"
	"context"
	"sort"

	"github.com/annstore/vecdb/cmn"
	"github.com/annstore/vecdb/cmn/jsp"
	"github.com/annstore/vecdb/meta"
	"github.com/annstore/vecdb/slice"
	"github.com/annstore/vecdb/store"
)

// Row is one entry in the ID map (§3 "idmap" columns). TypedColumns holds
// the per-index typed filterable cells the schema engine maintains
// (§4.4); keys absent here simply have no value in that column (nullable).
type Row struct {
	ID            int64                  `json:"id"`
	Key           string                 `json:"key"`
	Vector        []float32              `json:"vector"`
	MetadataJSON  string                 `json:"metadata_json"`
	Alive         bool                   `json:"alive"`
	TypedColumns  map[string]interface{} `json:"typed_columns,omitempty"`
}

// Map is the in-memory materialization of an index's idmap file, plus the
// key->id cache §4.3 explicitly allows implementations to keep. Schema is
// the typed-column registry the Metadata Schema Engine maintains (§4.4):
// it travels in the same file as the rows it describes, since the set of
// typed columns is logically part of the idmap's own column set (§3
// "idmap ... plus zero or more typed filterable columns").
type Map struct {
	Rows   []Row
	Schema map[string]meta.ColumnType

	byKey map[string]int // key -> index into Rows, latest occurrence (possibly tombstoned)
	maxID int64
	dirty bool
}

// fileDoc is the on-disk wrapper jsp encodes/decodes.
type fileDoc struct {
	Rows   []Row                      `json:"rows"`
	Schema map[string]meta.ColumnType `json:"schema,omitempty"`
}

// Empty returns a freshly-initialized, empty map (§4.6 step 2: "or treat as
// empty if absent").
func Empty() *Map {
	return &Map{byKey: make(map[string]int), Schema: make(map[string]meta.ColumnType)}
}

// Load reads an idmap file from the object store. A not-found object is not
// an error here — callers get an empty map, matching §4.6 step 2.
func Load(ctx context.Context, s store.Adapter, vectorBucket, index, ext string) (*Map, error) {
	key := store.IdMapKey(index, ext)
	raw, err := s.GetBytes(ctx, vectorBucket, key)
	if err != nil {
		if e := cmn.AsError(err); e.Kind == cmn.KindNotFound {
			return Empty(), nil
		}
		return nil, err
	}
	var doc fileDoc
	if _, err := jsp.Decode(bytes.NewReader(raw), &doc, jsp.CksumOpts(), key); err != nil {
		return nil, cmn.ErrDependency(err, "corrupt idmap %s", key)
	}
	m := Empty()
	m.Rows = doc.Rows
	if doc.Schema != nil {
		m.Schema = doc.Schema
	}
	m.reindex()
	return m, nil
}

// Save persists the whole map as a single whole-file replace under its
// canonical idmap key (§4.6 step 4 parenthetical: "the adapter must treat
// the put as the commit point"). It encodes to an in-memory buffer via
// jsp.Encode and pushes it to the object store directly — the object
// store's own `put` is the atomic commit point, so there is no separate
// temp-key-then-rename step to perform against it.
func (m *Map) Save(ctx context.Context, s store.Adapter, vectorBucket, index, ext string) error {
	var buf bytes.Buffer
	if err := jsp.Encode(&buf, fileDoc{Rows: m.Rows, Schema: m.Schema}, jsp.CksumOpts()); err != nil {
		return err
	}
	key := store.IdMapKey(index, ext)
	if err := s.PutBytes(ctx, vectorBucket, key, buf.Bytes(), "application/octet-stream"); err != nil {
		return err
	}
	m.dirty = false
	return nil
}

func (m *Map) reindex() {
	m.byKey = make(map[string]int, len(m.Rows))
	m.maxID = -1
	for i, r := range m.Rows {
		m.byKey[r.Key] = i
		if r.ID > m.maxID {
			m.maxID = r.ID
		}
	}
}

// NextID returns the id that would be assigned to the next appended row.
func (m *Map) NextID() int64 {
	if len(m.Rows) == 0 {
		return 0
	}
	return m.maxID + 1
}

// Append assigns dense monotonically-increasing ids to new rows (§3, §4.3
// "Append"). If a key already exists, the prior row is tombstoned (last
// write wins by slice ordering, §4.6 step 8 / §5 "Ordering"), and the
// new row gets a fresh id — the old id is never reused or rebound. It
// carries no typed-column split; callers that have already run the
// schema engine over the batch should use AppendPrepared instead.
func (m *Map) Append(batch []slice.Row, dim int) error {
	prepared := make([]PreparedRow, len(batch))
	for i, b := range batch {
		prepared[i] = PreparedRow{Key: b.Key, Vector: b.Vector, MetadataJSON: b.MetadataJSON}
	}
	return m.AppendPrepared(prepared, dim)
}

// PreparedRow is a batch row that has already been through the schema
// engine's typed/JSON split (§4.4 "Split"), ready for insertion.
type PreparedRow struct {
	Key          string
	Vector       []float32
	MetadataJSON string
	TypedColumns map[string]interface{}
}

// AppendPrepared is Append plus the typed-column cells the schema engine
// produced for each row.
func (m *Map) AppendPrepared(batch []PreparedRow, dim int) error {
	for _, b := range batch {
		if len(b.Vector) != dim {
			return cmn.ErrValidation("vector for key %q has dimension %d, index dimension is %d", b.Key, len(b.Vector), dim)
		}
	}
	for _, b := range batch {
		if i, ok := m.byKey[b.Key]; ok {
			m.Rows[i].Alive = false
		}
		id := m.NextID()
		m.Rows = append(m.Rows, Row{
			ID:           id,
			Key:          b.Key,
			Vector:       b.Vector,
			MetadataJSON: b.MetadataJSON,
			Alive:        true,
			TypedColumns: b.TypedColumns,
		})
		m.byKey[b.Key] = len(m.Rows) - 1
		m.maxID = id
	}
	m.dirty = true
	return nil
}

// Tombstone flips alive=false for the given keys and reports how many rows
// were affected (§4.3 "Tombstone by keys").
func (m *Map) Tombstone(keys []string) int {
	n := 0
	for _, k := range keys {
		if i, ok := m.byKey[k]; ok && m.Rows[i].Alive {
			m.Rows[i].Alive = false
			n++
		}
	}
	if n > 0 {
		m.dirty = true
	}
	return n
}

// Lookup returns the row for a key; a tombstoned key is reported as absent.
func (m *Map) Lookup(key string) (Row, bool) {
	i, ok := m.byKey[key]
	if !ok || !m.Rows[i].Alive {
		return Row{}, false
	}
	return m.Rows[i], true
}

// AliveCount is used by builder/query invariant checks (§8:
// `manifest.vectors == count(idmap.alive)`).
func (m *Map) AliveCount() int {
	n := 0
	for _, r := range m.Rows {
		if r.Alive {
			n++
		}
	}
	return n
}

// ByID returns the row with the given internal id, or false if the id is
// out of range, unknown, or tombstoned. Used by the query engine to join
// backend search hits back to key/vector/metadata (§4.7 step 5).
func (m *Map) ByID(id int64) (Row, bool) {
	for _, r := range m.Rows {
		if r.ID == id {
			return r, r.Alive
		}
	}
	return Row{}, false
}

// List returns a key-ordered page starting after cursor, with the last
// returned key as the next cursor (§4.3 "Slice for listing").
func (m *Map) List(cursor string, limit int) (rows []Row, nextCursor string) {
	live := make([]Row, 0, len(m.Rows))
	for _, r := range m.Rows {
		if r.Alive {
			live = append(live, r)
		}
	}
	sort.Slice(live, func(i, j int) bool { return live[i].Key < live[j].Key })

	start := 0
	if cursor != "" {
		start = sort.Search(len(live), func(i int) bool { return live[i].Key > cursor })
	}
	end := start + limit
	if end > len(live) || limit <= 0 {
		end = len(live)
	}
	page := live[start:end]
	if end < len(live) && len(page) > 0 {
		nextCursor = page[len(page)-1].Key
	}
	return page, nextCursor
}
