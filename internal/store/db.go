package store

import (
	"fmt"
	"iter"
	"sort"
	"time"

	"spamdb-curses/internal/model"
)

// DB is the in-memory working set of a spamdb file. It performs no I/O.
type DB struct {
	records map[string]model.Record

	// Sorted key index, rebuilt lazily after mutations.
	keys      []string
	keysValid bool
}

// NewDB builds a DB from records, rejecting duplicate keys. Records are not
// validated so that a file with legacy keys can still be opened and fixed.
func NewDB(records ...model.Record) (*DB, error) {
	db := &DB{records: make(map[string]model.Record, len(records))}
	for _, r := range records {
		if _, ok := db.records[r.Key]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, r.Key)
		}
		db.records[r.Key] = r.Normalized()
	}
	return db, nil
}

func (db *DB) Len() int { return len(db.records) }

func (db *DB) Get(key string) (model.Record, bool) {
	r, ok := db.records[key]
	return r, ok
}

// Validate checks r against the record constraints without touching the DB.
func (db *DB) Validate(r model.Record) error {
	return model.Validate(r)
}

func (db *DB) Insert(r model.Record) error {
	if err := model.Validate(r); err != nil {
		return err
	}
	if _, ok := db.records[r.Key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, r.Key)
	}
	db.records[r.Key] = r.Normalized()
	db.keysValid = false
	return nil
}

// Update replaces the record stored under key. r.Key may differ from key, in
// which case the record is renamed; renaming onto another existing key fails.
func (db *DB) Update(key string, r model.Record) error {
	if _, ok := db.records[key]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err := model.Validate(r); err != nil {
		return err
	}
	if r.Key != key {
		if _, ok := db.records[r.Key]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateKey, r.Key)
		}
		delete(db.records, key)
		db.keysValid = false
	}
	db.records[r.Key] = r.Normalized()
	return nil
}

func (db *DB) Remove(key string) error {
	if _, ok := db.records[key]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	delete(db.records, key)
	db.keysValid = false
	return nil
}

// PurgeExpired removes every record expired at now and returns the removed
// keys in ascending order.
func (db *DB) PurgeExpired(now time.Time) []string {
	var purged []string
	for _, k := range db.sortedKeys() {
		if db.records[k].Expired(now) {
			purged = append(purged, k)
		}
	}
	for _, k := range purged {
		delete(db.records, k)
	}
	if len(purged) > 0 {
		db.keysValid = false
	}
	return purged
}

// CountExpired returns how many records are expired at now.
func (db *DB) CountExpired(now time.Time) int {
	n := 0
	for _, r := range db.records {
		if r.Expired(now) {
			n++
		}
	}
	return n
}

// Records returns a snapshot of all records in ascending key order.
func (db *DB) Records() []model.Record {
	out := make([]model.Record, 0, len(db.records))
	for _, k := range db.sortedKeys() {
		out = append(out, db.records[k])
	}
	return out
}

func (db *DB) Clone() *DB {
	c := &DB{records: make(map[string]model.Record, len(db.records))}
	for k, r := range db.records {
		c.records[k] = r
	}
	return c
}

// Predicate selects records. A nil Predicate matches everything.
type Predicate func(model.Record) bool

// Find yields the records matching pred in ascending key order. The sequence
// is computed from the state at the time iteration starts, so it can be
// ranged over again after mutations.
func (db *DB) Find(pred Predicate) iter.Seq[model.Record] {
	return db.FindSorted(pred, SortByKey)
}

// FindSorted is Find with a display sort override.
func (db *DB) FindSorted(pred Predicate, order SortOrder) iter.Seq[model.Record] {
	return func(yield func(model.Record) bool) {
		keys := db.sortedKeys()
		if order != SortByKey {
			keys = append([]string(nil), keys...)
			sort.SliceStable(keys, func(i, j int) bool {
				return order.less(db.records[keys[i]], db.records[keys[j]])
			})
		}
		for _, k := range keys {
			r := db.records[k]
			if pred != nil && !pred(r) {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}
}

func (db *DB) sortedKeys() []string {
	if db.keysValid {
		return db.keys
	}
	keys := make([]string, 0, len(db.records))
	for k := range db.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	db.keys = keys
	db.keysValid = true
	return keys
}

type SortOrder int

const (
	SortByKey SortOrder = iota
	SortByExpiry
	SortByClass
)

var sortOrderNames = map[SortOrder]string{
	SortByKey:    "key",
	SortByExpiry: "expiry",
	SortByClass:  "classification",
}

func (o SortOrder) String() string {
	if s, ok := sortOrderNames[o]; ok {
		return s
	}
	return "key"
}

// Next cycles key -> expiry -> classification -> key.
func (o SortOrder) Next() SortOrder {
	return (o + 1) % SortOrder(len(sortOrderNames))
}

// ParseSortOrder maps a config value to a SortOrder; unknown names fall back
// to SortByKey.
func ParseSortOrder(s string) SortOrder {
	for o, name := range sortOrderNames {
		if name == s {
			return o
		}
	}
	if s == "class" {
		return SortByClass
	}
	return SortByKey
}

// less reports whether a sorts before b for orders other than SortByKey.
// Ties keep key order because the input is already key-sorted and the sort
// is stable.
func (o SortOrder) less(a, b model.Record) bool {
	switch o {
	case SortByExpiry:
		// Soonest first; records that never expire go last.
		if a.Expires == nil || b.Expires == nil {
			return a.Expires != nil && b.Expires == nil
		}
		return a.Expires.Before(*b.Expires)
	case SortByClass:
		return classRank(a.Class) < classRank(b.Class)
	}
	return false
}

func classRank(c model.Classification) int {
	for i, v := range model.Classifications {
		if v == c {
			return i
		}
	}
	return len(model.Classifications)
}

type ChangeOp string

const (
	ChangeAdd    ChangeOp = "add"
	ChangeRemove ChangeOp = "remove"
	ChangeUpdate ChangeOp = "update"
)

// Change describes one key's difference between two committed states.
type Change struct {
	Op     ChangeOp      `json:"op"`
	Key    string        `json:"key"`
	Before *model.Record `json:"before,omitempty"`
	After  *model.Record `json:"after,omitempty"`
}

// Diff compares two key-sorted record snapshots and returns the changes in
// ascending key order.
func Diff(before, after []model.Record) []Change {
	var out []Change
	i, j := 0, 0
	for i < len(before) || j < len(after) {
		switch {
		case j >= len(after) || (i < len(before) && before[i].Key < after[j].Key):
			b := before[i]
			out = append(out, Change{Op: ChangeRemove, Key: b.Key, Before: &b})
			i++
		case i >= len(before) || after[j].Key < before[i].Key:
			a := after[j]
			out = append(out, Change{Op: ChangeAdd, Key: a.Key, After: &a})
			j++
		default:
			b, a := before[i], after[j]
			if !b.Equal(a) {
				out = append(out, Change{Op: ChangeUpdate, Key: a.Key, Before: &b, After: &a})
			}
			i++
			j++
		}
	}
	return out
}
