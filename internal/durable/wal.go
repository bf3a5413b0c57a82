// Package durable provides a badger-backed write-ahead log for the
// dynamic Vamana/IVF indexes' pending mutations (tombstones, translator
// deltas) accumulated between Consolidate calls. It is deliberately kept
// separate from the serialize package's pinned TOML+blob save/load
// format: this is crash-tolerant staging for in-flight mutation state,
// not the index's durable on-disk representation. Grounded on the
// teacher's BadgerDataSource config shape, repurposed from a general SQL
// datasource into a narrow mutation log keyed by append sequence number.
package durable

import (
	"encoding/binary"

	badger "github.com/dgraph-io/badger/v4"

	annerrors "github.com/vecdb/annindex/errors"
)

// MutationKind tags a logged mutation so replay can dispatch correctly.
type MutationKind byte

const (
	MutationInsert MutationKind = iota
	MutationDelete
)

// Mutation is one logged pending change against a dynamic index.
type Mutation struct {
	Kind       MutationKind
	ExternalID int64
	Vector     []float32
}

// Log is a badger-backed append log of pending mutations, keyed by a
// monotonically increasing sequence number so replay can reconstruct
// insertion order.
type Log struct {
	db  *badger.DB
	seq uint64
}

// Open opens (creating if absent) a badger-backed log at dir. inMemory
// mirrors the teacher's data_dir/in_memory config split: when true, dir
// is ignored and the log lives only in memory for the process lifetime.
func Open(dir string, inMemory bool) (*Log, error) {
	opts := badger.DefaultOptions(dir).WithInMemory(inMemory).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, annerrors.NewOther("opening durable log", err)
	}
	l := &Log{db: db}
	// Resume numbering after the last logged entry so appends after a
	// reopen never overwrite what an earlier process logged.
	_ = db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse, opts.PrefetchValues = true, false
		it := txn.NewIterator(opts)
		defer it.Close()
		if it.Rewind(); it.Valid() {
			l.seq = binary.BigEndian.Uint64(it.Item().Key())
		}
		return nil
	})
	return l, nil
}

func (l *Log) Close() error {
	return l.db.Close()
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

// Append writes a mutation at the next sequence number.
func (l *Log) Append(m Mutation) error {
	payload := encodeMutation(m)
	return l.db.Update(func(txn *badger.Txn) error {
		l.seq++
		return txn.Set(seqKey(l.seq), payload)
	})
}

// Replay invokes fn for every logged mutation in sequence order, used to
// rebuild in-memory dynamic-index state after a restart before the
// index's own Consolidate/Compact have run.
func (l *Log) Replay(fn func(Mutation) error) error {
	return l.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var m Mutation
			if err := item.Value(func(val []byte) error {
				decoded, err := decodeMutation(val)
				if err != nil {
					return err
				}
				m = decoded
				return nil
			}); err != nil {
				return annerrors.NewOther("replaying durable log entry", err)
			}
			if err := fn(m); err != nil {
				return err
			}
		}
		return nil
	})
}

// Truncate drops every logged entry, called once a Consolidate pass has
// durably folded pending mutations into the index's own save format.
func (l *Log) Truncate() error {
	return l.db.DropAll()
}

func encodeMutation(m Mutation) []byte {
	buf := make([]byte, 9+len(m.Vector)*4)
	buf[0] = byte(m.Kind)
	binary.LittleEndian.PutUint64(buf[1:9], uint64(m.ExternalID))
	for i, v := range m.Vector {
		binary.LittleEndian.PutUint32(buf[9+i*4:9+i*4+4], float32bitsOf(v))
	}
	return buf
}

func decodeMutation(buf []byte) (Mutation, error) {
	if len(buf) < 9 {
		return Mutation{}, annerrors.NewOther("durable log entry too short", nil)
	}
	m := Mutation{
		Kind:       MutationKind(buf[0]),
		ExternalID: int64(binary.LittleEndian.Uint64(buf[1:9])),
	}
	n := (len(buf) - 9) / 4
	m.Vector = make([]float32, n)
	for i := 0; i < n; i++ {
		m.Vector[i] = float32FromBitsOf(binary.LittleEndian.Uint32(buf[9+i*4 : 9+i*4+4]))
	}
	return m, nil
}
