// Package dataset provides the contiguous vector stores backing every
// index. The teacher's index implementations (flat, IVF, AISAQ) keep
// vectors in a map[int64][]float32 keyed by external ID, which is simple
// but forces a map probe on every distance computation; the stores here
// generalize that into internal-ID-addressed contiguous slices, with the
// external-ID mapping pushed out to a separate Translator so hot-path
// lookups stay array indexing.
package dataset

import (
	"sync"

	annerrors "github.com/vecdb/annindex/errors"
)

// Source is the read-only vector-access surface shared by Dataset and
// BlockedDataset, letting graph construction and search code work
// against either storage layout interchangeably.
type Source interface {
	Get(id int) []float32
	Dims() int
	Size() int
}

// Dataset is a fixed-dimension, internal-ID-addressed vector store.
// Internal IDs are dense and start at 0; deleted slots are tombstoned by
// the owning index, not by Dataset itself.
type Dataset struct {
	dims int
	rows [][]float32
}

func New(dims int) *Dataset {
	return &Dataset{dims: dims}
}

func (d *Dataset) Dims() int { return d.dims }
func (d *Dataset) Size() int { return len(d.rows) }

// Append adds a vector and returns its new internal ID.
func (d *Dataset) Append(v []float32) (int, error) {
	if len(v) != d.dims {
		return 0, annerrors.NewDimensionMismatch(d.dims, len(v))
	}
	id := len(d.rows)
	cp := make([]float32, d.dims)
	copy(cp, v)
	d.rows = append(d.rows, cp)
	return id, nil
}

// Get returns the vector at internal id. The returned slice aliases
// internal storage and must not be mutated.
func (d *Dataset) Get(id int) []float32 {
	return d.rows[id]
}

// Set overwrites the vector at an existing internal id.
func (d *Dataset) Set(id int, v []float32) error {
	if len(v) != d.dims {
		return annerrors.NewDimensionMismatch(d.dims, len(v))
	}
	copy(d.rows[id], v)
	return nil
}

// Truncate drops every row at or beyond n.
func (d *Dataset) Truncate(n int) {
	d.rows = d.rows[:n]
}

// BlockedDataset stores vectors in fixed-size blocks rather than one
// flat slice, avoiding the full-dataset reallocation a single growing
// slice would otherwise need once a dynamic index accumulates millions
// of points. Reads and writes address through the block/offset split.
type BlockedDataset struct {
	mu        sync.RWMutex
	dims      int
	blockSize int
	blocks    [][][]float32
	size      int
}

func NewBlocked(dims, blockSize int) *BlockedDataset {
	if blockSize <= 0 {
		blockSize = 4096
	}
	return &BlockedDataset{dims: dims, blockSize: blockSize}
}

func (b *BlockedDataset) Dims() int { return b.dims }

func (b *BlockedDataset) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

func (b *BlockedDataset) Append(v []float32) (int, error) {
	if len(v) != b.dims {
		return 0, annerrors.NewDimensionMismatch(b.dims, len(v))
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.size
	blockIdx, offset := id/b.blockSize, id%b.blockSize
	for blockIdx >= len(b.blocks) {
		b.blocks = append(b.blocks, make([][]float32, b.blockSize))
	}
	cp := make([]float32, b.dims)
	copy(cp, v)
	b.blocks[blockIdx][offset] = cp
	b.size++
	return id, nil
}

func (b *BlockedDataset) Get(id int) []float32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	blockIdx, offset := id/b.blockSize, id%b.blockSize
	return b.blocks[blockIdx][offset]
}

func (b *BlockedDataset) Set(id int, v []float32) error {
	if len(v) != b.dims {
		return annerrors.NewDimensionMismatch(b.dims, len(v))
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	blockIdx, offset := id/b.blockSize, id%b.blockSize
	copy(b.blocks[blockIdx][offset], v)
	return nil
}

// Truncate drops every row at or beyond n and releases any now-unused
// trailing blocks, the BlockedDataset equivalent of Dataset.Truncate,
// used by compact once tombstoned rows have been shifted out of the
// live prefix.
func (b *BlockedDataset) Truncate(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	keepBlocks := (n + b.blockSize - 1) / b.blockSize
	if keepBlocks < len(b.blocks) {
		b.blocks = b.blocks[:keepBlocks]
	}
	if keepBlocks > 0 {
		last := keepBlocks - 1
		for offset := n - last*b.blockSize; offset < b.blockSize && offset >= 0 && last < len(b.blocks); offset++ {
			b.blocks[last][offset] = nil
		}
	}
	b.size = n
}

// Translator maps external (caller-visible) IDs to dense internal IDs
// and back, following the side-table approach spec §9 calls for instead
// of embedding external IDs in the graph or dataset directly.
type Translator struct {
	mu         sync.RWMutex
	toInternal map[int64]int
	toExternal []int64
	tombstone  []bool
}

func NewTranslator() *Translator {
	return &Translator{toInternal: make(map[int64]int)}
}

// NewTranslatorFromLive rebuilds a translator from an ordered list of
// external IDs with no tombstones, assigning internal ID i to
// externals[i]. Used by compact to replace the old translator once live
// rows have been shifted into a dense prefix in the same order.
func NewTranslatorFromLive(externals []int64) *Translator {
	t := &Translator{
		toInternal: make(map[int64]int, len(externals)),
		toExternal: make([]int64, len(externals)),
		tombstone:  make([]bool, len(externals)),
	}
	for i, ext := range externals {
		t.toInternal[ext] = i
		t.toExternal[i] = ext
	}
	return t
}

// Insert assigns a fresh internal ID to an external ID, returning an
// error if the external ID is already mapped.
func (t *Translator) Insert(external int64) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.toInternal[external]; ok {
		return 0, annerrors.NewOther("external id already present", nil)
	}
	internal := len(t.toExternal)
	t.toInternal[external] = internal
	t.toExternal = append(t.toExternal, external)
	t.tombstone = append(t.tombstone, false)
	return internal, nil
}

func (t *Translator) InternalID(external int64) (int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.toInternal[external]
	if !ok || t.tombstone[id] {
		return 0, false
	}
	return id, true
}

func (t *Translator) ExternalID(internal int) (int64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if internal < 0 || internal >= len(t.toExternal) || t.tombstone[internal] {
		return 0, false
	}
	return t.toExternal[internal], true
}

// Delete tombstones an external ID without reclaiming its internal slot;
// reclamation happens during compact.
func (t *Translator) Delete(external int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, ok := t.toInternal[external]
	if !ok || t.tombstone[id] {
		return annerrors.NewOutOfRangeId(external)
	}
	t.tombstone[id] = true
	delete(t.toInternal, external)
	return nil
}

func (t *Translator) IsTombstoned(internal int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tombstone[internal]
}

func (t *Translator) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.toExternal)
}

// LiveIDs returns every internal ID that has not been tombstoned.
func (t *Translator) LiveIDs() []int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]int, 0, len(t.toExternal))
	for i, dead := range t.tombstone {
		if !dead {
			out = append(out, i)
		}
	}
	return out
}
