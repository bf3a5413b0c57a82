package dataset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDatasetAppendGet(t *testing.T) {
	d := New(3)
	id, err := d.Append([]float32{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, 0, id)
	require.Equal(t, []float32{1, 2, 3}, d.Get(id))
}

func TestDatasetDimensionMismatch(t *testing.T) {
	d := New(3)
	_, err := d.Append([]float32{1, 2})
	require.Error(t, err)
}

func TestBlockedDatasetSpansMultipleBlocks(t *testing.T) {
	b := NewBlocked(2, 4)
	for i := 0; i < 10; i++ {
		id, err := b.Append([]float32{float32(i), float32(i)})
		require.NoError(t, err)
		require.Equal(t, i, id)
	}
	require.Equal(t, 10, b.Size())
	require.Equal(t, []float32{7, 7}, b.Get(7))
}

func TestTranslatorInsertDeleteLookup(t *testing.T) {
	tr := NewTranslator()
	internal, err := tr.Insert(100)
	require.NoError(t, err)

	got, ok := tr.InternalID(100)
	require.True(t, ok)
	require.Equal(t, internal, got)

	ext, ok := tr.ExternalID(internal)
	require.True(t, ok)
	require.Equal(t, int64(100), ext)

	require.NoError(t, tr.Delete(100))
	_, ok = tr.InternalID(100)
	require.False(t, ok)
	require.True(t, tr.IsTombstoned(internal))

	require.Error(t, tr.Delete(100))
}

func TestTranslatorLiveIDsExcludesTombstones(t *testing.T) {
	tr := NewTranslator()
	for _, ext := range []int64{1, 2, 3} {
		_, err := tr.Insert(ext)
		require.NoError(t, err)
	}
	require.NoError(t, tr.Delete(2))
	live := tr.LiveIDs()
	require.Len(t, live, 2)
}
