package searchbuffer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInsertKeepsSortedOrder(t *testing.T) {
	b := New(10, 10)
	b.Insert(Candidate{ID: 1, Distance: 5})
	b.Insert(Candidate{ID: 2, Distance: 1})
	b.Insert(Candidate{ID: 3, Distance: 3})

	all := b.All()
	require.Len(t, all, 3)
	require.Equal(t, 2, all[0].ID)
	require.Equal(t, 3, all[1].ID)
	require.Equal(t, 1, all[2].ID)
}

func TestInsertRejectsDuplicateID(t *testing.T) {
	b := New(10, 10)
	require.True(t, b.Insert(Candidate{ID: 1, Distance: 5}))
	require.False(t, b.Insert(Candidate{ID: 1, Distance: 1}))
}

func TestInsertRespectsCapacity(t *testing.T) {
	b := New(2, 2)
	b.Insert(Candidate{ID: 1, Distance: 1})
	b.Insert(Candidate{ID: 2, Distance: 2})
	require.False(t, b.Insert(Candidate{ID: 3, Distance: 10}))
	require.True(t, b.Insert(Candidate{ID: 4, Distance: 0.5}))
	require.Equal(t, 2, b.Len())
}

func TestNextUnexpandedRespectsWindowSize(t *testing.T) {
	b := New(1, 3)
	b.Insert(Candidate{ID: 1, Distance: 1})
	b.Insert(Candidate{ID: 2, Distance: 2})
	b.Insert(Candidate{ID: 3, Distance: 3})

	expanded := make(map[int]struct{})
	c, ok := b.NextUnexpanded(expanded)
	require.True(t, ok)
	require.Equal(t, 1, c.ID)

	_, ok = b.NextUnexpanded(expanded)
	require.False(t, ok, "window size 1 should only expose the single closest candidate")
}

func TestTopK(t *testing.T) {
	b := New(5, 5)
	for i := 1; i <= 5; i++ {
		b.Insert(Candidate{ID: i, Distance: float32(i)})
	}
	top := b.TopK(2)
	require.Len(t, top, 2)
	require.Equal(t, 1, top[0].ID)
	require.Equal(t, 2, top[1].ID)
}
