package cart

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/perfumery/internal/model"
)

func TestStore_DispatchStampsSequence(t *testing.T) {
	st := NewStore()

	s1 := st.Dispatch(AddItem{Item: line("p1", 50, 1)})
	s2 := st.Dispatch(AddItem{Item: line("p1", 50, 1)})

	assert.Equal(t, int64(1), s1.Seq)
	assert.Equal(t, int64(2), s2.Seq)
	assert.Equal(t, 1, s1.Items[0].Quantity, "snapshots are immutable copies")
	assert.Equal(t, 2, s2.Items[0].Quantity)
	assert.Equal(t, s2, st.Snapshot())
}

func TestStore_SeededStore(t *testing.T) {
	st := NewStoreAt(41, line("p1", 50, 2), line("p1", 50, 1))

	snap := st.Snapshot()
	assert.Equal(t, int64(41), snap.Seq)
	require.Len(t, snap.Items, 1, "seed is normalized")
	assert.Equal(t, 3, snap.Count())

	assert.Equal(t, int64(42), st.Dispatch(ClearItems{}).Seq)
}

func TestStore_ApplyWithoutInterveningMutation(t *testing.T) {
	st := NewStore(line("p1", 50, 1))
	base := st.Snapshot()

	snap, lost := st.Apply([]model.CartItem{line("p2", 30, 1)}, base.Seq)

	assert.Empty(t, lost, "nothing is reported lost when the basket did not move")
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "p2", snap.Items[0].PerfumeID)
}

func TestStore_ApplyReportsOverwrittenLines(t *testing.T) {
	st := NewStore(line("p1", 50, 1))
	base := st.Snapshot()

	// mutation racing with an in-flight sync
	st.Dispatch(AddItem{Item: line("p2", 30, 1)})

	snap, lost := st.Apply([]model.CartItem{line("p1", 50, 1)}, base.Seq)

	assert.Equal(t, []model.LineKey{{PerfumeID: "p2", Volume: 30}}, lost)
	_, found := snap.Find(model.LineKey{PerfumeID: "p2", Volume: 30})
	assert.False(t, found, "server response still wins")
}

func TestStore_ApplyReportsShrunkQuantities(t *testing.T) {
	st := NewStore(line("p1", 50, 1), line("p2", 30, 2))
	base := st.Snapshot()

	// repeated adds to the same line while a sync is in flight
	st.Dispatch(AddItem{Item: line("p1", 50, 3)})

	snap, lost := st.Apply([]model.CartItem{line("p1", 50, 1), line("p2", 30, 2)}, base.Seq)

	assert.Equal(t, []model.LineKey{{PerfumeID: "p1", Volume: 50}}, lost)
	it, found := snap.Find(model.LineKey{PerfumeID: "p1", Volume: 50})
	require.True(t, found)
	assert.Equal(t, 1, it.Quantity, "server response still wins")
}

func TestStore_ApplyIgnoresGrownQuantities(t *testing.T) {
	st := NewStore(line("p1", 50, 1))
	base := st.Snapshot()
	st.Dispatch(AddItem{Item: line("p1", 50, 1)})

	// the server merged the line with its own copy
	_, lost := st.Apply([]model.CartItem{line("p1", 50, 5)}, base.Seq)
	assert.Empty(t, lost)
}

func TestStore_ConcurrentDispatch(t *testing.T) {
	st := NewStore()
	const goroutines = 50

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.Dispatch(AddItem{Item: line("p1", 50, 1)})
		}()
	}
	wg.Wait()

	snap := st.Snapshot()
	assert.Equal(t, int64(goroutines), snap.Seq)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, goroutines, snap.Items[0].Quantity)
}

func TestSnapshot_Cart(t *testing.T) {
	snap := NewStore(line("p1", 50, 2)).Snapshot()
	c := snap.Cart()
	assert.Len(t, c.Items, 1)
	assert.True(t, c.TotalPrice.IsZero())
}
