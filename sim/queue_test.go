package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueue_FIFOOrder(t *testing.T) {
	q := NewQueue(3)

	q.Push(&Message{POIID: 1})
	q.Push(&Message{POIID: 2})
	q.Push(&Message{POIID: 3})

	assert.Equal(t, 1, q.Pop().POIID)
	assert.Equal(t, 2, q.Pop().POIID)
	assert.Equal(t, 3, q.Pop().POIID)
	assert.Nil(t, q.Pop())
}

func TestQueue_DropTail_RejectsNewestKeepsOldest(t *testing.T) {
	// GIVEN a queue filled to capacity
	q := NewQueue(2)
	assert.True(t, q.Push(&Message{POIID: 1}))
	assert.True(t, q.Push(&Message{POIID: 2}))

	// WHEN one more message arrives
	ok := q.Push(&Message{POIID: 3})

	// THEN the newest is rejected and the queued ones are untouched
	assert.False(t, ok)
	assert.Equal(t, 2, q.Len())
	assert.Equal(t, 1, q.Pop().POIID)
	assert.Equal(t, 2, q.Pop().POIID)
}

func TestQueue_LenNeverExceedsCap(t *testing.T) {
	q := NewQueue(4)

	for i := 0; i < 20; i++ {
		q.Push(&Message{POIID: i})
		assert.LessOrEqual(t, q.Len(), q.Cap())
	}
	assert.Equal(t, 4, q.Len())
}
