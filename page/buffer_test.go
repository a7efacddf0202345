package page

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestPendingBufferDrain(t *testing.T) {
	buffer := NewPendingBuffer()
	for _, version := range []int64{2, 5, 6} {
		buffer.Add(&PendingAction{
			Operation:  &SetTitle{Title: "x"},
			Version:    version,
			HasVersion: true,
		})
	}
	assert.Equal(t, buffer.Len(), 3)

	retained, discardCount := buffer.Drain(4)
	assert.Equal(t, discardCount, 1)
	assert.Equal(t, len(retained), 2)
	assert.Equal(t, retained[0].Version, int64(5))
	assert.Equal(t, retained[1].Version, int64(6))
	assert.Equal(t, buffer.Len(), 0)
}

func TestPendingBufferUnversioned(t *testing.T) {
	buffer := NewPendingBuffer()
	buffer.Add(&PendingAction{Operation: &SetTitle{Title: "a"}})
	buffer.Add(&PendingAction{Operation: &SetTitle{Title: "b"}, Version: 4, HasVersion: true})
	buffer.Add(&PendingAction{Operation: &SetTitle{Title: "c"}})

	retained, discardCount := buffer.Drain(4)
	assert.Equal(t, discardCount, 1)
	titles := []string{}
	for _, action := range retained {
		titles = append(titles, action.Operation.(*SetTitle).Title)
	}
	assert.Equal(t, titles, []string{"a", "c"})
}

func TestPendingBufferClear(t *testing.T) {
	buffer := NewPendingBuffer()
	buffer.Add(&PendingAction{Operation: &SetTitle{Title: "a"}})
	buffer.Clear()
	assert.Equal(t, buffer.Len(), 0)
	retained, discardCount := buffer.Drain(0)
	assert.Equal(t, len(retained), 0)
	assert.Equal(t, discardCount, 0)
}
