package page

import (
	"sync"
)


// An inbound operation held until the snapshot resolves.
type PendingAction struct {
	Operation  Operation
	Version    int64
	HasVersion bool
}


// FIFO of stream operations that arrive before the snapshot.
// Unbounded.
type PendingBuffer struct {
	stateLock sync.Mutex
	actions   []*PendingAction
}

func NewPendingBuffer() *PendingBuffer {
	return &PendingBuffer{
		actions: []*PendingAction{},
	}
}

func (self *PendingBuffer) Add(action *PendingAction) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	self.actions = append(self.actions, action)
}

func (self *PendingBuffer) Len() int {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return len(self.actions)
}

// Empties the buffer. Returns the actions that are newer than the snapshot, in arrival order.
// An action with a version at or below `snapshotVersion` is already reflected in the snapshot.
// An action without a version is always retained.
func (self *PendingBuffer) Drain(snapshotVersion int64) (retained []*PendingAction, discardCount int) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	retained = make([]*PendingAction, 0, len(self.actions))
	for _, action := range self.actions {
		if action.HasVersion && action.Version <= snapshotVersion {
			discardCount += 1
			continue
		}
		retained = append(retained, action)
	}
	self.actions = []*PendingAction{}
	return
}

func (self *PendingBuffer) Clear() {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	self.actions = []*PendingAction{}
}
