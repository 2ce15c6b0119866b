package journal

import (
	"sync"

	"github.com/fspore/trex/paxos"
)

// Memory is an in-memory Journal, grounded on the teacher's Scope state
// (instances map guarded by a single sync.RWMutex, Persist() as the single
// choke point every mutation passes through). It's what every core test and
// cmd/demo run against; it is not durable across process restarts and must
// never be used as a production journal.
type Memory struct {
	lock     sync.RWMutex
	progress paxos.Progress
	accepts  map[paxos.SlotIndex]paxos.Accept
	minSlot  paxos.SlotIndex
	maxSlot  paxos.SlotIndex
	loaded   bool
}

func NewMemory() *Memory {
	return &Memory{
		accepts: make(map[paxos.SlotIndex]paxos.Accept),
	}
}

func (m *Memory) LoadProgress() (paxos.Progress, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.progress, nil
}

func (m *Memory) SaveProgress(p paxos.Progress) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.progress = p
	return nil
}

func (m *Memory) Accept(accepts ...paxos.Accept) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	for _, a := range accepts {
		if _, exists := m.accepts[a.ID.Slot]; !exists {
			if !m.loaded || a.ID.Slot < m.minSlot {
				m.minSlot = a.ID.Slot
			}
			if a.ID.Slot > m.maxSlot {
				m.maxSlot = a.ID.Slot
			}
			m.loaded = true
		} else if a.ID.Slot > m.maxSlot {
			m.maxSlot = a.ID.Slot
		}
		m.accepts[a.ID.Slot] = a
	}
	return nil
}

func (m *Memory) Accepted(slot paxos.SlotIndex) (paxos.Accept, bool, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	a, ok := m.accepts[slot]
	return a, ok, nil
}

func (m *Memory) Bounds() (min, max paxos.SlotIndex, err error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if !m.loaded {
		return 0, 0, nil
	}
	return m.minSlot, m.maxSlot, nil
}
