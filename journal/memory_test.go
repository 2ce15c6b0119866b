package journal

import (
	"testing"

	"github.com/fspore/trex/paxos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLoadProgressDefaultsToZeroValue(t *testing.T) {
	m := NewMemory()
	p, err := m.LoadProgress()
	require.NoError(t, err)
	assert.Equal(t, paxos.Progress{}, p)
}

func TestMemorySaveAndLoadProgressRoundTrips(t *testing.T) {
	m := NewMemory()
	p := paxos.Progress{HighestPromised: paxos.BallotNumber{Counter: 3, NodeId: 1}}
	require.NoError(t, m.SaveProgress(p))
	got, err := m.LoadProgress()
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestMemoryAcceptAndAccepted(t *testing.T) {
	m := NewMemory()
	a := paxos.Accept{ID: paxos.Identifier{Slot: 5}, Value: paxos.NoOp{}}
	require.NoError(t, m.Accept(a))

	got, ok, err := m.Accepted(5)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, a, got)

	_, ok, err = m.Accepted(6)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryBoundsTracksMinAndMax(t *testing.T) {
	m := NewMemory()
	min, max, err := m.Bounds()
	require.NoError(t, err)
	assert.Equal(t, paxos.SlotIndex(0), min)
	assert.Equal(t, paxos.SlotIndex(0), max)

	require.NoError(t, m.Accept(
		paxos.Accept{ID: paxos.Identifier{Slot: 10}},
		paxos.Accept{ID: paxos.Identifier{Slot: 3}},
		paxos.Accept{ID: paxos.Identifier{Slot: 7}},
	))
	min, max, err = m.Bounds()
	require.NoError(t, err)
	assert.Equal(t, paxos.SlotIndex(3), min)
	assert.Equal(t, paxos.SlotIndex(10), max)
}

func TestMemoryAcceptOverwritesSameSlot(t *testing.T) {
	m := NewMemory()
	id := paxos.Identifier{Slot: 1}
	require.NoError(t, m.Accept(paxos.Accept{ID: id, Value: paxos.NoOp{}}))
	require.NoError(t, m.Accept(paxos.Accept{ID: id, Value: paxos.ClientCommand{ClientMsgID: "c1"}}))

	got, ok, err := m.Accepted(1)
	require.NoError(t, err)
	require.True(t, ok)
	cmd, ok := got.Value.(paxos.ClientCommand)
	require.True(t, ok)
	assert.Equal(t, "c1", cmd.ClientMsgID)
}
