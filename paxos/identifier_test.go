package paxos

import (
	"testing"

	"github.com/fspore/trex/node"
	"github.com/stretchr/testify/assert"
)

func TestIdentifierLessBySlotOnly(t *testing.T) {
	a := Identifier{Origin: 1, Number: BallotNumber{Counter: 9, NodeId: 9}, Slot: 1}
	b := Identifier{Origin: 1, Number: BallotNumber{Counter: 1, NodeId: 1}, Slot: 2}
	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
}

func TestIdentifierBallotLessIgnoresSlot(t *testing.T) {
	a := Identifier{Origin: 1, Number: BallotNumber{Counter: 1, NodeId: 1}, Slot: 100}
	b := Identifier{Origin: 1, Number: BallotNumber{Counter: 2, NodeId: 1}, Slot: 1}
	assert.True(t, a.ballotLess(b))
	assert.False(t, b.ballotLess(a))
}

func TestLowPrepareIDIsZeroBallotAtSlotZero(t *testing.T) {
	id := lowPrepareID(node.NodeId(3))
	assert.True(t, id.Number.Zero())
	assert.Equal(t, SlotIndex(0), id.Slot)
	assert.Equal(t, node.NodeId(3), id.Origin)
}

func TestSortIdentifiersOrdersBySlot(t *testing.T) {
	ids := []Identifier{
		{Slot: 5},
		{Slot: 1},
		{Slot: 3},
	}
	sortIdentifiers(ids)
	assert.Equal(t, []SlotIndex{1, 3, 5}, []SlotIndex{ids[0].Slot, ids[1].Slot, ids[2].Slot})
}

func TestSortedIdentifiersFromSet(t *testing.T) {
	set := map[Identifier]struct{}{
		{Slot: 9}: {},
		{Slot: 2}: {},
		{Slot: 4}: {},
	}
	out := sortedIdentifiers(set)
	assert.Len(t, out, 3)
	assert.Equal(t, SlotIndex(2), out[0].Slot)
	assert.Equal(t, SlotIndex(4), out[1].Slot)
	assert.Equal(t, SlotIndex(9), out[2].Slot)
}
