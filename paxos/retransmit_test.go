package paxos

import (
	"testing"

	"github.com/fspore/trex/host"
	"github.com/fspore/trex/journal"
	"github.com/fspore/trex/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func acceptAt(slot SlotIndex) Accept {
	return Accept{ID: Identifier{Origin: node.NodeId(1), Number: BallotNumber{Counter: 1, NodeId: 1}, Slot: slot}, Value: NoOp{}}
}

func seedJournal(t *testing.T, slots ...SlotIndex) *journal.Memory {
	t.Helper()
	j := journal.NewMemory()
	for _, s := range slots {
		require.NoError(t, j.Accept(acceptAt(s)))
	}
	return j
}

// TestBuildRetransmitResponseCommittedRange is S1.
func TestBuildRetransmitResponseCommittedRange(t *testing.T) {
	j := seedJournal(t, 98, 99, 100)
	resp, err := BuildRetransmitResponse(j, node.NodeId(1), node.NodeId(2), 100, 97)
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Len(t, resp.Committed, 3)
	assert.Empty(t, resp.Uncommitted)
	assert.Equal(t, SlotIndex(98), resp.Committed[0].ID.Slot)
	assert.Equal(t, SlotIndex(100), resp.Committed[2].ID.Slot)
}

// TestBuildRetransmitResponseUncommitted is S2.
func TestBuildRetransmitResponseUncommitted(t *testing.T) {
	j := seedJournal(t, 98, 99, 100)
	resp, err := BuildRetransmitResponse(j, node.NodeId(1), node.NodeId(2), 97, 97)
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Empty(t, resp.Committed)
	assert.Len(t, resp.Uncommitted, 3)
}

// TestBuildRetransmitResponseOutOfRange is S3.
func TestBuildRetransmitResponseOutOfRange(t *testing.T) {
	j := seedJournal(t, 98, 99, 100)
	resp, err := BuildRetransmitResponse(j, node.NodeId(1), node.NodeId(2), 100, 10)
	require.NoError(t, err)
	assert.Nil(t, resp)
}

// TestBuildRetransmitResponseMixed is S4.
func TestBuildRetransmitResponseMixed(t *testing.T) {
	j := seedJournal(t, 98, 99, 100, 101)
	resp, err := BuildRetransmitResponse(j, node.NodeId(1), node.NodeId(2), 99, 97)
	require.NoError(t, err)
	require.NotNil(t, resp)
	require.Len(t, resp.Committed, 2)
	require.Len(t, resp.Uncommitted, 2)
	assert.Equal(t, SlotIndex(98), resp.Committed[0].ID.Slot)
	assert.Equal(t, SlotIndex(99), resp.Committed[1].ID.Slot)
	assert.Equal(t, SlotIndex(100), resp.Uncommitted[0].ID.Slot)
	assert.Equal(t, SlotIndex(101), resp.Uncommitted[1].ID.Slot)
}

// TestContiguousCommittablePrefixMisordered is S5.
func TestContiguousCommittablePrefixMisordered(t *testing.T) {
	seq := []Accept{acceptAt(98), acceptAt(99), acceptAt(101), acceptAt(100)}
	prefix := contiguousCommittablePrefix(97, seq)
	require.Len(t, prefix, 2)
	assert.Equal(t, SlotIndex(98), prefix[0].ID.Slot)
	assert.Equal(t, SlotIndex(99), prefix[1].ID.Slot)
}

type fakeDeliverer struct {
	delivered []int64
}

func (f *fakeDeliverer) DeliverClient(p host.Payload) ([]byte, error) {
	f.delivered = append(f.delivered, p.DeliveryID)
	return p.Bytes, nil
}

// TestApplyRetransmitResponseAdvancesThroughContiguousPrefixOnly checks
// that S5's semantics carry through ApplyRetransmitResponse end to end:
// highestCommitted only advances to a99, while the accepts past the prefix
// (a100 among them) are still journaled rather than dropped.
func TestApplyRetransmitResponseAdvancesThroughContiguousPrefixOnly(t *testing.T) {
	j := journal.NewMemory()
	d := &fakeDeliverer{}
	agent := PaxosAgent{
		NodeId: node.NodeId(1),
		Role:   Follower,
		Data:   NewPaxosData(Progress{HighestCommitted: Identifier{Slot: 97}}, 3, 0),
	}
	resp := RetransmitResponse{
		From:      node.NodeId(2),
		To:        node.NodeId(1),
		Committed: []Accept{acceptAt(98), acceptAt(99), acceptAt(101), acceptAt(100)},
	}

	newAgent, _, err := ApplyRetransmitResponse(agent, j, d, resp)
	require.NoError(t, err)
	assert.Equal(t, SlotIndex(99), newAgent.Data.Progress.HighestCommitted.Slot)

	a, ok, err := j.Accepted(100)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, SlotIndex(100), a.ID.Slot)
}
