package paxos

import (
	"testing"

	"github.com/fspore/trex/host"
	"github.com/fspore/trex/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackdownFailsOutstandingClientCommands(t *testing.T) {
	self := node.NodeId(1)
	epoch := BallotNumber{Counter: 3, NodeId: self}
	data := NewPaxosData(Progress{}, 3, 0)
	data.Epoch = &epoch
	data.LeaderHeartbeat = 42
	id := Identifier{Origin: self, Number: epoch, Slot: 1}
	data.ClientCommands[id] = ClientCommandEntry{Value: ClientCommand{ClientMsgID: "c1"}, Reply: "addr"}
	data.PrepareResponses[id] = map[node.NodeId]PrepareResponse{}
	data.AcceptResponses[id] = AcceptResponsesAndTimeout{}

	agent := PaxosAgent{NodeId: self, Role: Leader, Data: data}
	newAgent, replies := backdown(agent, 100, Config{LeaderTimeoutMin: 50, LeaderTimeoutMax: 60})

	assert.Equal(t, Follower, newAgent.Role)
	assert.Nil(t, newAgent.Data.Epoch)
	assert.Empty(t, newAgent.Data.PrepareResponses)
	assert.Empty(t, newAgent.Data.AcceptResponses)
	assert.Empty(t, newAgent.Data.ClientCommands)
	assert.Equal(t, uint64(42), newAgent.Data.LeaderHeartbeat)
	assert.True(t, newAgent.Data.Timeout >= 100)

	require.Len(t, replies, 1)
	assert.Equal(t, "addr", replies[0].Reply)
	lostErr, ok := replies[0].Err.(host.LostLeadershipError)
	require.True(t, ok)
	assert.Equal(t, "c1", lostErr.ClientMsgID)
}

func TestBackdownNoOutstandingCommandsYieldsNoReplies(t *testing.T) {
	agent := NewAgent(1, Progress{}, 3, 0)
	_, replies := backdown(agent, 0, Config{LeaderTimeoutMin: 50, LeaderTimeoutMax: 60})
	assert.Empty(t, replies)
}
