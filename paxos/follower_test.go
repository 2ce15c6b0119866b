package paxos

import (
	"testing"
	"time"

	"github.com/fspore/trex/clock"
	"github.com/fspore/trex/journal"
	"github.com/fspore/trex/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleFollowerTickNoopBeforeTimeout(t *testing.T) {
	agent := NewAgent(1, Progress{}, 3, 100)
	newAgent, msgs := handleFollowerTick(agent, Config{LeaderTimeoutMin: 50, LeaderTimeoutMax: 60}, 10)
	assert.Nil(t, msgs)
	assert.Equal(t, agent, newAgent)
}

func TestHandleFollowerTickBroadcastsLowPrepareAndSelfNacks(t *testing.T) {
	self := node.NodeId(1)
	agent := NewAgent(self, Progress{}, 3, 100)
	newAgent, msgs := handleFollowerTick(agent, Config{LeaderTimeoutMin: 50 * time.Millisecond, LeaderTimeoutMax: 60 * time.Millisecond}, 100)
	require.Len(t, msgs, 1)
	prepare, ok := msgs[0].(Prepare)
	require.True(t, ok)
	assert.True(t, prepare.ID.Number.Zero())

	votes, ok := newAgent.Data.PrepareResponses[prepare.ID]
	require.True(t, ok)
	assert.False(t, votes[self].OK)
	assert.True(t, newAgent.Data.Timeout > 100)
}

func TestHandleHeartbeatIgnoresStaleCounter(t *testing.T) {
	agent := NewAgent(1, Progress{}, 3, 0)
	agent.Data.LeaderHeartbeat = 10
	newAgent := handleHeartbeat(agent, Heartbeat{From: 2, Counter: 5}, Config{LeaderTimeoutMin: 50, LeaderTimeoutMax: 60}, 0)
	assert.Equal(t, uint64(10), newAgent.Data.LeaderHeartbeat)
}

func TestHandleHeartbeatAdvancesAndResetsFollowerTimeout(t *testing.T) {
	agent := NewAgent(1, Progress{}, 3, 0)
	agent.Data.Timeout = 5
	newAgent := handleHeartbeat(agent, Heartbeat{From: 2, Counter: 20}, Config{LeaderTimeoutMin: 50 * time.Millisecond, LeaderTimeoutMax: 60 * time.Millisecond}, 100)
	assert.Equal(t, uint64(20), newAgent.Data.LeaderHeartbeat)
	assert.True(t, newAgent.Data.Timeout > 100)
}

func TestHandleHeartbeatLeavesNonFollowerTimeoutAlone(t *testing.T) {
	agent := PaxosAgent{NodeId: 1, Role: Leader, Data: NewPaxosData(Progress{}, 3, 0)}
	agent.Data.Timeout = 5
	newAgent := handleHeartbeat(agent, Heartbeat{From: 2, Counter: 20}, Config{LeaderTimeoutMin: 50, LeaderTimeoutMax: 60}, 100)
	assert.Equal(t, clock.Tick(5), newAgent.Data.Timeout)
}

func TestHandleFollowerPrepareResponseStaleProgressTriggersRetransmit(t *testing.T) {
	self := node.NodeId(1)
	agent := NewAgent(self, Progress{}, 3, 0)
	id := lowPrepareID(self)
	agent.Data.PrepareResponses[id] = map[node.NodeId]PrepareResponse{
		self: {ID: id, From: self, OK: false},
	}

	resp := PrepareResponse{
		ID:       id,
		From:     node.NodeId(2),
		OK:       false,
		Progress: Progress{HighestCommitted: Identifier{Slot: 50}},
	}
	newAgent, msgs, _, err := handleFollowerPrepareResponse(agent, journal.NewMemory(), resp, Config{LeaderTimeoutMin: 50, LeaderTimeoutMax: 60}, 0)
	require.NoError(t, err)
	assert.Equal(t, Follower, newAgent.Role)
	require.Len(t, msgs, 1)
	req, ok := msgs[0].(RetransmitRequest)
	require.True(t, ok)
	assert.Equal(t, node.NodeId(2), req.To)
}

func TestHandleFollowerPrepareResponseMajorityFailoverPromotes(t *testing.T) {
	self := node.NodeId(1)
	agent := NewAgent(self, Progress{}, 5, 0)
	id := lowPrepareID(self)
	agent.Data.PrepareResponses[id] = map[node.NodeId]PrepareResponse{
		self: {ID: id, From: self, OK: false},
	}

	j := journal.NewMemory()
	agent, _, _, err := handleFollowerPrepareResponse(agent, j, PrepareResponse{ID: id, From: 2, OK: false}, Config{LeaderTimeoutMin: 50, LeaderTimeoutMax: 60}, 0)
	require.NoError(t, err)
	assert.Equal(t, Follower, agent.Role)

	agent, msgs, _, err := handleFollowerPrepareResponse(agent, j, PrepareResponse{ID: id, From: 3, OK: false}, Config{LeaderTimeoutMin: 50, LeaderTimeoutMax: 60}, 0)
	require.NoError(t, err)
	assert.Equal(t, Recoverer, agent.Role)
	assert.NotEmpty(t, msgs)
}
