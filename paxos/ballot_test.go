package paxos

import (
	"testing"

	"github.com/fspore/trex/node"
	"github.com/stretchr/testify/assert"
)

func TestBallotNumberZero(t *testing.T) {
	assert.True(t, BallotNumber{}.Zero())
	assert.False(t, BallotNumber{Counter: 1}.Zero())
	assert.False(t, BallotNumber{NodeId: 1}.Zero())
}

func TestBallotNumberOrderingByCounter(t *testing.T) {
	low := BallotNumber{Counter: 1, NodeId: 9}
	high := BallotNumber{Counter: 2, NodeId: 1}
	assert.True(t, low.Less(high))
	assert.True(t, high.Greater(low))
	assert.False(t, high.Less(low))
}

func TestBallotNumberNodeIdTiebreak(t *testing.T) {
	a := BallotNumber{Counter: 5, NodeId: 1}
	b := BallotNumber{Counter: 5, NodeId: 2}
	assert.True(t, a.Less(b))
	assert.True(t, b.Greater(a))
	assert.False(t, a.Equal(b))
}

func TestBallotNumberEqual(t *testing.T) {
	a := BallotNumber{Counter: 3, NodeId: node.NodeId(7)}
	b := BallotNumber{Counter: 3, NodeId: node.NodeId(7)}
	assert.True(t, a.Equal(b))
	assert.False(t, a.Less(b))
	assert.False(t, a.Greater(b))
}

func TestMaxBallot(t *testing.T) {
	a := BallotNumber{Counter: 1, NodeId: 1}
	b := BallotNumber{Counter: 2, NodeId: 1}
	assert.Equal(t, b, maxBallot(a, b))
	assert.Equal(t, b, maxBallot(b, a))
}
