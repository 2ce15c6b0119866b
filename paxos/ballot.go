package paxos

import (
	"fmt"

	"github.com/fspore/trex/node"
)

// BallotNumber orders proposals across the whole cluster. Higher Counter
// wins; a tie is broken by higher NodeId. The zero value is the reserved
// "low prepare" ballot: it compares below every real ballot because real
// ballots always carry Counter >= 1.
type BallotNumber struct {
	Counter int32
	NodeId  node.NodeId
}

// Zero reports whether this is the reserved low-prepare ballot.
func (b BallotNumber) Zero() bool {
	return b.Counter == 0 && b.NodeId == 0
}

// Less reports whether b sorts strictly before other.
func (b BallotNumber) Less(other BallotNumber) bool {
	if b.Counter != other.Counter {
		return b.Counter < other.Counter
	}
	return b.NodeId < other.NodeId
}

// Greater reports whether b sorts strictly after other.
func (b BallotNumber) Greater(other BallotNumber) bool {
	return other.Less(b)
}

func (b BallotNumber) Equal(other BallotNumber) bool {
	return b.Counter == other.Counter && b.NodeId == other.NodeId
}

func maxBallot(a, b BallotNumber) BallotNumber {
	if a.Less(b) {
		return b
	}
	return a
}

func (b BallotNumber) String() string {
	return fmt.Sprintf("(%d,%v)", b.Counter, b.NodeId)
}
