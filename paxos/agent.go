package paxos

import (
	"github.com/fspore/trex/clock"
	"github.com/fspore/trex/node"
	"github.com/fspore/trex/transport"
)

// Role is one of the three states a replica's agent can be in.
type Role int

const (
	Follower Role = iota
	Recoverer
	Leader
)

func (r Role) String() string {
	switch r {
	case Follower:
		return "Follower"
	case Recoverer:
		return "Recoverer"
	case Leader:
		return "Leader"
	default:
		return "Unknown"
	}
}

// AcceptResponsesAndTimeout tracks the votes collected for one outstanding
// Accept (Recoverer promoting, or Leader driving a client command) plus the
// absolute tick at which it should be rebroadcast if still unresolved.
type AcceptResponsesAndTimeout struct {
	Accept    Accept
	Timeout   clock.Tick
	Responses map[node.NodeId]AcceptResponse
}

// ClientCommandEntry is what the Leader remembers about one outstanding
// client command while it is being driven to commit: the value itself
// (redundant with the AcceptMsg already broadcast, but handy for resend) and
// the opaque address to reply to once it's delivered or lost.
type ClientCommandEntry struct {
	Value Value
	Reply transport.ReplyAddress
}

// PaxosData is the mutable half of the agent (§3). It is always replaced as
// a whole value by the dispatcher. Its maps are shared between copies of the
// value, and handlers write into them directly, so those writes are also
// visible through the value a handler was given.
type PaxosData struct {
	Progress Progress

	ClusterSize int

	// LeaderHeartbeat is the highest heartbeat counter observed from any
	// leader. It is a monotonic counter minted by whichever leader sends
	// it, never local timing information (§9, heartbeat counter source).
	LeaderHeartbeat uint64

	// Timeout is the absolute tick at which the current role's timer
	// fires next.
	Timeout clock.Tick

	// PrepareResponses holds votes for outstanding Prepares, including the
	// low-prepare probe a Follower broadcasts on timeout. Keyed by
	// Identifier so a single low-prepare's votes and a Recoverer's
	// per-slot promotion votes share the same shape.
	PrepareResponses map[Identifier]map[node.NodeId]PrepareResponse

	// Epoch is the ballot a Leader promised itself at promotion; nil
	// outside the Leader role.
	Epoch *BallotNumber

	// AcceptResponses holds votes for outstanding Accepts, both a
	// Recoverer's per-slot promotion Accepts and a Leader's client-driven
	// Accepts.
	AcceptResponses map[Identifier]AcceptResponsesAndTimeout

	// ClientCommands holds commands a Leader is driving to commit, keyed
	// by the Identifier they were assigned.
	ClientCommands map[Identifier]ClientCommandEntry
}

// NewPaxosData builds the zero-value data a freshly booted replica starts
// with: the journal-loaded Progress, an empty set of in-flight votes, and a
// first timeout already scheduled.
func NewPaxosData(progress Progress, clusterSize int, firstTimeout clock.Tick) PaxosData {
	return PaxosData{
		Progress:         progress,
		ClusterSize:      clusterSize,
		Timeout:          firstTimeout,
		PrepareResponses: make(map[Identifier]map[node.NodeId]PrepareResponse),
		AcceptResponses:  make(map[Identifier]AcceptResponsesAndTimeout),
		ClientCommands:   make(map[Identifier]ClientCommandEntry),
	}
}

// PaxosAgent is one replica's whole consensus state: (nodeId, role, data).
// Every handler in this package takes one by value and returns a new one
// plus a send buffer; the maps inside Data are shared (see PaxosData).
type PaxosAgent struct {
	NodeId node.NodeId
	Role   Role
	Data   PaxosData
}

// NewAgent builds the Follower agent a replica starts as, per the Lifecycle
// note in §3: role=Follower, all maps empty, Progress from the journal.
func NewAgent(id node.NodeId, progress Progress, clusterSize int, firstTimeout clock.Tick) PaxosAgent {
	return PaxosAgent{
		NodeId: id,
		Role:   Follower,
		Data:   NewPaxosData(progress, clusterSize, firstTimeout),
	}
}

// majority reports whether count is a strict majority of clusterSize,
// i.e. count > clusterSize/2.
func majority(count, clusterSize int) bool {
	return count > clusterSize/2
}

// sortedIdentifiers returns ids in slot order — the only ordering
// Identifier permits for sorted containers (§3).
func sortedIdentifiers(ids map[Identifier]struct{}) []Identifier {
	out := make([]Identifier, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	sortIdentifiers(out)
	return out
}

func sortIdentifiers(ids []Identifier) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j].Less(ids[j-1]); j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
}
