package paxos

import "github.com/fspore/trex/node"

// Message is the tagged union the dispatcher's routing switch (§4.7) and
// classifyRoute (routing.go) match on. Every wire message
// the core emits or consumes implements it.
type Message interface {
	Kind() MessageKind
}

type MessageKind int

const (
	KindPrepare MessageKind = iota
	KindPrepareResponse
	KindAcceptMsg
	KindAcceptResponse
	KindCommit
	KindHeartbeat
	KindRetransmitRequest
	KindRetransmitResponse
	KindNotLeader
)

// Prepare is Phase 1 of Paxos: "I want to propose with ballot Number at
// Slot". Broadcast. A Prepare whose Number is the zero BallotNumber is the
// low prepare used only to probe for a live leader; it is never journaled as
// a promise.
type Prepare struct {
	ID Identifier
}

func (Prepare) Kind() MessageKind { return KindPrepare }

// PrepareResponse merges what some Paxos descriptions call Promise/Reject
// into a single OK-flagged message (a deliberate design choice also noted
// in the message catalogue this core's wire types are grounded on: either
// shape is valid, and a single struct keeps the dispatcher's match simpler).
type PrepareResponse struct {
	ID              Identifier
	From            node.NodeId
	OK              bool
	Progress        Progress
	LeaderHeartbeat uint64
	// Accepted is the responder's highestAccepted(id.Slot), present only
	// when OK and when the responder has something accepted for that slot.
	Accepted *Accept
}

func (PrepareResponse) Kind() MessageKind { return KindPrepareResponse }

// AcceptMsg is Phase 2 of Paxos: "accept Value at Identifier". Broadcast.
// Note its payload shape is identical to the durable Accept record (§3):
// the wire message literally carries one.
type AcceptMsg struct {
	Accept Accept
}

func (AcceptMsg) Kind() MessageKind { return KindAcceptMsg }

type AcceptResponse struct {
	ID       Identifier
	From     node.NodeId
	OK       bool
	Progress Progress
}

func (AcceptResponse) Kind() MessageKind { return KindAcceptResponse }

// Commit announces that Identifier's value has been chosen. Broadcast.
type Commit struct {
	ID Identifier
}

func (Commit) Kind() MessageKind { return KindCommit }

// Heartbeat is the partition-evidence a Leader broadcasts between commits.
// Counter is monotonically increasing, minted only by the leader emitting
// it; it is never conflated with any replica's local tick.
type Heartbeat struct {
	From    node.NodeId
	Counter uint64
}

func (Heartbeat) Kind() MessageKind { return KindHeartbeat }

// RetransmitRequest is sent by a lagging replica, direct to the responder.
type RetransmitRequest struct {
	From     node.NodeId
	To       node.NodeId
	FromSlot SlotIndex
}

func (RetransmitRequest) Kind() MessageKind { return KindRetransmitRequest }

// RetransmitResponse answers a RetransmitRequest, direct to the requester.
type RetransmitResponse struct {
	From        node.NodeId
	To          node.NodeId
	Committed   []Accept
	Uncommitted []Accept
}

func (RetransmitResponse) Kind() MessageKind { return KindRetransmitResponse }

// NotLeader tells a client it mis-routed a command to a non-leader replica.
type NotLeader struct {
	NodeId      node.NodeId
	ClientMsgID string
}

func (NotLeader) Kind() MessageKind { return KindNotLeader }
