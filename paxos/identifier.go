package paxos

import (
	"fmt"

	"github.com/fspore/trex/node"
)

// SlotIndex is a monotonically increasing position in the replicated log.
// Slot 0 is reserved to mean "before the log begins".
type SlotIndex int64

// Identifier addresses one Paxos instance: the node that originated the
// ballot, the ballot itself, and the log slot it's for.
//
// Two orderings exist on purpose: Less (by slot) is the only one used to key
// sorted containers (maps iterated in slot order, AcceptResponses). ballotLess
// is used only to compare promises and must never be used to order a
// container, per the safety-critical ordering requirement in the journal
// contract.
type Identifier struct {
	Origin node.NodeId
	Number BallotNumber
	Slot   SlotIndex
}

// Less orders identifiers by slot, the only ordering sorted containers may
// use.
func (id Identifier) Less(other Identifier) bool {
	return id.Slot < other.Slot
}

// ballotLess orders identifiers by their ballot number, for promise
// comparison only.
func (id Identifier) ballotLess(other Identifier) bool {
	return id.Number.Less(other.Number)
}

func (id Identifier) String() string {
	return fmt.Sprintf("#%d@%v/%v", id.Slot, id.Number, id.Origin)
}

// lowPrepareID builds the probe identifier: minimum ballot, minimum slot.
func lowPrepareID(self node.NodeId) Identifier {
	return Identifier{Origin: self, Number: BallotNumber{}, Slot: 0}
}
