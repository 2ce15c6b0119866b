package paxos

// Progress is the durable pair every replica persists: the highest ballot
// it has promised, and the highest slot it has delivered through.
//
// Invariant: HighestCommitted.Number <= HighestPromised, and
// HighestCommitted.Slot is monotonically non-decreasing across crashes.
type Progress struct {
	HighestPromised  BallotNumber
	HighestCommitted Identifier
}

// Accept is the durable record of one slot's accepted value. At most one
// Accept may be durably stored per slot for a node's current promise; an
// older Accept made under a lower promise may be overwritten on repromise.
type Accept struct {
	ID    Identifier
	Value Value
}
