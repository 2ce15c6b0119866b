package paxos

// Quorum is the configurable majority predicate (§2 item 3). Every vote
// tally in this package — follower low-prepare votes, recoverer prepare and
// accept votes, leader accept votes — runs through Config.quorum() rather
// than calling majority directly, so a host that sets Config.Quorum
// substitutes its own predicate without touching any role handler.
type Quorum func(votes, clusterSize int) bool

// StrictMajority requires strictly more than half the cluster: the default
// quorum (Config.quorum() falls back to it when Config.Quorum is nil), and
// the one every invariant and scenario in this package's tests is written
// against.
func StrictMajority(votes, clusterSize int) bool {
	return majority(votes, clusterSize)
}
