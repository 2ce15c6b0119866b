package paxos

// computeFailover implements the rule of §4.2.1 / invariant 6 exactly:
// failover is true iff largerHeartbeats is empty, or admitting one more
// heartbeat for "the leader itself, possibly partitioned" still leaves the
// larger-heartbeat set a minority. h is the highest heartbeat evidence seen,
// folding in the replica's own leaderHeartbeat.
func computeFailover(largerHeartbeats []uint64, selfLeaderHeartbeat uint64, clusterSize int) (failover bool, h uint64) {
	h = selfLeaderHeartbeat
	for _, v := range largerHeartbeats {
		if v > h {
			h = v
		}
	}
	if len(largerHeartbeats) == 0 {
		return true, h
	}
	if len(largerHeartbeats)+1 > clusterSize/2 {
		return false, h
	}
	return true, h
}
