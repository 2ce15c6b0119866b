package paxos

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestComputeFailoverNoEvidence covers S6: both nacks carry an
// evidenceHeartbeat not greater than self, so largerHeartbeats is empty
// and failover proceeds regardless of cluster size.
func TestComputeFailoverNoEvidence(t *testing.T) {
	failover, h := computeFailover(nil, 1000, 3)
	assert.True(t, failover)
	assert.Equal(t, uint64(1000), h)
}

// TestComputeFailoverMajorityStillSeesLeader covers S7 exactly: cluster
// size 3, self heartbeat 997, nacks carrying {998, 999} — two larger
// heartbeats, which with the presumed-live leader make 3 > 3/2, so
// failover is suppressed and h comes back as the highest evidence, 999.
func TestComputeFailoverMajorityStillSeesLeader(t *testing.T) {
	failover, h := computeFailover([]uint64{998, 999}, 997, 3)
	assert.False(t, failover)
	assert.Equal(t, uint64(999), h)
}

func TestComputeFailoverMinorityStillSeesLeader(t *testing.T) {
	// clusterSize 5: one larger-heartbeat nack + leader = 2, not > 5/2.
	failover, h := computeFailover([]uint64{20}, 10, 5)
	assert.True(t, failover)
	assert.Equal(t, uint64(20), h)
}

func TestComputeFailoverHFoldsInSelfWhenHigher(t *testing.T) {
	failover, h := computeFailover([]uint64{5}, 100, 5)
	assert.True(t, failover)
	assert.Equal(t, uint64(100), h)
}

func TestComputeFailoverExactlyAtHalf(t *testing.T) {
	// clusterSize 4: one larger-heartbeat nack + leader = 2, not > 4/2=2.
	failover, _ := computeFailover([]uint64{20}, 10, 4)
	assert.True(t, failover)
}
