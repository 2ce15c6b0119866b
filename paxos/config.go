package paxos

import "time"

// Config is the one piece of external tuning the core consumes (§6).
// Followers pick their next random timeout uniformly from
// [LeaderTimeoutMin, LeaderTimeoutMax); Leaders heartbeat at
// LeaderTimeoutMin/4.
type Config struct {
	LeaderTimeoutMin time.Duration
	LeaderTimeoutMax time.Duration

	// Quorum is the majority predicate every vote tally in this package
	// runs through (§2 item 3). Nil means StrictMajority, the quorum
	// every invariant and scenario in this package's tests is written
	// against; a host embedding this core for, say, a deliberately
	// relaxed or tightened quorum supplies its own here.
	Quorum Quorum
}

// HeartbeatPeriod is the interval a Leader heartbeats at, derived from the
// configured minimum follower timeout so a quarter of a follower's patience
// always elapses between heartbeats even at the shortest configured
// timeout.
func (c Config) HeartbeatPeriod() time.Duration {
	return c.LeaderTimeoutMin / 4
}

// quorum returns the configured Quorum, falling back to StrictMajority.
func (c Config) quorum() Quorum {
	if c.Quorum != nil {
		return c.Quorum
	}
	return StrictMajority
}
