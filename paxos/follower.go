package paxos

import (
	"github.com/fspore/trex/clock"
	"github.com/fspore/trex/host"
	"github.com/fspore/trex/node"
)

// handleFollowerTick implements the Follower timer-tick transitions of
// §4.2: broadcast (or rebroadcast) a low prepare once the current timeout
// has elapsed. Neither branch writes to the journal — a low prepare is
// never a real promise.
func handleFollowerTick(agent PaxosAgent, cfg Config, now clock.Tick) (PaxosAgent, []Message) {
	if now < agent.Data.Timeout {
		return agent, nil
	}

	id := lowPrepareID(agent.NodeId)
	data := agent.Data
	if _, outstanding := data.PrepareResponses[id]; !outstanding {
		data.PrepareResponses[id] = map[node.NodeId]PrepareResponse{
			agent.NodeId: {
				ID:              id,
				From:            agent.NodeId,
				OK:              false,
				Progress:        data.Progress,
				LeaderHeartbeat: data.LeaderHeartbeat,
			},
		}
	}
	data.Timeout = randomTimeout(now, cfg.LeaderTimeoutMin, cfg.LeaderTimeoutMax)
	agent.Data = data
	return agent, []Message{Prepare{ID: id}}
}

// handleHeartbeat folds in heartbeat evidence from any Leader. It is
// called regardless of role; only a Follower additionally resets its
// failover timeout, since only a Follower is counting down toward one.
func handleHeartbeat(agent PaxosAgent, hb Heartbeat, cfg Config, now clock.Tick) PaxosAgent {
	if hb.Counter <= agent.Data.LeaderHeartbeat {
		return agent
	}
	data := agent.Data
	data.LeaderHeartbeat = hb.Counter
	if agent.Role == Follower {
		data.Timeout = randomTimeout(now, cfg.LeaderTimeoutMin, cfg.LeaderTimeoutMax)
	}
	agent.Data = data
	return agent
}

// handleFollowerPrepareResponse implements §4.2.1: collecting votes for the
// outstanding low prepare and, on majority, deciding whether to fail over.
func handleFollowerPrepareResponse(agent PaxosAgent, j Journal, resp PrepareResponse, cfg Config, now clock.Tick) (PaxosAgent, []Message, []ClientReply, error) {
	id := lowPrepareID(agent.NodeId)
	if resp.ID != id {
		return agent, nil, nil, nil
	}

	data := agent.Data

	if resp.Progress.HighestCommitted.Slot > data.Progress.HighestCommitted.Slot {
		newAgent, replies := backdown(agent, now, cfg)
		req := BuildRetransmitRequest(agent.NodeId, resp.From, data.Progress.HighestCommitted.Slot)
		return newAgent, []Message{req}, replies, nil
	}

	votes, ok := data.PrepareResponses[id]
	if !ok {
		votes = make(map[node.NodeId]PrepareResponse)
	}
	votes[resp.From] = resp
	data.PrepareResponses[id] = votes

	if !cfg.quorum()(len(votes), data.ClusterSize) {
		agent.Data = data
		return agent, nil, nil, nil
	}

	var largerHeartbeats []uint64
	for _, v := range votes {
		if !v.OK && v.LeaderHeartbeat > data.LeaderHeartbeat {
			largerHeartbeats = append(largerHeartbeats, v.LeaderHeartbeat)
		}
	}
	failover, maxHeartbeat := computeFailover(largerHeartbeats, data.LeaderHeartbeat, data.ClusterSize)

	if !failover {
		delete(data.PrepareResponses, id)
		data.LeaderHeartbeat = maxHeartbeat
		agent.Data = data
		return agent, nil, nil, nil
	}

	newAgent, msgs, err := promoteToRecoverer(PaxosAgent{NodeId: agent.NodeId, Role: Follower, Data: data}, j, cfg, now)
	return newAgent, msgs, nil, err
}

// handleFollowerCommit implements the Commit branch of §4.2: deliver as
// much of the contiguous prefix the journal can support, advancing
// progress; if that stalls short of the announced slot, request the
// remainder by retransmit rather than attempt a higher-level resync.
func handleFollowerCommit(agent PaxosAgent, j Journal, d host.Deliverer, commit Commit) (PaxosAgent, []Message, []ClientReply, error) {
	data := agent.Data
	if commit.ID.Slot <= data.Progress.HighestCommitted.Slot {
		return agent, nil, nil, nil
	}

	stalled, replies, err := deliverContiguousFrom(j, d, &data, commit.ID.Slot)
	if err != nil {
		agent.Data = data
		return agent, nil, replies, err
	}
	agent.Data = data

	if stalled {
		req := BuildRetransmitRequest(agent.NodeId, commit.ID.Origin, data.Progress.HighestCommitted.Slot)
		return agent, []Message{req}, replies, nil
	}
	return agent, nil, replies, nil
}
