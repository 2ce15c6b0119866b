package paxos

import (
	"github.com/fspore/trex/clock"
	"github.com/fspore/trex/host"
	"github.com/fspore/trex/node"
)

// promoteToRecoverer runs the promotion procedure of §4.3: mint a new
// ballot strictly higher than anything this replica has promised or
// committed, durably promise it to itself, generate one Prepare per slot
// from just past the last committed slot through one past the journal's
// recorded maximum, and pre-record a self-ack for each (this core's chosen
// self-loopback policy, §9: a handler always records its own vote rather
// than relying on the transport to loop a broadcast back to its sender).
//
// maxAcceptedSlot is taken only from this replica's own journal bounds,
// never adjusted once responders' PrepareAcks start arriving with their own
// higher accepted slots. That's Issue #13 from the source this is modeled
// on; it is preserved here rather than fixed, per §9.
func promoteToRecoverer(agent PaxosAgent, j Journal, cfg Config, now clock.Tick) (PaxosAgent, []Message, error) {
	data := agent.Data

	highest := data.Progress.HighestPromised
	if highest.Less(data.Progress.HighestCommitted.Number) {
		highest = data.Progress.HighestCommitted.Number
	}
	selfPromise := BallotNumber{Counter: highest.Counter + 1, NodeId: agent.NodeId}

	firstSlot := data.Progress.HighestCommitted.Slot + 1
	_, maxSlot, err := j.Bounds()
	if err != nil {
		return agent, nil, JournalFailureError{Err: err}
	}
	lastSlot := firstSlot
	if maxSlot+1 > lastSlot {
		lastSlot = maxSlot + 1
	}

	newProgress := Progress{HighestPromised: selfPromise, HighestCommitted: data.Progress.HighestCommitted}
	if err := j.SaveProgress(newProgress); err != nil {
		return agent, nil, JournalFailureError{Err: err}
	}
	data.Progress = newProgress
	data.Epoch = &selfPromise
	data.PrepareResponses = make(map[Identifier]map[node.NodeId]PrepareResponse)
	data.AcceptResponses = make(map[Identifier]AcceptResponsesAndTimeout)

	prepares := make([]Message, 0, lastSlot-firstSlot+1)
	for slot := firstSlot; slot <= lastSlot; slot++ {
		id := Identifier{Origin: agent.NodeId, Number: selfPromise, Slot: slot}

		var accepted *Accept
		if a, ok, aerr := j.Accepted(slot); aerr != nil {
			return agent, nil, JournalFailureError{Err: aerr}
		} else if ok {
			accepted = &a
		}

		data.PrepareResponses[id] = map[node.NodeId]PrepareResponse{
			agent.NodeId: {
				ID:              id,
				From:            agent.NodeId,
				OK:              true,
				Progress:        newProgress,
				LeaderHeartbeat: data.LeaderHeartbeat,
				Accepted:        accepted,
			},
		}
		prepares = append(prepares, Prepare{ID: id})
	}

	data.Timeout = randomTimeout(now, cfg.LeaderTimeoutMin, cfg.LeaderTimeoutMax)

	return PaxosAgent{NodeId: agent.NodeId, Role: Recoverer, Data: data}, prepares, nil
}

// handleRecovererPrepareResponse tallies PrepareAck/Nack for one of the
// outstanding promotion prepares. On majority it applies the Paxos
// value-picking rule and moves the slot from prepareResponses into
// acceptResponses, broadcasting the chosen Accept.
func handleRecovererPrepareResponse(agent PaxosAgent, j Journal, resp PrepareResponse, cfg Config, now clock.Tick) (PaxosAgent, []Message, []ClientReply, error) {
	data := agent.Data
	votes, ok := data.PrepareResponses[resp.ID]
	if !ok {
		return agent, nil, nil, nil
	}
	votes[resp.From] = resp
	data.PrepareResponses[resp.ID] = votes

	if !cfg.quorum()(len(votes), data.ClusterSize) {
		agent.Data = data
		return agent, nil, nil, nil
	}

	for _, v := range votes {
		if !v.OK && data.Epoch != nil && v.Progress.HighestPromised.Greater(*data.Epoch) {
			logger.Infof("%v", PromiseViolationError{Have: v.Progress.HighestPromised, Want: *data.Epoch})
			newAgent, replies := backdown(PaxosAgent{NodeId: agent.NodeId, Role: Recoverer, Data: data}, now, cfg)
			return newAgent, nil, replies, nil
		}
	}

	var chosen Value = NoOp{}
	var chosenNumber BallotNumber
	haveChosen := false
	for _, v := range votes {
		if v.Accepted == nil {
			continue
		}
		if !haveChosen || v.Accepted.ID.Number.Greater(chosenNumber) {
			chosen = v.Accepted.Value
			chosenNumber = v.Accepted.ID.Number
			haveChosen = true
		}
	}

	delete(data.PrepareResponses, resp.ID)

	acceptID := Identifier{Origin: agent.NodeId, Number: *data.Epoch, Slot: resp.ID.Slot}
	accept := Accept{ID: acceptID, Value: chosen}
	if err := j.Accept(accept); err != nil {
		agent.Data = data
		return agent, nil, nil, JournalFailureError{Err: err}
	}

	data.AcceptResponses[acceptID] = AcceptResponsesAndTimeout{
		Accept:  accept,
		Timeout: randomTimeout(now, cfg.LeaderTimeoutMin, cfg.LeaderTimeoutMax),
		Responses: map[node.NodeId]AcceptResponse{
			agent.NodeId: {ID: acceptID, From: agent.NodeId, OK: true, Progress: data.Progress},
		},
	}

	agent.Data = data
	return agent, []Message{AcceptMsg{Accept: accept}}, nil, nil
}

// handleRecovererAcceptResponse tallies AcceptAck/Nack for a recovery slot.
// Once every outstanding recovery slot's accept has reached majority ack,
// the replica promotes to Leader; this is the simplified reading of "the
// highest-committed-contiguous prefix of acceptResponses" this core takes
// (§4.3) — promotion waits for the whole recovered range rather than
// continuing as Leader with some slots still unresolved.
func handleRecovererAcceptResponse(agent PaxosAgent, j Journal, d host.Deliverer, resp AcceptResponse, cfg Config, now clock.Tick) (PaxosAgent, []Message, []ClientReply, error) {
	data := agent.Data
	art, ok := data.AcceptResponses[resp.ID]
	if !ok {
		return agent, nil, nil, nil
	}
	art.Responses[resp.From] = resp
	data.AcceptResponses[resp.ID] = art

	if !cfg.quorum()(len(art.Responses), data.ClusterSize) {
		agent.Data = data
		return agent, nil, nil, nil
	}

	for _, v := range art.Responses {
		if !v.OK && data.Epoch != nil && v.Progress.HighestPromised.Greater(*data.Epoch) {
			logger.Infof("%v", PromiseViolationError{Have: v.Progress.HighestPromised, Want: *data.Epoch})
			newAgent, replies := backdown(PaxosAgent{NodeId: agent.NodeId, Role: Recoverer, Data: data}, now, cfg)
			return newAgent, nil, replies, nil
		}
	}

	if len(data.PrepareResponses) > 0 {
		agent.Data = data
		return agent, nil, nil, nil
	}
	for id := range data.AcceptResponses {
		if !majorityAcked(data.AcceptResponses[id], data.ClusterSize, cfg.quorum()) {
			agent.Data = data
			return agent, nil, nil, nil
		}
	}

	// Every recovered slot has majority-acked: each is chosen. Commit and
	// deliver them, in slot order, before promoting — a recovered slot
	// is exactly as final as a client-driven one reaching the same point,
	// and nothing else in the cluster will commit it if this replica
	// doesn't (it minted the recovery ballot, not any other node).
	ids := make([]Identifier, 0, len(data.AcceptResponses))
	for id := range data.AcceptResponses {
		ids = append(ids, id)
	}
	sortIdentifiers(ids)

	var out []Message
	var replies []ClientReply
	progress := data.Progress
	for _, id := range ids {
		newProgress, deliveredID, payload, err := deliverSlot(j, d, progress, id.Slot)
		if err != nil {
			agent.Data = data
			return agent, nil, replies, err
		}
		progress = newProgress
		out = append(out, Commit{ID: id})
		if reply, owned := replyIfOwned(&data, deliveredID, payload, nil); owned {
			replies = append(replies, reply)
		}
	}
	data.Progress = progress

	data.AcceptResponses = make(map[Identifier]AcceptResponsesAndTimeout)
	data.Timeout = randomTimeout(now, cfg.LeaderTimeoutMin, cfg.LeaderTimeoutMax)
	return PaxosAgent{NodeId: agent.NodeId, Role: Leader, Data: data}, out, replies, nil
}

// majorityAcked reports whether art's OK votes alone form a quorum of the
// whole cluster, not merely of the votes received so far for this slot —
// each recovered slot must independently clear a real cluster majority
// before promotion, since a minority of acks among few responses is not a
// committed value (spec invariant 2, Safety).
func majorityAcked(art AcceptResponsesAndTimeout, clusterSize int, q Quorum) bool {
	acks := 0
	for _, v := range art.Responses {
		if v.OK {
			acks++
		}
	}
	return q(acks, clusterSize)
}

// handleRecovererTick resends anything still unresolved: prepares without
// a majority and accepts whose individual timeout has elapsed.
func handleRecovererTick(agent PaxosAgent, now clock.Tick, cfg Config) (PaxosAgent, []Message) {
	data := agent.Data
	var out []Message

	for id, votes := range data.PrepareResponses {
		if !cfg.quorum()(len(votes), data.ClusterSize) {
			out = append(out, Prepare{ID: id})
		}
	}
	for id, art := range data.AcceptResponses {
		if now >= art.Timeout {
			out = append(out, AcceptMsg{Accept: art.Accept})
			art.Timeout = randomTimeout(now, cfg.LeaderTimeoutMin, cfg.LeaderTimeoutMax)
			data.AcceptResponses[id] = art
		}
	}
	agent.Data = data
	return agent, out
}
