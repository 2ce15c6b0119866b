package paxos

import (
	"github.com/fspore/trex/clock"
	"github.com/fspore/trex/host"
	"github.com/fspore/trex/node"
	"github.com/fspore/trex/transport"
)

// handleLeaderClientCommand implements client intake (§4.4): assign the
// next free slot, broadcast the Accept, and pre-record the self-ack this
// core's self-loopback policy calls for.
func handleLeaderClientCommand(agent PaxosAgent, j Journal, value Value, reply transport.ReplyAddress, cfg Config, now clock.Tick) (PaxosAgent, []Message, error) {
	data := agent.Data

	maxSlot := data.Progress.HighestCommitted.Slot
	for id := range data.AcceptResponses {
		if id.Slot > maxSlot {
			maxSlot = id.Slot
		}
	}
	for id := range data.ClientCommands {
		if id.Slot > maxSlot {
			maxSlot = id.Slot
		}
	}
	slot := maxSlot + 1

	id := Identifier{Origin: agent.NodeId, Number: *data.Epoch, Slot: slot}
	accept := Accept{ID: id, Value: value}

	if err := j.Accept(accept); err != nil {
		return agent, nil, JournalFailureError{Err: err}
	}

	data.ClientCommands[id] = ClientCommandEntry{Value: value, Reply: reply}
	data.AcceptResponses[id] = AcceptResponsesAndTimeout{
		Accept:  accept,
		Timeout: randomTimeout(now, cfg.LeaderTimeoutMin, cfg.LeaderTimeoutMax),
		Responses: map[node.NodeId]AcceptResponse{
			agent.NodeId: {ID: id, From: agent.NodeId, OK: true, Progress: data.Progress},
		},
	}

	agent.Data = data
	return agent, []Message{AcceptMsg{Accept: accept}}, nil
}

// handleLeaderAcceptResponse tallies AcceptAck/Nack for a client-driven
// accept. On majority ack it commits: broadcasts Commit, delivers locally,
// and replies to the waiting client. On a nack carrying a higher promise
// it backs down.
func handleLeaderAcceptResponse(agent PaxosAgent, j Journal, d host.Deliverer, resp AcceptResponse, cfg Config, now clock.Tick) (PaxosAgent, []Message, []ClientReply, error) {
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
			newAgent, replies := backdown(PaxosAgent{NodeId: agent.NodeId, Role: Leader, Data: data}, now, cfg)
			return newAgent, nil, replies, nil
		}
	}

	delete(data.AcceptResponses, resp.ID)

	newProgress, deliveredID, payload, err := deliverSlot(j, d, data.Progress, resp.ID.Slot)
	if err != nil {
		agent.Data = data
		return agent, nil, nil, err
	}
	data.Progress = newProgress

	var replies []ClientReply
	if reply, owned := replyIfOwned(&data, deliveredID, payload, nil); owned {
		replies = append(replies, reply)
	}

	agent.Data = data
	return agent, []Message{Commit{ID: resp.ID}}, replies, nil
}

// handleLeaderTick broadcasts a heartbeat once per HeartbeatPeriod and
// rebroadcasts any client accept whose individual timeout has elapsed.
func handleLeaderTick(agent PaxosAgent, cfg Config, now clock.Tick) (PaxosAgent, []Message) {
	data := agent.Data
	var out []Message

	if now >= data.Timeout {
		data.LeaderHeartbeat++
		out = append(out, Heartbeat{From: agent.NodeId, Counter: data.LeaderHeartbeat})
		data.Timeout = now + clock.Tick(cfg.HeartbeatPeriod().Milliseconds())
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
