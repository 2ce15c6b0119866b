package paxos

import (
	"github.com/fspore/trex/clock"
	"github.com/fspore/trex/host"
	"github.com/fspore/trex/node"
	"github.com/fspore/trex/transport"
)

// ClientReply is what a handler hands back when a client command resolves:
// the delivered result of a committed command, or a LostLeadership reply
// emitted by backdown.
type ClientReply struct {
	Reply   transport.ReplyAddress
	Payload []byte
	Err     error
}

// backdown is the reusable transition of §4.8: role becomes Follower, every
// outstanding vote is discarded, every outstanding client command is failed
// with LostLeadership, and a fresh randomized timeout is scheduled.
// leaderHeartbeat survives unchanged — it's evidence about the cluster, not
// about this replica's own role.
func backdown(agent PaxosAgent, now clock.Tick, cfg Config) (PaxosAgent, []ClientReply) {
	replies := make([]ClientReply, 0, len(agent.Data.ClientCommands))
	for id, entry := range agent.Data.ClientCommands {
		var err error
		if cmd, ok := entry.Value.(ClientCommand); ok {
			err = host.LostLeadershipError{ClientMsgID: cmd.ClientMsgID}
		} else {
			err = host.LostLeadershipError{ClientMsgID: id.String()}
		}
		replies = append(replies, ClientReply{Reply: entry.Reply, Err: err})
	}

	data := agent.Data
	data.PrepareResponses = make(map[Identifier]map[node.NodeId]PrepareResponse)
	data.AcceptResponses = make(map[Identifier]AcceptResponsesAndTimeout)
	data.ClientCommands = make(map[Identifier]ClientCommandEntry)
	data.Epoch = nil
	data.Timeout = randomTimeout(now, cfg.LeaderTimeoutMin, cfg.LeaderTimeoutMax)

	return PaxosAgent{NodeId: agent.NodeId, Role: Follower, Data: data}, replies
}
