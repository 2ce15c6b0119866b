package paxos

import (
	"time"

	logging "github.com/op/go-logging"

	"github.com/fspore/trex/clock"
	"github.com/fspore/trex/host"
	"github.com/fspore/trex/metrics"
	"github.com/fspore/trex/node"
	"github.com/fspore/trex/transport"
)

var logger *logging.Logger

func init() {
	logger = logging.MustGetLogger("paxos")
}

// Dispatcher is the single-threaded cooperative event pump of §4.7. It
// owns the one PaxosAgent value for this replica; every exported method is
// one event through the pump: build an event against the current agent,
// invoke the role-specific handler, route the resulting messages, then
// atomically replace the agent. It is grounded on the teacher's Manager
// (consensus/manager_prepare.go) — a long-lived owner of one mutable
// per-instance state value, with statsd counters and timings bracketing
// each event. It holds no lock: nothing in it stops two events from being
// processed at once if its methods are called from several goroutines.
type Dispatcher struct {
	self      node.NodeId
	agent     PaxosAgent
	journal   Journal
	transport transport.Transport
	deliverer host.Deliverer
	cluster   host.ClusterSizer
	clk       clock.Clock
	cfg       Config
	stats     metrics.Sink
	onReply   func(ClientReply)
}

// OnClientReply registers the callback the dispatcher invokes for every
// ClientReply a handler produces (a commit delivered, or a LostLeadership
// from backdown). The core has no notion of how to address a client beyond
// the opaque ReplyAddress it's handed back here; resolving that address to
// an actual client connection is the host's job.
func (disp *Dispatcher) OnClientReply(fn func(ClientReply)) {
	disp.onReply = fn
}

// NewDispatcher boots a replica's dispatcher: loads Progress from the
// journal, starts as Follower with an already-scheduled first timeout.
func NewDispatcher(self node.NodeId, j Journal, tr transport.Transport, d host.Deliverer, cluster host.ClusterSizer, clk clock.Clock, cfg Config, stats metrics.Sink) (*Dispatcher, error) {
	progress, err := j.LoadProgress()
	if err != nil {
		return nil, JournalFailureError{Err: err}
	}
	now := clk.Now()
	firstTimeout := randomTimeout(now, cfg.LeaderTimeoutMin, cfg.LeaderTimeoutMax)
	agent := NewAgent(self, progress, cluster.ClusterSize(), firstTimeout)
	return &Dispatcher{
		self:      self,
		agent:     agent,
		journal:   j,
		transport: tr,
		deliverer: d,
		cluster:   cluster,
		clk:       clk,
		cfg:       cfg,
		stats:     stats,
	}, nil
}

// Agent exposes the current agent value, read-only, mostly for tests and
// introspection (cmd/demo uses it to find the Leader).
func (disp *Dispatcher) Agent() PaxosAgent {
	return disp.agent
}

// currentBallot is the ballot this replica compares an incoming Prepare's
// or Accept's number against to decide whether to back down: the promise
// already on record for a Follower, or the epoch it promoted itself to
// otherwise.
func currentBallot(agent PaxosAgent) BallotNumber {
	if agent.Epoch() != nil {
		return *agent.Epoch()
	}
	return agent.Data.Progress.HighestPromised
}

// Epoch is a small accessor so currentBallot reads naturally above; it
// lives on PaxosAgent itself since Epoch belongs to the data, not the
// dispatcher.
func (a PaxosAgent) Epoch() *BallotNumber {
	return a.Data.Epoch
}

// HandleMessage is the dispatcher's entry point for a message arriving
// from the transport. from is the triggering message's sender, used to
// resolve RouteDirect targets.
func (disp *Dispatcher) HandleMessage(from node.NodeId, msg Message) {
	kind := "dispatcher.message." + kindName(msg.Kind())
	disp.stats.Inc(kind, 1)
	defer disp.timeSince(kind, time.Now())

	newAgent, out, replies, err := disp.route(from, msg)
	disp.finish(newAgent, out, replies, err, from)
}

// HandleTick is the dispatcher's entry point for a timer tick.
func (disp *Dispatcher) HandleTick() {
	disp.stats.Inc("dispatcher.tick", 1)
	defer disp.timeSince("dispatcher.tick", time.Now())
	now := disp.clk.Now()
	var out []Message
	agent := disp.agent

	switch agent.Role {
	case Follower:
		agent, out = handleFollowerTick(agent, disp.cfg, now)
	case Recoverer:
		agent, out = handleRecovererTick(agent, now, disp.cfg)
	case Leader:
		agent, out = handleLeaderTick(agent, disp.cfg, now)
	}

	disp.finish(agent, out, nil, nil, disp.self)
}

// HandleClientCommand is the dispatcher's entry point for a client request.
// If this replica isn't Leader, the client is told so directly rather than
// silently dropped.
func (disp *Dispatcher) HandleClientCommand(value Value, reply transport.ReplyAddress, clientMsgID string) {
	disp.stats.Inc("dispatcher.client.command", 1)
	defer disp.timeSince("dispatcher.client.command", time.Now())

	if disp.agent.Role != Leader {
		if disp.onReply != nil {
			disp.onReply(ClientReply{Reply: reply, Err: NotLeaderError{ClientMsgID: clientMsgID}})
		}
		return
	}

	now := disp.clk.Now()
	newAgent, out, err := handleLeaderClientCommand(disp.agent, disp.journal, value, reply, disp.cfg, now)
	disp.finish(newAgent, out, nil, err, disp.self)
}

// timeSince reports how long one dispatcher event took to process, the way
// the teacher's Manager/Scope bracket every phase with m.statsTiming.
func (disp *Dispatcher) timeSince(name string, start time.Time) {
	disp.stats.Timing(name+".duration", time.Since(start))
}

// route dispatches one inbound message to the appropriate role handler,
// applying the role-independent acceptor logic (§4.2) and the higher-ballot
// backdown rule (§4.3, §4.4) uniformly first where the message kind calls
// for it.
func (disp *Dispatcher) route(from node.NodeId, msg Message) (PaxosAgent, []Message, []ClientReply, error) {
	agent := disp.agent
	now := disp.clk.Now()

	switch m := msg.(type) {
	case Prepare:
		var backdownReplies []ClientReply
		if agent.Role != Follower && m.ID.Number.Greater(currentBallot(agent)) {
			logger.Infof("%v", PromiseViolationError{Have: m.ID.Number, Want: currentBallot(agent)})
			agent, backdownReplies = backdown(agent, now, disp.cfg)
		}
		data, resp, err := acceptorHandlePrepare(agent.Data, disp.journal, agent, m)
		agent.Data = data
		if err != nil {
			return agent, nil, backdownReplies, err
		}
		return agent, []Message{resp}, backdownReplies, nil

	case AcceptMsg:
		var backdownReplies []ClientReply
		if agent.Role != Follower && m.Accept.ID.Number.Greater(currentBallot(agent)) {
			logger.Infof("%v", PromiseViolationError{Have: m.Accept.ID.Number, Want: currentBallot(agent)})
			agent, backdownReplies = backdown(agent, now, disp.cfg)
		}
		data, resp, err := acceptorHandleAccept(agent.Data, disp.journal, agent, m)
		agent.Data = data
		if err != nil {
			return agent, nil, backdownReplies, err
		}
		return agent, []Message{resp}, backdownReplies, nil

	case PrepareResponse:
		switch agent.Role {
		case Follower:
			return handleFollowerPrepareResponse(agent, disp.journal, m, disp.cfg, now)
		case Recoverer:
			return handleRecovererPrepareResponse(agent, disp.journal, m, disp.cfg, now)
		default:
			return agent, nil, nil, nil
		}

	case AcceptResponse:
		switch agent.Role {
		case Recoverer:
			return handleRecovererAcceptResponse(agent, disp.journal, disp.deliverer, m, disp.cfg, now)
		case Leader:
			return handleLeaderAcceptResponse(agent, disp.journal, disp.deliverer, m, disp.cfg, now)
		default:
			return agent, nil, nil, nil
		}

	case Commit:
		if agent.Role != Follower {
			if m.ID.Number.Greater(currentBallot(agent)) {
				logger.Infof("%v", PromiseViolationError{Have: m.ID.Number, Want: currentBallot(agent)})
				newAgent, replies := backdown(agent, now, disp.cfg)
				return newAgent, nil, replies, nil
			}
			return agent, nil, nil, nil
		}
		return handleFollowerCommit(agent, disp.journal, disp.deliverer, m)

	case Heartbeat:
		return handleHeartbeat(agent, m, disp.cfg, now), nil, nil, nil

	case RetransmitRequest:
		resp, err := BuildRetransmitResponse(disp.journal, disp.self, m.From, agent.Data.Progress.HighestCommitted.Slot, m.FromSlot)
		if err != nil {
			return agent, nil, nil, err
		}
		if resp == nil {
			return agent, nil, nil, nil
		}
		return agent, []Message{*resp}, nil, nil

	case RetransmitResponse:
		newAgent, replies, err := ApplyRetransmitResponse(agent, disp.journal, disp.deliverer, m)
		return newAgent, nil, replies, err

	case NotLeader:
		return agent, nil, nil, nil

	default:
		logger.Errorf("unknown message: %v", msg)
		return agent, nil, nil, UnknownMessageError{Msg: msg}
	}
}

// finish applies routing classification to out, sends each message, delivers
// client replies, and atomically swaps in newAgent. JournalFailureError and
// MissingAcceptError are the error kinds that propagate further, as a
// panic: §7 makes both fatal for the replica.
func (disp *Dispatcher) finish(newAgent PaxosAgent, out []Message, replies []ClientReply, err error, triggerFrom node.NodeId) {
	// The agent is swapped in before anything is sent: a synchronous
	// transport (transport.Memory) delivers a broadcast by calling back
	// into this same dispatcher before Send/Broadcast returns, so a
	// nested HandleMessage must see this event's outcome, not the state
	// it started from.
	disp.agent = newAgent

	for _, msg := range out {
		switch classifyRoute(msg.Kind()) {
		case RouteDirect:
			if sendErr := disp.transport.Send(triggerFrom, msg); sendErr != nil {
				logger.Warningf("transient send failure to %v: %v", triggerFrom, sendErr)
			}
		case RouteBroadcast:
			if sendErr := disp.transport.Broadcast(msg); sendErr != nil {
				logger.Warningf("transient broadcast failure: %v", sendErr)
			}
		}
	}

	if disp.onReply != nil {
		for _, r := range replies {
			disp.onReply(r)
		}
	}

	if err != nil {
		if jf, ok := err.(JournalFailureError); ok {
			logger.Errorf("fatal journal failure, replica aborting: %v", jf)
			panic(jf)
		}
		if _, ok := err.(MissingAcceptError); ok {
			logger.Errorf("fatal missing accept, replica aborting: %v", err)
			panic(err)
		}
		logger.Errorf("event error: %v", err)
	}
}

func kindName(k MessageKind) string {
	switch k {
	case KindPrepare:
		return "prepare"
	case KindPrepareResponse:
		return "prepare_response"
	case KindAcceptMsg:
		return "accept"
	case KindAcceptResponse:
		return "accept_response"
	case KindCommit:
		return "commit"
	case KindHeartbeat:
		return "heartbeat"
	case KindRetransmitRequest:
		return "retransmit_request"
	case KindRetransmitResponse:
		return "retransmit_response"
	case KindNotLeader:
		return "not_leader"
	default:
		return "unknown"
	}
}
