// Package transport defines the message-delivery contract the consensus
// core consumes. The transport itself — sockets, actor mailboxes, RPC — is
// out of scope; this package only fixes the interface shape, the way the
// teacher's cluster package fixes Node.SendMessage without caring how bytes
// actually move.
package transport

import "github.com/fspore/trex/node"

// ReplyAddress is an opaque token the transport resolves back to a client.
// The core never inspects it; it only stores and echoes it back at reply
// time (see paxos.ClientCommandEntry and paxos.ClientReply).
type ReplyAddress interface{}

// Transport is what the dispatcher uses to emit messages. Send targets one
// node directly; Broadcast reaches every cluster member. Implementations
// must preserve FIFO order per (source, destination) pair (§5); reordering
// across different destination pairs is tolerated by the algorithm.
type Transport interface {
	Send(to node.NodeId, msg interface{}) error
	Broadcast(msg interface{}) error
}

// ErrUnknownNode is returned by Send when the destination isn't a member of
// the transport's address book.
type ErrUnknownNode struct {
	NodeId node.NodeId
}

func (e ErrUnknownNode) Error() string {
	return "transport: unknown node " + e.NodeId.String()
}
