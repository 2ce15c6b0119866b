package transport

import (
	"sync"

	"github.com/fspore/trex/node"
)

// Handler is how a registered node receives a message delivered by the
// Network. It mirrors the dispatcher's event-pump entry point (§4.7): the
// core hands the network a closure that feeds its own dispatcher.
type Handler func(from node.NodeId, msg interface{})

// Network is an in-process, single-address-space Transport used by tests
// and cmd/demo, grounded on the teacher's cluster node registry (a shared
// map of node id -> addressable peer) and the pack's convention of a shared
// "Network" registry object that hands each node its own Memory handle.
//
// Delivery is synchronous: Send/Broadcast call the destination's Handler
// directly on the caller's goroutine. That's deliberate — §5 requires
// transport sends to be synchronous with respect to the dispatcher (or the
// dispatcher must not accept its next event until the send completes), and
// synchronous in-process delivery is the simplest implementation satisfying
// that for tests.
type Network struct {
	mu       sync.RWMutex
	handlers map[node.NodeId]Handler
}

func NewNetwork() *Network {
	return &Network{handlers: make(map[node.NodeId]Handler)}
}

// Register wires a node's handler into the network and returns a Transport
// bound to that node's identity (used as the "From" on every send).
func (n *Network) Register(id node.NodeId, h Handler) *Memory {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[id] = h
	return &Memory{self: id, network: n}
}

// Unregister removes a node from the network, simulating a permanent
// partition/shutdown: further sends to it silently fail (TransientTransport,
// per §7 — dropped messages are not errors the dispatcher need act on).
func (n *Network) Unregister(id node.NodeId) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.handlers, id)
}

func (n *Network) members() []node.NodeId {
	n.mu.RLock()
	defer n.mu.RUnlock()
	ids := make([]node.NodeId, 0, len(n.handlers))
	for id := range n.handlers {
		ids = append(ids, id)
	}
	return ids
}

func (n *Network) deliver(to node.NodeId, from node.NodeId, msg interface{}) error {
	n.mu.RLock()
	h, ok := n.handlers[to]
	n.mu.RUnlock()
	if !ok {
		return ErrUnknownNode{NodeId: to}
	}
	h(from, msg)
	return nil
}

// Memory is the per-node Transport handle bound to a Network.
type Memory struct {
	self    node.NodeId
	network *Network
}

func (m *Memory) Send(to node.NodeId, msg interface{}) error {
	return m.network.deliver(to, m.self, msg)
}

// Broadcast reaches every other registered member. Self-loopback is not
// performed: per the uniform policy adopted in DESIGN.md, handlers that
// broadcast also record their own vote directly, so looping the broadcast
// back to the sender would double-count it.
func (m *Memory) Broadcast(msg interface{}) error {
	for _, id := range m.network.members() {
		if id == m.self {
			continue
		}
		if err := m.network.deliver(id, m.self, msg); err != nil {
			return err
		}
	}
	return nil
}
