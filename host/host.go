// Package host defines the interfaces the consensus core consumes from its
// embedding application: cluster size, and the deterministic command
// executor ("deliver"). Both are out of scope for this repository's
// implementation — only their contract is fixed here, the way the journal's
// contract is fixed by paxos.Journal without prescribing a backend.
package host

import "github.com/google/uuid"

// NewClientMsgID mints a fresh client message id for a command about to be
// submitted. Collisions across the cluster's lifetime would let an old
// reply satisfy a new request, so this calls for a real UUID rather than a
// counter a host would need to coordinate.
func NewClientMsgID() string {
	return uuid.NewString()
}

// ClusterSizer reports the (possibly changing) number of cluster members.
// Dynamic membership reconfiguration is a Non-goal of the core itself; the
// core only ever reads the current size through this interface.
type ClusterSizer interface {
	ClusterSize() int
}

// Payload is what DeliverClient receives: the command bytes plus a dedupe
// id. DeliveryID is the slot a ClientCommand was committed to — stable
// across repeated delivery attempts after a crash between delivery and the
// following saveProgress (§4.5), so a host-side executor can recognize and
// skip a redelivery.
type Payload struct {
	Bytes      []byte
	DeliveryID int64
}

// Deliverer applies one ClientCommand's payload to host state and returns
// the bytes to reply to the client with. It must be deterministic and
// idempotent with respect to Payload.DeliveryID.
type Deliverer interface {
	DeliverClient(p Payload) ([]byte, error)
}

// LostLeadershipError is the error the core surfaces to a client whose
// command was outstanding on a Leader that backed down. The client must
// retry — possibly observing a duplicate via DeliveryID dedupe if the
// command had, in fact, already been chosen.
type LostLeadershipError struct {
	ClientMsgID string
}

func (e LostLeadershipError) Error() string {
	return "trex: lost leadership before " + e.ClientMsgID + " was committed"
}
