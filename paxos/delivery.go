package paxos

import (
	"github.com/fspore/trex/host"
)

// errMembershipNotImplemented is the explicit unimplemented path §9 calls
// for: MembershipChange delivery throws in the source this core is modeled
// on, and nothing in this core's scope defines what it should do instead.
type errMembershipNotImplemented struct{ ID Identifier }

func (e errMembershipNotImplemented) Error() string {
	return "paxos: membership change delivery not yet implemented, slot " + e.ID.String()
}

// deliverSlot performs the five-step order of §4.5 for exactly one slot:
// load the Accept, apply side effects if it's a ClientCommand, persist the
// advanced Progress only after deliver completes, and hand back whatever a
// caller needs to reply to an owning client. It never reorders steps 3 and
// 4 — a crash between them is made survivable by deliverClient's own
// dedupe on DeliveryID, never by reordering.
func deliverSlot(j Journal, d host.Deliverer, progress Progress, slot SlotIndex) (Progress, Identifier, []byte, error) {
	accept, ok, err := j.Accepted(slot)
	if err != nil {
		return progress, Identifier{}, nil, JournalFailureError{Err: err}
	}
	if !ok {
		return progress, Identifier{}, nil, MissingAcceptError{Slot: slot}
	}

	payload, err := deliverValue(d, accept.ID, accept.Value)
	if err != nil {
		return progress, accept.ID, nil, err
	}

	newProgress := Progress{
		HighestPromised:  progress.HighestPromised,
		HighestCommitted: accept.ID,
	}
	if err := j.SaveProgress(newProgress); err != nil {
		return progress, accept.ID, nil, JournalFailureError{Err: err}
	}
	return newProgress, accept.ID, payload, nil
}

// deliverValue applies accept's value against the host, the shared core of
// both deliverSlot (which loads the Accept from the journal first) and the
// retransmit response applier (which already has the Accept in hand).
func deliverValue(d host.Deliverer, id Identifier, value Value) ([]byte, error) {
	switch v := value.(type) {
	case NoOp:
		return nil, nil
	case ClientCommand:
		return d.DeliverClient(host.Payload{Bytes: v.Payload, DeliveryID: int64(id.Slot)})
	case MembershipChange:
		return nil, errMembershipNotImplemented{ID: id}
	default:
		return nil, nil
	}
}

// replyIfOwned pops id's ClientCommands entry, if this replica holds one
// (it was the Leader that drove the command), and returns the reply to
// send. Step 5 of §4.5.
func replyIfOwned(data *PaxosData, id Identifier, payload []byte, deliverErr error) (ClientReply, bool) {
	entry, ok := data.ClientCommands[id]
	if !ok {
		return ClientReply{}, false
	}
	delete(data.ClientCommands, id)
	return ClientReply{Reply: entry.Reply, Payload: payload, Err: deliverErr}, true
}

// deliverContiguousFrom delivers every contiguously-accepted slot starting
// at progress.HighestCommitted.Slot+1, stopping at upTo (inclusive) or at
// the first journal gap, whichever comes first. It returns the advanced
// Progress, the replies for any client commands this replica owned, and
// whether it stalled before reaching upTo (a gap, meaning the caller should
// retransmit-request the remainder).
func deliverContiguousFrom(j Journal, d host.Deliverer, data *PaxosData, upTo SlotIndex) (stalled bool, replies []ClientReply, err error) {
	progress := data.Progress
	for slot := progress.HighestCommitted.Slot + 1; slot <= upTo; slot++ {
		if _, ok, berr := j.Accepted(slot); berr != nil {
			return false, replies, JournalFailureError{Err: berr}
		} else if !ok {
			return true, replies, nil
		}
		newProgress, id, payload, derr := deliverSlot(j, d, progress, slot)
		if derr != nil {
			if _, isMissing := derr.(MissingAcceptError); isMissing {
				return true, replies, nil
			}
			return false, replies, derr
		}
		progress = newProgress
		data.Progress = progress
		if reply, owned := replyIfOwned(data, id, payload, nil); owned {
			replies = append(replies, reply)
		}
	}
	data.Progress = progress
	return false, replies, nil
}
