package paxos

import (
	"github.com/fspore/trex/host"
	"github.com/fspore/trex/node"
)

// BuildRetransmitRequest is the requester-side constructor: both
// handleFollowerPrepareResponse (falling behind a low-prepare responder)
// and handleFollowerCommit (a Commit announcing a slot this replica's
// journal can't yet fill) build their RetransmitRequest through it, kept
// as its own function for symmetry with the response builder/applier
// below.
func BuildRetransmitRequest(from, to node.NodeId, fromSlot SlotIndex) RetransmitRequest {
	return RetransmitRequest{From: from, To: to, FromSlot: fromSlot}
}

// BuildRetransmitResponse is the responder-side half of §4.6. A nil result
// with a nil error means "requester has fallen off retained history", the
// RetransmitOutOfRange case of §7: the caller does nothing further, since
// higher-level resync is out of scope.
func BuildRetransmitResponse(j Journal, self, requester node.NodeId, responderHighestCommitted, fromSlot SlotIndex) (*RetransmitResponse, error) {
	minSlot, maxSlot, err := j.Bounds()
	if err != nil {
		return nil, JournalFailureError{Err: err}
	}
	if fromSlot+1 < minSlot {
		return nil, nil
	}

	committedStart := fromSlot + 1
	if minSlot > committedStart {
		committedStart = minSlot
	}
	committedEnd := responderHighestCommitted
	if maxSlot < committedEnd {
		committedEnd = maxSlot
	}
	committed, err := collectAccepted(j, committedStart, committedEnd)
	if err != nil {
		return nil, err
	}

	uncommitted, err := collectAccepted(j, responderHighestCommitted+1, maxSlot)
	if err != nil {
		return nil, err
	}

	return &RetransmitResponse{
		From:        self,
		To:          requester,
		Committed:   committed,
		Uncommitted: uncommitted,
	}, nil
}

func collectAccepted(j Journal, from, to SlotIndex) ([]Accept, error) {
	var out []Accept
	for slot := from; slot <= to; slot++ {
		a, ok, err := j.Accepted(slot)
		if err != nil {
			return nil, JournalFailureError{Err: err}
		}
		if ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// contiguousCommittablePrefix returns the longest prefix of seq starting at
// currentSlot+1 with strictly increasing, gap-free slots. A misordered or
// skipped entry stops the prefix rather than being reordered — invariant 7.
func contiguousCommittablePrefix(currentSlot SlotIndex, seq []Accept) []Accept {
	expected := currentSlot + 1
	var prefix []Accept
	for _, a := range seq {
		if a.ID.Slot != expected {
			break
		}
		prefix = append(prefix, a)
		expected++
	}
	return prefix
}

// ApplyRetransmitResponse is the requester-side half of §4.6. The order is
// safety-critical and fixed: deliver the contiguous prefix, then
// saveProgress, then journal the acceptable remainder — in that order, and
// never reversed.
func ApplyRetransmitResponse(agent PaxosAgent, j Journal, d host.Deliverer, resp RetransmitResponse) (PaxosAgent, []ClientReply, error) {
	data := agent.Data
	progress := data.Progress

	prefix := contiguousCommittablePrefix(progress.HighestCommitted.Slot, resp.Committed)

	var replies []ClientReply
	highestCommitted := progress.HighestCommitted
	for _, a := range prefix {
		payload, err := deliverValue(d, a.ID, a.Value)
		if err != nil {
			return agent, replies, err
		}
		highestCommitted = a.ID
		if reply, owned := replyIfOwned(&data, a.ID, payload, nil); owned {
			replies = append(replies, reply)
		}
	}

	highestPromised := progress.HighestPromised
	all := make([]Accept, 0, len(resp.Committed)+len(resp.Uncommitted))
	all = append(all, resp.Committed...)
	all = append(all, resp.Uncommitted...)
	for _, a := range all {
		if a.ID.Number.Greater(highestPromised) {
			highestPromised = a.ID.Number
		}
	}

	newProgress := Progress{HighestPromised: highestPromised, HighestCommitted: highestCommitted}
	if err := j.SaveProgress(newProgress); err != nil {
		return agent, replies, JournalFailureError{Err: err}
	}
	data.Progress = newProgress

	var toJournal []Accept
	for _, a := range all {
		if !a.ID.Number.Less(newProgress.HighestPromised) {
			toJournal = append(toJournal, a)
		}
	}
	if len(toJournal) > 0 {
		if err := j.Accept(toJournal...); err != nil {
			agent.Data = data
			return agent, replies, JournalFailureError{Err: err}
		}
	}

	agent.Data = data
	return agent, replies, nil
}
