package paxos

import "fmt"

// PromiseViolationError records a backdown trigger: a handler observed a
// ballot (Have) higher than the one this replica is working under (Want).
// Per §7 it is never fatal: the caller backs down.
type PromiseViolationError struct {
	Have BallotNumber
	Want BallotNumber
}

func (e PromiseViolationError) Error() string {
	return fmt.Sprintf("paxos: promise violation, have %v want > %v", e.Have, e.Want)
}

// JournalFailureError wraps any error the journal returned while handling
// an event. Per §7 this is fatal for the replica; the dispatcher must abort
// rather than proceed with a journal it can no longer trust.
type JournalFailureError struct {
	Err error
}

func (e JournalFailureError) Error() string {
	return "paxos: journal failure: " + e.Err.Error()
}

func (e JournalFailureError) Unwrap() error { return e.Err }

// MissingAcceptError is raised when the journal's bounds claim a slot is
// accepted but Accepted(slot) returns nothing for it. Per §7 this indicates
// journal corruption and is fatal.
type MissingAcceptError struct {
	Slot SlotIndex
}

func (e MissingAcceptError) Error() string {
	return fmt.Sprintf("paxos: missing accept at slot %d, journal corrupt", e.Slot)
}

// NotLeaderError is the reply a client gets for addressing a command to a
// replica that isn't Leader.
type NotLeaderError struct {
	ClientMsgID string
}

func (e NotLeaderError) Error() string {
	return "paxos: not leader, mis-routed command " + e.ClientMsgID
}

// UnknownMessageError is logged at error and discarded; it never aborts the
// dispatcher.
type UnknownMessageError struct {
	Msg Message
}

func (e UnknownMessageError) Error() string {
	return fmt.Sprintf("paxos: unknown message kind %v", e.Msg.Kind())
}
