package paxos

// ValueKind distinguishes the Value variants a slot can hold.
type ValueKind int

const (
	KindNoOp ValueKind = iota
	KindClientCommand
	KindMembershipChange
)

// Value is the opaque thing a slot commits to. The core never interprets a
// ClientCommand's payload; that's the host's job (host.Deliverer).
type Value interface {
	Kind() ValueKind
}

// NoOp is committed to a slot when a Recoverer can't determine any prior
// value was proposed there.
type NoOp struct{}

func (NoOp) Kind() ValueKind { return KindNoOp }

// ClientCommand carries one client request through to delivery.
// ClientMsgID is the id the host uses to reply to the right client and to
// dedupe re-delivery (see host.Payload.DeliveryID, which uses the slot
// instead, since slots - unlike client message ids - are guaranteed unique
// per chosen value).
type ClientCommand struct {
	ClientMsgID string
	Payload     []byte
}

func (ClientCommand) Kind() ValueKind { return KindClientCommand }

// MembershipChange is out of scope (dynamic membership reconfiguration is a
// Non-goal); its body is opaque and delivery of it is unimplemented.
type MembershipChange struct {
	Body []byte
}

func (MembershipChange) Kind() ValueKind { return KindMembershipChange }
