package paxos

// RouteKind is the dispatcher's classification of one outbound message
// (§4.7 step 3).
type RouteKind int

const (
	RouteBroadcast RouteKind = iota
	RouteDirect
)

// classifyRoute says whether kind is answered directly to the sender of
// the triggering message or broadcast to the whole cluster. The handler
// that produced the message never has to say which; the dispatcher derives
// it purely from message shape, matching the exhaustive match §9 calls for
// on (role × messageKind).
func classifyRoute(kind MessageKind) RouteKind {
	switch kind {
	case KindRetransmitRequest, KindRetransmitResponse, KindAcceptResponse, KindPrepareResponse, KindNotLeader:
		return RouteDirect
	default:
		return RouteBroadcast
	}
}
