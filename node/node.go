// Package node defines the identifiers nodes use to address each other and
// to break ties in ballot ordering.
package node

import "fmt"

// NodeId is a small integer, unique per cluster member and stable across
// restarts. It's the tie-breaker in ballot ordering, so two nodes must never
// share one.
type NodeId int32

func (id NodeId) String() string {
	return fmt.Sprintf("n%d", int32(id))
}
