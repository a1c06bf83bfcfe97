package collection

import (
	"slices"

	"github.com/gammazero/deque"
	"github.com/lkarlslund/stixgraph/modules/stix"
)

type Neighbor struct {
	Relationship stix.Relationship
	Peer         stix.Id
	// nil when the peer is not in the collection
	Object stix.Object
}

type neighborKey struct {
	collection uint64
	anchor     stix.Id
	filter     stix.Filter
	mode       stix.MatchMode
	generation uint64
}

// Neighbors returns the peers of anchor over relationships accepted by filter.
// The result is a fresh slice the caller owns.
func (c *Collection) Neighbors(anchor stix.Id, filter stix.Filter, mode stix.MatchMode) []Neighbor {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	key := neighborKey{c.serial, anchor, filter, mode, c.generation}
	if cached, found := neighborCache.Get(key); found {
		return slices.Clone(cached.([]Neighbor))
	}

	var result []Neighbor
	for _, r := range c.relationships(anchor, filter.Direction) {
		if !filter.Match(r, mode) {
			continue
		}
		peer := filter.Peer(r)
		result = append(result, Neighbor{
			Relationship: r,
			Peer:         peer,
			Object:       c.objects[peer],
		})
	}
	neighborCache.Set(key, result, neighborCacheTTL)
	return slices.Clone(result)
}

// NeighborsOf is Neighbors restricted to peers present in the collection and of kind T
func NeighborsOf[T any, PT interface {
	*T
	stix.Object
}](c *Collection, anchor stix.Id, filter stix.Filter, mode stix.MatchMode) []*T {
	var result []*T
	for _, n := range c.Neighbors(anchor, filter, mode) {
		if pt, ok := n.Object.(PT); ok {
			result = append(result, (*T)(pt))
		}
	}
	return result
}

type WalkStep struct {
	Neighbor
	From  stix.Id
	Depth int
}

// Walk does a breadth first traversal from start, following any relationship accepted
// by one of the filters. Every reachable node is visited once. A maxDepth of 0 or
// less means no limit. Returning false from f stops the walk.
func (c *Collection) Walk(start stix.Id, filters []stix.Filter, mode stix.MatchMode, maxDepth int, f func(step WalkStep) bool) {
	type queued struct {
		id    stix.Id
		depth int
	}

	var queue deque.Deque[queued]
	visited := map[stix.Id]struct{}{start: {}}
	queue.PushBack(queued{start, 0})

	for queue.Len() > 0 {
		current := queue.PopFront()
		if maxDepth > 0 && current.depth >= maxDepth {
			continue
		}
		for _, filter := range filters {
			for _, n := range c.Neighbors(current.id, filter, mode) {
				if _, seen := visited[n.Peer]; seen {
					continue
				}
				visited[n.Peer] = struct{}{}
				if !f(WalkStep{Neighbor: n, From: current.id, Depth: current.depth + 1}) {
					return
				}
				queue.PushBack(queued{n.Peer, current.depth + 1})
			}
		}
	}
}
