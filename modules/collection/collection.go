package collection

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akyoto/cache"
	"github.com/lkarlslund/stixgraph/modules/stix"
)

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrNoIdentifier   = errors.New("object has no identifier")
)

const neighborCacheTTL = time.Second * 30

// Shared by all collections, entries are keyed by collection serial and generation
var (
	neighborCache    = cache.New(neighborCacheTTL)
	collectionSerial atomic.Uint64
)

// Collection is an in-memory STIX object graph. Objects are indexed by id and
// relationships by both endpoints. Safe for concurrent use.
type Collection struct {
	objects  map[stix.Id]stix.Object
	outgoing map[stix.Id][]*stix.Relationship
	incoming map[stix.Id][]*stix.Relationship

	relationshipCount int
	serial            uint64
	generation        uint64
	mutex             sync.RWMutex
}

func New() *Collection {
	return &Collection{
		objects:       make(map[stix.Id]stix.Object),
		outgoing:      make(map[stix.Id][]*stix.Relationship),
		incoming:      make(map[stix.Id][]*stix.Relationship),
		serial:        collectionSerial.Add(1),
	}
}

// Add inserts an object. If an object with the same id exists, the most recently
// modified version wins. Returns true if o was stored.
func (c *Collection) Add(o stix.Object) (bool, error) {
	id := o.Common().ID
	if id.IsZero() {
		return false, ErrNoIdentifier
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if existing, found := c.objects[id]; found {
		if existing.Common().Modified.After(o.Common().Modified) {
			return false, nil
		}
		c.remove(id)
	}

	c.objects[id] = o
	if r, ok := o.(*stix.Relationship); ok {
		c.outgoing[r.SourceRef()] = append(c.outgoing[r.SourceRef()], r)
		c.incoming[r.TargetRef()] = append(c.incoming[r.TargetRef()], r)
		c.relationshipCount++
	}
	c.generation++
	return true, nil
}

func (c *Collection) AddAll(objects []stix.Object) (added int, err error) {
	for _, o := range objects {
		stored, adderr := c.Add(o)
		if adderr != nil {
			err = errors.Join(err, adderr)
			continue
		}
		if stored {
			added++
		}
	}
	return added, err
}

// Merge copies every object in other into c
func (c *Collection) Merge(other *Collection) {
	other.Iterate(func(o stix.Object) bool {
		c.Add(o)
		return true
	})
}

func (c *Collection) Remove(id stix.Id) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if _, found := c.objects[id]; !found {
		return ErrObjectNotFound
	}
	c.remove(id)
	c.generation++
	return nil
}

// caller holds the write lock
func (c *Collection) remove(id stix.Id) {
	o := c.objects[id]
	delete(c.objects, id)
	r, ok := o.(*stix.Relationship)
	if !ok {
		return
	}
	c.outgoing[r.SourceRef()] = without(c.outgoing[r.SourceRef()], r)
	if len(c.outgoing[r.SourceRef()]) == 0 {
		delete(c.outgoing, r.SourceRef())
	}
	c.incoming[r.TargetRef()] = without(c.incoming[r.TargetRef()], r)
	if len(c.incoming[r.TargetRef()]) == 0 {
		delete(c.incoming, r.TargetRef())
	}
	c.relationshipCount--
}

func without(rels []*stix.Relationship, r *stix.Relationship) []*stix.Relationship {
	for i, candidate := range rels {
		if candidate == r {
			return append(rels[:i:i], rels[i+1:]...)
		}
	}
	return rels
}

func (c *Collection) Get(id stix.Id) (stix.Object, bool) {
	c.mutex.RLock()
	o, found := c.objects[id]
	c.mutex.RUnlock()
	return o, found
}

// Lookup returns the object with the given id if it is of kind T
func Lookup[T any, PT interface {
	*T
	stix.Object
}](c *Collection, id stix.Id) (*T, bool) {
	o, found := c.Get(id)
	if !found {
		return nil, false
	}
	pt, ok := o.(PT)
	return (*T)(pt), ok
}

func (c *Collection) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.objects)
}

func (c *Collection) RelationshipCount() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.relationshipCount
}

// Iterate calls f for every object until f returns false. The order is undefined.
func (c *Collection) Iterate(f func(o stix.Object) bool) {
	c.mutex.RLock()
	objects := make([]stix.Object, 0, len(c.objects))
	for _, o := range c.objects {
		objects = append(objects, o)
	}
	c.mutex.RUnlock()

	for _, o := range objects {
		if !f(o) {
			return
		}
	}
}

// Relationships returns the relationships incident to anchor in the given direction
func (c *Collection) Relationships(anchor stix.Id, direction stix.EdgeDirection) []stix.Relationship {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.relationships(anchor, direction)
}

func (c *Collection) relationships(anchor stix.Id, direction stix.EdgeDirection) []stix.Relationship {
	index := c.outgoing
	if direction == stix.In {
		index = c.incoming
	}
	rels := index[anchor]
	result := make([]stix.Relationship, len(rels))
	for i, r := range rels {
		result[i] = *r
	}
	return result
}

// Dangling returns relationships where at least one endpoint is not in the collection
func (c *Collection) Dangling() []stix.Relationship {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	var result []stix.Relationship
	for _, rels := range c.outgoing {
		for _, r := range rels {
			_, sourcefound := c.objects[r.SourceRef()]
			_, targetfound := c.objects[r.TargetRef()]
			if !sourcefound || !targetfound {
				result = append(result, *r)
			}
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Common().ID < result[j].Common().ID
	})
	return result
}

type Statistics struct {
	Objects       map[string]int `json:"objects"`
	Relationships map[string]int `json:"relationships"`
	Dangling      int            `json:"dangling"`
}

func (c *Collection) Statistics() Statistics {
	stats := Statistics{
		Objects:       make(map[string]int),
		Relationships: make(map[string]int),
	}
	c.Iterate(func(o stix.Object) bool {
		stats.Objects[o.ObjectType()]++
		if r, ok := o.(*stix.Relationship); ok {
			stats.Relationships[r.RelationshipType().String()]++
		}
		return true
	})
	stats.Dangling = len(c.Dangling())
	return stats
}
