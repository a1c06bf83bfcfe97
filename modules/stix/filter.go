package stix

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownMatchMode = errors.New("unknown match mode")

// Filter selects relationships incident to an anchor node. The anchor itself is not
// part of the filter, it is implied by which relationships the caller tests.
type Filter struct {
	Direction        EdgeDirection
	RelationshipType RelationshipType
	PeerType         string
}

// Outgoing matches relationships where the anchor is the source and the target is a Peer
func Outgoing[Peer TypedObject](relationshipType RelationshipType) Filter {
	return Filter{
		Direction:        Out,
		RelationshipType: relationshipType,
		PeerType:         TypeName[Peer](),
	}
}

// Incoming matches relationships where the anchor is the target and the source is a Peer
func Incoming[Peer TypedObject](relationshipType RelationshipType) Filter {
	return Filter{
		Direction:        In,
		RelationshipType: relationshipType,
		PeerType:         TypeName[Peer](),
	}
}

// NewFilter is for callers that only know the peer type by name
func NewFilter(direction EdgeDirection, relationshipType RelationshipType, peerType string) Filter {
	return Filter{
		Direction:        direction,
		RelationshipType: relationshipType,
		PeerType:         peerType,
	}
}

// Peer returns the endpoint of r opposite the anchor
func (f Filter) Peer(r Relationship) Id {
	if f.Direction == In {
		return r.SourceRef()
	}
	return r.TargetRef()
}

// Matches only compares the peer's type tag. The relationship type of r is not
// checked, callers using this must have selected relationships by type already.
func (f Filter) Matches(r Relationship) bool {
	return f.Peer(r).ObjectType() == f.PeerType
}

// MatchesStrict is Matches plus an exact relationship type check
func (f Filter) MatchesStrict(r Relationship) bool {
	return r.RelationshipType() == f.RelationshipType && f.Matches(r)
}

// Match dispatches to Matches or MatchesStrict
func (f Filter) Match(r Relationship, mode MatchMode) bool {
	if mode == MatchPeerTypeOnly {
		return f.Matches(r)
	}
	return f.MatchesStrict(r)
}

// String returns the form accepted by ParseFilter
func (f Filter) String() string {
	direction := "out"
	if f.Direction == In {
		direction = "in"
	}
	return direction + ":" + f.RelationshipType.String() + ":" + f.PeerType
}

type MatchMode byte

const (
	MatchStrict MatchMode = iota
	MatchPeerTypeOnly
)

func (mm MatchMode) String() string {
	switch mm {
	case MatchStrict:
		return "strict"
	case MatchPeerTypeOnly:
		return "literal"
	}
	return fmt.Sprintf("MatchMode(%d)", mm)
}

func ParseMatchMode(s string) (MatchMode, error) {
	switch s {
	case "strict", "":
		return MatchStrict, nil
	case "literal", "peer":
		return MatchPeerTypeOnly, nil
	}
	return MatchStrict, fmt.Errorf("%w: %q", ErrUnknownMatchMode, s)
}

// ParseFilter reads the compact form direction:relationship-type:peer-type, e.g. "in:mitigates:course-of-action"
func ParseFilter(s string) (Filter, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Filter{}, fmt.Errorf("filter %q should be direction:relationship-type:peer-type", s)
	}
	direction, err := ParseEdgeDirection(parts[0])
	if err != nil {
		return Filter{}, err
	}
	rt, err := ParseRelationshipType(parts[1])
	if err != nil {
		return Filter{}, err
	}
	if parts[2] == "" {
		return Filter{}, fmt.Errorf("filter %q has no peer type", s)
	}
	return NewFilter(direction, rt, parts[2]), nil
}
