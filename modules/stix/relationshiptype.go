package stix

import (
	"errors"
	"fmt"
	"strconv"
)

var ErrUnknownRelationshipType = errors.New("unknown relationship type")

type RelationshipType byte

const (
	Mitigates RelationshipType = iota
	Uses
	RevokedBy
	SubtechniqueOf
)

// Canonical STIX spelling, used for both parsing and display
var relationshipTypeNames = [...]string{
	Mitigates:      "mitigates",
	Uses:           "uses",
	RevokedBy:      "revoked-by",
	SubtechniqueOf: "subtechnique-of",
}

var relationshipTypeLookup = func() map[string]RelationshipType {
	lookup := make(map[string]RelationshipType, len(relationshipTypeNames))
	for i, name := range relationshipTypeNames {
		lookup[name] = RelationshipType(i)
	}
	return lookup
}()

// ParseRelationshipType is case sensitive, "Uses" is not "uses"
func ParseRelationshipType(s string) (RelationshipType, error) {
	if rt, found := relationshipTypeLookup[s]; found {
		return rt, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRelationshipType, s)
}

func RelationshipTypes() []RelationshipType {
	result := make([]RelationshipType, len(relationshipTypeNames))
	for i := range relationshipTypeNames {
		result[i] = RelationshipType(i)
	}
	return result
}

func RelationshipTypeStrings() []string {
	return append([]string(nil), relationshipTypeNames[:]...)
}

func (rt RelationshipType) IsARelationshipType() bool {
	return int(rt) < len(relationshipTypeNames)
}

func (rt RelationshipType) String() string {
	if !rt.IsARelationshipType() {
		return "RelationshipType(" + strconv.Itoa(int(rt)) + ")"
	}
	return relationshipTypeNames[rt]
}

func (rt RelationshipType) MarshalText() ([]byte, error) {
	if !rt.IsARelationshipType() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRelationshipType, rt)
	}
	return []byte(relationshipTypeNames[rt]), nil
}

func (rt *RelationshipType) UnmarshalText(text []byte) error {
	parsed, err := ParseRelationshipType(string(text))
	if err != nil {
		return err
	}
	*rt = parsed
	return nil
}

func (rt RelationshipType) MarshalJSON() ([]byte, error) {
	text, err := rt.MarshalText()
	if err != nil {
		return nil, err
	}
	return []byte(strconv.Quote(string(text))), nil
}

func (rt *RelationshipType) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("relationship type should be a string, got %s", data)
	}
	return rt.UnmarshalText([]byte(s))
}
