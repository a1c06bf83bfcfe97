package stix

import (
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var ErrMissingField = errors.New("missing required field")

// Relationship is a directed, typed edge between two STIX objects.
// It is immutable once decoded.
type Relationship struct {
	base             CommonProperties
	sourceRef        Id
	targetRef        Id
	relationshipType RelationshipType
	description      string
	startTime        *time.Time
	stopTime         *time.Time
}

type relationshipJSON struct {
	CommonProperties
	SourceRef        Id         `json:"source_ref"`
	TargetRef        Id         `json:"target_ref"`
	RelationshipType *string    `json:"relationship_type"`
	Description      string     `json:"description,omitempty"`
	StartTime        *time.Time `json:"start_time,omitempty"`
	StopTime         *time.Time `json:"stop_time,omitempty"`
}

func NewRelationship(base CommonProperties, source, target Id, rt RelationshipType) Relationship {
	if base.Type == "" {
		base.Type = TypeRelationship
	}
	return Relationship{
		base:             base,
		sourceRef:        source,
		targetRef:        target,
		relationshipType: rt,
	}
}

func (Relationship) ObjectType() string { return TypeRelationship }

func (r *Relationship) Common() *CommonProperties {
	return &r.base
}

func (r Relationship) SourceRef() Id                      { return r.sourceRef }
func (r Relationship) TargetRef() Id                      { return r.targetRef }
func (r Relationship) RelationshipType() RelationshipType { return r.relationshipType }
func (r Relationship) Description() string                { return r.description }
func (r Relationship) StartTime() *time.Time              { return r.startTime }
func (r Relationship) StopTime() *time.Time               { return r.stopTime }

func (r Relationship) String() string {
	return fmt.Sprintf("%v -[%v]-> %v", r.sourceRef, r.relationshipType, r.targetRef)
}

func (r Relationship) MarshalJSON() ([]byte, error) {
	rt := r.relationshipType.String()
	return jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(relationshipJSON{
		CommonProperties: r.base,
		SourceRef:        r.sourceRef,
		TargetRef:        r.targetRef,
		RelationshipType: &rt,
		Description:      r.description,
		StartTime:        r.startTime,
		StopTime:         r.stopTime,
	})
}

// UnmarshalJSON fails on unknown relationship types and missing references
func (r *Relationship) UnmarshalJSON(data []byte) error {
	var raw relationshipJSON
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.RelationshipType == nil {
		return fmt.Errorf("%w: relationship_type", ErrMissingField)
	}
	if raw.SourceRef.IsZero() {
		return fmt.Errorf("%w: source_ref", ErrMissingField)
	}
	if raw.TargetRef.IsZero() {
		return fmt.Errorf("%w: target_ref", ErrMissingField)
	}
	rt, err := ParseRelationshipType(*raw.RelationshipType)
	if err != nil {
		return err
	}
	*r = Relationship{
		base:             raw.CommonProperties,
		sourceRef:        raw.SourceRef,
		targetRef:        raw.TargetRef,
		relationshipType: rt,
		description:      raw.Description,
		startTime:        raw.StartTime,
		stopTime:         raw.StopTime,
	}
	return nil
}
