package stix

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mitigationJSON = `{
	"type": "relationship",
	"spec_version": "2.1",
	"id": "relationship--e1a25b7d-6f1c-4b9a-8b41-4c2b6a3b6c11",
	"created": "2020-03-16T15:38:37.650Z",
	"modified": "2020-03-16T15:38:37.650Z",
	"source_ref": "course-of-action--b045d015-6bed-4490-bd38-56b41ece59a0",
	"target_ref": "attack-pattern--0042a9f5-f053-4769-b3ef-9ad018dfa298",
	"relationship_type": "mitigates",
	"description": "Restrict execution of unsigned binaries."
}`

func TestDecodeRelationshipScenario(t *testing.T) {
	o, err := Decode([]byte(mitigationJSON))
	require.NoError(t, err)

	r, ok := o.(*Relationship)
	require.True(t, ok, "decoded %T", o)

	assert.Equal(t, TypeRelationship, r.ObjectType())
	assert.Equal(t, Mitigates, r.RelationshipType())
	assert.Equal(t, coaID, r.SourceRef())
	assert.Equal(t, apID, r.TargetRef())
	assert.Equal(t, "2.1", r.Common().SpecVersion)
	assert.Equal(t, "Restrict execution of unsigned binaries.", r.Description())
	assert.Equal(t, 2020, r.Common().Created.Year())

	// anchored on the attack pattern, the mitigation arrives from a course of action
	assert.True(t, Incoming[CourseOfAction](Mitigates).MatchesStrict(*r))
	assert.False(t, Outgoing[CourseOfAction](Mitigates).MatchesStrict(*r))
	// anchored on the course of action
	assert.True(t, Outgoing[AttackPattern](Mitigates).MatchesStrict(*r))
}

func TestDecodeRelationshipPeerResolvesToCourseOfAction(t *testing.T) {
	data := []byte(`{"type":"relationship","id":"relationship--6b1b8c3b-4c8a-4f3e-9a7e-3c1d0c6a2f10",
		"source_ref":"attack-pattern--0042a9f5-f053-4769-b3ef-9ad018dfa298",
		"target_ref":"course-of-action--b045d015-6bed-4490-bd38-56b41ece59a0",
		"relationship_type":"mitigates"}`)
	r, err := DecodeAs[Relationship](data)
	require.NoError(t, err)

	assert.True(t, Outgoing[CourseOfAction](Mitigates).Matches(*r))
	assert.False(t, Incoming[CourseOfAction](Mitigates).Matches(*r))
}

func TestDecodeRelationshipErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"unknown type", `{"type":"relationship","source_ref":"a--1","target_ref":"b--2","relationship_type":"not-a-type"}`, ErrUnknownRelationshipType},
		{"wrong case", `{"type":"relationship","source_ref":"a--1","target_ref":"b--2","relationship_type":"Uses"}`, ErrUnknownRelationshipType},
		{"missing type", `{"type":"relationship","source_ref":"a--1","target_ref":"b--2"}`, ErrMissingField},
		{"missing source", `{"type":"relationship","target_ref":"b--2","relationship_type":"uses"}`, ErrMissingField},
		{"missing target", `{"type":"relationship","source_ref":"a--1","relationship_type":"uses"}`, ErrMissingField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestDecodeKinds(t *testing.T) {
	tests := []struct {
		data string
		want string
	}{
		{`{"type":"attack-pattern","id":"attack-pattern--0042a9f5-f053-4769-b3ef-9ad018dfa298","name":"Phishing","x_mitre_is_subtechnique":false}`, TypeAttackPattern},
		{`{"type":"malware","id":"malware--2a6f4c7b-e690-4cc7-ab6b-1f821fb6b80b","name":"PlugX","is_family":true}`, TypeMalware},
		{`{"type":"tool","id":"tool--b76b2d94-60e4-4107-a903-4a3a7622fb3b","name":"Mimikatz"}`, TypeTool},
		{`{"type":"intrusion-set","id":"intrusion-set--899ce53f-13a0-479b-a0e4-67d46e241542","name":"APT28","aliases":["Sofacy"]}`, TypeIntrusionSet},
		{`{"type":"campaign","id":"campaign--26d9ebae-de59-427f-ae6b-4f5b5bd4a7e9","name":"Night Dragon"}`, TypeCampaign},
		{`{"type":"course-of-action","id":"course-of-action--b045d015-6bed-4490-bd38-56b41ece59a0","name":"Code Signing"}`, TypeCourseOfAction},
		{`{"type":"x-mitre-tactic","id":"x-mitre-tactic--ffd5bcee-6e16-4dd2-8eca-7b3beedf33ca","name":"Initial Access","x_mitre_shortname":"initial-access"}`, TypeTactic},
		{`{"type":"identity","id":"identity--c78cb6e5-0c4b-4611-8297-d1b8b55e40b5","name":"The MITRE Corporation"}`, TypeIdentity},
		{`{"type":"marking-definition","id":"marking-definition--fa42a846-8d90-4e51-bc29-71d5b4802168","definition_type":"statement"}`, TypeMarkingDefinition},
		{`{"type":"x-mitre-matrix","id":"x-mitre-matrix--eafc1b4c-5e56-4965-bd4e-66a6a89c88cc"}`, "x-mitre-matrix"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			o, err := Decode([]byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.want, o.ObjectType())
			assert.Equal(t, tt.want, o.Common().Type)
			assert.Equal(t, tt.want, o.Common().ID.ObjectType())
		})
	}
}

func TestDecodeUnregisteredIsGeneric(t *testing.T) {
	o, err := Decode([]byte(`{"type":"x-mitre-data-source","id":"x-mitre-data-source--a1b2c3d4-0000-4000-8000-000000000000"}`))
	require.NoError(t, err)
	_, ok := o.(*GenericObject)
	assert.True(t, ok)
	assert.False(t, IsRegistered("x-mitre-data-source"))
}

func TestDecodeWithoutType(t *testing.T) {
	_, err := Decode([]byte(`{"id":"malware--2a6f4c7b-e690-4cc7-ab6b-1f821fb6b80b"}`))
	assert.ErrorIs(t, err, ErrNoType)
}

func TestDecodeAsMismatch(t *testing.T) {
	_, err := DecodeAs[Malware]([]byte(`{"type":"tool","id":"tool--b76b2d94-60e4-4107-a903-4a3a7622fb3b"}`))
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestRegisteredTypes(t *testing.T) {
	types := RegisteredTypes()
	assert.Contains(t, types, TypeRelationship)
	assert.Contains(t, types, TypeCourseOfAction)
	assert.IsIncreasing(t, types)
}

func TestEncodeRelationshipRoundTrip(t *testing.T) {
	o, err := Decode([]byte(mitigationJSON))
	require.NoError(t, err)

	data, err := Encode(o)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"relationship_type":"mitigates"`)

	again, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, o.(*Relationship).String(), again.(*Relationship).String())
}

func TestExternalID(t *testing.T) {
	cp := CommonProperties{ExternalReferences: []ExternalReference{
		{SourceName: "capec", ExternalID: "CAPEC-98"},
		{SourceName: "mitre-attack", ExternalID: "T1566"},
	}}
	id, found := cp.ExternalID("mitre-attack")
	assert.True(t, found)
	assert.Equal(t, "T1566", id)
	_, found = cp.ExternalID("nvd")
	assert.False(t, found)
}
