package bundle

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lkarlslund/stixgraph/modules/collection"
	"github.com/lkarlslund/stixgraph/modules/stix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const enterpriseBundle = `{
	"type": "bundle",
	"id": "bundle--5ddaeff9-eca7-4094-9e65-4f53da21a444",
	"objects": [
		{"type":"course-of-action","id":"course-of-action--b045d015-6bed-4490-bd38-56b41ece59a0","name":"Code Signing","created":"2019-06-11T17:01:25.405Z","modified":"2021-08-23T20:25:19.291Z"},
		{"type":"attack-pattern","id":"attack-pattern--0042a9f5-f053-4769-b3ef-9ad018dfa298","name":"Process Injection","created":"2017-05-31T21:30:47.843Z","modified":"2023-04-21T12:30:17.422Z"},
		{"type":"relationship","id":"relationship--2d2c2b05-8b2a-4b3b-b2c5-9b0f6d1c9e77","source_ref":"course-of-action--b045d015-6bed-4490-bd38-56b41ece59a0","target_ref":"attack-pattern--0042a9f5-f053-4769-b3ef-9ad018dfa298","relationship_type":"mitigates"},
		{"type":"relationship","id":"relationship--9c4b5d0a-1e1e-4b8e-9a9b-6f8a9d6c3b21","source_ref":"course-of-action--b045d015-6bed-4490-bd38-56b41ece59a0","target_ref":"attack-pattern--0042a9f5-f053-4769-b3ef-9ad018dfa298","relationship_type":"detects"}
	]
}`

func TestDecodeLenient(t *testing.T) {
	result, err := Decode(strings.NewReader(enterpriseBundle), false)
	require.NoError(t, err)
	assert.Equal(t, stix.Id("bundle--5ddaeff9-eca7-4094-9e65-4f53da21a444"), result.ID)
	assert.Len(t, result.Objects, 3)
	require.Len(t, result.Failed, 1)
	assert.ErrorIs(t, result.Failed[0], stix.ErrUnknownRelationshipType)
	assert.Contains(t, result.Failed[0].Error(), "object 3")
}

func TestDecodeStrict(t *testing.T) {
	_, err := Decode(strings.NewReader(enterpriseBundle), true)
	assert.ErrorIs(t, err, stix.ErrUnknownRelationshipType)
}

func TestDecodeNotABundle(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"type":"malware","id":"malware--2a6f4c7b-e690-4cc7-ab6b-1f821fb6b80b"}`), false)
	assert.ErrorIs(t, err, ErrNotABundle)

	_, err = Decode(strings.NewReader(`{"type":`), false)
	assert.Error(t, err)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	result, err := Decode(strings.NewReader(enterpriseBundle), false)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, result.ID, result.Objects))

	again, err := Decode(&buf, true)
	require.NoError(t, err)
	assert.Equal(t, result.ID, again.ID)
	require.Len(t, again.Objects, len(result.Objects))
	for i := range result.Objects {
		assert.Equal(t, result.Objects[i].Common().ID, again.Objects[i].Common().ID)
		assert.Equal(t, result.Objects[i].ObjectType(), again.Objects[i].ObjectType())
	}
}

func writeFixtures(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	result, err := Decode(strings.NewReader(enterpriseBundle), false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "enterprise-attack.json"), []byte(enterpriseBundle), 0644))
	require.NoError(t, WriteFile(filepath.Join(dir, "compressed.json.lz4"), "", result.Objects[:2]))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("not a bundle"), 0644))
	return dir
}

func TestLoaderLenient(t *testing.T) {
	dir := writeFixtures(t)
	ld, err := NewLoader(Options{})
	require.NoError(t, err)

	c, results, err := ld.Load(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "compressed.json.lz4", filepath.Base(results[0].Path))
	assert.Equal(t, 2, results[0].Loaded)
	assert.Equal(t, "enterprise-attack.json", filepath.Base(results[1].Path))
	assert.Equal(t, 1, results[1].Skipped)

	// duplicates from the compressed file are merged
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 1, c.RelationshipCount())

	neighbors := c.Neighbors("attack-pattern--0042a9f5-f053-4769-b3ef-9ad018dfa298",
		stix.Incoming[stix.CourseOfAction](stix.Mitigates), stix.MatchStrict)
	require.Len(t, neighbors, 1)
	assert.Equal(t, stix.Id("course-of-action--b045d015-6bed-4490-bd38-56b41ece59a0"), neighbors[0].Peer)
}

func TestLoaderStrict(t *testing.T) {
	dir := writeFixtures(t)
	ld, err := NewLoader(Options{Strict: true, Workers: 1})
	require.NoError(t, err)

	_, _, err = ld.Load(context.Background(), dir)
	assert.ErrorIs(t, err, stix.ErrUnknownRelationshipType)
}

func TestLoaderStrictUnstorableObject(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "noid.json"), []byte(`{
	"type": "bundle",
	"id": "bundle--0b8a1f8e-9d4f-4c1e-8a51-3f4f0c9d2b11",
	"objects": [
		{"type":"malware","name":"no id"},
		{"type":"relationship","id":"relationship--2d2c2b05-8b2a-4b3b-b2c5-9b0f6d1c9e77","source_ref":"course-of-action--b045d015-6bed-4490-bd38-56b41ece59a0","target_ref":"attack-pattern--0042a9f5-f053-4769-b3ef-9ad018dfa298","relationship_type":"mitigates"}
	]
}`), 0644))

	ld, err := NewLoader(Options{Strict: true})
	require.NoError(t, err)
	c, results, err := ld.Load(context.Background(), dir)
	assert.ErrorIs(t, err, collection.ErrNoIdentifier)
	assert.Nil(t, c)
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)

	ld, err = NewLoader(Options{})
	require.NoError(t, err)
	c, results, err = ld.Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1, results[0].Loaded)
	assert.Equal(t, 1, results[0].Skipped)
	assert.NoError(t, results[0].Err)
}

func TestWriteFileReportsWriteErrors(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("no /dev/full on this platform")
	}
	result, err := Decode(strings.NewReader(enterpriseBundle), false)
	require.NoError(t, err)
	assert.Error(t, WriteFile("/dev/full", "", result.Objects))

	assert.Error(t, WriteFile(filepath.Join(t.TempDir(), "missing", "out.json"), "", result.Objects))
}

func TestLoaderPattern(t *testing.T) {
	dir := writeFixtures(t)
	ld, err := NewLoader(Options{Pattern: "*.lz4"})
	require.NoError(t, err)

	c, results, err := ld.Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, 2, c.Len())
}

func TestLoaderCancelled(t *testing.T) {
	dir := writeFixtures(t)
	ld, err := NewLoader(Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = ld.Load(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoaderMissingPath(t *testing.T) {
	ld, err := NewLoader(Options{})
	require.NoError(t, err)
	_, _, err = ld.Load(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestNewLoaderBadPattern(t *testing.T) {
	_, err := NewLoader(Options{Pattern: "[unclosed"})
	assert.Error(t, err)
}
