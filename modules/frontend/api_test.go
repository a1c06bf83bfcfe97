package frontend

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/lkarlslund/stixgraph/modules/collection"
	"github.com/lkarlslund/stixgraph/modules/persistence"
	"github.com/lkarlslund/stixgraph/modules/stix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	group   stix.Id = "intrusion-set--bef4c620-0787-42a8-a96d-b7eb6e85917c"
	malware stix.Id = "malware--5a3a31fa-e6c1-4c5d-b9e8-1a3c2e8e6b7f"
	course  stix.Id = "course-of-action--2a4f6c11-a4a7-4cb9-b0ef-6ae1bb3a718a"
	pattern stix.Id = "attack-pattern--a62a8db3-f23a-4d8f-afd6-9dbc77e7813b"
)

func testService(t *testing.T, ready bool) *WebService {
	t.Helper()
	ws, err := NewWebservice()
	require.NoError(t, err)
	if !ready {
		return ws
	}

	c := collection.New()
	m := &stix.Malware{Name: "X-Agent"}
	m.ID, m.Type = malware, stix.TypeMalware
	g := &stix.IntrusionSet{Name: "APT28"}
	g.ID, g.Type = group, stix.TypeIntrusionSet
	coa := &stix.CourseOfAction{Name: "User Training", Description: "Train users to **recognize** phishing."}
	coa.ID, coa.Type = course, stix.TypeCourseOfAction
	uses := stix.NewRelationship(stix.CommonProperties{ID: stix.NewId(stix.TypeRelationship)}, group, malware, stix.Uses)
	mitigates := stix.NewRelationship(stix.CommonProperties{ID: stix.NewId(stix.TypeRelationship)}, course, pattern, stix.Mitigates)
	_, err = c.AddAll([]stix.Object{m, g, coa, &uses, &mitigates})
	require.NoError(t, err)
	ws.SetData(c)
	return ws
}

func get(t *testing.T, ws *WebService, url string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	ws.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))
	return w
}

func TestRequireData(t *testing.T) {
	ws := testService(t, false)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, ws, "/api/statistics").Code)

	w := get(t, ws, "/api/status")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "NoData")
}

func TestTypesEndpoint(t *testing.T) {
	w := get(t, testService(t, false), "/api/types")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"subtechnique-of"`)
	assert.Contains(t, w.Body.String(), `"course-of-action"`)
}

func TestNeighborsEndpoint(t *testing.T) {
	ws := testService(t, true)

	w := get(t, ws, "/api/neighbors/"+string(group)+"?direction=out&type=uses&peer=malware")
	require.Equal(t, http.StatusOK, w.Code)
	var result []struct {
		Peer             stix.Id `json:"peer"`
		PeerType         string  `json:"peer_type"`
		RelationshipType string  `json:"relationship_type"`
	}
	require.NoError(t, jsoniter.Unmarshal(w.Body.Bytes(), &result))
	require.Len(t, result, 1)
	assert.Equal(t, malware, result[0].Peer)
	assert.Equal(t, "malware", result[0].PeerType)
	assert.Equal(t, "uses", result[0].RelationshipType)

	// incoming from the malware side
	w = get(t, ws, "/api/neighbors/"+string(malware)+"?direction=in&type=uses&peer=intrusion-set")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), string(group))

	// strict mode rejects a mitigates edge asked for as uses, literal accepts it
	w = get(t, ws, "/api/neighbors/"+string(course)+"?direction=out&type=uses&peer=attack-pattern")
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
	w = get(t, ws, "/api/neighbors/"+string(course)+"?direction=out&type=uses&peer=attack-pattern&mode=literal")
	assert.Contains(t, w.Body.String(), string(pattern))
}

func TestNeighborsEndpointBadInput(t *testing.T) {
	ws := testService(t, true)
	for _, url := range []string{
		"/api/neighbors/" + string(group) + "?direction=up&type=uses&peer=malware",
		"/api/neighbors/" + string(group) + "?type=likes&peer=malware",
		"/api/neighbors/" + string(group) + "?type=uses",
		"/api/neighbors/" + string(group) + "?type=uses&peer=malware&mode=fuzzy",
	} {
		assert.Equal(t, http.StatusBadRequest, get(t, ws, url).Code, url)
	}
}

func TestObjectEndpoints(t *testing.T) {
	ws := testService(t, true)

	w := get(t, ws, "/api/object/"+string(malware))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "X-Agent")

	assert.Equal(t, http.StatusNotFound, get(t, ws, "/api/object/malware--00000000-0000-4000-8000-000000000000").Code)

	w = get(t, ws, "/api/object/"+string(course)+"/description")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<strong>recognize</strong>")
}

func TestWalkEndpoint(t *testing.T) {
	ws := testService(t, true)
	w := get(t, ws, "/api/walk/"+string(group)+"?filter=out:uses:malware&depth=2")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), string(malware))

	assert.Equal(t, http.StatusBadRequest, get(t, ws, "/api/walk/"+string(group)+"?filter=nonsense").Code)
}

func TestStatisticsEndpoint(t *testing.T) {
	w := get(t, testService(t, true), "/api/statistics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"mitigates":1`)
	assert.Contains(t, w.Body.String(), `"dangling":1`)
}

func TestSavedQueries(t *testing.T) {
	db, err := persistence.Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	ws, err := NewWebservice(WithPersistence(db))
	require.NoError(t, err)
	ready := testService(t, true)
	ws.SetData(ready.Data())

	post := func(body string) int {
		w := httptest.NewRecorder()
		ws.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/queries", strings.NewReader(body)))
		return w.Code
	}

	assert.Equal(t, http.StatusCreated, post(`{"name":"tooling","filters":["out:uses:malware","out:uses:tool"]}`))
	assert.Equal(t, http.StatusBadRequest, post(`{"name":"broken","filters":["sideways:uses:malware"]}`))
	assert.Equal(t, http.StatusBadRequest, post(`{"name":"empty","filters":[]}`))

	w := get(t, ws, "/api/queries")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "tooling")
	assert.NotContains(t, w.Body.String(), "broken")

	w = get(t, ws, "/api/queries/tooling/run/"+string(group))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), string(malware))

	assert.Equal(t, http.StatusNotFound, get(t, ws, "/api/queries/missing").Code)

	// mode was not posted, the stored query falls back to strict
	w = get(t, ws, "/api/queries/tooling")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"mode":"strict"`)

	w = httptest.NewRecorder()
	ws.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/queries/tooling", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, http.StatusNotFound, get(t, ws, "/api/queries/tooling").Code)
}

func TestQueriesNeedPersistence(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, get(t, testService(t, false), "/api/queries").Code)
}
