package frontend

import (
	"net/http"
	"testing"

	"github.com/lkarlslund/stixgraph/modules/collection"
	"github.com/stretchr/testify/assert"
)

func TestRequireDataStatuses(t *testing.T) {
	ws := testService(t, false)

	tests := []struct {
		status     WebServiceStatus
		retryAfter string
	}{
		{NoData, ""},
		{Loading, loadingRetryAfter},
		{Error, ""},
	}
	for _, tt := range tests {
		ws.SetStatus(tt.status)
		w := get(t, ws, "/api/neighbors/"+string(group)+"?type=uses&peer=malware")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, tt.status.String())
		assert.Equal(t, tt.retryAfter, w.Header().Get("Retry-After"), tt.status.String())
		assert.Contains(t, w.Body.String(), tt.status.String())
	}

	// Ready without a collection is still no data
	ws.SetStatus(Ready)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, ws, "/api/statistics").Code)

	ws.SetData(collection.New())
	assert.Equal(t, http.StatusOK, get(t, ws, "/api/statistics").Code)
}

func TestValidAnchor(t *testing.T) {
	ws := testService(t, true)
	for _, url := range []string{
		"/api/object/malware",
		"/api/object/malware--not-a-uuid/description",
		"/api/neighbors/--5a3a31fa-e6c1-4c5d-b9e8-1a3c2e8e6b7f?type=uses&peer=malware",
		"/api/walk/intrusion-set?filter=out:uses:malware",
	} {
		assert.Equal(t, http.StatusBadRequest, get(t, ws, url).Code, url)
	}
	// well formed but unknown anchors are fine for neighbor queries
	assert.Equal(t, http.StatusOK, get(t, ws, "/api/neighbors/malware--00000000-0000-4000-8000-000000000000?type=uses&peer=malware").Code)
}
