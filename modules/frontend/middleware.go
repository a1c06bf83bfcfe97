package frontend

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lkarlslund/stixgraph/modules/stix"
)

const loadingRetryAfter = "5"

// RequireData fails requests with 503 until the collection reaches minimumStatus.
// While bundles are still loading, clients are told when to retry.
func (ws *WebService) RequireData(minimumStatus WebServiceStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := ws.Status()
		if status >= minimumStatus && ws.Data() != nil {
			return
		}
		if status == Loading {
			c.Header("Retry-After", loadingRetryAfter)
		}
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "no data", "status": status.String()})
	}
}

// ValidAnchor rejects requests whose :id is not a well formed STIX identifier
func ValidAnchor(c *gin.Context) {
	if err := stix.Id(c.Param("id")).Validate(); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
