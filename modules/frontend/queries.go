package frontend

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lkarlslund/stixgraph/modules/persistence"
	"github.com/lkarlslund/stixgraph/modules/stix"
)

const QueriesBucket = "queries"

// SavedQuery is a named traversal that can be run from any anchor
type SavedQuery struct {
	Name    string   `json:"name" codec:"name"`
	Filters []string `json:"filters" codec:"filters"`
	Mode    string   `json:"mode,omitempty" codec:"mode,omitempty"`
	Depth   int      `json:"depth,omitempty" codec:"depth,omitempty"`
}

func (q SavedQuery) ID() string {
	return q.Name
}

// Default is applied before decoding, both from requests and from storage
func (q *SavedQuery) Default() {
	q.Mode = stix.MatchStrict.String()
}

func (q SavedQuery) Parse() ([]stix.Filter, stix.MatchMode, error) {
	if len(q.Filters) == 0 {
		return nil, 0, errors.New("query has no filters")
	}
	filters := make([]stix.Filter, len(q.Filters))
	for i, fs := range q.Filters {
		f, err := stix.ParseFilter(fs)
		if err != nil {
			return nil, 0, err
		}
		filters[i] = f
	}
	mode, err := stix.ParseMatchMode(q.Mode)
	return filters, mode, err
}

func AddQueryEndpoints(ws *WebService) {
	sq := persistence.GetStorage[SavedQuery](ws.db, QueriesBucket, false)

	queries := ws.API.Group("queries")

	queries.GET("", func(c *gin.Context) {
		list, err := sq.List()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if list == nil {
			list = []SavedQuery{}
		}
		c.JSON(http.StatusOK, list)
	})
	queries.POST("", func(c *gin.Context) {
		var q SavedQuery
		q.Default()
		if err := c.BindJSON(&q); err != nil {
			return
		}
		if _, _, err := q.Parse(); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := sq.Put(q); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, q)
	})
	queries.GET(":name", func(c *gin.Context) {
		q, found := sq.Get(c.Param("name"))
		if !found {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": persistence.ErrKeyNotFound.Error()})
			return
		}
		c.JSON(http.StatusOK, q)
	})
	queries.DELETE(":name", func(c *gin.Context) {
		if err := sq.Delete(c.Param("name")); err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	})
	queries.GET(":name/run/:id", ws.RequireData(Ready), ValidAnchor, func(c *gin.Context) {
		q, found := sq.Get(c.Param("name"))
		if !found {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": persistence.ErrKeyNotFound.Error()})
			return
		}
		filters, mode, err := q.Parse()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, ws.walk(stix.Id(c.Param("id")), filters, mode, q.Depth))
	})
}
