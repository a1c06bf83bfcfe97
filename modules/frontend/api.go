package frontend

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/lkarlslund/stixgraph/modules/collection"
	"github.com/lkarlslund/stixgraph/modules/stix"
)

type neighborResponse struct {
	Relationship     stix.Id     `json:"relationship"`
	RelationshipType string      `json:"relationship_type"`
	Peer             stix.Id     `json:"peer"`
	PeerType         string      `json:"peer_type"`
	Depth            int         `json:"depth,omitempty"`
	From             stix.Id     `json:"from,omitempty"`
	Object           stix.Object `json:"object,omitempty"`
}

func newNeighborResponse(n collection.Neighbor) neighborResponse {
	return neighborResponse{
		Relationship:     n.Relationship.Common().ID,
		RelationshipType: n.Relationship.RelationshipType().String(),
		Peer:             n.Peer,
		PeerType:         n.Peer.ObjectType(),
		Object:           n.Object,
	}
}

func AddAPIEndpoints(ws *WebService) {
	api := ws.API

	api.GET("status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": ws.Status().String()})
	})
	api.GET("types", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"objects":       stix.RegisteredTypes(),
			"relationships": stix.RelationshipTypeStrings(),
		})
	})
	api.GET("statistics", ws.RequireData(Ready), func(c *gin.Context) {
		c.JSON(http.StatusOK, ws.Data().Statistics())
	})
	api.GET("object/:id", ws.RequireData(Ready), ValidAnchor, func(c *gin.Context) {
		o, found := ws.Data().Get(stix.Id(c.Param("id")))
		if !found {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": collection.ErrObjectNotFound.Error()})
			return
		}
		c.JSON(http.StatusOK, o)
	})
	api.GET("object/:id/description", ws.RequireData(Ready), ValidAnchor, func(c *gin.Context) {
		o, found := ws.Data().Get(stix.Id(c.Param("id")))
		if !found {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": collection.ErrObjectNotFound.Error()})
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", renderDescription(stix.Description(o)))
	})
	api.GET("neighbors/:id", ws.RequireData(Ready), ValidAnchor, func(c *gin.Context) {
		direction, err := stix.ParseEdgeDirection(c.DefaultQuery("direction", "out"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rt, err := stix.ParseRelationshipType(c.Query("type"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		mode, err := stix.ParseMatchMode(c.Query("mode"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		peer := c.Query("peer")
		if peer == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "peer type is required"})
			return
		}

		neighbors := ws.Data().Neighbors(stix.Id(c.Param("id")), stix.NewFilter(direction, rt, peer), mode)
		result := make([]neighborResponse, len(neighbors))
		for i, n := range neighbors {
			result[i] = newNeighborResponse(n)
		}
		c.JSON(http.StatusOK, result)
	})
	api.GET("walk/:id", ws.RequireData(Ready), ValidAnchor, func(c *gin.Context) {
		var filters []stix.Filter
		for _, fs := range c.QueryArray("filter") {
			f, err := stix.ParseFilter(fs)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			filters = append(filters, f)
		}
		depth, err := strconv.Atoi(c.DefaultQuery("depth", "0"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "depth must be a number"})
			return
		}
		mode, err := stix.ParseMatchMode(c.Query("mode"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, ws.walk(stix.Id(c.Param("id")), filters, mode, depth))
	})
}

func (ws *WebService) walk(start stix.Id, filters []stix.Filter, mode stix.MatchMode, depth int) []neighborResponse {
	result := []neighborResponse{}
	ws.Data().Walk(start, filters, mode, depth, func(step collection.WalkStep) bool {
		nr := newNeighborResponse(step.Neighbor)
		nr.Depth = step.Depth
		nr.From = step.From
		nr.Object = nil
		result = append(result, nr)
		return true
	})
	return result
}

// ATT&CK descriptions are markdown
func renderDescription(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return markdown.ToHTML([]byte(md), p, renderer)
}
