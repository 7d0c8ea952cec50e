package catalogmodule

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dxing/mediavault/internal/modules/scannermodule/scanner"
)

// maxTierFor maps the vip query flag to the tier ceiling a viewer sees.
func (m *Module) maxTierFor(c *gin.Context) int {
	if c.Query("vip") == "true" {
		return m.cfg.Scanner.VipTierValue
	}
	return m.cfg.Scanner.StandardTierValue
}

func mediaTypeParam(c *gin.Context) (string, bool) {
	if _, ok := scanner.ParseMediaType(c.Param("type")); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown media type: " + c.Param("type")})
		return "", false
	}
	return c.Param("type"), true
}

func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid collection id"})
		return 0, false
	}
	return uint(id), true
}

func (m *Module) handleListCollections(c *gin.Context) {
	mediaType, ok := mediaTypeParam(c)
	if !ok {
		return
	}
	collections, err := ListCollections(m.db, mediaType, m.maxTierFor(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"collections": collections, "count": len(collections)})
}

func (m *Module) handleGetCollection(c *gin.Context) {
	if _, ok := mediaTypeParam(c); !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	col, err := GetCollection(m.db, id, m.maxTierFor(c))
	if errors.Is(err, ErrCollectionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, col)
}

func (m *Module) handleListItems(c *gin.Context) {
	if _, ok := mediaTypeParam(c); !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))

	result, err := ListItems(m.db, id, m.maxTierFor(c), page, pageSize)
	if errors.Is(err, ErrCollectionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (m *Module) handleSearch(c *gin.Context) {
	mediaType, ok := mediaTypeParam(c)
	if !ok {
		return
	}
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	hits, err := SearchItems(m.db, mediaType, query, m.maxTierFor(c), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if hits == nil {
		hits = []SearchHit{}
	}
	c.JSON(http.StatusOK, gin.H{"results": hits, "count": len(hits)})
}
