package routes

import (
	"net/http"

	"edu-assistant-platform/internal/vectorstore"
	"edu-assistant-platform/utils"

	"github.com/gin-gonic/gin"
)

// HandleListCollections returns the names of all vector collections.
func HandleListCollections(store vectorstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		names, err := store.ListCollections(c.Request.Context())
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to list collections.",
				gin.H{"cause": err.Error()})
			return
		}
		if names == nil {
			names = []string{}
		}
		c.JSON(http.StatusOK, gin.H{"collections": names})
	}
}

// HandleDeleteCollection removes a collection. This is the remediation path
// for a dimension mismatch reported by the upload endpoint.
func HandleDeleteCollection(store vectorstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		if name == "" {
			utils.RespondWithBadRequest(c, "Collection name is required.", nil)
			return
		}
		if err := store.DeleteCollection(c.Request.Context(), name); err != nil {
			utils.RespondWithInternalError(c, "Failed to delete collection.",
				gin.H{"cause": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "collection": name})
	}
}
