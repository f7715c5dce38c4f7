package routes

import (
	"net/http"

	"edu-assistant-platform/internal/logger"
	"edu-assistant-platform/models"
	"edu-assistant-platform/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const documentListLimit = 100

// HandleListDocuments returns recent ingestion records, newest first.
func HandleListDocuments(documents *mongo.Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		if documents == nil {
			c.JSON(http.StatusOK, gin.H{"documents": []models.Document{}})
			return
		}

		opts := options.Find().
			SetSort(bson.D{{Key: "uploaded_at", Value: -1}}).
			SetLimit(documentListLimit)

		cursor, err := documents.Find(c.Request.Context(), bson.M{}, opts)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to list documents.",
				gin.H{"cause": err.Error()})
			return
		}
		defer cursor.Close(c.Request.Context())

		results := []models.Document{}
		if err := cursor.All(c.Request.Context(), &results); err != nil {
			utils.RespondWithInternalError(c, "Failed to decode documents.",
				gin.H{"cause": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"documents": results})
	}
}

// recordDocument persists an ingestion record. Best effort: a failed write
// is logged and does not change the upload response.
func recordDocument(c *gin.Context, documents *mongo.Collection, doc models.Document) {
	if documents == nil {
		return
	}
	if _, err := documents.InsertOne(c.Request.Context(), doc); err != nil {
		logger.Warn("Failed to record ingestion document",
			"filename", doc.Filename, "error", err)
	}
}
