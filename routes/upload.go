package routes

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"time"

	"edu-assistant-platform/internal/config"
	"edu-assistant-platform/internal/telemetry"
	"edu-assistant-platform/internal/vectorstore"
	"edu-assistant-platform/models"
	"edu-assistant-platform/services"
	"edu-assistant-platform/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

// SetupIngestRoutes registers the ingestion API surface.
func SetupIngestRoutes(router *gin.Engine, cfg *config.Config, pipeline *services.Pipeline, store vectorstore.Store, documents *mongo.Collection, metrics *telemetry.Metrics) {
	api := router.Group("/api")
	api.POST("/upload", HandleUpload(cfg, pipeline, documents, metrics))
	api.GET("/collections", HandleListCollections(store))
	api.DELETE("/collections/:name", HandleDeleteCollection(store))
	api.GET("/documents", HandleListDocuments(documents))
}

// HandleUpload runs the ingestion pipeline for one multipart document upload.
func HandleUpload(cfg *config.Config, pipeline *services.Pipeline, documents *mongo.Collection, metrics *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, header, err := c.Request.FormFile("file")
		if err != nil {
			utils.RespondWithBadRequest(c, "No file provided.", nil)
			return
		}
		defer file.Close()

		if header.Size > cfg.MaxFileSize {
			utils.RespondWithBadRequest(c, "File size exceeds maximum limit.",
				gin.H{"max_bytes": cfg.MaxFileSize})
			return
		}

		data, err := io.ReadAll(io.LimitReader(file, cfg.MaxFileSize+1))
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to read uploaded file.",
				errorDetails(cfg, err))
			return
		}
		if int64(len(data)) > cfg.MaxFileSize {
			utils.RespondWithBadRequest(c, "File size exceeds maximum limit.",
				gin.H{"max_bytes": cfg.MaxFileSize})
			return
		}

		mediaType := header.Header.Get("Content-Type")

		result, err := pipeline.Ingest(c.Request.Context(), data, mediaType, header.Filename)
		if err != nil {
			if metrics != nil {
				metrics.RecordUpload("failed", 0)
			}
			recordDocument(c, documents, models.Document{
				Filename:       header.Filename,
				CollectionName: services.CollectionNameFor(header.Filename),
				MediaType:      mediaType,
				SizeBytes:      header.Size,
				Status:         "failed",
				ErrorMessage:   err.Error(),
				UploadedAt:     time.Now(),
			})
			respondIngestError(c, cfg, err)
			return
		}

		if metrics != nil {
			metrics.RecordUpload("completed", result.Chunks)
		}
		recordDocument(c, documents, models.Document{
			Filename:        header.Filename,
			CollectionName:  result.Collection,
			MediaType:       mediaType,
			SizeBytes:       header.Size,
			TextLength:      result.TextLength,
			ChunksProcessed: result.Chunks,
			VectorSize:      result.VectorSize,
			Status:          "completed",
			UploadedAt:      time.Now(),
		})

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": fmt.Sprintf("Indexed %d chunks from %s", result.Chunks, header.Filename),
			"details": models.UploadDetails{
				Filename:        header.Filename,
				CollectionName:  result.Collection,
				ChunksProcessed: result.Chunks,
				TextLength:      result.TextLength,
				VectorSize:      result.VectorSize,
			},
		})
	}
}

// respondIngestError maps pipeline failures onto the HTTP error contract.
func respondIngestError(c *gin.Context, cfg *config.Config, err error) {
	var dimErr *vectorstore.DimensionMismatchError
	var embErr *services.EmbeddingError
	var extErr *services.ExtractionError
	var createErr *vectorstore.CreateCollectionError
	var upsertErr *vectorstore.UpsertError

	switch {
	case errors.Is(err, services.ErrUnsupportedMediaType):
		utils.RespondWithUnsupportedMediaType(c, "Unsupported file type.")
	case errors.Is(err, services.ErrEmptyDocument):
		utils.RespondWithBadRequest(c, "Document contains no extractable text.", nil)
	case errors.As(err, &dimErr):
		utils.RespondWithBadRequest(c, "Vector dimension mismatch.", gin.H{
			"collection":         dimErr.Collection,
			"expected_dimension": dimErr.Expected,
			"actual_dimension":   dimErr.Actual,
			"remediation":        "Delete the existing collection or upload the document under a different filename.",
		})
	case errors.As(err, &extErr):
		utils.RespondWithInternalError(c, "Failed to extract text from document.",
			errorDetails(cfg, err))
	case errors.As(err, &embErr):
		utils.RespondWithInternalError(c,
			fmt.Sprintf("Failed to generate embedding for chunk %d.", embErr.ChunkIndex),
			errorDetails(cfg, err))
	case errors.As(err, &createErr):
		utils.RespondWithInternalError(c, "Failed to create vector collection.",
			errorDetails(cfg, err))
	case errors.As(err, &upsertErr):
		utils.RespondWithInternalError(c, "Failed to index document vectors.",
			errorDetails(cfg, err))
	default:
		utils.RespondWithInternalError(c, "Internal server error.", errorDetails(cfg, err))
	}
}

// errorDetails carries the underlying cause; a stack trace is included only
// in debug builds, never in release mode.
func errorDetails(cfg *config.Config, err error) gin.H {
	details := gin.H{"cause": err.Error()}
	if cfg.GinMode == "debug" {
		details["stack"] = string(debug.Stack())
	}
	return details
}
