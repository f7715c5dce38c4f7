package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document is the ingestion record persisted for each upload.
type Document struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Filename        string             `bson:"filename" json:"filename"`
	CollectionName  string             `bson:"collection_name" json:"collection_name"`
	MediaType       string             `bson:"media_type" json:"media_type"`
	SizeBytes       int64              `bson:"size_bytes" json:"size_bytes"`
	TextLength      int                `bson:"text_length" json:"text_length"`
	ChunksProcessed int                `bson:"chunks_processed" json:"chunks_processed"`
	VectorSize      int                `bson:"vector_size" json:"vector_size"`
	Status          string             `bson:"status" json:"status"` // completed, failed
	ErrorMessage    string             `bson:"error_message,omitempty" json:"error_message,omitempty"`
	UploadedAt      time.Time          `bson:"uploaded_at" json:"uploaded_at"`
}

// UploadDetails is the success payload of POST /api/upload.
type UploadDetails struct {
	Filename        string `json:"filename"`
	CollectionName  string `json:"collection_name"`
	ChunksProcessed int    `json:"chunks_processed"`
	TextLength      int    `json:"text_length"`
	VectorSize      int    `json:"vector_size"`
}
