package vectorstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"edu-assistant-platform/internal/config"
	"edu-assistant-platform/internal/logger"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

const grpcRequestTimeout = 30 * time.Second

// GRPCStore implements Store on the official Qdrant Go client.
type GRPCStore struct {
	client *qdrant.Client
}

func NewGRPCStore(cfg *config.Config) (*GRPCStore, error) {
	qdrantConfig := &qdrant.Config{
		Host:   cfg.QdrantHost,
		Port:   cfg.QdrantGRPCPort,
		APIKey: cfg.QdrantAPIKey,
		GrpcOptions: []grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		},
	}

	client, err := qdrant.NewClient(qdrantConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	store := &GRPCStore{client: client}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.HealthCheck(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("qdrant health check failed: %w", err)
	}

	logger.Info("Qdrant connection established",
		"host", cfg.QdrantHost, "port", cfg.QdrantGRPCPort)

	return store, nil
}

func (s *GRPCStore) EnsureCollection(ctx context.Context, name string, vectorSize uint64) error {
	ctx, cancel := context.WithTimeout(ctx, grpcRequestTimeout)
	defer cancel()

	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err == nil {
		return nil
	}
	if !isAlreadyExists(err) {
		return &CreateCollectionError{Collection: name, Cause: err}
	}

	// Collection already exists: reconcile dimensionality, never migrate.
	info, err := s.client.GetCollectionInfo(ctx, name)
	if err != nil {
		return &CreateCollectionError{Collection: name, Cause: err}
	}
	existing := configuredVectorSize(info)
	if existing != vectorSize {
		return &DimensionMismatchError{Collection: name, Expected: existing, Actual: vectorSize}
	}
	return nil
}

func (s *GRPCStore) Upsert(ctx context.Context, collection string, points []Point) error {
	ctx, cancel := context.WithTimeout(ctx, grpcRequestTimeout)
	defer cancel()

	qdrantPoints := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		payload := make(map[string]*qdrant.Value, len(p.Payload))
		for k, v := range p.Payload {
			payload[k] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: v}}
		}
		qdrantPoints[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: payload,
		}
	}

	wait := true
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           &wait,
		Points:         qdrantPoints,
	})
	if err != nil {
		return &UpsertError{Collection: collection, Cause: err}
	}
	return nil
}

func (s *GRPCStore) ListCollections(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, grpcRequestTimeout)
	defer cancel()
	return s.client.ListCollections(ctx)
}

func (s *GRPCStore) DeleteCollection(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, grpcRequestTimeout)
	defer cancel()
	return s.client.DeleteCollection(ctx, name)
}

func (s *GRPCStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func isAlreadyExists(err error) bool {
	if st, ok := status.FromError(err); ok && st.Code() == codes.AlreadyExists {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "already exists")
}

// configuredVectorSize reads the single-vector dimensionality off collection
// info; named-vector collections are not used by this service.
func configuredVectorSize(info *qdrant.CollectionInfo) uint64 {
	return info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
}
