package vectorstore

import (
	"fmt"

	"edu-assistant-platform/internal/config"
)

// NewStore selects the store adapter once at startup based on configuration.
func NewStore(cfg *config.Config) (Store, error) {
	switch cfg.VectorStoreMode {
	case "grpc", "":
		return NewGRPCStore(cfg)
	case "rest":
		return NewRESTStore(cfg), nil
	default:
		return nil, fmt.Errorf("unknown vector store mode: %s", cfg.VectorStoreMode)
	}
}
