package integration

import (
	"context"
	"fmt"
	"strings"
)

var storageProviders = map[string]struct{}{
	"AWS":   {},
	"AZURE": {},
	"GCP":   {},
}

var storageOperations = map[string]struct{}{
	"UPLOAD":   {},
	"DOWNLOAD": {},
	"LIST":     {},
	"DELETE":   {},
}

// Storage validates and acknowledges cloud object-store operations. The
// provider SDK calls are not wired up; the node exists so flows can be
// authored and tested end to end before a deployment enables a provider.
type Storage struct{}

func NewStorage() *Storage { return &Storage{} }

func (s *Storage) Execute(_ context.Context, config map[string]any, _ map[string]string) (map[string]any, error) {
	provider := strings.ToUpper(configString(config, "provider"))
	operation := strings.ToUpper(configString(config, "operation"))
	bucket := configString(config, "bucket")
	filePath := configString(config, "filePath")

	if _, ok := storageProviders[provider]; !ok {
		return nil, fmt.Errorf("storage: unsupported provider %q", provider)
	}
	if _, ok := storageOperations[operation]; !ok {
		return nil, fmt.Errorf("storage: unsupported operation %q", operation)
	}

	output := map[string]any{
		"status":    "SUCCESS",
		"provider":  provider,
		"operation": operation,
		"bucket":    bucket,
		"filePath":  filePath,
		"message":   fmt.Sprintf("Successfully performed %s on %s in %s (%s)", operation, filePath, bucket, provider),
	}
	if operation == "LIST" {
		output["data"] = []any{}
	}
	return output, nil
}
