// Package integration holds the outbound connectors the action nodes
// delegate to: messaging, storage, databases, mail and LLM providers.
// Each connector receives resolved config and decrypted credentials and
// returns plain structured output for the execution record.
package integration

import "context"

type Integration interface {
	// Execute performs the action. Config is fully resolved; credentials
	// map credential field names to decrypted secrets.
	Execute(ctx context.Context, config map[string]any, credentials map[string]string) (map[string]any, error)
}

func configString(config map[string]any, key string) string {
	if raw, ok := config[key]; ok {
		if str, ok := raw.(string); ok {
			return str
		}
	}
	return ""
}
