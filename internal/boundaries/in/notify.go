package in

import (
	"context"
	"encoding/json"
)

// NotifyService defines the contract for processing a registry webhook
// notification batch. Items are raw JSON so a single malformed envelope
// can be skipped without poisoning the rest of the batch.
type NotifyService interface {
	ProcessBatch(ctx context.Context, events []json.RawMessage) error
}
