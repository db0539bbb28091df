package dto

import "encoding/json"

// NotifyRequest is the registry webhook payload: a batch of notification
// envelopes. Items are kept raw so one malformed envelope cannot poison
// the batch decode.
type NotifyRequest struct {
	Events []json.RawMessage `json:"events"`
}

// NotifyResponse acknowledges an accepted notification batch.
type NotifyResponse struct {
	Status string `json:"status"`
}
