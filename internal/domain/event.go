package domain

import (
	"fmt"
	"time"
)

// EventAction is the action field of a registry notification envelope.
type EventAction string

const (
	EventActionPush   EventAction = "push"
	EventActionPull   EventAction = "pull"
	EventActionMount  EventAction = "mount"
	EventActionDelete EventAction = "delete"
)

// ParseEventAction maps a raw action string to an EventAction. Unknown
// strings are a protocol violation and fail with ErrInvalidEventAction;
// they are never silently defaulted.
func ParseEventAction(s string) (EventAction, error) {
	switch EventAction(s) {
	case EventActionPush, EventActionPull, EventActionMount, EventActionDelete:
		return EventAction(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidEventAction, s)
	}
}

// RegistryEventType identifies the typed domain event a notification
// envelope was classified into.
type RegistryEventType string

const (
	EventManifestPushed  RegistryEventType = "manifest.pushed"
	EventBlobPushed      RegistryEventType = "blob.pushed"
	EventManifestPulled  RegistryEventType = "manifest.pulled"
	EventBlobPulled      RegistryEventType = "blob.pulled"
	EventBlobMounted     RegistryEventType = "blob.mounted"
	EventTagDeleted      RegistryEventType = "tag.deleted"
	EventManifestDeleted RegistryEventType = "manifest.deleted"
	EventBlobDeleted     RegistryEventType = "blob.deleted"
)

// EventTarget is the target sub-object of a notification envelope. At
// least one of Tag or Digest is present; MediaType is optional.
type EventTarget struct {
	MediaType  string `json:"mediaType,omitempty"`
	Digest     string `json:"digest,omitempty"`
	Tag        string `json:"tag,omitempty"`
	Repository string `json:"repository,omitempty"`
	Size       int64  `json:"size,omitempty"`
	URL        string `json:"url,omitempty"`
}

// EventRequest carries the request metadata of an envelope.
type EventRequest struct {
	ID        string `json:"id,omitempty"`
	Addr      string `json:"addr,omitempty"`
	Host      string `json:"host,omitempty"`
	Method    string `json:"method,omitempty"`
	UserAgent string `json:"useragent,omitempty"`
}

// EventActor carries the actor metadata of an envelope.
type EventActor struct {
	Name string `json:"name,omitempty"`
}

// EventSource carries the source metadata of an envelope.
type EventSource struct {
	Addr       string `json:"addr,omitempty"`
	InstanceID string `json:"instanceID,omitempty"`
}

// EventEnvelope is one raw item of a registry webhook notification batch,
// mirroring the distribution notification wire format.
type EventEnvelope struct {
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	Action    string       `json:"action"`
	Target    *EventTarget `json:"target"`
	Request   EventRequest `json:"request"`
	Actor     EventActor   `json:"actor"`
	Source    EventSource  `json:"source"`
}

// StructurallyValid reports whether the envelope carries the fields every
// notification must have before classification is attempted. Envelopes
// failing this check are logged and skipped, not fatal.
func (e *EventEnvelope) StructurallyValid() bool {
	return e.ID != "" &&
		!e.Timestamp.IsZero() &&
		e.Action != "" &&
		e.Target != nil
}

// RegistryEvent is a typed domain event classified from one notification
// envelope. It is created by the notification classifier, never mutated,
// and consumed immediately by dispatch.
type RegistryEvent struct {
	Type      RegistryEventType
	ID        string
	Timestamp time.Time
	Action    EventAction

	TargetRepository string
	TargetDigest     string
	TargetTag        string
	TargetMediaType  MediaType
	TargetSize       int64
	TargetURL        string

	RequestID        string
	RequestAddr      string
	RequestHost      string
	RequestMethod    string
	RequestUserAgent string

	ActorName        string
	SourceAddr       string
	SourceInstanceID string
}
