package out

import (
	"github.com/cainy/dockhand/internal/domain"
)

// EventHandler defines the contract for handling classified registry
// events.
type EventHandler interface {
	Handle(event domain.RegistryEvent) error
	CanHandle(eventType domain.RegistryEventType) bool
}

// EventPublisher defines the contract for publishing classified registry
// events for asynchronous dispatch.
type EventPublisher interface {
	Publish(event domain.RegistryEvent) error
}

// EventSubscriber defines the contract for subscribing to registry
// events.
type EventSubscriber interface {
	Subscribe(handler EventHandler) error
	Unsubscribe(handler EventHandler) error
}

// EventBus combines publishing and subscribing with lifecycle management.
type EventBus interface {
	EventPublisher
	EventSubscriber
	Start() error
	Stop() error
}
