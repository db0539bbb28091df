package eventbus

import (
	"sync"
	"testing"
	"time"

	"github.com/bnema/zerowrap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cainy/dockhand/internal/domain"
)

// recordingHandler collects events it receives.
type recordingHandler struct {
	mu     sync.Mutex
	only   domain.RegistryEventType
	events []domain.RegistryEvent
}

func (h *recordingHandler) Handle(event domain.RegistryEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return nil
}

func (h *recordingHandler) CanHandle(eventType domain.RegistryEventType) bool {
	return h.only == "" || h.only == eventType
}

func (h *recordingHandler) received() []domain.RegistryEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]domain.RegistryEvent, len(h.events))
	copy(out, h.events)
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestInMemory_OrderedDispatch(t *testing.T) {
	bus := NewInMemory(10, zerowrap.Default())
	handler := &recordingHandler{}

	require.NoError(t, bus.Subscribe(handler))
	require.NoError(t, bus.Start())
	defer func() { _ = bus.Stop() }()

	events := []domain.RegistryEvent{
		{Type: domain.EventManifestPushed, ID: "1", TargetDigest: "sha256:x"},
		{Type: domain.EventBlobPushed, ID: "2", TargetDigest: "sha256:y"},
		{Type: domain.EventManifestDeleted, ID: "3", TargetDigest: "sha256:x"},
	}
	for _, e := range events {
		require.NoError(t, bus.Publish(e))
	}

	waitFor(t, func() bool { return len(handler.received()) == 3 })

	got := handler.received()
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "2", got[1].ID)
	assert.Equal(t, "3", got[2].ID)
}

func TestInMemory_HandlerFiltering(t *testing.T) {
	bus := NewInMemory(10, zerowrap.Default())
	tagHandler := &recordingHandler{only: domain.EventTagDeleted}
	allHandler := &recordingHandler{}

	require.NoError(t, bus.Subscribe(tagHandler))
	require.NoError(t, bus.Subscribe(allHandler))
	require.NoError(t, bus.Start())
	defer func() { _ = bus.Stop() }()

	require.NoError(t, bus.Publish(domain.RegistryEvent{Type: domain.EventTagDeleted, ID: "1"}))
	require.NoError(t, bus.Publish(domain.RegistryEvent{Type: domain.EventBlobPushed, ID: "2"}))

	waitFor(t, func() bool { return len(allHandler.received()) == 2 })

	assert.Len(t, tagHandler.received(), 1)
	assert.Equal(t, "1", tagHandler.received()[0].ID)
}

func TestInMemory_PublishAfterStop(t *testing.T) {
	bus := NewInMemory(10, zerowrap.Default())
	require.NoError(t, bus.Start())
	require.NoError(t, bus.Stop())

	err := bus.Publish(domain.RegistryEvent{Type: domain.EventBlobPushed, ID: "1"})
	assert.Error(t, err)
}

func TestInMemory_Unsubscribe(t *testing.T) {
	bus := NewInMemory(10, zerowrap.Default())
	handler := &recordingHandler{}

	require.NoError(t, bus.Subscribe(handler))
	require.NoError(t, bus.Unsubscribe(handler))
	assert.Error(t, bus.Unsubscribe(handler), "second unsubscribe finds nothing")
}
