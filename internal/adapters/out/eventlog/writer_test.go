package eventlog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cainy/dockhand/internal/domain"
)

func TestWriter_AppendsOneLinePerEvent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events", "audit.log")
	w, err := New(Config{Path: path, MaxSize: 10, MaxBackups: 1, MaxAge: 1})
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	events := []domain.RegistryEvent{
		{
			Type:             domain.EventManifestPushed,
			ID:               "evt-1",
			Timestamp:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			Action:           domain.EventActionPush,
			TargetRepository: "library/alpine",
			TargetDigest:     "sha256:abc",
			TargetMediaType:  domain.MediaTypeOCIImageManifest,
			ActorName:        "ci-bot",
		},
		{
			Type:      domain.EventTagDeleted,
			ID:        "evt-2",
			Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			Action:    domain.EventActionDelete,
			TargetTag: "v1.0.0",
		},
	}
	for _, e := range events {
		require.NoError(t, w.Handle(e))
	}

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		lines = append(lines, rec)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, lines, 2)

	assert.Equal(t, "manifest.pushed", lines[0]["type"])
	assert.Equal(t, "evt-1", lines[0]["event_id"])
	assert.Equal(t, "library/alpine", lines[0]["repository"])
	assert.Equal(t, "ci-bot", lines[0]["actor"])

	assert.Equal(t, "tag.deleted", lines[1]["type"])
	assert.Equal(t, "v1.0.0", lines[1]["tag"])
}

func TestWriter_RequiresPath(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestWriter_HandlesEveryEventType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	w, err := New(Config{Path: path, MaxSize: 10})
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	for _, et := range []domain.RegistryEventType{
		domain.EventManifestPushed,
		domain.EventBlobPulled,
		domain.EventBlobMounted,
		domain.EventManifestDeleted,
	} {
		assert.True(t, w.CanHandle(et))
	}
}
