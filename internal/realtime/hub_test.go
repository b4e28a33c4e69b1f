package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(id string, contentID int64) *Client {
	return &Client{
		ID:        id,
		ContentID: contentID,
		send:      make(chan WSMessage, 8),
		logger:    zap.NewNop(),
	}
}

func TestHubViewerCount(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	require.Zero(t, hub.ViewerCount(100))

	a := newTestClient("a", 100)
	b := newTestClient("b", 100)
	c := newTestClient("c", 200)
	hub.Register(a)
	hub.Register(b)
	hub.Register(c)

	require.Equal(t, 2, hub.ViewerCount(100))
	require.Equal(t, 1, hub.ViewerCount(200))

	hub.Unregister(a)
	require.Equal(t, 1, hub.ViewerCount(100))
	hub.Unregister(b)
	require.Zero(t, hub.ViewerCount(100))
	require.Equal(t, 1, hub.ViewerCount(200))
}

func TestHubBroadcastReachesOnlyItsRoom(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	a := newTestClient("a", 100)
	c := newTestClient("c", 200)
	hub.Register(a)
	hub.Register(c)

	hub.BroadcastToContent(100, "video_changed", map[string]interface{}{
		"content_id": int64(100),
		"video_id":   int64(7),
	})

	select {
	case msg := <-a.send:
		require.Equal(t, "video_changed", msg.Event)
		var payload struct {
			VideoID int64 `json:"video_id"`
		}
		require.NoError(t, json.Unmarshal(msg.Data, &payload))
		require.Equal(t, int64(7), payload.VideoID)
	default:
		t.Fatal("expected a message in the content room")
	}
	require.Empty(t, c.send, "other rooms must not receive the event")
}
