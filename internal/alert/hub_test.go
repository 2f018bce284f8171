package alert

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platewatch/internal/domain/plate"
)

func TestHubBroadcastsToConnectedClient(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	defer hub.Close()

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleConnection))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Registration races the first broadcast; give the hub a moment.
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.AlertRaised(plate.Alert{Number: "AB123AA", RaisedAt: time.Now()}))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg message
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, "alert", msg.Type)
	assert.True(t, msg.Sound)
	require.NotNil(t, msg.Alert)
	assert.Equal(t, "AB123AA", msg.Alert.Number)
}

func TestHubNotificationsWithoutClients(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	assert.NoError(t, hub.EntryLogged(plate.SessionLogEntry{Number: "AB123AA", Time: "12:00:00"}))
	assert.NoError(t, hub.AlertRaised(plate.Alert{Number: "AB123AA"}))
}
