package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, hub *Hub, wallet, role string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		HandleWebSocket(hub, w, r, wallet, role)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) WebSocketMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg WebSocketMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHubDeliversParcelUpdatesByWallet(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub()
	go hub.Run(ctx)

	sender := dialHub(t, hub, "0xSENDER", "sender")
	driver := dialHub(t, hub, "0xdriver", "driver")
	require.Eventually(t, func() bool { return hub.GetConnectedClients() == 2 }, 2*time.Second, 10*time.Millisecond)

	hub.SendParcelUpdate(ParcelEvent{
		Type:          EventParcelUpdate,
		ParcelID:      "5",
		Status:        "accepted",
		SenderAddress: "0xsender",
		DriverAddress: "0xDRIVER",
		Action:        "accepted",
	})

	for _, conn := range []*websocket.Conn{sender, driver} {
		msg := readMessage(t, conn)
		assert.Equal(t, EventParcelUpdate, msg.Type)
		data := msg.Data.(map[string]interface{})
		assert.Equal(t, "5", data["parcelId"])
		assert.Equal(t, "accepted", data["status"])
	}
}

func TestHubAnnouncesNewParcelsToDrivers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub()
	go hub.Run(ctx)

	driver := dialHub(t, hub, "0xd1", "driver")
	require.Eventually(t, func() bool { return hub.GetConnectedClients() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.SendParcelUpdate(ParcelEvent{Type: EventParcelUpdate, ParcelID: "9", Status: "pending", SenderAddress: "0xs", Action: "created"})

	msg := readMessage(t, driver)
	assert.Equal(t, EventParcelAvailable, msg.Type)
}

func TestHubPing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub()
	go hub.Run(ctx)

	conn := dialHub(t, hub, "0xabc", "sender")
	require.Eventually(t, func() bool { return hub.GetConnectedClients() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(WebSocketMessage{Type: "ping"}))
	assert.Equal(t, EventPong, readMessage(t, conn).Type)
}

func TestNilHubIsNoop(t *testing.T) {
	var hub *Hub
	assert.NotPanics(t, func() {
		hub.SendParcelUpdate(ParcelEvent{SenderAddress: "0x1"})
	})
	assert.Equal(t, 0, hub.GetConnectedClients())
}
