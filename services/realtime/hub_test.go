package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/infobank/intranet/core"
	"github.com/infobank/intranet/core/user"
	logsvc "github.com/infobank/intranet/services/logger"
)

func newTestHub() (*Hub, *core.Bus) {
	bus := core.NewBus()
	return NewHub(bus, logsvc.NewStdLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags))), bus
}

func dialTestClient(t *testing.T, hub *Hub, userID string, topics ...string) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade(): %v", err)
			return
		}
		hub.ServeClient(conn, userID, topics)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial(): %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage(): %v", err)
	}
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("Unmarshal(%s): %v", data, err)
	}
	return frame
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount() = %v; want %v", hub.ClientCount(), want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func Test_Hub_relaysTopicEvents(t *testing.T) {
	hub, bus := newTestHub()
	conn := dialTestClient(t, hub, "u1", "cursos")
	waitForClients(t, hub, 1)

	bus.Publish(core.Event{Topic: "cursos", Action: core.ActionUpdated, Doc: map[string]interface{}{"id": "c1"}})

	frame := readFrame(t, conn)
	if frame.Topic != "cursos" || frame.Action != core.ActionUpdated {
		t.Errorf("frame = %+v; want cursos/updated", frame)
	}
}

func Test_Hub_alwaysSubscribesAccountTopic(t *testing.T) {
	hub, bus := newTestHub()
	conn := dialTestClient(t, hub, "u1" /* no topics */)
	waitForClients(t, hub, 1)

	// the auto-logout guard rides on the account feed
	bus.Publish(core.Event{
		Topic:  user.AccountTopic("u1"),
		Action: core.ActionUpdated,
		Doc:    user.BlockedEvent{Estado: user.EstadoBloqueado, LogoutAfter: 15, Message: "bloqueado"},
	})

	frame := readFrame(t, conn)
	if frame.Topic != user.AccountTopic("u1") {
		t.Errorf("frame topic = %v; want %v", frame.Topic, user.AccountTopic("u1"))
	}
}

func Test_Hub_dropsDisconnectedClients(t *testing.T) {
	hub, _ := newTestHub()
	conn := dialTestClient(t, hub, "u1", "cursos")
	waitForClients(t, hub, 1)

	_ = conn.Close()
	waitForClients(t, hub, 0)
}
