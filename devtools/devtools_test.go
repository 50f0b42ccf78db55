package devtools

import (
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

func TestFrames(t *testing.T) {
	t.Run("init frame", func(t *testing.T) {
		e := NewEvent(ActionInit, "counter", map[string]any{"count": 1}, nil)

		data, err := EncodeFrame(e)
		require.NoError(t, err)

		var f Frame
		require.NoError(t, json.Unmarshal(data, &f))
		assert.Equal(t, FrameInit, f.Type)
		assert.NotContains(t, f.Payload, "oldData")

		decoded, err := DecodeFrame(data)
		require.NoError(t, err)
		assert.Equal(t, e.ID, decoded.ID)
		assert.Equal(t, "counter", decoded.StoreName)
		assert.Equal(t, float64(1), decoded.NewData["count"])
		assert.True(t, e.Timestamp.Equal(decoded.Timestamp))
	})

	t.Run("update frame", func(t *testing.T) {
		e := NewEvent(ActionUpdate, "counter", map[string]any{"count": 2}, map[string]any{"count": 1})

		data, err := EncodeFrame(e)
		require.NoError(t, err)

		var f Frame
		require.NoError(t, json.Unmarshal(data, &f))
		assert.Equal(t, FrameUpdate, f.Type)

		decoded, err := DecodeFrame(data)
		require.NoError(t, err)
		assert.Equal(t, float64(1), decoded.OldData["count"])
	})

	t.Run("unencodable data", func(t *testing.T) {
		_, err := EncodeFrame(NewEvent(ActionUpdate, "x", map[string]any{"ch": make(chan int)}, nil))
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := DecodeFrame([]byte("nope"))
		assert.Error(t, err)
	})
}

func TestBuffer(t *testing.T) {
	b := NewBuffer(2)
	for _, name := range []string{"a", "b", "c"} {
		b.Emit(Event{StoreName: name})
	}

	events := b.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "b", events[0].StoreName)
	assert.Equal(t, "c", events[1].StoreName)

	assert.Len(t, b.Take(), 2)
	assert.Equal(t, 0, b.Len())
}

func TestMulti(t *testing.T) {
	a, b := NewBuffer(0), NewBuffer(0)
	Multi{a, b}.Emit(Event{StoreName: "x"})

	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 1, b.Len())
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func read(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	e, err := DecodeFrame(data)
	require.NoError(t, err)
	return e
}

func TestHub(t *testing.T) {
	t.Run("replays history then streams", func(t *testing.T) {
		hub := NewHub(HubOptions{})
		srv := httptest.NewServer(NewRouter(hub, nil))
		defer srv.Close()
		defer hub.Close()

		hub.Emit(NewEvent(ActionInit, "counter", map[string]any{"count": 1}, nil))

		conn := dial(t, srv)
		assert.Equal(t, ActionInit, read(t, conn).Action)

		require.Eventually(t, func() bool { return hub.Clients() == 1 }, 5*time.Second, time.Millisecond)

		hub.Emit(NewEvent(ActionUpdate, "counter", map[string]any{"count": 2}, map[string]any{"count": 1}))
		e := read(t, conn)
		assert.Equal(t, ActionUpdate, e.Action)
		assert.Equal(t, float64(2), e.NewData["count"])
	})

	t.Run("replays more history than the client backlog", func(t *testing.T) {
		hub := NewHub(HubOptions{})
		srv := httptest.NewServer(NewRouter(hub, nil))
		defer srv.Close()
		defer hub.Close()

		for i := range clientBacklog + 36 {
			hub.Emit(NewEvent(ActionUpdate, "counter", map[string]any{"count": i}, nil))
		}

		conn := dial(t, srv)
		for i := range clientBacklog + 36 {
			assert.Equal(t, float64(i), read(t, conn).NewData["count"])
		}
	})

	t.Run("events emitted while connecting arrive exactly once", func(t *testing.T) {
		hub := NewHub(HubOptions{})
		srv := httptest.NewServer(NewRouter(hub, nil))
		defer srv.Close()
		defer hub.Close()

		const total = 50
		done := make(chan struct{})
		go func() {
			defer close(done)
			for i := range total {
				hub.Emit(NewEvent(ActionUpdate, "counter", map[string]any{"count": i}, nil))
			}
		}()

		conn := dial(t, srv)
		<-done

		// the replay may start anywhere in the sequence, after that nothing
		// repeats and nothing is missing
		first := read(t, conn).NewData["count"].(float64)
		for want := first + 1; want < total; want++ {
			assert.Equal(t, want, read(t, conn).NewData["count"])
		}
	})

	t.Run("close disconnects clients", func(t *testing.T) {
		hub := NewHub(HubOptions{})
		srv := httptest.NewServer(NewRouter(hub, nil))
		defer srv.Close()

		conn := dial(t, srv)
		require.Eventually(t, func() bool { return hub.Clients() == 1 }, 5*time.Second, time.Millisecond)

		hub.Close()

		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, _, err := conn.ReadMessage()
		assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
		assert.Equal(t, 0, hub.Clients())
	})

	t.Run("history is bounded", func(t *testing.T) {
		hub := NewHub(HubOptions{History: 1})
		hub.Emit(Event{StoreName: "a"})
		hub.Emit(Event{StoreName: "b"})

		history := hub.History()
		require.Len(t, history, 1)
		assert.Equal(t, "b", history[0].StoreName)
	})
}

func TestRouter(t *testing.T) {
	hub := NewHub(HubOptions{})
	srv := httptest.NewServer(NewRouter(hub, map[string]http.Handler{
		"/ping": http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("pong")) }),
	}))
	defer srv.Close()

	t.Run("empty history", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/events")
		require.NoError(t, err)
		defer resp.Body.Close()

		var events []Event
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
		assert.NotNil(t, events)
		assert.Empty(t, events)
	})

	t.Run("history", func(t *testing.T) {
		hub.Emit(NewEvent(ActionInit, "counter", map[string]any{"count": 1}, nil))

		resp, err := http.Get(srv.URL + "/events")
		require.NoError(t, err)
		defer resp.Body.Close()

		var events []Event
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
		require.Len(t, events, 1)
		assert.Equal(t, "counter", events[0].StoreName)
	})

	t.Run("healthz", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/healthz")
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	t.Run("extra handlers", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/ping")
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
