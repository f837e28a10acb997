package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vestnik/vestnik/pkg/realtime"
	"github.com/vestnik/vestnik/pkg/storage"
)

const (
	// firehoseSnapshot caps how many stored items the init message carries.
	firehoseSnapshot = 50

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// addedAtLayout is how SQLite's datetime('now') renders added_at.
	addedAtLayout = "2006-01-02 15:04:05"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The firehose is public read-only data; CORS already allows any origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// firehoseInit is the first message on every connection: a snapshot of
// the most recently stored items, optionally filtered by ?since=.
type firehoseInit struct {
	Type  string               `json:"type"`
	Mode  string               `json:"mode"`
	Items []realtime.ItemEvent `json:"items"`
	Count int                  `json:"count"`
}

// HandleFirehose upgrades to a WebSocket, sends the init snapshot and
// then relays hub events as they arrive. Reconnecting clients pass
// ?since= with the added_at of the last item they saw to skip the part
// of the snapshot they already have.
func (s *Server) HandleFirehose(w http.ResponseWriter, r *http.Request) {
	var since time.Time
	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid_since", "since must be an RFC3339 timestamp")
			return
		}
		since = t.UTC()
	}

	items, err := s.store.RecentAdditions(r.Context(), firehoseSnapshot)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "snapshot_failed", err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("firehose upgrade failed: %v", err)
		return
	}
	connID := uuid.NewString()
	s.logger.Debugf("firehose %s connected from %s", connID, r.RemoteAddr)

	defer func() {
		if err := conn.Close(); err != nil {
			s.logger.Debugf("firehose %s close: %v", connID, err)
		}
		s.logger.Debugf("firehose %s disconnected", connID)
	}()

	init := firehoseInit{Type: "init", Mode: "snapshot", Items: make([]realtime.ItemEvent, 0, len(items))}
	if s.hub != nil {
		init.Mode = "push"
	}
	for _, it := range items {
		if !since.IsZero() && !addedAfter(it, since) {
			continue
		}
		init.Items = append(init.Items, realtime.FromItem(it))
	}
	init.Count = len(init.Items)

	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return
	}
	if err := conn.WriteJSON(init); err != nil {
		s.logger.Debugf("firehose %s init write failed: %v", connID, err)
		return
	}

	// The read loop exists to notice closes and answer pings; no client
	// messages are expected.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	var events <-chan realtime.Event
	if s.hub != nil {
		id, ch := s.hub.Register()
		defer s.hub.Unregister(id)
		events = ch
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// addedAfter reports whether the item was stored after the cursor.
// added_at has second precision, so an item stored in the same second
// as the cursor counts as already seen. Unparsable values are kept;
// clients dedupe by id.
func addedAfter(it storage.Item, since time.Time) bool {
	t, err := time.Parse(addedAtLayout, it.AddedAt)
	if err != nil {
		return true
	}
	return t.After(since)
}
