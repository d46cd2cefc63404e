package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"table-views/view"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsMessage struct {
	Type     string         `json:"type"`
	Snapshot *view.Snapshot `json:"snapshot,omitempty"`
}

// handleWS streams store snapshots: the current state right away, then one
// message per change. The client only listens; anything it sends is read and
// dropped so close frames are noticed.
func (h *handler) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	// Subscribe before taking the first snapshot so no change falls between.
	updates, cancel := h.store.Subscribe()
	defer cancel()

	send := func(snap view.Snapshot) error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return conn.WriteJSON(wsMessage{Type: "snapshot", Snapshot: &snap})
	}
	if err := send(h.store.Snapshot()); err != nil {
		h.log.Debug().Err(err).Msg("websocket initial snapshot failed")
		return
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := send(snap); err != nil {
				h.log.Debug().Err(err).Msg("websocket send failed")
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}
