package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/MJE43/nearkarts-go/internal/store"
)

const (
	streamPage         = 500
	streamWriteTimeout = 5 * time.Second
)

// handleEventStream upgrades to a websocket and sends committed events as
// JSON text frames. With ?after=N the stream first replays stored events with
// a larger id; without it only live events are sent.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	last := int64(-1)
	if v := r.URL.Query().Get("after"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			s.errorHandler.HandleValidationError(w, r, "after", "after must be a non-negative event id")
			return
		}
		last = n
	}

	// Subscribe before reading the backlog so nothing committed in between
	// is missed. Duplicates are dropped by id below.
	var live <-chan store.Event
	if s.hub != nil {
		ch, cancel := s.hub.Subscribe()
		defer cancel()
		live = ch
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("ws_upgrade_failed request_id=%s error=%v", middleware.GetReqID(r.Context()), err)
		return
	}
	defer conn.Close()

	s.logger.Printf("ws_connected request_id=%s remote=%s after=%d", middleware.GetReqID(r.Context()), r.RemoteAddr, last)

	// Reader loop only detects the peer going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	sent, err := s.streamEvents(r, conn, last, live, gone)
	reason := "bye"
	if err != nil {
		reason = "stream error"
		s.logger.Printf("ws_stream_failed request_id=%s sent=%d error=%v", middleware.GetReqID(r.Context()), sent, err)
	}
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason), time.Now().Add(time.Second))
	conn.Close()

	select {
	case <-gone:
	case <-time.After(500 * time.Millisecond):
	}
	s.logger.Printf("ws_disconnected request_id=%s sent=%d", middleware.GetReqID(r.Context()), sent)
}

func (s *Server) streamEvents(r *http.Request, conn *websocket.Conn, last int64, live <-chan store.Event, gone <-chan struct{}) (int, error) {
	ctx := r.Context()
	sent := 0
	write := func(ev store.Event) error {
		if ev.ID <= last {
			return nil
		}
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		if err := conn.WriteJSON(ev); err != nil {
			return err
		}
		last = ev.ID
		sent++
		return nil
	}

	if last >= 0 {
		for {
			page, err := s.contract.Events(ctx, last, streamPage)
			if err != nil {
				return sent, err
			}
			for _, ev := range page {
				if err := write(ev); err != nil {
					return sent, err
				}
			}
			if len(page) < streamPage {
				break
			}
		}
	}

	for {
		select {
		case <-gone:
			return sent, nil
		case <-ctx.Done():
			return sent, nil
		case ev, ok := <-live:
			if !ok {
				return sent, nil
			}
			if err := write(ev); err != nil {
				return sent, err
			}
		}
	}
}
