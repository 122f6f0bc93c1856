package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/internal/notify"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/logger"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = streamPongWait * 9 / 10
	streamReadLimit  = 512
)

// Subscriber registers per-user event callbacks. *notify.Bus satisfies it.
type Subscriber interface {
	Subscribe(channel notify.Channel, userID uuid.UUID, fn func(notify.Event)) func()
}

// StreamOptions configures the change-stream endpoints.
type StreamOptions struct {
	AllowedOrigins []string
	Buffer         int
}

// Stream upgrades to a WebSocket and forwards the caller's events on one channel.
// Events are dropped when the client falls behind by more than Buffer messages.
func Stream(channel notify.Channel, sub Subscriber, opts StreamOptions, logg *logger.Logger) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(opts.AllowedOrigins),
	}
	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = 16
	}

	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerOrReject(w, r, logg)
		if !ok {
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already written the HTTP error.
			logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "stream.upgrade_failed")
			return
		}
		ctx := logg.WithFields(r.Context(), map[string]any{
			"user_id": userID.String(),
			"channel": string(channel),
		})
		logg.Info(ctx, "stream.opened")

		events := make(chan notify.Event, buffer)
		unsubscribe := sub.Subscribe(channel, userID, func(event notify.Event) {
			select {
			case events <- event:
			default:
			}
		})
		defer unsubscribe()

		closed := make(chan struct{})
		go func() {
			defer close(closed)
			conn.SetReadLimit(streamReadLimit)
			_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
			conn.SetPongHandler(func(string) error {
				return conn.SetReadDeadline(time.Now().Add(streamPongWait))
			})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(streamPingPeriod)
		defer func() {
			ticker.Stop()
			_ = conn.Close()
			logg.Info(ctx, "stream.closed")
		}()

		for {
			select {
			case <-closed:
				return
			case <-r.Context().Done():
				return
			case event := <-events:
				_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
				if err := conn.WriteJSON(event); err != nil {
					return
				}
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	wildcard := false
	for _, origin := range allowed {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "*" {
			wildcard = true
		}
		if origin != "" {
			set[strings.ToLower(origin)] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || wildcard {
			return true
		}
		_, ok := set[strings.ToLower(strings.TrimRight(origin, "/"))]
		return ok
	}
}
