package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/promptlab/promptlab/internal/session"
)

// StreamHandler serves interactive generation sessions over WebSocket.
//
// The client sends {"type":"generate", ...session.Request} to start a cycle
// and {"type":"stop"} to abort it. The server relays every session.Update as
// a JSON message; a settled/aborted/errored update ends the cycle but the
// connection stays open for the next prompt.
type StreamHandler struct {
	controller    *session.Controller
	allowedOrigin string
	isDev         bool
	logger        *slog.Logger
}

// NewStreamHandler creates the WebSocket generation handler.
func NewStreamHandler(controller *session.Controller, allowedOrigin string, isDev bool, logger *slog.Logger) *StreamHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamHandler{
		controller:    controller,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
		logger:        logger,
	}
}

// clientMessage is what the browser sends over the socket.
type clientMessage struct {
	Type string `json:"type"`
	session.Request
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Error("failed to accept WebSocket", "error", err)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			h.logger.Debug("failed to close websocket", "error", closeErr)
		}
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	defer h.controller.Stop()

	// Writes come from the relay goroutine and error replies from the read
	// loop, so they need to be serialized.
	var writeMu sync.Mutex
	writeJSON := func(v interface{}) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		return ws.Write(ctx, websocket.MessageText, raw)
	}

	var relayWG sync.WaitGroup
	defer relayWG.Wait()

	for {
		_, raw, err := ws.Read(ctx)
		if err != nil {
			if ctx.Err() == nil && websocket.CloseStatus(err) == -1 {
				h.logger.Debug("websocket read failed", "error", err)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			if err := writeJSON(map[string]string{"error": "invalid message"}); err != nil {
				return
			}
			continue
		}

		switch msg.Type {
		case "stop":
			h.controller.Stop()

		case "generate":
			updates, err := h.controller.Run(ctx, msg.Request)
			if err != nil {
				status := "error"
				if errors.Is(err, session.ErrBusy) {
					status = "busy"
				}
				if err := writeJSON(map[string]string{"error": err.Error(), "status": status}); err != nil {
					return
				}
				continue
			}

			relayWG.Add(1)
			go func() {
				defer relayWG.Done()
				// An errored update arrives together with its non-nil error;
				// the update already carries the human-readable message, so
				// every update is relayed as-is.
				for update := range updates {
					if writeErr := writeJSON(update); writeErr != nil {
						h.logger.Debug("websocket write failed, stopping generation", "error", writeErr)
						h.controller.Stop()
						return
					}
				}
			}()

		default:
			if err := writeJSON(map[string]string{"error": "unknown message type"}); err != nil {
				return
			}
		}
	}
}

func (h *StreamHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || origin == h.allowedOrigin
}
