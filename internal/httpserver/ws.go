package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"lv-tradesense/internal/accounts"
	"lv-tradesense/internal/marketdata"
	"lv-tradesense/internal/types"

	"github.com/gorilla/websocket"
)

const wsWriteWait = 10 * time.Second

// WSHandler streams quotes to everyone and challenge events only to their owner.
type WSHandler struct {
	bus      *marketdata.Bus
	auth     TokenParser
	accounts *accounts.Service
	upgrader websocket.Upgrader
}

func NewWSHandler(bus *marketdata.Bus, auth TokenParser, accountSvc *accounts.Service, origin string) *WSHandler {
	return &WSHandler{
		bus:      bus,
		auth:     auth,
		accounts: accountSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return allowOrigin(r, origin) },
		},
	}
}

type wsControlMessage struct {
	Type string `json:"type"`
}

func allowOrigin(r *http.Request, origin string) bool {
	if origin == "*" {
		return true
	}
	reqOrigin := r.Header.Get("Origin")
	if reqOrigin == "" {
		return true
	}
	for _, allowed := range strings.Split(origin, ",") {
		if strings.EqualFold(strings.TrimSpace(allowed), reqOrigin) {
			return true
		}
	}
	return false
}

func deliverTo(evt marketdata.Event, userID string) bool {
	return evt.UserID == "" || evt.UserID == userID
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	userID, err := h.auth.ParseToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	sub := h.bus.Subscribe()
	defer h.bus.Unsubscribe(sub)

	requests := make(chan string, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var ctrl wsControlMessage
			if err := json.Unmarshal(payload, &ctrl); err != nil {
				continue
			}
			select {
			case requests <- strings.ToLower(strings.TrimSpace(ctrl.Type)):
			default:
			}
		}
	}()

	for {
		select {
		case evt, ok := <-sub:
			if !ok {
				return
			}
			if !deliverTo(evt, userID) {
				continue
			}
			if err := h.write(conn, evt); err != nil {
				return
			}
		case kind := <-requests:
			if kind != "challenge_snapshot" || h.accounts == nil {
				continue
			}
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			c, err := h.accounts.Active(ctx, userID)
			cancel()
			var data any = map[string]string{"error": "no active challenge"}
			if err == nil {
				report, err := h.accounts.Status(r.Context(), userID, c.ID)
				if err == nil {
					data = report
				}
			}
			if err := h.write(conn, marketdata.Event{Type: types.EventTypeChallengeStatus, UserID: userID, Data: data}); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *WSHandler) write(conn *websocket.Conn, evt marketdata.Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(evt)
}
