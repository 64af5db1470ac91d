package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"risk-core/internal/events"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsEnvelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// websocket streams risk alerts and trade outcomes to the UI.
func (s *Server) websocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}
	defer conn.Close()

	if s.Bus == nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"bus not ready"}`))
		return
	}

	alerts, unsubAlerts := s.Bus.Subscribe(events.EventRiskAlert, 100)
	defer unsubAlerts()
	blocked, unsubBlocked := s.Bus.Subscribe(events.EventTradeBlocked, 100)
	defer unsubBlocked()
	equity, unsubEquity := s.Bus.Subscribe(events.EventEquityUpdate, 100)
	defer unsubEquity()

	for {
		var env wsEnvelope
		select {
		case msg, ok := <-alerts:
			if !ok {
				return
			}
			env = wsEnvelope{Event: string(events.EventRiskAlert), Payload: msg}
		case msg, ok := <-blocked:
			if !ok {
				return
			}
			env = wsEnvelope{Event: string(events.EventTradeBlocked), Payload: msg}
		case msg, ok := <-equity:
			if !ok {
				return
			}
			env = wsEnvelope{Event: string(events.EventEquityUpdate), Payload: msg}
		}
		if err := conn.WriteJSON(env); err != nil {
			log.Printf("ws write error: %v", err)
			return
		}
	}
}
