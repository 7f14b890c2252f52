package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/msalah0e/castgraph/internal/aggregate"
	"github.com/msalah0e/castgraph/internal/explorer"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period (must be less than pongWait).
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The explorer is served from localhost only.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// message is the envelope for everything sent to the browser.
type message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// inbound is a browser-to-server message.
type inbound struct {
	Type    string `json:"type"`
	NodeID  int    `json:"node_id,omitempty"`
	ActorID int    `json:"actor_id,omitempty"`
	Min     int    `json:"min,omitempty"`
	Max     int    `json:"max,omitempty"`
}

type client struct {
	hub  *hub
	conn *websocket.Conn
	send chan message
}

func (s *Server) serveWS(c *gin.Context) {
	h, ok := s.lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warnw("websocket upgrade failed", "error", err)
		return
	}

	cl := &client{hub: h, conn: conn, send: make(chan message, sendBuffer)}

	// Late joiners get the current graph and frame straight away.
	if st, ok := h.session.Current(); ok {
		cl.send <- message{Type: string(explorer.EventUpdate), Data: explorer.Event{Type: explorer.EventUpdate, At: time.Now(), Update: &st}}
	}
	cl.send <- message{Type: "frame", Data: h.session.Engine().Snapshot()}
	h.add(cl)

	go cl.writePump()
	go cl.readPump()
}

// readPump applies browser commands until the connection closes.
func (c *client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNoStatusReceived) {
				c.hub.log.Warnw("websocket read error", "error", err)
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			c.hub.log.Debugw("bad websocket message", "error", err)
			continue
		}
		c.route(msg)
	}
}

func (c *client) route(msg inbound) {
	sess := c.hub.session
	switch msg.Type {
	case "activate":
		if err := sess.Activate(msg.NodeID, time.Now()); err != nil {
			c.hub.log.Debugw("activate rejected", "node_id", msg.NodeID, "error", err)
		}
	case "select":
		go func() { _ = sess.Select(c.hub.sessionContext(), msg.ActorID) }()
	case "range":
		go func() {
			_ = sess.SetYearRange(c.hub.sessionContext(), aggregate.YearRange{Min: msg.Min, Max: msg.Max})
		}()
	case "reheat":
		sess.Engine().Reheat()
	case "ping":
	default:
		c.hub.log.Debugw("unknown message type", "type", msg.Type)
	}
}

// writePump forwards queued messages and keeps the connection alive.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.hub.log.Debugw("websocket write error", "type", msg.Type, "error", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
