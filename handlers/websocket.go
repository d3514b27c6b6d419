package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"chatrelay/config"
	"chatrelay/hub"
	"chatrelay/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
)

type Server struct {
	cfg        *config.Config
	hub        *hub.Hub
	dispatcher *Dispatcher
	log        *slog.Logger
	upgrader   websocket.Upgrader
}

func NewServer(cfg *config.Config, h *hub.Hub, d *Dispatcher, c *cors.Cors, logger *slog.Logger) *Server {
	return &Server{
		cfg:        cfg,
		hub:        h,
		dispatcher: d,
		log:        logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// non-browser clients send no Origin
				if r.Header.Get("Origin") == "" {
					return true
				}
				return c.OriginAllowed(r)
			},
		},
	}
}

func (s *Server) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("ws.upgrade_failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	client := newClient(uuid.NewString(), conn, s.cfg.ClientSendBuffer)
	s.hub.Attach(client)
	client.Send(models.ConnectedEvent(client.ID()))
	s.log.Info("ws.connected", "conn", client.ID(), "remote", r.RemoteAddr)

	go s.writePump(client)
	go s.readPump(client)
}

func (s *Server) readPump(c *Client) {
	defer func() {
		s.dispatcher.Dispatch(c, models.Disconnect{})
		c.Close()
		s.log.Info("ws.closed", "conn", c.ID())
	}()

	c.conn.SetReadLimit(s.cfg.MaxFrameBytes)
	c.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.log.Warn("ws.read_failed", "conn", c.ID(), "err", err)
			}
			return
		}
		s.dispatcher.HandleFrame(c, raw)
	}
}

func (s *Server) writePump(c *Client) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := c.conn.WriteJSON(ev); err != nil {
				c.Close()
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
