package ws

import (
	"encoding/json"

	"github.com/sirupsen/logrus"
)

// Hub maintains the set of subscribed clients and fans anomaly events out
// to them. It is the boundary for downstream notification consumers; the
// engine itself never talks to clients. The clients map is touched only by
// the Run goroutine; everything else goes through the channels.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	logger     *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	if logger == nil {
		logger = logrus.New()
	}
	return &Hub{
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.logger.WithField("remote", client.conn.RemoteAddr().String()).
				Debug("websocket client registered")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow or gone; drop it.
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// BroadcastEvent pushes one anomaly event to every subscriber.
func (h *Hub) BroadcastEvent(event interface{}) {
	message, err := json.Marshal(map[string]interface{}{
		"type":    "anomaly",
		"payload": event,
	})
	if err != nil {
		h.logger.WithError(err).Error("marshal anomaly event for broadcast")
		return
	}
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("websocket broadcast buffer full, dropping event")
	}
}
