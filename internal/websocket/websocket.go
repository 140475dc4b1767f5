package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mitchellh/mapstructure"

	"github.com/abrezinsky/crowdscore/internal/logger"
	"github.com/abrezinsky/crowdscore/internal/models"
	"github.com/abrezinsky/crowdscore/internal/services"
)

// Message types sent to clients
const (
	TypeBout  = "bout"
	TypeError = "error"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// BoutSource is the part of the scorecard service the hub needs
type BoutSource interface {
	Get(ctx context.Context, id string) (services.BoutView, error)
	Apply(ctx context.Context, id string, cmd services.BoutCommand) (services.BoutView, error)
}

type boutMessage struct {
	bout string
	msg  models.WSMessage
}

// Hub fans bout updates out to the clients watching each bout
type Hub struct {
	log        logger.Logger
	bouts      BoutSource
	clients    map[*Client]bool
	broadcast  chan boutMessage
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
}

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	bout string
	send chan models.WSMessage
}

// New creates a new Hub instance with injected dependencies
func New(log logger.Logger, bouts BoutSource) *Hub {
	return &Hub{
		log:        log,
		bouts:      bouts,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan boutMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Start begins the hub's main loop in a goroutine
func (h *Hub) Start() {
	go h.run()
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.log.Debug("Client connected", "bout", client.bout, "total_clients", total)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.log.Debug("Client disconnected", "bout", client.bout, "total_clients", total)

		case m := <-h.broadcast:
			h.mutex.RLock()
			for client := range h.clients {
				if client.bout != m.bout {
					continue
				}
				select {
				case client.send <- m.msg:
				default:
					// Client's send channel is full, unregister
					go func(c *Client) {
						h.unregister <- c
					}(client)
				}
			}
			h.mutex.RUnlock()
		}
	}
}

// BroadcastBout implements services.Broadcaster
func (h *Hub) BroadcastBout(boutID string, view services.BoutView) {
	h.broadcast <- boutMessage{
		bout: boutID,
		msg:  models.WSMessage{Type: TypeBout, Payload: view},
	}
}

// watchers returns how many clients are subscribed to a bout
func (h *Hub) watchers(boutID string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	n := 0
	for c := range h.clients {
		if c.bout == boutID {
			n++
		}
	}
	return n
}

// deliver queues a message for one client unless it has already gone
func (h *Hub) deliver(c *Client, msg models.WSMessage) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	if !h.clients[c] {
		return
	}
	select {
	case c.send <- msg:
	default:
		h.log.Warn("Dropped message for slow client", "bout", c.bout, "type", msg.Type)
	}
}

func errorMessage(err error) models.WSMessage {
	return models.WSMessage{Type: TypeError, Payload: map[string]string{"message": err.Error()}}
}

// handle applies one inbound command. The message type names the action and
// the payload carries its arguments.
func (c *Client) handle(ctx context.Context, msg models.WSMessage) {
	var cmd services.BoutCommand
	if msg.Payload != nil {
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &cmd,
		})
		if err == nil {
			err = dec.Decode(msg.Payload)
		}
		if err != nil {
			c.hub.deliver(c, errorMessage(err))
			return
		}
	}
	cmd.Action = msg.Type

	// On success the service broadcasts the new view to every watcher
	if _, err := c.hub.bouts.Apply(ctx, c.bout, cmd); err != nil {
		c.hub.log.Debug("Command rejected", "bout", c.bout, "action", cmd.Action, "error", err)
		c.hub.deliver(c, errorMessage(err))
	}
}

// readPump pumps commands from the websocket connection to the bout
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("WebSocket error", "error", err)
			}
			break
		}

		var msg models.WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.hub.deliver(c, errorMessage(err))
			continue
		}
		c.handle(context.Background(), msg)
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
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

// ServeWs subscribes a client to the bout named by the "bout" query
// parameter and sends it the current view.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	boutID := r.URL.Query().Get("bout")
	if boutID == "" {
		http.Error(w, "bout is required", http.StatusBadRequest)
		return
	}
	view, err := h.bouts.Get(r.Context(), boutID)
	if err != nil {
		http.Error(w, "bout not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("WebSocket upgrade error", "error", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		bout: boutID,
		send: make(chan models.WSMessage, 256),
	}
	client.send <- models.WSMessage{Type: TypeBout, Payload: view}
	h.register <- client

	go client.writePump()
	go client.readPump()
}
