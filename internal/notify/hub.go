package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"solo-rising/internal/model"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are checked by the CORS layer in front of the router.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub keeps the websocket connections of each user and pushes events to
// them. All map access happens on the Run goroutine.
type Hub struct {
	clients    map[int64]map[*client]bool
	register   chan *client
	unregister chan *client
	deliver    chan delivery
	done       chan struct{}
}

type client struct {
	hub    *Hub
	userID int64
	conn   *websocket.Conn
	send   chan outbound
}

// outbound is one queued frame. When ack is set, writePump reports the
// result of writing the frame on it.
type outbound struct {
	data []byte
	ack  chan error
}

type delivery struct {
	userID int64
	msgs   [][]byte
	result chan []chan error
}

// NewHub creates a Hub. Call Run before serving connections.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[int64]map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		deliver:    make(chan delivery),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and deliveries until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	defer func() {
		close(h.done)
		for _, set := range h.clients {
			for c := range set {
				close(c.send)
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case c := <-h.register:
			set := h.clients[c.userID]
			if set == nil {
				set = make(map[*client]bool)
				h.clients[c.userID] = set
			}
			set[c] = true
			log.Debug().Int64("user_id", c.userID).Int("connections", len(set)).Msg("Websocket client connected")

		case c := <-h.unregister:
			h.remove(c)

		case d := <-h.deliver:
			var acks []chan error
			for c := range h.clients[d.userID] {
				if ack, ok := h.push(c, d.msgs); ok {
					acks = append(acks, ack)
				}
			}
			d.result <- acks
		}
	}
}

// push queues msgs on c, dropping the client when its buffer is full. The
// returned channel receives the write result of the last message.
func (h *Hub) push(c *client, msgs [][]byte) (chan error, bool) {
	ack := make(chan error, 1)
	for i, m := range msgs {
		out := outbound{data: m}
		if i == len(msgs)-1 {
			out.ack = ack
		}
		select {
		case c.send <- out:
		default:
			h.remove(c)
			return nil, false
		}
	}
	return ack, true
}

func (h *Hub) remove(c *client) {
	set, ok := h.clients[c.userID]
	if !ok || !set[c] {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	log.Debug().Int64("user_id", c.userID).Msg("Websocket client disconnected")
}

// Name implements Sender.
func (h *Hub) Name() string { return "websocket" }

// Send implements Sender. It reports true only when every event was written
// to at least one connection of the user. Events that are merely queued do
// not count, so they stay pending for the notifications endpoint.
func (h *Hub) Send(ctx context.Context, user *model.User, events []Event) (bool, error) {
	if len(events) == 0 {
		return false, nil
	}
	msgs := make([][]byte, 0, len(events))
	for _, e := range events {
		b, err := json.Marshal(e)
		if err != nil {
			return false, err
		}
		msgs = append(msgs, b)
	}

	d := delivery{userID: user.ID, msgs: msgs, result: make(chan []chan error, 1)}
	select {
	case h.deliver <- d:
	case <-h.done:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}

	acks := <-d.result
	if len(acks) == 0 {
		return false, nil
	}

	timer := time.NewTimer(writeWait)
	defer timer.Stop()

	delivered := false
	for _, ack := range acks {
		select {
		case err := <-ack:
			if err == nil {
				delivered = true
			}
		case <-timer.C:
			return delivered, nil
		case <-ctx.Done():
			return delivered, ctx.Err()
		}
	}
	return delivered, nil
}

// ServeWS upgrades the request and attaches the connection to userID.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID int64) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}

	c := &client{hub: h, userID: userID, conn: conn, send: make(chan outbound, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump only watches for the peer closing the connection.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Int64("user_id", c.userID).Msg("Websocket read error")
			}
			return
		}
	}
}

// failQueued rejects frames still buffered after the writer stopped, so
// senders waiting on them do not have to time out.
func (c *client) failQueued() {
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if msg.ack != nil {
				msg.ack <- websocket.ErrCloseSent
			}
		default:
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.failQueued()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			err := c.conn.WriteMessage(websocket.TextMessage, msg.data)
			if msg.ack != nil {
				msg.ack <- err
			}
			if err != nil {
				log.Warn().Err(err).Int64("user_id", c.userID).Msg("Websocket write error")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
