package controllers

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	logrus "github.com/sirupsen/logrus"

	"field_tracker/internal/metrics"
	"field_tracker/internal/middleware"
	"field_tracker/internal/models"
)

const (
	writeWait      = 10 * time.Second
	clientBuffer   = 32
	broadcastQueue = 256
)

// upgrader configures the WebSocket connection.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the admin token is checked before the upgrade
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// feedClient is one dashboard connection. An empty users set means every user.
type feedClient struct {
	conn  *websocket.Conn
	users map[uint]bool
	send  chan models.Track
}

func (fc *feedClient) wants(userID uint) bool {
	return len(fc.users) == 0 || fc.users[userID]
}

// LocationHub fans stored tracks out to live dashboard connections.
type LocationHub struct {
	clients   map[*feedClient]bool
	broadcast chan models.Track
	mu        sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
	metrics   *metrics.Metrics
}

// NewLocationHub creates a hub and starts its broadcast loop.
func NewLocationHub(m *metrics.Metrics) *LocationHub {
	hub := &LocationHub{
		clients:   make(map[*feedClient]bool),
		broadcast: make(chan models.Track, broadcastQueue),
		done:      make(chan struct{}),
		metrics:   m,
	}
	go hub.run()
	return hub
}

func (h *LocationHub) run() {
	for {
		select {
		case track := <-h.broadcast:
			h.fanOut(track)
		case <-h.done:
			return
		}
	}
}

func (h *LocationHub) fanOut(track models.Track) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if !client.wants(track.UserID) {
			continue
		}
		select {
		case client.send <- track:
		default:
			h.dropped()
			logrus.WithFields(logrus.Fields{
				"user_id":  track.UserID,
				"conn_ptr": fmt.Sprintf("%p", client.conn),
			}).Warn("live feed client too slow, dropping track")
		}
	}
}

// PublishTrack queues a track for broadcast without blocking the caller.
func (h *LocationHub) PublishTrack(track models.Track) {
	select {
	case h.broadcast <- track:
	default:
		h.dropped()
		logrus.Warn("live feed broadcast queue full, dropping track")
	}
}

// Close stops the broadcast loop. Open connections stay until their peers leave.
func (h *LocationHub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Subscribers reports how many connections are registered.
func (h *LocationHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *LocationHub) register(client *feedClient) {
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.LiveSubscribers.Inc()
	}
	logrus.WithField("conn_ptr", fmt.Sprintf("%p", client.conn)).Info("live feed client registered")
}

func (h *LocationHub) unregister(client *feedClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.LiveSubscribers.Dec()
	}
	logrus.WithField("conn_ptr", fmt.Sprintf("%p", client.conn)).Info("live feed client unregistered")
}

func (h *LocationHub) dropped() {
	if h.metrics != nil {
		h.metrics.LiveDroppedTotal.Inc()
	}
}

// writePump is the only writer on the connection.
func (fc *feedClient) writePump() {
	for track := range fc.send {
		fc.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := fc.conn.WriteJSON(track); err != nil {
			logrus.WithError(err).WithField("conn_ptr", fmt.Sprintf("%p", fc.conn)).Warn("failed to send track to live feed client")
			fc.conn.Close()
			return
		}
	}
	fc.conn.SetWriteDeadline(time.Now().Add(writeWait))
	fc.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// HandleTrackFeed upgrades GET /admin/ws/tracks?token=...&id=1,2 to a
// websocket that receives every new track of the listed users, or of all
// users when id is absent.
func (h *LocationHub) HandleTrackFeed(c *gin.Context) {
	users := map[uint]bool{}
	if raw := c.Query("id"); raw != "" {
		ids, err := parseIDList(raw)
		if err != nil {
			adminError(c, err)
			return
		}
		for _, id := range ids {
			users[id] = true
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		middleware.Logger(c).WithError(err).Error("failed to upgrade websocket connection")
		return
	}
	defer conn.Close()

	client := &feedClient{conn: conn, users: users, send: make(chan models.Track, clientBuffer)}
	h.register(client)
	defer h.unregister(client)
	go client.writePump()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				middleware.Logger(c).WithError(err).Warn("live feed connection dropped")
			}
			return
		}
		// the feed is one-way; anything the dashboard sends is ignored
	}
}
