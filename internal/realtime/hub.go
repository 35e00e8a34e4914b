package realtime

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/campuscanteen/canteen-service/pkg/models"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The session token authenticates the connection; cross-origin
		// browser clients are expected.
		return true
	},
}

// Authenticator resolves a session token into an identity.
type Authenticator interface {
	Identify(token string) (models.Identity, error)
}

// SnapshotLoader produces the current snapshot for a resolved topic so a
// fresh subscription starts with a full view before any mutation arrives.
type SnapshotLoader func(ctx context.Context, topic string, identity models.Identity) (interface{}, error)

// ResolveTopic maps a logical view name onto a broker topic, enforcing
// scope: diners get their own orders and notifications, staff get the
// unfiltered order feed.
func ResolveTopic(identity models.Identity, logical string) (string, error) {
	switch logical {
	case "menu":
		return TopicMenu, nil
	case "canteen":
		return TopicCanteen, nil
	case "orders":
		if identity.Admin {
			return TopicAllOrders, nil
		}
		return UserOrdersTopic(identity.UserID), nil
	case "notifications":
		return UserNotificationsTopic(identity.UserID), nil
	default:
		return "", fmt.Errorf("unknown topic %q", logical)
	}
}

// Hub bridges the snapshot broker to websocket clients.
type Hub struct {
	broker *Broker
	auth   Authenticator
	loader SnapshotLoader
	logger *logrus.Logger

	mutex   sync.RWMutex
	clients map[*client]bool
}

func NewHub(broker *Broker, auth Authenticator, loader SnapshotLoader, logger *logrus.Logger) *Hub {
	return &Hub{
		broker:  broker,
		auth:    auth,
		loader:  loader,
		logger:  logger,
		clients: make(map[*client]bool),
	}
}

type frame struct {
	Topic     string      `json:"topic"`
	Data      interface{} `json:"data"`
	Alert     bool        `json:"alert,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type control struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

type client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan frame
	identity models.Identity
	logger   *logrus.Logger

	mu     sync.Mutex
	subs   map[string]*clientSub
	closed bool
}

type clientSub struct {
	sub  *Subscription
	done chan struct{}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	identity, err := h.auth.Identify(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upgrade to WebSocket")
		return
	}

	c := &client{
		hub:      h,
		conn:     conn,
		send:     make(chan frame, 64),
		identity: identity,
		logger:   h.logger,
		subs:     make(map[string]*clientSub),
	}

	h.mutex.Lock()
	h.clients[c] = true
	count := len(h.clients)
	h.mutex.Unlock()
	h.logger.WithFields(logrus.Fields{
		"user_id":      identity.UserID,
		"client_count": count,
	}).Info("Sync client connected")

	go c.writePump()
	go c.readPump()
}

func (h *Hub) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) drop(c *client) {
	h.mutex.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
	}
	count := len(h.clients)
	h.mutex.Unlock()
	h.logger.WithField("client_count", count).Info("Sync client disconnected")
}

func (c *client) readPump() {
	defer func() {
		c.cancelAll()
		c.hub.drop(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		var msg control
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.WithError(err).Error("WebSocket error")
			}
			return
		}

		switch msg.Action {
		case "subscribe":
			c.subscribe(msg.Topic)
		case "unsubscribe":
			c.unsubscribe(msg.Topic)
		default:
			c.logger.WithField("action", msg.Action).Warn("Unknown sync action")
		}
	}
}

func (c *client) subscribe(logical string) {
	topic, err := ResolveTopic(c.identity, logical)
	if err != nil {
		c.logger.WithError(err).Warn("Rejected subscription")
		return
	}

	c.mu.Lock()
	if _, exists := c.subs[topic]; exists {
		c.mu.Unlock()
		return
	}
	sub := c.hub.broker.Subscribe(topic)
	cs := &clientSub{sub: sub, done: make(chan struct{})}
	c.subs[topic] = cs
	c.mu.Unlock()

	var tracker *AlertTracker
	if strings.HasPrefix(topic, "notifications.") {
		tracker = NewAlertTracker()
	}

	// Initial snapshot so the view is populated before any mutation.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	snapshot, err := c.hub.loader(ctx, topic, c.identity)
	cancel()
	if err != nil {
		c.logger.WithError(err).WithField("topic", topic).Error("Failed to load initial snapshot")
	} else {
		c.push(topic, snapshot, tracker)
	}

	go func() {
		for {
			select {
			case update, ok := <-sub.Updates():
				if !ok {
					return
				}
				c.push(update.Topic, update.Data, tracker)
			case <-cs.done:
				return
			}
		}
	}()
}

func (c *client) unsubscribe(logical string) {
	topic, err := ResolveTopic(c.identity, logical)
	if err != nil {
		return
	}

	c.mu.Lock()
	cs, ok := c.subs[topic]
	if ok {
		delete(c.subs, topic)
	}
	c.mu.Unlock()

	if ok {
		cs.sub.Cancel()
		close(cs.done)
	}
}

func (c *client) cancelAll() {
	c.mu.Lock()
	subs := c.subs
	c.subs = make(map[string]*clientSub)
	c.mu.Unlock()

	for _, cs := range subs {
		cs.sub.Cancel()
		close(cs.done)
	}
}

func (c *client) push(topic string, data interface{}, tracker *AlertTracker) {
	f := frame{
		Topic:     topic,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if tracker != nil {
		if notifs, ok := data.([]models.Notification); ok {
			f.Alert = tracker.Observe(notifs)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- f:
	default:
		c.logger.WithField("topic", topic).Warn("Client send buffer full, dropping frame")
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case f, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(f); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
