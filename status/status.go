package status

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type Level int

const (
	INFO Level = iota
	ERROR
	PROGRESS
	WARNING
)

func (l Level) String() string {
	switch l {
	case INFO:
		return "INFO"
	case ERROR:
		return "ERROR"
	case PROGRESS:
		return "PROGRESS"
	case WARNING:
		return "WARNING"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	for _, lvl := range []Level{INFO, ERROR, PROGRESS, WARNING} {
		if string(text) == lvl.String() {
			*l = lvl
			return nil
		}
	}
	return fmt.Errorf("Unknown status level %q", text)
}

// Reporter receives messages meant for the user, as opposed to the log
type Reporter interface {
	Report(level Level, format string, a ...interface{})
}

type Message struct {
	Message  string
	Time     time.Time
	Type     Level
	Progress float32
}

// Collector keeps every reported message, safe for concurrent use
type Collector struct {
	lock     sync.Mutex
	messages []Message
}

func (c *Collector) Report(level Level, format string, a ...interface{}) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.messages = append(c.messages, Message{
		Message: fmt.Sprintf(format, a...),
		Time:    time.Now(),
		Type:    level,
	})
}

func (c *Collector) Messages() []Message {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]Message(nil), c.messages...)
}

// Filter returns texts of messages with the level
func (c *Collector) Filter(level Level) []string {
	var r []string
	for _, m := range c.Messages() {
		if m.Type == level {
			r = append(r, m.Message)
		}
	}
	return r
}

// ProgressReporter is implemented by sinks able to show a progress bar
type ProgressReporter interface {
	Progress(progress float32, format string, a ...interface{})
}

// Multi fans a report out to every reporter
type Multi []Reporter

func (m Multi) Report(level Level, format string, a ...interface{}) {
	for _, r := range m {
		r.Report(level, format, a...)
	}
}

// Progress reaches only the members implementing ProgressReporter
func (m Multi) Progress(progress float32, format string, a ...interface{}) {
	for _, r := range m {
		if pr, ok := r.(ProgressReporter); ok {
			pr.Progress(progress, format, a...)
		}
	}
}

// LogReporter mirrors reports into the log
type LogReporter struct {
	Log logrus.FieldLogger
}

func (lr LogReporter) Report(level Level, format string, a ...interface{}) {
	l := lr.Log.WithField("report", level.String())
	switch level {
	case ERROR:
		l.Errorf(format, a...)
	case WARNING:
		l.Warnf(format, a...)
	default:
		l.Infof(format, a...)
	}
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func (c *client) writePump() {
	ticker := time.NewTicker(time.Second * 30)
	defer func() {
		ticker.Stop()
		c.hub.unregisterClient(c)
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(40 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.hub.log.Warnf("[status] ws write msg error: %v", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(40 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.log.Warnf("[status] ws write ping error: %v", err)
				return
			}
		}
	}
}

// readPump drains control frames, the peer never sends data
func (c *client) readPump() {
	defer c.conn.Close()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Hub broadcasts reports as json to websocket clients.
// New clients receive the last broadcasted message first.
type Hub struct {
	log       logrus.FieldLogger
	broadcast chan *Message
	lock      sync.Mutex
	clients   map[*client]bool
	last      []byte
	done      chan struct{}
}

func NewHub(log logrus.FieldLogger) *Hub {
	h := &Hub{
		log:       log,
		broadcast: make(chan *Message, 16),
		clients:   make(map[*client]bool),
		done:      make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case s := <-h.broadcast:
			data, err := json.Marshal(s)
			if err != nil {
				h.log.Errorf("[status] marshal: %v", err)
				continue
			}
			h.lock.Lock()
			h.last = data
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					// slow client, drop it instead of blocking everyone
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.lock.Unlock()
		case <-h.done:
			h.lock.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.lock.Unlock()
			return
		}
	}
}

// Close disconnects all clients, reports after Close are dropped
func (h *Hub) Close() {
	close(h.done)
}

func (h *Hub) unregisterClient(c *client) {
	h.lock.Lock()
	defer h.lock.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Serve registers the connection and starts its pumps
func (h *Hub) Serve(conn *websocket.Conn) {
	c := &client{hub: h, conn: conn, send: make(chan []byte, 32)}
	h.lock.Lock()
	h.clients[c] = true
	if h.last != nil {
		c.send <- h.last
	}
	h.lock.Unlock()
	go c.writePump()
	go c.readPump()
}

func (h *Hub) Last() []byte {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.last
}

func (h *Hub) Status(msg string, level Level, progress float32) {
	if math.IsNaN(float64(progress)) || math.IsInf(float64(progress), 0) {
		progress = 0
	}
	select {
	case h.broadcast <- &Message{
		Message:  msg,
		Time:     time.Now(),
		Type:     level,
		Progress: progress}:
	case <-h.done:
	}
}

func (h *Hub) Report(level Level, format string, a ...interface{}) {
	h.Status(fmt.Sprintf(format, a...), level, 0.0)
}

func (h *Hub) Progress(progress float32, format string, a ...interface{}) {
	h.Status(fmt.Sprintf(format, a...), PROGRESS, progress)
}
