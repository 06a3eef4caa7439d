package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/orgdirectory/internal/adapters/nats"
	"github.com/samirrijal/orgdirectory/internal/pkg/metrics"
)

const wsPingInterval = 30 * time.Second

// wsCommand is a client request such as
// {"action":"subscribe","channel":"organizations"}.
type wsCommand struct {
	Action  string `json:"action"`
	Channel string `json:"channel"`
}

// wsReply acknowledges or rejects a command.
type wsReply struct {
	Status  string `json:"status,omitempty"`
	Channel string `json:"channel,omitempty"`
	Error   string `json:"error,omitempty"`
}

// channelSubject maps a channel name to the NATS subject carrying its events.
func channelSubject(channel string) (string, bool) {
	switch channel {
	case "", "all":
		return natsadapter.SubjectAll, true
	case "buildings":
		return natsadapter.SubjectPrefix + "building.>", true
	case "activities":
		return natsadapter.SubjectPrefix + "activity.>", true
	case "organizations":
		return natsadapter.SubjectPrefix + "organization.>", true
	}
	return "", false
}

// wsSession is one connected client and its channel subscriptions.
type wsSession struct {
	conn      *websocket.Conn
	subscribe func(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
	log       *slog.Logger

	writeMu sync.Mutex
	subs    map[string]*nats.Subscription // channel -> subscription
}

func (s *wsSession) write(messageType int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(messageType, data)
}

func (s *wsSession) reply(r wsReply) {
	data, err := json.Marshal(r)
	if err != nil {
		return
	}
	_ = s.write(websocket.TextMessage, data)
}

// relay forwards a published event unchanged; events are already JSON.
func (s *wsSession) relay(msg *nats.Msg) {
	if err := s.write(websocket.TextMessage, msg.Data); err != nil {
		s.log.Debug("ws relay failed", "subject", msg.Subject, "error", err)
	}
}

// join subscribes to channel. "all" and the per-entity channels exclude
// each other, so a client never receives the same event twice: joining
// "all" leaves every narrower channel and joining a narrower channel
// leaves "all".
func (s *wsSession) join(channel string) wsReply {
	if channel == "" {
		channel = "all"
	}
	if _, ok := s.subs[channel]; ok {
		return wsReply{Status: "already subscribed", Channel: channel}
	}
	subject, ok := channelSubject(channel)
	if !ok {
		return wsReply{Error: "unknown channel: " + channel}
	}
	sub, err := s.subscribe(subject, s.relay)
	if err != nil {
		return wsReply{Error: "subscribe failed: " + err.Error()}
	}
	for name, other := range s.subs {
		if channel == "all" || name == "all" {
			_ = other.Unsubscribe()
			delete(s.subs, name)
		}
	}
	s.subs[channel] = sub
	return wsReply{Status: "subscribed", Channel: channel}
}

func (s *wsSession) leave(channel string) wsReply {
	if channel == "" {
		channel = "all"
	}
	sub, ok := s.subs[channel]
	if !ok {
		return wsReply{Error: "not subscribed to " + channel}
	}
	_ = sub.Unsubscribe()
	delete(s.subs, channel)
	return wsReply{Status: "unsubscribed", Channel: channel}
}

func (s *wsSession) handle(raw []byte) wsReply {
	var cmd wsCommand
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return wsReply{Error: "invalid JSON"}
	}
	switch cmd.Action {
	case "subscribe":
		return s.join(cmd.Channel)
	case "unsubscribe":
		return s.leave(cmd.Channel)
	}
	return wsReply{Error: "unknown action: " + cmd.Action}
}

func (s *wsSession) keepAlive(done <-chan struct{}) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (s *wsSession) close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
}

// WebSocketHandler relays directory change events to WebSocket clients.
// A new connection receives every event. Subscribing to buildings,
// activities or organizations narrows the feed to those channels;
// subscribing to all widens it again.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		s := &wsSession{
			conn:      c,
			subscribe: nc.Subscribe,
			log:       slog.Default().With("remote", c.RemoteAddr().String()),
			subs:      make(map[string]*nats.Subscription),
		}
		defer s.close()

		if r := s.join("all"); r.Error != "" {
			s.log.Error("ws default subscribe failed", "error", r.Error)
			return
		}

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()
		s.log.Info("ws client connected")

		done := make(chan struct{})
		defer close(done)
		go s.keepAlive(done)

		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				break
			}
			s.reply(s.handle(raw))
		}
		s.log.Info("ws client disconnected")
	}
}
