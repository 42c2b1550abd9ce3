// Package notify pushes status-change events to connected subscribers. The
// push channel is best-effort by contract: delivery failures are logged and
// dropped, never propagated into the write path that produced the event.
package notify

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nodewatch/nodewatch/internal/monitorsrv/config"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/models"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ResultEvent is the wire form of one status-change push.
type ResultEvent struct {
	ResultID     int64     `json:"resultId"`
	AssetID      int64     `json:"assetId"`
	AssignmentID int64     `json:"assignmentId"`
	Available    bool      `json:"available"`
	ReportedAt   time.Time `json:"reportedAt"`
}

// send is never closed: the publish goroutine may hold a reference to a
// subscriber that was unregistered concurrently, and a send on a closed
// channel would panic outside any recovery. Shutdown is signalled through
// done instead.
type subscriber struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// Hub fans result events out to websocket subscribers. One writer goroutine
// per subscriber; a subscriber that cannot drain its buffer is dropped.
type Hub struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

var defaultHub = &Hub{subs: make(map[*subscriber]struct{})}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	sendBuffer   = 64
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
)

// ServeWS upgrades the request and registers the connection as a status
// subscriber until it disconnects.
func ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	sub := newSubscriber(conn)
	defaultHub.add(sub)

	go sub.writeLoop()
	go sub.readLoop()
}

func newSubscriber(conn *websocket.Conn) *subscriber {
	return &subscriber{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

func (h *Hub) add(s *subscriber) {
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	metrics.StatusSubscribers.Inc()
}

// remove unregisters the subscriber and closes its done channel exactly once.
// Safe to call from both the read loop and the publish path.
func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.done)
		metrics.StatusSubscribers.Dec()
	}
	h.mu.Unlock()
}

func (h *Hub) snapshot() []*subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*subscriber, 0, len(h.subs))
	for s := range h.subs {
		out = append(out, s)
	}
	return out
}

func (s *subscriber) writeLoop() {
	defer s.conn.Close()
	for {
		select {
		case msg := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}

// readLoop discards inbound frames; the subscription is one-way. It exists
// to notice disconnects and answer pings.
func (s *subscriber) readLoop() {
	defer func() {
		defaultHub.remove(s)
		s.conn.Close()
	}()
	s.conn.SetReadLimit(512)
	s.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// PublishResult dispatches a result event to all subscribers. Called after
// commit; runs asynchronously so a slow subscriber cannot stall the
// response path. Delivery into a full buffer is retried a few times before
// the subscriber is dropped.
func PublishResult(ctx context.Context, res *models.Result) {
	ev := ResultEvent{
		ResultID:     res.ResultID,
		AssetID:      res.AssetID,
		AssignmentID: res.AssignmentID,
		Available:    res.Available,
		ReportedAt:   res.ReportedAt,
	}
	msg, err := json.Marshal(ev)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to encode result event")
		return
	}
	logger := log.Ctx(ctx).With().Int64("result_id", res.ResultID).Logger()

	go defaultHub.broadcast(msg, logger)
}

func (h *Hub) broadcast(msg []byte, logger zerolog.Logger) {
	for _, sub := range h.snapshot() {
		if err := trySend(sub, msg); err != nil {
			logger.Warn().Msg("dropping slow status subscriber")
			h.remove(sub)
		}
	}
}

// trySend offers the message without blocking. A subscriber that went away
// between snapshot and send is skipped, not an error.
func trySend(sub *subscriber, msg []byte) error {
	return retry.Do(
		func() error {
			select {
			case <-sub.done:
				return nil
			case sub.send <- msg:
				return nil
			default:
				return errBufferFull
			}
		},
		retry.Attempts(uint(config.Config().NotifyRetryAttempts)),
		retry.Delay(50*time.Millisecond),
		retry.LastErrorOnly(true),
	)
}

var errBufferFull = errors.New("subscriber buffer full")
