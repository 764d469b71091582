// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/nftstaker/nftstaker/api/restutil"
	"github.com/nftstaker/nftstaker/log"
	"github.com/nftstaker/nftstaker/thor"
	"github.com/nftstaker/nftstaker/tx"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 7) / 10

	// Messages queued per subscriber before it is considered too slow and dropped.
	backlogSize = 128
)

var logger = log.WithContext("pkg", "subscriptions")

type Subscriptions struct {
	upgrader *websocket.Upgrader
	done     chan struct{}
	wg       sync.WaitGroup

	mu     sync.RWMutex
	subs   map[*eventSub]struct{}
	closed bool
}

type eventSub struct {
	filter *EventFilter
	msgs   chan []byte
	gone   chan struct{}
	once   sync.Once
}

func (es *eventSub) drop() {
	es.once.Do(func() { close(es.gone) })
}

func New(allowedOrigins []string) *Subscriptions {
	s := &Subscriptions{
		done: make(chan struct{}),
		subs: make(map[*eventSub]struct{}),
	}
	s.upgrader = &websocket.Upgrader{
		EnableCompression: true,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range allowedOrigins {
				if allowed == "*" || strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
	return s
}

// WriteReceipt pushes the events of a committed call to every matching subscriber.
// It never blocks, subscribers whose backlog is full are dropped.
func (s *Subscriptions) WriteReceipt(receipt *tx.Receipt) error {
	if receipt.Reverted || len(receipt.Events) == 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.subs) == 0 {
		return nil
	}

	for i, event := range receipt.Events {
		var msg []byte
		for sub := range s.subs {
			if !sub.filter.Match(event) {
				continue
			}
			if msg == nil {
				data, err := json.Marshal(convertEvent(receipt, uint32(i), event))
				if err != nil {
					return errors.Wrap(err, "marshal event")
				}
				msg = data
			}
			select {
			case sub.msgs <- msg:
			default:
				logger.Debug("dropping slow subscriber", "backlog", len(sub.msgs))
				sub.drop()
			}
		}
	}
	return nil
}

func (s *Subscriptions) add(sub *eventSub) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.wg.Add(1)
	s.subs[sub] = struct{}{}
	metricActiveSubscriptions().Add(1)
	return true
}

func (s *Subscriptions) remove(sub *eventSub) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[sub]; ok {
		delete(s.subs, sub)
		metricActiveSubscriptions().Add(-1)
		s.wg.Done()
	}
}

func (s *Subscriptions) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

func parseEventFilter(req *http.Request) (*EventFilter, error) {
	query := req.URL.Query()

	parseTopic := func(name string) (*thor.Bytes32, error) {
		value := query.Get(name)
		if value == "" {
			return nil, nil
		}
		topic, err := thor.ParseBytes32(value)
		if err != nil {
			return nil, restutil.BadRequest(errors.WithMessage(err, name))
		}
		return &topic, nil
	}

	var (
		filter EventFilter
		err    error
	)
	if value := query.Get("addr"); value != "" {
		addr, err := thor.ParseAddress(value)
		if err != nil {
			return nil, restutil.BadRequest(errors.WithMessage(err, "addr"))
		}
		filter.Address = &addr
	}
	for i, topic := range []**thor.Bytes32{&filter.Topic0, &filter.Topic1, &filter.Topic2, &filter.Topic3, &filter.Topic4} {
		if *topic, err = parseTopic("t" + strconv.Itoa(i)); err != nil {
			return nil, err
		}
	}
	return &filter, nil
}

func (s *Subscriptions) handleSubscribeEvent(w http.ResponseWriter, req *http.Request) error {
	filter, err := parseEventFilter(req)
	if err != nil {
		return err
	}

	sub := &eventSub{
		filter: filter,
		msgs:   make(chan []byte, backlogSize),
		gone:   make(chan struct{}),
	}
	if !s.add(sub) {
		return restutil.HTTPError(errors.New("service closed"), http.StatusServiceUnavailable)
	}
	defer s.remove(sub)

	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// the upgrader has already replied
		logger.Debug("upgrade failed", "err", err)
		return nil
	}
	defer conn.Close()

	// the read loop only serves control frames and notices a closed peer
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer sub.drop()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	return s.pipe(conn, sub)
}

func (s *Subscriptions) pipe(conn *websocket.Conn, sub *eventSub) error {
	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	for {
		select {
		case msg := <-sub.msgs:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("failed to write message", "err", err)
				return nil
			}
		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		case <-sub.gone:
			closeMsg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "subscriber gone or too slow")
			conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(writeWait))
			return nil
		case <-s.done:
			closeMsg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "service closed")
			conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(writeWait))
			return nil
		}
	}
}

// Close disconnects every subscriber and waits for their handlers to return.
func (s *Subscriptions) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.done)
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/event").
		Methods(http.MethodGet).
		Name("WS /subscriptions/event").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleSubscribeEvent))
}
