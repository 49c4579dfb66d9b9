package http

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"formrank-service/internal/app"
	"formrank-service/internal/domain"
)

// WSHandler streams ranking snapshots over a websocket: one on connect,
// then one after every committed submission.
type WSHandler struct {
	ranking  *app.RankingService
	feed     *app.RankingFeed
	log      *logrus.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(ranking *app.RankingService, feed *app.RankingFeed, log *logrus.Logger) *WSHandler {
	return &WSHandler{
		ranking: ranking,
		feed:    feed,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage struct {
	Type    string                `json:"type"`
	Payload []domain.RankingEntry `json:"payload"`
}

// ServeWS upgrades the request and pumps ranking snapshots until the client
// disconnects.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	updates, cancel := h.feed.Subscribe()
	defer cancel()

	send := make(chan outboundMessage, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// A single writer goroutine owns the connection; everything else goes
	// through send to avoid concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.WithError(err).Debug("ws write error")
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage{Type: "ranking", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	if entries, err := h.ranking.GlobalRanking(r.Context()); err == nil {
		send <- outboundMessage{Type: "ranking", Payload: entries}
	} else {
		h.log.WithError(err).Warn("initial ranking snapshot failed")
	}

	// Drain inbound frames until the peer goes away; clients send nothing
	// meaningful on this stream.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
