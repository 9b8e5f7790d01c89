package server

import (
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/dmitrymomot/chatrelay/core/chat"
	"github.com/dmitrymomot/chatrelay/core/logger"
)

// chatStream subscribes with the provider_id and channel_id query parameters and
// writes every message as a JSON text frame until the client goes away or the
// broker shuts down. Blank or missing parameters match anything.
func (r *routes) chatStream(c echo.Context) error {
	providerID := c.QueryParam("provider_id")
	channelID := c.QueryParam("channel_id")

	sub, err := r.broker.Subscribe(providerID, channelID)
	if err != nil {
		r.log.Warn("chat stream rejected", logger.Pattern(providerID, channelID), logger.Error(err))
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}

	conn, err := r.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already replied with an HTTP error.
		sub.Unsubscribe()
		r.log.Debug("websocket upgrade failed", logger.Error(err))
		return nil
	}
	defer conn.Close()

	log := r.log.With(logger.SubscriptionID(sub.ID()), logger.Pattern(providerID, channelID))
	log.Info("chat stream opened", slog.String("remote_addr", c.RealIP()))

	if r.metrics != nil {
		r.metrics.StreamsActive.Inc()
		defer r.metrics.StreamsActive.Dec()
	}

	done := make(chan struct{})
	defer close(done)
	var clientGone atomic.Bool
	go r.readUntilClosed(conn, sub, &clientGone)
	go r.keepAlive(conn, done)

	ctx := c.Request().Context()
	sent := 0
	for {
		batch := sub.Pull(ctx)
		if len(batch) == 0 {
			break
		}
		for _, msg := range batch {
			if err := r.write(conn, msg); err != nil {
				sub.Unsubscribe()
				log.Debug("chat stream write failed", logger.Error(err))
				log.Info("chat stream closed", logger.Count("sent", sent))
				return nil
			}
			sent++
		}
	}

	// The client left, the request ended or the broker abandoned the subscription.
	// A close frame to a departed client fails silently.
	sub.Unsubscribe()
	code := websocket.CloseNormalClosure
	if !clientGone.Load() && ctx.Err() == nil {
		code = websocket.CloseGoingAway
	}
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, ""),
		time.Now().Add(streamWriteWait),
	)

	log.Info("chat stream closed", logger.Count("sent", sent))
	return nil
}

func (r *routes) write(conn *websocket.Conn, msg chat.Message) error {
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
		return err
	}
	if err := conn.WriteJSON(msg); err != nil {
		return err
	}
	if r.metrics != nil {
		r.metrics.StreamMessages.Inc()
	}
	return nil
}

// readUntilClosed drains client frames so pongs and close frames are processed.
// Any read error means the client is gone: unsubscribing wakes the blocked Pull.
func (r *routes) readUntilClosed(conn *websocket.Conn, sub *chat.Subscription, gone *atomic.Bool) {
	defer sub.Unsubscribe()
	defer gone.Store(true)

	pongWait := 2 * r.pingInterval
	conn.SetReadLimit(streamReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

// keepAlive pings the client until done is closed. WriteControl may run
// concurrently with the message writer.
func (r *routes) keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(r.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		}
	}
}
