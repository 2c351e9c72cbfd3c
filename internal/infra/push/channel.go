// Package push is the optional out-of-band notification channel: one
// WebSocket connection per capture, over which the backend announces
// certificate readiness. The channel is additive; polling remains the
// source of truth for level progress.
package push

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// CertificateReady is the single message the backend pushes.
type CertificateReady struct {
	CaptureID string `json:"captureId"`
	PDFURL    string `json:"pdfUrl"`
}

const (
	readTimeout  = 20 * time.Minute
	writeTimeout = 10 * time.Second
)

// Channel is a subscribable event channel keyed by captureId.
// Connect while connected is a no-op with a logged warning; Disconnect is
// idempotent.
type Channel struct {
	baseURL string
	dialer  *websocket.Dialer
	log     *zap.SugaredLogger

	mu        sync.Mutex
	conn      *websocket.Conn
	captureID string
	events    chan CertificateReady
	done      chan struct{}
}

func NewChannel(baseURL string, log *zap.SugaredLogger) *Channel {
	return &Channel{
		baseURL: strings.TrimRight(baseURL, "/"),
		dialer:  websocket.DefaultDialer,
		log:     log,
	}
}

// Events returns the stream of readiness notifications. The channel is
// closed on disconnect; nil before the first Connect.
func (c *Channel) Events() <-chan CertificateReady {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events
}

// Connect opens the per-capture connection and starts the read loop.
func (c *Channel) Connect(ctx context.Context, captureID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.log.Warnw("push channel already connected", "capture_id", c.captureID)
		return nil
	}

	url := fmt.Sprintf("%s/certification/ws/%s", c.baseURL, captureID)
	conn, resp, err := c.dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return fmt.Errorf("push channel dial: %w", err)
	}
	if resp != nil {
		resp.Body.Close()
	}

	c.conn = conn
	c.captureID = captureID
	c.events = make(chan CertificateReady, 1)
	c.done = make(chan struct{})

	go c.readLoop(conn, c.events, c.done)
	c.log.Infow("push channel connected", "capture_id", captureID)
	return nil
}

// Disconnect closes the connection and the event stream. Safe to call
// repeatedly or when never connected.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return
	}
	close(c.done)
	deadline := time.Now().Add(writeTimeout)
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	_ = c.conn.Close()
	c.conn = nil
	c.captureID = ""
	c.log.Infow("push channel disconnected")
}

func (c *Channel) readLoop(conn *websocket.Conn, events chan CertificateReady, done chan struct{}) {
	defer close(events)
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

	for {
		var msg CertificateReady
		if err := conn.ReadJSON(&msg); err != nil {
			select {
			case <-done:
				// Expected: Disconnect closed the connection under us.
			default:
				c.log.Warnw("push channel read failed", "error", err)
			}
			return
		}
		select {
		case events <- msg:
		case <-done:
			return
		}
	}
}
