package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/LexatoBR/lexato-extension-sub005/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

const wsMaxWait = 15 * time.Minute

// handleWS serves the per-capture push channel: the connection stays open
// until the certificate is ready, then a single {captureId, pdfUrl}
// message is pushed and the connection closes. The client sends nothing
// beyond the handshake.
func (s *Server) handleWS(c *gin.Context) {
	captureID := c.Param("captureId")
	if _, err := s.store.Certifications.Get(c.Request.Context(), captureID); errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "unknown capture", Code: "NOT_FOUND"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warnw("websocket upgrade failed", "capture_id", captureID, "error", err)
		return
	}
	defer conn.Close()

	// Read pump only to observe the peer closing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	interval := s.levelDuration / 4
	if interval < 100*time.Millisecond {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	deadline := time.NewTimer(wsMaxWait)
	defer deadline.Stop()

	for {
		select {
		case <-closed:
			return
		case <-deadline.C:
			return
		case <-ticker.C:
		}

		rec, err := s.store.Certifications.Get(c.Request.Context(), captureID)
		if err != nil {
			return
		}
		view := s.progression(rec)
		if view.level5.Status != string(domain.LevelCompleted) {
			continue
		}

		msg := map[string]string{
			"captureId": captureID,
			"pdfUrl":    view.level5.PDFURL,
		}
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(msg); err != nil {
			s.log.Warnw("websocket push failed", "capture_id", captureID, "error", err)
		}
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		return
	}
}
