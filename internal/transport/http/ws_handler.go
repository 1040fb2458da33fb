package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"quiz-platform-service/internal/app"
	"quiz-platform-service/internal/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// ResultsHandler streams completed submissions of a quiz to admin dashboards.
type ResultsHandler struct {
	submissions *app.SubmissionService
	log         *logger.Logger
	upgrader    websocket.Upgrader
}

func NewResultsHandler(submissions *app.SubmissionService, log *logger.Logger) *ResultsHandler {
	return &ResultsHandler{
		submissions: submissions,
		log:         log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type subscribedPayload struct {
	QuizID int64 `json:"quiz_id"`
}

// ServeResults subscribes before upgrading so an unknown quiz is a plain 404.
func (h *ResultsHandler) ServeResults(c *gin.Context) {
	quizID, ok := paramID(c, "id")
	if !ok {
		return
	}
	events, cancel, err := h.submissions.SubscribeResults(c.Request.Context(), quizID)
	if err != nil {
		respondError(c, h.log, err, "Failed to subscribe")
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "quiz_id", quizID, "error", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	// Single writer: gorilla connections do not support concurrent writes.
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case msg, ok := <-send:
				if !ok {
					_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(msg); err != nil {
					h.log.Debug("ws write error", "quiz_id", quizID, "error", err)
					return
				}
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "submission.completed", Payload: event}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "subscribed", Payload: subscribedPayload{QuizID: quizID}}
	h.log.Info("results feed subscribed", "quiz_id", quizID, "user_id", caller(c).UserID)

	// The feed is push-only; reads just detect the client going away.
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}
