package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"family-quiz-sync/internal/app"
	"family-quiz-sync/internal/domain"
	"family-quiz-sync/internal/game"
)

var (
	errBadPayload  = errors.New("invalid payload")
	errUnsupported = errors.New("unsupported message type")
)

// WSHandler hosts one engine client per browser connection. It holds no game state of its
// own: every client reads and writes the shared store directly.
type WSHandler struct {
	store    app.SessionStore
	quizzes  app.QuizRepository
	roster   *domain.Roster
	options  []app.Option
	upgrader websocket.Upgrader
}

func NewWSHandler(store app.SessionStore, quizzes app.QuizRepository, roster *domain.Roster, opts ...app.Option) *WSHandler {
	return &WSHandler{
		store:   store,
		quizzes: quizzes,
		roster:  roster,
		options: append(opts, app.WithQuizzes(quizzes)),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type hostPayload struct {
	QuizID string `json:"quizId"`
}

type answerPayload struct {
	AnswerIndex *int `json:"answerIndex"`
}

type navigatePayload struct {
	Phase domain.Phase `json:"phase"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS authenticates the roster user, upgrades the connection and streams the user's view.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}
	user, err := h.roster.Authenticate(userID, r.URL.Query().Get("passcode"))
	switch {
	case errors.Is(err, domain.ErrUnknownUser):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, domain.ErrBadPasscode):
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client := app.NewClient(h.store, h.options...)
	if err := client.Login(ctx, user); err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	views, stopViews := client.Watch()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	viewsDone := make(chan struct{})
	runDone := make(chan struct{})

	push := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-writerDone:
		}
	}
	pushError := func(err error) {
		push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
	}

	// Single writer; gorilla connections do not support concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug().Err(err).Str("user_id", user.ID).Msg("ws write error")
				return
			}
		}
	}()

	go func() {
		defer close(viewsDone)
		for {
			select {
			case v, ok := <-views:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "view", Payload: v}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	go func() {
		defer close(runDone)
		if err := client.Run(ctx); err != nil {
			log.Error().Err(err).Str("user_id", user.ID).Msg("session subscription ended")
			pushError(err)
		}
	}()

	log.Info().Str("user_id", user.ID).Bool("admin", user.IsAdmin).Msg("client connected")

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		err := h.handle(ctx, client, inbound)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrIgnoredIntent):
			log.Debug().Err(err).Str("user_id", user.ID).Str("type", inbound.Type).Msg("intent ignored")
		default:
			log.Warn().Err(err).Str("user_id", user.ID).Str("type", inbound.Type).Msg("intent failed")
			pushError(err)
		}
	}

	log.Info().Str("user_id", user.ID).Msg("client disconnected")
	cancel()
	<-runDone
	close(closeSignals)
	stopViews()
	<-viewsDone
	close(send)
	<-writerDone
}

func (h *WSHandler) handle(ctx context.Context, client *app.Client, in inboundMessage) error {
	switch in.Type {
	case "host":
		var p hostPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil || p.QuizID == "" {
			return errBadPayload
		}
		return client.Host(ctx, p.QuizID)
	case "answer":
		var p answerPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil || p.AnswerIndex == nil {
			return errBadPayload
		}
		return client.Answer(ctx, *p.AnswerIndex)
	case "navigate":
		var p navigatePayload
		if err := json.Unmarshal(in.Payload, &p); err != nil || p.Phase == "" {
			return errBadPayload
		}
		return client.Dispatch(ctx, game.SetPhase{Phase: p.Phase})
	}

	ev, ok := simpleIntents[in.Type]
	if !ok {
		return errUnsupported
	}
	return client.Dispatch(ctx, ev)
}

// simpleIntents are the inbound types that carry no payload.
var simpleIntents = map[string]game.Event{
	"join":         game.Join{},
	"start":        game.StartGame{},
	"next":         game.NextQuestion{},
	"end":          game.EndGame{},
	"reset":        game.Reset{},
	"logout":       game.Logout{},
	"returnToGame": game.ReturnToGame{},
}
