package http

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	qrcode "github.com/skip2/go-qrcode"

	"family-quiz-sync/internal/app"
	"family-quiz-sync/internal/domain"
)

const qrSize = 320

type quizSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Questions int    `json:"questions"`
}

// NewRouter wires the gateway routes. publicURL is what the lobby QR code points at;
// when empty it is derived from the request.
func NewRouter(ws *WSHandler, quizzes app.QuizRepository, roster *domain.Roster, publicURL string) http.Handler {
	router := httprouter.New()

	router.GET("/healthz", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		_, _ = w.Write([]byte("ok"))
	})

	router.GET("/api/users", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		writeJSON(w, http.StatusOK, roster.Users())
	})

	router.GET("/api/quizzes", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		list, err := quizzes.ListQuizzes(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("list quizzes")
			http.Error(w, "could not list quizzes", http.StatusInternalServerError)
			return
		}
		out := make([]quizSummary, 0, len(list))
		for _, q := range list {
			out = append(out, quizSummary{ID: q.ID, Title: q.Title, Questions: len(q.Questions)})
		}
		writeJSON(w, http.StatusOK, out)
	})

	router.GET("/qr.png", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		target := publicURL
		if target == "" {
			scheme := "http"
			if r.TLS != nil {
				scheme = "https"
			}
			if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
				scheme = proto
			}
			target = scheme + "://" + r.Host + "/"
		}
		png, err := qrcode.Encode(target, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	})

	router.HandlerFunc(http.MethodGet, "/ws", ws.ServeWS)

	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodHead, http.MethodGet},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(router)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("write json response")
	}
}
