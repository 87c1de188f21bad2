package game

import (
	"sort"

	"family-quiz-sync/internal/domain"
)

// View is one client's observable state. CurrentUser and the local navigation phase are
// owned by the client; every other field comes from the last accepted snapshot.
type View struct {
	Phase                domain.Phase          `json:"phase"`
	CurrentUser          *domain.User          `json:"currentUser,omitempty"`
	Quiz                 *domain.Quiz          `json:"quiz,omitempty"`
	Players              []domain.Player       `json:"players"`
	CurrentQuestionIndex int                   `json:"currentQuestionIndex"`
	Answers              []domain.PlayerAnswer `json:"answers"`
	// SessionPhase is the phase of the last accepted document, empty when no session exists.
	SessionPhase domain.Phase `json:"sessionPhase,omitempty"`
}

// Initial is the view of a client nobody has signed in to yet.
func Initial() View {
	return View{
		Phase:   domain.PhaseLogin,
		Players: []domain.Player{},
		Answers: []domain.PlayerAnswer{},
	}
}

// Screen is the phase to render: login whenever nobody is signed in.
func (v View) Screen() domain.Phase {
	if v.CurrentUser == nil {
		return domain.PhaseLogin
	}
	return v.Phase
}

// InSession reports whether a valid session document has been accepted.
func (v View) InSession() bool {
	return v.SessionPhase != "" && v.Quiz != nil
}

// IsHost reports whether the signed-in user is the session's host.
func (v View) IsHost() bool {
	return v.CurrentUser != nil && v.Quiz != nil && v.Quiz.HostID != "" && v.Quiz.HostID == v.CurrentUser.ID
}

// Me returns the signed-in user's player entry.
func (v View) Me() (domain.Player, bool) {
	if v.CurrentUser == nil {
		return domain.Player{}, false
	}
	for _, p := range v.Players {
		if p.User.ID == v.CurrentUser.ID {
			return p, true
		}
	}
	return domain.Player{}, false
}

// MyAnswer returns the signed-in user's answer to the current question.
func (v View) MyAnswer() (domain.PlayerAnswer, bool) {
	if v.CurrentUser == nil {
		return domain.PlayerAnswer{}, false
	}
	for _, a := range v.Answers {
		if a.PlayerID == v.CurrentUser.ID && a.QuestionIndex == v.CurrentQuestionIndex {
			return a, true
		}
	}
	return domain.PlayerAnswer{}, false
}

func (v View) CurrentQuestion() (domain.Question, bool) {
	if v.Quiz == nil || v.CurrentQuestionIndex < 0 || v.CurrentQuestionIndex >= len(v.Quiz.Questions) {
		return domain.Question{}, false
	}
	return v.Quiz.Questions[v.CurrentQuestionIndex], true
}

// IsLastQuestion reports whether advancing from here ends the game.
func (v View) IsLastQuestion() bool {
	return v.Quiz != nil && v.CurrentQuestionIndex >= len(v.Quiz.Questions)-1
}

// Leaderboard orders players by score, highest first, then by name.
func (v View) Leaderboard() []domain.Player {
	out := copyPlayers(v.Players)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].User.Name < out[j].User.Name
	})
	return out
}

// Podium is the top three of the leaderboard.
func (v View) Podium() []domain.Player {
	board := v.Leaderboard()
	if len(board) > 3 {
		board = board[:3]
	}
	return board
}

// AnswerDistribution lists, per answer slot of the current question, the players who chose it.
func (v View) AnswerDistribution() [][]domain.Player {
	question, ok := v.CurrentQuestion()
	if !ok {
		return nil
	}
	out := make([][]domain.Player, len(question.Answers))
	for _, p := range v.Players {
		for _, a := range v.Answers {
			if a.PlayerID != p.User.ID || a.QuestionIndex != v.CurrentQuestionIndex {
				continue
			}
			if a.AnswerIndex >= 0 && a.AnswerIndex < len(out) {
				out[a.AnswerIndex] = append(out[a.AnswerIndex], p)
			}
		}
	}
	return out
}
