package domain

import (
	"fmt"
	"strings"
)

// AnswersPerQuestion is the fixed number of answer slots on every question.
const AnswersPerQuestion = 4

// User is a roster identity. Users are immutable once created.
type User struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Avatar  string `json:"avatar" yaml:"avatar"`
	IsAdmin bool   `json:"isAdmin" yaml:"admin"`
}

// Answer is one of the four options of a question.
type Answer struct {
	Text      string `json:"text" yaml:"text"`
	IsCorrect bool   `json:"isCorrect" yaml:"correct"`
}

// Question models an MCQ question with exactly one correct answer.
type Question struct {
	Question  string   `json:"question" yaml:"question"`
	Answers   []Answer `json:"answers" yaml:"answers"`
	TimeLimit int      `json:"timeLimit" yaml:"timeLimit"` // seconds
}

// Quiz is an ordered collection of questions. HostID is empty while the quiz is unhosted.
type Quiz struct {
	ID        string     `json:"id" yaml:"id"`
	Title     string     `json:"title" yaml:"title"`
	Questions []Question `json:"questions" yaml:"questions"`
	HostID    string     `json:"hostId,omitempty" yaml:"-"`
}

// Player wraps a User with per-session state.
type Player struct {
	User        User `json:"user"`
	Score       int  `json:"score"`
	HasAnswered bool `json:"hasAnswered"`
}

// PlayerAnswer records one submission. At most one exists per (QuestionIndex, PlayerID).
type PlayerAnswer struct {
	PlayerID      string  `json:"playerId"`
	QuestionIndex int     `json:"questionIndex"`
	AnswerIndex   int     `json:"answerIndex"`
	TimeTaken     float64 `json:"timeTaken"`
	IsCorrect     bool    `json:"isCorrect"`
}

// AnswerKey is the idempotency key of a PlayerAnswer inside SessionRecord.Answers.
func AnswerKey(questionIndex int, playerID string) string {
	return fmt.Sprintf("%d-%s", questionIndex, playerID)
}

// SessionRecord is the single shared document every client reads.
type SessionRecord struct {
	Quiz                 *Quiz                   `json:"quiz,omitempty"`
	Phase                Phase                   `json:"gameStatus,omitempty"`
	Players              []Player                `json:"players,omitempty"`
	CurrentQuestionIndex int                     `json:"currentQuestionIndex"`
	Answers              map[string]PlayerAnswer `json:"answers,omitempty"`
}

// PlayerIndex returns the position of the player with the given user id, or -1.
func (r *SessionRecord) PlayerIndex(userID string) int {
	for i := range r.Players {
		if r.Players[i].User.ID == userID {
			return i
		}
	}
	return -1
}

// CurrentQuestion returns the question at CurrentQuestionIndex, if the quiz has one.
func (r *SessionRecord) CurrentQuestion() (Question, bool) {
	if r.Quiz == nil || r.CurrentQuestionIndex < 0 || r.CurrentQuestionIndex >= len(r.Quiz.Questions) {
		return Question{}, false
	}
	return r.Quiz.Questions[r.CurrentQuestionIndex], true
}

// Validate checks the authoring rules a quiz must satisfy before it can be hosted.
func (q Quiz) Validate() error {
	if strings.TrimSpace(q.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidQuiz)
	}
	if len(q.Questions) == 0 {
		return fmt.Errorf("%w: at least one question is required", ErrInvalidQuiz)
	}
	for i, question := range q.Questions {
		if strings.TrimSpace(question.Question) == "" {
			return fmt.Errorf("%w: question %d has no prompt", ErrInvalidQuiz, i+1)
		}
		if len(question.Answers) != AnswersPerQuestion {
			return fmt.Errorf("%w: question %d needs %d answers, has %d", ErrInvalidQuiz, i+1, AnswersPerQuestion, len(question.Answers))
		}
		correct := 0
		for j, answer := range question.Answers {
			if strings.TrimSpace(answer.Text) == "" {
				return fmt.Errorf("%w: question %d answer %d has no text", ErrInvalidQuiz, i+1, j+1)
			}
			if answer.IsCorrect {
				correct++
			}
		}
		if correct != 1 {
			return fmt.Errorf("%w: question %d must have exactly one correct answer", ErrInvalidQuiz, i+1)
		}
		if question.TimeLimit <= 0 {
			return fmt.Errorf("%w: question %d needs a positive time limit", ErrInvalidQuiz, i+1)
		}
	}
	return nil
}
