package game

import (
	"testing"

	"family-quiz-sync/internal/domain"
)

var (
	mum  = domain.User{ID: "mum", Name: "Mum", Avatar: "owl", IsAdmin: true}
	dad  = domain.User{ID: "dad", Name: "Dad", Avatar: "bear", IsAdmin: true}
	kid  = domain.User{ID: "kid", Name: "Kid", Avatar: "fox"}
	gran = domain.User{ID: "gran", Name: "Gran", Avatar: "cat"}
)

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:    "quiz-1",
		Title: "Family Night",
		Questions: []domain.Question{
			{
				Question: "What is 2 + 2?",
				Answers: []domain.Answer{
					{Text: "3"}, {Text: "4", IsCorrect: true}, {Text: "5"}, {Text: "22"},
				},
				TimeLimit: 15,
			},
			{
				Question: "Which planet is red?",
				Answers: []domain.Answer{
					{Text: "Mars", IsCorrect: true}, {Text: "Venus"}, {Text: "Earth"}, {Text: "Saturn"},
				},
				TimeLimit: 10,
			},
		},
	}
}

// activeRecord is a session on question 0 with the host and the given players joined.
func activeRecord(players ...domain.User) *domain.SessionRecord {
	rec := NewSessionRecord(sampleQuiz(), mum)
	for _, p := range players {
		rec.Players = append(rec.Players, domain.Player{User: p})
	}
	rec.Phase = domain.PhaseQuestionActive
	return rec
}

func mustCommit(t testing.TB, m domain.Mutation, cur *domain.SessionRecord) *domain.SessionRecord {
	t.Helper()
	next, ok := m(cur)
	if !ok {
		t.Fatalf("expected mutation to commit")
	}
	return next
}
