package game

import "family-quiz-sync/internal/domain"

// Submission is one player's answer to the active question.
type Submission struct {
	PlayerID    string
	AnswerIndex int
	TimeTaken   float64 // seconds since the question became active
}

// NewSessionRecord activates a quiz: the admin becomes host and the only player.
func NewSessionRecord(quiz domain.Quiz, host domain.User) *domain.SessionRecord {
	quiz.HostID = host.ID
	return &domain.SessionRecord{
		Quiz:                 &quiz,
		Phase:                domain.PhaseLobby,
		Players:              []domain.Player{{User: host}},
		CurrentQuestionIndex: 0,
	}
}

// AddPlayer is the membership transaction. It aborts when no session exists or the
// user is already a player, so repeated joins are no-ops.
func AddPlayer(user domain.User) domain.Mutation {
	return func(cur *domain.SessionRecord) (*domain.SessionRecord, bool) {
		if cur == nil || cur.PlayerIndex(user.ID) >= 0 {
			return nil, false
		}
		next := *cur
		next.Players = append(copyPlayers(cur.Players), domain.Player{User: user})
		return &next, true
	}
}

// RemovePlayer drops exactly one player and touches nothing else.
func RemovePlayer(userID string) domain.Mutation {
	return func(cur *domain.SessionRecord) (*domain.SessionRecord, bool) {
		if cur == nil {
			return nil, false
		}
		idx := cur.PlayerIndex(userID)
		if idx < 0 {
			return nil, false
		}
		next := *cur
		next.Players = make([]domain.Player, 0, len(cur.Players)-1)
		next.Players = append(next.Players, cur.Players[:idx]...)
		next.Players = append(next.Players, cur.Players[idx+1:]...)
		return &next, true
	}
}

// AnswerTx is the answer transaction. The answer key (question, player) makes a
// retried body idempotent, and the last answer closes the question inside the same
// commit so "everyone answered but still active" is never observable.
func AnswerTx(sub Submission) domain.Mutation {
	return func(cur *domain.SessionRecord) (*domain.SessionRecord, bool) {
		if cur == nil || cur.Phase != domain.PhaseQuestionActive {
			return nil, false
		}
		question, ok := cur.CurrentQuestion()
		if !ok || sub.AnswerIndex < 0 || sub.AnswerIndex >= len(question.Answers) {
			return nil, false
		}
		idx := cur.PlayerIndex(sub.PlayerID)
		if idx < 0 || cur.Players[idx].HasAnswered {
			return nil, false
		}

		timeTaken := sub.TimeTaken
		if timeTaken < 0 {
			timeTaken = 0
		}
		answer := domain.PlayerAnswer{
			PlayerID:      sub.PlayerID,
			QuestionIndex: cur.CurrentQuestionIndex,
			AnswerIndex:   sub.AnswerIndex,
			TimeTaken:     timeTaken,
			IsCorrect:     question.Answers[sub.AnswerIndex].IsCorrect,
		}

		next := *cur
		next.Answers = copyAnswers(cur.Answers)
		next.Answers[domain.AnswerKey(cur.CurrentQuestionIndex, sub.PlayerID)] = answer
		next.Players = copyPlayers(cur.Players)
		next.Players[idx].HasAnswered = true

		if allAnswered(next.Players) {
			return CloseQuestion(&next), true
		}
		return &next, true
	}
}

// ExpireQuestion closes the question when its countdown runs out. It aborts if the
// question was already closed or the game moved on.
func ExpireQuestion(questionIndex int) domain.Mutation {
	return func(cur *domain.SessionRecord) (*domain.SessionRecord, bool) {
		if cur == nil || cur.Phase != domain.PhaseQuestionActive || cur.CurrentQuestionIndex != questionIndex {
			return nil, false
		}
		return CloseQuestion(cur), true
	}
}

// CloseQuestion folds the current question's points into scores and moves to results.
func CloseQuestion(cur *domain.SessionRecord) *domain.SessionRecord {
	next := *cur
	next.Phase = domain.PhaseQuestionResults
	next.Players = copyPlayers(cur.Players)

	question, ok := cur.CurrentQuestion()
	if !ok {
		return &next
	}
	for i, p := range next.Players {
		answer, found := cur.Answers[domain.AnswerKey(cur.CurrentQuestionIndex, p.User.ID)]
		if !found {
			continue
		}
		next.Players[i].Score += Points(answer.IsCorrect, answer.TimeTaken, question.TimeLimit)
	}
	return &next
}

// StartPatch moves a lobby to the first question intro.
func StartPatch() domain.Patch {
	return domain.Patch{
		domain.FieldPhase:         domain.PhaseQuestionIntro,
		domain.FieldQuestionIndex: 0,
		domain.FieldAnswers:       nil,
	}
}

// AdvancePatch moves from the leaderboard to the next question, or ends the game
// when the next index is past the last question.
func AdvancePatch(quiz *domain.Quiz, currentIndex int, players []domain.Player) domain.Patch {
	next := currentIndex + 1
	if quiz == nil || next >= len(quiz.Questions) {
		return EndPatch()
	}
	reset := copyPlayers(players)
	for i := range reset {
		reset[i].HasAnswered = false
	}
	return domain.Patch{
		domain.FieldPhase:         domain.PhaseQuestionIntro,
		domain.FieldQuestionIndex: next,
		domain.FieldPlayers:       reset,
		domain.FieldAnswers:       nil,
	}
}

// EndPatch finishes the game.
func EndPatch() domain.Patch {
	return PhasePatch(domain.PhaseEnd)
}

// PhasePatch overwrites only the phase.
func PhasePatch(p domain.Phase) domain.Patch {
	return domain.Patch{domain.FieldPhase: p}
}

func allAnswered(players []domain.Player) bool {
	for _, p := range players {
		if !p.HasAnswered {
			return false
		}
	}
	return true
}

func copyPlayers(players []domain.Player) []domain.Player {
	out := make([]domain.Player, len(players))
	copy(out, players)
	return out
}

func copyAnswers(answers map[string]domain.PlayerAnswer) map[string]domain.PlayerAnswer {
	out := make(map[string]domain.PlayerAnswer, len(answers)+1)
	for k, v := range answers {
		out[k] = v
	}
	return out
}
